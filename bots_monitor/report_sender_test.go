package bots_monitor

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"holder-map/internal/domain"
	"holder-map/internal/features/holders"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent      []tgbotapi.Chattable
	failPhoto bool
}

func (r *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if _, ok := c.(tgbotapi.PhotoConfig); ok && r.failPhoto {
		return tgbotapi.Message{}, errors.New("upload failed")
	}
	r.sent = append(r.sent, c)
	return tgbotapi.Message{}, nil
}

func addr(n int) domain.Address {
	return domain.Address(fmt.Sprintf("0x%040x", n))
}

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func sampleReport(holderCount int) *holders.Report {
	rep := &holders.Report{
		Token:             addr(0x70),
		Creator:           addr(0xc0),
		Decimals:          18,
		DecimalsConfident: true,
		TransferCount:     12345,
		Supply: holders.Supply{
			Minted: e18(1_000_000), Burned: e18(0), Current: e18(1_000_000), Circulating: e18(600_000),
		},
		Buyers: []holders.BuyerRecord{
			{Address: addr(1), InitialUnits: e18(5000), Status: holders.StatusHold, Snipe: true},
			{Address: addr(2), InitialUnits: e18(1000), Status: holders.StatusSoldAll, Insider: true},
		},
		Early: holders.EarlyWindow{
			FirstLiquidityTs: 1700000000,
			Buyers:           []holders.EarlyBuyer{{Address: addr(1), Snipe: true}, {Address: addr(2), Insider: true}},
		},
		BotRecipients: []domain.Address{addr(3)},
		Stats:         holders.Stats{HolderCount: holderCount, Top10Pct: 42.5, CreatorPct: 1.25, SnipeCount: 1, InsiderCount: 1},
	}
	for i := 1; i <= holderCount; i++ {
		rep.Holders = append(rep.Holders, holders.HolderEntry{Address: addr(i), Units: e18(int64(1000 * i)), Pct: 0.1 * float64(i)})
	}
	return rep
}

func TestFormatReportMessage(t *testing.T) {
	text := FormatReportMessage(sampleReport(12))

	assert.Contains(t, text, "<b>Holder map</b>")
	assert.Contains(t, text, "Transfers: 12,345")
	assert.Contains(t, text, "Current: 1,000,000")
	assert.Contains(t, text, "Top 10: 42.50%")
	assert.Contains(t, text, "holding")
	assert.Contains(t, text, "sold all")
	assert.Contains(t, text, "🤖")
	assert.Contains(t, text, "Early window: 2 buyers · 1 snipes · 1 insiders")
	assert.NotContains(t, text, "11. ")
	assert.NotContains(t, text, "Partial data")
}

func TestFormatReportMessageDegraded(t *testing.T) {
	rep := sampleReport(1)
	rep.DecimalsConfident = false
	rep.Degraded.PoolReadsFailed = 1
	text := FormatReportMessage(rep)
	assert.Contains(t, text, "(assumed)")
	assert.Contains(t, text, "Partial data")
}

func TestSendClassificationReportTextOnly(t *testing.T) {
	s := &recordingSender{}
	require.NoError(t, SendClassificationReport(s, "-100123", sampleReport(3), ""))
	require.Len(t, s.sent, 1)

	msg, ok := s.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(-100123), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
}

func TestSendClassificationReportWithChart(t *testing.T) {
	chart := filepath.Join(t.TempDir(), "map.png")
	require.NoError(t, os.WriteFile(chart, []byte("png"), 0644))

	s := &recordingSender{}
	require.NoError(t, SendClassificationReport(s, "42", sampleReport(10), chart))
	require.Len(t, s.sent, 2, "long summary goes out after the photo")
	_, ok := s.sent[0].(tgbotapi.PhotoConfig)
	assert.True(t, ok)

	s = &recordingSender{failPhoto: true}
	require.NoError(t, SendClassificationReport(s, "42", sampleReport(10), chart))
	require.Len(t, s.sent, 1)
	_, ok = s.sent[0].(tgbotapi.MessageConfig)
	assert.True(t, ok)
}

func TestSendClassificationReportErrors(t *testing.T) {
	assert.Error(t, SendClassificationReport(nil, "1", sampleReport(1), ""))
	assert.Error(t, SendClassificationReport(&recordingSender{}, "abc", sampleReport(1), ""))
	assert.Error(t, SendClassificationReport(&recordingSender{}, "1", nil, ""))
}

func TestTruncateHTML(t *testing.T) {
	text := strings.Repeat("line of text\n", 100)
	out := truncateHTML(text, 200)
	assert.LessOrEqual(t, len(out), 200)
	assert.True(t, strings.HasSuffix(out, "\n…"))
	assert.Equal(t, "short", truncateHTML("short", 200))
}
