package bots_monitor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"holder-map/internal/domain"
	"holder-map/internal/features/holders"
	storage "holder-map/internal/infra/fs"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChat = int64(-1001)

func cmdMessage(chatID int64, text string) *tgbotapi.Message {
	n := strings.IndexByte(text, ' ')
	if n < 0 {
		n = len(text)
	}
	return &tgbotapi.Message{
		MessageID: 7,
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: n}},
	}
}

func texts(s *recordingSender) []string {
	var out []string
	for _, c := range s.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

func TestHandleHolders(t *testing.T) {
	s := &recordingSender{}
	var analyzed domain.Address
	analyze := func(_ context.Context, token domain.Address) (*holders.Report, string, error) {
		analyzed = token
		return sampleReport(2), "", nil
	}
	h := NewCommandHandler(s, fmt.Sprint(testChat), analyze, "")

	h.Handle(context.Background(), cmdMessage(testChat, "/holders 0x00000000000000000000000000000000000000AA"))

	assert.Equal(t, domain.Address("0x00000000000000000000000000000000000000aa"), analyzed)
	got := texts(s)
	require.Len(t, got, 2)
	assert.Contains(t, got[0], "Analyzing")
	assert.Contains(t, got[1], "<b>Holder map</b>")
}

func TestHandleHoldersErrors(t *testing.T) {
	s := &recordingSender{}
	analyze := func(context.Context, domain.Address) (*holders.Report, string, error) {
		return nil, "", fmt.Errorf("%w: empty feed", holders.ErrNoData)
	}
	h := NewCommandHandler(s, fmt.Sprint(testChat), analyze, "")

	h.Handle(context.Background(), cmdMessage(testChat, "/holders"))
	h.Handle(context.Background(), cmdMessage(testChat, "/holders nope"))
	h.Handle(context.Background(), cmdMessage(testChat, "/holders 0x00000000000000000000000000000000000000aa"))

	got := texts(s)
	require.Len(t, got, 4)
	assert.Contains(t, got[0], "Usage")
	assert.Contains(t, got[1], "Invalid token")
	assert.Contains(t, got[3], "No transfer data")
}

func TestHandleIgnoresOtherChats(t *testing.T) {
	s := &recordingSender{}
	h := NewCommandHandler(s, fmt.Sprint(testChat), nil, "")
	h.Handle(context.Background(), cmdMessage(555, "/help"))
	assert.Empty(t, s.sent)

	h.Handle(context.Background(), cmdMessage(testChat, "/help"))
	assert.Len(t, s.sent, 1)
}

func TestHandleVesting(t *testing.T) {
	file := filepath.Join(t.TempDir(), "vesting.json")
	s := &recordingSender{}
	h := NewCommandHandler(s, fmt.Sprint(testChat), nil, file)
	token := addr(0x70)
	vest := addr(0x800)

	h.Handle(context.Background(), cmdMessage(testChat, "/vestadd "+token.String()+" "+vest.String()))
	h.Handle(context.Background(), cmdMessage(testChat, "/vestadd global "+addr(0x801).String()))

	set, err := storage.LoadVesting(file, token)
	require.NoError(t, err)
	assert.True(t, set.Has(vest))
	assert.True(t, set.Has(addr(0x801)))

	h.Handle(context.Background(), cmdMessage(testChat, "/vestdel "+token.String()+" "+vest.String()))
	set, err = storage.LoadVesting(file, token)
	require.NoError(t, err)
	assert.False(t, set.Has(vest))

	got := texts(s)
	require.Len(t, got, 3)
	assert.Contains(t, got[0], "added to")
	assert.Contains(t, got[2], "removed from")
}

func TestHandleHoldersBusy(t *testing.T) {
	s := &recordingSender{}
	h := NewCommandHandler(s, fmt.Sprint(testChat), func(context.Context, domain.Address) (*holders.Report, string, error) {
		return sampleReport(1), "", nil
	}, "")
	h.busy <- struct{}{}

	h.Handle(context.Background(), cmdMessage(testChat, "/holders "+addr(0x70).String()))
	got := texts(s)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "Another analysis")
}
