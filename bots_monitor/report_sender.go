package bots_monitor

import (
	"fmt"
	"html"
	"math/big"
	"os"
	"strings"
	"time"

	"holder-map/internal/domain"
	"holder-map/internal/features/holders"
	log "holder-map/internal/infra/log"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	// Telegram limits.
	maxCaptionLen = 1024
	maxMessageLen = 4096

	tokenURLFormat   = "https://abscan.org/token/%s"
	addressURLFormat = "https://abscan.org/address/%s"

	messageTopHolders = 10
	messageBuyers     = 10
)

// Sender is the part of *tgbotapi.BotAPI used for delivery.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

func parseChatID(chatIDStr string) int64 {
	var chatID int64
	fmt.Sscanf(chatIDStr, "%d", &chatID)
	return chatID
}

// SendClassificationReport posts the report summary to chatID. With a chart
// the summary goes out as the photo caption, or as a follow-up message when
// it exceeds the caption limit. Without a chart only the text is sent.
func SendClassificationReport(bot Sender, chatID string, rep *holders.Report, chartPath string) error {
	if bot == nil {
		return fmt.Errorf("telegram bot is not configured")
	}
	if rep == nil {
		return fmt.Errorf("report is nil")
	}
	id := parseChatID(chatID)
	if id == 0 {
		return fmt.Errorf("invalid chat id %q", chatID)
	}

	text := FormatReportMessage(rep)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("View on Abscan", fmt.Sprintf(tokenURLFormat, rep.Token)),
		),
	)

	sendText := func() error {
		msg := tgbotapi.NewMessage(id, truncateHTML(text, maxMessageLen))
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		msg.ReplyMarkup = keyboard
		if _, err := bot.Send(msg); err != nil {
			return fmt.Errorf("failed to send report message: %w", err)
		}
		return nil
	}

	if chartPath != "" {
		if _, err := os.Stat(chartPath); err != nil {
			log.LogWarn("Chart file does not exist, sending text only", zap.String("chartPath", chartPath), zap.Error(err))
			chartPath = ""
		}
	}
	if chartPath == "" {
		if err := sendText(); err != nil {
			return err
		}
		log.LogInfo("Report sent", zap.String("chatID", chatID), zap.String("token", rep.Token.String()))
		return nil
	}

	caption := text
	split := len(caption) > maxCaptionLen
	if split {
		caption = fmt.Sprintf("<b>Holder map</b> <code>%s</code>", html.EscapeString(rep.Token.String()))
	}
	photo := tgbotapi.NewPhoto(id, tgbotapi.FilePath(chartPath))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML
	if !split {
		photo.ReplyMarkup = keyboard
	}
	if _, err := bot.Send(photo); err != nil {
		log.LogError("Failed to send chart, falling back to text", zap.Error(err))
		return sendText()
	}
	if split {
		if err := sendText(); err != nil {
			return err
		}
	}
	log.LogInfo("Report sent with chart",
		zap.String("chatID", chatID),
		zap.String("token", rep.Token.String()),
		zap.String("chartPath", chartPath))
	return nil
}

// FormatReportMessage renders the HTML summary of a report.
func FormatReportMessage(rep *holders.Report) string {
	var b strings.Builder
	amount := func(raw *big.Int) string { return holders.HumanUnits(raw, rep.Decimals) }

	fmt.Fprintf(&b, "<b>Holder map</b> <a href=\"%s\">%s</a>\n", fmt.Sprintf(tokenURLFormat, rep.Token), html.EscapeString(rep.Token.Short()))
	if rep.Creator != "" {
		fmt.Fprintf(&b, "Creator: <code>%s</code> (%.2f%%)\n", html.EscapeString(rep.Creator.Short()), rep.Stats.CreatorPct)
	}
	decNote := ""
	if !rep.DecimalsConfident {
		decNote = " (assumed)"
	}
	fmt.Fprintf(&b, "Decimals: %d%s · Transfers: %s\n\n", rep.Decimals, decNote, humanize.Comma(int64(rep.TransferCount)))

	b.WriteString("<b>Supply</b>\n")
	fmt.Fprintf(&b, "Current: %s\n", amount(rep.Supply.Current))
	fmt.Fprintf(&b, "Circulating: %s (%.2f%%)\n", amount(rep.Supply.Circulating), rep.Stats.CirculatingPct)
	fmt.Fprintf(&b, "Burned: %s (%.2f%% of minted)\n", amount(rep.Supply.Burned), rep.Stats.BurnPctVsMinted)
	fmt.Fprintf(&b, "LP: %.2f%% · Vested: %.2f%%\n\n", rep.Stats.LPPct, rep.Stats.VestedPct)

	fmt.Fprintf(&b, "<b>Holders</b>: %s · Top 10: %.2f%%\n", humanize.Comma(int64(rep.Stats.HolderCount)), rep.Stats.Top10Pct)
	for i, h := range rep.Holders {
		if i >= messageTopHolders {
			break
		}
		marks := flagMarks(rep, h.Address)
		fmt.Fprintf(&b, "%d. <a href=\"%s\">%s</a> %.2f%%%s\n",
			i+1, fmt.Sprintf(addressURLFormat, h.Address), html.EscapeString(h.Address.Short()), h.Pct, marks)
	}

	if len(rep.Buyers) > 0 {
		b.WriteString("\n<b>First buyers</b>\n")
		for i, buyer := range rep.Buyers {
			if i >= messageBuyers {
				break
			}
			marks := ""
			if buyer.Snipe {
				marks += " 🎯"
			}
			if buyer.Insider {
				marks += " 🕵"
			}
			fmt.Fprintf(&b, "%d. %s %s · %s%s\n",
				i+1, html.EscapeString(buyer.Address.Short()), statusLabel(buyer.Status), amount(buyer.InitialUnits), marks)
		}
	}

	if n := len(rep.Early.Buyers); n > 0 {
		fmt.Fprintf(&b, "\nEarly window: %d buyers · %d snipes · %d insiders\n", n, rep.Stats.SnipeCount, rep.Stats.InsiderCount)
		if rep.Early.FirstLiquidityTs > 0 {
			fmt.Fprintf(&b, "Liquidity added %s\n", humanize.Time(time.Unix(rep.Early.FirstLiquidityTs, 0)))
		}
	}
	if len(rep.Proxies) > 0 {
		fmt.Fprintf(&b, "Distributors excluded: %d\n", len(rep.Proxies))
	}
	if rep.Degraded.Any() {
		b.WriteString("\n⚠️ Partial data: some lookups failed\n")
	}
	return b.String()
}

func flagMarks(rep *holders.Report, a domain.Address) string {
	var marks string
	snipe, insider := rep.Flagged(a)
	if snipe {
		marks += " 🎯"
	}
	if insider {
		marks += " 🕵"
	}
	if rep.IsBotRecipient(a) {
		marks += " 🤖"
	}
	return marks
}

func statusLabel(s holders.BuyerStatus) string {
	switch s {
	case holders.StatusHold:
		return "holding"
	case holders.StatusSoldAll:
		return "sold all"
	case holders.StatusSoldPart:
		return "sold part"
	case holders.StatusMore:
		return "bought more"
	default:
		return string(s)
	}
}

// truncateHTML cuts text at a line boundary so no tag is left open.
func truncateHTML(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	room := limit - len("\n…")
	cut := strings.LastIndex(text[:room], "\n")
	if cut <= 0 {
		cut = room
	}
	return text[:cut] + "\n…"
}
