package bots_monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"holder-map/internal/domain"
	"holder-map/internal/features/holders"
	storage "holder-map/internal/infra/fs"
	log "holder-map/internal/infra/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Analyzer classifies a token and optionally renders its chart.
// chartPath is "" when no chart was produced.
type Analyzer func(ctx context.Context, token domain.Address) (rep *holders.Report, chartPath string, err error)

// CommandHandler answers chat commands from one chat.
type CommandHandler struct {
	bot         Sender
	chatID      string
	analyze     Analyzer
	vestingFile string

	// one classification at a time; further requests are refused
	busy chan struct{}
}

func NewCommandHandler(bot Sender, chatID string, analyze Analyzer, vestingFile string) *CommandHandler {
	return &CommandHandler{
		bot:         bot,
		chatID:      chatID,
		analyze:     analyze,
		vestingFile: vestingFile,
		busy:        make(chan struct{}, 1),
	}
}

// RunCommandHandler polls bot for updates until ctx is done.
func RunCommandHandler(ctx context.Context, bot *tgbotapi.BotAPI, chatID string, analyze Analyzer, vestingFile string) {
	if bot == nil {
		log.LogWarn("Bot is nil, command handler not started")
		return
	}
	if chatID == "" {
		log.LogWarn("Chat ID is empty, command handler not started")
		return
	}
	log.LogInfo("Starting command handler", zap.String("chatID", chatID))

	h := NewCommandHandler(bot, chatID, analyze, vestingFile)
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)
	defer bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			log.LogInfo("Command handler stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			h.Handle(ctx, update.Message)
		}
	}
}

// Handle dispatches one command message. Messages from other chats are ignored.
func (h *CommandHandler) Handle(ctx context.Context, message *tgbotapi.Message) {
	if message.Chat == nil || message.Chat.ID != parseChatID(h.chatID) {
		return
	}
	command := message.Command()
	args := strings.Fields(message.CommandArguments())

	username := ""
	if message.From != nil {
		username = message.From.UserName
	}
	log.LogDebug("Received command",
		zap.String("command", command),
		zap.Strings("args", args),
		zap.String("username", username))

	switch command {
	case "holders", "map":
		if len(args) < 1 {
			h.reply(message, "Usage: /holders {token}\n\nExample: /holders 0x1234…")
			return
		}
		h.handleHolders(ctx, message, args[0])
	case "vestadd", "vestdel":
		if len(args) < 2 {
			h.reply(message, fmt.Sprintf("Usage: /%s {token|global} {address}", command))
			return
		}
		h.handleVesting(message, command == "vestadd", args[0], args[1])
	case "help", "start":
		h.replyHTML(message, helpText)
	}
}

const helpText = "Commands:\n" +
	"• <code>/holders {token}</code> - holder map and first buyers\n" +
	"• <code>/vestadd {token|global} {address}</code> - mark a vesting contract\n" +
	"• <code>/vestdel {token|global} {address}</code> - unmark a vesting contract\n"

func (h *CommandHandler) handleHolders(ctx context.Context, message *tgbotapi.Message, raw string) {
	token := domain.NormalizeAddress(raw)
	if !token.IsHex() {
		h.reply(message, fmt.Sprintf("Invalid token address {%s}", raw))
		return
	}
	if h.analyze == nil {
		h.reply(message, "Analysis is not configured")
		return
	}
	select {
	case h.busy <- struct{}{}:
		defer func() { <-h.busy }()
	default:
		h.reply(message, "Another analysis is running, please try again later")
		return
	}

	h.reply(message, fmt.Sprintf("Analyzing %s…", token.Short()))
	rep, chartPath, err := h.analyze(ctx, token)
	if err != nil {
		log.LogError("Classification failed", zap.String("token", token.String()), zap.Error(err))
		text := "An error occurred, please try again later"
		if errors.Is(err, holders.ErrNoData) {
			text = fmt.Sprintf("No transfer data for %s", token.Short())
		}
		h.reply(message, text)
		return
	}
	if err := SendClassificationReport(h.bot, h.chatID, rep, chartPath); err != nil {
		log.LogError("Failed to send report", zap.String("token", token.String()), zap.Error(err))
	}
}

func (h *CommandHandler) handleVesting(message *tgbotapi.Message, add bool, rawToken, rawAddr string) {
	var token domain.Address
	if !strings.EqualFold(rawToken, "global") {
		token = domain.NormalizeAddress(rawToken)
		if !token.IsHex() {
			h.reply(message, fmt.Sprintf("Invalid token address {%s}", rawToken))
			return
		}
	}
	addr := domain.NormalizeAddress(rawAddr)

	var err error
	if add {
		err = storage.AddVesting(h.vestingFile, token, addr)
	} else {
		err = storage.RemoveVesting(h.vestingFile, token, addr)
	}
	if err != nil {
		log.LogWarn("Vesting update failed", zap.Bool("add", add), zap.String("address", rawAddr), zap.Error(err))
		h.reply(message, fmt.Sprintf("Could not update {%s}: %v", addr.Short(), err))
		return
	}
	verb := "added to"
	if !add {
		verb = "removed from"
	}
	h.reply(message, fmt.Sprintf("{%s} %s the vesting list", addr.Short(), verb))
	log.LogInfo("Vesting list updated via command",
		zap.Bool("add", add),
		zap.String("token", token.String()),
		zap.String("address", addr.String()))
}

func (h *CommandHandler) reply(message *tgbotapi.Message, text string) {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyToMessageID = message.MessageID
	if _, err := h.bot.Send(msg); err != nil {
		log.LogError("Failed to send reply", zap.Error(err))
	}
}

func (h *CommandHandler) replyHTML(message *tgbotapi.Message, text string) {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyToMessageID = message.MessageID
	if _, err := h.bot.Send(msg); err != nil {
		log.LogError("Failed to send reply", zap.Error(err))
	}
}
