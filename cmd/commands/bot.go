package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"holder-map/bots_monitor"
	"holder-map/internal/domain"
	"holder-map/internal/features/holders"
	logging "holder-map/internal/infra/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram command bot (/holders, /vestadd, /vestdel)",
	RunE:  runBot,
}

func runBot(cmd *cobra.Command, args []string) error {
	if err := appCfg.RequireTelegram(); err != nil {
		return err
	}
	if err := appCfg.RequireExplorer(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bot, err := tgbotapi.NewBotAPI(appCfg.Telegram.BotToken)
	if err != nil {
		logging.LogError("Failed to initialize bot", zap.Error(err))
		return err
	}
	logging.LogSuccess("Bot authorized", zap.String("username", bot.Self.UserName))

	analyzer := func(ctx context.Context, token domain.Address) (*holders.Report, string, error) {
		return analyze(ctx, appCfg, token, runOptions{chart: true})
	}
	bots_monitor.RunCommandHandler(ctx, bot, appCfg.Telegram.ChatID, analyzer, appCfg.Vesting.File)

	logging.LogInfo("Shutdown signal received, bot stopped")
	return nil
}
