package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"holder-map/bots_monitor"
	"holder-map/internal/domain"
	"holder-map/internal/features/holders"
	storage "holder-map/internal/infra/fs"
	logging "holder-map/internal/infra/log"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	snapshotPath string
	saveSnapshot bool
	renderChart  bool
	notify       bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify <token>",
	Short: "Classify the holders of a token and save the report",
	Long: `Fetch (or load) the transfer history of a token, classify its holders, first buyers
and early-window participants, and write data_out/<token>/report.json.`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&snapshotPath, "snapshot", "", "classify a saved transfer snapshot instead of fetching")
	classifyCmd.Flags().BoolVar(&saveSnapshot, "save-snapshot", false, "save the fetched transfers next to the report")
	classifyCmd.Flags().BoolVar(&renderChart, "chart", false, "render the bubble map PNG")
	classifyCmd.Flags().BoolVar(&notify, "notify", false, "send the report to Telegram")
}

func runClassify(cmd *cobra.Command, args []string) error {
	token := domain.NormalizeAddress(args[0])
	if !token.IsHex() {
		return fmt.Errorf("invalid token address %q", args[0])
	}
	if notify {
		if err := appCfg.RequireTelegram(); err != nil {
			return err
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rep, chartPath, err := analyze(ctx, appCfg, token, runOptions{
		snapshot:     snapshotPath,
		saveSnapshot: saveSnapshot,
		chart:        renderChart || notify,
	})
	if errors.Is(err, holders.ErrNoData) {
		logging.LogWarn("No data for token", zap.String("token", token.String()), zap.Error(err))
		return fmt.Errorf("no data for %s", token)
	}
	if err != nil {
		return err
	}

	printSummary(rep, chartPath)

	if notify {
		bot, err := tgbotapi.NewBotAPI(appCfg.Telegram.BotToken)
		if err != nil {
			return fmt.Errorf("failed to initialize bot: %w", err)
		}
		if chartPath != "" {
			if err := storage.WaitForFile(ctx, chartPath, 5*time.Second); err != nil {
				logging.LogWarn("Chart not ready, sending text only", zap.Error(err))
				chartPath = ""
			}
		}
		if err := bots_monitor.SendClassificationReport(bot, appCfg.Telegram.ChatID, rep, chartPath); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(rep *holders.Report, chartPath string) {
	s := rep.Stats
	fmt.Printf("Token        %s\n", rep.Token)
	if rep.Creator != "" {
		fmt.Printf("Creator      %s (%.2f%%)\n", rep.Creator, s.CreatorPct)
	}
	fmt.Printf("Decimals     %d (confident: %v)\n", rep.Decimals, rep.DecimalsConfident)
	fmt.Printf("Transfers    %s\n", humanize.Comma(int64(rep.TransferCount)))
	fmt.Printf("Supply       %s (circulating %.2f%%, burned %.2f%% of minted)\n",
		holders.HumanUnits(rep.Supply.Current, rep.Decimals), s.CirculatingPct, s.BurnPctVsMinted)
	fmt.Printf("Holders      %s (top 10 hold %.2f%%)\n", humanize.Comma(int64(s.HolderCount)), s.Top10Pct)
	fmt.Printf("LP / vested  %.2f%% / %.2f%%\n", s.LPPct, s.VestedPct)
	fmt.Printf("Distributors %d\n", len(rep.Proxies))
	fmt.Printf("First buyers %d (early %d, snipes %d, insiders %d)\n",
		len(rep.Buyers), len(rep.Early.Buyers), s.SnipeCount, s.InsiderCount)
	if rep.Degraded.Any() {
		fmt.Printf("Degraded     %+v\n", rep.Degraded)
	}
	if chartPath != "" {
		fmt.Printf("Chart        %s\n", chartPath)
	}
}
