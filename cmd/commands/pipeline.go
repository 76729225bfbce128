package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"holder-map/internal/clients_api/dexscreener"
	"holder-map/internal/clients_api/explorer"
	"holder-map/internal/domain"
	"holder-map/internal/features/holders"
	"holder-map/internal/features/tg_charts"
	"holder-map/internal/infra/config"
	storage "holder-map/internal/infra/fs"
	logging "holder-map/internal/infra/log"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const chartFileName = "holder_map.png"

func changedFlags(cmd *cobra.Command) *pflag.FlagSet {
	fs := pflag.NewFlagSet(cmd.Name(), pflag.ContinueOnError)
	cmd.Flags().Visit(func(f *pflag.Flag) { fs.AddFlag(f) })
	return fs
}

func newExplorer(cfg *config.Config) *explorer.Client {
	return explorer.NewClient(explorer.Options{
		BaseURL:         cfg.Explorer.BaseURL,
		APIKey:          cfg.Explorer.APIKey,
		ChainID:         cfg.Explorer.ChainID,
		Timeout:         cfg.RequestTimeout(),
		MaxRetries:      cfg.Explorer.MaxRetries,
		RateLimit:       cfg.Explorer.RateLimit,
		PageSize:        cfg.Explorer.PageSize,
		MaxPages:        cfg.Explorer.MaxPages,
		MaxResponseSize: cfg.Explorer.MaxResponseSize,
	})
}

// sources wires the live oracles. With a snapshot the transfer feed comes
// from disk and the explorer, when a key is configured, only serves point reads.
func sources(cfg *config.Config, snapshot string) (holders.Sources, error) {
	src := holders.Sources{
		Pairs: dexscreener.NewClient(cfg.DexScreener.BaseURL, cfg.DexScreener.Chain),
	}
	if snapshot != "" {
		src.Transfers = storage.SnapshotFeed{Path: snapshot}
		if cfg.RequireExplorer() != nil {
			logging.LogWarn("No explorer API key, running offline: balances stay ledger-derived")
			return src, nil
		}
	} else if err := cfg.RequireExplorer(); err != nil {
		return src, err
	}
	ex := newExplorer(cfg)
	if src.Transfers == nil {
		src.Transfers = ex
	}
	src.Balances = ex
	src.Creator = ex
	src.Funding = ex
	return src, nil
}

type runOptions struct {
	snapshot     string
	saveSnapshot bool
	chart        bool
}

// analyze runs one classification end to end and persists the report.
func analyze(ctx context.Context, cfg *config.Config, token domain.Address, opts runOptions) (*holders.Report, string, error) {
	vesting, err := storage.LoadVesting(cfg.Vesting.File, token)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load vesting list: %w", err)
	}
	src, err := sources(cfg, opts.snapshot)
	if err != nil {
		return nil, "", err
	}
	hcfg := cfg.Holders(vesting)

	var rep *holders.Report
	if opts.saveSnapshot {
		transfers, err := src.Transfers.TokenTransfers(ctx, token)
		if err != nil {
			return nil, "", fmt.Errorf("%w: failed to fetch transfers for %s: %w", holders.ErrNoData, token, err)
		}
		if len(transfers) > 0 {
			if _, err := storage.SaveTransfers(cfg.App.OutDir, token, transfers); err != nil {
				logging.LogWarn("Failed to save transfer snapshot", zap.Error(err))
			}
		}
		rep, err = holders.Classify(ctx, hcfg, src, token, transfers)
		if err != nil {
			return nil, "", err
		}
	} else {
		rep, err = holders.Run(ctx, hcfg, src, token)
		if err != nil {
			return nil, "", err
		}
	}

	if _, err := storage.SaveReport(cfg.App.OutDir, rep); err != nil {
		return rep, "", err
	}

	chartPath := ""
	if opts.chart {
		path := filepath.Join(storage.TokenDir(cfg.App.OutDir, token), chartFileName)
		if chartPath, err = tg_charts.GenerateBubbleMap(rep, path); err != nil {
			logging.LogWarn("Failed to generate bubble map", zap.Error(err))
			chartPath = ""
		}
	}
	return rep, chartPath, nil
}
