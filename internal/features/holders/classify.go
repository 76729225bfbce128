package holders

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"holder-map/internal/domain"
	logging "holder-map/internal/infra/log"

	"go.uber.org/zap"
)

// ErrNoData is returned when the transfer feed is empty or unobtainable.
var ErrNoData = errors.New("no data")

// Run fetches the transfer history through src.Transfers and classifies it.
func Run(ctx context.Context, cfg Config, src Sources, token domain.Address) (*Report, error) {
	if src.Transfers == nil {
		return nil, fmt.Errorf("%w: no transfer feed configured", ErrNoData)
	}
	token = domain.NormalizeAddress(token.String())
	transfers, err := src.Transfers.TokenTransfers(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch transfers for %s: %w", ErrNoData, token, err)
	}
	return Classify(ctx, cfg, src, token, transfers)
}

// Classify builds a report from a fetched transfer snapshot. Only an empty
// snapshot is an error; failed point reads degrade to ledger data.
func Classify(ctx context.Context, cfg Config, src Sources, token domain.Address, transfers []domain.Transfer) (*Report, error) {
	if len(transfers) == 0 {
		return nil, ErrNoData
	}
	start := time.Now()
	cfg = cfg.withDefaults()
	token = domain.NormalizeAddress(token.String())

	txs := domain.CanonicalTransfers(transfers)
	decimals, confident := InferDecimals(txs)
	ledger := BuildLedger(token, txs)
	supply := ledger.Supply()

	rep := &Report{
		Token:             token,
		GeneratedAt:       time.Now().UTC(),
		Decimals:          decimals,
		DecimalsConfident: confident,
		TransferCount:     len(txs),
	}

	if src.Creator != nil {
		creator, err := src.Creator.ContractCreator(ctx, token)
		if err != nil {
			rep.Degraded.CreatorLookupFailed = true
			logging.LogWarn("Creator lookup failed", zap.String("token", token.String()), zap.Error(err))
		} else {
			rep.Creator = domain.NormalizeAddress(creator.String())
		}
	}

	pools, err := DiscoverPools(ctx, src.Pairs, token, cfg)
	if err != nil {
		rep.Degraded.PairDiscoveryFailed = true
		logging.LogWarn("Pair discovery failed, using configured pools only", zap.String("token", token.String()), zap.Error(err))
	}
	var failed int
	rep.Pools, failed = ResolveAccounts(ctx, src.Balances, token, pools, ledger, cfg, "LP")
	rep.Degraded.PoolReadsFailed = failed
	rep.Vested, failed = ResolveAccounts(ctx, src.Balances, token, cfg.Vesting, ledger, cfg, "VESTED")
	rep.Degraded.VestedReadsFailed = failed

	rep.Proxies = DetectProxies(ledger, cfg)
	excluded := cfg.KnownSystem.Merge(cfg.AlwaysExclude, cfg.Vesting, proxySet(rep.Proxies))

	verified := VerifyHolders(ctx, src.Balances, token, BuildHolderSet(ledger, excluded.Merge(pools)), cfg)
	holders := verified.Holders
	rep.Degraded.UnverifiedHolders = verified.Unverified
	assignPercents(holders, supply.Current)

	resolverExcluded := excluded.Merge(domain.NewAddressSet(token))
	rep.Buyers = FirstBuyers(txs, pools, resolverExcluded, cfg.FirstBuyersLimit, cfg.MaxHopDepth)
	rep.Early = ClassifyEarly(ctx, src.Funding, txs, pools, resolverExcluded, rep.Creator, supply.Current, cfg)
	rep.Degraded.FundingLookupFailed = rep.Early.FundingFailures

	current := make(map[domain.Address]*big.Int, len(holders))
	for _, h := range holders {
		current[h.Address] = h.Units
	}
	for i := range rep.Buyers {
		b := &rep.Buyers[i]
		units, ok := current[b.Address]
		switch {
		case ok:
		case verified.Emptied.Has(b.Address):
			units = new(big.Int)
		default:
			units = ledger.Balance(b.Address)
		}
		enrichBuyer(b, units, supply.Current)
		if eb, ok := rep.EarlyBuyer(b.Address); ok {
			b.Early, b.Snipe, b.Insider, b.FundedBy = true, eb.Snipe, eb.Insider, eb.FundedBy
		}
	}

	supply.Circulating = circulating(supply.Current, rep.Pools, rep.Vested, rep.Proxies)
	rep.Supply = supply
	for i := range rep.Pools {
		rep.Pools[i].Pct = PercentOf(rep.Pools[i].Units, supply.Current)
	}
	for i := range rep.Vested {
		rep.Vested[i].Pct = PercentOf(rep.Vested[i].Units, supply.Current)
	}

	rep.Holders = headHolders(holders, cfg.RenderTopN)
	rep.Top = headHolders(holders, cfg.TopListN)
	rep.BotRecipients = sortedAddresses(ledger.RecipientsOf(cfg.BotAddresses))
	rep.Stats = buildStats(rep, len(holders))

	logging.LogInfo("Classification finished",
		zap.String("token", token.String()),
		zap.Int("transfers", len(txs)),
		zap.Int("holders", rep.Stats.HolderCount),
		zap.Int("pools", len(rep.Pools)),
		zap.Int("proxies", len(rep.Proxies)),
		zap.Int("buyers", len(rep.Buyers)),
		zap.Int("early", len(rep.Early.Buyers)),
		zap.Bool("degraded", rep.Degraded.Any()),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()))
	return rep, nil
}

// circulating is current supply minus pool, vesting and proxy balances, floored at zero.
func circulating(current *big.Int, pools, vested []Account, proxies []ProxyFlag) *big.Int {
	c := new(big.Int).Set(current)
	c.Sub(c, sumAccounts(pools))
	c.Sub(c, sumAccounts(vested))
	for _, p := range proxies {
		if p.Balance != nil && p.Balance.Sign() > 0 {
			c.Sub(c, p.Balance)
		}
	}
	if c.Sign() < 0 {
		logging.LogWarn("Circulating supply below zero, clamped",
			zap.String("current", current.String()),
			zap.String("circulating", c.String()))
		c.SetInt64(0)
	}
	return c
}

func headHolders(h []HolderEntry, n int) []HolderEntry {
	if n > len(h) {
		n = len(h)
	}
	out := make([]HolderEntry, n)
	copy(out, h[:n])
	return out
}

func buildStats(rep *Report, holderCount int) Stats {
	current := rep.Supply.Current
	s := Stats{
		HolderCount:     holderCount,
		LPUnits:         sumAccounts(rep.Pools),
		VestedUnits:     sumAccounts(rep.Vested),
		BurnPctVsMinted: PercentOf(rep.Supply.Burned, rep.Supply.Minted),
		CirculatingPct:  PercentOf(rep.Supply.Circulating, current),
	}
	s.LPPct = PercentOf(s.LPUnits, current)
	s.VestedPct = PercentOf(s.VestedUnits, current)

	for i, h := range rep.Holders {
		if i < 10 {
			s.Top10Pct += h.Pct
		}
		if rep.Creator != "" && h.Address == rep.Creator {
			s.CreatorPct = h.Pct
		}
	}
	for _, eb := range rep.Early.Buyers {
		if eb.Snipe {
			s.SnipeCount++
		}
		if eb.Insider {
			s.InsiderCount++
		}
	}
	return s
}
