package holders

import (
	"context"
	"math/big"
	"sort"

	"holder-map/internal/domain"
	logging "holder-map/internal/infra/log"
	"holder-map/internal/infra/retry"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EarlyBuyer is a wallet that bought from a pool inside the launch window.
type EarlyBuyer struct {
	Address    domain.Address `json:"address"`
	Units      *big.Int       `json:"units"`
	FirstBuyTs int64          `json:"firstBuyTs"`
	Rank       int            `json:"rank"`

	Snipe     bool           `json:"snipe"`
	Insider   bool           `json:"insider"`
	FundedBy  domain.Address `json:"fundedBy,omitempty"`
	FundingTx string         `json:"fundingTx,omitempty"`
	FundingTs int64          `json:"fundingTs,omitempty"`
}

// EarlyWindow is the launch window and the buyers inside it.
type EarlyWindow struct {
	FirstLiquidityTs int64        `json:"firstLiquidityTs"`
	EndTs            int64        `json:"endTs"`
	Buyers           []EarlyBuyer `json:"buyers"`
	FundingFailures  int          `json:"fundingFailures"`
}

// FirstLiquidity returns the timestamp of the earliest transfer crediting a pool.
func FirstLiquidity(transfers []domain.Transfer, pools domain.AddressSet) (int64, bool) {
	for _, t := range transfers {
		if pools.Has(t.To) {
			return t.Timestamp, true
		}
	}
	return 0, false
}

// aggregateEarlyBuys credits each resolved recipient once per transaction
// inside [start, end] with what that recipient received in it, then ranks
// the result by size.
func aggregateEarlyBuys(groups []txGroup, r recipientResolver, start, end int64) []EarlyBuyer {
	totals := make(map[domain.Address]*EarlyBuyer)
	for _, g := range groups {
		ts := g.first().Timestamp
		if ts < start || ts > end {
			continue
		}
		credited := domain.AddressSet{}
		for _, seed := range poolSeeds(g, r.pools) {
			addr, ok := r.resolve(g, seed.To)
			if !ok || credited.Has(addr) {
				continue
			}
			credited.Add(addr)
			credit := creditsTo(g, addr)
			if credit.Sign() == 0 {
				continue
			}
			eb, ok := totals[addr]
			if !ok {
				eb = &EarlyBuyer{Address: addr, Units: new(big.Int), FirstBuyTs: ts}
				totals[addr] = eb
			}
			eb.Units.Add(eb.Units, credit)
			if ts < eb.FirstBuyTs {
				eb.FirstBuyTs = ts
			}
		}
	}

	out := make([]EarlyBuyer, 0, len(totals))
	for _, eb := range totals {
		out = append(out, *eb)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Units.Cmp(out[j].Units); c != 0 {
			return c > 0
		}
		return out[i].Address < out[j].Address
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// flagSnipes marks buyers holding at least SnipeMinBps of current supply or
// ranked within the top SnipeTopK.
func flagSnipes(buyers []EarlyBuyer, current *big.Int, cfg Config) {
	bps := big.NewInt(cfg.SnipeMinBps)
	tenK := big.NewInt(10_000)
	for i := range buyers {
		bySize := false
		if current.Sign() > 0 {
			lhs := new(big.Int).Mul(buyers[i].Units, tenK)
			rhs := new(big.Int).Mul(current, bps)
			bySize = lhs.Cmp(rhs) >= 0
		}
		buyers[i].Snipe = bySize || buyers[i].Rank <= cfg.SnipeTopK
	}
}

// pickFunding selects the inbound native transfer closest to firstBuy inside
// [firstBuy-lookback, firstBuy+grace]. Equal distances prefer the earlier side.
func pickFunding(addr domain.Address, txs []domain.NativeTx, firstBuy, lookback, grace int64) (domain.NativeTx, bool) {
	lo, hi := firstBuy-lookback, firstBuy+grace
	var best domain.NativeTx
	var bestDist int64
	found := false
	for _, tx := range txs {
		tx.From = domain.NormalizeAddress(tx.From.String())
		tx.To = domain.NormalizeAddress(tx.To.String())
		if tx.To != addr || tx.From == addr || tx.From == "" {
			continue
		}
		if tx.Value == nil || tx.Value.Sign() <= 0 {
			continue
		}
		if tx.Timestamp < lo || tx.Timestamp > hi {
			continue
		}
		dist := tx.Timestamp - firstBuy
		if dist < 0 {
			dist = -dist
		}
		preceding := tx.Timestamp <= firstBuy
		if !found || dist < bestDist || (dist == bestDist && preceding && best.Timestamp > firstBuy) {
			best, bestDist, found = tx, dist, true
		}
	}
	return best, found
}

// lookupFunders resolves the funder of the largest FundingSample buyers.
// It returns the number of lookups that failed.
func lookupFunders(ctx context.Context, h FundingHistory, buyers []EarlyBuyer, cfg Config) int {
	n := cfg.FundingSample
	if n > len(buyers) {
		n = len(buyers)
	}
	if h == nil || n == 0 {
		return 0
	}
	opts := pointReadRetry(cfg)
	lookback := int64(cfg.FundingLookback.Seconds())
	grace := int64(cfg.FundingGrace.Seconds())

	found := make([]*domain.NativeTx, n)
	failed := make([]bool, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.FundingConcurrency)
	for i := 0; i < n; i++ {
		i := i
		eb := buyers[i]
		g.Go(func() error {
			var txs []domain.NativeTx
			err := retry.Do(gctx, opts, func() error {
				var err error
				txs, err = h.NativeTransactions(gctx, eb.Address, eb.FirstBuyTs-lookback)
				return err
			})
			if err != nil {
				failed[i] = true
				logging.LogDebug("Funding lookup failed",
					zap.String("address", eb.Address.String()),
					zap.Error(err))
				return nil
			}
			if tx, ok := pickFunding(eb.Address, txs, eb.FirstBuyTs, lookback, grace); ok {
				found[i] = &tx
			}
			return nil
		})
	}
	_ = g.Wait()

	failures := 0
	for i := 0; i < n; i++ {
		if failed[i] {
			failures++
		}
		if tx := found[i]; tx != nil {
			buyers[i].FundedBy = tx.From
			buyers[i].FundingTx = tx.Hash
			buyers[i].FundingTs = tx.Timestamp
		}
	}
	return failures
}

// flagInsiders marks buyers funded by the creator or by a funder shared with
// at least InsiderFunderMin distinct early buyers.
func flagInsiders(buyers []EarlyBuyer, creator domain.Address, cfg Config) {
	funded := make(map[domain.Address]domain.AddressSet)
	for _, eb := range buyers {
		if eb.FundedBy == "" {
			continue
		}
		set, ok := funded[eb.FundedBy]
		if !ok {
			set = domain.AddressSet{}
			funded[eb.FundedBy] = set
		}
		set.Add(eb.Address)
	}
	for i := range buyers {
		f := buyers[i].FundedBy
		if f == "" {
			continue
		}
		buyers[i].Insider = (creator != "" && f == creator) || len(funded[f]) >= cfg.InsiderFunderMin
	}
}

// ClassifyEarly runs the launch-window pass. transfers must be canonically
// ordered; a token whose pools never received liquidity yields an empty window.
func ClassifyEarly(ctx context.Context, h FundingHistory, transfers []domain.Transfer, pools, excluded domain.AddressSet, creator domain.Address, current *big.Int, cfg Config) EarlyWindow {
	start, ok := FirstLiquidity(transfers, pools)
	if !ok {
		return EarlyWindow{}
	}
	end := start + int64(cfg.EarlyWindow.Seconds())
	r := recipientResolver{excluded: excluded, pools: pools, maxDepth: cfg.MaxHopDepth}

	buyers := aggregateEarlyBuys(groupByTx(transfers), r, start, end)
	flagSnipes(buyers, current, cfg)
	failures := lookupFunders(ctx, h, buyers, cfg)
	flagInsiders(buyers, creator, cfg)

	return EarlyWindow{
		FirstLiquidityTs: start,
		EndTs:            end,
		Buyers:           buyers,
		FundingFailures:  failures,
	}
}
