package holders

import (
	"context"
	"math/big"
	"sort"

	"holder-map/internal/domain"
	logging "holder-map/internal/infra/log"

	"go.uber.org/zap"
)

// HolderEntry is one ranked holder.
type HolderEntry struct {
	Address  domain.Address `json:"address"`
	Units    *big.Int       `json:"units"`
	Pct      float64        `json:"pct"`
	Verified bool           `json:"verified"`
}

// BuildHolderSet keeps positive ledger balances outside exclude, ranked by
// units descending and address ascending. The token contract and burn sinks
// are always left out.
func BuildHolderSet(l *Ledger, exclude domain.AddressSet) []HolderEntry {
	var out []HolderEntry
	for a, units := range l.Positive() {
		if a == l.token || a.IsBurnSink() || exclude.Has(a) {
			continue
		}
		out = append(out, HolderEntry{Address: a, Units: units})
	}
	sortHolders(out)
	return out
}

func sortHolders(h []HolderEntry) {
	sort.Slice(h, func(i, j int) bool {
		if c := h[i].Units.Cmp(h[j].Units); c != 0 {
			return c > 0
		}
		return h[i].Address < h[j].Address
	})
}

// Verification is the outcome of VerifyHolders.
type Verification struct {
	Holders    []HolderEntry
	Unverified int
	// Emptied holds holders whose authoritative balance read zero.
	Emptied domain.AddressSet
}

// VerifyHolders checks the top VerifyTopN entries against the balance reader.
// A zero read drops the holder, a positive read replaces the ledger value and
// a failed read keeps it. The result is re-ranked.
func VerifyHolders(ctx context.Context, r BalanceReader, token domain.Address, holders []HolderEntry, cfg Config) Verification {
	n := cfg.VerifyTopN
	if n > len(holders) {
		n = len(holders)
	}
	res := Verification{Emptied: domain.AddressSet{}}
	if r == nil || n == 0 {
		res.Holders, res.Unverified = holders, n
		return res
	}

	addrs := make([]domain.Address, n)
	for i := 0; i < n; i++ {
		addrs[i] = holders[i].Address
	}
	reads := readBalances(ctx, r, token, addrs, cfg)

	out := make([]HolderEntry, 0, len(holders))
	for i, h := range holders {
		if i >= n {
			out = append(out, h)
			continue
		}
		switch v := reads[i]; {
		case v == nil:
			res.Unverified++
			out = append(out, h)
		case v.Sign() == 0:
			res.Emptied.Add(h.Address)
		default:
			out = append(out, HolderEntry{Address: h.Address, Units: v, Verified: true})
		}
	}
	sortHolders(out)
	res.Holders = out

	logging.LogDebug("Verified top holders",
		zap.String("token", token.String()),
		zap.Int("checked", n),
		zap.Int("dropped", len(res.Emptied)),
		zap.Int("unverified", res.Unverified))
	return res
}

// assignPercents sets Pct against current supply, clamped to [0, 100].
func assignPercents(holders []HolderEntry, current *big.Int) {
	for i := range holders {
		p := PercentOf(holders[i].Units, current)
		if p > 100 {
			logging.LogWarn("Holder balance exceeds current supply",
				zap.String("address", holders[i].Address.String()),
				zap.String("units", holders[i].Units.String()),
				zap.String("current", current.String()))
		}
		holders[i].Pct = clampPct(p, 0, 100)
	}
}
