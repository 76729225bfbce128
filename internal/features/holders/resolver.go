package holders

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"holder-map/internal/domain"
	logging "holder-map/internal/infra/log"

	"go.uber.org/zap"
)

// Account is a pool or vesting address rendered apart from holders.
type Account struct {
	Address       domain.Address `json:"address"`
	Label         string         `json:"label"`
	Units         *big.Int       `json:"units"`
	Pct           float64        `json:"pct"`
	Authoritative bool           `json:"authoritative"`
}

// DiscoverPools merges pair discovery with statically configured pools.
// A failed lookup degrades to the static set.
func DiscoverPools(ctx context.Context, pairs PairFinder, token domain.Address, cfg Config) (domain.AddressSet, error) {
	pools := domain.AddressSet{}
	for a := range cfg.ExtraPools {
		pools.Add(a)
	}
	if pairs == nil {
		return pools, nil
	}
	found, err := pairs.TokenPairs(ctx, token)
	if err != nil {
		return pools, fmt.Errorf("failed to discover pools: %w", err)
	}
	for _, a := range found {
		if a != "" && a != token {
			pools.Add(a)
		}
	}
	return pools, nil
}

// ResolveAccounts reads authoritative balances for addrs, falling back to the
// ledger balance clamped at zero. failed counts the fallbacks.
func ResolveAccounts(ctx context.Context, r BalanceReader, token domain.Address, addrs domain.AddressSet, l *Ledger, cfg Config, label string) (accounts []Account, failed int) {
	list := sortedAddresses(addrs)
	reads := readBalances(ctx, r, token, list, cfg)

	accounts = make([]Account, 0, len(list))
	for i, a := range list {
		acc := Account{Address: a, Label: accountLabel(label, i, len(list))}
		if reads[i] != nil {
			acc.Units = reads[i]
			acc.Authoritative = true
		} else {
			failed++
			ledger := l.Balance(a)
			if ledger.Sign() < 0 {
				logging.LogWarn("Negative ledger balance clamped to zero",
					zap.String("address", a.String()),
					zap.String("kind", label),
					zap.String("ledger", ledger.String()))
			}
			acc.Units = nonNegative(ledger)
		}
		accounts = append(accounts, acc)
	}
	return accounts, failed
}

func accountLabel(prefix string, i, n int) string {
	if n == 1 && prefix == "VESTED" {
		return prefix
	}
	return fmt.Sprintf("%s-%d", prefix, i+1)
}

func sumAccounts(accounts []Account) *big.Int {
	sum := new(big.Int)
	for _, a := range accounts {
		sum.Add(sum, a.Units)
	}
	return sum
}

func sortedAddresses(s domain.AddressSet) []domain.Address {
	out := make([]domain.Address, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
