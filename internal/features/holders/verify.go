package holders

import (
	"context"
	"errors"
	"math/big"

	"holder-map/internal/domain"
	logging "holder-map/internal/infra/log"
	"holder-map/internal/infra/retry"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var errInvalidBalance = errors.New("invalid balance response")

func pointReadRetry(cfg Config) retry.Options {
	return retry.Options{
		MaxRetries: cfg.VerifyRetries,
		BaseDelay:  cfg.VerifyBackoff,
		Linear:     true,
		// Backends with their own retry loop return retry.Permanent errors.
		Retryable: func(err error) bool {
			if retry.IsPermanent(err) {
				return false
			}
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		},
	}
}

// readBalances fetches authoritative balances for addrs with at most
// VerifyConcurrency calls in flight. Slot i is nil when the read for addrs[i]
// failed after all retries.
func readBalances(ctx context.Context, r BalanceReader, token domain.Address, addrs []domain.Address, cfg Config) []*big.Int {
	out := make([]*big.Int, len(addrs))
	if r == nil || len(addrs) == 0 {
		return out
	}
	opts := pointReadRetry(cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.VerifyConcurrency)
	for i, addr := range addrs {
		i, addr := i, addr
		g.Go(func() error {
			var bal *big.Int
			err := retry.Do(gctx, opts, func() error {
				v, err := r.TokenBalance(gctx, token, addr)
				if err != nil {
					return err
				}
				if v == nil || v.Sign() < 0 {
					return errInvalidBalance
				}
				bal = v
				return nil
			})
			if err != nil {
				logging.LogDebug("Balance read failed, keeping ledger value",
					zap.String("token", token.String()),
					zap.String("address", addr.String()),
					zap.Error(err))
				return nil
			}
			out[i] = new(big.Int).Set(bal)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
