package holders

import (
	"context"
	"math/big"

	"holder-map/internal/domain"
)

// TransferFeed returns the complete transfer history of a token.
type TransferFeed interface {
	TokenTransfers(ctx context.Context, token domain.Address) ([]domain.Transfer, error)
}

// BalanceReader is the authoritative point-balance query.
type BalanceReader interface {
	TokenBalance(ctx context.Context, token, holder domain.Address) (*big.Int, error)
}

// PairFinder discovers liquidity pools trading the token.
type PairFinder interface {
	TokenPairs(ctx context.Context, token domain.Address) ([]domain.Address, error)
}

// CreatorLookup returns the deployer of a contract, or "" when unknown.
type CreatorLookup interface {
	ContractCreator(ctx context.Context, token domain.Address) (domain.Address, error)
}

// FundingHistory returns an account's native-currency transactions.
// Implementations may leave out records older than since (unix seconds).
type FundingHistory interface {
	NativeTransactions(ctx context.Context, addr domain.Address, since int64) ([]domain.NativeTx, error)
}

// Sources bundles the external oracles of a run. Any nil member disables the
// step that depends on it and the run continues with fallback values.
type Sources struct {
	Transfers TransferFeed
	Balances  BalanceReader
	Pairs     PairFinder
	Creator   CreatorLookup
	Funding   FundingHistory
}
