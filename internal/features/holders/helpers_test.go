package holders

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"holder-map/internal/domain"
)

var (
	token   = addr(0x70)
	creator = addr(0xc0)
	pool    = addr(0x900)
	router  = addr(0x901)
)

func addr(n int) domain.Address {
	return domain.Address(fmt.Sprintf("0x%040x", n))
}

func tr(hash string, ts int64, logIndex uint64, from, to domain.Address, v int64) domain.Transfer {
	return domain.Transfer{
		TxHash:      hash,
		BlockNumber: uint64(ts),
		LogIndex:    logIndex,
		Timestamp:   ts,
		From:        from,
		To:          to,
		Value:       big.NewInt(v),
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.VerifyBackoff = time.Millisecond
	cfg.KnownSystem = domain.AddressSet{}
	cfg.BotAddresses = domain.AddressSet{}
	return cfg
}

var errUnavailable = errors.New("unavailable")

type fakeBalances struct {
	mu       sync.Mutex
	values   map[domain.Address]*big.Int
	failures map[domain.Address]int // failed calls before a success; -1 fails forever
	calls    map[domain.Address]int
}

func newFakeBalances() *fakeBalances {
	return &fakeBalances{
		values:   map[domain.Address]*big.Int{},
		failures: map[domain.Address]int{},
		calls:    map[domain.Address]int{},
	}
}

func (f *fakeBalances) set(a domain.Address, v int64) *fakeBalances {
	f.values[a] = big.NewInt(v)
	return f
}

func (f *fakeBalances) TokenBalance(_ context.Context, _, holder domain.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[holder]++
	if n := f.failures[holder]; n < 0 || f.calls[holder] <= n {
		return nil, errUnavailable
	}
	v, ok := f.values[holder]
	if !ok {
		return nil, errUnavailable
	}
	return new(big.Int).Set(v), nil
}

type fakePairs struct {
	pools []domain.Address
	err   error
}

func (f fakePairs) TokenPairs(context.Context, domain.Address) ([]domain.Address, error) {
	return f.pools, f.err
}

type fakeCreator struct {
	creator domain.Address
	err     error
}

func (f fakeCreator) ContractCreator(context.Context, domain.Address) (domain.Address, error) {
	return f.creator, f.err
}

type fakeFunding struct {
	history map[domain.Address][]domain.NativeTx
	fail    domain.AddressSet
}

func (f fakeFunding) NativeTransactions(_ context.Context, a domain.Address, _ int64) ([]domain.NativeTx, error) {
	if f.fail.Has(a) {
		return nil, errUnavailable
	}
	return f.history[a], nil
}

type fakeFeed struct {
	transfers []domain.Transfer
	err       error
}

func (f fakeFeed) TokenTransfers(context.Context, domain.Address) ([]domain.Transfer, error) {
	return f.transfers, f.err
}

func native(hash string, ts int64, from, to domain.Address, v int64) domain.NativeTx {
	return domain.NativeTx{Hash: hash, Timestamp: ts, From: from, To: to, Value: big.NewInt(v)}
}

// gauge tracks how many calls run at once. Each call holds its slot briefly
// so overlapping calls are observable.
type gauge struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
}

func (g *gauge) enter() {
	g.calls.Add(1)
	n := g.inFlight.Add(1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
}

func (g *gauge) leave() { g.inFlight.Add(-1) }

func (g *gauge) TokenBalance(context.Context, domain.Address, domain.Address) (*big.Int, error) {
	g.enter()
	defer g.leave()
	return big.NewInt(1), nil
}

func (g *gauge) NativeTransactions(context.Context, domain.Address, int64) ([]domain.NativeTx, error) {
	g.enter()
	defer g.leave()
	return nil, nil
}

// countingBalances fails every read with err and counts the calls.
type countingBalances struct {
	err   error
	calls atomic.Int32
}

func (c *countingBalances) TokenBalance(context.Context, domain.Address, domain.Address) (*big.Int, error) {
	c.calls.Add(1)
	return nil, c.err
}
