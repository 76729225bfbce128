package holders

import (
	"context"
	"math/big"
	"testing"

	"holder-map/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterHopResolution(t *testing.T) {
	x := addr(0xaa)
	txs := []domain.Transfer{
		tr("0xswap", 10, 0, pool, router, 500),
		tr("0xswap", 10, 1, router, x, 500),
	}
	buyers := FirstBuyers(txs, domain.NewAddressSet(pool), domain.NewAddressSet(router), 25, 4)
	require.Len(t, buyers, 1)
	assert.Equal(t, x, buyers[0].Address)
	assert.Equal(t, "500", buyers[0].InitialUnits.String())
	assert.Equal(t, "0xswap", buyers[0].TxHash)
}

func TestResolverDepthAndFallback(t *testing.T) {
	hop1, hop2, hop3, final := addr(0x11), addr(0x12), addr(0x13), addr(0x14)
	g := groupByTx([]domain.Transfer{
		tr("0xt", 1, 0, pool, hop1, 10),
		tr("0xt", 1, 1, hop1, hop2, 10),
		tr("0xt", 1, 2, hop2, hop3, 10),
		tr("0xt", 1, 3, hop3, final, 10),
	})[0]
	excluded := domain.NewAddressSet(hop1, hop2, hop3)

	r := recipientResolver{excluded: excluded, pools: domain.NewAddressSet(pool), maxDepth: 4}
	got, ok := r.resolve(g, hop1)
	require.True(t, ok)
	assert.Equal(t, final, got)

	r.maxDepth = 3
	_, ok = r.resolve(g, hop1)
	assert.False(t, ok, "final wallet sits beyond the depth bound and the seed is excluded")

	// A non-excluded seed is accepted directly.
	r.excluded = domain.NewAddressSet(hop2, hop3)
	got, ok = r.resolve(g, hop1)
	require.True(t, ok)
	assert.Equal(t, hop1, got)
}

func TestResolverSkipsBurnSinksAndPools(t *testing.T) {
	x := addr(0xaa)
	g := groupByTx([]domain.Transfer{
		tr("0xt", 1, 0, pool, domain.DeadAddress, 10),
		tr("0xt", 1, 1, pool, x, 10),
	})[0]
	r := recipientResolver{excluded: domain.AddressSet{}, pools: domain.NewAddressSet(pool), maxDepth: 4}
	_, ok := r.resolve(g, domain.DeadAddress)
	assert.False(t, ok)
}

func TestFirstBuyersCreditsSplitLegs(t *testing.T) {
	x := addr(0xaa)
	txs := []domain.Transfer{
		tr("0xswap", 10, 0, pool, router, 900),
		tr("0xswap", 10, 1, router, x, 600),
		tr("0xswap", 10, 2, router, x, 300),
		tr("0xswap", 10, 3, pool, router, 5),
	}
	buyers := FirstBuyers(txs, domain.NewAddressSet(pool), domain.NewAddressSet(router), 25, 4)
	require.Len(t, buyers, 1, "the residual leg resolves to the same wallet and is not recorded twice")
	assert.Equal(t, "900", buyers[0].InitialUnits.String())
}

func TestFirstBuyersOrderingLimitAndDedup(t *testing.T) {
	a, b, c, d := addr(0xa), addr(0xb), addr(0xc), addr(0xd)
	txs := domain.SortTransfers([]domain.Transfer{
		tr("0x3", 30, 0, pool, c, 30),
		tr("0x1", 10, 0, pool, a, 10),
		tr("0x2", 20, 0, pool, b, 20),
		tr("0x4", 40, 0, pool, a, 40),
		tr("0x5", 50, 0, pool, d, 50),
		tr("0x6", 60, 0, a, b, 1),
	})
	pools := domain.NewAddressSet(pool)

	buyers := FirstBuyers(txs, pools, domain.AddressSet{}, 3, 4)
	require.Len(t, buyers, 3)
	assert.Equal(t, []domain.Address{a, b, c}, []domain.Address{buyers[0].Address, buyers[1].Address, buyers[2].Address})
	assert.Equal(t, "10", buyers[0].InitialUnits.String())

	again := FirstBuyers(txs, pools, domain.AddressSet{}, 3, 4)
	assert.Equal(t, buyers, again)
}

func TestFirstBuyersSeedOrderWithinTx(t *testing.T) {
	small, large := addr(0xa), addr(0xb)
	txs := []domain.Transfer{
		tr("0xt", 10, 0, pool, small, 1),
		tr("0xt", 10, 1, pool, large, 99),
	}
	buyers := FirstBuyers(txs, domain.NewAddressSet(pool), domain.AddressSet{}, 1, 4)
	require.Len(t, buyers, 1)
	assert.Equal(t, large, buyers[0].Address)
}

func TestFirstBuyersNoPools(t *testing.T) {
	txs := []domain.Transfer{tr("0x1", 1, 0, addr(0xa), addr(0xb), 1)}
	assert.Empty(t, FirstBuyers(txs, domain.AddressSet{}, domain.AddressSet{}, 25, 4))
}

func TestEnrichBuyer(t *testing.T) {
	supply := big.NewInt(10_000)
	tests := []struct {
		name     string
		initial  int64
		current  int64
		status   BuyerStatus
		sold     string
		bought   string
		progress float64
	}{
		{"hold", 100, 100, StatusHold, "0", "0", 100},
		{"sold all", 100, 0, StatusSoldAll, "100", "0", 0},
		{"sold part", 100, 25, StatusSoldPart, "75", "0", 25},
		{"bought more", 100, 150, StatusMore, "0", "50", 150},
		{"progress capped", 100, 1000, StatusMore, "0", "900", 200},
		{"negative ledger", 100, -5, StatusSoldAll, "100", "0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := BuyerRecord{InitialUnits: big.NewInt(tt.initial)}
			enrichBuyer(&b, big.NewInt(tt.current), supply)
			assert.Equal(t, tt.status, b.Status)
			assert.Equal(t, tt.sold, b.SoldUnits.String())
			assert.Equal(t, tt.bought, b.BoughtUnits.String())
			assert.Equal(t, tt.progress, b.ProgressPct)
			assert.Equal(t, 1.0, b.InitPct)
		})
	}
}

func TestClassifyEnrichesBuyersWithVerifiedBalances(t *testing.T) {
	x, y := addr(0xaa), addr(0xbb)
	txs := []domain.Transfer{
		tr("0xm", 1, 0, domain.ZeroAddress, creator, 10_000),
		tr("0xl", 2, 0, creator, pool, 5_000),
		tr("0xs1", 3, 0, pool, x, 1_000),
		tr("0xs2", 4, 0, pool, y, 500),
	}
	bal := newFakeBalances().set(x, 0).set(y, 800).set(creator, 5_000).set(pool, 3_500)
	cfg := testConfig()
	cfg.ExtraPools = domain.NewAddressSet(pool)

	rep, err := Classify(context.Background(), cfg, Sources{Balances: bal}, token, txs)
	require.NoError(t, err)
	require.Len(t, rep.Buyers, 2)

	assert.Equal(t, x, rep.Buyers[0].Address)
	assert.Equal(t, StatusSoldAll, rep.Buyers[0].Status, "a zero authoritative read means the position is gone")
	assert.Equal(t, y, rep.Buyers[1].Address)
	assert.Equal(t, StatusMore, rep.Buyers[1].Status)
	assert.Equal(t, "300", rep.Buyers[1].BoughtUnits.String())
}
