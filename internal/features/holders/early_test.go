package holders

import (
	"context"
	"strings"
	"testing"
	"time"

	"holder-map/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickFunding(t *testing.T) {
	w, f1, f2 := addr(0xa), addr(0xf1), addr(0xf2)
	const buy = int64(10_000)

	tests := []struct {
		name   string
		txs    []domain.NativeTx
		want   domain.Address
		wantOK bool
	}{
		{
			name:   "closest preceding",
			txs:    []domain.NativeTx{native("0x1", buy-600, f1, w, 1), native("0x2", buy-30, f2, w, 1)},
			want:   f2,
			wantOK: true,
		},
		{
			name:   "shortly after within grace",
			txs:    []domain.NativeTx{native("0x1", buy-5000, f1, w, 1), native("0x2", buy+20, f2, w, 1)},
			want:   f2,
			wantOK: true,
		},
		{
			name:   "tie prefers preceding",
			txs:    []domain.NativeTx{native("0x1", buy+10, f1, w, 1), native("0x2", buy-10, f2, w, 1)},
			want:   f2,
			wantOK: true,
		},
		{
			name: "outside window, outbound, self and zero value ignored",
			txs: []domain.NativeTx{
				native("0x1", buy-7*3600, f1, w, 1),
				native("0x2", buy+120, f1, w, 1),
				native("0x3", buy-1, w, f1, 1),
				native("0x4", buy-2, w, w, 1),
				native("0x5", buy-3, f2, w, 0),
			},
			wantOK: false,
		},
		{
			name:   "mixed case history",
			txs:    []domain.NativeTx{native("0x1", buy-5, domain.Address("0x"+strings.ToUpper(f1.String()[2:])), domain.Address("0x"+strings.ToUpper(w.String()[2:])), 1)},
			want:   f1,
			wantOK: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pickFunding(w, tt.txs, buy, int64((6 * time.Hour).Seconds()), 60)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got.From)
			}
		})
	}
}

// launch builds a token whose pool is seeded at ts 1000 with early buys by the given wallets.
func launch(buys map[domain.Address]int64, at map[domain.Address]int64) []domain.Transfer {
	txs := []domain.Transfer{
		tr("0xmint", 1, 0, domain.ZeroAddress, creator, 1_000_000),
		tr("0xlp", 1000, 0, creator, pool, 500_000),
	}
	for w, v := range buys {
		ts := at[w]
		txs = append(txs, tr("0xbuy"+w.String(), ts, 0, pool, w, v))
	}
	return txs
}

func TestInsiderClustering(t *testing.T) {
	b1, b2, b3, b4, b5 := addr(0xb1), addr(0xb2), addr(0xb3), addr(0xb4), addr(0xb5)
	f, g := addr(0xf0), addr(0xf9)
	late := addr(0xb9)

	txs := launch(
		map[domain.Address]int64{b1: 5000, b2: 4000, b3: 3000, b4: 100, b5: 50, late: 9000},
		map[domain.Address]int64{b1: 1010, b2: 1020, b3: 1030, b4: 1040, b5: 1050, late: 1181},
	)
	funding := fakeFunding{history: map[domain.Address][]domain.NativeTx{
		b1: {native("0xf1", 900, f, b1, 1)},
		b2: {native("0xf2", 950, f, b2, 1)},
		b3: {native("0xf3", 1000, f, b3, 1)},
		b4: {native("0xf4", 1000, g, b4, 1)},
		b5: {native("0xf5", 1049, creator, b5, 1)},
	}}

	cfg := testConfig()
	cfg.SnipeTopK = 2
	cfg.ExtraPools = domain.NewAddressSet(pool)
	src := Sources{Funding: funding, Creator: fakeCreator{creator: creator}}

	rep, err := Classify(context.Background(), cfg, src, token, txs)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), rep.Early.FirstLiquidityTs)
	assert.Equal(t, int64(1180), rep.Early.EndTs)

	byAddr := map[domain.Address]EarlyBuyer{}
	for _, eb := range rep.Early.Buyers {
		byAddr[eb.Address] = eb
	}
	require.Len(t, byAddr, 5, "the buy after the window is not early")
	_, lateFound := byAddr[late]
	assert.False(t, lateFound)

	for _, w := range []domain.Address{b1, b2, b3} {
		assert.True(t, byAddr[w].Insider, w)
		assert.Equal(t, f, byAddr[w].FundedBy, w)
	}
	assert.False(t, byAddr[b4].Insider)
	assert.Equal(t, g, byAddr[b4].FundedBy)
	assert.True(t, byAddr[b5].Insider, "funded by the creator")

	// 0.20% of 1,000,000 is 2,000: b1..b3 qualify by size, b1 and b2 also by rank.
	assert.True(t, byAddr[b1].Snipe)
	assert.True(t, byAddr[b3].Snipe)
	assert.False(t, byAddr[b4].Snipe)
	assert.Equal(t, 1, byAddr[b1].Rank)

	assert.Equal(t, 3, rep.Stats.SnipeCount)
	assert.Equal(t, 4, rep.Stats.InsiderCount)

	for _, b := range rep.Buyers {
		if b.Address == b1 {
			assert.True(t, b.Early)
			assert.True(t, b.Insider)
			assert.Equal(t, f, b.FundedBy)
		}
		if b.Address == late {
			assert.False(t, b.Early)
		}
	}
}

func TestFundingFailureLeavesSnipeIntact(t *testing.T) {
	b1 := addr(0xb1)
	txs := launch(map[domain.Address]int64{b1: 5000}, map[domain.Address]int64{b1: 1010})
	cfg := testConfig()
	cfg.ExtraPools = domain.NewAddressSet(pool)
	src := Sources{Funding: fakeFunding{fail: domain.NewAddressSet(b1)}}

	rep, err := Classify(context.Background(), cfg, src, token, txs)
	require.NoError(t, err)
	require.Len(t, rep.Early.Buyers, 1)
	eb := rep.Early.Buyers[0]
	assert.True(t, eb.Snipe)
	assert.False(t, eb.Insider)
	assert.Empty(t, eb.FundedBy)
	assert.Equal(t, 1, rep.Degraded.FundingLookupFailed)
}

func TestEarlyBuysResolveRouterHops(t *testing.T) {
	x := addr(0xaa)
	txs := []domain.Transfer{
		tr("0xmint", 1, 0, domain.ZeroAddress, creator, 1_000_000),
		tr("0xlp", 1000, 0, creator, pool, 500_000),
		tr("0xswap", 1005, 0, pool, router, 7000),
		tr("0xswap", 1005, 1, router, x, 7000),
	}
	cfg := testConfig()
	cfg.AlwaysExclude = domain.NewAddressSet(router)
	cfg.ExtraPools = domain.NewAddressSet(pool)

	rep, err := Classify(context.Background(), cfg, Sources{}, token, txs)
	require.NoError(t, err)
	require.Len(t, rep.Early.Buyers, 1)
	assert.Equal(t, x, rep.Early.Buyers[0].Address)
	assert.Equal(t, "7000", rep.Early.Buyers[0].Units.String())
}

func TestNoLiquidityNoEarlyWindow(t *testing.T) {
	w := ClassifyEarly(context.Background(), nil, []domain.Transfer{tr("0x1", 1, 0, addr(0xa), addr(0xb), 1)},
		domain.NewAddressSet(pool), domain.AddressSet{}, "", nil, testConfig())
	assert.Empty(t, w.Buyers)
	assert.Zero(t, w.FirstLiquidityTs)
}

func TestEarlyBuysCreditWhatTheWalletReceived(t *testing.T) {
	x, fee := addr(0xaa), addr(0xfee)
	txs := []domain.Transfer{
		tr("0xmint", 1, 0, domain.ZeroAddress, creator, 1_000_000),
		tr("0xlp", 1000, 0, creator, pool, 500_000),
		// Router keeps a fee cut before forwarding.
		tr("0xswap", 1005, 0, pool, router, 500),
		tr("0xswap", 1005, 1, router, x, 480),
		tr("0xswap", 1005, 2, router, fee, 20),
		// Two pool legs that resolve to the same wallet.
		tr("0xsplit", 1006, 0, pool, router, 100),
		tr("0xsplit", 1006, 1, pool, x, 50),
		tr("0xsplit", 1006, 2, router, x, 100),
	}
	cfg := testConfig()
	cfg.AlwaysExclude = domain.NewAddressSet(router)
	cfg.ExtraPools = domain.NewAddressSet(pool)

	rep, err := Classify(context.Background(), cfg, Sources{}, token, txs)
	require.NoError(t, err)

	byAddr := map[domain.Address]EarlyBuyer{}
	for _, eb := range rep.Early.Buyers {
		byAddr[eb.Address] = eb
	}
	require.Contains(t, byAddr, x)
	assert.Equal(t, "630", byAddr[x].Units.String(), "480 after the fee plus 150 from the split swap")
	assert.Equal(t, int64(1005), byAddr[x].FirstBuyTs)
}

func TestLookupFundersBoundedConcurrency(t *testing.T) {
	buyers := make([]EarlyBuyer, 12)
	for i := range buyers {
		buyers[i] = EarlyBuyer{Address: addr(0x100 + i), FirstBuyTs: 1000}
	}
	g := &gauge{}
	cfg := testConfig()
	cfg.FundingConcurrency = 2
	cfg.FundingSample = 20

	failures := lookupFunders(context.Background(), g, buyers, cfg)
	assert.Zero(t, failures)
	assert.Equal(t, int32(12), g.calls.Load())
	assert.LessOrEqual(t, g.peak.Load(), int32(2))
	assert.Positive(t, g.peak.Load())
}
