package tg_charts

import (
	"fmt"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"holder-map/internal/domain"
	"holder-map/internal/features/holders"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addr(n int) domain.Address {
	return domain.Address(fmt.Sprintf("0x%040x", n))
}

func sampleReport() *holders.Report {
	rep := &holders.Report{
		Token: addr(0x70),
		Pools: []holders.Account{{Address: addr(0x900), Label: "LP-1", Units: big.NewInt(400_000), Pct: 40}},
		Vested: []holders.Account{
			{Address: addr(0x800), Label: "VESTED", Units: big.NewInt(100_000), Pct: 10},
			{Address: addr(0x801), Label: "VESTED-2", Units: big.NewInt(0)},
		},
		Early: holders.EarlyWindow{Buyers: []holders.EarlyBuyer{
			{Address: addr(1), Snipe: true},
			{Address: addr(2), Insider: true},
		}},
		BotRecipients: []domain.Address{addr(3)},
	}
	for i := 1; i <= 40; i++ {
		rep.Holders = append(rep.Holders, holders.HolderEntry{
			Address: addr(i),
			Units:   big.NewInt(int64(50_000 / i)),
			Pct:     5 / float64(i),
		})
	}
	return rep
}

func TestCollectBubbles(t *testing.T) {
	bubbles := collectBubbles(sampleReport())

	require.Len(t, bubbles, 42)
	assert.Equal(t, KindPool, bubbles[0].Kind)
	assert.Equal(t, KindVested, bubbles[1].Kind)
	assert.Equal(t, "VESTED", bubbles[1].Label)

	byAddr := map[domain.Address]Bubble{}
	for _, b := range bubbles {
		byAddr[b.Address] = b
	}
	assert.True(t, byAddr[addr(1)].Snipe)
	assert.True(t, byAddr[addr(2)].Insider)
	assert.True(t, byAddr[addr(3)].Bot)
	assert.NotContains(t, byAddr, addr(0x801))
}

func TestSizeBubblesSqrt(t *testing.T) {
	bubbles := []Bubble{
		{Units: big.NewInt(400)},
		{Units: big.NewInt(100)},
		{Units: big.NewInt(0)},
	}
	sizeBubbles(bubbles)
	assert.InDelta(t, maxBubbleRadius, bubbles[0].R, 1e-9)
	assert.InDelta(t, maxBubbleRadius/2, bubbles[1].R, 1e-9)
	assert.Equal(t, minBubbleRadius, bubbles[2].R)
}

func TestLayoutHasNoOverlaps(t *testing.T) {
	placed := LayoutBubbles(sampleReport(), 800, 800)
	require.NotEmpty(t, placed)

	for i := range placed {
		a := placed[i]
		assert.GreaterOrEqual(t, a.X-a.R, 0.0)
		assert.LessOrEqual(t, a.X+a.R, 800.0)
		for j := i + 1; j < len(placed); j++ {
			b := placed[j]
			assert.GreaterOrEqual(t, math.Hypot(a.X-b.X, a.Y-b.Y), a.R+b.R, "bubbles %d and %d overlap", i, j)
		}
	}
	assert.Equal(t, 400.0, placed[0].X)
	assert.Equal(t, 400.0, placed[0].Y)
}

func TestGenerateBubbleMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts", "map.png")
	out, err := GenerateBubbleMap(sampleReport(), path)
	require.NoError(t, err)
	assert.Equal(t, path, out)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestGenerateBubbleMapEmpty(t *testing.T) {
	_, err := GenerateBubbleMap(&holders.Report{Token: addr(0x70)}, filepath.Join(t.TempDir(), "x.png"))
	assert.Error(t, err)
}
