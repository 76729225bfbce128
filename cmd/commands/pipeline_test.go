package commands

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"holder-map/internal/domain"
	"holder-map/internal/infra/config"
	storage "holder-map/internal/infra/fs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addr(n int) domain.Address {
	return domain.Address(fmt.Sprintf("0x%040x", n))
}

func TestAnalyzeOfflineSnapshot(t *testing.T) {
	token, creator, pool, buyer := addr(0x70), addr(0xc0), addr(0x900), addr(1)

	dex := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[{"chainId":"abstract","pairAddress":"%s"}]`, pool)
	}))
	defer dex.Close()

	out := t.TempDir()
	transfers := []domain.Transfer{
		{TxHash: "0x01", BlockNumber: 1, Timestamp: 1000, From: domain.ZeroAddress, To: creator, Value: big.NewInt(1_000_000)},
		{TxHash: "0x02", BlockNumber: 2, Timestamp: 1010, From: creator, To: pool, Value: big.NewInt(500_000)},
		{TxHash: "0x03", BlockNumber: 3, Timestamp: 1020, From: pool, To: buyer, Value: big.NewInt(100_000)},
	}
	snap, err := storage.SaveTransfers(out, token, transfers)
	require.NoError(t, err)

	cfg := &config.Config{
		DexScreener: config.DexScreenerConfig{BaseURL: dex.URL, Chain: "abstract"},
		Vesting:     config.VestingConfig{File: filepath.Join(out, "vesting.json")},
		App:         config.AppConfig{OutDir: out},
	}

	rep, chartPath, err := analyze(context.Background(), cfg, token, runOptions{snapshot: snap, chart: true})
	require.NoError(t, err)

	assert.Equal(t, 3, rep.TransferCount)
	require.Len(t, rep.Pools, 1)
	assert.Equal(t, pool, rep.Pools[0].Address)
	require.NotEmpty(t, rep.Buyers)
	assert.Equal(t, buyer, rep.Buyers[0].Address)

	_, err = os.Stat(filepath.Join(out, token.String(), "report.json"))
	assert.NoError(t, err)
	assert.FileExists(t, chartPath)
}

func TestAnalyzeRequiresKeyWithoutSnapshot(t *testing.T) {
	cfg := &config.Config{Vesting: config.VestingConfig{File: filepath.Join(t.TempDir(), "v.json")}}
	_, _, err := analyze(context.Background(), cfg, addr(0x70), runOptions{})
	assert.Error(t, err)
}
