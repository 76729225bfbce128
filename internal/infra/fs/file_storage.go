package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"holder-map/internal/domain"
	"holder-map/internal/features/holders"
	logging "holder-map/internal/infra/log"

	"go.uber.org/zap"
)

const (
	DefaultOutDir    = "data_out"
	reportFileName   = "report.json"
	transfersFileSfx = "transfers.json"
)

// writeJSONAtomic marshals v into path via a temporary file and rename.
func writeJSONAtomic(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// TokenDir is the per-token output directory under outDir.
func TokenDir(outDir string, token domain.Address) string {
	if outDir == "" {
		outDir = DefaultOutDir
	}
	return filepath.Join(outDir, strings.ToLower(token.String()))
}

// SaveReport writes rep to <outDir>/<token>/report.json and returns the path.
func SaveReport(outDir string, rep *holders.Report) (string, error) {
	path := filepath.Join(TokenDir(outDir, rep.Token), reportFileName)
	if err := writeJSONAtomic(path, rep); err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}
	logging.LogInfo("Saved report", zap.String("file", path), zap.Int("holders", len(rep.Holders)))
	return path, nil
}

func LoadReport(path string) (*holders.Report, error) {
	var rep holders.Report
	if err := readJSON(path, &rep); err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	return &rep, nil
}

type transferSnapshot struct {
	Token     domain.Address    `json:"token"`
	Transfers []domain.Transfer `json:"transfers"`
}

// SaveTransfers stores a fetched transfer history so a run can be replayed offline.
func SaveTransfers(outDir string, token domain.Address, transfers []domain.Transfer) (string, error) {
	path := filepath.Join(TokenDir(outDir, token), transfersFileSfx)
	if err := writeJSONAtomic(path, transferSnapshot{Token: token, Transfers: transfers}); err != nil {
		return "", fmt.Errorf("failed to save transfers: %w", err)
	}
	logging.LogInfo("Saved transfer snapshot", zap.String("file", path), zap.Int("count", len(transfers)))
	return path, nil
}

// LoadTransfers reads a snapshot written by SaveTransfers.
func LoadTransfers(path string) (domain.Address, []domain.Transfer, error) {
	var snap transferSnapshot
	if err := readJSON(path, &snap); err != nil {
		return "", nil, fmt.Errorf("failed to load transfers: %w", err)
	}
	return snap.Token, snap.Transfers, nil
}

// SnapshotFeed serves a stored snapshot as a holders.TransferFeed.
type SnapshotFeed struct {
	Path string
}

func (f SnapshotFeed) TokenTransfers(_ context.Context, token domain.Address) ([]domain.Transfer, error) {
	snapToken, transfers, err := LoadTransfers(f.Path)
	if err != nil {
		return nil, err
	}
	if snapToken != "" && snapToken != token {
		return nil, fmt.Errorf("snapshot %s holds %s, not %s", f.Path, snapToken, token)
	}
	return transfers, nil
}
