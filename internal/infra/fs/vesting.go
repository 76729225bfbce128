package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"holder-map/internal/domain"
	logging "holder-map/internal/infra/log"

	"go.uber.org/zap"
)

const DefaultVestingFile = "data_out/vesting.json"

// VestingList is the on-disk registry of vesting contracts. Global entries
// apply to every token; ByToken entries to one token only.
type VestingList struct {
	Global  []string            `json:"global"`
	ByToken map[string][]string `json:"by_token"`
}

func LoadVestingList(path string) (*VestingList, error) {
	list := &VestingList{Global: []string{}, ByToken: map[string][]string{}}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logging.LogDebug("Vesting file does not exist, returning empty list", zap.String("file", path))
		return list, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vesting file: %w", err)
	}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "{}" {
		return list, nil
	}
	if err := json.Unmarshal(data, list); err != nil {
		return nil, fmt.Errorf("failed to parse vesting JSON: %w", err)
	}
	if list.Global == nil {
		list.Global = []string{}
	}
	if list.ByToken == nil {
		list.ByToken = map[string][]string{}
	}
	return list, nil
}

func SaveVestingList(path string, list *VestingList) error {
	if err := writeJSONAtomic(path, list); err != nil {
		return fmt.Errorf("failed to save vesting list: %w", err)
	}
	logging.LogInfo("Saved vesting list",
		zap.String("file", path),
		zap.Int("global", len(list.Global)),
		zap.Int("tokens", len(list.ByToken)))
	return nil
}

// LoadVesting returns the vesting addresses that apply to token. A missing
// file yields an empty set; malformed entries are skipped.
func LoadVesting(path string, token domain.Address) (domain.AddressSet, error) {
	list, err := LoadVestingList(path)
	if err != nil {
		return nil, err
	}
	out := domain.NewAddressSet()
	add := func(raw string) {
		a := domain.NormalizeAddress(raw)
		if !a.IsHex() {
			logging.LogWarn("Skipping malformed vesting address", zap.String("address", raw))
			return
		}
		out.Add(a)
	}
	for _, raw := range list.Global {
		add(raw)
	}
	key := domain.NormalizeAddress(token.String())
	for tk, addrs := range list.ByToken {
		if domain.NormalizeAddress(tk) != key {
			continue
		}
		for _, raw := range addrs {
			add(raw)
		}
	}
	logging.LogDebug("Loaded vesting addresses", zap.String("token", key.String()), zap.Int("count", len(out)))
	return out, nil
}

// AddVesting registers addr for token, or globally when token is empty.
func AddVesting(path string, token, addr domain.Address) error {
	addr = domain.NormalizeAddress(addr.String())
	if !addr.IsHex() {
		return fmt.Errorf("invalid vesting address %q", addr)
	}
	list, err := LoadVestingList(path)
	if err != nil {
		return err
	}
	entries := list.get(token)
	for _, e := range entries {
		if domain.NormalizeAddress(e) == addr {
			logging.LogDebug("Vesting address already registered", zap.String("address", addr.String()))
			return nil
		}
	}
	entries = append(entries, addr.String())
	sort.Strings(entries)
	list.set(token, entries)
	return SaveVestingList(path, list)
}

func RemoveVesting(path string, token, addr domain.Address) error {
	addr = domain.NormalizeAddress(addr.String())
	list, err := LoadVestingList(path)
	if err != nil {
		return err
	}
	entries := list.get(token)
	kept := make([]string, 0, len(entries))
	found := false
	for _, e := range entries {
		if domain.NormalizeAddress(e) == addr {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return fmt.Errorf("vesting address %s not found", addr)
	}
	list.set(token, kept)
	return SaveVestingList(path, list)
}

func (l *VestingList) get(token domain.Address) []string {
	if token == "" {
		return l.Global
	}
	key := domain.NormalizeAddress(token.String())
	var out []string
	for tk, addrs := range l.ByToken {
		if domain.NormalizeAddress(tk) == key {
			out = append(out, addrs...)
		}
	}
	return out
}

func (l *VestingList) set(token domain.Address, addrs []string) {
	if token == "" {
		l.Global = addrs
		return
	}
	key := domain.NormalizeAddress(token.String())
	for tk := range l.ByToken {
		if domain.NormalizeAddress(tk) == key {
			delete(l.ByToken, tk)
		}
	}
	if len(addrs) > 0 {
		l.ByToken[key.String()] = addrs
	}
}
