package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"holder-map/internal/domain"
)

type pair struct {
	ChainID     string `json:"chainId"`
	DexID       string `json:"dexId"`
	PairAddress string `json:"pairAddress"`
}

// TokenPairs lists the pool addresses trading token on the configured chain.
// Pair ids of the form "0xpool:fee" keep only the address part.
func (c *Client) TokenPairs(ctx context.Context, token domain.Address) ([]domain.Address, error) {
	body, err := c.doGET(ctx, fmt.Sprintf("/token-pairs/v1/%s/%s", c.chain, token))
	if err != nil {
		return nil, err
	}
	var pairs []pair
	if err := json.Unmarshal(body, &pairs); err != nil {
		return nil, fmt.Errorf("failed to decode token pairs: %w", err)
	}

	seen := domain.AddressSet{}
	out := make([]domain.Address, 0, len(pairs))
	for _, p := range pairs {
		raw := p.PairAddress
		if i := strings.Index(raw, ":"); i >= 0 {
			raw = raw[:i]
		}
		a := domain.NormalizeAddress(raw)
		if !a.IsHex() || seen.Has(a) {
			continue
		}
		seen.Add(a)
		out = append(out, a)
	}
	return out, nil
}
