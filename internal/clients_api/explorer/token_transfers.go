package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/url"
	"strconv"

	"holder-map/internal/domain"
	logging "holder-map/internal/infra/log"

	"go.uber.org/zap"
)

// TokenTransfers pages through the complete transfer history of token in
// ascending order. When paging yields nothing, the unpaged block-range form
// is tried once.
func (c *Client) TokenTransfers(ctx context.Context, token domain.Address) ([]domain.Transfer, error) {
	var all []domain.Transfer
	skipped := 0

	for page := 1; page <= c.maxPages; page++ {
		params := url.Values{}
		params.Set("module", "account")
		params.Set("action", "tokentx")
		params.Set("contractaddress", token.String())
		params.Set("page", strconv.Itoa(page))
		params.Set("offset", strconv.Itoa(c.pageSize))
		params.Set("sort", "asc")

		records, err := c.tokenTxPage(ctx, params)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			// Keep what we have; a truncated tail only lowers confidence.
			logging.LogWarn("Transfer paging stopped early",
				zap.String("token", token.String()),
				zap.Int("page", page),
				zap.Error(err))
			break
		}
		batch, bad := parseTokenTxs(records, token)
		all = append(all, batch...)
		skipped += bad
		if len(records) < c.pageSize {
			break
		}
		if page == c.maxPages {
			logging.LogWarn("Transfer paging hit the page cap",
				zap.String("token", token.String()),
				zap.Int("pages", c.maxPages))
		}
	}

	if len(all) == 0 {
		params := url.Values{}
		params.Set("module", "account")
		params.Set("action", "tokentx")
		params.Set("contractaddress", token.String())
		params.Set("startblock", "0")
		params.Set("endblock", "99999999")
		params.Set("sort", "asc")

		records, err := c.tokenTxPage(ctx, params)
		if err != nil {
			return nil, err
		}
		batch, bad := parseTokenTxs(records, token)
		all = append(all, batch...)
		skipped += bad
	}

	if skipped > 0 {
		logging.LogWarn("Skipped malformed transfer records",
			zap.String("token", token.String()),
			zap.Int("skipped", skipped))
	}
	logging.LogInfo("Fetched token transfers",
		zap.String("token", token.String()),
		zap.Int("count", len(all)))
	return all, nil
}

func (c *Client) tokenTxPage(ctx context.Context, params url.Values) ([]tokenTxRecord, error) {
	raw, err := c.MakeRequest(ctx, params)
	if err != nil {
		return nil, err
	}
	var records []tokenTxRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to decode tokentx result: %w", err)
	}
	return records, nil
}

// parseTokenTxs converts explorer records, dropping malformed ones and
// records of other contracts.
func parseTokenTxs(records []tokenTxRecord, token domain.Address) (out []domain.Transfer, skipped int) {
	out = make([]domain.Transfer, 0, len(records))
	for _, r := range records {
		t, ok := parseTokenTx(r)
		if !ok {
			skipped++
			continue
		}
		if r.ContractAddress != "" && domain.NormalizeAddress(r.ContractAddress) != token {
			skipped++
			continue
		}
		out = append(out, t)
	}
	return out, skipped
}

func parseTokenTx(r tokenTxRecord) (domain.Transfer, bool) {
	from, to := domain.NormalizeAddress(r.From), domain.NormalizeAddress(r.To)
	if from == "" || to == "" || r.Hash == "" {
		return domain.Transfer{}, false
	}
	value, ok := new(big.Int).SetString(r.Value, 10)
	if !ok || value.Sign() < 0 {
		return domain.Transfer{}, false
	}
	ts, err := strconv.ParseInt(r.TimeStamp, 10, 64)
	if err != nil {
		return domain.Transfer{}, false
	}
	block, err := strconv.ParseUint(r.BlockNumber, 10, 64)
	if err != nil {
		return domain.Transfer{}, false
	}

	t := domain.Transfer{
		TxHash:      r.Hash,
		BlockNumber: block,
		Timestamp:   ts,
		From:        from,
		To:          to,
		Value:       value,
	}
	if idx, err := strconv.ParseUint(r.LogIndex, 10, 64); err == nil {
		t.LogIndex = idx
	}
	if d, err := strconv.Atoi(r.TokenDecimal); err == nil {
		t.DecimalHint = &d
	}
	return t, true
}
