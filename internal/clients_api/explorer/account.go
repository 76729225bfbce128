package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"net/url"
	"regexp"
	"strconv"

	"holder-map/internal/domain"
	logging "holder-map/internal/infra/log"
	"holder-map/internal/infra/retry"

	"go.uber.org/zap"
)

var digits = regexp.MustCompile(`^[0-9]+$`)

// TokenBalance reads the latest token balance of holder.
func (c *Client) TokenBalance(ctx context.Context, token, holder domain.Address) (*big.Int, error) {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "tokenbalance")
	params.Set("contractaddress", token.String())
	params.Set("address", holder.String())
	params.Set("tag", "latest")

	raw, err := c.MakeRequest(ctx, params)
	if err != nil {
		return nil, err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to decode tokenbalance result: %w", err))
	}
	if !digits.MatchString(s) {
		return nil, retry.Permanent(fmt.Errorf("non-numeric tokenbalance result %q", s))
	}
	v, _ := new(big.Int).SetString(s, 10)
	return v, nil
}

// ContractCreator returns the deployer of token, or "" when the explorer has no record.
func (c *Client) ContractCreator(ctx context.Context, token domain.Address) (domain.Address, error) {
	params := url.Values{}
	params.Set("module", "contract")
	params.Set("action", "getcontractcreation")
	params.Set("contractaddresses", token.String())

	raw, err := c.MakeRequest(ctx, params)
	if err != nil {
		return "", err
	}
	var records []contractCreation
	if err := json.Unmarshal(raw, &records); err != nil {
		return "", fmt.Errorf("failed to decode getcontractcreation result: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}
	return domain.NormalizeAddress(records[0].ContractCreator), nil
}

// NativeTransactions returns addr's successful normal transactions, newest
// first. Pages are read until one reaches back past since (unix seconds), a
// short page ends the history, or the page cap is hit; since <= 0 reads the
// whole history.
func (c *Client) NativeTransactions(ctx context.Context, addr domain.Address, since int64) ([]domain.NativeTx, error) {
	var out []domain.NativeTx
	for page := 1; page <= c.maxPages; page++ {
		params := url.Values{}
		params.Set("module", "account")
		params.Set("action", "txlist")
		params.Set("address", addr.String())
		params.Set("startblock", "0")
		params.Set("endblock", "99999999")
		params.Set("page", strconv.Itoa(page))
		params.Set("offset", strconv.Itoa(c.pageSize))
		params.Set("sort", "desc")

		records, err := c.txListPage(ctx, params)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			logging.LogWarn("Txlist paging stopped early",
				zap.String("address", addr.String()),
				zap.Int("page", page),
				zap.Error(err))
			break
		}
		batch, oldest := parseNativeTxs(records)
		out = append(out, batch...)
		if len(records) < c.pageSize || (since > 0 && oldest < since) {
			break
		}
	}
	return out, nil
}

func (c *Client) txListPage(ctx context.Context, params url.Values) ([]nativeTxRecord, error) {
	raw, err := c.MakeRequest(ctx, params)
	if err != nil {
		return nil, err
	}
	var records []nativeTxRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to decode txlist result: %w", err))
	}
	return records, nil
}

// parseNativeTxs drops failed and malformed records. oldest is the smallest
// timestamp seen on the page, failed records included.
func parseNativeTxs(records []nativeTxRecord) (out []domain.NativeTx, oldest int64) {
	oldest = math.MaxInt64
	out = make([]domain.NativeTx, 0, len(records))
	for _, r := range records {
		ts, err := strconv.ParseInt(r.TimeStamp, 10, 64)
		if err != nil {
			continue
		}
		if ts < oldest {
			oldest = ts
		}
		if r.IsError == "1" {
			continue
		}
		value, ok := new(big.Int).SetString(r.Value, 10)
		if !ok {
			continue
		}
		out = append(out, domain.NativeTx{
			Hash:      r.Hash,
			From:      domain.NormalizeAddress(r.From),
			To:        domain.NormalizeAddress(r.To),
			Value:     value,
			Timestamp: ts,
		})
	}
	return out, oldest
}
