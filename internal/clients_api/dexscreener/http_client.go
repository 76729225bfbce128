package dexscreener

// Thin GET client for the DexScreener public API, retried through infra/retry.

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	logging "holder-map/internal/infra/log"
	"holder-map/internal/infra/retry"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.dexscreener.com"
	DefaultChain   = "abstract"
)

var dexRetry = retry.Options{
	MaxRetries: 3,
	BaseDelay:  300 * time.Millisecond,
	MaxDelay:   5 * time.Second,
}

type Client struct {
	baseURL    string
	chain      string
	httpClient *http.Client
	retry      retry.Options
}

func NewClient(baseURL, chain string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if chain == "" {
		chain = DefaultChain
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		chain:      chain,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry:      dexRetry,
	}
}

func (c *Client) doGET(ctx context.Context, endpoint string) ([]byte, error) {
	requestID := logging.GenerateRequestID()
	start := time.Now()

	var respBody []byte
	err := retry.Do(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		logging.LogRequest(requestID, http.MethodGet, endpoint)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 8*1024*1024))
		if err != nil {
			return err
		}
		logging.LogResponse(requestID, resp.StatusCode, time.Since(start).Milliseconds(), zap.String("endpoint", endpoint))

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &retry.HTTPError{
				StatusCode: resp.StatusCode,
				Body:       body,
				RetryAfter: retry.ParseRetryAfter(resp.Header.Get("Retry-After")),
			}
		}
		respBody = body
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dexscreener GET failed: %w", err)
	}
	return respBody, nil
}
