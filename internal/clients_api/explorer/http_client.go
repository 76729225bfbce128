package explorer

// Client for Etherscan v2 compatible block-explorer APIs.
// Every call goes through the rate limiter, the circuit breaker and retry.Do.
// Explorer-level failures arrive inside a 200 response as {status:"0"}.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	logging "holder-map/internal/infra/log"
	"holder-map/internal/infra/retry"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.etherscan.io/v2/api"
	// AbstractChainID is Abstract mainnet.
	AbstractChainID = 2741

	defaultPageSize = 10000
	defaultMaxPages = 200
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL         string
	APIKey          string
	ChainID         int64
	Timeout         time.Duration
	MaxRetries      int
	RateLimit       float64 // requests per second
	Burst           int
	PageSize        int
	MaxPages        int
	MaxResponseSize int64
}

type Client struct {
	baseURL         string
	apiKey          string
	chainID         int64
	pageSize        int
	maxPages        int
	httpClient      *http.Client
	rateLimiter     *rate.Limiter
	circuitBreaker  *gobreaker.CircuitBreaker
	retry           retry.Options
	maxResponseSize int64
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.ChainID == 0 {
		opts.ChainID = AbstractChainID
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 4
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = defaultMaxPages
	}
	if opts.MaxResponseSize <= 0 {
		opts.MaxResponseSize = 64 * 1024 * 1024
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ExplorerAPI",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		// Explorer replies such as "invalid address" mean the transport is healthy.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			return err == nil || errors.As(err, &apiErr)
		},
	})

	return &Client{
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		apiKey:          opts.APIKey,
		chainID:         opts.ChainID,
		pageSize:        opts.PageSize,
		maxPages:        opts.MaxPages,
		rateLimiter:     rate.NewLimiter(rate.Limit(opts.RateLimit), opts.Burst),
		circuitBreaker:  breaker,
		maxResponseSize: opts.MaxResponseSize,
		retry: retry.Options{
			MaxRetries: opts.MaxRetries,
			BaseDelay:  500 * time.Millisecond,
			MaxDelay:   10 * time.Second,
		},
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
		},
	}
}

// MakeRequest performs one explorer call and returns the raw "result" field.
// An empty-result reply ("No transactions found") yields an empty JSON array.
// Errors come back wrapped with retry.Permanent once the client's own retries
// are exhausted.
func (c *Client) MakeRequest(ctx context.Context, params url.Values) (json.RawMessage, error) {
	requestID := logging.GenerateRequestID()
	startTime := time.Now()
	endpoint := params.Get("module") + "/" + params.Get("action")

	if ctx.Err() != nil {
		return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("chainid", strconv.FormatInt(c.chainID, 10))
	if c.apiKey != "" {
		q.Set("apikey", c.apiKey)
	}
	fullURL := c.baseURL + "?" + q.Encode()

	var result json.RawMessage
	err := retry.Do(ctx, c.retry, func() error {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait failed: %w", err)
		}
		_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			body, err := c.get(ctx, requestID, endpoint, fullURL, startTime)
			if err != nil {
				return nil, err
			}
			result, err = decodeEnvelope(body)
			return nil, err
		})
		return err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logging.LogError("Circuit breaker rejected request", zap.String("request_id", requestID), zap.String("endpoint", endpoint), zap.Error(err))
		}
		// Retries are spent here; callers must not stack another loop on top.
		return nil, retry.Permanent(fmt.Errorf("explorer %s failed: %w", endpoint, err))
	}

	logging.LogDebug("Explorer call finished",
		zap.String("request_id", requestID),
		zap.String("endpoint", endpoint),
		zap.Int64("duration_ms", time.Since(startTime).Milliseconds()))
	return result, nil
}

func (c *Client) get(ctx context.Context, requestID, endpoint, fullURL string, startTime time.Time) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "holder-map/1.0")

	logging.LogRequest(requestID, http.MethodGet, endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.LogResponse(requestID, 0, time.Since(startTime).Milliseconds(), zap.String("endpoint", endpoint), zap.Error(err))
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize))
	if err != nil {
		logging.LogResponse(requestID, resp.StatusCode, time.Since(startTime).Milliseconds(), zap.String("endpoint", endpoint), zap.Error(err))
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	logging.LogResponse(requestID, resp.StatusCode, time.Since(startTime).Milliseconds(), zap.String("endpoint", endpoint))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Body:       body,
			RetryAfter: retry.ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	return body, nil
}
