// Package fetcher retrieves everything the analysis needs for one mint:
// token metadata, supply and largest holders from the Helius RPC, recent
// swaps from the Helius enhanced transactions API and the optional RugCheck
// report.
//
// All remote reads share one rate limiter. Identical RPC calls within a run
// are answered from an in-memory cache, and concurrent identical calls are
// collapsed into one request.
package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/ratelimit"
	"golang.org/x/sync/singleflight"

	"github.com/rewired-gh/tokenguard/internal/logger"
)

// Config holds the endpoints and transport settings of the Client.
type Config struct {
	HeliusRPCURL   string
	HeliusAPIURL   string
	RugCheckURL    string
	HeliusAPIKey   string
	RugCheckAPIKey string

	Timeout           time.Duration
	MaxRetries        int
	RetryDelay        time.Duration // first backoff, grows linearly per attempt
	RequestsPerSecond int           // 0 = unlimited
	TransactionLimit  int
	CacheTTL          time.Duration
}

// Client talks to Helius and RugCheck.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    ratelimit.Limiter
	cache      *cache.Cache
	sf         singleflight.Group
}

// errNotFound is returned by doRequest for a 404 response.
var errNotFound = errors.New("not found")

// New creates a Client.
func New(cfg Config) *Client {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.TransactionLimit <= 0 || cfg.TransactionLimit > 100 {
		cfg.TransactionLimit = 100
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}

	limiter := ratelimit.NewUnlimited()
	if cfg.RequestsPerSecond > 0 {
		limiter = ratelimit.New(cfg.RequestsPerSecond)
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: limiter,
		cache:   cache.New(cfg.CacheTTL, 0), // expired entries are dropped on read, no janitor
	}
}

// doRequest performs an HTTP request with retry logic. Transport errors and
// 5xx responses are retried; a 404 yields errNotFound and any other 4xx
// fails immediately. The caller owns the returned body.
func (c *Client) doRequest(ctx context.Context, method, url string, body []byte, header http.Header) (*http.Response, error) {
	var lastErr error

	for i := 0; i < c.cfg.MaxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(i) * c.cfg.RetryDelay):
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, redactErr(err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range header {
			req.Header[k] = v
		}

		c.limiter.Take()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = redactErr(err)
			logger.Debug("request %s %s failed (attempt %d/%d): %v", method, redact(url), i+1, c.cfg.MaxRetries, lastErr)
			continue
		}

		switch {
		case resp.StatusCode >= 500:
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			logger.Debug("request %s %s got %d (attempt %d/%d)", method, redact(url), resp.StatusCode, i+1, c.cfg.MaxRetries)
			continue
		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return nil, errNotFound
		case resp.StatusCode >= 400:
			resp.Body.Close()
			return nil, fmt.Errorf("client error: %d", resp.StatusCode)
		}
		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// getJSON issues a GET and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, url string, header http.Header, out any) error {
	resp, err := c.doRequest(ctx, http.MethodGet, url, nil, header)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// rpc performs a JSON-RPC 2.0 call against the Helius RPC endpoint and
// decodes the result into out. Results are memoised per (method, params).
func (c *Client) rpc(ctx context.Context, method string, params any, out any) error {
	payload, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: "1", Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}
	key := fmt.Sprintf("rpc:%s:%s", method, mustJSON(params))

	if raw, ok := c.cache.Get(key); ok {
		return json.Unmarshal(raw.(json.RawMessage), out)
	}

	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		url := c.cfg.HeliusRPCURL + "?api-key=" + c.cfg.HeliusAPIKey
		resp, err := c.doRequest(ctx, http.MethodPost, url, payload, nil)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		var rr rpcResponse
		if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
			return nil, fmt.Errorf("failed to decode %s response: %w", method, err)
		}
		if rr.Error != nil {
			return nil, fmt.Errorf("%s: rpc error %d: %s", method, rr.Error.Code, rr.Error.Message)
		}
		if len(rr.Result) == 0 || string(rr.Result) == "null" {
			return nil, fmt.Errorf("%s: empty result", method)
		}
		c.cache.SetDefault(key, rr.Result)
		return rr.Result, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(v.(json.RawMessage), out)
}

func mustJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

// redact strips the query string so API keys never reach the logs.
func redact(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		return url[:i]
	}
	return url
}

// redactErr rewrites the URL carried by a *url.Error, which net/http puts
// verbatim into transport errors.
func redactErr(err error) error {
	var ue *neturl.Error
	if errors.As(err, &ue) {
		return &neturl.Error{Op: ue.Op, URL: redact(ue.URL), Err: ue.Err}
	}
	return err
}
