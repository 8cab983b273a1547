package woocommerce

import (
	"bytes"
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

	"go.uber.org/zap"

	wcdomain "github.com/niaga-platform/service-wooadmin/internal/domain/woocommerce"
	"github.com/niaga-platform/service-wooadmin/internal/metrics"
)

// APIBasePath is the WooCommerce REST v3 prefix appended to a store URL.
const APIBasePath = "/wp-json/wc/v3"

// Response headers carrying pagination totals.
const (
	HeaderTotal      = "X-WP-Total"
	HeaderTotalPages = "X-WP-TotalPages"
)

// Client is a WooCommerce REST client for a single store, with retry and
// per-endpoint rate limiting.
type Client struct {
	storeURL       string
	consumerKey    string
	consumerSecret string
	httpClient     *http.Client
	logger         *zap.Logger
	retryPolicy    *wcdomain.RetryPolicy
	rateLimiter    *wcdomain.RateLimiter
}

// ClientConfig holds configuration for the WooCommerce client.
type ClientConfig struct {
	StoreURL       string
	ConsumerKey    string
	ConsumerSecret string
	Logger         *zap.Logger
	RetryPolicy    *wcdomain.RetryPolicy
	RateLimit      *wcdomain.RateLimitConfig
	RequestTimeout time.Duration
	HTTPClient     *http.Client
}

// NewClient creates a new WooCommerce REST client.
func NewClient(cfg *ClientConfig) (*Client, error) {
	storeURL, err := NormalizeStoreURL(cfg.StoreURL)
	if err != nil {
		return nil, err
	}
	if cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" {
		return nil, fmt.Errorf("consumer key and consumer secret are required")
	}

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	retryPolicy := cfg.RetryPolicy
	if retryPolicy == nil {
		retryPolicy = wcdomain.DefaultRetryPolicy()
	}

	rateLimit := wcdomain.DefaultRateLimitConfig()
	if cfg.RateLimit != nil {
		rateLimit = *cfg.RateLimit
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		storeURL:       storeURL,
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		httpClient:     httpClient,
		logger:         logger,
		retryPolicy:    retryPolicy,
		rateLimiter:    wcdomain.NewRateLimiter(rateLimit),
	}, nil
}

// NormalizeStoreURL validates a store base URL and strips trailing slashes
// and an accidentally pasted REST prefix.
func NormalizeStoreURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("invalid store URL %q", raw)
	}
	s := strings.TrimRight(u.Scheme+"://"+u.Host+u.Path, "/")
	s = strings.TrimSuffix(s, APIBasePath)
	return strings.TrimRight(s, "/"), nil
}

// StoreURL returns the normalized base URL of the store.
func (c *Client) StoreURL() string {
	return c.storeURL
}

// Request represents a generic API request. Path is relative to APIBasePath.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
}

// Response carries the response metadata callers need beyond the body.
type Response struct {
	StatusCode int
	Total      int
	TotalPages int
}

// Do performs a request with rate limiting and retries, decoding the JSON
// body into result when result is non-nil.
func (c *Client) Do(ctx context.Context, req *Request, result interface{}) (*Response, error) {
	var resp *Response
	outcome, err := wcdomain.Retry(ctx, c.retryPolicy, func(int) error {
		if err := c.rateLimiter.Wait(ctx, req.Path); err != nil {
			return err
		}
		var err error
		resp, err = c.doRequest(ctx, req, result)
		return err
	})

	if err != nil {
		if !errors.Is(err, wcdomain.ErrResourceNotFound) {
			c.logger.Error("WooCommerce request failed",
				zap.String("store", c.storeURL),
				zap.String("path", req.Path),
				zap.Int("attempts", outcome.Attempts),
				zap.Duration("duration", outcome.Elapsed),
				zap.Error(err),
			)
		}
		return nil, err
	}

	return resp, nil
}

// doRequest performs a single HTTP request without retry.
func (c *Client) doRequest(ctx context.Context, req *Request, result interface{}) (*Response, error) {
	endpoint := endpointLabel(req.Path)

	reqURL := c.storeURL + APIBasePath + req.Path
	if len(req.Query) > 0 {
		reqURL += "?" + req.Query.Encode()
	}

	var bodyReader io.Reader
	if req.Body != nil {
		bodyBytes, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.SetBasicAuth(c.consumerKey, c.consumerSecret)
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	startTime := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	metrics.UpstreamLatency.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		metrics.UpstreamRequests.WithLabelValues(endpoint, "network").Inc()
		return nil, &wcdomain.NetworkError{URL: reqURL, Err: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "network").Inc()
		return nil, &wcdomain.NetworkError{URL: reqURL, Err: err}
	}

	c.logger.Debug("WooCommerce request completed",
		zap.String("method", req.Method),
		zap.String("store", c.storeURL),
		zap.String("path", req.Path),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("latency", time.Since(startTime)),
	)

	if httpResp.StatusCode >= 400 {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "rejected").Inc()
		apiErr := parseErrorBody(respBody, httpResp.StatusCode)
		apiErr.RetryAfter = retryAfter(httpResp.Header, time.Now())
		if httpResp.StatusCode != http.StatusNotFound {
			c.logger.Warn("WooCommerce API error",
				zap.String("store", c.storeURL),
				zap.String("path", req.Path),
				zap.String("error_code", apiErr.Code.String()),
				zap.String("message", apiErr.Message),
				zap.Int("status", apiErr.StatusCode),
			)
		}
		return nil, apiErr
	}
	metrics.UpstreamRequests.WithLabelValues(endpoint, "ok").Inc()

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return nil, wcdomain.NewAPIError(
				wcdomain.CodeInvalidResponse,
				fmt.Sprintf("unexpected response body: %s", truncateString(string(respBody), 120)),
				httpResp.StatusCode,
			)
		}
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Total:      headerInt(httpResp.Header, HeaderTotal),
		TotalPages: headerInt(httpResp.Header, HeaderTotalPages),
	}, nil
}

// errorBody is the WordPress REST error envelope.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Status int `json:"status"`
	} `json:"data"`
}

func parseErrorBody(body []byte, statusCode int) *wcdomain.APIError {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || eb.Code == "" {
		return wcdomain.NewAPIError(
			wcdomain.CodeHTTPError,
			fmt.Sprintf("HTTP error: %d", statusCode),
			statusCode,
		)
	}
	return wcdomain.NewAPIError(wcdomain.ErrorCode(eb.Code), eb.Message, statusCode)
}

// retryAfter reads a Retry-After header given either as delay-seconds or
// as an HTTP date.
func retryAfter(h http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

func headerInt(h http.Header, key string) int {
	n, err := strconv.Atoi(h.Get(key))
	if err != nil {
		return 0
	}
	return n
}

// endpointLabel collapses numeric path segments so metric labels stay bounded.
func endpointLabel(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		if _, err := strconv.ParseInt(p, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

// truncateString truncates a string to the specified length.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
