package ecoflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"ecoflow/internal/engine/signing"
	"ecoflow/internal/platform/config"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL = "https://api-e.ecoflow.com"

	pathDeviceList = "/iot-open/sign/device/list"
	pathQuotaAll   = "/iot-open/sign/device/quota/all"
	pathQuota      = "/iot-open/sign/device/quota"

	jsonContentType = "application/json;charset=UTF-8"
	maxBodyBytes    = 4 << 20
)

// Client calls the EcoFlow IoT open API, signing every request.
// It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	signer  *signing.Signer
	nonces  signing.NonceSource
	clock   signing.Clock
	logger  zerolog.Logger
	retries int
	backoff time.Duration

	requests atomic.Int64
	retried  atomic.Int64
	failures atomic.Int64
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithNonceSource(n signing.NonceSource) Option {
	return func(c *Client) { c.nonces = n }
}

func WithClock(clock signing.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func NewClient(cfg config.EcoFlowConfig, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		signer:  signing.NewSigner(cfg.AccessKey, cfg.SecretKey),
		nonces:  signing.RandomNonce{},
		clock:   signing.SystemClock{},
		logger:  log.Logger,
		retries: cfg.RetryAttempts,
		backoff: cfg.RetryBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retries < 0 {
		c.retries = 0
	}

	return c, nil
}

func (c *Client) Stats() Stats {
	return Stats{
		Requests: c.requests.Load(),
		Retries:  c.retried.Load(),
		Failures: c.failures.Load(),
	}
}

// do sends a signed request, retrying transport failures and 5xx responses.
// Each attempt is signed with a fresh nonce and timestamp.
func (c *Client) do(ctx context.Context, method, path string, data *signing.Mapping) (json.RawMessage, error) {
	if data == nil {
		data = signing.NewMapping()
	}
	requestID := uuid.NewString()

	for attempt := 0; ; attempt++ {
		raw, err := c.send(ctx, requestID, method, path, data)
		if err == nil {
			return raw, nil
		}

		if attempt >= c.retries || !retryable(err) || ctx.Err() != nil {
			c.failures.Add(1)
			return nil, err
		}

		c.retried.Add(1)
		wait := c.backoff * time.Duration(attempt+1)
		c.logger.Warn().Err(err).
			Str("request_id", requestID).
			Int("attempt", attempt+1).
			Dur("backoff", wait).
			Msg("ecoflow request failed, retrying")

		select {
		case <-ctx.Done():
			c.failures.Add(1)
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) send(ctx context.Context, requestID, method, path string, data *signing.Mapping) (json.RawMessage, error) {
	nonce, err := c.nonces.Nonce()
	if err != nil {
		return nil, fmt.Errorf("ecoflow: nonce: %w", err)
	}
	timestamp := signing.Timestamp(c.clock.Now())

	sign, err := c.signer.Sign(nonce, timestamp, data)
	if err != nil {
		return nil, err
	}

	url := c.baseURL + path
	var body io.Reader
	switch method {
	case http.MethodGet, http.MethodDelete:
		if data.Len() > 0 {
			flat, err := signing.Flatten(data)
			if err != nil {
				return nil, err
			}
			url += "?" + signing.EncodeQuery(flat)
		}
	default:
		if data.Len() > 0 {
			payload, err := json.Marshal(data)
			if err != nil {
				return nil, fmt.Errorf("ecoflow: encode body: %w", err)
			}
			body = bytes.NewReader(payload)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	// The vendor expects these header names verbatim, so bypass
	// canonicalization.
	req.Header["accessKey"] = []string{c.signer.AccessKey()}
	req.Header["nonce"] = []string{nonce}
	req.Header["sign"] = []string{sign}
	req.Header["timestamp"] = []string{timestamp}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", jsonContentType)
	} else {
		req.Header.Set("Content-Type", "application/json")
	}

	c.requests.Add(1)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("ecoflow: read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(respBody, &env)

	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Str("nonce", nonce).
		Int("status", resp.StatusCode).
		Str("code", env.Code).
		Dur("duration", time.Since(start)).
		Msg("ecoflow request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && env.Code != "" {
			return nil, &APIError{Code: env.Code, Message: env.Message, TraceID: env.EagleEyeTraceID}
		}
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: truncate(string(respBody), 256)}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, decodeErr)
	}
	if env.Code != "0" {
		return nil, &APIError{Code: env.Code, Message: env.Message, TraceID: env.EagleEyeTraceID}
	}

	return env.Data, nil
}

func retryable(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.temporary()
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return false
	}
	if errors.Is(err, signing.ErrInvalidInputType) || errors.Is(err, signing.ErrCyclicInput) {
		return false
	}
	if errors.Is(err, ErrDecode) {
		return false
	}
	// Remaining errors come from the transport.
	return true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
