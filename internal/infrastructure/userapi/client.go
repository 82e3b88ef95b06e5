package userapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mern-eats/my-user-gateway/internal/api/metrics"
	"github.com/mern-eats/my-user-gateway/internal/core/domain"
	"github.com/mern-eats/my-user-gateway/internal/core/ports"
)

// Client sends JSON requests to the user-profile API with a bearer token
// fetched from the token source right before each call. It never retries.
type Client struct {
	baseURL string
	tokens  ports.TokenSource
	http    *http.Client
	log     zerolog.Logger
}

// NewClient returns a Client for baseURL. A nil httpClient means
// http.DefaultClient, whose lack of timeout is deliberate: the request
// context is the only deadline.
func NewClient(baseURL string, tokens ports.TokenSource, httpClient *http.Client, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		http:    httpClient,
		log:     log,
	}
}

// call describes one outbound request.
type call struct {
	op      string
	method  string
	path    string
	body    any
	out     any
	failure string
}

// do performs c and decodes a 2xx JSON response into c.out when set. Every
// other outcome except a token failure becomes a *domain.RequestFailedError
// with the static failure message; the cause only reaches the debug log.
func (cl *Client) do(ctx context.Context, c call) error {
	start := time.Now()
	defer func() {
		metrics.UserAPIRequestDuration.WithLabelValues(c.op).Observe(time.Since(start).Seconds())
	}()

	token, err := cl.tokens.AccessToken(ctx)
	if err != nil {
		metrics.UserAPIRequestsTotal.WithLabelValues(c.op, "token_error").Inc()
		cl.log.Warn().Err(err).Str("operation", c.op).Msg("access token unavailable")
		return fmt.Errorf("%s: %w", c.op, domain.ErrLoginRequired)
	}

	var payload io.Reader
	if c.body != nil {
		buf, err := json.Marshal(c.body)
		if err != nil {
			return cl.failed(c, 0, "transport_error", fmt.Errorf("encode body: %w", err))
		}
		payload = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, c.method, cl.baseURL+c.path, payload)
	if err != nil {
		return cl.failed(c, 0, "transport_error", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := cl.http.Do(req)
	if err != nil {
		return cl.failed(c, 0, "transport_error", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return cl.failed(c, resp.StatusCode, "http_error", fmt.Errorf("status %d", resp.StatusCode))
	}

	if c.out != nil {
		if err := json.NewDecoder(resp.Body).Decode(c.out); err != nil {
			return cl.failed(c, resp.StatusCode, "http_error", fmt.Errorf("decode body: %w", err))
		}
	}

	metrics.UserAPIRequestsTotal.WithLabelValues(c.op, "success").Inc()
	return nil
}

func (cl *Client) failed(c call, status int, outcome string, cause error) error {
	metrics.UserAPIRequestsTotal.WithLabelValues(c.op, outcome).Inc()
	cl.log.Debug().Err(cause).
		Str("operation", c.op).
		Str("method", c.method).
		Int("status", status).
		Msg("user api request failed")
	return &domain.RequestFailedError{Operation: c.op, Message: c.failure, StatusCode: status}
}
