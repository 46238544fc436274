// Package bitable is a thin client for the Lark/Feishu Bitable HTTP API.
//
// Every call goes through a single normalizing round trip that attaches the
// bearer token, parses the {code, msg, data} envelope, and converts transport
// failures into results instead of errors, so one bad call never takes down a
// batch. Only malformed construction input (a token without the expected
// prefix) fails hard, at NewClient time.
package bitable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultDomain is the Bitable open API domain.
	DefaultDomain = "https://base-api.feishu.cn"

	// TokenPrefix is the required prefix of a personal authorization token.
	TokenPrefix = "pt-"

	// DefaultTimeout is the per-request socket timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPageDelay is the pause between pagination page fetches, to stay
	// under the API rate limit.
	DefaultPageDelay = 500 * time.Millisecond

	apiPrefix = "/open-apis/bitable/v1"
)

// Client talks to the record and field endpoints of one Bitable app.
type Client struct {
	token      string
	appToken   string
	domain     string
	httpClient *http.Client
	pager      *rate.Limiter
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithDomain overrides the API domain, mainly for tests.
func WithDomain(domain string) Option {
	return func(c *Client) {
		c.domain = strings.TrimRight(domain, "/")
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithPageDelay sets the pause between pagination page fetches. Zero disables
// pacing.
func WithPageDelay(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			c.pager = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.pager = rate.NewLimiter(rate.Every(d), 1)
	}
}

// NewClient creates a client for one Bitable app. The personal token must
// carry the "pt-" prefix; anything else is a construction error.
func NewClient(personalToken, appToken string, opts ...Option) (*Client, error) {
	token := strings.TrimSpace(personalToken)
	if !strings.HasPrefix(token, TokenPrefix) {
		return nil, fmt.Errorf("personal token must start with %q", TokenPrefix)
	}

	c := &Client{
		token:      token,
		appToken:   strings.TrimSpace(appToken),
		domain:     DefaultDomain,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		pager:      rate.NewLimiter(rate.Every(DefaultPageDelay), 1),
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Close releases idle connections held by the underlying HTTP session.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Result is the normalized outcome of one API round trip. Code 0 means
// success; any other code carries a diagnostic in Msg. Transport failures and
// malformed responses use code -1 so callers never have to distinguish them
// from application errors.
type Result struct {
	Code int
	Msg  string
	Data gjson.Result
}

// OK reports whether the API accepted the call.
func (r *Result) OK() bool {
	return r.Code == 0
}

// Err converts a failed result into an error, or nil for success.
func (r *Result) Err() error {
	if r.OK() {
		return nil
	}
	return fmt.Errorf("bitable: code %d: %s", r.Code, r.Msg)
}

func (c *Client) recordsPath(tableID string) string {
	return fmt.Sprintf("%s/apps/%s/tables/%s/records", apiPrefix, c.appToken, tableID)
}

func (c *Client) fieldsPath(tableID string) string {
	return fmt.Sprintf("%s/apps/%s/tables/%s/fields", apiPrefix, c.appToken, tableID)
}

// call performs one HTTP round trip and maps the response envelope into a
// Result. It never returns an error: timeouts, connection failures, non-200
// statuses, and unparseable bodies all become failure results.
func (c *Client) call(ctx context.Context, method, endpoint string, query url.Values, body any) *Result {
	fullURL := c.domain + endpoint
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Result{Code: -1, Msg: fmt.Sprintf("encoding request body: %v", err)}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return &Result{Code: -1, Msg: fmt.Sprintf("building request: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("bitable request", zap.String("method", method), zap.String("url", fullURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		msg := fmt.Sprintf("request failed: %v", err)
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			msg = fmt.Sprintf("request timed out: %v", err)
		}
		c.logger.Error("bitable transport failure", zap.String("url", fullURL), zap.Error(err))
		return &Result{Code: -1, Msg: msg}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Result{Code: -1, Msg: fmt.Sprintf("reading response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(respBody))
		c.logger.Error("bitable http error", zap.Int("status", resp.StatusCode), zap.String("url", fullURL))
		return &Result{Code: resp.StatusCode, Msg: msg}
	}

	if !json.Valid(respBody) {
		return &Result{Code: -1, Msg: "invalid JSON in response"}
	}

	parsed := gjson.ParseBytes(respBody)
	result := &Result{
		Code: int(parsed.Get("code").Int()),
		Msg:  parsed.Get("msg").String(),
		Data: parsed.Get("data"),
	}
	if !parsed.Get("code").Exists() {
		result.Code = -1
		result.Msg = "response missing code"
	}

	if !result.OK() {
		c.logger.Warn("bitable api error", zap.Int("code", result.Code), zap.String("msg", result.Msg))
	}
	return result
}
