package reddit

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	DefaultAuthURL = "https://www.reddit.com/api/v1/access_token"
	DefaultBaseURL = "https://oauth.reddit.com"

	defaultTimeout      = 30 * time.Second
	defaultMaxRetries   = 3
	defaultRetryWaitMin = time.Second
	defaultRetryWaitMax = 30 * time.Second
)

// Options configures a reddit API session.
type Options struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string

	BaseURL string
	AuthURL string

	// RequestsPerMinute caps API calls. Zero or less disables the limiter.
	RequestsPerMinute int
	// Timeout bounds a single attempt, not the retries around it.
	Timeout time.Duration

	// MaxRetries is the number of retries after a 429, a 5xx or a
	// transport error. Negative disables retries.
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	Logger *log.Logger
}

// Client talks to the reddit OAuth API with a script-app password grant.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger

	mu         sync.Mutex
	pauseUntil time.Time
}

// NewClient authenticates against reddit and returns a ready client.
// Credential rejection is reported as *AuthError.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, &AuthError{Err: errors.New("client id and secret are required")}
	}
	if opts.Username == "" || opts.Password == "" {
		return nil, &AuthError{Err: errors.New("username and password are required")}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	authURL := opts.AuthURL
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Inf, 1),
		logger:  opts.Logger,
	}
	if opts.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}

	base := &http.Client{
		Timeout:   timeout,
		Transport: &userAgentTransport{userAgent: opts.UserAgent, base: http.DefaultTransport},
	}
	retrying := c.retryClient(base, opts)
	sessionCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, retrying.StandardClient())

	conf := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  authURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
	src := &passwordTokenSource{ctx: sessionCtx, conf: conf, username: opts.Username, password: opts.Password}
	tok, err := src.Token()
	if err != nil {
		return nil, err
	}

	c.httpClient = oauth2.NewClient(sessionCtx, oauth2.ReuseTokenSource(tok, src))
	return c, nil
}

// retryClient wraps base in a retrying client. The oauth2 transport sits on
// top of it, so token requests are retried too.
func (c *Client) retryClient(base *http.Client, opts Options) *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = base
	rc.Logger = nil
	rc.RetryMax = defaultMaxRetries
	if opts.MaxRetries != 0 {
		rc.RetryMax = max(opts.MaxRetries, 0)
	}
	rc.RetryWaitMin = cmp.Or(opts.RetryWaitMin, defaultRetryWaitMin)
	rc.RetryWaitMax = max(cmp.Or(opts.RetryWaitMax, defaultRetryWaitMax), rc.RetryWaitMin)
	rc.CheckRetry = retryPolicy
	rc.Backoff = backoff
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			c.logf("  retrying %s %s (attempt %d)", req.Method, req.URL.Path, attempt+1)
		}
	}
	rc.ResponseLogHook = func(_ retryablehttp.Logger, resp *http.Response) {
		c.observeQuota(resp.Header)
	}
	return rc
}

// retryPolicy retries the statuses APIError reports as transient. Other
// error statuses, including the 401 behind AuthError, fail at once.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err == nil && resp != nil {
		if resp.StatusCode < 400 {
			return false, nil
		}
		return (&APIError{Status: resp.StatusCode}).retryable(), nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// backoff waits out reddit's quota window on a 429 without Retry-After.
func backoff(waitMin, waitMax time.Duration, attempt int, resp *http.Response) time.Duration {
	if resp != nil && resp.StatusCode == http.StatusTooManyRequests && resp.Header.Get("Retry-After") == "" {
		if reset, ok := quotaReset(resp.Header); ok {
			return reset
		}
	}
	return retryablehttp.DefaultBackoff(waitMin, waitMax, attempt, resp)
}

func (c *Client) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// passwordTokenSource re-runs the password grant when the access token
// expires; reddit does not issue refresh tokens to script apps.
type passwordTokenSource struct {
	ctx      context.Context
	conf     *oauth2.Config
	username string
	password string
}

func (s *passwordTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.conf.PasswordCredentialsToken(s.ctx, s.username, s.password)
	if err != nil {
		return nil, &AuthError{Err: err}
	}
	return tok, nil
}

type userAgentTransport struct {
	userAgent string
	base      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.userAgent == "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(clone)
}

// Me returns the authenticated username.
func (c *Client) Me(ctx context.Context) (string, error) {
	var me struct {
		Name string `json:"name"`
	}
	if err := c.getJSON(ctx, "/api/v1/me", nil, &me); err != nil {
		return "", err
	}
	return me.Name, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	data, err := c.get(ctx, endpoint)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	if err := c.waitForQuota(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, &AuthError{Err: err}
		}
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &AuthError{Err: &APIError{Status: resp.StatusCode, Message: apiMessage(data)}}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Message: apiMessage(data)}
	}
	return data, nil
}

func apiMessage(data []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	msg := strings.TrimSpace(string(data))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

func (c *Client) waitForQuota(ctx context.Context) error {
	c.mu.Lock()
	until := c.pauseUntil
	c.mu.Unlock()
	if wait := time.Until(until); wait > 0 {
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
	return c.limiter.Wait(ctx)
}

// observeQuota honours reddit's X-Ratelimit headers once the window is spent.
func (c *Client) observeQuota(h http.Header) {
	reset, ok := quotaReset(h)
	if !ok {
		return
	}
	c.mu.Lock()
	c.pauseUntil = time.Now().Add(reset)
	c.mu.Unlock()
}

// quotaReset reports how long until the quota window resets, if it is spent.
func quotaReset(h http.Header) (time.Duration, bool) {
	remaining, err := strconv.ParseFloat(h.Get("X-Ratelimit-Remaining"), 64)
	if err != nil || remaining >= 1 {
		return 0, false
	}
	reset, err := strconv.ParseFloat(h.Get("X-Ratelimit-Reset"), 64)
	if err != nil || reset <= 0 {
		return 0, false
	}
	return time.Duration(reset * float64(time.Second)), true
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
