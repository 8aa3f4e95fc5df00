package portal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/87.0.4280.88 Safari/537.36"

// Endpoints groups the portal URLs the client talks to. FormInstance
// and FormSubmit are printf templates taking the business and instance
// identifier respectively.
type Endpoints struct {
	Login        string
	CaptchaProbe string
	AuthProbe    string
	Logout       string
	BusinessNow  string
	FormInstance string
	FormSubmit   string
	LoginOrigin  string
	AppOrigin    string
	AppReferer   string
}

// Credentials holds one portal account's decrypted credentials. The
// password lives in memory only for the lifetime of the client.
type Credentials struct {
	Username string
	Password string
}

// PersistFunc stores a cookie snapshot after a successful login. A nil
// PersistFunc runs the client in standalone mode without persistence.
type PersistFunc func(ctx context.Context, cookies string) error

// Client maintains one user's authenticated portal session across
// independent HTTP calls.
type Client struct {
	eps       Endpoints
	creds     Credentials
	jar       http.CookieJar
	http      *http.Client
	bare      *http.Client
	userAgent string
	persist   PersistFunc
	now       func() time.Time
	loc       *time.Location
	log       *zap.Logger
}

// Option customizes client construction.
type Option func(*Client)

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithPersistFunc enables cookie persistence after successful logins.
func WithPersistFunc(persist PersistFunc) Option {
	return func(c *Client) { c.persist = persist }
}

// WithClock overrides the time source used for window checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLocation sets the timezone portal timestamps are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithUserAgent overrides the browser identity presented to the portal.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeout sets the per-call timeout on both HTTP clients.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
			c.bare.Timeout = timeout
		}
	}
}

// WithCookieSnapshot seeds the jar from a previously persisted
// snapshot. An empty snapshot is a no-op.
func WithCookieSnapshot(snapshot string) Option {
	return func(c *Client) {
		// Restore failures degrade to a fresh session; login re-probes anyway.
		if err := c.restoreCookies(snapshot); err != nil {
			c.log.Warn("discarding unreadable cookie snapshot", zap.Error(err))
		}
	}
}

// NewClient builds a session client for one portal account.
func NewClient(eps Endpoints, creds Credentials, opts ...Option) (*Client, error) {
	if creds.Username == "" {
		return nil, fmt.Errorf("portal: username is required")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("portal: init cookie jar: %w", err)
	}

	c := &Client{
		eps:   eps,
		creds: creds,
		jar:   jar,
		http: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
		bare: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent: defaultUserAgent,
		now:       time.Now,
		loc:       time.Local,
		log:       zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// IsAuthenticated issues a lightweight probe without following
// redirects. HTTP 200 means the session is live. No side effects.
func (c *Client) IsAuthenticated(ctx context.Context) (bool, error) {
	resp, err := c.get(ctx, c.bare, c.eps.AuthProbe, c.eps.AppOrigin+"/platform")
	if err != nil {
		return false, fmt.Errorf("auth probe: %w", err)
	}
	defer drain(resp)

	return resp.StatusCode == http.StatusOK, nil
}

// Login authenticates against the CAS flow. It is an idempotent no-op
// when the session is already live.
func (c *Client) Login(ctx context.Context) error {
	authed, err := c.IsAuthenticated(ctx)
	if err != nil {
		return err
	}
	if authed {
		return nil
	}

	return c.login(ctx)
}

// Relogin discards the current session state and performs a fresh login.
func (c *Client) Relogin(ctx context.Context) error {
	if err := c.resetJar(); err != nil {
		return err
	}
	return c.login(ctx)
}

func (c *Client) login(ctx context.Context) error {
	resp, err := c.get(ctx, c.http, c.eps.Login, "")
	if err != nil {
		return fmt.Errorf("fetch login page: %w", err)
	}
	form, err := parseLoginForm(resp.Body)
	drain(resp)
	if err != nil {
		return err
	}

	form.Set("username", c.creds.Username)
	form.Set("password", c.creds.Password)

	required, err := c.captchaRequired(ctx)
	if err != nil {
		return err
	}
	if required {
		return ErrCaptchaRequired
	}

	if err := c.submitLogin(ctx, form); err != nil {
		return err
	}

	authed, err := c.IsAuthenticated(ctx)
	if err != nil {
		return err
	}
	if !authed {
		return ErrLoginFailed
	}

	if c.persist != nil {
		snapshot, err := c.MarshalCookies()
		if err != nil {
			return err
		}
		if err := c.persist(ctx, snapshot); err != nil {
			return fmt.Errorf("persist session cookies: %w", err)
		}
	}

	c.log.Info("portal login succeeded", zap.String("username", maskUsername(c.creds.Username)))
	return nil
}

// captchaRequired probes the captcha endpoint with a cache-busting
// timestamp; a body of literally "true" means a captcha is enforced.
func (c *Client) captchaRequired(ctx context.Context) (bool, error) {
	probe := fmt.Sprintf("%s?username=%s&_=%d",
		c.eps.CaptchaProbe,
		url.QueryEscape(c.creds.Username),
		c.now().UnixMilli(),
	)

	resp, err := c.get(ctx, c.http, probe, c.eps.Login)
	if err != nil {
		return false, fmt.Errorf("captcha probe: %w", err)
	}
	defer drain(resp)

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return false, fmt.Errorf("read captcha probe: %w", err)
	}

	return strings.TrimSpace(string(body)) == "true", nil
}

func (c *Client) submitLogin(ctx context.Context, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.eps.Login, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", c.eps.LoginOrigin)
	req.Header.Set("Referer", c.eps.Login)
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("submit login form: %w", err)
	}
	drain(resp)
	return nil
}

// Logout terminates the portal session and always clears local cookies,
// regardless of whether the portal acknowledged the logout.
func (c *Client) Logout(ctx context.Context) error {
	defer func() {
		_ = c.resetJar()
	}()

	authed, err := c.IsAuthenticated(ctx)
	if err != nil {
		return err
	}
	if !authed {
		return nil
	}

	resp, err := c.get(ctx, c.bare, c.eps.Logout, c.eps.AppOrigin+"/")
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	drain(resp)

	authed, err = c.IsAuthenticated(ctx)
	if err != nil {
		return err
	}
	if authed {
		return ErrLogoutFailed
	}

	return nil
}

func (c *Client) get(ctx context.Context, client *http.Client, rawURL, referer string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	c.decorate(req)

	return client.Do(req)
}

func (c *Client) decorate(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Cache-Control", "no-cache")
}

func (c *Client) resetJar() error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("portal: reset cookie jar: %w", err)
	}
	c.jar = jar
	c.http.Jar = jar
	c.bare.Jar = jar
	return nil
}

func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
}

func maskUsername(username string) string {
	if len(username) <= 3 {
		return "***"
	}
	return username[:3] + strings.Repeat("*", len(username)-3)
}
