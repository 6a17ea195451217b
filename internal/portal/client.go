// Package portal talks to the university's daily health report endpoints.
package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ykvlv/checkin-bot/internal/domain"
	"github.com/ykvlv/checkin-bot/internal/logger"
)

const (
	loginPath = "/uc/wap/login/check"
	savePath  = "/ncov/wap/default/save"

	// SessionCookie carries the portal session after login.
	SessionCookie = "eai-sess"

	userAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Session is an authenticated portal session. It is not reused across
// check-ins.
type Session struct {
	Cookie *http.Cookie
}

// Client is the portal session client. A nil limiter disables pacing.
type Client struct {
	http    HTTPClient
	baseURL string
	limiter *rate.Limiter
	now     func() time.Time
}

func New(httpClient HTTPClient, baseURL string, limiter *rate.Limiter) *Client {
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: limiter,
		now:     time.Now,
	}
}

// result is the envelope both endpoints answer with.
type result struct {
	Code    *int    `json:"e" validate:"required"`
	Message *string `json:"m" validate:"required"`
}

// Authenticate logs in and returns the session cookie.
func (c *Client) Authenticate(ctx context.Context, username, password string) (Session, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	resp, body, err := c.post(ctx, loginPath, form, nil)
	if err != nil {
		return Session{}, fmt.Errorf("login request: %w", err)
	}

	res, err := decodeResult(body)
	if err != nil {
		return Session{}, domain.AuthenticationFailed("unexpected login response", err)
	}
	if *res.Code != 0 {
		return Session{}, domain.AuthenticationFailed(*res.Message, nil)
	}
	for _, ck := range resp.Cookies() {
		if ck.Name == SessionCookie && ck.Value != "" {
			return Session{Cookie: ck}, nil
		}
	}
	return Session{}, domain.AuthenticationFailed("portal returned no session", nil)
}

// SubmitCheckin posts today's declaration and returns the portal's message.
// A rejected declaration (non-zero code) still returns its message.
func (c *Client) SubmitCheckin(ctx context.Context, s Session, d Declaration) (string, error) {
	form, err := d.Form(c.now())
	if err != nil {
		return "", err
	}

	_, body, err := c.post(ctx, savePath, form, s.Cookie)
	if err != nil {
		return "", fmt.Errorf("checkin request: %w", err)
	}

	res, err := decodeResult(body)
	if err != nil {
		return "", err
	}
	logger.FromContext(ctx).Debug("checkin submitted",
		zap.Int("code", *res.Code),
		zap.String("message", *res.Message),
	)
	return *res.Message, nil
}

func (c *Client) post(ctx context.Context, path string, form url.Values, ck *http.Cookie) (*http.Response, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)
	if ck != nil {
		req.AddCookie(ck)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, body, nil
}

func decodeResult(body []byte) (result, error) {
	var res result
	if err := json.Unmarshal(body, &res); err != nil {
		return result{}, domain.MalformedUpstream("portal response is not JSON", nil, err)
	}
	if vs := domain.Validate(res); len(vs) > 0 {
		return result{}, domain.MalformedUpstream("portal response has unexpected shape", vs, nil)
	}
	return res, nil
}
