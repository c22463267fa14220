// Package wechat implements polyauth.ProviderClient against the
// WeChat jscode2session endpoint.
package wechat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/polyauth/polyauth"
)

const defaultBaseURL = "https://api.weixin.qq.com"

var _ polyauth.ProviderClient = (*Client)(nil)

// Config holds the mini-program credentials and transport knobs.
type Config struct {
	AppID  string
	Secret string
	// BaseURL overrides the WeChat API host, mainly for tests.
	BaseURL string
	// HTTPClient defaults to a client with Timeout.
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client exchanges mini-program login codes for session subjects.
type Client struct {
	config Config
	http   *http.Client
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{config: cfg, http: httpClient}
}

type sessionResponse struct {
	OpenID  string `json:"openid"`
	UnionID string `json:"unionid"`
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// ExchangeCode calls jscode2session. A code the provider rejects comes
// back as a zero session with a nil error; only transport and protocol
// failures return an error.
func (c *Client) ExchangeCode(ctx context.Context, code string) (polyauth.ProviderSession, error) {
	query := url.Values{
		"appid":      {c.config.AppID},
		"secret":     {c.config.Secret},
		"js_code":    {code},
		"grant_type": {"authorization_code"},
	}
	endpoint := c.config.BaseURL + "/sns/jscode2session?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return polyauth.ProviderSession{}, fmt.Errorf("wechat: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return polyauth.ProviderSession{}, fmt.Errorf("wechat: exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return polyauth.ProviderSession{}, fmt.Errorf("wechat: exchange: unexpected status %d", resp.StatusCode)
	}

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return polyauth.ProviderSession{}, fmt.Errorf("wechat: decode response: %w", err)
	}

	// The endpoint reports code rejection in-band with errcode; that
	// is a credential failure, not an outage.
	if session.ErrCode != 0 || session.OpenID == "" {
		return polyauth.ProviderSession{}, nil
	}

	return polyauth.ProviderSession{
		SubjectID:   session.OpenID,
		SecondaryID: session.UnionID,
	}, nil
}
