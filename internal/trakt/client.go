// Package trakt talks to the tracking service: OAuth token lifecycle,
// paginated watch history, and the user list resource.
package trakt

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/reellists/listgen/internal/domain"
)

type Client struct {
	http         *resty.Client
	clientID     string
	clientSecret string
	redirectURI  string
	log          zerolog.Logger
}

type Options struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Timeout      time.Duration
}

func NewClient(opts Options, log zerolog.Logger) *Client {
	http := resty.New().
		SetBaseURL(opts.BaseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("trakt-api-version", "2").
		SetHeader("trakt-api-key", opts.ClientID).
		SetTimeout(opts.Timeout)

	return &Client{
		http:         http,
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		redirectURI:  opts.RedirectURI,
		log:          log,
	}
}

type tokenRequest struct {
	Code         string `json:"code,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURI  string `json:"redirect_uri"`
	GrantType    string `json:"grant_type"`
}

// Exchange trades an authorization code for a token pair.
func (c *Client) Exchange(ctx context.Context, code string) (*domain.TokenPair, error) {
	return c.token(ctx, tokenRequest{
		Code:         code,
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		RedirectURI:  c.redirectURI,
		GrantType:    "authorization_code",
	})
}

// Refresh trades a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	return c.token(ctx, tokenRequest{
		RefreshToken: refreshToken,
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		RedirectURI:  c.redirectURI,
		GrantType:    "refresh_token",
	})
}

func (c *Client) token(ctx context.Context, req tokenRequest) (*domain.TokenPair, error) {
	var pair domain.TokenPair
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&req).
		SetResult(&pair).
		Post("/oauth/token")
	if err != nil {
		return nil, fmt.Errorf("token request (%s): %w", req.GrantType, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("token request (%s): status %d", req.GrantType, resp.StatusCode())
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return nil, fmt.Errorf("token request (%s): incomplete token pair", req.GrantType)
	}
	return &pair, nil
}
