package federation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mkravets/identity-core/internal/config"
)

const (
	defaultTokenURL    = "https://oauth2.googleapis.com/token"
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	defaultTimeout     = 10 * time.Second
)

var (
	// ErrUpstreamAuth means the provider rejected the exchange.
	ErrUpstreamAuth = errors.New("upstream authentication failed")
	// ErrUpstreamUnavailable means the provider could not be reached;
	// callers may retry.
	ErrUpstreamUnavailable = errors.New("upstream provider unavailable")
)

// ExternalIdentity is the claim set obtained from the provider.
type ExternalIdentity struct {
	Subject string
	Email   string
	Name    string
}

// Exchanger trades a third-party authorization code for identity claims.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (ExternalIdentity, error)
}

// GoogleExchanger performs the authorization-code grant against Google's
// token endpoint and reads the profile from the userinfo endpoint.
type GoogleExchanger struct {
	config config.OAuthConfig
	client *http.Client
	log    *zap.Logger
}

func NewGoogleExchanger(cfg config.OAuthConfig, log *zap.Logger) *GoogleExchanger {
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = defaultUserInfoURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &GoogleExchanger{
		config: cfg,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

func (g *GoogleExchanger) Exchange(ctx context.Context, code string) (ExternalIdentity, error) {
	accessToken, err := g.exchangeToken(ctx, code)
	if err != nil {
		return ExternalIdentity{}, err
	}
	return g.fetchProfile(ctx, accessToken)
}

func (g *GoogleExchanger) exchangeToken(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", g.config.ClientID)
	form.Set("client_secret", g.config.ClientSecret)
	form.Set("redirect_uri", g.config.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.log.Warn("token exchange rejected", zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("%w: token endpoint returned %d", ErrUpstreamAuth, resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamAuth, err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("%w: missing access token", ErrUpstreamAuth)
	}

	return payload.AccessToken, nil
}

func (g *GoogleExchanger) fetchProfile(ctx context.Context, accessToken string) (ExternalIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.config.UserInfoURL, nil)
	if err != nil {
		return ExternalIdentity{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return ExternalIdentity{}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ExternalIdentity{}, fmt.Errorf("%w: userinfo endpoint returned %d", ErrUpstreamAuth, resp.StatusCode)
	}

	var payload struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ExternalIdentity{}, fmt.Errorf("%w: %v", ErrUpstreamAuth, err)
	}
	if payload.Email == "" {
		return ExternalIdentity{}, fmt.Errorf("%w: userinfo carried no email", ErrUpstreamAuth)
	}

	return ExternalIdentity{
		Subject: payload.Sub,
		Email:   payload.Email,
		Name:    payload.Name,
	}, nil
}
