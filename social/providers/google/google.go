package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-accounts/social"
)

const defaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// Config holds Google verification configuration.
type Config struct {
	// ClientID the ID token audience must match.
	ClientID string

	TokenInfoURL string

	HTTPClient *http.Client
}

// Provider implements social.Provider for Google ID tokens.
type Provider struct {
	config     Config
	httpClient *http.Client
}

// New creates a new Google provider.
func New(cfg Config) *Provider {
	if cfg.TokenInfoURL == "" {
		cfg.TokenInfoURL = defaultTokenInfoURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Provider{
		config:     cfg,
		httpClient: client,
	}
}

// Name implements social.Provider.
func (p *Provider) Name() string {
	return "google"
}

type tokenInfoResponse struct {
	Aud           string `json:"aud"`
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Error         string `json:"error"`
	ErrorDesc     string `json:"error_description"`
}

// Verify checks the ID token against Google's tokeninfo endpoint and
// enforces the audience.
func (p *Provider) Verify(ctx context.Context, assertion social.Assertion) (*social.Profile, error) {
	if assertion.IDToken == "" {
		return nil, social.ErrBadAssertion
	}

	endpoint := p.config.TokenInfoURL + "?" + url.Values{
		"id_token": {assertion.IDToken},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, goerrors.Wrap(err, social.ErrUserInfoFailed.Category, social.ErrUserInfoFailed.Message).
			WithTextCode(social.ErrUserInfoFailed.TextCode)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerrors.Wrap(err, social.ErrUserInfoFailed.Category, social.ErrUserInfoFailed.Message).
			WithTextCode(social.ErrUserInfoFailed.TextCode)
	}

	var info tokenInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, goerrors.Wrap(err, social.ErrUserInfoFailed.Category, "failed to decode tokeninfo response").
			WithTextCode(social.ErrUserInfoFailed.TextCode)
	}

	if resp.StatusCode != http.StatusOK || info.Error != "" {
		return nil, social.ErrBadAssertion.Clone().
			WithMetadata(map[string]any{
				"status":      resp.StatusCode,
				"error":       info.Error,
				"description": info.ErrorDesc,
			})
	}

	if p.config.ClientID != "" && info.Aud != p.config.ClientID {
		return nil, social.ErrBadAssertion
	}

	return &social.Profile{
		Provider:       p.Name(),
		ProviderUserID: info.Sub,
		Email:          info.Email,
		EmailVerified:  info.EmailVerified == "true",
		Name:           info.Name,
		AvatarURL:      info.Picture,
	}, nil
}
