package facebook

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

const defaultGraphURL = "https://graph.facebook.com/v2.9"

// Config holds Facebook Graph API configuration.
type Config struct {
	GraphURL string

	HTTPClient *http.Client
}

// Provider implements social.Provider for Facebook access tokens.
type Provider struct {
	config     Config
	httpClient *http.Client
}

// New creates a new Facebook provider.
func New(cfg Config) *Provider {
	if cfg.GraphURL == "" {
		cfg.GraphURL = defaultGraphURL
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
	return "facebook"
}

type graphResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Verify fetches the profile for the given user id using the client
// supplied access token. The graph call only succeeds when the token
// belongs to that user, which is the whole verification.
func (p *Provider) Verify(ctx context.Context, assertion social.Assertion) (*social.Profile, error) {
	if assertion.AccessToken == "" || assertion.UserID == "" {
		return nil, social.ErrBadAssertion
	}

	endpoint := p.config.GraphURL + "/" + url.PathEscape(assertion.UserID) + "?" + url.Values{
		"fields":       {"id,name,email,picture"},
		"access_token": {assertion.AccessToken},
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

	var profile graphResponse
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, goerrors.Wrap(err, social.ErrUserInfoFailed.Category, "failed to decode graph response").
			WithTextCode(social.ErrUserInfoFailed.TextCode)
	}

	if resp.StatusCode != http.StatusOK || profile.Error != nil {
		meta := map[string]any{"status": resp.StatusCode}
		if profile.Error != nil {
			meta["error"] = profile.Error.Message
			meta["type"] = profile.Error.Type
			meta["code"] = profile.Error.Code
		}
		return nil, social.ErrBadAssertion.Clone().WithMetadata(meta)
	}

	if profile.Email == "" {
		return nil, social.ErrUserInfoFailed
	}

	return &social.Profile{
		Provider:       p.Name(),
		ProviderUserID: profile.ID,
		// Facebook only returns the email when the account verified it.
		Email:         profile.Email,
		EmailVerified: true,
		Name:          profile.Name,
		AvatarURL:     profile.Picture.Data.URL,
	}, nil
}
