package social

import "context"

// Assertion is the credential a client obtained from the provider's own
// SDK. Which fields are set depends on the provider: Google sends an ID
// token, Facebook an access token plus the graph user id.
type Assertion struct {
	IDToken     string `form:"tokenId" json:"tokenId"`
	AccessToken string `form:"accessToken" json:"accessToken"`
	UserID      string `form:"userID" json:"userID"`
}

// Profile is the normalized identity a provider vouches for.
type Profile struct {
	ProviderUserID string
	Provider       string
	Email          string
	EmailVerified  bool
	Name           string
	AvatarURL      string
	Raw            map[string]any
}

// Provider verifies a client supplied assertion against the identity
// provider and returns the profile it vouches for.
type Provider interface {
	// Name returns the provider identifier (e.g., "google", "facebook").
	Name() string

	// Verify checks the assertion with the provider and returns the
	// normalized profile.
	Verify(ctx context.Context, assertion Assertion) (*Profile, error)
}
