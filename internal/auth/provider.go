package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Identity is what an external provider tells us about a logged-in user.
type Identity struct {
	ProviderUserID string
	Email          string
	Name           string
}

// Provider is an external OAuth identity source.
type Provider interface {
	Name() string
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (Identity, error)
}

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleProvider implements Provider on Google's OAuth endpoints.
type GoogleProvider struct {
	cfg *oauth2.Config
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

func (g *GoogleProvider) Name() string { return "google" }

func (g *GoogleProvider) AuthURL(state string) string {
	return g.cfg.AuthCodeURL(state)
}

// Exchange trades the authorization code for a token and fetches the user's
// profile with it.
func (g *GoogleProvider) Exchange(ctx context.Context, code string) (Identity, error) {
	token, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("token exchange failed: %w", err)
	}

	resp, err := g.cfg.Client(ctx, token).Get(googleUserInfoURL)
	if err != nil {
		return Identity{}, fmt.Errorf("fetching user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return Identity{}, fmt.Errorf("fetching user info: status %d", resp.StatusCode)
	}

	var info struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Identity{}, fmt.Errorf("decoding user info: %w", err)
	}
	if info.ID == "" {
		return Identity{}, fmt.Errorf("user info missing id")
	}

	return Identity{ProviderUserID: info.ID, Email: info.Email, Name: info.Name}, nil
}
