package google

import (
	"context"
	"fmt"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// Profile is the subset of the Google account we keep.
type Profile struct {
	Sub       string
	Email     string
	Name      string
	AvatarURL string
}

type OAuthInterface interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Profile, error)
}

type OAuthClient struct {
	config *oauth2.Config
}

func NewOAuthClient(clientID, clientSecret, redirectURL string) *OAuthClient {
	return &OAuthClient{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				oauth2api.UserinfoEmailScope,
				oauth2api.UserinfoProfileScope,
				"openid",
			},
			Endpoint: googleoauth.Endpoint,
		},
	}
}

func (o *OAuthClient) AuthCodeURL(state string) string {
	return o.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for a token and fetches the
// user's profile with it.
func (o *OAuthClient) Exchange(ctx context.Context, code string) (*Profile, error) {
	token, err := o.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	srv, err := oauth2api.NewService(ctx, option.WithHTTPClient(o.config.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth2 service: %w", err)
	}

	info, err := srv.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	if info.Id == "" || info.Email == "" {
		return nil, fmt.Errorf("google userinfo is missing id or email")
	}

	return &Profile{
		Sub:       info.Id,
		Email:     info.Email,
		Name:      info.Name,
		AvatarURL: info.Picture,
	}, nil
}
