package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const (
	oauthScope            = "instagram_basic,instagram_manage_comments,pages_show_list,pages_read_engagement"
	defaultTokenExpiresIn = 3600
)

// AccessToken is the result of exchanging an OAuth code
type AccessToken struct {
	Token     string
	ExpiresIn int
}

// Profile is the Instagram identity behind an access token
type Profile struct {
	ID       string
	Username string
}

// AuthURL builds the Meta OAuth dialog URL carrying state
func (c *Client) AuthURL(state string) string {
	params := url.Values{}
	params.Set("client_id", c.cfg.AppID)
	params.Set("redirect_uri", c.cfg.RedirectURI)
	params.Set("response_type", "code")
	params.Set("scope", oauthScope)
	params.Set("state", state)

	return fmt.Sprintf("%s/%s/dialog/oauth?%s", c.cfg.DialogHost, c.cfg.GraphVersion, params.Encode())
}

// ExchangeCode trades an authorization code for an access token
func (c *Client) ExchangeCode(ctx context.Context, code string) (*AccessToken, error) {
	params := url.Values{}
	params.Set("client_id", c.cfg.AppID)
	params.Set("client_secret", c.cfg.AppSecret)
	params.Set("redirect_uri", c.cfg.RedirectURI)
	params.Set("code", code)

	endpoint := fmt.Sprintf("%s/%s/oauth/access_token?%s", c.cfg.FacebookHost, c.cfg.GraphVersion, params.Encode())

	// Codes are single use, so the exchange is not retried.
	_, body, err := c.send(ctx, "exchange code", func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	}, 0)
	if err != nil {
		return nil, err
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   *int   `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &GraphError{Op: "exchange code", Message: "failed to parse response"}
	}
	if payload.AccessToken == "" {
		return nil, &GraphError{Op: "exchange code", Message: "no access token returned"}
	}

	token := &AccessToken{Token: payload.AccessToken, ExpiresIn: defaultTokenExpiresIn}
	if payload.ExpiresIn != nil {
		token.ExpiresIn = *payload.ExpiresIn
	}

	return token, nil
}

// FetchProfile loads the id and username behind accessToken
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	params := url.Values{}
	params.Set("fields", "id,username")
	params.Set("access_token", accessToken)

	_, body, err := c.get(ctx, "fetch profile", fmt.Sprintf("%s/me?%s", c.cfg.InstagramHost, params.Encode()))
	if err != nil {
		return nil, err
	}

	var payload struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &GraphError{Op: "fetch profile", Message: "failed to parse response"}
	}
	if payload.ID == "" {
		return nil, &GraphError{Op: "fetch profile", Message: "profile missing id"}
	}

	profile := &Profile{ID: payload.ID, Username: payload.Username}
	if profile.Username == "" {
		profile.Username = "unknown"
	}

	return profile, nil
}
