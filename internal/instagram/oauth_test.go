package instagram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthURL(t *testing.T) {
	raw := newTestClient("", "", nil).AuthURL("signed.state")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "www.facebook.com", u.Host)
	assert.Equal(t, "/v23.0/dialog/oauth", u.Path)

	q := u.Query()
	assert.Equal(t, "app-1", q.Get("client_id"))
	assert.Equal(t, "https://svc.example.com/api/v1/instagram/callback", q.Get("redirect_uri"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "instagram_basic,instagram_manage_comments,pages_show_list,pages_read_engagement", q.Get("scope"))
	assert.Equal(t, "signed.state", q.Get("state"))
}

func TestExchangeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v23.0/oauth/access_token", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "app-1", q.Get("client_id"))
		assert.Equal(t, "secret-1", q.Get("client_secret"))
		assert.Equal(t, "the-code", q.Get("code"))
		_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":5184000}`))
	}))
	defer srv.Close()

	token, err := newTestClient(srv.URL, srv.URL, nil).ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "tok", token.Token)
	assert.Equal(t, 5184000, token.ExpiresIn)
}

func TestExchangeCode_Defaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("code") == "empty" {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"tok"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL, nil)

	token, err := client.ExchangeCode(context.Background(), "ok")
	require.NoError(t, err)
	assert.Equal(t, 3600, token.ExpiresIn)

	_, err = client.ExchangeCode(context.Background(), "empty")
	assert.Error(t, err)
}

func TestFetchProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me", r.URL.Path)
		assert.Equal(t, "id,username", r.URL.Query().Get("fields"))
		switch r.URL.Query().Get("access_token") {
		case "named":
			_, _ = w.Write([]byte(`{"id":"ig_123","username":"shop_kr"}`))
		case "anonymous":
			_, _ = w.Write([]byte(`{"id":"ig_456"}`))
		default:
			_, _ = w.Write([]byte(`{"username":"ghost"}`))
		}
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL, nil)

	profile, err := client.FetchProfile(context.Background(), "named")
	require.NoError(t, err)
	assert.Equal(t, &Profile{ID: "ig_123", Username: "shop_kr"}, profile)

	profile, err = client.FetchProfile(context.Background(), "anonymous")
	require.NoError(t, err)
	assert.Equal(t, "unknown", profile.Username)

	_, err = client.FetchProfile(context.Background(), "missing-id")
	assert.Error(t, err)
}
