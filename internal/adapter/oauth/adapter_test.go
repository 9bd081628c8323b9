package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smallbiznis/valora-connect/internal/config"
	"github.com/smallbiznis/valora-connect/internal/domain/integration"
)

func testProviderConfig() config.ProviderConfig {
	return config.ProviderConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:8000/integrations/test/oauth2callback",
		Scopes:       []string{"read", "write"},
	}
}

func TestSimpleAdapter_AuthorizeURL(t *testing.T) {
	a := NewSimpleAdapter(integration.ProviderHubSpot, testProviderConfig(), HubSpotEndpoints, nil)

	raw, err := a.AuthorizeURL("opaque-state", "")
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	q := parsed.Query()
	require.Equal(t, "client-id", q.Get("client_id"))
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, "opaque-state", q.Get("state"))
	require.Equal(t, "read write", q.Get("scope"))
	require.Empty(t, q.Get("code_challenge"))
}

func TestPKCEAdapter_AuthorizeURL(t *testing.T) {
	a := NewPKCEAdapter(integration.ProviderAirtable, testProviderConfig(), AirtableEndpoints, nil)

	raw, err := a.AuthorizeURL("opaque-state", "the-challenge")
	require.NoError(t, err)

	q, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "the-challenge", q.Query().Get("code_challenge"))
	require.Equal(t, "S256", q.Query().Get("code_challenge_method"))
}

func TestSimpleAdapter_Exchange(t *testing.T) {
	var captured map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _, hasBasic := r.BasicAuth()
		require.False(t, hasBasic)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-123",
			"token_type":   "bearer",
			"expires_in":   1800,
		})
	}))
	defer srv.Close()

	a := NewSimpleAdapter(integration.ProviderHubSpot, testProviderConfig(), Endpoints{TokenURL: srv.URL}, srv.Client())
	creds, err := a.Exchange(context.Background(), "auth-code", "")
	require.NoError(t, err)
	require.Equal(t, "tok-123", creds.AccessToken)
	require.Equal(t, int64(1800), creds.ExpiresIn)
	require.Equal(t, "authorization_code", captured["grant_type"])
	require.Equal(t, "auth-code", captured["code"])
	require.Equal(t, "client-secret", captured["client_secret"])
}

func TestBasicSecretAdapter_Exchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "client-id", user)
		require.Equal(t, "client-secret", pass)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		require.Equal(t, "auth-code", r.PostForm.Get("code"))
		require.Empty(t, r.PostForm.Get("client_secret"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "notion-tok",
			"token_type":   "bearer",
			"workspace_id": "ws-1",
		})
	}))
	defer srv.Close()

	a := NewBasicSecretAdapter(integration.ProviderNotion, testProviderConfig(), Endpoints{TokenURL: srv.URL}, srv.Client())
	creds, err := a.Exchange(context.Background(), "auth-code", "")
	require.NoError(t, err)
	require.Equal(t, "notion-tok", creds.AccessToken)
	require.Equal(t, "ws-1", creds.Raw["workspace_id"])
}

func TestPKCEAdapter_Exchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, ok := r.BasicAuth()
		require.True(t, ok)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "the-verifier", r.PostForm.Get("code_verifier"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "air-tok",
			"refresh_token": "air-refresh",
			"token_type":    "bearer",
		})
	}))
	defer srv.Close()

	a := NewPKCEAdapter(integration.ProviderAirtable, testProviderConfig(), Endpoints{TokenURL: srv.URL}, srv.Client())
	creds, err := a.Exchange(context.Background(), "auth-code", "the-verifier")
	require.NoError(t, err)
	require.Equal(t, "air-tok", creds.AccessToken)
	require.Equal(t, "air-refresh", creds.RefreshToken)
}

func TestExchange_UpstreamRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","client_secret":"leaked?"}`))
	}))
	defer srv.Close()

	a := NewBasicSecretAdapter(integration.ProviderNotion, testProviderConfig(), Endpoints{TokenURL: srv.URL}, srv.Client())
	_, err := a.Exchange(context.Background(), "bad-code", "")
	require.Error(t, err)

	var exchErr *integration.ExchangeError
	require.ErrorAs(t, err, &exchErr)
	require.Equal(t, http.StatusBadRequest, exchErr.Status)
	require.NotContains(t, exchErr.Error(), "leaked")
}

func TestExchange_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	a := NewSimpleAdapter(integration.ProviderHubSpot, testProviderConfig(), Endpoints{TokenURL: srv.URL}, srv.Client())
	_, err := a.Exchange(context.Background(), "code", "")
	require.Error(t, err)
}
