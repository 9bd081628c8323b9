package handler_test

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cacheadapter "github.com/smallbiznis/valora-connect/internal/adapter/cache"
	oauthadapter "github.com/smallbiznis/valora-connect/internal/adapter/oauth"
	"github.com/smallbiznis/valora-connect/internal/config"
	"github.com/smallbiznis/valora-connect/internal/domain/integration"
	httptransport "github.com/smallbiznis/valora-connect/internal/http"
	"github.com/smallbiznis/valora-connect/internal/http/handler"
	itemssvc "github.com/smallbiznis/valora-connect/internal/service/items"
	oauthsvc "github.com/smallbiznis/valora-connect/internal/service/oauth"
)

func newTestRouter(t *testing.T, tokenURL string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := cacheadapter.NewRedisCredentialStore(client)

	providerCfg := config.ProviderConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:8000/integrations/hubspot/oauth2callback",
		Scopes:       []string{"oauth"},
	}
	adapter := oauthadapter.NewSimpleAdapter(integration.ProviderHubSpot, providerCfg, oauthadapter.Endpoints{
		AuthURL:  "https://app.hubspot.com/oauth/authorize",
		TokenURL: tokenURL,
	}, nil)

	orchestrator := oauthsvc.NewOrchestrator([]oauthadapter.Adapter{adapter}, store, 0, zap.NewNop())
	items := itemssvc.NewService(nil, zap.NewNop())
	h := handler.NewIntegrationHandler(orchestrator, items, zap.NewNop())

	cfg := config.Config{ServiceName: "valora-connect-test"}
	return httptransport.NewRouter(cfg, h, nil)
}

func TestAuthorizationScenario(t *testing.T) {
	tokenEndpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "issued-token",
			"token_type":   "bearer",
		})
	}))
	defer tokenEndpoint.Close()

	router := newTestRouter(t, tokenEndpoint.URL)

	// Begin authorization.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/integrations/hubspot/authorize?user_id=u1&org_id=o1", nil)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var authResp struct {
		AuthorizationURL string `json:"authorization_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &authResp))
	parsed, err := url.Parse(authResp.AuthorizationURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)

	// Provider redirects back with the code.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet,
		"/integrations/hubspot/oauth2callback?code=auth-code&state="+url.QueryEscape(state), nil)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "window.close()")

	// First retrieval returns the token exactly as issued.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/integrations/hubspot/credentials",
		strings.NewReader(`{"user_id":"u1","org_id":"o1"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var creds integration.Credentials
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &creds))
	require.Equal(t, "issued-token", creds.AccessToken)

	// Second retrieval is a NotFound: credentials are one-time.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/integrations/hubspot/credentials",
		strings.NewReader(`{"user_id":"u1","org_id":"o1"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCallbackRejectsTamperedState(t *testing.T) {
	router := newTestRouter(t, "http://unused.invalid")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/integrations/hubspot/authorize?user_id=u1&org_id=o1", nil)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// A state that decodes but matches no stored attempt.
	forged := base64.RawURLEncoding.EncodeToString([]byte(`{"state":"forged","user_id":"u1","org_id":"o1"}`))

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet,
		"/integrations/hubspot/oauth2callback?code=c&state="+url.QueryEscape(forged), nil)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "state_mismatch")
}

func TestUnknownProviderIs404(t *testing.T) {
	router := newTestRouter(t, "http://unused.invalid")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/integrations/jira/authorize?user_id=u1&org_id=o1", nil)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCallbackPropagatesProviderError(t *testing.T) {
	router := newTestRouter(t, "http://unused.invalid")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/integrations/hubspot/oauth2callback?error=access_denied&error_description=denied", nil)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
