package oauth

import (
	"context"
	"net/http"

	"github.com/smallbiznis/valora-connect/internal/config"
	"github.com/smallbiznis/valora-connect/internal/domain/integration"
)

// SimpleAdapter implements the plain-secret exchange variant: the token
// request is a JSON body carrying the client credentials, with no client
// Authorization header. HubSpot uses this shape.
type SimpleAdapter struct {
	provider  integration.Provider
	cfg       config.ProviderConfig
	endpoints Endpoints
	client    tokenClient
}

var _ Adapter = (*SimpleAdapter)(nil)

// NewSimpleAdapter constructs the plain-secret variant for one provider.
func NewSimpleAdapter(provider integration.Provider, cfg config.ProviderConfig, endpoints Endpoints, httpClient *http.Client) *SimpleAdapter {
	return &SimpleAdapter{
		provider:  provider,
		cfg:       cfg,
		endpoints: endpoints,
		client:    newTokenClient(httpClient),
	}
}

func (a *SimpleAdapter) Provider() integration.Provider { return a.provider }

func (a *SimpleAdapter) RequiresPKCE() bool { return false }

// AuthorizeURL builds the authorization endpoint URL with the opaque state.
func (a *SimpleAdapter) AuthorizeURL(state, _ string) (string, error) {
	return buildAuthorizeURL(a.endpoints, a.cfg, state, nil)
}

// Exchange posts the code with client id and secret in the JSON body.
func (a *SimpleAdapter) Exchange(ctx context.Context, code, _ string) (*integration.Credentials, error) {
	payload := map[string]string{
		"grant_type":    "authorization_code",
		"code":          code,
		"redirect_uri":  a.cfg.RedirectURI,
		"client_id":     a.cfg.ClientID,
		"client_secret": a.cfg.ClientSecret,
	}
	return a.client.postJSON(ctx, a.provider, a.endpoints.TokenURL, payload)
}
