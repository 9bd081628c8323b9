package oauth

import (
	"context"
	"net/http"
	"net/url"

	"github.com/smallbiznis/valora-connect/internal/config"
	"github.com/smallbiznis/valora-connect/internal/domain/integration"
)

// BasicSecretAdapter implements the Basic-auth client-secret variant: a
// form-encoded token request authenticated with an
// Authorization: Basic base64(client_id:client_secret) header. Notion uses
// this shape.
type BasicSecretAdapter struct {
	provider  integration.Provider
	cfg       config.ProviderConfig
	endpoints Endpoints
	client    tokenClient
}

var _ Adapter = (*BasicSecretAdapter)(nil)

// NewBasicSecretAdapter constructs the Basic-auth variant for one provider.
func NewBasicSecretAdapter(provider integration.Provider, cfg config.ProviderConfig, endpoints Endpoints, httpClient *http.Client) *BasicSecretAdapter {
	return &BasicSecretAdapter{
		provider:  provider,
		cfg:       cfg,
		endpoints: endpoints,
		client:    newTokenClient(httpClient),
	}
}

func (a *BasicSecretAdapter) Provider() integration.Provider { return a.provider }

func (a *BasicSecretAdapter) RequiresPKCE() bool { return false }

// AuthorizeURL builds the authorization endpoint URL with the opaque state.
func (a *BasicSecretAdapter) AuthorizeURL(state, _ string) (string, error) {
	return buildAuthorizeURL(a.endpoints, a.cfg, state, nil)
}

// Exchange posts the form-encoded code under Basic client authentication.
func (a *BasicSecretAdapter) Exchange(ctx context.Context, code, _ string) (*integration.Credentials, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", a.cfg.RedirectURI)
	data.Set("client_id", a.cfg.ClientID)
	return a.client.postForm(ctx, a.provider, a.endpoints.TokenURL, data, a.cfg.ClientID, a.cfg.ClientSecret)
}
