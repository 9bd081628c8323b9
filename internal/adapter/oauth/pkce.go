package oauth

import (
	"context"
	"net/http"
	"net/url"

	"github.com/smallbiznis/valora-connect/internal/config"
	"github.com/smallbiznis/valora-connect/internal/domain/integration"
)

// PKCEAdapter implements the PKCE-hardened variant: the authorization URL
// carries a S256 code challenge and the token exchange replays the original
// verifier, still under Basic client authentication. The provider recomputes
// the challenge from the verifier and rejects the exchange on mismatch, so an
// intercepted code alone is useless. Airtable uses this shape.
type PKCEAdapter struct {
	provider  integration.Provider
	cfg       config.ProviderConfig
	endpoints Endpoints
	client    tokenClient
}

var _ Adapter = (*PKCEAdapter)(nil)

// NewPKCEAdapter constructs the PKCE variant for one provider.
func NewPKCEAdapter(provider integration.Provider, cfg config.ProviderConfig, endpoints Endpoints, httpClient *http.Client) *PKCEAdapter {
	return &PKCEAdapter{
		provider:  provider,
		cfg:       cfg,
		endpoints: endpoints,
		client:    newTokenClient(httpClient),
	}
}

func (a *PKCEAdapter) Provider() integration.Provider { return a.provider }

func (a *PKCEAdapter) RequiresPKCE() bool { return true }

// AuthorizeURL appends the code challenge and challenge method.
func (a *PKCEAdapter) AuthorizeURL(state, challenge string) (string, error) {
	extra := map[string]string{
		"code_challenge":        challenge,
		"code_challenge_method": "S256",
	}
	return buildAuthorizeURL(a.endpoints, a.cfg, state, extra)
}

// Exchange replays the verifier alongside the form-encoded code.
func (a *PKCEAdapter) Exchange(ctx context.Context, code, verifier string) (*integration.Credentials, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", a.cfg.RedirectURI)
	data.Set("client_id", a.cfg.ClientID)
	data.Set("code_verifier", verifier)
	return a.client.postForm(ctx, a.provider, a.endpoints.TokenURL, data, a.cfg.ClientID, a.cfg.ClientSecret)
}
