package oauth

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/smallbiznis/valora-connect/internal/config"
	"github.com/smallbiznis/valora-connect/internal/domain/integration"
)

// Endpoints names one provider's authorization and token URLs.
type Endpoints struct {
	AuthURL  string
	TokenURL string
}

// Adapter encapsulates the authorization-URL construction and token-exchange
// protocol differences per external platform. Adding a provider variant means
// adding an implementation, not branching in shared logic.
type Adapter interface {
	Provider() integration.Provider
	// AuthorizeURL builds the external authorization URL carrying the opaque
	// state parameter. challenge is the PKCE code challenge and is ignored by
	// non-PKCE variants.
	AuthorizeURL(state, challenge string) (string, error)
	// Exchange swaps the authorization code for provider credentials.
	// verifier is the PKCE code verifier and is ignored by non-PKCE variants.
	Exchange(ctx context.Context, code, verifier string) (*integration.Credentials, error)
	// RequiresPKCE reports whether the orchestrator must generate a
	// verifier/challenge pair for this provider.
	RequiresPKCE() bool
}

// Default endpoints for the supported platforms.
var (
	HubSpotEndpoints = Endpoints{
		AuthURL:  "https://app.hubspot.com/oauth/authorize",
		TokenURL: "https://api.hubapi.com/oauth/v1/token",
	}
	NotionEndpoints = Endpoints{
		AuthURL:  "https://api.notion.com/v1/oauth/authorize",
		TokenURL: "https://api.notion.com/v1/oauth/token",
	}
	AirtableEndpoints = Endpoints{
		AuthURL:  "https://airtable.com/oauth2/v1/authorize",
		TokenURL: "https://airtable.com/oauth2/v1/token",
	}
)

func buildAuthorizeURL(endpoints Endpoints, cfg config.ProviderConfig, state string, extra map[string]string) (string, error) {
	authURL, err := url.Parse(endpoints.AuthURL)
	if err != nil {
		return "", fmt.Errorf("parse auth url: %w", err)
	}

	params := authURL.Query()
	params.Set("client_id", cfg.ClientID)
	params.Set("response_type", "code")
	params.Set("redirect_uri", cfg.RedirectURI)
	if len(cfg.Scopes) > 0 {
		params.Set("scope", strings.Join(cfg.Scopes, " "))
	}
	params.Set("state", state)
	for k, v := range cfg.Extra {
		if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
			params.Set(k, v)
		}
	}
	for k, v := range extra {
		params.Set(k, v)
	}
	authURL.RawQuery = params.Encode()

	return authURL.String(), nil
}
