package integration

import "time"

// Provider identifies one of the supported external platforms.
type Provider string

const (
	ProviderHubSpot  Provider = "hubspot"
	ProviderNotion   Provider = "notion"
	ProviderAirtable Provider = "airtable"
)

// Valid reports whether p names a known provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderHubSpot, ProviderNotion, ProviderAirtable:
		return true
	}
	return false
}

// AuthState captures one authorization attempt: the CSRF secret bound to a
// user/org pair plus the PKCE verifier when the provider requires one. It is
// persisted with a TTL and consumed exactly once during callback handling.
type AuthState struct {
	Secret       string    `json:"state"`
	UserID       string    `json:"user_id"`
	OrgID        string    `json:"org_id"`
	CodeVerifier string    `json:"code_verifier,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Credentials models the token payload issued by a provider token endpoint.
// Raw keeps the full upstream response since providers attach extra fields
// (Notion workspace metadata, HubSpot hub id) callers may need verbatim.
type Credentials struct {
	AccessToken  string         `json:"access_token"`
	TokenType    string         `json:"token_type"`
	RefreshToken string         `json:"refresh_token,omitempty"`
	ExpiresIn    int64          `json:"expires_in,omitempty"`
	Scope        string         `json:"scope,omitempty"`
	Raw          map[string]any `json:"raw,omitempty"`
}

// Item is the canonical record shape every provider payload normalizes to.
// Optional fields are pointers so absent values serialize as explicit nulls.
type Item struct {
	ID               string     `json:"id"`
	Type             string     `json:"type"`
	Name             string     `json:"name"`
	ParentID         *string    `json:"parent_id"`
	ParentName       *string    `json:"parent_display_name"`
	CreationTime     *time.Time `json:"creation_time"`
	LastModifiedTime *time.Time `json:"last_modified_time"`
	URL              *string    `json:"url"`
}
