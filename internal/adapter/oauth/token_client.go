package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/valora-connect/internal/domain/integration"
)

// tokenClient performs the outbound HTTP calls shared by all adapter
// variants. Exchange failures surface as *integration.ExchangeError with the
// upstream status preserved; bodies are never echoed back.
type tokenClient struct {
	httpClient *http.Client
}

func newTokenClient(client *http.Client) tokenClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return tokenClient{httpClient: client}
}

func (c tokenClient) postForm(ctx context.Context, provider integration.Provider, tokenURL string, data url.Values, basicUser, basicPass string) (*integration.Credentials, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if basicUser != "" {
		req.SetBasicAuth(basicUser, basicPass)
	}
	return c.do(req, provider)
}

func (c tokenClient) postJSON(ctx context.Context, provider integration.Provider, tokenURL string, payload map[string]string) (*integration.Credentials, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal token request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, provider)
}

func (c tokenClient) do(req *http.Request, provider integration.Provider) (*integration.Credentials, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, &integration.ExchangeError{Provider: provider, Status: resp.StatusCode}
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}

	creds := &integration.Credentials{
		AccessToken:  stringValue(raw["access_token"]),
		RefreshToken: stringValue(raw["refresh_token"]),
		TokenType:    stringValue(raw["token_type"]),
		Scope:        stringValue(raw["scope"]),
		Raw:          raw,
	}
	if exp := raw["expires_in"]; exp != nil {
		creds.ExpiresIn = int64Value(exp)
	}
	if creds.AccessToken == "" {
		return nil, &integration.ExchangeError{Provider: provider, Status: resp.StatusCode}
	}
	return creds, nil
}

func stringValue(input any) string {
	switch v := input.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func int64Value(input any) int64 {
	switch v := input.(type) {
	case float64:
		return int64(v)
	case float32:
		return int64(v)
	case int64:
		return v
	case int32:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
