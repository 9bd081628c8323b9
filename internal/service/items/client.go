package items

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/smallbiznis/valora-connect/internal/domain/integration"
)

// apiClient performs authorized JSON calls against a provider API. Failures
// come back as *integration.FetchError tagged with the requested resource so
// callers can isolate the failed branch.
type apiClient struct {
	provider   integration.Provider
	httpClient *http.Client
}

func newAPIClient(provider integration.Provider, client *http.Client) apiClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return apiClient{provider: provider, httpClient: client}
}

func (c apiClient) getJSON(ctx context.Context, resource, rawURL, token string, query url.Values, headers map[string]string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &integration.FetchError{Provider: c.provider, Resource: resource, Err: err}
	}
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}
	return c.do(req, resource, token, headers)
}

func (c apiClient) postJSON(ctx context.Context, resource, rawURL, token string, body any, headers map[string]string) (map[string]any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &integration.FetchError{Provider: c.provider, Resource: resource, Err: fmt.Errorf("marshal request: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
	if err != nil {
		return nil, &integration.FetchError{Provider: c.provider, Resource: resource, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, resource, token, headers)
}

func (c apiClient) do(req *http.Request, resource, token string, headers map[string]string) (map[string]any, error) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &integration.FetchError{Provider: c.provider, Resource: resource, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, &integration.FetchError{Provider: c.provider, Resource: resource, Err: err}
	}
	if resp.StatusCode >= 300 {
		return nil, &integration.FetchError{Provider: c.provider, Resource: resource, Status: resp.StatusCode}
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &integration.FetchError{Provider: c.provider, Resource: resource, Err: fmt.Errorf("decode response: %w", err)}
	}
	return data, nil
}
