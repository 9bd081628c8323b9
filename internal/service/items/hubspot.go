package items

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/smallbiznis/valora-connect/internal/domain/integration"
)

const hubspotBaseURL = "https://api.hubapi.com"

// crmCollections fixes the fan-out order so result ordering is deterministic.
var crmCollections = []struct {
	path string
	kind string
}{
	{"/crm/v3/objects/contacts", "Contact"},
	{"/crm/v3/objects/companies", "Company"},
	{"/crm/v3/objects/deals", "Deal"},
	{"/crm/v3/objects/tickets", "Ticket"},
}

// HubSpotFetcher fans out over the four CRM object collections with one
// bearer token. Collections are failure-isolated: a rejected collection is
// recorded and skipped, siblings still contribute.
type HubSpotFetcher struct {
	baseURL string
	client  apiClient
	logger  *zap.Logger
}

var _ Fetcher = (*HubSpotFetcher)(nil)

// NewHubSpotFetcher constructs the CRM fetcher. baseURL is overridable for
// tests; empty selects the production API.
func NewHubSpotFetcher(baseURL string, httpClient *http.Client, logger *zap.Logger) *HubSpotFetcher {
	if baseURL == "" {
		baseURL = hubspotBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HubSpotFetcher{
		baseURL: baseURL,
		client:  newAPIClient(integration.ProviderHubSpot, httpClient),
		logger:  logger,
	}
}

func (f *HubSpotFetcher) Provider() integration.Provider { return integration.ProviderHubSpot }

// FetchItems pulls each CRM collection in fixed order with a bounded page
// size and concatenates the normalized results.
func (f *HubSpotFetcher) FetchItems(ctx context.Context, creds *integration.Credentials) ([]integration.Item, error) {
	var (
		items []integration.Item
		errs  []error
	)
	for _, col := range crmCollections {
		data, err := f.client.getJSON(ctx, col.path, f.baseURL+col.path, creds.AccessToken,
			url.Values{"limit": {"100"}}, nil)
		if err != nil {
			f.logger.Warn("crm collection fetch failed",
				zap.String("collection", col.kind),
				zap.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		results, _ := data["results"].([]any)
		for _, raw := range results {
			record, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			items = append(items, f.normalize(record, col.kind))
		}
	}
	return items, errors.Join(errs...)
}

func (f *HubSpotFetcher) normalize(record map[string]any, kind string) integration.Item {
	props := nestedMap(record, "properties")
	rawID := strField(record, "id")

	var name string
	switch kind {
	case "Contact":
		name = strings.TrimSpace(strField(props, "firstname") + " " + strField(props, "lastname"))
		if name == "" {
			name = strField(props, "email")
		}
	case "Company":
		name = strField(props, "name")
	case "Deal":
		name = strField(props, "dealname")
	case "Ticket":
		name = strField(props, "subject")
	}
	if name == "" {
		name = placeholderName(kind, rawID)
	}

	var link *string
	if rawID != "" {
		link = strPtr("https://app.hubspot.com/contacts/" + rawID)
	}

	return integration.Item{
		ID:               itemID(rawID, kind),
		Type:             kind,
		Name:             name,
		CreationTime:     timeField(record, "createdAt"),
		LastModifiedTime: timeField(record, "updatedAt"),
		URL:              link,
	}
}
