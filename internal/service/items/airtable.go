package items

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/smallbiznis/valora-connect/internal/domain/integration"
)

const airtableBaseURL = "https://api.airtable.com"

// AirtableFetcher walks the two-level base -> table hierarchy. The base list
// is paginated with an offset cursor; table fetches run concurrently across
// distinct bases and are failure-isolated from one another.
type AirtableFetcher struct {
	baseURL string
	client  apiClient
	logger  *zap.Logger
}

var _ Fetcher = (*AirtableFetcher)(nil)

// NewAirtableFetcher constructs the hierarchical fetcher. baseURL is
// overridable for tests; empty selects the production API.
func NewAirtableFetcher(baseURL string, httpClient *http.Client, logger *zap.Logger) *AirtableFetcher {
	if baseURL == "" {
		baseURL = airtableBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AirtableFetcher{
		baseURL: baseURL,
		client:  newAPIClient(integration.ProviderAirtable, httpClient),
		logger:  logger,
	}
}

func (f *AirtableFetcher) Provider() integration.Provider { return integration.ProviderAirtable }

// FetchItems lists all bases, then fetches each base's tables and tags them
// with the parent base's canonical id and display name. Parents always
// precede their children in the result.
func (f *AirtableFetcher) FetchItems(ctx context.Context, creds *integration.Credentials) ([]integration.Item, error) {
	bases, listErr := f.listBases(ctx, creds.AccessToken)

	tables := make([][]integration.Item, len(bases))
	branchErrs := make([]error, len(bases))

	var g errgroup.Group
	for i, base := range bases {
		g.Go(func() error {
			children, err := f.listTables(ctx, creds.AccessToken, base)
			tables[i] = children
			branchErrs[i] = err
			return nil
		})
	}
	_ = g.Wait()

	var items []integration.Item
	for i, base := range bases {
		items = append(items, f.normalizeBase(base))
		items = append(items, tables[i]...)
	}

	errs := append([]error{listErr}, branchErrs...)
	return items, errors.Join(errs...)
}

// listBases follows the offset cursor until the response no longer carries
// one. A mid-pagination failure keeps the pages gathered so far.
func (f *AirtableFetcher) listBases(ctx context.Context, token string) ([]map[string]any, error) {
	var bases []map[string]any
	offset := ""
	for {
		query := url.Values{}
		if offset != "" {
			query.Set("offset", offset)
		}
		data, err := f.client.getJSON(ctx, "bases", f.baseURL+"/v0/meta/bases", token, query, nil)
		if err != nil {
			return bases, err
		}
		page, _ := data["bases"].([]any)
		for _, raw := range page {
			if base, ok := raw.(map[string]any); ok {
				bases = append(bases, base)
			}
		}
		offset = strField(data, "offset")
		if offset == "" {
			return bases, nil
		}
	}
}

func (f *AirtableFetcher) listTables(ctx context.Context, token string, base map[string]any) ([]integration.Item, error) {
	baseID := strField(base, "id")
	baseName := strField(base, "name")
	resource := fmt.Sprintf("bases/%s/tables", baseID)

	data, err := f.client.getJSON(ctx, resource,
		fmt.Sprintf("%s/v0/meta/bases/%s/tables", f.baseURL, baseID), token, nil, nil)
	if err != nil {
		f.logger.Warn("table fetch failed",
			zap.String("base_id", baseID),
			zap.Error(err),
		)
		return nil, err
	}

	raw, _ := data["tables"].([]any)
	var children []integration.Item
	for _, entry := range raw {
		table, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		children = append(children, f.normalizeTable(table, baseID, baseName))
	}
	return children, nil
}

func (f *AirtableFetcher) normalizeBase(base map[string]any) integration.Item {
	rawID := strField(base, "id")
	name := strField(base, "name")
	if name == "" {
		name = placeholderName("Base", rawID)
	}
	var link *string
	if rawID != "" {
		link = strPtr("https://airtable.com/" + rawID)
	}
	return integration.Item{
		ID:   itemID(rawID, "Base"),
		Type: "Base",
		Name: name,
		URL:  link,
	}
}

func (f *AirtableFetcher) normalizeTable(table map[string]any, baseID, baseName string) integration.Item {
	rawID := strField(table, "id")
	name := strField(table, "name")
	if name == "" {
		name = placeholderName("Table", rawID)
	}
	var link *string
	if baseID != "" && rawID != "" {
		link = strPtr(fmt.Sprintf("https://airtable.com/%s/%s", baseID, rawID))
	}
	return integration.Item{
		ID:         itemID(rawID, "Table"),
		Type:       "Table",
		Name:       name,
		ParentID:   strPtr(itemID(baseID, "Base")),
		ParentName: strPtr(baseName),
		URL:        link,
	}
}
