package items

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/smallbiznis/valora-connect/internal/domain/integration"
)

const (
	notionBaseURL    = "https://api.notion.com"
	notionAPIVersion = "2022-06-28"
)

// NotionFetcher pulls every page and database visible to the integration via
// the search endpoint, following the cursor until exhaustion. Parent linkage
// comes from each record's explicit parent field; a workspace parent is the
// top-level sentinel and maps to a null parent.
type NotionFetcher struct {
	baseURL string
	client  apiClient
	logger  *zap.Logger
}

var _ Fetcher = (*NotionFetcher)(nil)

// NewNotionFetcher constructs the workspace fetcher. baseURL is overridable
// for tests; empty selects the production API.
func NewNotionFetcher(baseURL string, httpClient *http.Client, logger *zap.Logger) *NotionFetcher {
	if baseURL == "" {
		baseURL = notionBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotionFetcher{
		baseURL: baseURL,
		client:  newAPIClient(integration.ProviderNotion, httpClient),
		logger:  logger,
	}
}

func (f *NotionFetcher) Provider() integration.Provider { return integration.ProviderNotion }

// FetchItems paginates the search endpoint with an explicit cursor loop. A
// mid-pagination failure keeps the pages gathered so far.
func (f *NotionFetcher) FetchItems(ctx context.Context, creds *integration.Credentials) ([]integration.Item, error) {
	headers := map[string]string{"Notion-Version": notionAPIVersion}

	var items []integration.Item
	cursor := ""
	for {
		body := map[string]any{"page_size": 100}
		if cursor != "" {
			body["start_cursor"] = cursor
		}
		data, err := f.client.postJSON(ctx, "search", f.baseURL+"/v1/search", creds.AccessToken, body, headers)
		if err != nil {
			return items, err
		}

		results, _ := data["results"].([]any)
		for _, raw := range results {
			record, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			items = append(items, f.normalize(record))
		}

		hasMore, _ := data["has_more"].(bool)
		cursor = strField(data, "next_cursor")
		if !hasMore || cursor == "" {
			return items, nil
		}
	}
}

func (f *NotionFetcher) normalize(record map[string]any) integration.Item {
	kind := strField(record, "object")
	if kind == "" {
		kind = "page"
	}
	rawID := strField(record, "id")
	parentID, parentName := notionParent(record)

	return integration.Item{
		ID:               itemID(rawID, kind),
		Type:             kind,
		Name:             notionName(record, kind, rawID),
		ParentID:         parentID,
		ParentName:       parentName,
		CreationTime:     timeField(record, "created_time"),
		LastModifiedTime: timeField(record, "last_edited_time"),
		URL:              strPtr(strField(record, "url")),
	}
}

// notionName tries the well-known title locations first, then falls back to
// a recursive search for a generic content field, and finally synthesizes a
// placeholder. Records are never dropped for lack of a name.
func notionName(record map[string]any, kind, rawID string) string {
	if title, ok := record["title"]; ok {
		if name, ok := SearchString(title, "plain_text"); ok {
			return name
		}
	}
	if props := nestedMap(record, "properties"); props != nil {
		if name, ok := SearchString(props, "plain_text"); ok {
			return name
		}
	}
	if name, ok := SearchString(record, "content"); ok {
		return name
	}
	return placeholderName(kind, rawID)
}

// notionParent resolves the explicit parent field. The workspace parent type
// is the top-level container sentinel and yields a null parent. Only page and
// database parents are mapped: those are the kinds the search fetch returns,
// so the resulting parent_id always references an item in the result set.
func notionParent(record map[string]any) (*string, *string) {
	parent := nestedMap(record, "parent")
	parentType := strField(parent, "type")

	var parentKind string
	switch parentType {
	case "page_id":
		parentKind = "page"
	case "database_id":
		parentKind = "database"
	default:
		return nil, nil
	}

	parentID := strField(parent, parentType)
	if parentID == "" {
		return nil, nil
	}
	return strPtr(itemID(parentID, parentKind)), nil
}
