package items

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smallbiznis/valora-connect/internal/domain/integration"
)

func TestAirtableFetcher_HierarchyWithPagination(t *testing.T) {
	var basePages atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer air-token", r.Header.Get("Authorization"))

		switch r.URL.Path {
		case "/v0/meta/bases":
			// Three pages: two carry a next offset, the third terminates.
			switch r.URL.Query().Get("offset") {
			case "":
				basePages.Add(1)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"bases":  []any{map[string]any{"id": "appA", "name": "Base A"}},
					"offset": "page2",
				})
			case "page2":
				basePages.Add(1)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"bases":  []any{map[string]any{"id": "appB", "name": "Base B"}},
					"offset": "page3",
				})
			case "page3":
				basePages.Add(1)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"bases": []any{map[string]any{"id": "appC", "name": "Base C"}},
				})
			default:
				w.WriteHeader(http.StatusBadRequest)
			}
		case "/v0/meta/bases/appA/tables":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"tables": []any{
					map[string]any{"id": "tbl1", "name": "Tasks"},
					map[string]any{"id": "tbl2", "name": "Notes"},
				},
			})
		case "/v0/meta/bases/appB/tables", "/v0/meta/bases/appC/tables":
			_ = json.NewEncoder(w).Encode(map[string]any{"tables": []any{}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	f := NewAirtableFetcher(srv.URL, srv.Client(), zap.NewNop())
	items, err := f.FetchItems(context.Background(), &integration.Credentials{AccessToken: "air-token"})
	require.NoError(t, err)
	require.Equal(t, int32(3), basePages.Load())

	// 3 bases + 2 tables, no duplicates, no loss.
	require.Len(t, items, 5)
	require.Equal(t, "appA_Base", items[0].ID)
	require.Equal(t, "Base", items[0].Type)
	require.Nil(t, items[0].ParentID)

	require.Equal(t, "tbl1_Table", items[1].ID)
	require.Equal(t, "Table", items[1].Type)
	require.NotNil(t, items[1].ParentID)
	require.Equal(t, "appA_Base", *items[1].ParentID)
	require.NotNil(t, items[1].ParentName)
	require.Equal(t, "Base A", *items[1].ParentName)

	require.Equal(t, "tbl2_Table", items[2].ID)
	require.Equal(t, "appA_Base", *items[2].ParentID)

	require.Equal(t, "appB_Base", items[3].ID)
	require.Equal(t, "appC_Base", items[4].ID)
}

func TestAirtableFetcher_TwoParentsOneWithChildren(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v0/meta/bases":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"bases": []any{
					map[string]any{"id": "appA", "name": "A"},
					map[string]any{"id": "appB", "name": "B"},
				},
			})
		case "/v0/meta/bases/appA/tables":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"tables": []any{
					map[string]any{"id": "t1", "name": "One"},
					map[string]any{"id": "t2", "name": "Two"},
				},
			})
		case "/v0/meta/bases/appB/tables":
			_ = json.NewEncoder(w).Encode(map[string]any{"tables": []any{}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	f := NewAirtableFetcher(srv.URL, srv.Client(), zap.NewNop())
	items, err := f.FetchItems(context.Background(), &integration.Credentials{AccessToken: "tok"})
	require.NoError(t, err)
	require.Len(t, items, 4)

	var children []integration.Item
	for _, item := range items {
		if item.Type == "Table" {
			children = append(children, item)
		}
	}
	require.Len(t, children, 2)
	for _, child := range children {
		require.Equal(t, "appA_Base", *child.ParentID)
	}
}

func TestAirtableFetcher_BranchFailureIsolated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v0/meta/bases":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"bases": []any{
					map[string]any{"id": "appA", "name": "A"},
					map[string]any{"id": "appB", "name": "B"},
				},
			})
		case "/v0/meta/bases/appA/tables":
			w.WriteHeader(http.StatusInternalServerError)
		case "/v0/meta/bases/appB/tables":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"tables": []any{map[string]any{"id": "t9", "name": "Kept"}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	f := NewAirtableFetcher(srv.URL, srv.Client(), zap.NewNop())
	items, err := f.FetchItems(context.Background(), &integration.Credentials{AccessToken: "tok"})

	// appA's branch failed but appB's table survives.
	require.Error(t, err)
	require.Len(t, items, 3)
	require.Equal(t, "t9_Table", items[2].ID)
	require.Equal(t, "appB_Base", *items[2].ParentID)
}
