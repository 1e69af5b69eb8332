package confluence

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/clintrovert/pmctl/internal/apperr"
	"github.com/clintrovert/pmctl/internal/atlassian"
	"github.com/clintrovert/pmctl/internal/config"
	"github.com/clintrovert/pmctl/pkg/types"
)

func newWiki(t *testing.T, mux *http.ServeMux) (*Service, string, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := atlassian.NewClient(srv.URL+"/wiki", "dev@example.com", "secret", zaptest.NewLogger(t))
	require.NoError(t, err)
	return NewService(client, zaptest.NewLogger(t)), srv.URL + "/wiki", &hits
}

func TestNewRequiresCompleteGroup(t *testing.T) {
	_, err := New(config.ConfluenceConfig{URL: "https://example.atlassian.net/wiki"}, nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConfig, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "CONFLUENCE_USER_EMAIL")
}

func TestNewAddsWikiPathForCloudSites(t *testing.T) {
	svc, err := New(config.ConfluenceConfig{
		URL:      "https://example.atlassian.net",
		Email:    "dev@example.com",
		APIToken: "secret",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "https://example.atlassian.net/wiki", svc.client.BaseURL())
}

func TestWikiBaseURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://example.atlassian.net", "https://example.atlassian.net/wiki"},
		{"https://example.atlassian.net/", "https://example.atlassian.net/wiki"},
		{"https://Example.Atlassian.NET", "https://Example.Atlassian.NET/wiki"},
		{"https://example.atlassian.net/wiki", "https://example.atlassian.net/wiki"},
		{"https://example.atlassian.net/wiki/", "https://example.atlassian.net/wiki/"},
		{"https://wiki.example.com", "https://wiki.example.com"},
		{"https://wiki.example.com/confluence", "https://wiki.example.com/confluence"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, wikiBaseURL(tt.raw))
		})
	}
}

func TestGetPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /wiki/rest/api/content/123", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "body.storage,version,space", r.URL.Query().Get("expand"))
		_, _ = io.WriteString(w, `{"id":"123","type":"page","title":"Runbook",
			"space":{"key":"OPS"},"version":{"number":4},
			"body":{"storage":{"value":"<p>hi</p>","representation":"storage"}},
			"_links":{"webui":"/spaces/OPS/pages/123/Runbook"}}`)
	})
	svc, base, _ := newWiki(t, mux)

	page, err := svc.GetPage(t.Context(), "123")
	require.NoError(t, err)
	assert.Equal(t, &types.Page{
		ID:       "123",
		Title:    "Runbook",
		SpaceKey: "OPS",
		Version:  4,
		Body:     "<p>hi</p>",
		URL:      base + "/spaces/OPS/pages/123/Runbook",
	}, page)
}

func TestCreatePageUnderParent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /wiki/rest/api/content", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "page", req["type"])
		assert.Equal(t, "Design", req["title"])
		assert.Equal(t, map[string]any{"key": "ENG"}, req["space"])
		assert.Equal(t, []any{map[string]any{"id": "77"}}, req["ancestors"])
		assert.Equal(t, map[string]any{"storage": map[string]any{"value": "<p>x</p>", "representation": "storage"}}, req["body"])
		_, _ = io.WriteString(w, `{"id":"200","type":"page","title":"Design","version":{"number":1}}`)
	})
	svc, _, _ := newWiki(t, mux)

	page, err := svc.CreatePage(t.Context(), types.PageInput{SpaceKey: "ENG", Title: "Design", Body: "<p>x</p>", ParentID: "77"})
	require.NoError(t, err)
	assert.Equal(t, "200", page.ID)
	assert.Equal(t, 1, page.Version)
}

func TestUpdatePageLooksUpVersion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /wiki/rest/api/content/123", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":"123","type":"page","title":"Runbook","version":{"number":4}}`)
	})
	mux.HandleFunc("PUT /wiki/rest/api/content/123", func(w http.ResponseWriter, r *http.Request) {
		var req pageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.Version)
		assert.Equal(t, 5, req.Version.Number)
		assert.Equal(t, "Runbook v2", req.Title)
		_, _ = io.WriteString(w, `{"id":"123","type":"page","title":"Runbook v2","version":{"number":5}}`)
	})
	svc, _, hits := newWiki(t, mux)

	page, err := svc.UpdatePage(t.Context(), "123", types.PageInput{Title: "Runbook v2", Body: "<p>new</p>"})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Version)
	assert.Equal(t, int32(2), hits.Load())
}

func TestUpdatePageWithKnownVersion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /wiki/rest/api/content/123", func(w http.ResponseWriter, r *http.Request) {
		var req pageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 8, req.Version.Number)
		_, _ = io.WriteString(w, `{"id":"123","version":{"number":8}}`)
	})
	svc, _, hits := newWiki(t, mux)

	_, err := svc.UpdatePage(t.Context(), "123", types.PageInput{Title: "T", Version: 7})
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestSearchPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /wiki/rest/api/content/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `space = "ENG" AND type = page`, r.URL.Query().Get("cql"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		_, _ = io.WriteString(w, `{"results":[{"id":"2","type":"page","title":"B"},{"id":"1","type":"page","title":"A"}]}`)
	})
	svc, _, _ := newWiki(t, mux)

	refs, err := svc.SearchPages(t.Context(), `space = "ENG" AND type = page`, 10)
	require.NoError(t, err)
	assert.Equal(t, []types.PageRef{{ID: "2", Title: "B", Type: "page"}, {ID: "1", Title: "A", Type: "page"}}, refs)
}

func TestPageID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /wiki/rest/api/content", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("title") == "Missing" {
			_, _ = io.WriteString(w, `{"results":[]}`)
			return
		}
		assert.Equal(t, "ENG", r.URL.Query().Get("spaceKey"))
		_, _ = io.WriteString(w, `{"results":[{"id":"314","title":"Design"}]}`)
	})
	svc, _, _ := newWiki(t, mux)

	id, err := svc.PageID(t.Context(), "Design", "ENG")
	require.NoError(t, err)
	assert.Equal(t, "314", id)

	_, err = svc.PageID(t.Context(), "Missing", "")
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestCreateSpace(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /wiki/rest/api/space", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ENG", req["key"])
		assert.Equal(t, map[string]any{"plain": map[string]any{"value": "Engineering docs", "representation": "plain"}}, req["description"])
		_, _ = io.WriteString(w, `{"id":98305,"key":"ENG","name":"Engineering"}`)
	})
	svc, _, _ := newWiki(t, mux)

	space, err := svc.CreateSpace(t.Context(), "ENG", "Engineering", "Engineering docs")
	require.NoError(t, err)
	assert.Equal(t, &types.Space{ID: 98305, Key: "ENG", Name: "Engineering"}, space)
}

func TestPreconditionsMakeNoRequest(t *testing.T) {
	svc, _, hits := newWiki(t, http.NewServeMux())

	_, err := svc.CreatePage(t.Context(), types.PageInput{Title: "no space"})
	assert.Equal(t, apperr.KindPrecondition, apperr.KindOf(err))
	_, err = svc.SearchPages(t.Context(), "", 0)
	assert.Equal(t, apperr.KindPrecondition, apperr.KindOf(err))
	_, err = svc.CreateSpace(t.Context(), "", "x", "")
	assert.Equal(t, apperr.KindPrecondition, apperr.KindOf(err))
	assert.Zero(t, hits.Load())
}
