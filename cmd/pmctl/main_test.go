package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clintrovert/pmctl/internal/config"
	"github.com/clintrovert/pmctl/pkg/types"
)

func newBackend(t *testing.T, mux *http.ServeMux) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func loaderFor(t *testing.T, baseURL string) envLoader {
	t.Helper()
	return func(logLevel string) (*env, error) {
		cfg, err := config.LoadFrom(map[string]string{
			"JIRA_URL":         baseURL,
			"JIRA_USER_EMAIL":  "dev@example.com",
			"JIRA_API_TOKEN":   "secret",
			"JIRA_PROJECT_KEY": "SOC",
			"LOG_LEVEL":        "error",
		})
		if err != nil {
			return nil, err
		}
		return newEnv(cfg, logLevel)
	}
}

func run(t *testing.T, load envLoader, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(load)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestVerify(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rest/api/3/myself", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"accountId": "abc", "displayName": "Dev One", "emailAddress": "dev@example.com"})
	})
	srv := newBackend(t, mux)

	out, err := run(t, loaderFor(t, srv.URL), "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as: Dev One (dev@example.com)")
}

func TestVerifyFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rest/api/3/myself", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := newBackend(t, mux)

	_, err := run(t, loaderFor(t, srv.URL), "verify")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection failed")
}

func TestMissingConfigFailsBeforeAnyRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(srv.Close)

	load := func(logLevel string) (*env, error) {
		cfg, err := config.LoadFrom(map[string]string{"JIRA_URL": srv.URL})
		if err != nil {
			return nil, err
		}
		return newEnv(cfg, logLevel)
	}

	_, err := run(t, load, "fetch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JIRA_API_TOKEN")
	assert.Zero(t, hits.Load())
}

func TestFetchAndSearch(t *testing.T) {
	var jql string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /rest/api/3/search/jql", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			JQL string `json:"jql"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		jql = req.JQL
		if req.JQL == "project = EMPTY" {
			writeJSON(w, map[string]any{"issues": []any{}})
			return
		}
		writeJSON(w, map[string]any{"issues": []any{
			map[string]any{"key": "SOC-2", "fields": map[string]any{"summary": "Second"}},
			map[string]any{"key": "SOC-1", "fields": map[string]any{"summary": "First"}},
		}})
	})
	srv := newBackend(t, mux)
	load := loaderFor(t, srv.URL)

	out, err := run(t, load, "fetch")
	require.NoError(t, err)
	assert.Equal(t, `project = SOC AND status = "READY FOR DEVELOPMENT"`, jql)
	assert.Equal(t, "Found 2 open tasks:\n[SOC-2] Second\n[SOC-1] First\n", out)

	out, err = run(t, load, "search", "project = EMPTY")
	require.NoError(t, err)
	assert.Equal(t, "No issues found.\n", out)
}

func TestMoveReportsAvailableTransitions(t *testing.T) {
	var posted atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rest/api/3/issue/SOC-1/transitions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"transitions": []any{
			map[string]any{"id": "21", "name": "In Progress"},
			map[string]any{"id": "31", "name": "Done"},
		}})
	})
	mux.HandleFunc("POST /rest/api/3/issue/SOC-1/transitions", func(w http.ResponseWriter, r *http.Request) {
		posted.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	srv := newBackend(t, mux)
	load := loaderFor(t, srv.URL)

	out, err := run(t, load, "move", "SOC-1")
	require.NoError(t, err)
	assert.Equal(t, "Successfully moved SOC-1 to 'In Progress'.\n", out)
	assert.Equal(t, int32(1), posted.Load())

	_, err = run(t, load, "move", "SOC-1", "Shipped")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "In Progress, Done")
	assert.Equal(t, int32(1), posted.Load())
}

func TestCreateProject(t *testing.T) {
	var payload map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rest/api/3/myself", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"accountId": "abc", "displayName": "Dev One"})
	})
	mux.HandleFunc("POST /rest/api/3/project", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]any{"id": 10042, "key": "TEST"})
	})
	srv := newBackend(t, mux)

	out, err := run(t, loaderFor(t, srv.URL), "create-project", "test", "Test Project")
	require.NoError(t, err)
	assert.Contains(t, out, "Project Test Project (TEST) created successfully.")
	assert.Equal(t, "abc", payload["leadAccountId"])
	assert.Equal(t, "TEST", payload["key"])
}

func TestUpdateWithoutFieldsSendsNothing(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(srv.Close)

	_, err := run(t, loaderFor(t, srv.URL), "update", "SOC-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fields provided")
	assert.Zero(t, hits.Load())
}

func TestBootstrapDryRun(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, mkdirs(root, "customer-portal", "billing", ".cache"))

	out, err := run(t, loaderFor(t, "http://127.0.0.1:1"), "bootstrap", root, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "PLAN  CP     Customer Portal")
	assert.Contains(t, out, "PLAN  BILL   Billing")
	assert.NotContains(t, out, "cache")
}

func TestParseStatusSpecs(t *testing.T) {
	specs, err := parseStatusSpecs([]string{"IN REVIEW=In Progress", "BACKLOG", "SHIPPED=done"})
	require.NoError(t, err)
	assert.Equal(t, []types.StatusSpec{
		{Name: "IN REVIEW", Category: types.CategoryInProgress},
		{Name: "BACKLOG", Category: types.CategoryToDo},
		{Name: "SHIPPED", Category: types.CategoryDone},
	}, specs)

	_, err = parseStatusSpecs([]string{"=Done"})
	assert.Error(t, err)
	_, err = parseStatusSpecs([]string{"X=Blocked"})
	assert.Error(t, err)
}

func mkdirs(root string, names ...string) error {
	for _, name := range names {
		if err := os.Mkdir(filepath.Join(root, name), 0o755); err != nil {
			return err
		}
	}
	return nil
}
