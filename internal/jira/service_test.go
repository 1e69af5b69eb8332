package jira

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/clintrovert/pmctl/internal/apperr"
	"github.com/clintrovert/pmctl/internal/atlassian"
	"github.com/clintrovert/pmctl/internal/config"
)

// backend is a fake Atlassian site that counts requests per "METHOD path".
type backend struct {
	mu    sync.Mutex
	hits  map[string]int
	total int
	mux   *http.ServeMux
	srv   *httptest.Server
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{hits: map[string]int{}, mux: http.NewServeMux()}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[r.Method+" "+r.URL.Path]++
		b.total++
		b.mu.Unlock()
		b.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) handle(pattern string, h http.HandlerFunc) {
	b.mux.HandleFunc(pattern, h)
}

func (b *backend) reply(pattern string, status int, body string) {
	b.handle(pattern, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

func (b *backend) count(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[key]
}

func (b *backend) requests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

func (b *backend) service(t *testing.T) *Service {
	t.Helper()
	return b.serviceWithLogger(t, zaptest.NewLogger(t))
}

func (b *backend) serviceWithLogger(t *testing.T, logger *zap.Logger) *Service {
	t.Helper()
	client, err := atlassian.NewClient(b.srv.URL, "dev@example.com", "secret", logger)
	require.NoError(t, err)
	return NewService(client, Options{ProjectKey: "SOC"}, logger)
}

func decodeBody(t *testing.T, r *http.Request, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(r.Body).Decode(v))
}

func TestNewFailsBeforeAnyRequest(t *testing.T) {
	b := newBackend(t)
	full := config.JiraConfig{
		URL:        b.srv.URL,
		Email:      "dev@example.com",
		APIToken:   "secret",
		ProjectKey: "SOC",
	}

	tests := []struct {
		name    string
		mutate  func(*config.JiraConfig)
		missing string
	}{
		{"url", func(c *config.JiraConfig) { c.URL = "" }, "JIRA_URL"},
		{"email", func(c *config.JiraConfig) { c.Email = "" }, "JIRA_USER_EMAIL"},
		{"token", func(c *config.JiraConfig) { c.APIToken = "" }, "JIRA_API_TOKEN"},
		{"project", func(c *config.JiraConfig) { c.ProjectKey = "" }, "JIRA_PROJECT_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := full
			tt.mutate(&cfg)

			svc, err := New(cfg, zaptest.NewLogger(t))
			require.Error(t, err)
			assert.Nil(t, svc)
			assert.Equal(t, apperr.KindConfig, apperr.KindOf(err))
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
	assert.Zero(t, b.requests())

	svc, err := New(full, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "SOC", svc.ProjectKey())
	assert.Zero(t, b.requests())
}

func TestVerifyReportsDisplayName(t *testing.T) {
	b := newBackend(t)
	b.reply("GET /rest/api/3/myself", http.StatusOK,
		`{"accountId":"acc-1","displayName":"Dana Dev","emailAddress":"dev@example.com"}`)

	core, logs := observer.New(zap.InfoLevel)
	svc := b.serviceWithLogger(t, zap.New(core))

	account, err := svc.Verify(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "acc-1", account.AccountID)
	assert.Equal(t, "Dana Dev", account.DisplayName)
	assert.Equal(t, "dev@example.com", account.Email)

	entries := logs.FilterMessage("connection verified").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Dana Dev", entries[0].ContextMap()["display_name"])
}

func TestVerifyFailure(t *testing.T) {
	b := newBackend(t)
	b.reply("GET /rest/api/3/myself", http.StatusUnauthorized, `{"errorMessages":["Client must be authenticated"]}`)

	account, err := b.service(t).Verify(t.Context())
	require.Error(t, err)
	assert.Nil(t, account)
	assert.Equal(t, apperr.KindStatus, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "failed to verify connection")
}
