package atlassian

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/clintrovert/pmctl/internal/apperr"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *observer.ObservedLogs) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	core, logs := observer.New(zap.DebugLevel)
	client, err := NewClient(srv.URL, "dev@example.com", "secret", zap.New(core))
	require.NoError(t, err)
	return client, logs
}

func TestNewClientRequiresEverySetting(t *testing.T) {
	tests := []struct {
		name                  string
		baseURL, user, secret string
		want                  string
	}{
		{"missing url", "", "dev@example.com", "secret", "base URL"},
		{"missing identity", "https://example.atlassian.net", "", "secret", "identity"},
		{"missing token", "https://example.atlassian.net", "dev@example.com", " ", "token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.baseURL, tt.user, tt.secret, nil)
			require.Error(t, err)
			assert.Nil(t, client)
			assert.Equal(t, apperr.KindConfig, apperr.KindOf(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGetSendsCredentialsAndHeaders(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "dev@example.com", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/agile/1.0/board", r.URL.Path)
		assert.Equal(t, "SOC", r.URL.Query().Get("projectKeyOrId"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"values":[{"id":45,"name":"SOC board"}]}`))
	})

	body, err := client.Get(context.Background(), "/rest/agile/1.0/board", url.Values{"projectKeyOrId": {"SOC"}})
	require.NoError(t, err)

	var got struct {
		Values []struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"values"`
	}
	require.NoError(t, body.Decode(&got))
	require.Len(t, got.Values, 1)
	assert.Equal(t, 45, got.Values[0].ID)
}

func TestPostEncodesPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(raw, &payload))
		assert.Equal(t, "value", payload["field"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"key":"SOC-1"}`))
	})

	body, err := client.Post(context.Background(), "/rest/api/3/issue", map[string]string{"field": "value"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"SOC-1"}`, string(body))
}

func TestEmptyBodyIsEmptyObject(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	body, err := client.Put(context.Background(), "/rest/api/3/issue/SOC-1/assignee", map[string]string{"accountId": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(body))

	body, err = client.Delete(context.Background(), "/rest/api/3/project/SOC")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(body))
}

func TestNonSuccessStatusIsTypedFailure(t *testing.T) {
	client, logs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errorMessages":["Issue does not exist"],"errors":{"summary":"required"}}`))
	})

	body, err := client.Get(context.Background(), "/rest/api/3/issue/NOPE-1", nil)
	require.Error(t, err)
	assert.Nil(t, body)
	assert.Equal(t, apperr.KindStatus, apperr.KindOf(err))

	var failure *apperr.Error
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, http.StatusBadRequest, failure.StatusCode)
	assert.Equal(t, "Issue does not exist; summary: required", failure.Detail)

	entries := logs.FilterMessage("request returned non-success status").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(http.StatusBadRequest), entries[0].ContextMap()["status"])
}

func TestMalformedBodyIsDecodeFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	})

	_, err := client.Get(context.Background(), "/rest/api/3/myself", nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindDecode, apperr.KindOf(err))
}

func TestUnreachableHostIsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	client, err := NewClient(baseURL, "dev@example.com", "secret", zap.NewNop())
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "/rest/api/3/myself", nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindTransport, apperr.KindOf(err))
}

func TestBaseURLWithContextPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wiki/rest/api/content/42", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"42"}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL+"/wiki/", "dev@example.com", "secret", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/wiki", client.BaseURL())

	_, err = client.Get(context.Background(), "/rest/api/content/42", nil)
	require.NoError(t, err)
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncate("short"))

	long := strings.Repeat("é", maxLoggedBody)
	got := truncate(long)
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len(got), maxLoggedBody+len("..."))
	assert.Equal(t, strings.Repeat("é", maxLoggedBody/2)+"...", got)

	odd := "a" + long
	got = truncate(odd)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "a"+strings.Repeat("é", (maxLoggedBody-1)/2)+"...", got)
}
