// Package atlassian is the transport client for Atlassian Cloud REST APIs.
//
// A Client owns one base URL and one set of credentials. Every call is a single
// attempt; failures come back as *apperr.Error values classified as transport,
// status or decode failures.
package atlassian

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	jira "github.com/andygrunwald/go-jira"
	"go.uber.org/zap"

	"github.com/clintrovert/pmctl/internal/apperr"
)

// maxLoggedBody bounds how much of an error response body ends up in logs.
const maxLoggedBody = 2048

// Body is a successful, JSON-encoded response body.
type Body json.RawMessage

// Decode unmarshals the body into v.
func (b Body) Decode(v any) error {
	if err := json.Unmarshal(b, v); err != nil {
		return apperr.New("decode response", apperr.KindDecode, err)
	}
	return nil
}

// Client performs authenticated requests against one Atlassian product
type Client struct {
	client  *jira.Client
	logger  *zap.Logger
	baseURL string
	headers http.Header
}

// NewClient creates a new transport client. It fails with a config error when
// any of baseURL, identity or token is empty.
func NewClient(baseURL, identity, token string, logger *zap.Logger) (*Client, error) {
	var missing []string
	if strings.TrimSpace(baseURL) == "" {
		missing = append(missing, "base URL")
	}
	if strings.TrimSpace(identity) == "" {
		missing = append(missing, "identity")
	}
	if strings.TrimSpace(token) == "" {
		missing = append(missing, "token")
	}
	if len(missing) > 0 {
		return nil, apperr.Newf("create client", apperr.KindConfig, "missing %s", strings.Join(missing, ", "))
	}

	tp := jira.BasicAuthTransport{
		Username: identity,
		Password: token,
	}

	client, err := jira.NewClient(tp.Client(), strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, apperr.New("create client", apperr.KindConfig, fmt.Errorf("failed to create jira client: %w", err))
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	headers := http.Header{}
	headers.Set("Accept", "application/json")
	headers.Set("Content-Type", "application/json")

	return &Client{
		client:  client,
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: headers,
	}, nil
}

// BaseURL returns the base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request. query may be nil.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (Body, error) {
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		path += sep + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (Body, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (Body, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (Body, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (Body, error) {
	op := method + " " + path

	req, err := c.client.NewRequestWithContext(ctx, method, path, payload)
	if err != nil {
		c.logger.Error("failed to build request", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, apperr.New(op, apperr.KindTransport, fmt.Errorf("failed to build request: %w", err))
	}
	for key, values := range c.headers {
		req.Header[key] = values
	}

	resp, err := c.client.Do(req, nil)
	if resp == nil {
		if err == nil {
			err = errors.New("no response")
		}
		c.logger.Error("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, apperr.New(op, apperr.KindTransport, err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.statusFailure(op, method, path, resp.StatusCode, raw)
	}
	if readErr != nil {
		c.logger.Error("failed to read response", zap.String("method", method), zap.String("path", path), zap.Error(readErr))
		return nil, apperr.New(op, apperr.KindTransport, fmt.Errorf("failed to read response: %w", readErr))
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Body("{}"), nil
	}
	if !json.Valid(raw) {
		c.logger.Error("malformed response body",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(raw))),
		)
		return nil, apperr.Newf(op, apperr.KindDecode, "malformed JSON response (status %d)", resp.StatusCode)
	}
	return Body(raw), nil
}

func (c *Client) statusFailure(op, method, path string, status int, raw []byte) error {
	c.logger.Error("request returned non-success status",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.String("body", truncate(string(raw))),
	)

	failure := apperr.Newf(op, apperr.KindStatus, "status %d", status)
	failure.StatusCode = status
	failure.Detail = errorDetail(raw)
	return failure
}

// errorDetail extracts Jira's errorMessages/errors payload when present.
func errorDetail(raw []byte) string {
	var jerr jira.Error
	if err := json.Unmarshal(raw, &jerr); err != nil {
		return truncate(strings.TrimSpace(string(raw)))
	}

	parts := append([]string{}, jerr.ErrorMessages...)
	fields := make([]string, 0, len(jerr.Errors))
	for field := range jerr.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		parts = append(parts, field+": "+jerr.Errors[field])
	}
	if len(parts) == 0 {
		return truncate(strings.TrimSpace(string(raw)))
	}
	return strings.Join(parts, "; ")
}

func truncate(s string) string {
	if len(s) <= maxLoggedBody {
		return s
	}
	cut := maxLoggedBody
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
