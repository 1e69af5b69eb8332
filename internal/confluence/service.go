// Package confluence implements the wiki operations on top of the Atlassian
// transport client. The base URL includes the /wiki context path; New adds it
// for Atlassian Cloud sites configured without it.
package confluence

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/clintrovert/pmctl/internal/apperr"
	"github.com/clintrovert/pmctl/internal/atlassian"
	"github.com/clintrovert/pmctl/internal/config"
	"github.com/clintrovert/pmctl/pkg/types"
)

// ErrPageNotFound is returned by PageID when no page has the given title.
var ErrPageNotFound = errors.New("page not found")

// Requester performs requests against the remote API
type Requester interface {
	BaseURL() string
	Get(ctx context.Context, path string, query url.Values) (atlassian.Body, error)
	Post(ctx context.Context, path string, body any) (atlassian.Body, error)
	Put(ctx context.Context, path string, body any) (atlassian.Body, error)
}

// Service exposes the wiki operations
type Service struct {
	client Requester
	logger *zap.Logger
}

// New creates a Service from configuration
func New(cfg config.ConfluenceConfig, logger *zap.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := atlassian.NewClient(wikiBaseURL(cfg.URL), cfg.Email, cfg.APIToken, logger)
	if err != nil {
		return nil, err
	}
	return NewService(client, logger), nil
}

// wikiBaseURL appends the /wiki context path to Atlassian Cloud site URLs
// that lack it. Other hosts are returned unchanged.
func wikiBaseURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !strings.HasSuffix(strings.ToLower(u.Hostname()), ".atlassian.net") {
		return raw
	}

	path := strings.TrimRight(u.Path, "/")
	if path == "/wiki" || strings.HasPrefix(path, "/wiki/") {
		return raw
	}
	u.Path = path + "/wiki"
	u.RawPath = ""
	return u.String()
}

// NewService creates a Service over an existing client
func NewService(client Requester, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, logger: logger}
}

type storage struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

type content struct {
	ID      string       `json:"id,omitempty"`
	Type    string       `json:"type"`
	Title   string       `json:"title"`
	Space   *spaceRef    `json:"space,omitempty"`
	Version *versionInfo `json:"version,omitempty"`
	Body    *pageBody    `json:"body,omitempty"`
	Links   struct {
		WebUI string `json:"webui"`
	} `json:"_links"`
}

type contentList struct {
	Results []content `json:"results"`
}

type pageRequest struct {
	ID        string       `json:"id,omitempty"`
	Type      string       `json:"type"`
	Title     string       `json:"title"`
	Space     *spaceRef    `json:"space,omitempty"`
	Ancestors []ancestor   `json:"ancestors,omitempty"`
	Body      pageBody     `json:"body"`
	Version   *versionInfo `json:"version,omitempty"`
}

type spaceRef struct {
	Key string `json:"key"`
}

type ancestor struct {
	ID string `json:"id"`
}

type pageBody struct {
	Storage storage `json:"storage"`
}

type versionInfo struct {
	Number  int    `json:"number"`
	Message string `json:"message,omitempty"`
}

func contentPath(id string) string {
	return "/rest/api/content/" + url.PathEscape(id)
}

func (s *Service) toPage(c content) *types.Page {
	page := &types.Page{ID: c.ID, Title: c.Title}
	if c.Space != nil {
		page.SpaceKey = c.Space.Key
	}
	if c.Version != nil {
		page.Version = c.Version.Number
	}
	if c.Body != nil {
		page.Body = c.Body.Storage.Value
	}
	if c.Links.WebUI != "" {
		page.URL = s.client.BaseURL() + c.Links.WebUI
	}
	return page
}

// GetPage returns a page with its storage body and version
func (s *Service) GetPage(ctx context.Context, id string) (*types.Page, error) {
	if id == "" {
		return nil, apperr.Newf("get page", apperr.KindPrecondition, "page id is required")
	}

	body, err := s.client.Get(ctx, contentPath(id), url.Values{"expand": {"body.storage,version,space"}})
	if err != nil {
		return nil, fmt.Errorf("failed to get page %s: %w", id, err)
	}

	var c content
	if err := body.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to get page %s: %w", id, err)
	}
	return s.toPage(c), nil
}

// CreatePage creates a page in a space, optionally under a parent page
func (s *Service) CreatePage(ctx context.Context, input types.PageInput) (*types.Page, error) {
	if input.SpaceKey == "" || input.Title == "" {
		return nil, apperr.Newf("create page", apperr.KindPrecondition, "space key and title are required")
	}

	req := pageRequest{
		Type:  "page",
		Title: input.Title,
		Space: &spaceRef{Key: input.SpaceKey},
		Body:  pageBody{Storage: storage{Value: input.Body, Representation: "storage"}},
	}
	if input.ParentID != "" {
		req.Ancestors = []ancestor{{ID: input.ParentID}}
	}

	body, err := s.client.Post(ctx, "/rest/api/content", req)
	if err != nil {
		return nil, fmt.Errorf("failed to create page %q: %w", input.Title, err)
	}

	var c content
	if err := body.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to create page %q: %w", input.Title, err)
	}

	page := s.toPage(c)
	s.logger.Info("created page",
		zap.String("page_id", page.ID),
		zap.String("space", input.SpaceKey),
		zap.String("title", input.Title),
	)
	return page, nil
}

// UpdatePage replaces the title and body of a page. input.Version is the
// page's current version; when zero it is looked up first. The stored version
// becomes input.Version+1.
func (s *Service) UpdatePage(ctx context.Context, id string, input types.PageInput) (*types.Page, error) {
	if id == "" || input.Title == "" {
		return nil, apperr.Newf("update page", apperr.KindPrecondition, "page id and title are required")
	}

	current := input.Version
	if current == 0 {
		page, err := s.GetPage(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to update page %s: %w", id, err)
		}
		current = page.Version
	}

	req := pageRequest{
		ID:      id,
		Type:    "page",
		Title:   input.Title,
		Body:    pageBody{Storage: storage{Value: input.Body, Representation: "storage"}},
		Version: &versionInfo{Number: current + 1},
	}

	body, err := s.client.Put(ctx, contentPath(id), req)
	if err != nil {
		return nil, fmt.Errorf("failed to update page %s: %w", id, err)
	}

	var c content
	if err := body.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to update page %s: %w", id, err)
	}

	page := s.toPage(c)
	s.logger.Info("updated page", zap.String("page_id", id), zap.Int("version", current+1))
	return page, nil
}

// SearchPages runs a CQL query
func (s *Service) SearchPages(ctx context.Context, cql string, limit int) ([]types.PageRef, error) {
	if strings.TrimSpace(cql) == "" {
		return nil, apperr.Newf("search pages", apperr.KindPrecondition, "query is required")
	}

	query := url.Values{"cql": {cql}}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	body, err := s.client.Get(ctx, "/rest/api/content/search", query)
	if err != nil {
		return nil, fmt.Errorf("failed to search pages: %w", err)
	}

	var list contentList
	if err := body.Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to search pages: %w", err)
	}

	refs := make([]types.PageRef, 0, len(list.Results))
	for _, c := range list.Results {
		ref := types.PageRef{ID: c.ID, Title: c.Title, Type: c.Type}
		if c.Links.WebUI != "" {
			ref.URL = s.client.BaseURL() + c.Links.WebUI
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// PageID returns the id of the page with the given title, optionally within a space
func (s *Service) PageID(ctx context.Context, title, spaceKey string) (string, error) {
	if title == "" {
		return "", apperr.Newf("get page id", apperr.KindPrecondition, "title is required")
	}

	query := url.Values{"title": {title}, "type": {"page"}}
	if spaceKey != "" {
		query.Set("spaceKey", spaceKey)
	}

	body, err := s.client.Get(ctx, "/rest/api/content", query)
	if err != nil {
		return "", fmt.Errorf("failed to look up page %q: %w", title, err)
	}

	var list contentList
	if err := body.Decode(&list); err != nil {
		return "", fmt.Errorf("failed to look up page %q: %w", title, err)
	}
	if len(list.Results) == 0 {
		return "", fmt.Errorf("%w: %q", ErrPageNotFound, title)
	}
	return list.Results[0].ID, nil
}

type createSpaceRequest struct {
	Key         string            `json:"key"`
	Name        string            `json:"name"`
	Description *spaceDescription `json:"description,omitempty"`
}

type spaceDescription struct {
	Plain storage `json:"plain"`
}

// CreateSpace creates a wiki space
func (s *Service) CreateSpace(ctx context.Context, key, name, description string) (*types.Space, error) {
	if key == "" || name == "" {
		return nil, apperr.Newf("create space", apperr.KindPrecondition, "space key and name are required")
	}

	req := createSpaceRequest{Key: key, Name: name}
	if description != "" {
		req.Description = &spaceDescription{Plain: storage{Value: description, Representation: "plain"}}
	}

	body, err := s.client.Post(ctx, "/rest/api/space", req)
	if err != nil {
		return nil, fmt.Errorf("failed to create space %s: %w", key, err)
	}

	var space types.Space
	if err := body.Decode(&space); err != nil {
		return nil, fmt.Errorf("failed to create space %s: %w", key, err)
	}
	if space.Key == "" {
		space.Key = key
	}
	if space.Name == "" {
		space.Name = name
	}

	s.logger.Info("created space", zap.String("space", space.Key))
	return &space, nil
}
