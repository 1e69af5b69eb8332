// Package jira implements the work-tracking operations on top of the Atlassian
// transport client.
package jira

import (
	"context"
	"fmt"
	"net/url"

	jira "github.com/andygrunwald/go-jira"
	"go.uber.org/zap"

	"github.com/clintrovert/pmctl/internal/atlassian"
	"github.com/clintrovert/pmctl/internal/config"
	"github.com/clintrovert/pmctl/pkg/types"
)

// DefaultOpenStatus is the status OpenTasks looks for when none is configured.
const DefaultOpenStatus = "READY FOR DEVELOPMENT"

// Requester performs requests against the remote API
type Requester interface {
	BaseURL() string
	Get(ctx context.Context, path string, query url.Values) (atlassian.Body, error)
	Post(ctx context.Context, path string, body any) (atlassian.Body, error)
	Put(ctx context.Context, path string, body any) (atlassian.Body, error)
	Delete(ctx context.Context, path string) (atlassian.Body, error)
}

// Options tune a Service
type Options struct {
	// ProjectKey is used when an operation does not name a project.
	ProjectKey string
	// OpenStatus is the status OpenTasks filters on.
	OpenStatus string
}

// Service exposes one method per work-tracking operation
type Service struct {
	client Requester
	logger *zap.Logger
	opts   Options
}

// New creates a Service from configuration. Missing settings fail before any
// network activity.
func New(cfg config.JiraConfig, logger *zap.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := atlassian.NewClient(cfg.URL, cfg.Email, cfg.APIToken, logger)
	if err != nil {
		return nil, err
	}

	return NewService(client, Options{
		ProjectKey: cfg.ProjectKey,
		OpenStatus: cfg.OpenStatus,
	}, logger), nil
}

// NewService creates a Service over an existing client
func NewService(client Requester, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.OpenStatus == "" {
		opts.OpenStatus = DefaultOpenStatus
	}
	return &Service{
		client: client,
		logger: logger,
		opts:   opts,
	}
}

// ProjectKey returns the default project key.
func (s *Service) ProjectKey() string {
	return s.opts.ProjectKey
}

// BaseURL returns the site the service talks to.
func (s *Service) BaseURL() string {
	return s.client.BaseURL()
}

// Verify checks the credentials and returns the authenticated account
func (s *Service) Verify(ctx context.Context) (*types.Account, error) {
	account, err := s.myself(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to verify connection: %w", err)
	}

	s.logger.Info("connection verified",
		zap.String("display_name", account.DisplayName),
		zap.String("email", account.Email),
	)
	return account, nil
}

// MyAccountID returns the account id of the authenticated caller.
func (s *Service) MyAccountID(ctx context.Context) (string, error) {
	account, err := s.myself(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve own account: %w", err)
	}
	return account.AccountID, nil
}

func (s *Service) myself(ctx context.Context) (*types.Account, error) {
	body, err := s.client.Get(ctx, "/rest/api/3/myself", nil)
	if err != nil {
		return nil, err
	}

	var user jira.User
	if err := body.Decode(&user); err != nil {
		return nil, err
	}

	return &types.Account{
		AccountID:   user.AccountID,
		DisplayName: user.DisplayName,
		Email:       user.EmailAddress,
	}, nil
}

func issuePath(key string, parts ...string) string {
	path := "/rest/api/3/issue/" + url.PathEscape(key)
	for _, part := range parts {
		path += "/" + part
	}
	return path
}
