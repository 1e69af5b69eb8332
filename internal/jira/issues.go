package jira

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	jira "github.com/andygrunwald/go-jira"
	"go.uber.org/zap"

	"github.com/clintrovert/pmctl/internal/adf"
	"github.com/clintrovert/pmctl/internal/apperr"
	"github.com/clintrovert/pmctl/pkg/types"
)

// jqlQuote escapes a value for use inside a double-quoted JQL string.
var jqlQuote = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// DefaultIssueType is used when CreateIssue is not given a type.
const DefaultIssueType = "Task"

var searchFields = []string{"summary", "status", "assignee"}

type searchRequest struct {
	JQL    string   `json:"jql"`
	Fields []string `json:"fields"`
}

type searchResponse struct {
	Issues []issueRecord `json:"issues"`
}

type issueRecord struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Fields issueFields `json:"fields"`
}

type issueFields struct {
	Summary     string         `json:"summary"`
	Status      *jira.Status   `json:"status"`
	Assignee    *jira.User     `json:"assignee"`
	Priority    *jira.Priority `json:"priority"`
	Description *adf.Document  `json:"description"`
}

type transitionsResponse struct {
	Transitions []jira.Transition `json:"transitions"`
}

type createdIssue struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

// OpenTasks returns the issues of the default project in the open status
func (s *Service) OpenTasks(ctx context.Context) ([]types.IssueSummary, error) {
	if s.opts.ProjectKey == "" {
		return nil, precondition("fetch open tasks", "no default project key configured")
	}

	jql := fmt.Sprintf(`project = %s AND status = "%s"`, s.opts.ProjectKey, jqlQuote.Replace(s.opts.OpenStatus))
	issues, err := s.Search(ctx, jql)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch open tasks: %w", err)
	}

	if len(issues) == 0 {
		s.logger.Info("no open tasks found",
			zap.String("project", s.opts.ProjectKey),
			zap.String("status", s.opts.OpenStatus),
		)
	}
	return issues, nil
}

// Search runs a JQL query and returns the matching issues in backend order
func (s *Service) Search(ctx context.Context, jql string) ([]types.IssueSummary, error) {
	if strings.TrimSpace(jql) == "" {
		return nil, precondition("search issues", "query is required")
	}

	body, err := s.client.Post(ctx, "/rest/api/3/search/jql", searchRequest{JQL: jql, Fields: searchFields})
	if err != nil {
		return nil, fmt.Errorf("failed to search issues: %w", err)
	}

	var resp searchResponse
	if err := body.Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to search issues: %w", err)
	}

	issues := make([]types.IssueSummary, 0, len(resp.Issues))
	for _, record := range resp.Issues {
		issue := types.IssueSummary{
			Key:     record.Key,
			Summary: record.Fields.Summary,
		}
		if record.Fields.Status != nil {
			issue.Status = record.Fields.Status.Name
		}
		if record.Fields.Assignee != nil {
			issue.Assignee = record.Fields.Assignee.DisplayName
		}
		issues = append(issues, issue)
	}

	s.logger.Debug("search completed", zap.String("jql", jql), zap.Int("count", len(issues)))
	return issues, nil
}

// GetIssue returns the details of one issue
func (s *Service) GetIssue(ctx context.Context, key string) (*types.IssueDetails, error) {
	if key == "" {
		return nil, precondition("get issue", "issue key is required")
	}

	query := url.Values{"fields": {"summary,status,assignee,priority,description"}}
	body, err := s.client.Get(ctx, issuePath(key), query)
	if err != nil {
		return nil, fmt.Errorf("failed to get issue %s: %w", key, err)
	}

	var record issueRecord
	if err := body.Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to get issue %s: %w", key, err)
	}
	if record.Key == "" {
		record.Key = key
	}

	details := &types.IssueDetails{
		Key:      record.Key,
		Summary:  record.Fields.Summary,
		Assignee: types.Unassigned,
		Priority: types.NoPriority,
		URL:      s.client.BaseURL() + "/browse/" + record.Key,
	}
	if record.Fields.Status != nil {
		details.Status = record.Fields.Status.Name
	}
	if record.Fields.Assignee != nil {
		details.Assignee = record.Fields.Assignee.DisplayName
	}
	if record.Fields.Priority != nil && record.Fields.Priority.Name != "" {
		details.Priority = record.Fields.Priority.Name
	}
	if record.Fields.Description != nil {
		details.HasDescription = true
		details.Description = adf.PlainText(*record.Fields.Description)
	}
	return details, nil
}

// CreateIssue creates an issue and returns its key
func (s *Service) CreateIssue(ctx context.Context, input types.IssueInput) (string, error) {
	if strings.TrimSpace(input.Summary) == "" {
		return "", precondition("create issue", "summary is required")
	}

	issueType := input.IssueType
	if issueType == "" {
		issueType = DefaultIssueType
	}
	project := input.ProjectKey
	if project == "" {
		project = s.opts.ProjectKey
	}
	if project == "" {
		return "", precondition("create issue", "project key is required")
	}

	payload := map[string]any{
		"fields": map[string]any{
			"project":     map[string]string{"key": project},
			"summary":     input.Summary,
			"description": adf.Text(input.Description),
			"issuetype":   map[string]string{"name": issueType},
		},
	}

	body, err := s.client.Post(ctx, "/rest/api/3/issue", payload)
	if err != nil {
		return "", fmt.Errorf("failed to create issue: %w", err)
	}

	var created createdIssue
	if err := body.Decode(&created); err != nil {
		return "", fmt.Errorf("failed to create issue: %w", err)
	}
	if created.Key == "" {
		return "", apperr.Newf("create issue", apperr.KindDecode, "response carried no issue key")
	}

	s.logger.Info("created issue",
		zap.String("issue", created.Key),
		zap.String("type", issueType),
		zap.String("project", project),
	)
	return created.Key, nil
}

// UpdateIssue changes the summary and/or description of an issue. With no
// fields it returns ErrNothingToUpdate without calling the remote service.
func (s *Service) UpdateIssue(ctx context.Context, key string, update types.IssueUpdate) error {
	if update.Empty() {
		return ErrNothingToUpdate
	}
	if key == "" {
		return precondition("update issue", "issue key is required")
	}

	fields := map[string]any{}
	if update.Summary != "" {
		fields["summary"] = update.Summary
	}
	if update.Description != "" {
		fields["description"] = adf.Text(update.Description)
	}

	if _, err := s.client.Put(ctx, issuePath(key), map[string]any{"fields": fields}); err != nil {
		return fmt.Errorf("failed to update issue %s: %w", key, err)
	}

	s.logger.Info("updated issue", zap.String("issue", key))
	return nil
}

// Transitions returns the transitions currently available for an issue
func (s *Service) Transitions(ctx context.Context, key string) ([]jira.Transition, error) {
	body, err := s.client.Get(ctx, issuePath(key, "transitions"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get transitions for %s: %w", key, err)
	}

	var resp transitionsResponse
	if err := body.Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to get transitions for %s: %w", key, err)
	}
	return resp.Transitions, nil
}

// TransitionIssue moves an issue through the transition whose name matches
// status, ignoring case. When nothing matches, the available names are
// reported and no transition is executed.
func (s *Service) TransitionIssue(ctx context.Context, key, status string) error {
	if key == "" || strings.TrimSpace(status) == "" {
		return precondition("transition issue", "issue key and status are required")
	}

	transitions, err := s.Transitions(ctx, key)
	if err != nil {
		return err
	}

	var transitionID string
	available := make([]string, 0, len(transitions))
	for _, transition := range transitions {
		available = append(available, transition.Name)
		if transitionID == "" && strings.EqualFold(transition.Name, status) {
			transitionID = transition.ID
		}
	}

	if transitionID == "" {
		s.logger.Warn("transition not found",
			zap.String("issue", key),
			zap.String("status", status),
			zap.Strings("available", available),
		)
		return apperr.New("transition issue", apperr.KindPrecondition, &TransitionNotFoundError{
			Issue:     key,
			Requested: status,
			Available: available,
		})
	}

	payload := map[string]any{"transition": map[string]string{"id": transitionID}}
	if _, err := s.client.Post(ctx, issuePath(key, "transitions"), payload); err != nil {
		return fmt.Errorf("failed to transition issue %s: %w", key, err)
	}

	s.logger.Info("transitioned issue", zap.String("issue", key), zap.String("status", status))
	return nil
}

// AssignIssue assigns an issue. An empty accountID assigns it to the caller.
func (s *Service) AssignIssue(ctx context.Context, key, accountID string) error {
	if key == "" {
		return precondition("assign issue", "issue key is required")
	}

	if accountID == "" {
		id, err := s.MyAccountID(ctx)
		if err != nil {
			s.logger.Warn("failed to resolve own account", zap.String("issue", key), zap.Error(err))
			return fmt.Errorf("%w: %w", ErrNoAccount, err)
		}
		if id == "" {
			return ErrNoAccount
		}
		accountID = id
	}

	if _, err := s.client.Put(ctx, issuePath(key, "assignee"), map[string]string{"accountId": accountID}); err != nil {
		return fmt.Errorf("failed to assign issue %s: %w", key, err)
	}

	s.logger.Info("assigned issue", zap.String("issue", key), zap.String("account_id", accountID))
	return nil
}

// AddComment appends a plain-text comment to an issue
func (s *Service) AddComment(ctx context.Context, key, text string) error {
	if key == "" || text == "" {
		return precondition("add comment", "issue key and text are required")
	}

	if _, err := s.client.Post(ctx, issuePath(key, "comment"), map[string]any{"body": adf.Text(text)}); err != nil {
		return fmt.Errorf("failed to add comment to %s: %w", key, err)
	}

	s.logger.Info("added comment", zap.String("issue", key))
	return nil
}
