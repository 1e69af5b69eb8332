package jira

import (
	"context"
	"fmt"
	"strings"

	jira "github.com/andygrunwald/go-jira"
	"go.uber.org/zap"

	"github.com/clintrovert/pmctl/internal/apperr"
	"github.com/clintrovert/pmctl/pkg/types"
)

// DefaultStatuses is the delivery workflow status set, in board order.
var DefaultStatuses = []types.StatusSpec{
	{Name: "PLANNING", Category: types.CategoryToDo},
	{Name: "READY FOR DEVELOPMENT", Category: types.CategoryToDo},
	{Name: "IN DEVELOPMENT", Category: types.CategoryInProgress},
	{Name: "READY FOR QA TESTING", Category: types.CategoryInProgress},
	{Name: "IN QA TESTING", Category: types.CategoryInProgress},
	{Name: "PO VALIDATION", Category: types.CategoryInProgress},
	{Name: "DONE", Category: types.CategoryDone},
	{Name: "CANCELLED", Category: types.CategoryDone},
}

type createStatusRequest struct {
	Name           string            `json:"name"`
	StatusCategory statusCategoryRef `json:"statusCategory"`
	Description    string            `json:"description,omitempty"`
}

type statusCategoryRef struct {
	ID int `json:"id"`
}

type createdStatus struct {
	ID   jsonID `json:"id"`
	Name string `json:"name"`
}

// ListStatuses returns every global status
func (s *Service) ListStatuses(ctx context.Context) ([]types.Status, error) {
	body, err := s.client.Get(ctx, "/rest/api/3/status", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}

	var remote []jira.Status
	if err := body.Decode(&remote); err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}

	statuses := make([]types.Status, 0, len(remote))
	for _, status := range remote {
		statuses = append(statuses, types.Status{
			ID:       status.ID,
			Name:     status.Name,
			Category: types.StatusCategory(status.StatusCategory.ID),
		})
	}
	return statuses, nil
}

// CreateStatus returns the id of the status with the given name, creating it
// in category when no status matches (ignoring case). A failed lookup is
// returned as an error rather than risking a duplicate.
func (s *Service) CreateStatus(ctx context.Context, name string, category types.StatusCategory) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", precondition("create status", "status name is required")
	}
	if !category.Valid() {
		return "", precondition("create status", "invalid status category %d", int(category))
	}

	statuses, err := s.ListStatuses(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create status %s: %w", name, err)
	}
	for _, status := range statuses {
		if strings.EqualFold(status.Name, name) {
			s.logger.Info("status already exists", zap.String("status", name), zap.String("id", status.ID))
			return status.ID, nil
		}
	}

	body, err := s.client.Post(ctx, "/rest/api/3/status", createStatusRequest{
		Name:           name,
		StatusCategory: statusCategoryRef{ID: int(category)},
		Description:    "Status " + name,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create status %s: %w", name, err)
	}

	var created createdStatus
	if err := body.Decode(&created); err != nil {
		return "", fmt.Errorf("failed to create status %s: %w", name, err)
	}
	if created.ID == "" {
		return "", apperr.Newf("create status", apperr.KindDecode, "response for %s carried no id", name)
	}

	s.logger.Info("created status",
		zap.String("status", name),
		zap.String("id", string(created.ID)),
		zap.Stringer("category", category),
	)
	return string(created.ID), nil
}

// EnsureStatuses creates every missing status in order. Failures are recorded
// in the report and do not stop the remaining statuses.
func (s *Service) EnsureStatuses(ctx context.Context, specs []types.StatusSpec) types.StatusReport {
	var report types.StatusReport
	for _, spec := range specs {
		id, err := s.CreateStatus(ctx, spec.Name, spec.Category)
		if err != nil {
			s.logger.Error("failed to ensure status", zap.String("status", spec.Name), zap.Error(err))
			report.Failed = append(report.Failed, types.StatusFailure{Name: spec.Name, Error: err.Error()})
			continue
		}
		report.Ready = append(report.Ready, types.Status{ID: id, Name: spec.Name, Category: spec.Category})
	}
	return report
}
