// Package orchestrator composes domain operations into multi-step, best-effort
// workflows. Nothing here is transactional: a failed step leaves earlier steps
// in place.
package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/clintrovert/pmctl/pkg/types"
)

// Tracker is the subset of the work-tracking service the orchestrations use
type Tracker interface {
	AddComment(ctx context.Context, key, text string) error
	TransitionIssue(ctx context.Context, key, status string) error
	GetIssue(ctx context.Context, key string) (*types.IssueDetails, error)
	EnsureStatuses(ctx context.Context, specs []types.StatusSpec) types.StatusReport
	CreateProject(ctx context.Context, input types.ProjectInput) (*types.Project, error)
	GetProject(ctx context.Context, keyOrID string) (*types.Project, error)
	DeleteProject(ctx context.Context, keyOrID string) error
	FirstBoard(ctx context.Context, projectKeyOrID string) (*types.Board, error)
	UpdateBoardColumns(ctx context.Context, boardID int, columns []types.BoardColumn) error
}

// TaskPoller emits newly seen open tasks until ctx is done
type TaskPoller interface {
	Start(ctx context.Context, taskChan chan<- types.IssueSummary)
}

// Orchestrator runs composite operations against a Tracker
type Orchestrator struct {
	tracker Tracker
	logger  *zap.Logger
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(tracker Tracker, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		tracker: tracker,
		logger:  logger,
	}
}

// Promote comments on an issue (when comment is non-empty), moves it to
// status and returns its refreshed details. It stops at the first failing step.
func (o *Orchestrator) Promote(ctx context.Context, key, status, comment string) (*types.IssueDetails, error) {
	if comment != "" {
		if err := o.tracker.AddComment(ctx, key, comment); err != nil {
			return nil, fmt.Errorf("failed to promote %s: %w", key, err)
		}
	}

	if err := o.tracker.TransitionIssue(ctx, key, status); err != nil {
		return nil, fmt.Errorf("failed to promote %s: %w", key, err)
	}

	details, err := o.tracker.GetIssue(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to promote %s: %w", key, err)
	}

	o.logger.Info("promoted issue",
		zap.String("issue", key),
		zap.String("status", details.Status),
	)
	return details, nil
}

// Watch starts the poller and calls handle for every new task until ctx is
// done. Handler errors are logged and do not stop the loop.
func (o *Orchestrator) Watch(ctx context.Context, poller TaskPoller, handle func(types.IssueSummary) error) error {
	taskChan := make(chan types.IssueSummary, 10)

	// Start polling in background
	go poller.Start(ctx, taskChan)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-taskChan:
			if err := handle(task); err != nil {
				o.logger.Error("failed to process task",
					zap.String("issue", task.Key),
					zap.Error(err),
				)
			}
		}
	}
}
