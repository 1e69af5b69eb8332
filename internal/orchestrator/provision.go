package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/clintrovert/pmctl/internal/apperr"
	"github.com/clintrovert/pmctl/internal/jira"
	"github.com/clintrovert/pmctl/pkg/types"
)

// ProvisionInput describes a project and the board columns it should end up with.
// Each column maps to the status of the same name.
type ProvisionInput struct {
	Project types.ProjectInput
	Columns []types.StatusSpec
}

// ProvisionReport records what each provisioning step achieved
type ProvisionReport struct {
	Project            *types.Project     `json:"project,omitempty"`
	ProjectExisted     bool               `json:"projectExisted"`
	Board              *types.Board       `json:"board,omitempty"`
	Statuses           types.StatusReport `json:"statuses"`
	ColumnsUpdated     bool               `json:"columnsUpdated"`
	ColumnsUnsupported bool               `json:"columnsUnsupported,omitempty"`
	Problems           []string           `json:"problems,omitempty"`
}

// OK reports whether every step succeeded.
func (r ProvisionReport) OK() bool {
	return len(r.Problems) == 0
}

func (r *ProvisionReport) problem(format string, args ...any) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

// SetupStatuses ensures the given statuses exist, defaulting to the delivery
// workflow set.
func (o *Orchestrator) SetupStatuses(ctx context.Context, specs []types.StatusSpec) types.StatusReport {
	if len(specs) == 0 {
		specs = jira.DefaultStatuses
	}

	report := o.tracker.EnsureStatuses(ctx, specs)
	o.logger.Info("statuses ensured",
		zap.Int("ready", len(report.Ready)),
		zap.Int("failed", len(report.Failed)),
	)
	return report
}

// ProvisionProject creates a project (or adopts an existing one with the same
// key), finds its first board, ensures the column statuses exist and then
// tries to lay out the board columns. Only a project that can neither be
// created nor found is returned as an error; later failures are recorded in
// the report.
func (o *Orchestrator) ProvisionProject(ctx context.Context, input ProvisionInput) (ProvisionReport, error) {
	var report ProvisionReport

	project, err := o.tracker.CreateProject(ctx, input.Project)
	if err != nil {
		existing, getErr := o.tracker.GetProject(ctx, input.Project.Key)
		if getErr != nil {
			return report, fmt.Errorf("failed to provision project %s: %w", input.Project.Key, err)
		}
		o.logger.Info("project already exists", zap.String("project", existing.Key))
		project = existing
		report.ProjectExisted = true
	}
	report.Project = project

	board, err := o.tracker.FirstBoard(ctx, project.Key)
	if err != nil {
		report.problem("find board: %v", err)
		return report, nil
	}
	report.Board = board

	columns := input.Columns
	if len(columns) == 0 {
		columns = jira.DefaultStatuses
	}
	report.Statuses = o.tracker.EnsureStatuses(ctx, columns)
	for _, failure := range report.Statuses.Failed {
		report.problem("status %s: %s", failure.Name, failure.Error)
	}

	ids := report.Statuses.IDs()
	layout := make([]types.BoardColumn, 0, len(columns))
	for _, column := range columns {
		id, ok := ids[column.Name]
		if !ok {
			continue
		}
		layout = append(layout, types.BoardColumn{Name: column.Name, StatusIDs: []string{id}})
	}
	if len(layout) == 0 {
		report.problem("update columns: no status ids available")
		return report, nil
	}

	if err := o.tracker.UpdateBoardColumns(ctx, board.ID, layout); err != nil {
		report.ColumnsUnsupported = errors.Is(err, jira.ErrBoardConfigUnsupported)
		report.problem("update columns: %v", err)
		return report, nil
	}
	report.ColumnsUpdated = true

	o.logger.Info("provisioned project",
		zap.String("project", project.Key),
		zap.Int("board_id", board.ID),
		zap.Int("columns", len(layout)),
	)
	return report, nil
}

// MigrateInput names the project to recreate and the project whose
// configuration it should share.
type MigrateInput struct {
	SourceKey  string
	TargetKey  string
	TargetName string
}

// MigrateProject recreates TargetKey with the shared configuration of
// SourceKey. An existing target project is deleted first.
func (o *Orchestrator) MigrateProject(ctx context.Context, input MigrateInput) (*types.Project, error) {
	source, err := o.tracker.GetProject(ctx, input.SourceKey)
	if err != nil {
		return nil, fmt.Errorf("failed to find source project %s: %w", input.SourceKey, err)
	}

	sourceID, err := strconv.ParseInt(source.ID, 10, 64)
	if err != nil {
		return nil, apperr.Newf("migrate project", apperr.KindDecode, "source project %s has non-numeric id %q", input.SourceKey, source.ID)
	}

	if _, err := o.tracker.GetProject(ctx, input.TargetKey); err == nil {
		o.logger.Info("deleting existing target project", zap.String("project", input.TargetKey))
		if err := o.tracker.DeleteProject(ctx, input.TargetKey); err != nil {
			return nil, fmt.Errorf("failed to delete project %s: %w", input.TargetKey, err)
		}
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("failed to check project %s: %w", input.TargetKey, err)
	}

	project, err := o.tracker.CreateProject(ctx, types.ProjectInput{
		Key:                          input.TargetKey,
		Name:                         input.TargetName,
		AssignToMe:                   true,
		SharedConfigurationProjectID: sourceID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to recreate project %s: %w", input.TargetKey, err)
	}

	o.logger.Info("migrated project",
		zap.String("project", project.Key),
		zap.String("shared_with", input.SourceKey),
	)
	return project, nil
}

func isNotFound(err error) bool {
	var failure *apperr.Error
	return errors.As(err, &failure) && failure.StatusCode == http.StatusNotFound
}
