package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	jira "github.com/andygrunwald/go-jira"
	"go.uber.org/zap"

	"github.com/clintrovert/pmctl/internal/apperr"
	"github.com/clintrovert/pmctl/pkg/types"
)

type columnConfigRequest struct {
	ColumnConfig columnConfig `json:"columnConfig"`
}

type columnConfig struct {
	Columns []columnRequest `json:"columns"`
}

type columnRequest struct {
	Name     string      `json:"name"`
	Statuses []statusRef `json:"statuses"`
}

type statusRef struct {
	ID string `json:"id"`
}

func boardPath(boardID int, parts ...string) string {
	path := "/rest/agile/1.0/board/" + strconv.Itoa(boardID)
	for _, part := range parts {
		path += "/" + part
	}
	return path
}

// ListBoards returns the boards visible to the caller, optionally limited to
// one project.
func (s *Service) ListBoards(ctx context.Context, projectKeyOrID string) ([]types.Board, error) {
	var query url.Values
	if projectKeyOrID != "" {
		query = url.Values{"projectKeyOrId": {projectKeyOrID}}
	}

	body, err := s.client.Get(ctx, "/rest/agile/1.0/board", query)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}

	var list jira.BoardsList
	if err := body.Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}

	boards := make([]types.Board, 0, len(list.Values))
	for _, board := range list.Values {
		boards = append(boards, types.Board{ID: board.ID, Name: board.Name, Type: board.Type})
	}
	return boards, nil
}

// FirstBoard returns the first board of a project, or ErrNoBoard.
func (s *Service) FirstBoard(ctx context.Context, projectKeyOrID string) (*types.Board, error) {
	boards, err := s.ListBoards(ctx, projectKeyOrID)
	if err != nil {
		return nil, err
	}
	if len(boards) == 0 {
		return nil, fmt.Errorf("%w for project %s", ErrNoBoard, projectKeyOrID)
	}
	return &boards[0], nil
}

// BoardColumns returns the ordered column configuration of a board
func (s *Service) BoardColumns(ctx context.Context, boardID int) ([]types.BoardColumn, error) {
	body, err := s.client.Get(ctx, boardPath(boardID, "configuration"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get board %d configuration: %w", boardID, err)
	}

	var cfg jira.BoardConfiguration
	if err := body.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to get board %d configuration: %w", boardID, err)
	}

	columns := make([]types.BoardColumn, 0, len(cfg.ColumnConfig.Columns))
	for _, column := range cfg.ColumnConfig.Columns {
		ids := make([]string, 0, len(column.Status))
		for _, status := range column.Status {
			ids = append(ids, status.ID)
		}
		columns = append(columns, types.BoardColumn{Name: column.Name, StatusIDs: ids})
	}
	return columns, nil
}

// UpdateBoardColumns replaces the column layout of a board. Many sites do not
// accept this through the public API; a 404 or 405 answer is reported as
// ErrBoardConfigUnsupported.
func (s *Service) UpdateBoardColumns(ctx context.Context, boardID int, columns []types.BoardColumn) error {
	if len(columns) == 0 {
		return precondition("update board columns", "at least one column is required")
	}

	req := columnConfigRequest{ColumnConfig: columnConfig{Columns: make([]columnRequest, 0, len(columns))}}
	for _, column := range columns {
		statuses := make([]statusRef, 0, len(column.StatusIDs))
		for _, id := range column.StatusIDs {
			if id != "" {
				statuses = append(statuses, statusRef{ID: id})
			}
		}
		req.ColumnConfig.Columns = append(req.ColumnConfig.Columns, columnRequest{Name: column.Name, Statuses: statuses})
	}

	if _, err := s.client.Put(ctx, boardPath(boardID, "configuration"), req); err != nil {
		var failure *apperr.Error
		if errors.As(err, &failure) &&
			(failure.StatusCode == http.StatusNotFound || failure.StatusCode == http.StatusMethodNotAllowed) {
			s.logger.Warn("board configuration update not supported", zap.Int("board_id", boardID))
			return fmt.Errorf("board %d: %w: %w", boardID, ErrBoardConfigUnsupported, err)
		}
		return fmt.Errorf("failed to update board %d columns: %w", boardID, err)
	}

	s.logger.Info("updated board columns", zap.Int("board_id", boardID), zap.Int("columns", len(columns)))
	return nil
}
