package jira

import (
	"errors"
	"fmt"
	"strings"

	"github.com/clintrovert/pmctl/internal/apperr"
)

var (
	// ErrNothingToUpdate is returned by UpdateIssue when no field was provided.
	ErrNothingToUpdate = apperr.Newf("update issue", apperr.KindPrecondition, "no fields provided for update")
	// ErrNoAccount is returned when no account id was given and the caller's own
	// could not be resolved.
	ErrNoAccount = apperr.Newf("assign issue", apperr.KindPrecondition, "no account id to assign")
	// ErrTransitionNotFound matches every *TransitionNotFoundError.
	ErrTransitionNotFound = errors.New("transition not found")
	// ErrBoardConfigUnsupported is returned when the board configuration cannot
	// be written through the public API.
	ErrBoardConfigUnsupported = errors.New("board configuration update not supported")
	// ErrNoBoard is returned when a project has no board.
	ErrNoBoard = errors.New("no board found")
)

// TransitionNotFoundError reports a requested status that is not reachable
// from the issue's current status.
type TransitionNotFoundError struct {
	Issue     string
	Requested string
	Available []string
}

func (e *TransitionNotFoundError) Error() string {
	return fmt.Sprintf("transition %q not found for %s; available: [%s]",
		e.Requested, e.Issue, strings.Join(e.Available, ", "))
}

// Is makes errors.Is(err, ErrTransitionNotFound) hold.
func (e *TransitionNotFoundError) Is(target error) bool {
	return target == ErrTransitionNotFound
}

func precondition(op, format string, args ...any) error {
	return apperr.Newf(op, apperr.KindPrecondition, format, args...)
}
