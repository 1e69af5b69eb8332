package types

import (
	"fmt"
	"strconv"
	"strings"
)

// StatusCategory is one of the three fixed status classifications. The values
// are the remote category ids.
type StatusCategory int

const (
	CategoryToDo       StatusCategory = 2
	CategoryDone       StatusCategory = 3
	CategoryInProgress StatusCategory = 4
)

// String returns the display name of the category.
func (c StatusCategory) String() string {
	switch c {
	case CategoryToDo:
		return "To Do"
	case CategoryInProgress:
		return "In Progress"
	case CategoryDone:
		return "Done"
	default:
		return fmt.Sprintf("StatusCategory(%d)", int(c))
	}
}

// Valid reports whether c is one of the three known categories.
func (c StatusCategory) Valid() bool {
	return c == CategoryToDo || c == CategoryInProgress || c == CategoryDone
}

// ParseStatusCategory accepts a category name ("To Do", "in-progress", "done")
// or its numeric id.
func ParseStatusCategory(s string) (StatusCategory, error) {
	normalized := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch normalized {
	case "todo", "new":
		return CategoryToDo, nil
	case "inprogress", "indeterminate":
		return CategoryInProgress, nil
	case "done":
		return CategoryDone, nil
	}
	if id, err := strconv.Atoi(normalized); err == nil && StatusCategory(id).Valid() {
		return StatusCategory(id), nil
	}
	return 0, fmt.Errorf("unknown status category %q (want To Do, In Progress or Done)", s)
}

// Status is a global issue status
type Status struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Category StatusCategory `json:"categoryId"`
}

// StatusSpec names a status that should exist
type StatusSpec struct {
	Name     string
	Category StatusCategory
}

// StatusFailure records a status that could not be ensured
type StatusFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// StatusReport is the outcome of ensuring a list of statuses. Ready keeps the
// order of the request.
type StatusReport struct {
	Ready  []Status        `json:"ready"`
	Failed []StatusFailure `json:"failed,omitempty"`
}

// OK reports whether every status was ensured.
func (r StatusReport) OK() bool {
	return len(r.Failed) == 0
}

// IDs maps status names to their ids.
func (r StatusReport) IDs() map[string]string {
	ids := make(map[string]string, len(r.Ready))
	for _, s := range r.Ready {
		ids[s.Name] = s.ID
	}
	return ids
}
