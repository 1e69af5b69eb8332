package types

// Unassigned and NoPriority are reported in IssueDetails when the field is empty.
const (
	Unassigned = "Unassigned"
	NoPriority = "None"
)

// Account is the identity behind a set of credentials
type Account struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
}

// IssueSummary is one row of a search result
type IssueSummary struct {
	Key      string `json:"key"`
	Summary  string `json:"summary"`
	Status   string `json:"status,omitempty"`
	Assignee string `json:"assignee,omitempty"`
}

// IssueDetails is the detailed view of a single issue
type IssueDetails struct {
	Key            string `json:"key"`
	Summary        string `json:"summary"`
	Status         string `json:"status"`
	Assignee       string `json:"assignee"`
	Priority       string `json:"priority"`
	Description    string `json:"description,omitempty"`
	HasDescription bool   `json:"hasDescription"`
	URL            string `json:"url"`
}

// IssueInput describes an issue to create. IssueType defaults to Task and
// ProjectKey to the configured project.
type IssueInput struct {
	Summary     string
	Description string
	IssueType   string
	ProjectKey  string
}

// IssueUpdate holds the fields to change on an issue. Empty strings are left untouched.
type IssueUpdate struct {
	Summary     string
	Description string
}

// Empty reports whether the update carries no fields.
func (u IssueUpdate) Empty() bool {
	return u.Summary == "" && u.Description == ""
}
