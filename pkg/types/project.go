package types

// Project is a reference to a work-tracking project
type Project struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
	Self string `json:"self,omitempty"`
}

// ProjectInput describes a project to create.
//
// When SharedConfigurationProjectID is set the new project reuses the
// configuration (workflows, screens, schemes) of that project instead of
// being created from the default template.
type ProjectInput struct {
	Key                          string
	Name                         string
	Description                  string
	LeadAccountID                string
	AssignToMe                   bool
	SharedConfigurationProjectID int64
}

// Board is an agile board
type Board struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// BoardColumn is one column of a board and the statuses mapped to it
type BoardColumn struct {
	Name      string   `json:"name"`
	StatusIDs []string `json:"statusIds"`
}
