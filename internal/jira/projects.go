package jira

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	jira "github.com/andygrunwald/go-jira"
	"go.uber.org/zap"

	"github.com/clintrovert/pmctl/pkg/types"
)

// DefaultProjectTemplate is the company-managed scrum template used when a
// project does not share another project's configuration.
const DefaultProjectTemplate = "com.pyxis.greenhopper.jira:gh-simplified-agility-scrum"

type createProjectRequest struct {
	Key                          string `json:"key"`
	Name                         string `json:"name"`
	ProjectTypeKey               string `json:"projectTypeKey"`
	Description                  string `json:"description,omitempty"`
	LeadAccountID                string `json:"leadAccountId,omitempty"`
	AssigneeType                 string `json:"assigneeType"`
	ProjectTemplateKey           string `json:"projectTemplateKey,omitempty"`
	SharedConfigurationProjectID int64  `json:"sharedConfigurationProjectId,omitempty"`
}

type createdProject struct {
	ID   jsonID `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

// CreateProject creates a software project led by the given account, or by the
// caller when AssignToMe is set and no lead is given.
func (s *Service) CreateProject(ctx context.Context, input types.ProjectInput) (*types.Project, error) {
	if strings.TrimSpace(input.Key) == "" || strings.TrimSpace(input.Name) == "" {
		return nil, precondition("create project", "project key and name are required")
	}

	lead := input.LeadAccountID
	if lead == "" && input.AssignToMe {
		id, err := s.MyAccountID(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create project %s: %w", input.Key, err)
		}
		lead = id
	}

	description := input.Description
	if description == "" {
		description = fmt.Sprintf("Project %s", input.Name)
	}

	req := createProjectRequest{
		Key:            input.Key,
		Name:           input.Name,
		ProjectTypeKey: "software",
		Description:    description,
		LeadAccountID:  lead,
		AssigneeType:   "PROJECT_LEAD",
	}
	if input.SharedConfigurationProjectID != 0 {
		req.SharedConfigurationProjectID = input.SharedConfigurationProjectID
	} else {
		req.ProjectTemplateKey = DefaultProjectTemplate
	}

	body, err := s.client.Post(ctx, "/rest/api/3/project", req)
	if err != nil {
		return nil, fmt.Errorf("failed to create project %s: %w", input.Key, err)
	}

	var created createdProject
	if err := body.Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to create project %s: %w", input.Key, err)
	}

	project := &types.Project{
		ID:   string(created.ID),
		Key:  input.Key,
		Name: input.Name,
		Self: created.Self,
	}
	if created.Key != "" {
		project.Key = created.Key
	}

	s.logger.Info("created project",
		zap.String("project", project.Key),
		zap.String("name", project.Name),
		zap.String("link", project.Self),
	)
	return project, nil
}

// GetProject returns a project by key or id
func (s *Service) GetProject(ctx context.Context, keyOrID string) (*types.Project, error) {
	if keyOrID == "" {
		return nil, precondition("get project", "project key is required")
	}

	body, err := s.client.Get(ctx, "/rest/api/3/project/"+url.PathEscape(keyOrID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get project %s: %w", keyOrID, err)
	}

	var project jira.Project
	if err := body.Decode(&project); err != nil {
		return nil, fmt.Errorf("failed to get project %s: %w", keyOrID, err)
	}

	return &types.Project{
		ID:   project.ID,
		Key:  project.Key,
		Name: project.Name,
		Self: project.Self,
	}, nil
}

// DeleteProject deletes a project. The remote service moves it to the trash.
func (s *Service) DeleteProject(ctx context.Context, keyOrID string) error {
	if keyOrID == "" {
		return precondition("delete project", "project key is required")
	}

	if _, err := s.client.Delete(ctx, "/rest/api/3/project/"+url.PathEscape(keyOrID)); err != nil {
		return fmt.Errorf("failed to delete project %s: %w", keyOrID, err)
	}

	s.logger.Info("deleted project", zap.String("project", keyOrID))
	return nil
}
