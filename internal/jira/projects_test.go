package jira

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clintrovert/pmctl/internal/apperr"
	"github.com/clintrovert/pmctl/pkg/types"
)

func TestCreateProjectFromTemplate(t *testing.T) {
	b := newBackend(t)
	b.reply("GET /rest/api/3/myself", http.StatusOK, `{"accountId":"acc-1"}`)
	b.handle("POST /rest/api/3/project", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		decodeBody(t, r, &req)
		assert.Equal(t, "TEST", req["key"])
		assert.Equal(t, "Test Project", req["name"])
		assert.Equal(t, "software", req["projectTypeKey"])
		assert.Equal(t, "acc-1", req["leadAccountId"])
		assert.Equal(t, "PROJECT_LEAD", req["assigneeType"])
		assert.Equal(t, DefaultProjectTemplate, req["projectTemplateKey"])
		assert.NotContains(t, req, "sharedConfigurationProjectId")

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":10010,"key":"TEST","self":"https://example/rest/api/3/project/10010"}`))
	})

	project, err := b.service(t).CreateProject(t.Context(), types.ProjectInput{
		Key:        "TEST",
		Name:       "Test Project",
		AssignToMe: true,
	})
	require.NoError(t, err)
	assert.Equal(t, &types.Project{
		ID:   "10010",
		Key:  "TEST",
		Name: "Test Project",
		Self: "https://example/rest/api/3/project/10010",
	}, project)
}

func TestCreateProjectSharingConfiguration(t *testing.T) {
	b := newBackend(t)
	b.handle("POST /rest/api/3/project", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		decodeBody(t, r, &req)
		assert.Equal(t, float64(10001), req["sharedConfigurationProjectId"])
		assert.Equal(t, "acc-7", req["leadAccountId"])
		assert.NotContains(t, req, "projectTemplateKey")
		_, _ = w.Write([]byte(`{"id":10020,"key":"SOC"}`))
	})

	_, err := b.service(t).CreateProject(t.Context(), types.ProjectInput{
		Key:                          "SOC",
		Name:                         "Social Engagement",
		LeadAccountID:                "acc-7",
		AssignToMe:                   true,
		SharedConfigurationProjectID: 10001,
	})
	require.NoError(t, err)
	assert.Zero(t, b.count("GET /rest/api/3/myself"))
}

func TestCreateProjectRequiresKeyAndName(t *testing.T) {
	b := newBackend(t)
	svc := b.service(t)

	for _, input := range []types.ProjectInput{
		{Name: "No Key"},
		{Key: "NONAME"},
	} {
		_, err := svc.CreateProject(t.Context(), input)
		require.Error(t, err)
		assert.Equal(t, apperr.KindPrecondition, apperr.KindOf(err))
	}
	assert.Zero(t, b.requests())
}

func TestCreateProjectBackendFailure(t *testing.T) {
	b := newBackend(t)
	b.reply("POST /rest/api/3/project", http.StatusBadRequest,
		`{"errors":{"projectKey":"A project with that project key already exists."}}`)

	project, err := b.service(t).CreateProject(t.Context(), types.ProjectInput{Key: "TEST", Name: "Test Project"})
	require.Error(t, err)
	assert.Nil(t, project)
	assert.Equal(t, apperr.KindStatus, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "already exists")
}

func TestGetAndDeleteProject(t *testing.T) {
	b := newBackend(t)
	b.reply("GET /rest/api/3/project/LDS", http.StatusOK, `{"id":"10001","key":"LDS","name":"Lead Source","self":"https://example/project/10001"}`)
	b.reply("DELETE /rest/api/3/project/SOC", http.StatusNoContent, "")
	svc := b.service(t)

	project, err := svc.GetProject(t.Context(), "LDS")
	require.NoError(t, err)
	assert.Equal(t, "10001", project.ID)
	assert.Equal(t, "Lead Source", project.Name)

	require.NoError(t, svc.DeleteProject(t.Context(), "SOC"))
	assert.Equal(t, 1, b.count("DELETE /rest/api/3/project/SOC"))
}
