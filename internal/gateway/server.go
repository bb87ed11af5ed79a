package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tuannvm/jira-gateway/internal/apierror"
	"github.com/tuannvm/jira-gateway/internal/models"
)

// ProjectsResponse wraps the project listing
type ProjectsResponse struct {
	Projects []models.Project `json:"projects"`
}

// ServerInfoResponse wraps the Jira server information
type ServerInfoResponse struct {
	ServerInfo interface{} `json:"server_info"`
}

// IssueResponse wraps a created issue
type IssueResponse struct {
	Issue *models.CreatedIssue `json:"issue"`
}

var requiredIssueFields = []string{"project_key", "summary", "description"}

func (d *Dispatcher) serverRoutes() Table {
	return NewTable(d.opts.BasePath,
		Route{Method: http.MethodGet, Pattern: "projects", Name: "server.list_projects", Operation: d.listProjects},
		Route{Method: http.MethodGet, Pattern: "serverInfo", Name: "server.server_info", Operation: d.serverInfo},
		Route{Method: http.MethodPost, Pattern: "issue", Name: "server.create_issue", Operation: d.serverCreateIssue},
	)
}

func (d *Dispatcher) listProjects(ctx context.Context, req Request) (models.GatewayResponse, error) {
	projects, err := req.Tracker.ListProjects(ctx)
	if err != nil {
		return models.GatewayResponse{}, err
	}
	if projects == nil {
		projects = []models.Project{}
	}
	return ok(http.StatusOK, ProjectsResponse{Projects: projects}), nil
}

func (d *Dispatcher) serverInfo(ctx context.Context, req Request) (models.GatewayResponse, error) {
	info, err := req.Tracker.ServerInfo(ctx)
	if err != nil {
		return models.GatewayResponse{}, err
	}
	return ok(http.StatusOK, ServerInfoResponse{ServerInfo: info}), nil
}

// serverCreateIssue creates an issue from project_key, summary and description.
// issue_type defaults to Task; "fields" carries additional Jira fields. A null value counts as absent.
func (d *Dispatcher) serverCreateIssue(ctx context.Context, req Request) (models.GatewayResponse, error) {
	var body map[string]json.RawMessage
	if err := decodeBody(req.Event.Body, &body); err != nil {
		return models.GatewayResponse{}, err
	}

	for _, field := range requiredIssueFields {
		if !present(body[field]) {
			return models.GatewayResponse{}, apierror.Validation("Missing required fields")
		}
	}

	draft := models.TicketDraft{
		ProjectKey:  text(body["project_key"]),
		Summary:     text(body["summary"]),
		Description: text(body["description"]),
		IssueType:   d.opts.DefaultIssueType,
	}
	if raw := body["issue_type"]; present(raw) {
		draft.IssueType = text(raw)
	}
	if raw, ok := body["fields"]; ok {
		if err := json.Unmarshal(raw, &draft.Extra); err != nil {
			return models.GatewayResponse{}, apierror.Validation("Invalid fields object")
		}
	}

	created, err := req.Tracker.CreateIssue(ctx, draft.Fields())
	if err != nil {
		return models.GatewayResponse{}, err
	}
	return ok(http.StatusCreated, IssueResponse{Issue: created}), nil
}

// present reports whether a body field was sent with a non-null value
func present(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed != "" && trimmed != "null"
}

// text renders a JSON value as a string; non-string values use their JSON text
func text(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
