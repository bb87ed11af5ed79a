package jira

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/tuannvm/jira-gateway/internal/models"
)

// Tracker defines the Jira operations the gateway dispatches to
type Tracker interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	ServerInfo(ctx context.Context) (interface{}, error)
	CreateIssue(ctx context.Context, fields map[string]interface{}) (*models.CreatedIssue, error)
	// Do forwards a raw REST call. body may be nil.
	Do(ctx context.Context, method, path string, query url.Values, body json.RawMessage) (interface{}, error)
}

// Factory builds a Tracker for a set of credentials
type Factory func(creds models.Credentials) (Tracker, error)

// NewFactory returns a Factory creating go-atlassian backed clients with the given options
func NewFactory(opts ...Option) Factory {
	return func(creds models.Credentials) (Tracker, error) {
		return NewClient(creds, opts...)
	}
}
