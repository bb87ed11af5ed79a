package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	v2 "github.com/ctreminiom/go-atlassian/v2/jira/v2"
	model "github.com/ctreminiom/go-atlassian/v2/pkg/infra/models"

	"github.com/tuannvm/jira-gateway/internal/apierror"
	"github.com/tuannvm/jira-gateway/internal/models"
)

// Client represents a Jira API client
type Client struct {
	api *v2.Client
}

// Option configures a Client
type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient sets the HTTP client used for Jira calls
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTimeout sets the timeout of the default HTTP client
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.httpClient = &http.Client{Timeout: d} }
}

// NewClient creates a new Jira client authenticated with basic auth
func NewClient(creds models.Credentials, opts ...Option) (*Client, error) {
	o := &options{httpClient: &http.Client{Timeout: time.Second * 30}}
	for _, opt := range opts {
		opt(o)
	}

	if creds.BaseURL == "" {
		return nil, errors.New("jira base url is empty")
	}

	api, err := v2.New(o.httpClient, creds.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}
	api.Auth.SetBasicAuth(creds.Username, creds.Secret)

	return &Client{api: api}, nil
}

// ListProjects fetches all non-archived projects visible to the user
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := c.call(ctx, http.MethodGet, "rest/api/2/project?includeArchived=false", nil, &projects); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// ServerInfo fetches the Jira server information
func (c *Client) ServerInfo(ctx context.Context) (interface{}, error) {
	info, res, err := c.api.Server.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get server info: %w", upstream(http.MethodGet, "rest/api/2/serverInfo", res, err))
	}
	return info, nil
}

// CreateIssue creates an issue from a Jira "fields" object
func (c *Client) CreateIssue(ctx context.Context, fields map[string]interface{}) (*models.CreatedIssue, error) {
	payload := map[string]interface{}{"fields": fields}

	var created model.IssueResponseScheme
	if err := c.call(ctx, http.MethodPost, "rest/api/2/issue", payload, &created); err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}

	return &models.CreatedIssue{
		Key:  created.Key,
		ID:   created.ID,
		Self: created.Self,
	}, nil
}

// Do forwards a REST call under the Jira base URL and returns the decoded response.
// JSON responses are returned as json.RawMessage, other bodies as a string, empty bodies as nil.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body json.RawMessage) (interface{}, error) {
	endpoint := strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payload interface{}
	if len(body) > 0 {
		payload = body
	}

	req, err := c.api.NewRequest(ctx, method, endpoint, "", payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	res, err := c.api.Call(req, nil)
	if err != nil {
		return nil, upstream(method, endpoint, res, err)
	}

	raw := bytes.TrimSpace(res.Bytes.Bytes())
	if len(raw) == 0 {
		return nil, nil
	}
	if json.Valid(raw) {
		return json.RawMessage(append([]byte(nil), raw...)), nil
	}
	return string(raw), nil
}

// call sends a JSON request and decodes the response into out
func (c *Client) call(ctx context.Context, method, endpoint string, body, out interface{}) error {
	req, err := c.api.NewRequest(ctx, method, endpoint, "", body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	res, err := c.api.Call(req, out)
	if err != nil {
		return upstream(method, endpoint, res, err)
	}
	return nil
}

// upstream wraps a failed call. Responses with an error status become *apierror.UpstreamError
// so the raw Jira body reaches the caller.
func upstream(method, endpoint string, res *model.ResponseScheme, err error) error {
	if res == nil || res.Code < http.StatusBadRequest {
		return fmt.Errorf("failed to send request: %w", err)
	}
	return &apierror.UpstreamError{
		StatusCode: res.Code,
		Method:     method,
		Endpoint:   endpoint,
		Body:       res.Bytes.String(),
		Err:        err,
	}
}
