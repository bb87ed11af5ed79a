package models

import (
	"encoding/json"
	"net/http"
	"net/url"
)

// InboundEvent is the transport-neutral view of a request received by the gateway.
// HTTP servers, Lambda handlers and the A2A agent all translate into this shape.
type InboundEvent struct {
	Method   string
	Path     string
	Headers  http.Header
	Query    url.Values
	Body     json.RawMessage
	SourceIP string
}

// Header returns the first value of the named header, case-insensitively.
func (e InboundEvent) Header(name string) string {
	if e.Headers == nil {
		return ""
	}
	return e.Headers.Get(name)
}

// HasBody reports whether the event carries a non-empty body
func (e InboundEvent) HasBody() bool {
	return len(e.Body) > 0
}

// Credentials identifies the Jira instance and the account used to reach it.
// Values are sensitive and must never be logged or returned to callers.
type Credentials struct {
	BaseURL  string
	Username string
	Secret   string
}

// Complete reports whether every part of the credentials is set
func (c Credentials) Complete() bool {
	return c.BaseURL != "" && c.Username != "" && c.Secret != ""
}

// String keeps the secret out of logs and error messages.
func (c Credentials) String() string {
	return "Credentials{BaseURL: " + c.BaseURL + ", Username: " + c.Username + ", Secret: [redacted]}"
}

// TicketDraft is the issue the gateway asks Jira to create.
type TicketDraft struct {
	ProjectKey  string                 `json:"projectKey"`
	Summary     string                 `json:"summary"`
	Description string                 `json:"description"`
	IssueType   string                 `json:"issueType"`
	Extra       map[string]interface{} `json:"extra,omitempty"` // Additional Jira fields, e.g. labels or custom fields
}

// Fields renders the draft as a Jira "fields" object. Named fields win over Extra.
func (d TicketDraft) Fields() map[string]interface{} {
	fields := make(map[string]interface{}, len(d.Extra)+4)
	for k, v := range d.Extra {
		fields[k] = v
	}
	fields["project"] = map[string]interface{}{"key": d.ProjectKey}
	fields["summary"] = d.Summary
	fields["description"] = d.Description
	fields["issuetype"] = map[string]interface{}{"name": d.IssueType}
	return fields
}

// GatewayResponse is the only output of the gateway: a status code and a JSON-serializable body.
type GatewayResponse struct {
	StatusCode int         `json:"statusCode"`
	Body       interface{} `json:"body"`
}

// Project is the trimmed view of a Jira project returned by the projects endpoint
type Project struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	ID   string `json:"id"`
}

// CreatedIssue is the reference Jira returns after creating an issue
type CreatedIssue struct {
	Key  string `json:"key"`
	ID   string `json:"id"`
	Self string `json:"self"`
}
