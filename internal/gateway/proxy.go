package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tuannvm/jira-gateway/internal/apierror"
	"github.com/tuannvm/jira-gateway/internal/models"
)

func (d *Dispatcher) proxyRoutes() Table {
	return NewTable(ProxyBasePath,
		Route{Method: http.MethodPost, Pattern: "issue", Name: "proxy.create_issue", Operation: d.proxyCreateIssue},
		Route{Method: http.MethodGet, Pattern: Wildcard, Name: "proxy.get", Operation: d.passthrough},
		Route{Method: http.MethodPost, Pattern: Wildcard, Name: "proxy.post", Operation: d.passthrough},
		Route{Method: http.MethodPut, Pattern: Wildcard, Name: "proxy.put", Operation: d.passthrough},
		Route{Method: http.MethodDelete, Pattern: Wildcard, Name: "proxy.delete", Operation: d.passthrough},
	)
}

// proxyCreateIssue creates an issue from the body's "fields" object with the issue type forced
func (d *Dispatcher) proxyCreateIssue(ctx context.Context, req Request) (models.GatewayResponse, error) {
	var body struct {
		Fields map[string]interface{} `json:"fields"`
	}
	if err := decodeBody(req.Event.Body, &body); err != nil {
		return models.GatewayResponse{}, err
	}

	fields := body.Fields
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["issuetype"] = map[string]interface{}{"name": d.opts.ProxyIssueType}

	created, err := req.Tracker.CreateIssue(ctx, fields)
	if err != nil {
		return models.GatewayResponse{}, err
	}
	return ok(http.StatusOK, created), nil
}

// passthrough forwards the call to the same path on Jira. GET carries the query, POST and PUT the body.
func (d *Dispatcher) passthrough(ctx context.Context, req Request) (models.GatewayResponse, error) {
	ev := req.Event
	path := ProxyBasePath
	if len(req.Rel) > 0 {
		path += "/" + strings.Join(req.Rel, "/")
	}

	method := strings.ToUpper(ev.Method)
	var body json.RawMessage
	switch method {
	case http.MethodPost, http.MethodPut:
		if ev.HasBody() {
			if !json.Valid(ev.Body) {
				return models.GatewayResponse{}, apierror.Validation("Invalid JSON body")
			}
			body = ev.Body
		}
	}

	query := ev.Query
	if method != http.MethodGet {
		query = nil
	}

	result, err := req.Tracker.Do(ctx, method, path, query, body)
	if err != nil {
		return models.GatewayResponse{}, err
	}
	return ok(http.StatusOK, result), nil
}

// decodeBody unmarshals a JSON request body. An empty body decodes as an empty object.
func decodeBody(raw json.RawMessage, out interface{}) error {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apierror.Validation("Invalid JSON body")
	}
	return nil
}
