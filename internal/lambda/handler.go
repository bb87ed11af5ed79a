// Package lambda adapts the gateway to AWS Lambda behind an API Gateway proxy integration.
package lambda

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/aws/aws-lambda-go/events"

	"github.com/tuannvm/jira-gateway/internal/apierror"
	log "github.com/tuannvm/jira-gateway/internal/logging"
	"github.com/tuannvm/jira-gateway/internal/models"
)

// Dispatcher runs one inbound event through the gateway
type Dispatcher interface {
	Dispatch(ctx context.Context, event models.InboundEvent) models.GatewayResponse
}

// Handler is the Lambda entry point for all gateway modes
type Handler struct {
	dispatcher Dispatcher
}

// NewHandler creates a Lambda handler for d
func NewHandler(d Dispatcher) *Handler {
	return &Handler{dispatcher: d}
}

// Invoke handles one invocation. API Gateway proxy events are converted field by field;
// any other JSON object is treated as a webhook body posted to "/".
func (h *Handler) Invoke(ctx context.Context, payload json.RawMessage) (resp events.APIGatewayProxyResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("panic recovered in lambda handler: %v", r)
			resp = Response(apierror.Translate(apierror.Internal("Internal server error", nil)))
			err = nil
		}
	}()

	event, err := ToInboundEvent(payload)
	if err != nil {
		return Response(apierror.Translate(err)), nil
	}

	log.Infof("Lambda invocation %s %s from %s", event.Method, event.Path, event.SourceIP)
	return Response(h.dispatcher.Dispatch(ctx, event)), nil
}

// ToInboundEvent converts a raw invocation payload into an InboundEvent
func ToInboundEvent(payload json.RawMessage) (models.InboundEvent, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return models.InboundEvent{}, apierror.Validation("Invalid JSON body")
	}

	if _, ok := fields["body"]; !ok {
		return models.InboundEvent{
			Method:  http.MethodPost,
			Path:    "/",
			Headers: http.Header{},
			Body:    payload,
		}, nil
	}

	var req events.APIGatewayProxyRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return models.InboundEvent{}, apierror.Validation("Invalid JSON body")
	}
	return FromProxyRequest(req)
}

// FromProxyRequest converts an API Gateway proxy request. A missing method defaults to GET.
func FromProxyRequest(req events.APIGatewayProxyRequest) (models.InboundEvent, error) {
	method := req.HTTPMethod
	if method == "" {
		method = http.MethodGet
	}

	path := req.Path
	if path == "" {
		path = "/"
	}

	headers := http.Header{}
	for k, values := range req.MultiValueHeaders {
		for _, v := range values {
			headers.Add(k, v)
		}
	}
	for k, v := range req.Headers {
		if headers.Get(k) == "" {
			headers.Set(k, v)
		}
	}

	query := url.Values{}
	for k, values := range req.MultiValueQueryStringParameters {
		for _, v := range values {
			query.Add(k, v)
		}
	}
	for k, v := range req.QueryStringParameters {
		if _, ok := query[k]; !ok {
			query.Set(k, v)
		}
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded && req.Body != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return models.InboundEvent{}, apierror.Validation("Invalid base64 body")
		}
		body = decoded
	}

	return models.InboundEvent{
		Method:   method,
		Path:     path,
		Headers:  headers,
		Query:    query,
		Body:     body,
		SourceIP: req.RequestContext.Identity.SourceIP,
	}, nil
}

// Response encodes a gateway response as an API Gateway proxy response
func Response(resp models.GatewayResponse) events.APIGatewayProxyResponse {
	body, err := json.Marshal(resp.Body)
	if err != nil {
		log.Errorf("Failed to encode response body: %v", err)
		resp.StatusCode = http.StatusInternalServerError
		body, _ = json.Marshal(apierror.ErrorBody{Error: "Failed to encode response"})
	}

	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}
