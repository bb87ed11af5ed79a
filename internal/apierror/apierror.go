// Package apierror holds the gateway's error taxonomy and the single translation from errors
// to HTTP responses. Components return these errors; only the outer handler calls Translate.
package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tuannvm/jira-gateway/internal/models"
)

// Kind classifies a gateway error
type Kind int

const (
	KindInternal Kind = iota
	KindAuthentication
	KindValidation
	KindNotFound
	KindMethodNotSupported
	KindUpstream
	KindPayloadTooLarge
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindMethodNotSupported:
		return "method_not_supported"
	case KindUpstream:
		return "upstream"
	case KindPayloadTooLarge:
		return "payload_too_large"
	default:
		return "internal"
	}
}

// Status returns the HTTP status code for the kind
func (k Kind) Status() int {
	switch k {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindMethodNotSupported:
		return http.StatusMethodNotAllowed
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// Error is a typed gateway failure carrying the message shown to the caller
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Authentication reports missing or malformed credentials
func Authentication(message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message}
}

// Validation reports a request that lacks required input
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NotFound reports an unknown endpoint
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// MethodNotSupported reports an HTTP verb with no route
func MethodNotSupported(message string) *Error {
	return &Error{Kind: KindMethodNotSupported, Message: message}
}

// PayloadTooLarge reports a request body over the transport's size limit
func PayloadTooLarge(message string) *Error {
	return &Error{Kind: KindPayloadTooLarge, Message: message}
}

// Internal wraps a failure whose details stay server-side
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// UpstreamError is returned when Jira answered with a non-2xx status
type UpstreamError struct {
	StatusCode int
	Method     string
	Endpoint   string
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("jira %s %s: status %d, body: %s", e.Method, e.Endpoint, e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ErrorBody is the JSON body of every failed response
type ErrorBody struct {
	Error string `json:"error"`
}

// Translate maps an error to the response returned to the caller.
// Upstream errors surface Jira's raw response text, typed errors their message,
// and anything else its error string.
func Translate(err error) models.GatewayResponse {
	var upstream *UpstreamError
	if errors.As(err, &upstream) && upstream.Body != "" {
		return models.GatewayResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       ErrorBody{Error: upstream.Body},
		}
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.Kind == KindInternal && apiErr.Message == "" {
			return models.GatewayResponse{
				StatusCode: http.StatusInternalServerError,
				Body:       ErrorBody{Error: apiErr.Error()},
			}
		}
		return models.GatewayResponse{
			StatusCode: apiErr.Kind.Status(),
			Body:       ErrorBody{Error: apiErr.Message},
		}
	}

	return models.GatewayResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       ErrorBody{Error: err.Error()},
	}
}

// KindOf returns the kind of err, KindUpstream for Jira failures and KindInternal otherwise
func KindOf(err error) Kind {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return KindUpstream
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindInternal
}
