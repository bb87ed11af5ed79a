package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"authentication", Authentication("Invalid authentication"), http.StatusUnauthorized, "Invalid authentication"},
		{"validation", Validation("Missing required fields"), http.StatusBadRequest, "Missing required fields"},
		{"not found", NotFound("Endpoint not found"), http.StatusNotFound, "Endpoint not found"},
		{"method", MethodNotSupported("Method not supported"), http.StatusMethodNotAllowed, "Method not supported"},
		{"too large", PayloadTooLarge("Request body exceeds 10 bytes"), http.StatusRequestEntityTooLarge, "Request body exceeds 10 bytes"},
		{"internal with message", Internal("Failed to retrieve JIRA credentials", errors.New("throttled")), http.StatusInternalServerError, "Failed to retrieve JIRA credentials"},
		{"wrapped typed error", fmt.Errorf("outer: %w", Validation("Invalid JSON body")), http.StatusBadRequest, "Invalid JSON body"},
		{"upstream body", fmt.Errorf("failed to create issue: %w", &UpstreamError{StatusCode: 400, Body: `{"errors":{}}`}), http.StatusInternalServerError, `{"errors":{}}`},
		{"upstream without body", &UpstreamError{StatusCode: 502, Method: "GET", Endpoint: "rest/api/2/myself"}, http.StatusInternalServerError, "jira GET rest/api/2/myself: status 502, body: "},
		{"plain error", errors.New("dial tcp: connection refused"), http.StatusInternalServerError, "dial tcp: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := Translate(tt.err)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			body, ok := resp.Body.(ErrorBody)
			if !ok {
				t.Fatalf("Expected ErrorBody, got %T", resp.Body)
			}
			if body.Error != tt.wantError {
				t.Errorf("Expected error '%s', got '%s'", tt.wantError, body.Error)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(Authentication("x")) != KindAuthentication {
		t.Error("Expected authentication kind")
	}
	if KindOf(fmt.Errorf("wrap: %w", &UpstreamError{})) != KindUpstream {
		t.Error("Expected upstream kind")
	}
	if KindOf(errors.New("boom")) != KindInternal {
		t.Error("Expected internal kind")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("cause")
	err := Internal("Failed", cause)
	if !errors.Is(err, cause) {
		t.Error("Expected Internal to wrap its cause")
	}
	if err.Error() != "Failed: cause" {
		t.Errorf("Unexpected error string '%s'", err.Error())
	}
}
