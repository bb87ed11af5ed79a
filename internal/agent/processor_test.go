package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/tuannvm/jira-gateway/internal/models"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"
)

type fakeDispatcher struct {
	events []models.InboundEvent
	resp   models.GatewayResponse
}

func (f *fakeDispatcher) Dispatch(_ context.Context, event models.InboundEvent) models.GatewayResponse {
	f.events = append(f.events, event)
	return f.resp
}

type statusUpdate struct {
	state protocol.TaskState
	msg   *protocol.Message
}

type fakeHandle struct {
	updates   []statusUpdate
	artifacts []protocol.Artifact
	failAdd   bool
}

func (h *fakeHandle) UpdateStatus(state protocol.TaskState, msg *protocol.Message) error {
	h.updates = append(h.updates, statusUpdate{state: state, msg: msg})
	return nil
}

func (h *fakeHandle) AddArtifact(artifact protocol.Artifact) error {
	if h.failAdd {
		return errors.New("store unavailable")
	}
	h.artifacts = append(h.artifacts, artifact)
	return nil
}

func TestExtractWebhookBody(t *testing.T) {
	tests := []struct {
		name    string
		parts   []protocol.Part
		want    string
		wantErr bool
	}{
		{
			name:  "data part value",
			parts: []protocol.Part{protocol.DataPart{Type: "data", Data: map[string]interface{}{"event_type": "scan"}}},
			want:  `{"event_type":"scan"}`,
		},
		{
			name:  "data part pointer",
			parts: []protocol.Part{&protocol.DataPart{Type: "data", Data: map[string]interface{}{"a": 1.0}}},
			want:  `{"a":1}`,
		},
		{
			name:  "text part value",
			parts: []protocol.Part{protocol.TextPart{Type: "text", Text: ` {"event_type":"scan"} `}},
			want:  `{"event_type":"scan"}`,
		},
		{
			name:  "text part pointer",
			parts: []protocol.Part{&protocol.TextPart{Type: "text", Text: `[1,2]`}},
			want:  `[1,2]`,
		},
		{
			name: "data part preferred over text",
			parts: []protocol.Part{
				protocol.TextPart{Type: "text", Text: `{"from":"text"}`},
				protocol.DataPart{Type: "data", Data: map[string]interface{}{"from": "data"}},
			},
			want: `{"from":"data"}`,
		},
		{
			name:  "skips non-json text",
			parts: []protocol.Part{protocol.TextPart{Type: "text", Text: "please file a ticket"}, protocol.TextPart{Type: "text", Text: `{"ok":true}`}},
			want:  `{"ok":true}`,
		},
		{
			name:    "only prose",
			parts:   []protocol.Part{protocol.TextPart{Type: "text", Text: "hello"}},
			wantErr: true,
		},
		{
			name:    "no parts",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractWebhookBody(protocol.Message{Parts: tt.parts})
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractWebhookBody returned error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestProcessDispatchesWebhook(t *testing.T) {
	dispatcher := &fakeDispatcher{resp: models.GatewayResponse{
		StatusCode: http.StatusOK,
		Body:       map[string]string{"message": "Issue created successfully", "issue_key": "SYS-5"},
	}}
	handle := &fakeHandle{}
	processor := NewWebhookProcessor(dispatcher)

	msg := protocol.Message{Parts: []protocol.Part{protocol.NewTextPart(`{"event_type":"scan"}`)}}
	if err := processor.process(context.Background(), "task-1", msg, handle); err != nil {
		t.Fatalf("process returned error: %v", err)
	}

	if len(dispatcher.events) != 1 {
		t.Fatalf("Expected one dispatched event, got %d", len(dispatcher.events))
	}
	ev := dispatcher.events[0]
	if ev.Method != http.MethodPost || ev.Path != "/" || string(ev.Body) != `{"event_type":"scan"}` {
		t.Errorf("Unexpected dispatched event %+v", ev)
	}

	if len(handle.artifacts) != 1 {
		t.Fatalf("Expected one artifact, got %d", len(handle.artifacts))
	}
	if handle.artifacts[0].Metadata["status_code"] != http.StatusOK {
		t.Errorf("Expected status_code metadata, got %v", handle.artifacts[0].Metadata)
	}

	last := handle.updates[len(handle.updates)-1]
	if last.state != protocol.TaskState(StateCompleted) {
		t.Errorf("Expected completed state, got %s", last.state)
	}
	if last.msg == nil || len(last.msg.Parts) != 1 {
		t.Errorf("Expected reply message with one part, got %+v", last.msg)
	}
}

func TestProcessFailedDispatch(t *testing.T) {
	dispatcher := &fakeDispatcher{resp: models.GatewayResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       map[string]string{"error": "Failed to retrieve JIRA credentials"},
	}}
	handle := &fakeHandle{}

	msg := protocol.Message{Parts: []protocol.Part{protocol.DataPart{Type: "data", Data: map[string]interface{}{}}}}
	if err := NewWebhookProcessor(dispatcher).process(context.Background(), "task-2", msg, handle); err != nil {
		t.Fatalf("process returned error: %v", err)
	}

	last := handle.updates[len(handle.updates)-1]
	if last.state != protocol.TaskState(StateFailed) {
		t.Errorf("Expected failed state, got %s", last.state)
	}
}

func TestProcessWithoutPayload(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	handle := &fakeHandle{}

	msg := protocol.Message{Parts: []protocol.Part{protocol.NewTextPart("not a webhook")}}
	if err := NewWebhookProcessor(dispatcher).process(context.Background(), "task-3", msg, handle); err != nil {
		t.Fatalf("process returned error: %v", err)
	}

	if len(dispatcher.events) != 0 {
		t.Errorf("Expected no dispatch, got %d", len(dispatcher.events))
	}
	if handle.artifacts[0].Metadata["status_code"] != http.StatusBadRequest {
		t.Errorf("Expected 400 artifact, got %v", handle.artifacts[0].Metadata)
	}
	if handle.updates[len(handle.updates)-1].state != protocol.TaskState(StateFailed) {
		t.Error("Expected task to fail")
	}
}

func TestProcessArtifactError(t *testing.T) {
	dispatcher := &fakeDispatcher{resp: models.GatewayResponse{StatusCode: http.StatusOK, Body: map[string]string{}}}
	handle := &fakeHandle{failAdd: true}

	msg := protocol.Message{Parts: []protocol.Part{protocol.NewTextPart(`{}`)}}
	if err := NewWebhookProcessor(dispatcher).process(context.Background(), "task-4", msg, handle); err == nil {
		t.Error("Expected error when the artifact cannot be recorded")
	}
}

func TestWebhookMessage(t *testing.T) {
	msg, err := WebhookMessage(json.RawMessage(`{"event_type":"scan","payload":{"severity":"low"}}`))
	if err != nil {
		t.Fatalf("WebhookMessage returned error: %v", err)
	}

	body, err := ExtractWebhookBody(msg)
	if err != nil {
		t.Fatalf("ExtractWebhookBody returned error: %v", err)
	}
	if string(body) != `{"event_type":"scan","payload":{"severity":"low"}}` {
		t.Errorf("Unexpected round trip body %s", body)
	}

	if _, err := WebhookMessage(json.RawMessage(`{bad`)); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestSkills(t *testing.T) {
	skills := Skills()
	if len(skills) != 1 || skills[0].ID != "create_ticket_from_webhook" {
		t.Errorf("Unexpected skills %+v", skills)
	}
}
