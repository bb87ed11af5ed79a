// Package agent exposes webhook ingestion as an A2A task endpoint. Each task carries one
// webhook body, which is dispatched exactly like an HTTP POST to the webhook gateway.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tuannvm/jira-gateway/internal/apierror"
	log "github.com/tuannvm/jira-gateway/internal/logging"
	"github.com/tuannvm/jira-gateway/internal/models"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"
	"trpc.group/trpc-go/trpc-a2a-go/taskmanager"
)

// Task states reported while processing a webhook task
const (
	StateDispatching = "dispatching"
	StateCompleted   = "completed"
	StateFailed      = "failed"
)

// Dispatcher runs one inbound event through the gateway
type Dispatcher interface {
	Dispatch(ctx context.Context, event models.InboundEvent) models.GatewayResponse
}

// statusReporter is the part of taskmanager.TaskHandle the processor uses
type statusReporter interface {
	UpdateStatus(state protocol.TaskState, msg *protocol.Message) error
	AddArtifact(artifact protocol.Artifact) error
}

// WebhookProcessor implements taskmanager.TaskProcessor for webhook tasks
type WebhookProcessor struct {
	dispatcher Dispatcher
}

var _ taskmanager.TaskProcessor = (*WebhookProcessor)(nil)

// NewWebhookProcessor creates a processor dispatching to d
func NewWebhookProcessor(d Dispatcher) *WebhookProcessor {
	return &WebhookProcessor{dispatcher: d}
}

// Process implements taskmanager.TaskProcessor
func (p *WebhookProcessor) Process(ctx context.Context, taskID string, msg protocol.Message, handle taskmanager.TaskHandle) error {
	return p.process(ctx, taskID, msg, handle)
}

func (p *WebhookProcessor) process(ctx context.Context, taskID string, msg protocol.Message, handle statusReporter) error {
	log.Infof("Processing webhook task %s", taskID)

	body, err := ExtractWebhookBody(msg)
	if err != nil {
		log.Warnf("Task %s: %v", taskID, err)
		return p.finish(handle, taskID, models.GatewayResponse{
			StatusCode: http.StatusBadRequest,
			Body:       apierror.ErrorBody{Error: "Invalid JSON body"},
		})
	}

	if err := handle.UpdateStatus(protocol.TaskState(StateDispatching), nil); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	resp := p.dispatcher.Dispatch(ctx, models.InboundEvent{
		Method: http.MethodPost,
		Path:   "/",
		Body:   body,
	})
	return p.finish(handle, taskID, resp)
}

// finish records the gateway response as an artifact and completes or fails the task
func (p *WebhookProcessor) finish(handle statusReporter, taskID string, resp models.GatewayResponse) error {
	encoded, err := json.Marshal(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to marshal gateway response: %w", err)
	}

	var data interface{}
	if err := json.Unmarshal(encoded, &data); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}

	artifact := protocol.Artifact{
		Name:        StringPtr("gateway_response"),
		Description: StringPtr("Jira gateway response"),
		Parts: []protocol.Part{
			protocol.DataPart{Type: "data", Data: data},
		},
		Metadata: map[string]interface{}{
			"status_code": resp.StatusCode,
		},
	}
	if err := handle.AddArtifact(artifact); err != nil {
		return fmt.Errorf("failed to record artifact: %w", err)
	}

	state := StateCompleted
	if resp.StatusCode >= http.StatusBadRequest {
		state = StateFailed
	}

	reply := &protocol.Message{
		Role:  "agent",
		Parts: []protocol.Part{protocol.NewTextPart(string(encoded))},
	}
	if err := handle.UpdateStatus(protocol.TaskState(state), reply); err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}

	log.Infof("Task %s %s with status %d", taskID, state, resp.StatusCode)
	return nil
}
