package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/tuannvm/jira-gateway/internal/logging"
	"trpc.group/trpc-go/trpc-a2a-go/client"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"
)

// SetupA2AClient creates an A2A client for the agent at targetURL, authenticated with apiKey when set
func SetupA2AClient(targetURL, apiKey string) (*client.A2AClient, error) {
	var opts []client.Option
	if apiKey != "" {
		opts = append(opts, client.WithAPIKeyAuth(apiKey, "X-API-Key"))
	} else {
		log.Warnf("No API key configured for A2A client")
	}

	a2aClient, err := client.NewA2AClient(targetURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create A2A client: %w", err)
	}
	return a2aClient, nil
}

// WebhookMessage wraps a webhook body in a task message as a single DataPart
func WebhookMessage(body json.RawMessage) (protocol.Message, error) {
	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return protocol.Message{}, fmt.Errorf("webhook body is not valid JSON: %w", err)
	}
	return protocol.Message{
		Role:  "user",
		Parts: []protocol.Part{protocol.DataPart{Type: "data", Data: data}},
	}, nil
}

// SendWebhook submits a webhook body as a task, polls until it completes or fails,
// and returns the final state and artifact parts
func SendWebhook(ctx context.Context, a2aClient *client.A2AClient, body json.RawMessage) (protocol.TaskState, protocol.Message, error) {
	message, err := WebhookMessage(body)
	if err != nil {
		return "", protocol.Message{}, err
	}

	task, err := a2aClient.SendTasks(ctx, protocol.SendTaskParams{
		ID:      uuid.NewString(),
		Message: message,
	})
	if err != nil {
		return "", protocol.Message{}, fmt.Errorf("SendTasks RPC failed: %w", err)
	}

	for !terminal(task.Status.State) {
		select {
		case <-ctx.Done():
			return task.Status.State, protocol.Message{}, fmt.Errorf("waiting for task %s: %w", task.ID, ctx.Err())
		case <-time.After(pollInterval):
		}
		task, err = a2aClient.GetTasks(ctx, protocol.TaskQueryParams{ID: task.ID})
		if err != nil {
			return "", protocol.Message{}, fmt.Errorf("failed to get task: %w", err)
		}
		log.Debugf("Task %s status: %s", task.ID, task.Status.State)
	}

	var parts []protocol.Part
	for _, art := range task.Artifacts {
		parts = append(parts, art.Parts...)
	}
	return task.Status.State, protocol.Message{Role: "agent", Parts: parts}, nil
}

const pollInterval = time.Second

func terminal(state protocol.TaskState) bool {
	return state == protocol.TaskState(StateCompleted) || state == protocol.TaskState(StateFailed)
}
