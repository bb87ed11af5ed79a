package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	log "github.com/tuannvm/jira-gateway/internal/logging"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"
)

// ExtractWebhookBody returns the webhook JSON carried by a task message.
// DataParts are tried before TextParts; both value and pointer forms are accepted.
func ExtractWebhookBody(message protocol.Message) (json.RawMessage, error) {
	if len(message.Parts) == 0 {
		return nil, fmt.Errorf("message has no parts")
	}

	for _, part := range message.Parts {
		var dp *protocol.DataPart
		switch v := part.(type) {
		case protocol.DataPart:
			dp = &v
		case *protocol.DataPart:
			dp = v
		}
		if dp == nil || dp.Data == nil {
			continue
		}
		raw, err := json.Marshal(dp.Data)
		if err != nil {
			log.Warnf("Failed to marshal DataPart.Data: %v", err)
			continue
		}
		return raw, nil
	}

	for _, part := range message.Parts {
		var text string
		switch v := part.(type) {
		case protocol.TextPart:
			text = v.Text
		case *protocol.TextPart:
			if v != nil {
				text = v.Text
			}
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if !json.Valid([]byte(text)) {
			log.Debugf("Skipping TextPart that is not JSON")
			continue
		}
		return json.RawMessage(text), nil
	}

	return nil, fmt.Errorf("could not extract webhook payload from message")
}

// StringPtr returns a pointer to the given string
func StringPtr(s string) *string {
	return &s
}
