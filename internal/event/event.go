// Package event classifies inbound webhook bodies and maps them to Jira ticket drafts.
//
// Two shapes are recognised. Structured events follow the Aikido security scanner envelope:
//
//	{
//	  "event_type": "issue.open.created",
//	  "created_at": 1712345678,
//	  "dispatched_at": 1712345679,
//	  "payload": {"issue_id": 42, "type": "sast", "severity_score": 80, "severity": "high", "status": "open"}
//	}
//
// Anything else is a generic event, rendered from its optional event_type and payload.
// Classification only checks that keys are present; values of any JSON type are accepted.
package event

import (
	"bytes"
	"encoding/json"

	"github.com/tuannvm/jira-gateway/internal/apierror"
)

// Kind tags a classified event
type Kind string

const (
	KindStructured Kind = "structured"
	KindGeneric    Kind = "generic"
)

// StructuredEvent is the Aikido event envelope. Values keep their raw JSON form.
type StructuredEvent struct {
	EventType    json.RawMessage `json:"event_type"`
	CreatedAt    json.RawMessage `json:"created_at"`
	DispatchedAt json.RawMessage `json:"dispatched_at"`
	Payload      Payload         `json:"payload"`
}

// Payload is the issue part of a structured event
type Payload struct {
	IssueID       json.RawMessage `json:"issue_id"`
	Type          json.RawMessage `json:"type"`
	SeverityScore json.RawMessage `json:"severity_score"`
	Severity      json.RawMessage `json:"severity"`
	Status        json.RawMessage `json:"status"`
}

// GenericEvent is any webhook body that is not a structured event
type GenericEvent struct {
	EventType json.RawMessage // absent when nil
	Payload   json.RawMessage // absent when nil
}

// ClassifiedEvent is the tagged result of Classify. Exactly one of Structured and Generic is set.
type ClassifiedEvent struct {
	Kind       Kind
	Structured *StructuredEvent
	Generic    *GenericEvent
}

var requiredKeys = []string{"event_type", "created_at", "dispatched_at", "payload"}

// IsStructured reports whether body is a JSON object carrying event_type, created_at,
// dispatched_at and a payload object with an issue_id.
func IsStructured(body json.RawMessage) bool {
	fields, ok := asObject(body)
	if !ok {
		return false
	}
	for _, key := range requiredKeys {
		if _, ok := fields[key]; !ok {
			return false
		}
	}
	payload, ok := asObject(fields["payload"])
	if !ok {
		return false
	}
	_, ok = payload["issue_id"]
	return ok
}

// Classify decodes body and tags it as structured or generic.
// Bodies that are not valid JSON are rejected with a validation error.
func Classify(body json.RawMessage) (ClassifiedEvent, error) {
	if !json.Valid(body) {
		return ClassifiedEvent{}, apierror.Validation("Invalid JSON body")
	}

	if IsStructured(body) {
		return ClassifiedEvent{Kind: KindStructured, Structured: structured(body)}, nil
	}

	generic := &GenericEvent{}
	if fields, ok := asObject(body); ok {
		generic.EventType = fields["event_type"]
		generic.Payload = fields["payload"]
	}
	return ClassifiedEvent{Kind: KindGeneric, Generic: generic}, nil
}

// structured reads the envelope by exact key. json.Unmarshal into tagged fields would also
// accept case variants such as "ISSUE_ID".
func structured(body json.RawMessage) *StructuredEvent {
	fields, _ := asObject(body)
	payload, _ := asObject(fields["payload"])
	return &StructuredEvent{
		EventType:    fields["event_type"],
		CreatedAt:    fields["created_at"],
		DispatchedAt: fields["dispatched_at"],
		Payload: Payload{
			IssueID:       payload["issue_id"],
			Type:          payload["type"],
			SeverityScore: payload["severity_score"],
			Severity:      payload["severity"],
			Status:        payload["status"],
		},
	}
}

// asObject decodes raw as a JSON object. JSON null and non-objects report false.
func asObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, false
	}
	return fields, true
}
