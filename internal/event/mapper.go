package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tuannvm/jira-gateway/internal/models"
)

// Defaults used when a field is missing from the event
const (
	defaultTimestamp   = "Unknown"
	defaultValue       = "N/A"
	defaultGenericType = "Default Event"
)

// Map renders the ticket summary and description for a classified event
func Map(ev ClassifiedEvent) (summary, description string) {
	if ev.Kind == KindStructured && ev.Structured != nil {
		return mapStructured(ev.Structured)
	}
	generic := ev.Generic
	if generic == nil {
		generic = &GenericEvent{}
	}
	return mapGeneric(generic)
}

// Draft builds the ticket draft sent to Jira for a classified event
func Draft(ev ClassifiedEvent, projectKey, issueType string) models.TicketDraft {
	summary, description := Map(ev)
	return models.TicketDraft{
		ProjectKey:  projectKey,
		Summary:     summary,
		Description: description,
		IssueType:   issueType,
	}
}

func mapStructured(ev *StructuredEvent) (string, string) {
	p := ev.Payload
	summary := fmt.Sprintf("Aikido - Issue %s", render(p.IssueID, defaultValue))

	lines := []string{
		"Created At: " + render(ev.CreatedAt, defaultTimestamp),
		"Dispatched At: " + render(ev.DispatchedAt, defaultTimestamp),
		"Issue Type: " + render(p.Type, defaultValue),
		"Severity Score: " + render(p.SeverityScore, defaultValue),
		"Severity: " + render(p.Severity, defaultValue),
		"Status: " + render(p.Status, defaultValue),
	}
	return summary, strings.Join(lines, "\n")
}

func mapGeneric(ev *GenericEvent) (string, string) {
	severity := defaultValue
	if payload, ok := asObject(ev.Payload); ok {
		severity = render(payload["severity"], defaultValue)
	}
	summary := fmt.Sprintf("%s: Severity %s", render(ev.EventType, defaultGenericType), severity)

	payload := ev.Payload
	if len(bytes.TrimSpace(payload)) == 0 {
		payload = json.RawMessage("{}")
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, payload, "", "  "); err != nil {
		return summary, string(payload)
	}
	return summary, buf.String()
}

// render formats a raw JSON value for display. Strings are shown without quotes,
// other values as their JSON text, and absent values as def.
func render(raw json.RawMessage, def string) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return def
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return string(trimmed)
}
