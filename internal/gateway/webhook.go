package gateway

import (
	"context"
	"net/http"

	"github.com/tuannvm/jira-gateway/internal/event"
	log "github.com/tuannvm/jira-gateway/internal/logging"
	"github.com/tuannvm/jira-gateway/internal/models"
)

// WebhookResponse is returned after a webhook event was turned into a ticket
type WebhookResponse struct {
	Message  string `json:"message"`
	IssueKey string `json:"issue_key"`
}

func (d *Dispatcher) webhookRoutes() Table {
	return NewTable("",
		Route{Method: http.MethodPost, Pattern: Wildcard, Name: "webhook.create_ticket", Operation: d.createTicketFromEvent},
	)
}

// createTicketFromEvent classifies the body, maps it to a draft and creates the issue
func (d *Dispatcher) createTicketFromEvent(ctx context.Context, req Request) (models.GatewayResponse, error) {
	ev, err := event.Classify(req.Event.Body)
	if err != nil {
		return models.GatewayResponse{}, err
	}

	draft := event.Draft(ev, d.opts.ProjectKey, d.opts.WebhookIssueType)
	log.Infof("Received %s event, creating ticket %q in %s", ev.Kind, draft.Summary, draft.ProjectKey)

	issueKey := "N/A"
	if d.opts.DryRun {
		log.Infof("Dry run enabled, skipping issue creation")
	} else {
		created, err := req.Tracker.CreateIssue(ctx, draft.Fields())
		if err != nil {
			return models.GatewayResponse{}, err
		}
		issueKey = created.Key
		log.Infof("Created issue %s", issueKey)
	}

	return ok(http.StatusOK, WebhookResponse{Message: "Issue created successfully", IssueKey: issueKey}), nil
}
