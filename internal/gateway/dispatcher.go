// Package gateway routes inbound events to Jira operations for the webhook, proxy and
// server modes and turns their results into gateway responses.
package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tuannvm/jira-gateway/internal/apierror"
	"github.com/tuannvm/jira-gateway/internal/auth"
	"github.com/tuannvm/jira-gateway/internal/config"
	"github.com/tuannvm/jira-gateway/internal/jira"
	log "github.com/tuannvm/jira-gateway/internal/logging"
	"github.com/tuannvm/jira-gateway/internal/models"
	"github.com/tuannvm/jira-gateway/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ProxyBasePath is the path prefix served in proxy mode and forwarded to Jira unchanged
const ProxyBasePath = "/rest/api/2"

// Options holds the per-mode settings of a Dispatcher
type Options struct {
	Mode             string
	BasePath         string // server mode only
	ProjectKey       string // webhook drafts
	WebhookIssueType string
	ProxyIssueType   string // forced on proxied issue creation
	DefaultIssueType string // server mode when issue_type is absent
	DryRun           bool   // webhook mode skips issue creation
}

// OptionsFromConfig derives dispatcher options from the application configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Mode:             cfg.Mode,
		BasePath:         cfg.ServerBasePath,
		ProjectKey:       cfg.WebhookProjectKey,
		WebhookIssueType: cfg.WebhookIssueType,
		ProxyIssueType:   cfg.ProxyIssueType,
		DryRun:           cfg.WebhookDryRun,
	}
}

func (o *Options) applyDefaults() {
	if o.ProjectKey == "" {
		o.ProjectKey = "SYS"
	}
	if o.WebhookIssueType == "" {
		o.WebhookIssueType = "Ticket"
	}
	if o.ProxyIssueType == "" {
		o.ProxyIssueType = "Ticket"
	}
	if o.DefaultIssueType == "" {
		o.DefaultIssueType = "Task"
	}
}

// Dispatcher resolves credentials for an inbound event, routes it and runs the matching operation
type Dispatcher struct {
	opts     Options
	table    Table
	resolver auth.Resolver
	trackers jira.Factory
}

// New creates a dispatcher for opts.Mode
func New(opts Options, resolver auth.Resolver, trackers jira.Factory) (*Dispatcher, error) {
	if resolver == nil {
		return nil, fmt.Errorf("credential resolver is required")
	}
	if trackers == nil {
		return nil, fmt.Errorf("tracker factory is required")
	}
	opts.applyDefaults()

	d := &Dispatcher{opts: opts, resolver: resolver, trackers: trackers}
	switch opts.Mode {
	case config.ModeWebhook:
		d.table = d.webhookRoutes()
	case config.ModeProxy:
		d.table = d.proxyRoutes()
	case config.ModeServer:
		d.table = d.serverRoutes()
	default:
		return nil, fmt.Errorf("unsupported mode %q", opts.Mode)
	}
	return d, nil
}

// Mode returns the mode the dispatcher serves
func (d *Dispatcher) Mode() string {
	return d.opts.Mode
}

// Routes returns the dispatcher's route table
func (d *Dispatcher) Routes() Table {
	return d.table
}

// Dispatch handles one inbound event and always produces a response.
// Errors are translated here and nowhere else.
func (d *Dispatcher) Dispatch(ctx context.Context, event models.InboundEvent) models.GatewayResponse {
	ctx, span := telemetry.Tracer().Start(ctx, "gateway.dispatch", trace.WithAttributes(
		attribute.String("gateway.mode", d.opts.Mode),
		attribute.String("http.request.method", event.Method),
		attribute.String("url.path", event.Path),
	))
	defer span.End()

	resp, err := d.Handle(ctx, event)
	if err != nil {
		kind := apierror.KindOf(err)
		span.SetAttributes(attribute.String("gateway.error.kind", kind.String()))
		if kind == apierror.KindInternal || kind == apierror.KindUpstream {
			span.RecordError(err)
			span.SetStatus(codes.Error, kind.String())
			log.Errorf("%s %s failed: %v", event.Method, event.Path, err)
		} else {
			log.Infof("%s %s rejected (%s): %v", event.Method, event.Path, kind, err)
		}
		resp = apierror.Translate(err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	return resp
}

// Handle runs the event and returns the operation result or the error to translate.
// Credentials are resolved before routing so unauthenticated requests never reach Jira.
func (d *Dispatcher) Handle(ctx context.Context, event models.InboundEvent) (models.GatewayResponse, error) {
	if event.Method == "" {
		event.Method = http.MethodGet
	}

	creds, err := d.resolver.Resolve(ctx, event)
	if err != nil {
		return models.GatewayResponse{}, err
	}

	route, rel, err := d.table.Lookup(event.Method, event.Path)
	if err != nil {
		return models.GatewayResponse{}, err
	}

	tracker, err := d.trackers(creds)
	if err != nil {
		return models.GatewayResponse{}, fmt.Errorf("failed to create jira client: %w", err)
	}

	log.Debugf("Dispatching %s %s to %s", event.Method, event.Path, route.Name)
	return route.Operation(ctx, Request{Event: event, Rel: rel, Tracker: tracker})
}

// ok builds a successful response
func ok(status int, body interface{}) models.GatewayResponse {
	return models.GatewayResponse{StatusCode: status, Body: body}
}
