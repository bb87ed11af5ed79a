package main

import (
	"context"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	"github.com/tuannvm/jira-gateway/internal/app"
	"github.com/tuannvm/jira-gateway/internal/config"
	"github.com/tuannvm/jira-gateway/internal/lambda"
	log "github.com/tuannvm/jira-gateway/internal/logging"
)

func main() {
	cfg := config.NewConfig()
	if err := log.Init(cfg.LogLevel); err != nil {
		log.Warnf("Failed to initialise logger at level %q: %v", cfg.LogLevel, err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Proxy deployments resolve store credentials once per cold start; other modes per invocation.
	ctx := context.Background()
	resolver, err := app.NewResolver(ctx, cfg, nil, cfg.Mode == config.ModeProxy)
	if err != nil {
		log.Fatalf("Failed to create credential resolver: %v", err)
	}

	dispatcher, err := app.NewDispatcher(cfg, resolver)
	if err != nil {
		log.Fatalf("Failed to create dispatcher: %v", err)
	}

	log.Infof("Starting jira-gateway lambda in %s mode (auth: %s)", cfg.Mode, cfg.AuthStrategy)
	awslambda.Start(lambda.NewHandler(dispatcher).Invoke)
}
