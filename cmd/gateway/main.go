package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/tuannvm/jira-gateway/internal/agent"
	"github.com/tuannvm/jira-gateway/internal/app"
	"github.com/tuannvm/jira-gateway/internal/auth"
	"github.com/tuannvm/jira-gateway/internal/config"
	log "github.com/tuannvm/jira-gateway/internal/logging"
	"github.com/tuannvm/jira-gateway/internal/server"
	"github.com/tuannvm/jira-gateway/internal/telemetry"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:       cfg.OTelEndpoint,
		Headers:        cfg.OTelHeaders,
		ServiceName:    cfg.OTelService,
		ServiceVersion: cfg.AgentVersion,
	})
	if err != nil {
		log.Fatalf("Failed to set up telemetry: %v", err)
	}

	resolver, err := app.NewResolver(ctx, cfg, nil, true)
	if err != nil {
		log.Fatalf("Failed to create credential resolver: %v", err)
	}
	if cached, ok := resolver.(*auth.CachedResolver); ok {
		go refreshOnHangup(ctx, cached)
	}

	dispatcher, err := app.NewDispatcher(cfg, resolver)
	if err != nil {
		log.Fatalf("Failed to create dispatcher: %v", err)
	}

	router := server.NewRouter(dispatcher, server.RouterOptions{
		Tracing:     tel != nil,
		ServiceName: cfg.OTelService,
	})

	log.Infof("Starting jira-gateway in %s mode (auth: %s)", cfg.Mode, cfg.AuthStrategy)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.New(cfg, router).Start(gctx)
	})

	if cfg.A2AEnabled {
		a2aServer, err := agent.SetupServer(agent.OptionsFromConfig(cfg, agent.NewWebhookProcessor(dispatcher)))
		if err != nil {
			log.Fatalf("Failed to set up A2A server: %v", err)
		}
		g.Go(func() error {
			return agent.StartServer(gctx, a2aServer, cfg.ServerHost, cfg.A2APort)
		})
	}

	if err := g.Wait(); err != nil {
		log.Errorf("Server error: %v", err)
	}

	if err := tel.Shutdown(context.Background()); err != nil {
		log.Errorf("Telemetry shutdown error: %v", err)
	}
	log.Infof("Server shutdown complete")
}

// refreshOnHangup reloads store credentials on SIGHUP
func refreshOnHangup(ctx context.Context, resolver *auth.CachedResolver) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := resolver.Refresh(ctx); err != nil {
				log.Errorf("Failed to refresh credentials: %v", err)
				continue
			}
			log.Infof("Credentials refreshed")
		}
	}
}
