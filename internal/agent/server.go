package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/tuannvm/jira-gateway/internal/config"
	log "github.com/tuannvm/jira-gateway/internal/logging"
	"trpc.group/trpc-go/trpc-a2a-go/auth"
	"trpc.group/trpc-go/trpc-a2a-go/server"
	"trpc.group/trpc-go/trpc-a2a-go/taskmanager"
)

// SetupServerOptions contains options for setting up the A2A server
type SetupServerOptions struct {
	AgentName    string
	AgentVersion string
	AgentURL     string
	APIKey       string
	Processor    taskmanager.TaskProcessor
}

// OptionsFromConfig builds server options from the application configuration
func OptionsFromConfig(cfg *config.Config, processor taskmanager.TaskProcessor) SetupServerOptions {
	return SetupServerOptions{
		AgentName:    cfg.AgentName,
		AgentVersion: cfg.AgentVersion,
		AgentURL:     cfg.AgentURL,
		APIKey:       cfg.A2AAPIKey,
		Processor:    processor,
	}
}

// Skills returns the skills advertised on the agent card
func Skills() []server.AgentSkill {
	return []server.AgentSkill{
		{
			ID:          "create_ticket_from_webhook",
			Name:        "Create ticket from webhook",
			Description: StringPtr("Turns an Aikido security event or a generic webhook payload into a Jira ticket"),
			Tags:        []string{"jira", "webhook", "aikido"},
			Examples:    []string{`{"event_type":"issue.open.created","created_at":1712345678,"dispatched_at":1712345679,"payload":{"issue_id":42}}`},
			InputModes:  []string{"data", "text"},
			OutputModes: []string{"data", "text"},
		},
	}
}

// SetupServer creates and configures the A2A server
func SetupServer(opts SetupServerOptions) (*server.A2AServer, error) {
	agentCard := server.AgentCard{
		Name:        opts.AgentName,
		Description: StringPtr(fmt.Sprintf("%s agent", opts.AgentName)),
		URL:         opts.AgentURL,
		Version:     opts.AgentVersion,
		Provider: &server.AgentProvider{
			Organization: "jira-gateway",
		},
		DefaultInputModes:  []string{"data", "text"},
		DefaultOutputModes: []string{"data", "text"},
		Skills:             Skills(),
	}

	taskManager, err := taskmanager.NewMemoryTaskManager(opts.Processor)
	if err != nil {
		return nil, fmt.Errorf("failed to create task manager: %w", err)
	}

	// JSON-RPC at root so A2AClient.SendTasks posts to "/"
	serverOpts := []server.Option{
		server.WithJSONRPCEndpoint("/"),
		server.WithReadTimeout(2 * time.Minute),
		server.WithWriteTimeout(2 * time.Minute),
	}

	if opts.APIKey != "" {
		log.Infof("Configuring API key authentication for %s", opts.AgentName)
		provider := auth.NewAPIKeyAuthProvider(map[string]string{opts.APIKey: "webhook"}, "X-API-Key")
		serverOpts = append(serverOpts, server.WithAuthProvider(provider))
	} else {
		log.Warnf("No authentication configured for %s, running unauthenticated", opts.AgentName)
	}

	srv, err := server.NewA2AServer(agentCard, taskManager, serverOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}
	return srv, nil
}

// StartServer runs the A2A server until ctx is done, then shuts it down
func StartServer(ctx context.Context, srv *server.A2AServer, host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting A2A server on %s", addr)
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("a2a server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Infof("Shutting down A2A server...")
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
