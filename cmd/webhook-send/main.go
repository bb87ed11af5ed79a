package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tuannvm/jira-gateway/internal/agent"
	"github.com/tuannvm/jira-gateway/internal/config"
	log "github.com/tuannvm/jira-gateway/internal/logging"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"
)

// Sends a webhook JSON file to the gateway's A2A agent and prints the gateway response
func main() {
	cfg := config.NewConfig()

	url := flag.String("url", cfg.AgentURL, "A2A agent URL")
	timeout := flag.Duration("timeout", 30*time.Second, "overall timeout")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: webhook-send [-url URL] [-timeout 30s] event.json")
		os.Exit(2)
	}

	body, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to read event file: %v", err)
	}

	a2aClient, err := agent.SetupA2AClient(*url, cfg.A2AAPIKey)
	if err != nil {
		log.Fatalf("Failed to create A2A client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	log.Infof("Sending webhook to %s", *url)
	state, result, err := agent.SendWebhook(ctx, a2aClient, body)
	if err != nil {
		log.Fatalf("Failed to send webhook: %v", err)
	}

	log.Infof("Task finished with state %s", state)
	for _, part := range result.Parts {
		var data interface{}
		switch p := part.(type) {
		case protocol.DataPart:
			data = p.Data
		case *protocol.DataPart:
			data = p.Data
		default:
			continue
		}
		out, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(out))
	}

	if state != protocol.TaskState(agent.StateCompleted) {
		os.Exit(1)
	}
}
