// Package app wires configuration into a ready dispatcher for the entry points.
package app

import (
	"context"
	"fmt"

	"github.com/tuannvm/jira-gateway/internal/auth"
	"github.com/tuannvm/jira-gateway/internal/config"
	"github.com/tuannvm/jira-gateway/internal/gateway"
	"github.com/tuannvm/jira-gateway/internal/jira"
	log "github.com/tuannvm/jira-gateway/internal/logging"
	"github.com/tuannvm/jira-gateway/internal/models"
	"github.com/tuannvm/jira-gateway/internal/secrets"
)

// NewResolver builds the credential resolver for cfg.AuthStrategy.
// With cache set, store credentials are fetched once now and reused.
func NewResolver(ctx context.Context, cfg *config.Config, store secrets.ParameterStore, cache bool) (auth.Resolver, error) {
	switch cfg.AuthStrategy {
	case config.AuthBearer:
		return auth.NewHeaderResolver(auth.SchemeBearer, cfg.JiraBaseURL), nil
	case config.AuthBasic:
		return auth.NewHeaderResolver(auth.SchemeBasic, cfg.JiraBaseURL), nil
	case config.AuthStore:
		if store == nil {
			var err error
			store, err = secrets.NewSSMStoreFromRegion(ctx, cfg.SSMRegion, cfg.SSMWithDecryption)
			if err != nil {
				return nil, err
			}
		}
		resolver := auth.NewStoreResolver(store, cfg.SSMURLParam, cfg.SSMUsernameParam, cfg.SSMPasswordParam)
		if !cache {
			return resolver, nil
		}
		cached := auth.NewCachedResolver(ctx, resolver)
		if _, err := cached.Resolve(ctx, models.InboundEvent{}); err != nil {
			log.Warnf("Initial credential lookup failed, requests will fail until refreshed: %v", err)
		}
		return cached, nil
	default:
		return nil, fmt.Errorf("unsupported auth strategy %q", cfg.AuthStrategy)
	}
}

// NewDispatcher builds the gateway dispatcher for cfg
func NewDispatcher(cfg *config.Config, resolver auth.Resolver) (*gateway.Dispatcher, error) {
	trackers := jira.NewFactory(jira.WithTimeout(cfg.JiraTimeout))
	return gateway.New(gateway.OptionsFromConfig(cfg), resolver, trackers)
}
