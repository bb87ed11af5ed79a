// Package auth resolves the Jira credentials used for a request, either from the
// request's Authorization header or from a parameter store.
package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tuannvm/jira-gateway/internal/apierror"
	log "github.com/tuannvm/jira-gateway/internal/logging"
	"github.com/tuannvm/jira-gateway/internal/models"
	"github.com/tuannvm/jira-gateway/internal/secrets"
)

// Resolver obtains the credentials for one inbound event
type Resolver interface {
	Resolve(ctx context.Context, event models.InboundEvent) (models.Credentials, error)
}

// Header schemes understood by HeaderResolver
const (
	SchemeBearer = "Bearer"
	SchemeBasic  = "Basic"
)

// ErrCredentialsUnavailable is returned when the parameter store cannot provide credentials
var ErrCredentialsUnavailable = apierror.Internal("Failed to retrieve JIRA credentials", nil)

// HeaderResolver decodes "<Scheme> base64(username:secret)" from the Authorization header.
// The Jira base URL is fixed per deployment.
type HeaderResolver struct {
	Scheme  string
	BaseURL string
}

// NewHeaderResolver creates a header resolver for the given scheme
func NewHeaderResolver(scheme, baseURL string) *HeaderResolver {
	return &HeaderResolver{Scheme: scheme, BaseURL: baseURL}
}

// Resolve implements Resolver
func (r *HeaderResolver) Resolve(_ context.Context, event models.InboundEvent) (models.Credentials, error) {
	username, secret, err := DecodeAuthorization(r.Scheme, event.Header("Authorization"))
	if err != nil {
		return models.Credentials{}, err
	}
	return models.Credentials{BaseURL: r.BaseURL, Username: username, Secret: secret}, nil
}

// DecodeAuthorization splits an Authorization header of the given scheme into username and secret.
// Bearer headers require both parts to be non-empty.
func DecodeAuthorization(scheme, header string) (string, string, error) {
	prefix := scheme + " "
	if !strings.HasPrefix(header, prefix) {
		return "", "", prefixError(scheme)
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return "", "", formatError(scheme)
	}

	username, secret, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", formatError(scheme)
	}
	if scheme == SchemeBearer && (username == "" || secret == "") {
		return "", "", formatError(scheme)
	}
	return username, secret, nil
}

func prefixError(scheme string) error {
	if scheme == SchemeBasic {
		return apierror.Authentication("Basic authentication required")
	}
	return apierror.Authentication("Invalid authentication")
}

func formatError(scheme string) error {
	if scheme == SchemeBasic {
		return apierror.Authentication("Invalid authentication format")
	}
	return apierror.Authentication("Invalid authentication")
}

// StoreResolver reads the Jira URL, username and password from a parameter store
// with one batched call per resolution.
type StoreResolver struct {
	store        secrets.ParameterStore
	urlName      string
	usernameName string
	passwordName string
}

// NewStoreResolver creates a resolver reading the three named parameters
func NewStoreResolver(store secrets.ParameterStore, urlName, usernameName, passwordName string) *StoreResolver {
	return &StoreResolver{
		store:        store,
		urlName:      urlName,
		usernameName: usernameName,
		passwordName: passwordName,
	}
}

// Resolve implements Resolver. The event is ignored.
func (r *StoreResolver) Resolve(ctx context.Context, _ models.InboundEvent) (models.Credentials, error) {
	values, err := r.store.GetParameters(ctx, []string{r.urlName, r.usernameName, r.passwordName})
	if err != nil {
		log.Errorf("Failed to retrieve Jira credentials from parameter store: %v", err)
		return models.Credentials{}, fmt.Errorf("%w: %w", ErrCredentialsUnavailable, err)
	}

	creds := models.Credentials{
		BaseURL:  values[r.urlName],
		Username: values[r.usernameName],
		Secret:   values[r.passwordName],
	}
	if !creds.Complete() {
		log.Errorf("Parameter store returned incomplete Jira credentials (url set: %t, username set: %t, password set: %t)",
			creds.BaseURL != "", creds.Username != "", creds.Secret != "")
		return models.Credentials{}, ErrCredentialsUnavailable
	}
	return creds, nil
}

// CachedResolver resolves credentials once and serves them for the lifetime of the process.
// Credentials are not refreshed automatically; call Refresh to pick up rotated values.
type CachedResolver struct {
	inner Resolver

	mu    sync.RWMutex
	creds models.Credentials
	err   error
}

// NewCachedResolver resolves through inner immediately. A failed initial resolution is kept
// and returned to every caller until Refresh succeeds.
func NewCachedResolver(ctx context.Context, inner Resolver) *CachedResolver {
	c := &CachedResolver{inner: inner}
	c.creds, c.err = inner.Resolve(ctx, models.InboundEvent{})
	return c
}

// Resolve implements Resolver
func (c *CachedResolver) Resolve(_ context.Context, _ models.InboundEvent) (models.Credentials, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds, c.err
}

// Refresh re-resolves the credentials. On failure the previous good value is kept.
func (c *CachedResolver) Refresh(ctx context.Context) error {
	creds, err := c.inner.Resolve(ctx, models.InboundEvent{})
	if err != nil {
		return fmt.Errorf("refresh credentials: %w", err)
	}
	c.mu.Lock()
	c.creds, c.err = creds, nil
	c.mu.Unlock()
	return nil
}

// IsCredentialsUnavailable reports whether err came from a failed store lookup
func IsCredentialsUnavailable(err error) bool {
	return errors.Is(err, ErrCredentialsUnavailable)
}
