package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/databricks/databricks-sdk-go/config"
	"github.com/databricks/databricks-sql-go/auth"

	"github.com/dbxquery/dbxquery/core"
)

type databricksCredentials struct {
	// Host is the workspace host as resolved by the credential chain.
	Host          string
	Authenticator auth.Authenticator
}

// credentialResolver acquires workspace credentials for the given host and
// profile. An empty profile means the default credential chain.
type credentialResolver interface {
	Resolve(ctx context.Context, params *core.ConnectionParams) (*databricksCredentials, error)
}

var _ credentialResolver = (*sdkCredentials)(nil)

// resolvedConfig is a workspace config after the SDK picked a credential
// strategy for it.
type resolvedConfig struct {
	host          string
	authenticator auth.Authenticator
}

type configEntry struct {
	once sync.Once
	cfg  resolvedConfig
	err  error
}

// sdkCredentials resolves credentials with the Databricks SDK unified auth.
// Resolved configs are cached per connection and the SDK refreshes tokens.
// The lock only guards the cache map, resolving and authenticating happen
// outside of it.
type sdkCredentials struct {
	mu    sync.Mutex
	cache map[string]*configEntry

	resolve func(params *core.ConnectionParams) (resolvedConfig, error)
}

func newSDKCredentials() *sdkCredentials {
	return &sdkCredentials{
		cache:   make(map[string]*configEntry),
		resolve: resolveSDKConfig,
	}
}

func resolveSDKConfig(params *core.ConnectionParams) (resolvedConfig, error) {
	cfg := &config.Config{
		Profile: params.Profile,
		Host:    params.Host,
	}
	if err := cfg.EnsureResolved(); err != nil {
		return resolvedConfig{}, fmt.Errorf("cfg.EnsureResolved: %w", err)
	}

	return resolvedConfig{
		host:          cfg.Host,
		authenticator: cfg,
	}, nil
}

func (s *sdkCredentials) entry(key string) *configEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.cache[key]
	if !ok {
		e = new(configEntry)
		s.cache[key] = e
	}
	return e
}

// forget drops a failed entry so the next call resolves again.
func (s *sdkCredentials) forget(key string, e *configEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache[key] == e {
		delete(s.cache, key)
	}
}

func (s *sdkCredentials) Resolve(ctx context.Context, params *core.ConnectionParams) (*databricksCredentials, error) {
	key := strings.Join([]string{string(params.ID), params.Profile, params.Host}, "|")

	e := s.entry(key)
	e.once.Do(func() {
		e.cfg, e.err = s.resolve(params)
	})
	if e.err != nil {
		s.forget(key, e)
		return nil, e.err
	}

	if e.cfg.host == "" {
		s.forget(key, e)
		return nil, core.ConfigurationErrorf("DATABRICKS_HOST is not set and the credential configuration does not name a host")
	}

	if err := checkToken(ctx, e.cfg); err != nil {
		s.forget(key, e)
		return nil, err
	}

	return &databricksCredentials{
		Host:          e.cfg.host,
		Authenticator: e.cfg.authenticator,
	}, nil
}

// checkToken authenticates a throwaway request so credential failures surface
// before any statement is sent. The authenticator does not take a context,
// so it runs in its own goroutine and ctx bounds the wait.
func checkToken(ctx context.Context, cfg resolvedConfig) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.host, nil)
	if err != nil {
		return fmt.Errorf("http.NewRequest: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cfg.authenticator.Authenticate(req)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("cfg.Authenticate: %w", err)
		}
	case <-ctx.Done():
		return fmt.Errorf("cfg.Authenticate: %w", ctx.Err())
	}

	if bearerToken(req.Header) == "" {
		return errors.New("credential provider returned no bearer token")
	}
	return nil
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(h http.Header) string {
	token, ok := strings.CutPrefix(h.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// credentialHint tells the user how to fix a credential failure. Only
// profile mode names a profile.
func credentialHint(params *core.ConnectionParams) string {
	if params.AuthMode() == core.AuthModeProfile {
		return fmt.Sprintf("Ensure 'databricks auth login' is configured for profile '%s'", params.Profile)
	}
	return "Ensure the default Databricks credentials (DATABRICKS_HOST with DATABRICKS_TOKEN " +
		"or DATABRICKS_CLIENT_ID/DATABRICKS_CLIENT_SECRET) are available"
}
