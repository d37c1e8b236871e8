package adapters

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbxquery/dbxquery/core"
)

const testHost = "https://adb-1234.5.azuredatabricks.net"

// blockingToken signals entered and then waits for release before it sets
// a token, like a token source stuck on the identity provider.
type blockingToken struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingToken) Authenticate(r *http.Request) error {
	close(b.entered)
	<-b.release
	r.Header.Set("Authorization", "Bearer slow")
	return nil
}

type failingToken struct{}

func (failingToken) Authenticate(*http.Request) error {
	return errors.New("invalid_client")
}

type noToken struct{}

func (noToken) Authenticate(*http.Request) error {
	return nil
}

// stubResolver hands out a fixed config per profile and counts calls.
type stubResolver struct {
	mu      sync.Mutex
	configs map[string]resolvedConfig
	errs    map[string]error
	calls   map[string]int
}

func newStubResolver() *stubResolver {
	return &stubResolver{
		configs: make(map[string]resolvedConfig),
		errs:    make(map[string]error),
		calls:   make(map[string]int),
	}
}

func (s *stubResolver) resolve(params *core.ConnectionParams) (resolvedConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls[params.Profile]++
	return s.configs[params.Profile], s.errs[params.Profile]
}

func (s *stubResolver) callsFor(profile string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[profile]
}

func newTestSDKCredentials(stub *stubResolver) *sdkCredentials {
	c := newSDKCredentials()
	c.resolve = stub.resolve
	return c
}

func TestSDKCredentials_Resolve(t *testing.T) {
	r := require.New(t)

	stub := newStubResolver()
	stub.configs["dev"] = resolvedConfig{host: testHost, authenticator: staticToken("dapi-test")}
	creds := newTestSDKCredentials(stub)

	for i := 0; i < 3; i++ {
		got, err := creds.Resolve(context.Background(), &core.ConnectionParams{Profile: "dev"})
		r.NoError(err)
		r.Equal(testHost, got.Host)
	}

	// the config is resolved once and reused
	r.Equal(1, stub.callsFor("dev"))
}

func TestSDKCredentials_ResolveErrorIsNotCached(t *testing.T) {
	r := require.New(t)

	stub := newStubResolver()
	stub.errs["dev"] = errors.New("profile not found")
	creds := newTestSDKCredentials(stub)

	_, err := creds.Resolve(context.Background(), &core.ConnectionParams{Profile: "dev"})
	r.ErrorContains(err, "profile not found")

	stub.mu.Lock()
	delete(stub.errs, "dev")
	stub.configs["dev"] = resolvedConfig{host: testHost, authenticator: staticToken("dapi-test")}
	stub.mu.Unlock()

	_, err = creds.Resolve(context.Background(), &core.ConnectionParams{Profile: "dev"})
	r.NoError(err)
	r.Equal(2, stub.callsFor("dev"))
}

func TestSDKCredentials_ResolveFailures(t *testing.T) {
	testCases := []struct {
		name     string
		cfg      resolvedConfig
		kind     core.ErrorKind
		contains string
	}{
		{
			name:     "missing host",
			cfg:      resolvedConfig{authenticator: staticToken("dapi-test")},
			kind:     core.KindConfiguration,
			contains: "DATABRICKS_HOST",
		},
		{
			name:     "authenticate error",
			cfg:      resolvedConfig{host: testHost, authenticator: failingToken{}},
			contains: "invalid_client",
		},
		{
			name:     "no bearer token",
			cfg:      resolvedConfig{host: testHost, authenticator: noToken{}},
			contains: "no bearer token",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)

			stub := newStubResolver()
			stub.configs["dev"] = tc.cfg
			creds := newTestSDKCredentials(stub)

			_, err := creds.Resolve(context.Background(), &core.ConnectionParams{Profile: "dev"})
			r.ErrorContains(err, tc.contains)
			if tc.kind != core.KindUnknown {
				r.True(core.IsKind(err, tc.kind))
			}

			// failed configs are dropped
			_, _ = creds.Resolve(context.Background(), &core.ConnectionParams{Profile: "dev"})
			r.Equal(2, stub.callsFor("dev"))
		})
	}
}

func TestSDKCredentials_SlowAuthenticationDoesNotBlockOthers(t *testing.T) {
	r := require.New(t)

	slow := &blockingToken{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	t.Cleanup(func() { close(slow.release) })

	stub := newStubResolver()
	stub.configs["slow"] = resolvedConfig{host: testHost, authenticator: slow}
	stub.configs["fast"] = resolvedConfig{host: testHost, authenticator: staticToken("dapi-test")}
	creds := newTestSDKCredentials(stub)

	slowDone := make(chan error, 1)
	go func() {
		_, err := creds.Resolve(context.Background(), &core.ConnectionParams{Profile: "slow"})
		slowDone <- err
	}()

	select {
	case <-slow.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("slow authentication never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := creds.Resolve(ctx, &core.ConnectionParams{Profile: "fast"})
	r.NoError(err)
	r.Equal(testHost, got.Host)

	// still waiting on its token
	select {
	case err := <-slowDone:
		t.Fatalf("slow resolve returned early: %v", err)
	default:
	}
}

func TestSDKCredentials_AuthenticationHonorsContext(t *testing.T) {
	slow := &blockingToken{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	t.Cleanup(func() { close(slow.release) })

	stub := newStubResolver()
	stub.configs["slow"] = resolvedConfig{host: testHost, authenticator: slow}
	creds := newTestSDKCredentials(stub)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := creds.Resolve(ctx, &core.ConnectionParams{Profile: "slow"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
