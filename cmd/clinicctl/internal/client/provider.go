package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic/cmd/clinicctl/internal/auth"
	"github.com/clinicdesk/clinic/pkg/sdk"
	"github.com/clinicdesk/clinic/pkg/sdk/guard"
	"github.com/clinicdesk/clinic/pkg/sdk/querycache"
	"github.com/clinicdesk/clinic/pkg/sdk/session"
)

// bootstrapTimeout bounds the identity verification done on first use.
const bootstrapTimeout = 10 * time.Second

// Options configures a Provider.
type Options struct {
	ServerURL     string
	APIPrefix     string
	Timeout       time.Duration
	UploadTimeout time.Duration
	// ConfigDir holds credentials.json and returnto.json.
	ConfigDir  string
	CacheSize  int
	CacheTTL   time.Duration
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Provider lazily builds the per-process token store, SDK client, session,
// query cache and route policy. Each is created at most once.
type Provider struct {
	opts        Options
	bearerToken sdk.Credential // ephemeral token that bypasses the credential store

	storeOnce sync.Once
	store     sdk.TokenStore
	storeErr  error

	sdkOnce   sync.Once
	sdkClient *sdk.Client
	sdkErr    error

	sessionOnce sync.Once
	session     *session.Manager
	sessionErr  error

	cacheOnce sync.Once
	cache     *querycache.Cache

	queriesOnce sync.Once
	queries     *querycache.Queries
	queriesErr  error

	policyOnce sync.Once
	policy     *guard.Policy
	policyErr  error
}

// NewProvider constructs a new Provider.
func NewProvider(opts Options) *Provider {
	return &Provider{opts: opts}
}

// SetBearerToken injects an ephemeral credential (e.g. from CLINIC_TOKEN).
// It is held in memory and never written to the credential store.
func (p *Provider) SetBearerToken(token string) {
	p.bearerToken = sdk.Credential(token)
}

// ConfigDir returns the directory holding per-user state.
func (p *Provider) ConfigDir() string {
	return p.opts.ConfigDir
}

// ServerURL returns the API server URL.
func (p *Provider) ServerURL() string {
	return p.opts.ServerURL
}

// Logger returns the logger handed to the SDK.
func (p *Provider) Logger() zerolog.Logger {
	return p.opts.Logger
}

// TokenStore returns the durable credential store, or an in-memory store
// when an ephemeral bearer token is set.
func (p *Provider) TokenStore() (sdk.TokenStore, error) {
	p.storeOnce.Do(func() {
		if p.bearerToken != "" {
			p.store = sdk.NewMemoryStore(p.bearerToken)
			return
		}
		store, err := auth.NewFileStore(p.opts.ConfigDir)
		if err != nil {
			p.storeErr = fmt.Errorf("failed to create credential store: %w", err)
			return
		}
		p.store = store
	})
	if p.storeErr != nil {
		return nil, p.storeErr
	}
	return p.store, nil
}

// SDKClient returns an SDK client reading credentials from TokenStore.
func (p *Provider) SDKClient() (*sdk.Client, error) {
	p.sdkOnce.Do(func() {
		store, err := p.TokenStore()
		if err != nil {
			p.sdkErr = err
			return
		}

		opts := []sdk.ClientOption{sdk.WithTokenStore(store)}
		if p.opts.HTTPClient != nil {
			opts = append(opts, sdk.WithHTTPClient(p.opts.HTTPClient))
		}
		if p.opts.APIPrefix != "" {
			opts = append(opts, sdk.WithAPIPrefix(p.opts.APIPrefix))
		}
		if p.opts.Timeout > 0 {
			opts = append(opts, sdk.WithTimeout(p.opts.Timeout))
		}
		if p.opts.UploadTimeout > 0 {
			opts = append(opts, sdk.WithUploadTimeout(p.opts.UploadTimeout))
		}
		p.sdkClient = sdk.NewClient(p.opts.ServerURL, opts...)
	})
	if p.sdkErr != nil {
		return nil, p.sdkErr
	}
	return p.sdkClient, nil
}

// Session returns the process session, bootstrapped from the stored
// credential on first use.
func (p *Provider) Session(ctx context.Context) (*session.Manager, error) {
	p.sessionOnce.Do(func() {
		sdkClient, err := p.SDKClient()
		if err != nil {
			p.sessionErr = err
			return
		}
		p.session = session.New(sdkClient.TokenStore(), sdkClient, session.WithLogger(p.opts.Logger))
		p.Cache().Follow(p.session)

		ctx, cancel := ensureTimeout(ctx, bootstrapTimeout)
		defer cancel()
		snap := p.session.Bootstrap(ctx)
		p.opts.Logger.Debug().Stringer("state", snap.State).Msg("session bootstrapped")
	})
	if p.sessionErr != nil {
		return nil, p.sessionErr
	}
	return p.session, nil
}

// Cache returns the query cache. Once Session has been called it is purged
// whenever the signed-in identity changes.
func (p *Provider) Cache() *querycache.Cache {
	p.cacheOnce.Do(func() {
		var opts []querycache.Option
		if p.opts.CacheSize > 0 {
			opts = append(opts, querycache.WithSize(p.opts.CacheSize))
		}
		if p.opts.CacheTTL > 0 {
			opts = append(opts, querycache.WithTTL(p.opts.CacheTTL))
		}
		opts = append(opts, querycache.WithLogger(p.opts.Logger))
		p.cache = querycache.New(opts...)
	})
	return p.cache
}

// Queries returns the cached query layer over the SDK client.
func (p *Provider) Queries() (*querycache.Queries, error) {
	p.queriesOnce.Do(func() {
		sdkClient, err := p.SDKClient()
		if err != nil {
			p.queriesErr = err
			return
		}
		p.queries = querycache.NewQueries(sdkClient, p.Cache())
	})
	if p.queriesErr != nil {
		return nil, p.queriesErr
	}
	return p.queries, nil
}

// Policy returns the portal route policy.
func (p *Provider) Policy() (*guard.Policy, error) {
	p.policyOnce.Do(func() {
		p.policy, p.policyErr = guard.NewPolicy()
	})
	if p.policyErr != nil {
		return nil, p.policyErr
	}
	return p.policy, nil
}

func ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}

	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	return ctxWithTimeout, cancel
}
