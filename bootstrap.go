package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-accounts/config"
	"github.com/goliatone/go-accounts/core"
	"github.com/goliatone/go-accounts/security"
	redisstore "github.com/goliatone/go-accounts/store/redis"
	sqlstore "github.com/goliatone/go-accounts/store/sql"
)

// Runtime is a service assembled from Settings together with the
// resources it owns.
type Runtime struct {
	Service  *Service
	Facade   *Facade
	Settings config.Settings
	Bundles  map[string]any

	redirectURIs map[string]string
	closers      []func() error
}

type BootstrapOption func(*bootstrapOptions)

type bootstrapOptions struct {
	hooks          *ExtensionHooks
	httpClient     core.HTTPDoer
	passwordHasher core.PasswordHasher
	serviceOptions []Option
}

func WithExtensionHooks(hooks *ExtensionHooks) BootstrapOption {
	return func(options *bootstrapOptions) {
		options.hooks = hooks
	}
}

// WithHTTPClient replaces the client used for provider token and
// profile calls.
func WithHTTPClient(client core.HTTPDoer) BootstrapOption {
	return func(options *bootstrapOptions) {
		options.httpClient = client
	}
}

func WithBootstrapPasswordHasher(hasher core.PasswordHasher) BootstrapOption {
	return func(options *bootstrapOptions) {
		options.passwordHasher = hasher
	}
}

// WithServiceOptions appends service options after the ones derived
// from Settings, so they take precedence.
func WithServiceOptions(opts ...Option) BootstrapOption {
	return func(options *bootstrapOptions) {
		options.serviceOptions = append(options.serviceOptions, opts...)
	}
}

// Bootstrap opens the configured store, registers enabled providers
// and builds the service. Close releases the store.
func Bootstrap(ctx context.Context, settings config.Settings, opts ...BootstrapOption) (*Runtime, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	options := bootstrapOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&options)
	}

	runtime := &Runtime{
		Settings:     settings,
		redirectURIs: redirectURIs(settings),
	}
	serviceOptions, err := runtime.openStore(ctx, settings)
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*Runtime, error) {
		_ = runtime.Close()
		return nil, err
	}

	providers, err := ProvidersFromSettings(settings, options.httpClient)
	if err != nil {
		return fail(err)
	}
	registry, err := core.NewProviderRegistry(providers...)
	if err != nil {
		return fail(err)
	}
	if err := options.hooks.ApplyProviderPacks(registry); err != nil {
		return fail(err)
	}
	serviceOptions = append(serviceOptions,
		WithRegistry(registry),
		WithConfigProvider(core.NewCfgxConfigProvider(settings)),
		WithRedirectURIs(runtime.redirectURIs),
		WithSealDetector(security.EnvelopeDetector{}),
	)

	hasher := options.passwordHasher
	if hasher == nil {
		hasher = security.NewArgon2Hasher()
	}
	serviceOptions = append(serviceOptions, WithPasswordHasher(hasher))

	if key := strings.TrimSpace(settings.SecretKey); key != "" {
		secrets, err := security.NewAppKeySecretProviderFromString(key)
		if err != nil {
			return fail(err)
		}
		serviceOptions = append(serviceOptions, WithSecretProvider(secrets))
	}
	serviceOptions = append(serviceOptions, options.serviceOptions...)

	service, err := NewService(Config{}, serviceOptions...)
	if err != nil {
		return fail(err)
	}
	facade, err := NewFacade(service)
	if err != nil {
		return fail(err)
	}
	bundles, err := options.hooks.BuildCommandQueryBundles(service)
	if err != nil {
		return fail(err)
	}

	runtime.Service = service
	runtime.Facade = facade
	runtime.Bundles = bundles
	return runtime, nil
}

func (r *Runtime) openStore(ctx context.Context, settings config.Settings) ([]Option, error) {
	switch settings.Store {
	case config.StoreMemory:
		store := core.NewMemoryRecordStore()
		return []Option{WithRecordStore(store), WithUsernameIndex(store)}, nil
	case config.StoreRedis:
		store, err := redisstore.Open(ctx, settings.RedisURI)
		if err != nil {
			return nil, fmt.Errorf("accounts: open redis store: %w", err)
		}
		r.closers = append(r.closers, store.Close)
		return []Option{WithRecordStore(store), WithUsernameIndex(store)}, nil
	case config.StoreSQL:
		storeOptions := []sqlstore.Option{}
		if settings.UsernameCacheTTL > 0 {
			cacheConfig := repositorycache.DefaultConfig()
			cacheConfig.TTL = settings.UsernameCacheTTL
			cacheService, err := repositorycache.NewCacheService(cacheConfig)
			if err != nil {
				return nil, fmt.Errorf("accounts: build username cache: %w", err)
			}
			storeOptions = append(storeOptions, sqlstore.WithUsernameCache(cacheService))
		}
		store, err := sqlstore.Open(ctx, sqlstore.Config{
			Driver: settings.DBDriver,
			DSN:    settings.DBDSN,
		}, storeOptions...)
		if err != nil {
			return nil, fmt.Errorf("accounts: open sql store: %w", err)
		}
		r.closers = append(r.closers, store.Close)
		return []Option{WithRecordStore(store), WithUsernameIndex(store)}, nil
	default:
		return nil, fmt.Errorf("accounts: unsupported store %q", settings.Store)
	}
}

// RedirectURI returns the configured callback URL for providerID, or
// an empty string when none is set.
func (r *Runtime) RedirectURI(providerID string) string {
	if r == nil {
		return ""
	}
	return r.redirectURIs[strings.ToLower(strings.TrimSpace(providerID))]
}

func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	closers := r.closers
	r.closers = nil
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
