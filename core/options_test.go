package core

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

type fixedConfigProvider struct {
	cfg Config
}

func (p *fixedConfigProvider) Load(context.Context, Config) (Config, error) {
	return p.cfg, nil
}

type fixedOptionsResolver struct {
	cfg Config
}

func (r *fixedOptionsResolver) Resolve(Config, Config, Config) (Config, error) {
	return r.cfg, nil
}

func TestNewService_DefaultDependencies(t *testing.T) {
	svc, err := NewService(Config{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	deps := svc.Dependencies()
	if deps.Logger == nil || deps.LoggerProvider == nil {
		t.Fatalf("expected default logger and provider")
	}
	if deps.ErrorMapper == nil || deps.ConfigProvider == nil || deps.OptionsResolver == nil {
		t.Fatalf("expected default error mapper, config provider and resolver")
	}
	if deps.RecordStore == nil || deps.UsernameIndex == nil {
		t.Fatalf("expected default in-memory store")
	}
	if deps.NonceGenerator == nil {
		t.Fatalf("expected default nonce generator")
	}
	cfg := svc.Config()
	if cfg.ServiceName != "accounts" {
		t.Fatalf("expected default service_name=accounts, got %q", cfg.ServiceName)
	}
	if cfg.OAuth.NonceLength != DefaultNonceLength || cfg.OAuth.ExchangeBeforeStateCheck {
		t.Fatalf("unexpected default oauth config %+v", cfg.OAuth)
	}
}

func TestNewService_WithXOverrides(t *testing.T) {
	customLogger := stubLogger{}
	sentinel := errors.New("sentinel")
	customMapper := func(error) *goerrors.Error {
		return goerrors.Wrap(sentinel, goerrors.CategoryOperation, "mapped")
	}
	store := NewMemoryRecordStore()
	configProvider := &fixedConfigProvider{cfg: Config{ServiceName: "from-provider"}}
	resolved := DefaultConfig()
	resolved.ServiceName = "resolved"
	optionsResolver := &fixedOptionsResolver{cfg: resolved}

	svc, err := NewService(Config{ServiceName: "runtime"},
		WithLogger(customLogger),
		WithLoggerProvider(stubLoggerProvider{logger: customLogger}),
		WithErrorMapper(customMapper),
		WithSecretProvider(testSecretProvider{}),
		WithConfigProvider(configProvider),
		WithOptionsResolver(optionsResolver),
		WithRecordStore(store),
		WithPasswordHasher(plainHasher{}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	deps := svc.Dependencies()
	if deps.RecordStore != store || deps.UsernameIndex != store {
		t.Fatalf("expected record store to double as username index")
	}
	if deps.SecretProvider == nil || deps.PasswordHasher == nil {
		t.Fatalf("expected secret provider and password hasher overrides")
	}
	if svc.Config().ServiceName != "resolved" {
		t.Fatalf("expected resolver output, got %q", svc.Config().ServiceName)
	}
	var rich *goerrors.Error
	if !goerrors.As(svc.mapError(errors.New("x")), &rich) || rich.Message != "mapped" {
		t.Fatalf("expected custom mapper output, got %#v", rich)
	}
}

type fieldsOnlyStore struct {
	RecordStore
}

func TestNewService_RequiresUsernameIndex(t *testing.T) {
	_, err := NewService(Config{}, WithRecordStore(fieldsOnlyStore{RecordStore: NewMemoryRecordStore()}))
	if err == nil {
		t.Fatalf("expected error when store has no username index")
	}
}

func TestCfgxConfigProvider_LoadsRawValues(t *testing.T) {
	provider := NewCfgxConfigProvider(mapRawLoader{values: map[string]any{
		"service_name": "accounts-api",
		"oauth": map[string]any{
			"nonce_length":                32,
			"exchange_before_state_check": true,
		},
	}})
	cfg, err := provider.Load(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServiceName != "accounts-api" || cfg.OAuth.NonceLength != 32 || !cfg.OAuth.ExchangeBeforeStateCheck {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestCfgxConfigProvider_ValidatesNonceLength(t *testing.T) {
	provider := NewCfgxConfigProvider(StaticConfigLoader(map[string]any{
		"oauth": map[string]any{"nonce_length": 4},
	}))
	if _, err := provider.Load(context.Background(), DefaultConfig()); err == nil {
		t.Fatalf("expected validation error for short nonce length")
	}
}

func TestGoOptionsResolver_RuntimeOverridesConfig(t *testing.T) {
	loaded := DefaultConfig()
	loaded.ServiceName = "from-config"
	loaded.OAuth.NonceLength = 48
	runtime := Config{ServiceName: "from-runtime"}

	cfg, err := GoOptionsResolver{}.Resolve(DefaultConfig(), loaded, runtime)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.ServiceName != "from-runtime" {
		t.Fatalf("expected runtime service name, got %q", cfg.ServiceName)
	}
	if cfg.OAuth.NonceLength != 48 {
		t.Fatalf("expected config nonce length 48, got %d", cfg.OAuth.NonceLength)
	}
}

func TestNewService_LoadsConfigThroughProvider(t *testing.T) {
	svc, err := NewService(Config{},
		WithConfigProvider(NewCfgxConfigProvider(mapRawLoader{values: map[string]any{
			"oauth": map[string]any{"exchange_before_state_check": true},
		}})),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if !svc.Config().OAuth.ExchangeBeforeStateCheck {
		t.Fatalf("expected exchange_before_state_check from config provider")
	}
}
