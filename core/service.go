package core

import (
	"context"
	"fmt"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

type Service struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorMapper     ErrorMapper
	secretProvider  SecretProvider
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	registry        Registry
	recordStore     RecordStore
	usernameIndex   UsernameIndex
	nonceGenerator  NonceGenerator
	passwordHasher  PasswordHasher
	idGenerator     IDGenerator
	sealDetector    SealDetector
	redirectURIs    map[string]string
}

type ServiceDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorMapper     ErrorMapper
	SecretProvider  SecretProvider
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
	Registry        Registry
	RecordStore     RecordStore
	UsernameIndex   UsernameIndex
	NonceGenerator  NonceGenerator
	PasswordHasher  PasswordHasher
}

// NewService resolves configuration through the config provider and
// options resolver, then fills unset collaborators with in-memory
// defaults. A RecordStore that also implements UsernameIndex is used
// for both.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("accounts", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("accounts"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = accountErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.registry == nil {
		builder.registry = MustProviderRegistry()
	}
	if builder.nonceGenerator == nil {
		builder.nonceGenerator = AlphanumericNonceGenerator{}
	}
	if builder.idGenerator == nil {
		builder.idGenerator = defaultIDGenerator
	}
	if builder.recordStore == nil {
		memory := NewMemoryRecordStore()
		builder.recordStore = memory
		if builder.usernameIndex == nil {
			builder.usernameIndex = memory
		}
	}
	if builder.sealDetector == nil {
		if detector, ok := builder.secretProvider.(SealDetector); ok {
			builder.sealDetector = detector
		}
	}
	if builder.usernameIndex == nil {
		index, ok := builder.recordStore.(UsernameIndex)
		if !ok {
			return nil, mapBuildError(builder.errorMapper, fmt.Errorf("core: username index is required"))
		}
		builder.usernameIndex = index
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	return &Service{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorMapper:     builder.errorMapper,
		secretProvider:  builder.secretProvider,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		registry:        builder.registry,
		recordStore:     builder.recordStore,
		usernameIndex:   builder.usernameIndex,
		nonceGenerator:  builder.nonceGenerator,
		passwordHasher:  builder.passwordHasher,
		idGenerator:     builder.idGenerator,
		sealDetector:    builder.sealDetector,
		redirectURIs:    normalizeRedirectURIs(builder.redirectURIs),
	}, nil
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:          s.logger,
		LoggerProvider:  s.loggerProvider,
		MetricsRecorder: s.metricsRecorder,
		ErrorMapper:     s.errorMapper,
		SecretProvider:  s.secretProvider,
		ConfigProvider:  s.configProvider,
		OptionsResolver: s.optionsResolver,
		Registry:        s.registry,
		RecordStore:     s.recordStore,
		UsernameIndex:   s.usernameIndex,
		NonceGenerator:  s.nonceGenerator,
		PasswordHasher:  s.passwordHasher,
	}
}

func (s *Service) resolveProvider(providerID string) (Provider, error) {
	if s == nil || s.registry == nil {
		return nil, s.mapError(fmt.Errorf("core: registry unavailable"))
	}
	provider, ok := s.registry.Get(providerID)
	if !ok {
		return nil, ProviderNotFoundError(providerID)
	}
	return provider, nil
}

// requireUser returns NotFound when userID has no record.
func (s *Service) requireUser(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return BadInputError("user id is required")
	}
	exists, err := s.recordStore.Exists(ctx, userID)
	if err != nil {
		return InternalError(err, "check account existence")
	}
	if !exists {
		return NotFoundError(userID)
	}
	return nil
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func normalizeRedirectURIs(input map[string]string) map[string]string {
	out := make(map[string]string, len(input))
	for providerID, uri := range input {
		id := normalizeProviderID(providerID)
		uri = strings.TrimSpace(uri)
		if id == "" || uri == "" {
			continue
		}
		out[id] = uri
	}
	return out
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	if mapped := mapper(err); mapped != nil {
		return mapped
	}
	return err
}
