package accounts

import "github.com/goliatone/go-accounts/core"

type Config = core.Config

type OAuthConfig = core.OAuthConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies
type RecordStore = core.RecordStore
type UsernameIndex = core.UsernameIndex
type PasswordHasher = core.PasswordHasher
type SecretProvider = core.SecretProvider

type SealDetector = core.SealDetector
type Registry = core.Registry
type Provider = core.Provider

type Account = core.Account
type Link = core.Link
type LinkState = core.LinkState

type RegisterRequest = core.RegisterRequest
type LoginRequest = core.LoginRequest

type ConnectRequest = core.ConnectRequest
type ConnectResponse = core.ConnectResponse

type CallbackRequest = core.CallbackRequest
type CallbackResult = core.CallbackResult

type TokenSet = core.TokenSet

var (
	WithLogger          = core.WithLogger
	WithLoggerProvider  = core.WithLoggerProvider
	WithMetricsRecorder = core.WithMetricsRecorder
	WithErrorMapper     = core.WithErrorMapper
	WithSecretProvider  = core.WithSecretProvider
	WithConfigProvider  = core.WithConfigProvider
	WithOptionsResolver = core.WithOptionsResolver
	WithRegistry        = core.WithRegistry
	WithRecordStore     = core.WithRecordStore
	WithUsernameIndex   = core.WithUsernameIndex
	WithNonceGenerator  = core.WithNonceGenerator
	WithPasswordHasher  = core.WithPasswordHasher
	WithIDGenerator     = core.WithIDGenerator
	WithSealDetector    = core.WithSealDetector
	WithRedirectURIs    = core.WithRedirectURIs
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}
