package core

import (
	"context"
	"net/http"

	glog "github.com/goliatone/go-logger/glog"
)

// RecordStore is a hash-per-entity store keyed by user id. Writes are
// field-level; there are no multi-field transactions.
type RecordStore interface {
	// GetField returns ErrFieldNotFound when the record or field is absent.
	GetField(ctx context.Context, userID string, field string) (string, error)
	SetField(ctx context.Context, userID string, field string, value string) error
	DeleteFields(ctx context.Context, userID string, fields ...string) error
	GetAll(ctx context.Context, userID string) (map[string]string, error)
	Exists(ctx context.Context, userID string) (bool, error)
	Delete(ctx context.Context, userID string) error
}

// UsernameIndex maps usernames to user ids.
type UsernameIndex interface {
	// Reserve inserts username -> userID only when username is free.
	Reserve(ctx context.Context, username string, userID string) (bool, error)
	// Lookup returns ErrUsernameNotFound when username is unknown.
	Lookup(ctx context.Context, username string) (string, error)
	Release(ctx context.Context, username string) error
}

// HTTPDoer is the HTTP client capability used for provider calls.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type NonceGenerator interface {
	Generate(length int) (string, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password string, encoded string) (bool, error)
}

type SecretProvider interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

// SealDetector tells sealed token values apart from plaintext ones.
// Secret providers may implement it.
type SealDetector interface {
	IsSealed(value []byte) bool
}

type AuthorizeRequest struct {
	State         string
	RedirectURI   string
	CodeChallenge string
	Scopes        []string
}

type ExchangeRequest struct {
	Code         string
	RedirectURI  string
	CodeVerifier string
}

// TokenSet is the token endpoint response. Only AccessToken and
// RefreshToken are persisted.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	ExpiresIn    int64
	Raw          map[string]any
}

type Profile struct {
	ProviderUserID string
	DisplayName    string
	Raw            map[string]any
}

type TokenExchanger interface {
	Exchange(ctx context.Context, req ExchangeRequest) (TokenSet, error)
}

type ProfileFetcher interface {
	FetchProfile(ctx context.Context, accessToken string) (Profile, error)
}

type Provider interface {
	ID() string
	UsesPKCE() bool
	AuthorizeURL(req AuthorizeRequest) (string, error)
	TokenExchanger
	ProfileFetcher
}

type Registry interface {
	Register(provider Provider) error
	Get(providerID string) (Provider, bool)
	List() []Provider
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type RegisterRequest struct {
	Username string
	Password string
}

type LoginRequest struct {
	Username string
	Password string
}

type ConnectRequest struct {
	UserID      string
	ProviderID  string
	RedirectURI string
	Scopes      []string
}

type ConnectResponse struct {
	URL   string
	State string
}

type CallbackRequest struct {
	UserID      string
	ProviderID  string
	Code        string
	State       string
	RedirectURI string
}

type CallbackResult struct {
	UserID     string
	ProviderID string
	Profile    Profile
	Status     LinkState
}

// AccountService is the operation surface consumed by the command and
// query layers.
type AccountService interface {
	Register(ctx context.Context, req RegisterRequest) (string, error)
	Login(ctx context.Context, req LoginRequest) (string, error)
	GetAccount(ctx context.Context, userID string) (Account, error)
	DeleteAccount(ctx context.Context, userID string) error
	IssueConnectURL(ctx context.Context, req ConnectRequest) (ConnectResponse, error)
	HandleCallback(ctx context.Context, req CallbackRequest) (CallbackResult, error)
	LinkStatus(ctx context.Context, userID string, providerID string) (Link, error)
	LinkedTokens(ctx context.Context, userID string, providerID string) (TokenSet, error)
}
