package core

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"testing"
)

type stubProvider struct {
	id   string
	pkce bool

	tokens     TokenSet
	exchangeFn func(ExchangeRequest) (TokenSet, error)
	profile    Profile
	profileErr error

	mu            sync.Mutex
	exchangeCalls []ExchangeRequest
	profileCalls  []string
}

func newStubProvider(id string) *stubProvider {
	return &stubProvider{
		id:      id,
		tokens:  TokenSet{AccessToken: "AT", RefreshToken: "RT", TokenType: "bearer"},
		profile: Profile{ProviderUserID: "sp123", DisplayName: "Alice"},
	}
}

func (p *stubProvider) ID() string { return p.id }

func (p *stubProvider) UsesPKCE() bool { return p.pkce }

func (p *stubProvider) AuthorizeURL(req AuthorizeRequest) (string, error) {
	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", "client-"+p.id)
	query.Set("redirect_uri", req.RedirectURI)
	query.Set("state", req.State)
	if req.CodeChallenge != "" {
		query.Set("code_challenge", req.CodeChallenge)
		query.Set("code_challenge_method", "S256")
	}
	return "https://auth.example/" + p.id + "?" + query.Encode(), nil
}

func (p *stubProvider) Exchange(_ context.Context, req ExchangeRequest) (TokenSet, error) {
	p.mu.Lock()
	p.exchangeCalls = append(p.exchangeCalls, req)
	p.mu.Unlock()
	if p.exchangeFn != nil {
		return p.exchangeFn(req)
	}
	return p.tokens, nil
}

func (p *stubProvider) FetchProfile(_ context.Context, accessToken string) (Profile, error) {
	p.mu.Lock()
	p.profileCalls = append(p.profileCalls, accessToken)
	p.mu.Unlock()
	if p.profileErr != nil {
		return Profile{}, p.profileErr
	}
	return p.profile, nil
}

func (p *stubProvider) exchangeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.exchangeCalls)
}

// recordingStore wraps MemoryRecordStore and counts mutations.
type recordingStore struct {
	*MemoryRecordStore

	mu     sync.Mutex
	writes []string
	failOn map[string]error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryRecordStore: NewMemoryRecordStore(), failOn: map[string]error{}}
}

func (s *recordingStore) SetField(ctx context.Context, userID string, field string, value string) error {
	s.mu.Lock()
	failure := s.failOn[field]
	s.writes = append(s.writes, "set:"+field)
	s.mu.Unlock()
	if failure != nil {
		return failure
	}
	return s.MemoryRecordStore.SetField(ctx, userID, field, value)
}

func (s *recordingStore) DeleteFields(ctx context.Context, userID string, fields ...string) error {
	s.mu.Lock()
	for _, field := range fields {
		s.writes = append(s.writes, "del:"+field)
	}
	s.mu.Unlock()
	return s.MemoryRecordStore.DeleteFields(ctx, userID, fields...)
}

func (s *recordingStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	s.writes = append(s.writes, "delete")
	s.mu.Unlock()
	return s.MemoryRecordStore.Delete(ctx, userID)
}

func (s *recordingStore) writeLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.writes...)
}

func (s *recordingStore) resetWrites() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = nil
}

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return "plain$" + password, nil
}

func (plainHasher) Verify(password string, encoded string) (bool, error) {
	if !strings.HasPrefix(encoded, "plain$") {
		return false, errors.New("plain hasher: unknown encoding")
	}
	return strings.TrimPrefix(encoded, "plain$") == password, nil
}

type testSecretProvider struct{}

func (testSecretProvider) Encrypt(_ context.Context, plaintext []byte) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("test secret provider: plaintext is required")
	}
	return []byte("enc:" + base64.StdEncoding.EncodeToString(plaintext)), nil
}

func (testSecretProvider) Decrypt(_ context.Context, ciphertext []byte) ([]byte, error) {
	value := strings.TrimSpace(string(ciphertext))
	if !strings.HasPrefix(value, "enc:") {
		return nil, fmt.Errorf("test secret provider: invalid ciphertext")
	}
	return base64.StdEncoding.DecodeString(strings.TrimPrefix(value, "enc:"))
}

func (testSecretProvider) IsSealed(value []byte) bool {
	return strings.HasPrefix(string(value), "enc:")
}

type failingSecretProvider struct {
	testSecretProvider
}

func (failingSecretProvider) Encrypt(context.Context, []byte) ([]byte, error) {
	return nil, fmt.Errorf("test secret provider: key unavailable")
}

type stubLogger struct{}

func (stubLogger) Trace(string, ...any)                 {}
func (stubLogger) Debug(string, ...any)                 {}
func (stubLogger) Info(string, ...any)                  {}
func (stubLogger) Warn(string, ...any)                  {}
func (stubLogger) Error(string, ...any)                 {}
func (stubLogger) Fatal(string, ...any)                 {}
func (l stubLogger) WithContext(context.Context) Logger { return l }

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}

type linkingFixture struct {
	svc      *Service
	store    *recordingStore
	provider *stubProvider
	userID   string
}

func newLinkingFixture(t *testing.T, cfg Config, opts ...Option) linkingFixture {
	t.Helper()
	provider := newStubProvider("spotify")
	registry := MustProviderRegistry()
	if err := registry.Register(provider); err != nil {
		t.Fatalf("register provider: %v", err)
	}
	store := newRecordingStore()
	base := []Option{
		WithRegistry(registry),
		WithRecordStore(store),
		WithUsernameIndex(store),
		WithPasswordHasher(plainHasher{}),
		WithLogger(stubLogger{}),
	}
	svc, err := NewService(cfg, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	userID, err := svc.Register(context.Background(), RegisterRequest{Username: "alice", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	store.resetWrites()
	return linkingFixture{svc: svc, store: store, provider: provider, userID: userID}
}

func (f linkingFixture) field(t *testing.T, name string) (string, bool) {
	t.Helper()
	value, err := f.store.GetField(context.Background(), f.userID, name)
	if errors.Is(err, ErrFieldNotFound) {
		return "", false
	}
	if err != nil {
		t.Fatalf("get field %s: %v", name, err)
	}
	return value, true
}

func stateFromURL(t *testing.T, raw string) string {
	t.Helper()
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse connect url: %v", err)
	}
	return parsed.Query().Get("state")
}

func hasTokenWrite(writes []string) bool {
	for _, write := range writes {
		if strings.HasSuffix(write, suffixAccessToken) || strings.HasSuffix(write, suffixRefreshToken) {
			return true
		}
	}
	return false
}
