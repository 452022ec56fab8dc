package core

import (
	"context"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	MinPasswordLength = 8
	MaxUsernameLength = 64
)

// Register creates an account and returns its id. The username is
// reserved in the index before any record field is written.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (userID string, err error) {
	startedAt := time.Now().UTC()
	username := normalizeUsername(req.Username)
	fields := map[string]any{"username": username}
	defer func() {
		s.observeOperation(ctx, startedAt, "register", err, fields)
	}()

	if err := validateCredentials(username, req.Password, true); err != nil {
		return "", err
	}
	hasher, err := s.requirePasswordHasher()
	if err != nil {
		return "", err
	}
	encoded, err := hasher.Hash(req.Password)
	if err != nil {
		return "", s.mapError(InternalError(err, "hash password"))
	}

	userID = s.idGenerator()
	reserved, err := s.usernameIndex.Reserve(ctx, username, userID)
	if err != nil {
		return "", s.mapError(InternalError(err, "reserve username"))
	}
	if !reserved {
		return "", AlreadyExistsError(username)
	}
	fields["user_id"] = userID

	for _, field := range []struct{ name, value string }{
		{FieldID, userID},
		{FieldUsername, username},
		{FieldPasswordHash, encoded},
	} {
		if err := s.recordStore.SetField(ctx, userID, field.name, field.value); err != nil {
			_ = s.recordStore.Delete(ctx, userID)
			_ = s.usernameIndex.Release(ctx, username)
			return "", s.mapError(InternalError(err, "store account field "+field.name))
		}
	}
	return userID, nil
}

// Login verifies a username and password pair. Unknown usernames and
// wrong passwords fail the same way.
func (s *Service) Login(ctx context.Context, req LoginRequest) (userID string, err error) {
	startedAt := time.Now().UTC()
	username := normalizeUsername(req.Username)
	fields := map[string]any{"username": username}
	defer func() {
		s.observeOperation(ctx, startedAt, "login", err, fields)
	}()

	if err := validateCredentials(username, req.Password, false); err != nil {
		return "", err
	}
	hasher, err := s.requirePasswordHasher()
	if err != nil {
		return "", err
	}
	userID, err = s.usernameIndex.Lookup(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUsernameNotFound) {
			return "", InvalidCredentialsError()
		}
		return "", s.mapError(InternalError(err, "lookup username"))
	}
	encoded, err := s.recordStore.GetField(ctx, userID, FieldPasswordHash)
	if err != nil {
		if errors.Is(err, ErrFieldNotFound) {
			return "", InvalidCredentialsError()
		}
		return "", s.mapError(InternalError(err, "read password hash"))
	}
	ok, err := hasher.Verify(req.Password, encoded)
	if err != nil {
		return "", s.mapError(InternalError(err, "verify password"))
	}
	if !ok {
		return "", InvalidCredentialsError()
	}
	fields["user_id"] = userID
	return userID, nil
}

// GetAccount returns the public view of an account with the link state
// of every registered provider. Secrets are never included.
func (s *Service) GetAccount(ctx context.Context, userID string) (account Account, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"user_id": strings.TrimSpace(userID)}
	defer func() {
		s.observeOperation(ctx, startedAt, "get_account", err, fields)
	}()

	record, err := s.loadRecord(ctx, userID)
	if err != nil {
		return Account{}, err
	}
	account = Account{
		ID:       record[FieldID],
		Username: record[FieldUsername],
		Links:    map[string]Link{},
	}
	if account.ID == "" {
		account.ID = strings.TrimSpace(userID)
	}
	for _, provider := range s.registry.List() {
		link := ResolveLinkState(provider.ID(), record)
		account.Links[link.ProviderID] = link
	}
	return account, nil
}

// LinkStatus reports the link state of one (user, provider) pair.
func (s *Service) LinkStatus(ctx context.Context, userID string, providerID string) (link Link, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"provider_id": normalizeProviderID(providerID),
		"user_id":     strings.TrimSpace(userID),
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "link_status", err, fields)
	}()

	provider, err := s.resolveProvider(providerID)
	if err != nil {
		return Link{}, err
	}
	record, err := s.loadRecord(ctx, userID)
	if err != nil {
		return Link{}, err
	}
	link = ResolveLinkState(provider.ID(), record)
	fields["link_state"] = string(link.State)
	return link, nil
}

// DeleteAccount removes the record and frees the username.
func (s *Service) DeleteAccount(ctx context.Context, userID string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"user_id": strings.TrimSpace(userID)}
	defer func() {
		s.observeOperation(ctx, startedAt, "delete_account", err, fields)
	}()

	record, err := s.loadRecord(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.recordStore.Delete(ctx, userID); err != nil {
		return s.mapError(InternalError(err, "delete account record"))
	}
	if username := record[FieldUsername]; username != "" {
		if err := s.usernameIndex.Release(ctx, username); err != nil {
			return s.mapError(InternalError(err, "release username"))
		}
	}
	return nil
}

func (s *Service) loadRecord(ctx context.Context, userID string) (map[string]string, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, s.mapError(err)
	}
	record, err := s.recordStore.GetAll(ctx, userID)
	if err != nil {
		return nil, s.mapError(InternalError(err, "read account record"))
	}
	if len(record) == 0 {
		return nil, NotFoundError(userID)
	}
	return record, nil
}

func (s *Service) requirePasswordHasher() (PasswordHasher, error) {
	if s.passwordHasher == nil {
		return nil, InternalError(nil, "password hasher is not configured")
	}
	return s.passwordHasher, nil
}

func validateCredentials(username string, password string, registering bool) error {
	var fieldErrors []goerrors.FieldError
	if username == "" {
		fieldErrors = append(fieldErrors, goerrors.FieldError{Field: "username", Message: "is required"})
	} else if len(username) > MaxUsernameLength {
		fieldErrors = append(fieldErrors, goerrors.FieldError{Field: "username", Message: "is too long"})
	}
	switch {
	case password == "":
		fieldErrors = append(fieldErrors, goerrors.FieldError{Field: "password", Message: "is required"})
	case registering && len(password) < MinPasswordLength:
		fieldErrors = append(fieldErrors, goerrors.FieldError{Field: "password", Message: "is too short"})
	}
	if len(fieldErrors) == 0 {
		return nil
	}
	return goerrors.NewValidation("invalid account credentials", fieldErrors...).
		WithCode(httpStatus(goerrors.CategoryBadInput)).
		WithTextCode(ErrorBadInput)
}
