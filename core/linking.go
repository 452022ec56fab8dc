package core

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// IssueConnectURL moves (user, provider) to pending by storing a fresh
// state nonce, overwriting any attempt already in flight.
func (s *Service) IssueConnectURL(ctx context.Context, req ConnectRequest) (resp ConnectResponse, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"provider_id": normalizeProviderID(req.ProviderID),
		"user_id":     strings.TrimSpace(req.UserID),
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "issue_connect_url", err, fields)
	}()

	provider, err := s.resolveProvider(req.ProviderID)
	if err != nil {
		return ConnectResponse{}, err
	}
	providerID := normalizeProviderID(provider.ID())
	if err := s.requireUser(ctx, req.UserID); err != nil {
		return ConnectResponse{}, s.mapError(err)
	}

	state, err := s.nonceGenerator.Generate(s.config.OAuth.NonceLength)
	if err != nil {
		return ConnectResponse{}, s.mapError(err)
	}
	authorize := AuthorizeRequest{
		State:       state,
		RedirectURI: s.redirectURI(providerID, req.RedirectURI),
		Scopes:      append([]string(nil), req.Scopes...),
	}
	verifier := ""
	if provider.UsesPKCE() {
		verifier = oauth2.GenerateVerifier()
		authorize.CodeChallenge = oauth2.S256ChallengeFromVerifier(verifier)
	}
	url, err := provider.AuthorizeURL(authorize)
	if err != nil {
		return ConnectResponse{}, s.mapError(InternalError(err, "build authorize url"))
	}

	if verifier != "" {
		if err := s.recordStore.SetField(ctx, req.UserID, CodeVerifierField(providerID), verifier); err != nil {
			return ConnectResponse{}, s.mapError(InternalError(err, "store code verifier"))
		}
	}
	if err := s.recordStore.SetField(ctx, req.UserID, StateField(providerID), state); err != nil {
		return ConnectResponse{}, s.mapError(InternalError(err, "store link state"))
	}
	fields["pkce"] = verifier != ""
	return ConnectResponse{URL: url, State: state}, nil
}

// HandleCallback completes a pending link. Token fields are only
// written after the callback state matched the stored one, and the
// stored state is removed before they are written.
func (s *Service) HandleCallback(ctx context.Context, req CallbackRequest) (result CallbackResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"provider_id": normalizeProviderID(req.ProviderID),
		"user_id":     strings.TrimSpace(req.UserID),
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "handle_callback", err, fields)
	}()

	provider, err := s.resolveProvider(req.ProviderID)
	if err != nil {
		return CallbackResult{}, err
	}
	providerID := normalizeProviderID(provider.ID())
	if err := s.requireUser(ctx, req.UserID); err != nil {
		return CallbackResult{}, s.mapError(err)
	}
	if strings.TrimSpace(req.State) == "" {
		return CallbackResult{}, InvalidStateError(providerID, "callback state is empty")
	}
	if strings.TrimSpace(req.Code) == "" {
		return CallbackResult{}, BadInputError("authorization code is required")
	}

	var tokens TokenSet
	if s.config.OAuth.ExchangeBeforeStateCheck {
		tokens, err = s.exchange(ctx, provider, req)
		if err != nil {
			return CallbackResult{}, err
		}
		if err := s.verifyState(ctx, req.UserID, providerID, req.State); err != nil {
			fields["exchange_discarded"] = true
			return CallbackResult{}, err
		}
	} else {
		if err := s.verifyState(ctx, req.UserID, providerID, req.State); err != nil {
			return CallbackResult{}, err
		}
		tokens, err = s.exchange(ctx, provider, req)
		if err != nil {
			return CallbackResult{}, err
		}
	}

	access, refresh, err := s.sealTokens(ctx, tokens)
	if err != nil {
		return CallbackResult{}, err
	}
	if err := s.recordStore.DeleteFields(ctx, req.UserID, StateField(providerID), CodeVerifierField(providerID)); err != nil {
		return CallbackResult{}, s.mapError(InternalError(err, "consume link state"))
	}
	if err := s.storeTokens(ctx, req.UserID, providerID, access, refresh); err != nil {
		return CallbackResult{}, err
	}

	profile, err := provider.FetchProfile(ctx, tokens.AccessToken)
	if err != nil {
		fields["link_state"] = string(LinkStatePartial)
		return CallbackResult{}, asUpstreamError(providerID, err, "fetch provider profile")
	}
	if err := s.recordStore.SetField(ctx, req.UserID, ExternalIDField(providerID), profile.ProviderUserID); err != nil {
		return CallbackResult{}, s.mapError(InternalError(err, "store provider user id"))
	}
	if err := s.recordStore.SetField(ctx, req.UserID, NameField(providerID), profile.DisplayName); err != nil {
		return CallbackResult{}, s.mapError(InternalError(err, "store provider display name"))
	}

	fields["link_state"] = string(LinkStateLinked)
	return CallbackResult{
		UserID:     strings.TrimSpace(req.UserID),
		ProviderID: providerID,
		Profile:    profile,
		Status:     LinkStateLinked,
	}, nil
}

// LinkedTokens returns the persisted tokens for a linked provider,
// decrypted when a secret provider is configured.
func (s *Service) LinkedTokens(ctx context.Context, userID string, providerID string) (tokens TokenSet, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"provider_id": normalizeProviderID(providerID),
		"user_id":     strings.TrimSpace(userID),
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "linked_tokens", err, fields)
	}()

	provider, err := s.resolveProvider(providerID)
	if err != nil {
		return TokenSet{}, err
	}
	providerID = normalizeProviderID(provider.ID())
	if err := s.requireUser(ctx, userID); err != nil {
		return TokenSet{}, s.mapError(err)
	}
	access, err := s.recordStore.GetField(ctx, userID, AccessTokenField(providerID))
	if err != nil {
		if errors.Is(err, ErrFieldNotFound) {
			return TokenSet{}, NotLinkedError(providerID)
		}
		return TokenSet{}, s.mapError(InternalError(err, "read access token"))
	}
	refresh, err := s.recordStore.GetField(ctx, userID, RefreshTokenField(providerID))
	if err != nil && !errors.Is(err, ErrFieldNotFound) {
		return TokenSet{}, s.mapError(InternalError(err, "read refresh token"))
	}
	if tokens.AccessToken, err = s.openToken(ctx, access); err != nil {
		return TokenSet{}, err
	}
	if tokens.RefreshToken, err = s.openToken(ctx, refresh); err != nil {
		return TokenSet{}, err
	}
	return tokens, nil
}

func (s *Service) verifyState(ctx context.Context, userID string, providerID string, state string) error {
	stored, err := s.recordStore.GetField(ctx, userID, StateField(providerID))
	if err != nil {
		if errors.Is(err, ErrFieldNotFound) {
			return InvalidStateError(providerID, "no link attempt in flight")
		}
		return s.mapError(InternalError(err, "read link state"))
	}
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(state)) != 1 {
		return InvalidStateError(providerID, "state mismatch")
	}
	return nil
}

func (s *Service) exchange(ctx context.Context, provider Provider, req CallbackRequest) (TokenSet, error) {
	providerID := normalizeProviderID(provider.ID())
	exchange := ExchangeRequest{
		Code:        strings.TrimSpace(req.Code),
		RedirectURI: s.redirectURI(providerID, req.RedirectURI),
	}
	if provider.UsesPKCE() {
		verifier, err := s.recordStore.GetField(ctx, req.UserID, CodeVerifierField(providerID))
		if err != nil && !errors.Is(err, ErrFieldNotFound) {
			return TokenSet{}, s.mapError(InternalError(err, "read code verifier"))
		}
		exchange.CodeVerifier = verifier
	}
	tokens, err := provider.Exchange(ctx, exchange)
	if err != nil {
		return TokenSet{}, asUpstreamError(providerID, err, "exchange authorization code")
	}
	if strings.TrimSpace(tokens.AccessToken) == "" {
		return TokenSet{}, UpstreamError(providerID, nil, "token response is missing access_token")
	}
	return tokens, nil
}

// sealTokens encrypts both tokens before anything is written, so a
// sealing failure leaves the pending state in place.
func (s *Service) sealTokens(ctx context.Context, tokens TokenSet) (string, string, error) {
	access, err := s.sealToken(ctx, tokens.AccessToken)
	if err != nil {
		return "", "", err
	}
	refresh, err := s.sealToken(ctx, tokens.RefreshToken)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// storeTokens persists both token fields. The refresh token field is
// written even when the provider did not return one.
func (s *Service) storeTokens(ctx context.Context, userID string, providerID string, access string, refresh string) error {
	if err := s.recordStore.SetField(ctx, userID, AccessTokenField(providerID), access); err != nil {
		return s.mapError(InternalError(err, "store access token"))
	}
	if err := s.recordStore.SetField(ctx, userID, RefreshTokenField(providerID), refresh); err != nil {
		return s.mapError(InternalError(err, "store refresh token"))
	}
	return nil
}

func (s *Service) sealToken(ctx context.Context, value string) (string, error) {
	if s.secretProvider == nil || value == "" {
		return value, nil
	}
	sealed, err := s.secretProvider.Encrypt(ctx, []byte(value))
	if err != nil {
		return "", s.mapError(InternalError(err, "encrypt provider token"))
	}
	return string(sealed), nil
}

// openToken hands back plaintext values stored before encryption was
// enabled. A sealed value with no secret provider configured is an
// error, never returned as a token.
func (s *Service) openToken(ctx context.Context, value string) (string, error) {
	if value == "" {
		return value, nil
	}
	sealed, known := s.isSealed(value)
	if s.secretProvider == nil {
		if known && sealed {
			return "", s.mapError(InternalError(nil, "provider token is sealed but no secret provider is configured"))
		}
		return value, nil
	}
	if known && !sealed {
		return value, nil
	}
	opened, err := s.secretProvider.Decrypt(ctx, []byte(value))
	if err != nil {
		return "", s.mapError(InternalError(err, "decrypt provider token"))
	}
	return string(opened), nil
}

// isSealed reports known=false when no SealDetector is configured.
func (s *Service) isSealed(value string) (sealed bool, known bool) {
	if s.sealDetector == nil {
		return false, false
	}
	return s.sealDetector.IsSealed([]byte(value)), true
}

// redirectURI prefers the request value and falls back to the
// configured callback URL of providerID.
func (s *Service) redirectURI(providerID string, requested string) string {
	if requested = strings.TrimSpace(requested); requested != "" {
		return requested
	}
	return s.redirectURIs[providerID]
}

// asUpstreamError keeps provider envelopes of the upstream kinds and
// wraps anything else as an upstream failure.
func asUpstreamError(providerID string, err error, message string) error {
	switch KindOf(err) {
	case KindUpstream, KindFieldMissing:
		return err
	}
	return UpstreamError(providerID, err, message)
}
