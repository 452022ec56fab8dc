package devkit

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-accounts/core"
)

// ProviderExpectation describes what ValidateProviderConformance checks
// against one provider built on a FakeHTTPDoer scripted with a token
// reply followed by a profile reply.
type ProviderExpectation struct {
	ID          string
	AccessToken string
	Profile     core.Profile
}

// ValidateProviderConformance drives a provider through authorize URL
// construction, code exchange and profile fetch.
func ValidateProviderConformance(
	ctx context.Context,
	provider core.Provider,
	doer *FakeHTTPDoer,
	expected ProviderExpectation,
) error {
	if provider == nil {
		return fmt.Errorf("devkit: provider is required")
	}
	if doer == nil {
		return fmt.Errorf("devkit: fake http doer is required")
	}
	if provider.ID() != expected.ID {
		return fmt.Errorf("devkit: expected provider id %q, got %q", expected.ID, provider.ID())
	}
	if !core.IsAlphanumeric(provider.ID()) || strings.ToLower(provider.ID()) != provider.ID() {
		return fmt.Errorf("devkit: provider id %q must be lowercase alphanumeric", provider.ID())
	}

	if _, err := provider.AuthorizeURL(core.AuthorizeRequest{}); err == nil {
		return fmt.Errorf("devkit: authorize url without state must fail")
	}
	request := core.AuthorizeRequest{State: "devkitstate", RedirectURI: "http://localhost/cb"}
	if provider.UsesPKCE() {
		if _, err := provider.AuthorizeURL(request); err == nil {
			return fmt.Errorf("devkit: pkce provider must require a code challenge")
		}
		request.CodeChallenge = "devkitchallenge"
	}
	raw, err := provider.AuthorizeURL(request)
	if err != nil {
		return fmt.Errorf("devkit: authorize url: %w", err)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("devkit: authorize url is not a url: %w", err)
	}
	query := parsed.Query()
	if query.Get("state") != request.State {
		return fmt.Errorf("devkit: authorize url state mismatch: %q", query.Get("state"))
	}
	if query.Get("response_type") != "code" {
		return fmt.Errorf("devkit: authorize url must request response_type=code")
	}
	if query.Get("redirect_uri") != request.RedirectURI {
		return fmt.Errorf("devkit: authorize url redirect_uri mismatch: %q", query.Get("redirect_uri"))
	}
	if provider.UsesPKCE() && query.Get("code_challenge_method") != "S256" {
		return fmt.Errorf("devkit: pkce provider must send code_challenge_method=S256")
	}

	exchange := core.ExchangeRequest{Code: "devkitcode", RedirectURI: request.RedirectURI}
	if provider.UsesPKCE() {
		exchange.CodeVerifier = "devkitverifier"
	}
	tokens, err := provider.Exchange(ctx, exchange)
	if err != nil {
		return fmt.Errorf("devkit: exchange: %w", err)
	}
	if tokens.AccessToken != expected.AccessToken {
		return fmt.Errorf("devkit: expected access token %q, got %q", expected.AccessToken, tokens.AccessToken)
	}
	profile, err := provider.FetchProfile(ctx, tokens.AccessToken)
	if err != nil {
		return fmt.Errorf("devkit: fetch profile: %w", err)
	}
	if profile.ProviderUserID != expected.Profile.ProviderUserID || profile.DisplayName != expected.Profile.DisplayName {
		return fmt.Errorf("devkit: unexpected profile %q/%q", profile.ProviderUserID, profile.DisplayName)
	}

	requests := doer.Requests()
	if len(requests) < 2 {
		return fmt.Errorf("devkit: expected token and profile requests, got %d", len(requests))
	}
	tokenRequest, profileRequest := requests[len(requests)-2], requests[len(requests)-1]
	form, err := url.ParseQuery(tokenRequest.Body)
	if err != nil {
		return fmt.Errorf("devkit: token request body is not form encoded: %w", err)
	}
	if form.Get("grant_type") != "authorization_code" || form.Get("code") != exchange.Code {
		return fmt.Errorf("devkit: unexpected token request form %v", form)
	}
	if provider.UsesPKCE() && form.Get("code_verifier") != exchange.CodeVerifier {
		return fmt.Errorf("devkit: pkce provider must forward code_verifier")
	}
	if got := profileRequest.Headers.Get("Authorization"); got != "Bearer "+tokens.AccessToken {
		return fmt.Errorf("devkit: profile request authorization header %q", got)
	}
	return nil
}
