package devkit

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/goliatone/go-accounts/core"
)

func TestFakeHTTPDoer_ScriptsAndCapturesRequests(t *testing.T) {
	doer := NewFakeHTTPDoer(
		TokenError(http.StatusBadRequest, "invalid_grant", "code expired"),
		TokenResponse("AT", "RT"),
	)

	for index, expected := range []int{http.StatusBadRequest, http.StatusOK, http.StatusOK} {
		req, err := http.NewRequest(http.MethodPost, "https://auth.example.test/token", strings.NewReader("code=C"))
		if err != nil {
			t.Fatalf("build request: %v", err)
		}
		req.Header.Set("User-Agent", "devkit/1.0")
		res, err := doer.Do(req)
		if err != nil {
			t.Fatalf("fake call %d: %v", index, err)
		}
		_ = res.Body.Close()
		if res.StatusCode != expected {
			t.Fatalf("call %d: expected status %d, got %d", index, expected, res.StatusCode)
		}
	}

	requests := doer.Requests()
	if len(requests) != 3 {
		t.Fatalf("expected three captured requests, got %d", len(requests))
	}
	if requests[0].Body != "code=C" || requests[0].Headers.Get("User-Agent") != "devkit/1.0" {
		t.Fatalf("unexpected captured request %+v", requests[0])
	}
}

func TestFakeHTTPDoer_ScriptedError(t *testing.T) {
	failure := errors.New("connection reset")
	doer := NewFakeHTTPDoer(HTTPScript{Err: failure})
	req, _ := http.NewRequest(http.MethodGet, "https://api.example.test/me", nil)
	if _, err := doer.Do(req); !errors.Is(err, failure) {
		t.Fatalf("expected scripted error, got %v", err)
	}
}

func TestValidateProviderConformance_RejectsNilInputs(t *testing.T) {
	if err := ValidateProviderConformance(context.Background(), nil, NewFakeHTTPDoer(), ProviderExpectation{}); err == nil {
		t.Fatalf("expected nil provider error")
	}
}

func TestValidateProviderConformance_DetectsWrongProfile(t *testing.T) {
	doer := NewFakeHTTPDoer(
		TokenResponse("AT", ""),
		JSONResponse(http.StatusOK, map[string]any{"id": "u1", "name": "Bob"}),
	)
	provider := scriptedProvider{id: "acme", doer: doer}
	err := ValidateProviderConformance(context.Background(), provider, doer, ProviderExpectation{
		ID:          "acme",
		AccessToken: "AT",
		Profile:     core.Profile{ProviderUserID: "u1", DisplayName: "Alice"},
	})
	if err == nil || !strings.Contains(err.Error(), "unexpected profile") {
		t.Fatalf("expected profile mismatch, got %v", err)
	}
}

// scriptedProvider is a minimal provider over the fake doer; real
// providers are checked from their own packages.
type scriptedProvider struct {
	id   string
	doer *FakeHTTPDoer
}

func (p scriptedProvider) ID() string { return p.id }

func (scriptedProvider) UsesPKCE() bool { return false }

func (scriptedProvider) AuthorizeURL(req core.AuthorizeRequest) (string, error) {
	if req.State == "" {
		return "", errors.New("state required")
	}
	return "https://auth.example.test/authorize?response_type=code&state=" + req.State +
		"&redirect_uri=" + req.RedirectURI, nil
}

func (p scriptedProvider) Exchange(_ context.Context, req core.ExchangeRequest) (core.TokenSet, error) {
	body := "grant_type=authorization_code&code=" + req.Code
	httpReq, _ := http.NewRequest(http.MethodPost, "https://auth.example.test/token", strings.NewReader(body))
	res, err := p.doer.Do(httpReq)
	if err != nil {
		return core.TokenSet{}, err
	}
	_ = res.Body.Close()
	return core.TokenSet{AccessToken: "AT"}, nil
}

func (p scriptedProvider) FetchProfile(_ context.Context, accessToken string) (core.Profile, error) {
	httpReq, _ := http.NewRequest(http.MethodGet, "https://api.example.test/me", nil)
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	res, err := p.doer.Do(httpReq)
	if err != nil {
		return core.Profile{}, err
	}
	_ = res.Body.Close()
	return core.Profile{ProviderUserID: "u1", DisplayName: "Bob"}, nil
}
