package core

import (
	"errors"
	"strings"
)

var (
	ErrFieldNotFound    = errors.New("core: field not found")
	ErrUsernameNotFound = errors.New("core: username not found")
)

const (
	FieldID           = "id"
	FieldUsername     = "username"
	FieldPasswordHash = "password_hash"
)

const (
	suffixState        = "_state"
	suffixCodeVerifier = "_code_verifier"
	suffixAccessToken  = "_access_token"
	suffixRefreshToken = "_refresh_token"
	suffixExternalID   = "_id"
	suffixName         = "_name"
)

// LinkState is the linking state of one (user, provider) pair.
type LinkState string

const (
	LinkStateUnlinked LinkState = "unlinked"
	LinkStatePending  LinkState = "pending"
	LinkStateLinked   LinkState = "linked"
	// LinkStatePartial means tokens were persisted but the profile
	// fetch failed.
	LinkStatePartial LinkState = "partial"
)

type Link struct {
	ProviderID string
	State      LinkState
	ExternalID string
	Name       string
}

type Account struct {
	ID       string
	Username string
	Links    map[string]Link
}

func StateField(providerID string) string {
	return normalizeProviderID(providerID) + suffixState
}

func CodeVerifierField(providerID string) string {
	return normalizeProviderID(providerID) + suffixCodeVerifier
}

func AccessTokenField(providerID string) string {
	return normalizeProviderID(providerID) + suffixAccessToken
}

func RefreshTokenField(providerID string) string {
	return normalizeProviderID(providerID) + suffixRefreshToken
}

func ExternalIDField(providerID string) string {
	return normalizeProviderID(providerID) + suffixExternalID
}

func NameField(providerID string) string {
	return normalizeProviderID(providerID) + suffixName
}

// ResolveLinkState derives the link state for providerID from a full
// record. A pending attempt wins over an existing link because the
// state field is only present while a flow is in flight.
func ResolveLinkState(providerID string, fields map[string]string) Link {
	link := Link{
		ProviderID: normalizeProviderID(providerID),
		State:      LinkStateUnlinked,
		ExternalID: fields[ExternalIDField(providerID)],
		Name:       fields[NameField(providerID)],
	}
	_, hasToken := fields[AccessTokenField(providerID)]
	switch {
	case fields[StateField(providerID)] != "":
		link.State = LinkStatePending
	case hasToken && link.ExternalID != "":
		link.State = LinkStateLinked
	case hasToken:
		link.State = LinkStatePartial
	}
	return link
}

func normalizeProviderID(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}

func normalizeUsername(value string) string {
	return strings.TrimSpace(value)
}
