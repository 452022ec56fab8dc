package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorNotFound           = "ACCOUNT_NOT_FOUND"
	ErrorAlreadyExists      = "ACCOUNT_ALREADY_EXISTS"
	ErrorInvalidCredentials = "ACCOUNT_INVALID_CREDENTIALS"
	ErrorBadInput           = "ACCOUNT_BAD_INPUT"
	ErrorInternal           = "ACCOUNT_INTERNAL_ERROR"
	ErrorInvalidState       = "LINK_STATE_INVALID"
	ErrorProviderNotFound   = "PROVIDER_NOT_FOUND"
	ErrorUpstream           = "PROVIDER_UPSTREAM_ERROR"
	ErrorFieldMissing       = "PROVIDER_FIELD_MISSING"
)

// ErrorKind is the transport-neutral tag callers switch on.
type ErrorKind string

const (
	KindNone               ErrorKind = ""
	KindNotFound           ErrorKind = "not_found"
	KindAlreadyExists      ErrorKind = "already_exists"
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindBadInput           ErrorKind = "bad_input"
	KindInternal           ErrorKind = "internal"
	KindInvalidState       ErrorKind = "invalid_state"
	KindProviderNotFound   ErrorKind = "provider_not_found"
	KindUpstream           ErrorKind = "upstream_error"
	KindFieldMissing       ErrorKind = "field_missing"
)

var textCodeKinds = map[string]ErrorKind{
	ErrorNotFound:           KindNotFound,
	ErrorAlreadyExists:      KindAlreadyExists,
	ErrorInvalidCredentials: KindInvalidCredentials,
	ErrorBadInput:           KindBadInput,
	ErrorInternal:           KindInternal,
	ErrorInvalidState:       KindInvalidState,
	ErrorProviderNotFound:   KindProviderNotFound,
	ErrorUpstream:           KindUpstream,
	ErrorFieldMissing:       KindFieldMissing,
}

// KindOf classifies err. Errors without an envelope are internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return KindInternal
	}
	if kind, ok := textCodeKinds[strings.TrimSpace(rich.TextCode)]; ok {
		return kind
	}
	return KindInternal
}

func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

func IsInvalidState(err error) bool { return KindOf(err) == KindInvalidState }

func IsUpstreamError(err error) bool { return KindOf(err) == KindUpstream }

func IsFieldMissing(err error) bool { return KindOf(err) == KindFieldMissing }

func IsAlreadyExists(err error) bool { return KindOf(err) == KindAlreadyExists }

// MissingField returns the upstream field name carried by a
// FieldMissing error.
func MissingField(err error) (string, bool) {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != ErrorFieldMissing {
		return "", false
	}
	field, ok := rich.Metadata["field"].(string)
	return field, ok
}

func NotFoundError(userID string) error {
	return newError(
		fmt.Sprintf("account %q not found", strings.TrimSpace(userID)),
		goerrors.CategoryNotFound,
		ErrorNotFound,
		map[string]any{"user_id": strings.TrimSpace(userID)},
	)
}

func NotLinkedError(providerID string) error {
	return newError(
		fmt.Sprintf("provider %q is not linked", normalizeProviderID(providerID)),
		goerrors.CategoryNotFound,
		ErrorNotFound,
		map[string]any{"provider_id": normalizeProviderID(providerID)},
	)
}

func AlreadyExistsError(username string) error {
	return newError(
		"username already exists",
		goerrors.CategoryConflict,
		ErrorAlreadyExists,
		map[string]any{"username": strings.TrimSpace(username)},
	)
}

func InvalidCredentialsError() error {
	return newError("invalid username or password", goerrors.CategoryAuth, ErrorInvalidCredentials, nil)
}

func BadInputError(message string) error {
	return newError(message, goerrors.CategoryBadInput, ErrorBadInput, nil)
}

func InvalidStateError(providerID string, reason string) error {
	return newError(
		"oauth callback state invalid: "+reason,
		goerrors.CategoryAuth,
		ErrorInvalidState,
		map[string]any{"provider_id": normalizeProviderID(providerID)},
	)
}

func ProviderNotFoundError(providerID string) error {
	return newError(
		fmt.Sprintf("provider %q is not registered", strings.TrimSpace(providerID)),
		goerrors.CategoryNotFound,
		ErrorProviderNotFound,
		map[string]any{"provider_id": strings.TrimSpace(providerID)},
	)
}

// UpstreamError wraps a provider transport, status or decode failure.
func UpstreamError(providerID string, cause error, message string) error {
	metadata := map[string]any{"provider_id": normalizeProviderID(providerID)}
	if cause == nil {
		return newError(message, goerrors.CategoryExternal, ErrorUpstream, metadata)
	}
	return wrapError(cause, message, goerrors.CategoryExternal, ErrorUpstream, metadata)
}

func FieldMissingError(providerID string, field string) error {
	return newError(
		fmt.Sprintf("provider response is missing field %q", field),
		goerrors.CategoryExternal,
		ErrorFieldMissing,
		map[string]any{
			"provider_id": normalizeProviderID(providerID),
			"field":       field,
		},
	)
}

func InternalError(cause error, message string) error {
	if cause == nil {
		return newError(message, goerrors.CategoryInternal, ErrorInternal, nil)
	}
	return wrapError(cause, message, goerrors.CategoryInternal, ErrorInternal, nil)
}

func newError(message string, category goerrors.Category, textCode string, metadata map[string]any) *goerrors.Error {
	err := goerrors.New(message, category).
		WithCode(httpStatus(category)).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func wrapError(
	source error,
	message string,
	category goerrors.Category,
	textCode string,
	metadata map[string]any,
) *goerrors.Error {
	err := goerrors.Wrap(source, category, message).
		WithCode(httpStatus(category)).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// accountErrorMapper keeps existing envelopes and folds everything else
// into the internal error class.
func accountErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return ensureErrorEnvelope(rich)
	}
	switch {
	case errors.Is(err, ErrFieldNotFound), errors.Is(err, ErrUsernameNotFound):
		return newError(err.Error(), goerrors.CategoryNotFound, ErrorNotFound, nil)
	}
	return wrapError(err, "unexpected account service failure", goerrors.CategoryInternal, ErrorInternal, nil)
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = httpStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryNotFound:
		return ErrorNotFound
	case goerrors.CategoryAuth:
		return ErrorInvalidCredentials
	case goerrors.CategoryConflict:
		return ErrorAlreadyExists
	case goerrors.CategoryExternal:
		return ErrorUpstream
	default:
		return ErrorInternal
	}
}

func httpStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
