package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorTransport        = "SYNC_TRANSPORT_ERROR"
	ErrorUnauthorized     = "SYNC_UNAUTHORIZED"
	ErrorApplication      = "SYNC_APPLICATION_ERROR"
	ErrorDecode           = "SYNC_DECODE_ERROR"
	ErrorRefreshRejected  = "SYNC_REFRESH_REJECTED"
	ErrorRefreshFailed    = "SYNC_REFRESH_FAILED"
	ErrorNoRefreshToken   = "SYNC_NO_REFRESH_TOKEN"
	ErrorMutationInFlight = "SYNC_MUTATION_IN_FLIGHT"
	ErrorFetchInProgress  = "SYNC_FETCH_IN_PROGRESS"
	ErrorNoMorePages      = "SYNC_NO_MORE_PAGES"
	ErrorFetchSuperseded  = "SYNC_FETCH_SUPERSEDED"
	ErrorNotFound         = "SYNC_NOT_FOUND"
	ErrorBadInput         = "SYNC_BAD_INPUT"
	ErrorInternal         = "SYNC_INTERNAL_ERROR"
)

const (
	MessageGeneric      = "Something went wrong. Please try again."
	MessageTransport    = "Unable to reach the server. Check your connection and try again."
	MessageUnauthorized = "Your session has expired. Please sign in again."
	MessageDecode       = "The server sent an unexpected response."
)

func newSyncError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureSyncErrorEnvelope(goerrors.New(message, category).WithTextCode(textCode))
}

func wrapSyncError(source error, category goerrors.Category, textCode string, message string) *goerrors.Error {
	if source == nil {
		return newSyncError(message, category, textCode)
	}
	return ensureSyncErrorEnvelope(goerrors.Wrap(source, category, message).WithTextCode(textCode))
}

func TransportError(source error) *goerrors.Error {
	return wrapSyncError(source, goerrors.CategoryExternal, ErrorTransport, MessageTransport).
		WithCode(http.StatusBadGateway)
}

func UnauthorizedError(message string) *goerrors.Error {
	return newSyncError(fallbackMessage(message, MessageUnauthorized), goerrors.CategoryAuth, ErrorUnauthorized).
		WithCode(http.StatusUnauthorized)
}

func ApplicationError(message string, statusCode int) *goerrors.Error {
	err := newSyncError(fallbackMessage(message, MessageGeneric), goerrors.CategoryOperation, ErrorApplication)
	if statusCode > 0 {
		err.WithCode(statusCode)
	}
	return err
}

func DecodeError(source error) *goerrors.Error {
	return wrapSyncError(source, goerrors.CategoryBadInput, ErrorDecode, MessageDecode).
		WithCode(http.StatusBadGateway)
}

func BadInputError(message string) *goerrors.Error {
	return newSyncError(message, goerrors.CategoryBadInput, ErrorBadInput).WithCode(http.StatusBadRequest)
}

func NotFoundError(message string) *goerrors.Error {
	return newSyncError(message, goerrors.CategoryNotFound, ErrorNotFound).WithCode(http.StatusNotFound)
}

func InternalError(source error, message string) *goerrors.Error {
	return wrapSyncError(source, goerrors.CategoryInternal, ErrorInternal, message).
		WithCode(http.StatusInternalServerError)
}

func errNoRefreshCredential() *goerrors.Error {
	return newSyncError("core: no refresh credential stored", goerrors.CategoryAuth, ErrorNoRefreshToken).
		WithCode(http.StatusUnauthorized)
}

func errRefreshRejected(message string) *goerrors.Error {
	return newSyncError(fallbackMessage(message, MessageUnauthorized), goerrors.CategoryAuth, ErrorRefreshRejected).
		WithCode(http.StatusUnauthorized)
}

func errRefreshFailed(source error) *goerrors.Error {
	return wrapSyncError(source, goerrors.CategoryExternal, ErrorRefreshFailed, MessageTransport).
		WithCode(http.StatusBadGateway)
}

func errMutationInFlight(key string) *goerrors.Error {
	return newSyncError("core: mutation already in flight for "+key, goerrors.CategoryConflict, ErrorMutationInFlight).
		WithCode(http.StatusConflict).
		WithMetadata(map[string]any{"entity": key})
}

func errFetchInProgress() *goerrors.Error {
	return newSyncError("core: catalog fetch already in progress", goerrors.CategoryConflict, ErrorFetchInProgress).
		WithCode(http.StatusConflict)
}

// errFetchSuperseded reports a page that landed after a clear or logout and
// was dropped.
func errFetchSuperseded(page int) *goerrors.Error {
	return newSyncError("core: catalog fetch superseded by a clear", goerrors.CategoryConflict, ErrorFetchSuperseded).
		WithCode(http.StatusConflict).
		WithMetadata(map[string]any{"page": page})
}

func errNoMorePages() *goerrors.Error {
	return newSyncError("core: catalog has no more pages", goerrors.CategoryOperation, ErrorNoMorePages).
		WithCode(http.StatusConflict)
}

// HasTextCode reports whether err carries the given sync text code.
func HasTextCode(err error, textCode string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(richErr.TextCode), textCode)
}

func IsUnauthorized(err error) bool {
	return HasTextCode(err, ErrorUnauthorized) || HasTextCode(err, ErrorRefreshRejected)
}

// UserMessage returns text safe to show to a person.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		message := strings.TrimSpace(richErr.Message)
		if message != "" && !strings.HasPrefix(message, "core:") {
			return message
		}
	}
	return MessageGeneric
}

// MapError normalizes arbitrary errors into the sync error envelope.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureSyncErrorEnvelope(richErr)
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newSyncError(err.Error(), goerrors.CategoryBadInput, ErrorBadInput)
	case strings.Contains(msg, "not found"):
		return newSyncError(err.Error(), goerrors.CategoryNotFound, ErrorNotFound)
	}
	return ensureSyncErrorEnvelope(goerrors.MapToError(err, goerrors.DefaultErrorMappers()))
}

func ensureSyncErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = syncHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultSyncTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = MessageGeneric
	}
	return err
}

func defaultSyncTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryNotFound:
		return ErrorNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return ErrorUnauthorized
	case goerrors.CategoryExternal:
		return ErrorTransport
	case goerrors.CategoryOperation:
		return ErrorApplication
	default:
		return ErrorInternal
	}
}

func syncHTTPStatus(category goerrors.Category) int {
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

func fallbackMessage(message string, fallback string) string {
	if trimmed := strings.TrimSpace(message); trimmed != "" {
		return trimmed
	}
	return fallback
}
