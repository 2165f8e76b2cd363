package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorConstructorsCarryTextCodes(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		textCode string
		status   int
	}{
		{name: "transport", err: TransportError(errors.New("dial")), textCode: ErrorTransport, status: http.StatusBadGateway},
		{name: "unauthorized", err: UnauthorizedError(""), textCode: ErrorUnauthorized, status: http.StatusUnauthorized},
		{name: "application", err: ApplicationError("nope", http.StatusUnprocessableEntity), textCode: ErrorApplication, status: http.StatusUnprocessableEntity},
		{name: "decode", err: DecodeError(errors.New("eof")), textCode: ErrorDecode, status: http.StatusBadGateway},
		{name: "in flight", err: errMutationInFlight("item:1"), textCode: ErrorMutationInFlight, status: http.StatusConflict},
		{name: "not found", err: NotFoundError("core: missing"), textCode: ErrorNotFound, status: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !HasTextCode(tc.err, tc.textCode) {
				t.Fatalf("expected text code %s, got %v", tc.textCode, tc.err)
			}
			mapped := MapError(tc.err)
			if mapped.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, mapped.Code)
			}
		})
	}
}

func TestHasTextCodeSeesWrappedErrors(t *testing.T) {
	err := fmt.Errorf("outer: %w", errRefreshRejected("revoked"))
	if !HasTextCode(err, ErrorRefreshRejected) || !IsUnauthorized(err) {
		t.Fatalf("expected wrapped refresh rejection to be detected")
	}
	if HasTextCode(errors.New("plain"), ErrorRefreshRejected) {
		t.Fatalf("expected plain error not to match")
	}
}

func TestUserMessageHidesInternalDetail(t *testing.T) {
	if got := UserMessage(ApplicationError("Item name already exists", http.StatusConflict)); got != "Item name already exists" {
		t.Fatalf("expected server message, got %q", got)
	}
	if got := UserMessage(errFetchInProgress()); got != MessageGeneric {
		t.Fatalf("expected generic message for internal text, got %q", got)
	}
	if got := UserMessage(errors.New("boom")); got != MessageGeneric {
		t.Fatalf("expected generic message for plain error, got %q", got)
	}
	if got := UserMessage(nil); got != "" {
		t.Fatalf("expected empty message for nil, got %q", got)
	}
}

func TestMapErrorClassifiesPlainErrors(t *testing.T) {
	if mapped := MapError(errors.New("name is required")); mapped.TextCode != ErrorBadInput {
		t.Fatalf("expected bad input, got %s", mapped.TextCode)
	}
	if mapped := MapError(errors.New("row not found")); mapped.TextCode != ErrorNotFound {
		t.Fatalf("expected not found, got %s", mapped.TextCode)
	}
	if MapError(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}
