package core

import (
	"encoding/json"
	"net/http"
	"testing"
)

type envelopeTestPayload struct {
	Name string `json:"name"`
}

func TestDecodeEnvelope_Success(t *testing.T) {
	resp := successEnvelope(http.StatusOK, map[string]any{"name": "menu"})
	envelope, err := DecodeEnvelope[envelopeTestPayload](resp, http.StatusOK)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Name != "menu" || envelope.Status != EnvelopeStatusSuccess {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
	if len(envelope.Raw) == 0 {
		t.Fatalf("expected raw body to be kept")
	}
}

func TestDecodeEnvelope_Failures(t *testing.T) {
	cases := []struct {
		name     string
		resp     TransportResponse
		expected int
		code     string
		message  string
	}{
		{
			name:     "code mismatch",
			resp:     successEnvelope(http.StatusOK, map[string]any{}),
			expected: http.StatusCreated,
			code:     ErrorApplication,
			message:  MessageGeneric,
		},
		{
			name:     "error status in 200",
			resp:     jsonResponse(http.StatusOK, map[string]any{"code": 200, "status": "error", "message": "name taken"}),
			expected: http.StatusOK,
			code:     ErrorApplication,
			message:  "name taken",
		},
		{
			name:     "non 2xx with error field",
			resp:     jsonResponse(http.StatusUnprocessableEntity, map[string]any{"code": 422, "status": "error", "error": "price is invalid"}),
			expected: http.StatusOK,
			code:     ErrorApplication,
			message:  "price is invalid",
		},
		{
			name:     "unauthorized",
			resp:     errorEnvelope(http.StatusUnauthorized, "token expired"),
			expected: http.StatusOK,
			code:     ErrorUnauthorized,
			message:  "token expired",
		},
		{
			name:     "malformed body",
			resp:     TransportResponse{StatusCode: http.StatusOK, Body: []byte("<html>")},
			expected: http.StatusOK,
			code:     ErrorDecode,
			message:  MessageDecode,
		},
		{
			name:     "missing code",
			resp:     jsonResponse(http.StatusOK, map[string]any{"status": "success"}),
			expected: http.StatusOK,
			code:     ErrorDecode,
			message:  MessageDecode,
		},
		{
			name:     "data shape mismatch",
			resp:     successEnvelope(http.StatusOK, []any{1, 2}),
			expected: http.StatusOK,
			code:     ErrorDecode,
			message:  MessageDecode,
		},
	}
	for _, tc := range cases {
		_, err := DecodeEnvelope[envelopeTestPayload](tc.resp, tc.expected)
		if !HasTextCode(err, tc.code) {
			t.Fatalf("%s: expected %s, got %v", tc.name, tc.code, err)
		}
		if got := UserMessage(err); got != tc.message {
			t.Fatalf("%s: expected message %q, got %q", tc.name, tc.message, got)
		}
	}
}

func TestResolveHasMore_LookupOrder(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		returned int
		expected bool
	}{
		{"data has_next", `{"data":{"has_next":false,"pagination":{"has_next":true}},"has_next":true}`, 20, false},
		{"pagination has_next", `{"data":{"pagination":{"has_next":true}},"has_next":false}`, 1, true},
		{"top level has_next", `{"data":{},"has_next":false}`, 20, false},
		{"has_more alias", `{"data":{"has_more":true}}`, 0, true},
		{"string flag", `{"data":{"has_next":"true"}}`, 0, true},
		{"numeric flag", `{"data":{"pagination":{"has_next":0}}}`, 20, false},
		{"full page fallback", `{"data":{"categories":[]}}`, 20, true},
		{"partial page fallback", `{"data":{"categories":[]}}`, 3, false},
		{"unparseable body", `not json`, 20, true},
	}
	for _, tc := range cases {
		got := ResolveHasMore(json.RawMessage(tc.body), tc.returned, 20)
		if got != tc.expected {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.expected, got)
		}
	}
}
