package core

import "testing"

func TestRedactSensitiveMapPreservesTraceabilityMetadata(t *testing.T) {
	redacted := RedactSensitiveMap(map[string]any{
		"request_id":        "req_1",
		"has_refresh_token": true,
		"token_expires_at":  "2026-01-01T00:00:00Z",
		"access_token":      "secret-token",
		"authorization":     "Bearer secret-token",
		"credentials":       CredentialPair{AccessToken: "a", RefreshToken: "r"},
		"nested":            map[string]any{"refresh_token": "refresh", "request_id": "req_nested"},
		"events":            []any{map[string]any{"password": "p"}, map[string]any{"entity": "item:1"}},
	})

	if redacted["request_id"] != "req_1" || redacted["has_refresh_token"] != true {
		t.Fatalf("expected traceability keys to remain visible, got %#v", redacted)
	}
	if redacted["token_expires_at"] != "2026-01-01T00:00:00Z" {
		t.Fatalf("expected expiry metadata to remain visible")
	}
	if redacted["access_token"] != RedactedValue || redacted["authorization"] != RedactedValue {
		t.Fatalf("expected token fields to be redacted, got %#v", redacted)
	}
	if redacted["credentials"] != RedactedValue {
		t.Fatalf("expected credential pair to be redacted, got %#v", redacted["credentials"])
	}
	nested, ok := redacted["nested"].(map[string]any)
	if !ok || nested["refresh_token"] != RedactedValue || nested["request_id"] != "req_nested" {
		t.Fatalf("unexpected nested redaction %#v", redacted["nested"])
	}
	events, ok := redacted["events"].([]any)
	if !ok || events[0].(map[string]any)["password"] != RedactedValue || events[1].(map[string]any)["entity"] != "item:1" {
		t.Fatalf("unexpected slice redaction %#v", redacted["events"])
	}
}
