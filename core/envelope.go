package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

const EnvelopeStatusSuccess = "success"

// Envelope is the backend's response wrapper. Raw keeps the full body for
// lookups outside Data, such as the has-more flag.
type Envelope[T any] struct {
	Code    int
	Status  string
	Message string
	Data    T
	Raw     json.RawMessage
}

type envelopeHeader struct {
	Code    json.Number     `json:"code"`
	Status  string          `json:"status"`
	Message any             `json:"message"`
	Error   any             `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// DecodeEnvelope succeeds only for a 2xx response whose envelope carries the
// expected code and a success status.
func DecodeEnvelope[T any](resp TransportResponse, expectedCode int) (Envelope[T], error) {
	out := Envelope[T]{}
	body := bytes.TrimSpace(resp.Body)
	header, headerErr := decodeEnvelopeHeader(body)
	message := ""
	if headerErr == nil {
		message = header.detail()
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return out, UnauthorizedError(message)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, ApplicationError(message, resp.StatusCode)
	}
	if headerErr != nil {
		return out, DecodeError(headerErr)
	}

	code, err := parseEnvelopeCode(header.Code)
	if err != nil {
		return out, DecodeError(err)
	}
	out.Code = code
	out.Status = strings.TrimSpace(header.Status)
	out.Message = message
	out.Raw = append(json.RawMessage(nil), body...)

	if code != expectedCode || !strings.EqualFold(out.Status, EnvelopeStatusSuccess) {
		return out, ApplicationError(message, resp.StatusCode).
			WithMetadata(map[string]any{"envelope_code": code, "envelope_status": out.Status})
	}
	if len(header.Data) == 0 || bytes.Equal(header.Data, []byte("null")) {
		return out, nil
	}
	if err := json.Unmarshal(header.Data, &out.Data); err != nil {
		return out, DecodeError(fmt.Errorf("core: decode envelope data: %w", err))
	}
	return out, nil
}

func decodeEnvelopeHeader(body []byte) (envelopeHeader, error) {
	header := envelopeHeader{}
	if len(body) == 0 {
		return header, fmt.Errorf("core: empty response body")
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&header); err != nil {
		return header, fmt.Errorf("core: decode envelope: %w", err)
	}
	return header, nil
}

func parseEnvelopeCode(raw json.Number) (int, error) {
	value := strings.TrimSpace(raw.String())
	if value == "" {
		return 0, fmt.Errorf("core: envelope code is missing")
	}
	code, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("core: envelope code is invalid: %q", value)
	}
	return code, nil
}

func (h envelopeHeader) detail() string {
	if text := messageText(h.Message); text != "" {
		return text
	}
	return messageText(h.Error)
}

func messageText(value any) string {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case []any:
		parts := make([]string, 0, len(typed))
		for _, entry := range typed {
			if text := messageText(entry); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		for _, key := range []string{"message", "detail", "error"} {
			if text := messageText(typed[key]); text != "" {
				return text
			}
		}
	}
	return ""
}

// ResolveHasMore is a compatibility shim for the has-more flag, which the
// backend has placed in several locations over time. Lookup order:
// data.has_next, data.pagination.has_next, top-level has_next (each also as
// has_more). A full page is taken to mean more pages only as a last resort.
func ResolveHasMore(raw json.RawMessage, returned int, pageSize int) bool {
	document := map[string]any{}
	if len(raw) > 0 {
		decoder := json.NewDecoder(bytes.NewReader(raw))
		decoder.UseNumber()
		if err := decoder.Decode(&document); err != nil {
			document = map[string]any{}
		}
	}
	for _, path := range hasMorePaths {
		if value, ok := lookupFlag(document, path...); ok {
			return value
		}
	}
	return pageSize > 0 && returned >= pageSize
}

var hasMorePaths = [][]string{
	{"data", "has_next"},
	{"data", "has_more"},
	{"data", "pagination", "has_next"},
	{"data", "pagination", "has_more"},
	{"has_next"},
	{"has_more"},
}

func lookupFlag(document map[string]any, path ...string) (bool, bool) {
	var current any = document
	for _, key := range path {
		node, ok := current.(map[string]any)
		if !ok {
			return false, false
		}
		current, ok = node[key]
		if !ok {
			return false, false
		}
	}
	switch typed := current.(type) {
	case bool:
		return typed, true
	case json.Number:
		value, err := typed.Int64()
		if err != nil {
			return false, false
		}
		return value != 0, true
	case string:
		value, err := strconv.ParseBool(strings.TrimSpace(typed))
		if err != nil {
			return false, false
		}
		return value, true
	}
	return false, false
}
