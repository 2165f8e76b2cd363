package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-catalog-sync/core"
	goerrors "github.com/goliatone/go-errors"
)

func TestRESTAdapter_DoSendsMethodHeadersAndQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST method, got %s", r.Method)
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("expected page query, got %q", got)
		}
		if got := r.URL.Query().Get("keep"); got != "yes" {
			t.Errorf("expected existing query to survive, got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer abc" {
			t.Errorf("expected authorization header, got %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("expected content type, got %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "catalogsync" {
			t.Errorf("expected user agent from config, got %q", got)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read request body: %v", err)
		}
		if string(body) != `{"a":1}` {
			t.Errorf("unexpected request body %q", string(body))
		}
		w.Header().Set("X-Server", "ok")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("done"))
	}))
	defer server.Close()

	adapter := NewRESTAdapterFromConfig(server.Client(), core.DefaultConfig())
	result, err := adapter.Do(context.Background(), core.TransportRequest{
		Method:      "post",
		URL:         server.URL + "/items?keep=yes",
		Query:       map[string]string{"page": "2"},
		Headers:     map[string]string{"Authorization": "Bearer abc"},
		Body:        []byte(`{"a":1}`),
		ContentType: "application/json",
		Timeout:     5 * time.Second,
	})
	if err != nil {
		t.Fatalf("perform rest request: %v", err)
	}
	if result.StatusCode != http.StatusAccepted {
		t.Fatalf("expected accepted status, got %d", result.StatusCode)
	}
	if string(result.Body) != "done" {
		t.Fatalf("unexpected response body: %q", string(result.Body))
	}
	if result.Headers["X-Server"] != "ok" {
		t.Fatalf("expected response header")
	}
}

func TestRESTAdapter_NonSuccessStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"expired"}`))
	}))
	defer server.Close()

	result, err := NewRESTAdapter(server.Client()).Do(context.Background(), core.TransportRequest{URL: server.URL})
	if err != nil {
		t.Fatalf("expected response for 401, got error %v", err)
	}
	if result.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 status, got %d", result.StatusCode)
	}
}

func TestNewRESTAdapter_DefaultClientTimeout(t *testing.T) {
	adapter := NewRESTAdapter(nil)
	httpClient, ok := adapter.Client.(*http.Client)
	if !ok {
		t.Fatalf("expected default http client implementation")
	}
	if httpClient.Timeout != defaultRESTClientTimeout {
		t.Fatalf("expected default timeout %s, got %s", defaultRESTClientTimeout, httpClient.Timeout)
	}
	if adapter.MaxResponseBodyBytes != defaultRESTResponseBodyLimit {
		t.Fatalf("expected default response body limit %d, got %d", defaultRESTResponseBodyLimit, adapter.MaxResponseBodyBytes)
	}
}

func TestRESTAdapter_ResponseLimitReturnsRichError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("12345"))
	}))
	defer server.Close()

	adapter := NewRESTAdapter(server.Client())
	adapter.MaxResponseBodyBytes = 4

	_, err := adapter.Do(context.Background(), core.TransportRequest{Method: http.MethodGet, URL: server.URL})
	if err == nil {
		t.Fatalf("expected response body limit error")
	}
	if !strings.Contains(err.Error(), "response body exceeds limit of 4 bytes") {
		t.Fatalf("unexpected error: %v", err)
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryExternal {
		t.Fatalf("expected external category, got %q", rich.Category)
	}
	if rich.TextCode != core.ErrorTransport {
		t.Fatalf("expected %q text code, got %q", core.ErrorTransport, rich.TextCode)
	}
	if rich.Code != http.StatusBadGateway {
		t.Fatalf("expected %d code, got %d", http.StatusBadGateway, rich.Code)
	}
}

func TestRESTAdapter_RequestLimitOverridesAdapterLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("12345"))
	}))
	defer server.Close()

	adapter := NewRESTAdapter(server.Client())
	adapter.MaxResponseBodyBytes = 4

	result, err := adapter.Do(context.Background(), core.TransportRequest{
		Method:               http.MethodGet,
		URL:                  server.URL,
		MaxResponseBodyBytes: 16,
	})
	if err != nil {
		t.Fatalf("expected raised request limit to accept the body, got %v", err)
	}
	if string(result.Body) != "12345" {
		t.Fatalf("unexpected response body: %q", string(result.Body))
	}

	adapter.MaxResponseBodyBytes = 1024
	_, err = adapter.Do(context.Background(), core.TransportRequest{
		Method:               http.MethodGet,
		URL:                  server.URL,
		MaxResponseBodyBytes: 2,
	})
	if err == nil || !strings.Contains(err.Error(), "response body exceeds limit of 2 bytes") {
		t.Fatalf("expected lowered request limit to reject the body, got %v", err)
	}
}

func TestRESTAdapter_RejectsRelativeURL(t *testing.T) {
	_, err := NewRESTAdapter(nil).Do(context.Background(), core.TransportRequest{URL: "/items"})
	if !core.HasTextCode(err, core.ErrorBadInput) {
		t.Fatalf("expected bad input error, got %v", err)
	}
}

func TestRESTAdapter_UnreachableHostIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewRESTAdapter(nil).Do(context.Background(), core.TransportRequest{URL: url, Timeout: time.Second})
	if !core.HasTextCode(err, core.ErrorTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestOfflineAdapter_FailsAsTransportError(t *testing.T) {
	_, err := NewOfflineAdapter().Do(context.Background(), core.TransportRequest{Method: http.MethodGet})
	if !core.HasTextCode(err, core.ErrorTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestRESTAdapter_RequestProtocolRefreshesOverHTTP(t *testing.T) {
	var refreshes atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["refresh_token"] != "refresh-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"code":   200,
			"status": "success",
			"data":   map[string]any{"access_token": "fresh"},
		})
	})
	mux.HandleFunc("GET /catalog/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "token expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"code": 200, "status": "success", "data": map[string]any{"id": 1}})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := core.DefaultConfig()
	cfg.AuthBaseURL = server.URL + "/auth"
	cfg.CatalogBaseURL = server.URL + "/catalog"
	adapter := NewRESTAdapterFromConfig(server.Client(), cfg)
	store := core.NewMemoryCredentialStore()
	if err := store.Put(context.Background(), core.CredentialPair{AccessToken: "stale", RefreshToken: "refresh-1"}); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	refresher, err := core.NewRefreshCoordinator(store, adapter, cfg, nil)
	if err != nil {
		t.Fatalf("new refresh coordinator: %v", err)
	}
	protocol, err := core.NewRequestProtocol(adapter, store, refresher, core.BearerTokenSigner{}, 0, nil)
	if err != nil {
		t.Fatalf("new request protocol: %v", err)
	}

	resp, err := protocol.Execute(context.Background(), core.TransportRequest{
		Method: http.MethodGet,
		URL:    cfg.CatalogBaseURL + "/profile",
	}, core.AuthRequired)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected recovered 200, got %d", resp.StatusCode)
	}
	if refreshes.Load() != 1 {
		t.Fatalf("expected one refresh exchange, got %d", refreshes.Load())
	}
	stored, _, _ := store.Get(context.Background())
	if stored.AccessToken != "fresh" || stored.RefreshToken != "refresh-1" {
		t.Fatalf("expected rotated access token with kept refresh token, got %+v", stored)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
