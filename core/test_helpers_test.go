package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
)

const (
	testAuthBaseURL    = "https://api.example.com/auth"
	testCatalogBaseURL = "https://api.example.com/catalog"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.AuthBaseURL = testAuthBaseURL
	cfg.CatalogBaseURL = testCatalogBaseURL
	return cfg
}

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}

// fakeBackend is a scripted TransportAdapter. Routes are keyed by
// "METHOD /path" relative to the host.
type fakeBackend struct {
	mu       sync.Mutex
	routes   map[string]func(req TransportRequest) (TransportResponse, error)
	requests []TransportRequest
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{routes: map[string]func(TransportRequest) (TransportResponse, error){}}
}

func (b *fakeBackend) Kind() string { return "fake" }

func (b *fakeBackend) handle(method string, path string, handler func(req TransportRequest) (TransportResponse, error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[method+" "+path] = handler
}

func (b *fakeBackend) Do(_ context.Context, req TransportRequest) (TransportResponse, error) {
	parsed, err := url.Parse(req.URL)
	if err != nil {
		return TransportResponse{}, err
	}
	b.mu.Lock()
	b.requests = append(b.requests, cloneTransportRequest(req))
	handler := b.routes[strings.ToUpper(req.Method)+" "+parsed.Path]
	b.mu.Unlock()
	if handler == nil {
		return jsonResponse(http.StatusNotFound, map[string]any{"code": 404, "status": "error", "message": "no route"}), nil
	}
	return handler(req)
}

func (b *fakeBackend) count(method string, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, req := range b.requests {
		parsed, _ := url.Parse(req.URL)
		if strings.EqualFold(req.Method, method) && parsed.Path == path {
			total++
		}
	}
	return total
}

func (b *fakeBackend) recorded() []TransportRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]TransportRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

func jsonResponse(status int, body any) TransportResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		panic(fmt.Sprintf("marshal test body: %v", err))
	}
	return TransportResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       raw,
	}
}

func successEnvelope(code int, data any) TransportResponse {
	status := http.StatusOK
	if code == http.StatusCreated {
		status = http.StatusCreated
	}
	return jsonResponse(status, map[string]any{"code": code, "status": "success", "data": data})
}

func errorEnvelope(status int, message string) TransportResponse {
	return jsonResponse(status, map[string]any{"code": status, "status": "error", "message": message})
}

// refreshRoute answers the refresh exchange with accessToken.
func refreshRoute(accessToken string) func(TransportRequest) (TransportResponse, error) {
	return func(TransportRequest) (TransportResponse, error) {
		return successEnvelope(http.StatusOK, map[string]any{
			"access_token": accessToken,
			"expires_in":   900,
		}), nil
	}
}

// bearerGate answers 200 with data only for the given bearer token and 401
// otherwise.
func bearerGate(token string, data any) func(TransportRequest) (TransportResponse, error) {
	return func(req TransportRequest) (TransportResponse, error) {
		if bearerToken(req) != token {
			return errorEnvelope(http.StatusUnauthorized, "token expired"), nil
		}
		return successEnvelope(http.StatusOK, data), nil
	}
}

func newTestProtocol(t *testing.T, backend *fakeBackend, store CredentialStore) (*RequestProtocol, *RefreshCoordinator) {
	t.Helper()
	refresher, err := NewRefreshCoordinator(store, backend, testConfig(), stubLogger{})
	if err != nil {
		t.Fatalf("new refresh coordinator: %v", err)
	}
	protocol, err := NewRequestProtocol(backend, store, refresher, BearerTokenSigner{}, 0, stubLogger{})
	if err != nil {
		t.Fatalf("new request protocol: %v", err)
	}
	return protocol, refresher
}

func seededStore(t *testing.T, pair CredentialPair) *MemoryCredentialStore {
	t.Helper()
	store := NewMemoryCredentialStore()
	if err := store.Put(context.Background(), pair); err != nil {
		t.Fatalf("seed credentials: %v", err)
	}
	return store
}

func category(id string, order int, items ...Item) Category {
	return Category{ID: EntityID(id), Name: "category " + id, DisplayOrder: order, IsActive: true, Items: items}
}

func item(id string, order int, active bool) Item {
	return Item{ID: EntityID(id), Name: "item " + id, DisplayOrder: order, IsActive: active, Price: 10}
}
