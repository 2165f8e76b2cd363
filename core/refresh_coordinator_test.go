package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"
)

func TestRefreshCoordinator_NoRefreshTokenSkipsNetwork(t *testing.T) {
	backend := newFakeBackend()
	backend.handle(http.MethodPost, "/auth/refresh-token", refreshRoute("fresh"))
	store := seededStore(t, CredentialPair{AccessToken: "expired"})
	_, refresher := newTestProtocol(t, backend, store)

	_, err := refresher.Refresh(context.Background())
	if !HasTextCode(err, ErrorNoRefreshToken) {
		t.Fatalf("expected no refresh token error, got %v", err)
	}
	if refresher.Calls() != 0 || backend.count(http.MethodPost, "/auth/refresh-token") != 0 {
		t.Fatalf("expected no remote exchange")
	}
}

func TestRefreshCoordinator_SuccessKeepsExistingRefreshToken(t *testing.T) {
	backend := newFakeBackend()
	var sent refreshTokenRequest
	backend.handle(http.MethodPost, "/auth/refresh-token", func(req TransportRequest) (TransportResponse, error) {
		if err := json.Unmarshal(req.Body, &sent); err != nil {
			t.Fatalf("decode refresh body: %v", err)
		}
		if req.ContentType != "application/json" {
			t.Fatalf("expected json content type, got %q", req.ContentType)
		}
		return refreshRoute("fresh")(req)
	})
	store := seededStore(t, CredentialPair{AccessToken: "expired", RefreshToken: "refresh-1"})
	_, refresher := newTestProtocol(t, backend, store)

	pair, err := refresher.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if sent.RefreshToken != "refresh-1" {
		t.Fatalf("expected refresh token in body, got %q", sent.RefreshToken)
	}
	if pair.AccessToken != "fresh" || pair.RefreshToken != "refresh-1" {
		t.Fatalf("unexpected pair %+v", pair)
	}
	stored, ok, _ := store.Get(context.Background())
	if !ok || stored != pair {
		t.Fatalf("expected stored pair %+v, got %+v", pair, stored)
	}
}

func TestRefreshCoordinator_AdoptsRotatedRefreshToken(t *testing.T) {
	backend := newFakeBackend()
	backend.handle(http.MethodPost, "/auth/refresh-token", func(TransportRequest) (TransportResponse, error) {
		return successEnvelope(http.StatusOK, map[string]any{
			"access_token":  "fresh",
			"refresh_token": "refresh-2",
			"expires_in":    900,
		}), nil
	})
	store := seededStore(t, CredentialPair{AccessToken: "expired", RefreshToken: "refresh-1"})
	_, refresher := newTestProtocol(t, backend, store)

	pair, err := refresher.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if pair.RefreshToken != "refresh-2" {
		t.Fatalf("expected rotated refresh token, got %q", pair.RefreshToken)
	}
}

func TestRefreshCoordinator_RejectedRefreshClearsStore(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		backend := newFakeBackend()
		backend.handle(http.MethodPost, "/auth/refresh-token", func(TransportRequest) (TransportResponse, error) {
			return errorEnvelope(status, "refresh token expired"), nil
		})
		store := seededStore(t, CredentialPair{AccessToken: "expired", RefreshToken: "dead"})
		_, refresher := newTestProtocol(t, backend, store)

		_, err := refresher.Refresh(context.Background())
		if !HasTextCode(err, ErrorRefreshRejected) {
			t.Fatalf("status %d: expected refresh rejected, got %v", status, err)
		}
		if UserMessage(err) != "refresh token expired" {
			t.Fatalf("status %d: expected backend message, got %q", status, UserMessage(err))
		}
		if _, ok, _ := store.Get(context.Background()); ok {
			t.Fatalf("status %d: expected credential store to be empty", status)
		}
	}
}

func TestRefreshCoordinator_TransientFailuresKeepStore(t *testing.T) {
	cases := map[string]func(TransportRequest) (TransportResponse, error){
		"server error": func(TransportRequest) (TransportResponse, error) {
			return errorEnvelope(http.StatusInternalServerError, "boom"), nil
		},
		"network": func(TransportRequest) (TransportResponse, error) {
			return TransportResponse{}, errors.New("connection reset")
		},
		"malformed": func(TransportRequest) (TransportResponse, error) {
			return TransportResponse{StatusCode: http.StatusOK, Body: []byte("<html>")}, nil
		},
		"missing token": func(TransportRequest) (TransportResponse, error) {
			return successEnvelope(http.StatusOK, map[string]any{"expires_in": 900}), nil
		},
	}
	for name, handler := range cases {
		backend := newFakeBackend()
		backend.handle(http.MethodPost, "/auth/refresh-token", handler)
		original := CredentialPair{AccessToken: "expired", RefreshToken: "refresh-1"}
		store := seededStore(t, original)
		_, refresher := newTestProtocol(t, backend, store)

		_, err := refresher.Refresh(context.Background())
		if !HasTextCode(err, ErrorRefreshFailed) {
			t.Fatalf("%s: expected transient refresh failure, got %v", name, err)
		}
		stored, ok, _ := store.Get(context.Background())
		if !ok || stored != original {
			t.Fatalf("%s: expected store untouched, got %+v", name, stored)
		}
	}
}

func TestRefreshCoordinator_TimeoutIsTransient(t *testing.T) {
	store := seededStore(t, CredentialPair{AccessToken: "expired", RefreshToken: "refresh-1"})
	cfg := testConfig()
	cfg.RefreshTimeout = 20 * time.Millisecond
	refresher, err := NewRefreshCoordinator(store, blockingTransport{}, cfg, stubLogger{})
	if err != nil {
		t.Fatalf("new refresh coordinator: %v", err)
	}

	_, err = refresher.Refresh(context.Background())
	if !HasTextCode(err, ErrorRefreshFailed) {
		t.Fatalf("expected timeout to surface as refresh failure, got %v", err)
	}
	if _, ok, _ := store.Get(context.Background()); !ok {
		t.Fatalf("expected credentials to survive a timeout")
	}
}

type blockingTransport struct{}

func (blockingTransport) Kind() string { return "blocking" }

func (blockingTransport) Do(ctx context.Context, _ TransportRequest) (TransportResponse, error) {
	<-ctx.Done()
	return TransportResponse{}, ctx.Err()
}

func TestRefreshCoordinator_ConcurrentCallersShareOneExchange(t *testing.T) {
	backend := newFakeBackend()
	release := make(chan struct{})
	backend.handle(http.MethodPost, "/auth/refresh-token", func(req TransportRequest) (TransportResponse, error) {
		<-release
		return refreshRoute("fresh")(req)
	})
	store := seededStore(t, CredentialPair{AccessToken: "expired", RefreshToken: "refresh-1"})
	_, refresher := newTestProtocol(t, backend, store)

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan CredentialPair, callers)
	failures := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pair, err := refresher.RefreshAfter(context.Background(), "expired")
			if err != nil {
				failures <- err
				return
			}
			results <- pair
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)
	close(failures)

	for err := range failures {
		t.Fatalf("unexpected refresh failure: %v", err)
	}
	for pair := range results {
		if pair.AccessToken != "fresh" {
			t.Fatalf("expected shared outcome, got %+v", pair)
		}
	}
	if got := refresher.Calls(); got != 1 {
		t.Fatalf("expected exactly one exchange, got %d", got)
	}
}

func TestRefreshCoordinator_RefreshAfterSkipsWhenAlreadyRotated(t *testing.T) {
	backend := newFakeBackend()
	backend.handle(http.MethodPost, "/auth/refresh-token", refreshRoute("newer"))
	store := seededStore(t, CredentialPair{AccessToken: "fresh", RefreshToken: "refresh-1"})
	_, refresher := newTestProtocol(t, backend, store)

	pair, err := refresher.RefreshAfter(context.Background(), "expired")
	if err != nil {
		t.Fatalf("refresh after: %v", err)
	}
	if pair.AccessToken != "fresh" {
		t.Fatalf("expected stored pair, got %+v", pair)
	}
	if refresher.Calls() != 0 {
		t.Fatalf("expected no exchange when the credential already rotated")
	}
}

func TestRefreshCoordinator_CallerCancellationDoesNotAbortExchange(t *testing.T) {
	backend := newFakeBackend()
	release := make(chan struct{})
	backend.handle(http.MethodPost, "/auth/refresh-token", func(req TransportRequest) (TransportResponse, error) {
		<-release
		return refreshRoute("fresh")(req)
	})
	store := seededStore(t, CredentialPair{AccessToken: "expired", RefreshToken: "refresh-1"})
	_, refresher := newTestProtocol(t, backend, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := refresher.Refresh(ctx)
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	if err := <-done; !HasTextCode(err, ErrorRefreshFailed) {
		t.Fatalf("expected cancelled caller to see refresh failure, got %v", err)
	}
	close(release)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if stored, _, _ := store.Get(context.Background()); stored.AccessToken == "fresh" {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected detached exchange to persist the new credential")
}
