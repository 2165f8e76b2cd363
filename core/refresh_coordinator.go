package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

const refreshFlightKey = "refresh"

// Refresher is the part of the coordinator the request protocol depends on.
type Refresher interface {
	RefreshAfter(ctx context.Context, rejectedAccessToken string) (CredentialPair, error)
}

// RefreshCoordinator exchanges the stored refresh token for a new access token.
// At most one exchange is outstanding at any time; concurrent callers share
// its outcome.
type RefreshCoordinator struct {
	store      CredentialStore
	transport  TransportAdapter
	refreshURL string
	timeout    time.Duration
	observer   observer
	group      singleflight.Group
	calls      atomic.Int64
	now        func() time.Time
}

func NewRefreshCoordinator(
	store CredentialStore,
	transport TransportAdapter,
	cfg Config,
	logger Logger,
) (*RefreshCoordinator, error) {
	if store == nil {
		return nil, BadInputError("core: credential store is required")
	}
	if transport == nil {
		return nil, BadInputError("core: transport adapter is required")
	}
	if err := validateBaseURL("auth_base_url", cfg.AuthBaseURL); err != nil {
		return nil, BadInputError(err.Error())
	}
	timeout := cfg.RefreshTimeout
	if timeout <= 0 {
		timeout = defaultRefreshTimeout
	}
	return &RefreshCoordinator{
		store:      store,
		transport:  transport,
		refreshURL: endpoint(cfg.AuthBaseURL, "refresh-token"),
		timeout:    timeout,
		observer:   newObserver(logger),
		now:        time.Now,
	}, nil
}

// Calls reports how many remote exchanges have been issued.
func (c *RefreshCoordinator) Calls() int64 {
	if c == nil {
		return 0
	}
	return c.calls.Load()
}

// Refresh joins the in-flight exchange or starts one. The exchange runs
// detached from the caller's cancellation, bounded by the refresh timeout; a
// caller whose context ends stops waiting without affecting other callers.
func (c *RefreshCoordinator) Refresh(ctx context.Context) (CredentialPair, error) {
	return c.refresh(ctx, "")
}

// RefreshAfter refreshes on behalf of a request rejected while signed with
// rejectedAccessToken. When the stored token already differs, another caller
// refreshed in the meantime and the stored pair is returned without a remote
// exchange.
func (c *RefreshCoordinator) RefreshAfter(ctx context.Context, rejectedAccessToken string) (CredentialPair, error) {
	return c.refresh(ctx, strings.TrimSpace(rejectedAccessToken))
}

func (c *RefreshCoordinator) refresh(ctx context.Context, rejectedAccessToken string) (CredentialPair, error) {
	if c == nil {
		return CredentialPair{}, BadInputError("core: refresh coordinator is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	flightCtx := context.WithoutCancel(ctx)
	results := c.group.DoChan(refreshFlightKey, func() (any, error) {
		exchangeCtx, cancel := context.WithTimeout(flightCtx, c.timeout)
		defer cancel()
		return c.exchange(exchangeCtx, rejectedAccessToken)
	})
	select {
	case <-ctx.Done():
		return CredentialPair{}, errRefreshFailed(ctx.Err())
	case result := <-results:
		if result.Err != nil {
			return CredentialPair{}, result.Err
		}
		pair, _ := result.Val.(CredentialPair)
		return pair, nil
	}
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshTokenPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (c *RefreshCoordinator) exchange(ctx context.Context, rejectedAccessToken string) (pair CredentialPair, err error) {
	startedAt := time.Now()
	fields := map[string]any{}
	defer func() {
		c.observer.observeOperation(ctx, startedAt, "credential.refresh", err, fields)
	}()

	current, ok, err := c.store.Get(ctx)
	if err != nil {
		return CredentialPair{}, errRefreshFailed(err)
	}
	if ok && rejectedAccessToken != "" {
		if stored := strings.TrimSpace(current.AccessToken); stored != "" && stored != rejectedAccessToken {
			fields["skipped"] = "already_rotated"
			return current, nil
		}
	}
	if !ok || !current.CanRefresh() {
		return CredentialPair{}, errNoRefreshCredential()
	}

	body, err := json.Marshal(refreshTokenRequest{RefreshToken: current.RefreshToken})
	if err != nil {
		return CredentialPair{}, errRefreshFailed(err)
	}
	c.calls.Add(1)
	resp, err := c.transport.Do(ctx, TransportRequest{
		Method:      http.MethodPost,
		URL:         c.refreshURL,
		Headers:     map[string]string{"Accept": "application/json"},
		Body:        body,
		ContentType: "application/json",
		Timeout:     c.timeout,
	})
	if err != nil {
		return CredentialPair{}, errRefreshFailed(err)
	}
	fields["status_code"] = resp.StatusCode

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		message := ""
		if header, headerErr := decodeEnvelopeHeader(resp.Body); headerErr == nil {
			message = header.detail()
		}
		if clearErr := c.store.Clear(ctx); clearErr != nil {
			c.observer.logError(ctx, "credential clear after rejected refresh failed", map[string]any{
				"error": clearErr.Error(),
			})
		}
		return CredentialPair{}, errRefreshRejected(message)
	}

	envelope, err := DecodeEnvelope[refreshTokenPayload](resp, http.StatusOK)
	if err != nil {
		return CredentialPair{}, errRefreshFailed(err)
	}
	access := strings.TrimSpace(envelope.Data.AccessToken)
	if access == "" {
		return CredentialPair{}, errRefreshFailed(DecodeError(fmt.Errorf("core: refresh response has no access token")))
	}
	next := CredentialPair{AccessToken: access, RefreshToken: current.RefreshToken}
	if issued := strings.TrimSpace(envelope.Data.RefreshToken); issued != "" {
		next.RefreshToken = issued
		fields["refresh_rotated"] = true
	}
	if err := c.store.Put(ctx, next); err != nil {
		return CredentialPair{}, errRefreshFailed(err)
	}
	for key, value := range tokenLogFields(c.now(), next, envelope.Data.ExpiresIn) {
		fields[key] = value
	}
	return next, nil
}
