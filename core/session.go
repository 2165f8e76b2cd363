package core

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

type LoginRequest struct {
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password,omitempty"`
	OTP      string `json:"otp,omitempty"`
}

func (r LoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" && strings.TrimSpace(r.Phone) == "" {
		return BadInputError("core: email or phone is required")
	}
	if strings.TrimSpace(r.Password) == "" && strings.TrimSpace(r.OTP) == "" {
		return BadInputError("core: password or otp is required")
	}
	return nil
}

type loginPayload struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresIn    int64           `json:"expires_in"`
	Partner      *PartnerProfile `json:"partner,omitempty"`
}

type LoginResult struct {
	Credentials CredentialPair
	Profile     *PartnerProfile
	Token       TokenState
}

// Session owns sign-in state: stored credentials, the cached partner profile
// and, on logout, the catalog.
type Session struct {
	executor    Executor
	store       CredentialStore
	catalog     *Catalog
	authBaseURL string
	profile     *FreshnessCache[PartnerProfile]
	observer    observer
	now         func() time.Time
}

func NewSession(executor Executor, store CredentialStore, catalog *Catalog, cfg Config, logger Logger) (*Session, error) {
	if executor == nil {
		return nil, BadInputError("core: request executor is required")
	}
	if store == nil {
		return nil, BadInputError("core: credential store is required")
	}
	if err := validateBaseURL("auth_base_url", cfg.AuthBaseURL); err != nil {
		return nil, BadInputError(err.Error())
	}
	return &Session{
		executor:    executor,
		store:       store,
		catalog:     catalog,
		authBaseURL: cfg.AuthBaseURL,
		profile:     NewFreshnessCache[PartnerProfile](0, cloneProfile),
		observer:    newObserver(logger),
		now:         time.Now,
	}, nil
}

func (s *Session) Login(ctx context.Context, req LoginRequest) (result LoginResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{}
	defer func() {
		s.observer.observeOperation(ctx, startedAt, "session.login", err, fields)
	}()
	if err := req.Validate(); err != nil {
		return LoginResult{}, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return LoginResult{}, InternalError(err, "core: encode login failed")
	}
	resp, err := s.executor.Execute(ctx, jsonRequest(http.MethodPost, endpoint(s.authBaseURL, "login"), body), AuthNone)
	if err != nil {
		return LoginResult{}, err
	}
	envelope, err := DecodeEnvelope[loginPayload](resp, http.StatusOK)
	if err != nil {
		return LoginResult{}, err
	}
	pair := CredentialPair{
		AccessToken:  strings.TrimSpace(envelope.Data.AccessToken),
		RefreshToken: strings.TrimSpace(envelope.Data.RefreshToken),
	}
	if err := pair.Validate(); err != nil {
		return LoginResult{}, DecodeError(err)
	}
	if err := s.store.Put(ctx, pair); err != nil {
		return LoginResult{}, err
	}
	s.profile.Invalidate()
	result = LoginResult{
		Credentials: pair,
		Token:       ResolveTokenState(s.now(), pair, 0),
	}
	if envelope.Data.Partner != nil {
		profile := cloneProfile(*envelope.Data.Partner)
		s.profile.Set(profile)
		result.Profile = &profile
	}
	for key, value := range tokenLogFields(s.now(), pair, envelope.Data.ExpiresIn) {
		fields[key] = value
	}
	return result, nil
}

// Logout notifies the backend best effort, then clears credentials, the
// profile and the catalog. Only local clearing failures are returned.
func (s *Session) Logout(ctx context.Context) (err error) {
	startedAt := time.Now()
	defer func() {
		s.observer.observeOperation(ctx, startedAt, "session.logout", err, nil)
	}()

	if authenticated, _ := s.Authenticated(ctx); authenticated {
		resp, callErr := s.executor.Execute(ctx, jsonRequest(http.MethodPost, endpoint(s.authBaseURL, "logout"), nil), AuthRequired)
		if callErr == nil {
			_, callErr = DecodeEnvelope[json.RawMessage](resp, http.StatusOK)
		}
		if callErr != nil {
			s.observer.logWarn(ctx, "remote logout failed", map[string]any{"error": callErr.Error()})
		}
	}

	s.profile.Invalidate()
	err = s.store.Clear(ctx)
	if s.catalog != nil {
		if clearErr := s.catalog.Clear(ctx); clearErr != nil && err == nil {
			err = clearErr
		}
	}
	return err
}

func (s *Session) Authenticated(ctx context.Context) (bool, error) {
	pair, ok, err := s.store.Get(ctx)
	if err != nil {
		return false, err
	}
	return ok && strings.TrimSpace(pair.AccessToken) != "", nil
}

func (s *Session) TokenState(ctx context.Context) (TokenState, error) {
	pair, _, err := s.store.Get(ctx)
	if err != nil {
		return TokenState{}, err
	}
	return ResolveTokenState(s.now(), pair, 0), nil
}

// Profile fetches the partner profile once and reuses it until login or
// logout invalidates it.
func (s *Session) Profile(ctx context.Context) (PartnerProfile, error) {
	return s.profile.Get(ctx, func(ctx context.Context) (PartnerProfile, error) {
		resp, err := s.executor.Execute(ctx, jsonRequest(http.MethodGet, endpoint(s.authBaseURL, "profile"), nil), AuthRequired)
		if err != nil {
			return PartnerProfile{}, err
		}
		envelope, err := DecodeEnvelope[PartnerProfile](resp, http.StatusOK)
		if err != nil {
			return PartnerProfile{}, err
		}
		return envelope.Data, nil
	})
}

func (s *Session) InvalidateProfile() {
	s.profile.Invalidate()
}
