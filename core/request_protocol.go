package core

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Executor performs authenticated requests. Catalog and session code depend
// on it rather than on the concrete protocol.
type Executor interface {
	Execute(ctx context.Context, req TransportRequest, policy AuthPolicy) (TransportResponse, error)
}

// RequestProtocol signs outbound requests and, on a 401, refreshes through
// the coordinator and retries the original request once.
type RequestProtocol struct {
	transport TransportAdapter
	store     CredentialStore
	refresher Refresher
	signer    Signer
	timeout   time.Duration
	observer  observer
}

func NewRequestProtocol(
	transport TransportAdapter,
	store CredentialStore,
	refresher Refresher,
	signer Signer,
	timeout time.Duration,
	logger Logger,
) (*RequestProtocol, error) {
	if transport == nil {
		return nil, BadInputError("core: transport adapter is required")
	}
	if store == nil {
		return nil, BadInputError("core: credential store is required")
	}
	if refresher == nil {
		return nil, BadInputError("core: refresher is required")
	}
	if signer == nil {
		signer = BearerTokenSigner{}
	}
	return &RequestProtocol{
		transport: transport,
		store:     store,
		refresher: refresher,
		signer:    signer,
		timeout:   timeout,
		observer:  newObserver(logger),
	}, nil
}

// Execute returns non-401 statuses as responses with a nil error. Transport
// failures are returned as errors and never trigger a refresh. When recovery
// from a 401 fails, the original 401 response is returned unchanged.
func (p *RequestProtocol) Execute(ctx context.Context, req TransportRequest, policy AuthPolicy) (resp TransportResponse, err error) {
	if p == nil {
		return TransportResponse{}, BadInputError("core: request protocol is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(req.URL) == "" {
		return TransportResponse{}, BadInputError("core: request url is required")
	}
	if strings.TrimSpace(req.Method) == "" {
		req.Method = http.MethodGet
	}

	startedAt := time.Now()
	retried := false
	defer func() {
		p.observer.observeOperation(ctx, startedAt, "request.execute", err, map[string]any{
			"method":      strings.ToUpper(req.Method),
			"url":         req.URL,
			"auth":        policy.String(),
			"status_code": resp.StatusCode,
			"retried":     retried,
		})
	}()

	first, usedToken, err := p.attempt(ctx, req, policy, nil)
	if err != nil {
		return TransportResponse{}, err
	}
	if policy != AuthRequired || first.StatusCode != http.StatusUnauthorized {
		return first, nil
	}

	pair, refreshErr := p.refresher.RefreshAfter(ctx, usedToken)
	if refreshErr != nil || strings.TrimSpace(pair.AccessToken) == "" {
		fields := map[string]any{"url": req.URL}
		if refreshErr != nil {
			fields["error"] = refreshErr.Error()
			fields["text_code"] = errorTextCode(refreshErr)
		}
		p.observer.logWarn(ctx, "credential recovery failed, returning unauthorized response", fields)
		return first, nil
	}

	retried = true
	second, _, err := p.attempt(ctx, req, policy, &pair)
	if err != nil {
		return TransportResponse{}, err
	}
	return second, nil
}

func (p *RequestProtocol) attempt(
	ctx context.Context,
	req TransportRequest,
	policy AuthPolicy,
	override *CredentialPair,
) (TransportResponse, string, error) {
	outbound := cloneTransportRequest(req)
	if outbound.Timeout <= 0 {
		outbound.Timeout = p.timeout
	}

	usedToken := ""
	if policy == AuthRequired {
		pair := CredentialPair{}
		if override != nil {
			pair = *override
		} else {
			stored, ok, err := p.store.Get(ctx)
			if err != nil {
				return TransportResponse{}, "", InternalError(err, "core: credential read failed")
			}
			if ok {
				pair = stored
			}
		}
		if strings.TrimSpace(pair.AccessToken) != "" {
			if err := p.signer.Sign(ctx, &outbound, pair); err != nil {
				return TransportResponse{}, "", MapError(err)
			}
			usedToken = strings.TrimSpace(pair.AccessToken)
		}
	}

	resp, err := p.transport.Do(ctx, outbound)
	if err != nil {
		if HasTextCode(err, ErrorTransport) {
			return TransportResponse{}, usedToken, err
		}
		return TransportResponse{}, usedToken, TransportError(err)
	}
	return resp, usedToken, nil
}

func cloneTransportRequest(req TransportRequest) TransportRequest {
	out := req
	out.Headers = make(map[string]string, len(req.Headers)+1)
	for key, value := range req.Headers {
		out.Headers[key] = value
	}
	if len(req.Query) > 0 {
		out.Query = make(map[string]string, len(req.Query))
		for key, value := range req.Query {
			out.Query[key] = value
		}
	}
	out.Body = append([]byte(nil), req.Body...)
	if len(req.Metadata) > 0 {
		out.Metadata = cloneFields(req.Metadata)
	}
	return out
}

func errorTextCode(err error) string {
	if mapped := MapError(err); mapped != nil {
		return mapped.TextCode
	}
	return ""
}

func jsonRequest(method string, url string, body []byte) TransportRequest {
	req := TransportRequest{
		Method:  method,
		URL:     url,
		Headers: map[string]string{"Accept": "application/json"},
	}
	if body != nil {
		req.Body = body
		req.ContentType = "application/json"
	}
	return req
}
