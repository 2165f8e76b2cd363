package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type AuthPolicy int

const (
	AuthRequired AuthPolicy = iota
	AuthNone
)

func (p AuthPolicy) String() string {
	if p == AuthNone {
		return "none"
	}
	return "required"
}

// TransportRequest is one outbound call. MaxResponseBodyBytes overrides the
// adapter's body limit when positive.
type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	ContentType          string
	Metadata             map[string]any
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type CredentialStore interface {
	Put(ctx context.Context, pair CredentialPair) error
	Get(ctx context.Context) (CredentialPair, bool, error)
	Clear(ctx context.Context) error
}

type SnapshotStore interface {
	Save(ctx context.Context, snapshot Snapshot) error
	Load(ctx context.Context) (Snapshot, bool, error)
	Clear(ctx context.Context) error
}

type SecretProvider interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

type Signer interface {
	Sign(ctx context.Context, req *TransportRequest, cred CredentialPair) error
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
