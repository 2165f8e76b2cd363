package transport

import (
	"context"
	"net/http"

	"github.com/goliatone/go-catalog-sync/core"
	goerrors "github.com/goliatone/go-errors"
)

const KindOffline = "offline"

// OfflineAdapter fails every request as unreachable. It lets a client start
// from a persisted snapshot without network access.
type OfflineAdapter struct{}

func NewOfflineAdapter() OfflineAdapter {
	return OfflineAdapter{}
}

func (OfflineAdapter) Kind() string {
	return KindOffline
}

func (OfflineAdapter) Do(_ context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	return core.TransportResponse{}, transportError(
		"transport: offline",
		goerrors.CategoryExternal,
		http.StatusServiceUnavailable,
		map[string]any{"adapter": KindOffline, "method": req.Method},
	)
}

var _ core.TransportAdapter = OfflineAdapter{}
