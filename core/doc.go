// Package core contains the client-side sync contracts, catalog entities, and
// orchestration logic: credential refresh, the authenticated request
// protocol, the paged catalog cache and optimistic mutations. Storage and
// transport adapters depend on this package; core never depends on them.
package core
