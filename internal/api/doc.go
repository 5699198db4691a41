// Package api provides the HTTP REST API for Exposure Core.
//
// It exposes the rule document, preview/validate operations, per-entity
// exposure reasoning, and sync control to admin tooling.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// All routes except /api/v1/health require a static bearer token
// (api.auth_token in config). Exposure Core is a single-admin tool;
// there are no user accounts or sessions.
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines.
package api
