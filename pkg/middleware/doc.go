// Package middleware provides HTTP middleware for bearer token authentication.
//
// # Overview
//
// SCIM clients authenticate with a single static bearer token configured out of
// band. The middleware compares the full Authorization header in constant time
// and writes SCIM error documents on failure, so identity providers surface a
// useful detail message instead of a bare 401.
//
// # Usage
//
//	auth := middleware.NewAuthMiddleware(cfg.SCIM.Token)
//	scimRouter.Use(auth.Handler)
//
// Health, readiness, metrics, and ServiceProviderConfig endpoints are mounted
// outside the authenticated subrouter and never pass through this middleware.
//
// # Related Packages
//
//   - pkg/scim: Error document types
//   - pkg/httputil: Response helpers
package middleware
