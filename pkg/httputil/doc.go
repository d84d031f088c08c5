// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Overview
//
// This package offers helper functions for JSON encoding/decoding, error responses,
// parameter parsing, and common HTTP middleware patterns.
//
// # Response Helpers
//
// JSON responses:
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteCreated(w, resource)
//	httputil.WriteNoContent(w)
//
// Error responses:
//
//	httputil.WriteBadRequest(w, "Invalid input")
//	httputil.WriteInternalError(w, err)
//
// # Request Parsing
//
// JSON parsing:
//
//	var user scim.User
//	if err := httputil.ParseJSON(r, &user); err != nil {
//		// write an error response
//	}
//
// Path and query parameters:
//
//	id, err := httputil.ParsePathString(r, "id")
//	count, err := httputil.ParseQueryInt(r, "count", 100)
//	filter := httputil.ParseQueryString(r, "filter", "")
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//		httputil.ContentTypeMiddleware,
//		httputil.MaxBytesMiddleware(1024*1024), // 1MB
//	)
//
// # Related Packages
//
//   - pkg/middleware: Bearer token authentication middleware
//   - pkg/observability: Request id propagation and structured logging
package httputil
