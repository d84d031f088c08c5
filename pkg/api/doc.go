// Package api provides the HTTP server exposing the SCIM 2.0 provisioning
// surface backed by a mailcow installation.
//
// # Overview
//
// This package implements the REST layer that identity providers (Azure AD,
// Okta, Keycloak and friends) talk to. It translates SCIM requests into
// calls on the provisioner core and renders the results as SCIM resources,
// list responses and error bodies. The server holds no state of its own:
// every request is answered from live mailcow data.
//
// # Architecture
//
// The server is built on gorilla/mux with two routing tiers:
//
//   - Operational endpoints (/healthz, /readyz, /metrics,
//     /ServiceProviderConfig) are registered on the parent router and
//     require no authentication.
//   - SCIM endpoints (/Users, /Groups) live on a subrouter guarded by the
//     bearer-token middleware. Requests may arrive as application/json or
//     application/scim+json; responses render as application/json.
//
// # API Endpoints
//
//	GET    /Users                  - List users, optional userName eq filter
//	POST   /Users                  - Create a mailbox
//	GET    /Users/{id}             - Get one user by address
//	PUT    /Users/{id}             - Replace (update, rename or upsert)
//	DELETE /Users/{id}             - Delete or deactivate the mailbox
//	GET    /Groups                 - Always-empty list (placeholder)
//	POST   /Groups                 - Echo (no mail side effects)
//	GET    /Groups/{id}            - Placeholder group
//	PUT    /Groups/{id}            - Echo (no mail side effects)
//	DELETE /Groups/{id}            - No-op 204
//	GET    /ServiceProviderConfig  - Capability document
//	GET    /healthz                - Liveness probe
//	GET    /readyz                 - Readiness probe (mailcow reachability)
//	GET    /metrics                - Prometheus metrics
//
// # Usage Example
//
//	prov := provisioner.New(client, opts, metrics, auditLogger, logger)
//	server := api.NewServer(prov, api.Config{
//		Token:      cfg.SCIMToken,
//		MaxResults: 500,
//		Registry:   registry,
//		Checker:    checker,
//		Logger:     logger,
//	})
//	http.ListenAndServe(":8000", server)
//
// # Error Mapping
//
// Provisioner sentinel errors map onto SCIM error bodies: ErrUserNotFound
// becomes 404 notFound, ErrUserExists 409 uniqueness, ErrDeleteNotAllowed
// 403 mutability and ErrInvalidAddress 400 invalidSyntax. Anything else is
// treated as an upstream mailcow failure and rendered as 502 serverError
// without leaking the underlying error text to the IdP.
package api
