package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/scimcow/scimcow/pkg/audit"
	"github.com/scimcow/scimcow/pkg/httputil"
	"github.com/scimcow/scimcow/pkg/middleware"
	"github.com/scimcow/scimcow/pkg/observability"
	"github.com/scimcow/scimcow/pkg/provisioner"
	"github.com/scimcow/scimcow/pkg/scim"
)

// defaultPageSize is the page size when a list request names no count.
const defaultPageSize = 100

// Config carries the server's wiring.
type Config struct {
	// Token is the static bearer secret SCIM clients present
	Token string

	// MaxResults caps the page size and is advertised in the
	// ServiceProviderConfig document
	MaxResults int

	// Registry backs the /metrics exposition. Optional.
	Registry *prometheus.Registry

	// Checker answers /healthz and /readyz. Optional.
	Checker *observability.HealthChecker

	Logger *observability.Logger
}

// Server is the SCIM HTTP surface.
type Server struct {
	router      *mux.Router
	provisioner *provisioner.Provisioner
	logger      *observability.Logger
	maxResults  int
	spc         scim.ServiceProviderConfig
}

// NewServer creates the server and mounts all routes.
func NewServer(prov *provisioner.Provisioner, cfg Config) *Server {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 500
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	s := &Server{
		router:      mux.NewRouter(),
		provisioner: prov,
		logger:      cfg.Logger,
		maxResults:  cfg.MaxResults,
		spc:         newServiceProviderConfig(cfg.MaxResults),
	}
	s.setupRoutes(cfg)
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes(cfg Config) {
	// Operational endpoints and capability discovery stay outside the
	// authenticated subrouter: providers probe them before they have a
	// token configured, and orchestrators poll them constantly.
	if cfg.Checker != nil {
		s.router.HandleFunc("/healthz", cfg.Checker.Liveness).Methods("GET")
		s.router.HandleFunc("/readyz", cfg.Checker.Readiness).Methods("GET")
	}
	if cfg.Registry != nil {
		s.router.Handle("/metrics", observability.MetricsHandler(cfg.Registry)).Methods("GET")
	}
	s.router.HandleFunc("/ServiceProviderConfig", s.getServiceProviderConfig).Methods("GET")

	auth := middleware.NewAuthMiddleware(cfg.Token)
	scimRouter := s.router.PathPrefix("/").Subrouter()
	scimRouter.Use(auth.Handler)
	scimRouter.Use(httputil.ContentTypeMiddleware)
	scimRouter.Use(s.withAuditActor)

	// User routes
	scimRouter.HandleFunc("/Users", s.listUsers).Methods("GET")
	scimRouter.HandleFunc("/Users", s.createUser).Methods("POST")
	scimRouter.HandleFunc("/Users/{id}", s.getUser).Methods("GET")
	scimRouter.HandleFunc("/Users/{id}", s.replaceUser).Methods("PUT")
	scimRouter.HandleFunc("/Users/{id}", s.deleteUser).Methods("DELETE")

	// Group routes (placeholders, no mailbox counterpart)
	scimRouter.HandleFunc("/Groups", s.listGroups).Methods("GET")
	scimRouter.HandleFunc("/Groups", s.createGroup).Methods("POST")
	scimRouter.HandleFunc("/Groups/{id}", s.getGroup).Methods("GET")
	scimRouter.HandleFunc("/Groups/{id}", s.replaceGroup).Methods("PUT")
	scimRouter.HandleFunc("/Groups/{id}", s.deleteGroup).Methods("DELETE")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// withAuditActor stamps the remote client onto the context so audit events
// can name who drove a provisioning action.
func (s *Server) withAuditActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := audit.WithActor(r.Context(), r.RemoteAddr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
