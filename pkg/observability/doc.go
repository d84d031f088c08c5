// Package observability provides structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// # Overview
//
// This package centralizes observability infrastructure including JSON logging, metrics
// collection, health checks, and distributed tracing integration.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.Infof("Server started on %s", addr)
//
// Context-aware logging:
//
//	logger.WithField("user_id", id).WithError(err).Error("Provisioning failed")
//
// # Prometheus Metrics
//
// Initialize metrics on an injectable registry:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.UsersCreated.Inc()
//
// The provisioning counters users_created, users_updated and users_deleted
// are exported under exactly those names.
//
// # Health Checks
//
// Configure health checker:
//
//	checker := observability.NewHealthChecker()
//	checker.AddCheck("mailcow", mailcowClient.Check)
//	status := checker.Check(ctx)
//
// # OpenTelemetry
//
// Initialize tracing:
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		ServiceName: "scimcow",
//		Endpoint:    "otel-collector:4317",
//	}, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/provisioner: Increments the provisioning counters
package observability
