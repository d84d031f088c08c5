package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/scimcow/scimcow/pkg/api"
	"github.com/scimcow/scimcow/pkg/async"
	"github.com/scimcow/scimcow/pkg/audit"
	"github.com/scimcow/scimcow/pkg/config"
	"github.com/scimcow/scimcow/pkg/httputil"
	"github.com/scimcow/scimcow/pkg/mailcow"
	"github.com/scimcow/scimcow/pkg/observability"
	"github.com/scimcow/scimcow/pkg/provisioner"
)

var (
	configPath    = flag.String("config", "", "Path to an optional YAML config file (environment variables win)")
	purgeSchedule = flag.String("purge-schedule", "30 3 * * *", "Cron schedule for the audit retention purge (default: 03:30 UTC)")
)

const (
	// purgeTimeout bounds a single retention purge run.
	purgeTimeout = 5 * time.Minute

	// maxBodyBytes caps request bodies. SCIM user payloads are a few
	// hundred bytes; anything near this limit is not a SCIM client.
	maxBodyBytes = 1 << 20
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfigFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scimcow: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Observability)

	// Background jobs pick the logger up from this context.
	ctx := observability.WithLogger(context.Background(), logger)

	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize OpenTelemetry")
		os.Exit(1)
	}

	auditLogger, err := buildAuditTrail(cfg.Audit)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize audit trail")
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	client := mailcow.NewClient(mailcow.Config{
		BaseURL:       cfg.Mailcow.APIURL,
		APIKey:        cfg.Mailcow.APIKey,
		Timeout:       cfg.Mailcow.Timeout,
		SkipTLSVerify: cfg.Mailcow.SkipTLSVerify,
	})

	checker := observability.NewHealthChecker()
	checker.AddCheck("mailcow", client.Check)

	prov := provisioner.New(client, provisioner.Options{
		AllowDelete:    cfg.Provisioning.AllowDelete,
		DeleteMailbox:  cfg.Provisioning.DeleteMailbox,
		UpsertOnUpdate: cfg.Provisioning.UpsertOnUpdate,
	}, metrics, auditLogger, logger)

	server := api.NewServer(prov, api.Config{
		Token:      cfg.SCIM.Token,
		MaxResults: cfg.SCIM.MaxResults,
		Registry:   registry,
		Checker:    checker,
		Logger:     logger,
	})

	handler := httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.MaxBytesMiddleware(maxBodyBytes),
		httputil.LoggingMiddleware(logger),
		httputil.RecoveryMiddleware(logger),
		observability.HTTPMetricsMiddleware(metrics),
	)(server)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	scheduler := cron.New()
	retention := audit.RetentionPolicy{RetentionDays: cfg.Audit.RetentionDays}
	if scheduleRetentionPurge(ctx, scheduler, auditLogger, retention, logger) {
		scheduler.Start()
		logger.Infof("Audit retention purge scheduled: %s (keeping %d days)", *purgeSchedule, cfg.Audit.RetentionDays)
	}

	sm := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	sm.RegisterShutdownFunc("cron scheduler", func(ctx context.Context) error {
		stopCtx := scheduler.Stop()
		select {
		case <-stopCtx.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	sm.RegisterShutdownFunc("audit trail", func(context.Context) error {
		return auditLogger.Close()
	})
	if providers != nil {
		sm.RegisterShutdownFunc("opentelemetry", func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, providers, logger)
		})
	}

	go func() {
		logger.WithFields(map[string]interface{}{
			"addr":             httpServer.Addr,
			"mailcow_api":      cfg.Mailcow.APIURL,
			"allow_delete":     cfg.Provisioning.AllowDelete,
			"delete_mailbox":   cfg.Provisioning.DeleteMailbox,
			"upsert_on_update": cfg.Provisioning.UpsertOnUpdate,
		}).Info("SCIM endpoint listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("HTTP server failed")
			os.Exit(1)
		}
	}()

	if err := sm.WaitForShutdown(); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
		os.Exit(1)
	}
}

func newLogger(cfg config.ObservabilityConfig) *observability.Logger {
	if cfg.LogFormat == "text" {
		return observability.NewTextLogger(cfg.LogLevel, os.Stdout)
	}
	return observability.NewLogger(cfg.LogLevel, os.Stdout)
}

// buildAuditTrail assembles the audit sinks named by the configuration.
// With no sink configured provisioning still works, the trail is just off.
func buildAuditTrail(cfg config.AuditConfig) (audit.Logger, error) {
	var sinks []audit.Logger

	if cfg.LogPath != "" {
		fl, err := audit.NewFileLogger(audit.DefaultFileLoggerConfig(cfg.LogPath))
		if err != nil {
			return nil, fmt.Errorf("audit file sink: %w", err)
		}
		sinks = append(sinks, fl)
	}

	if cfg.DBPath != "" {
		db, err := sql.Open("sqlite3", cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("audit database sink: %w", err)
		}
		dl, err := audit.NewDBLogger(db)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("audit database sink: %w", err)
		}
		sinks = append(sinks, dl)
	}

	switch len(sinks) {
	case 0:
		return audit.NopLogger{}, nil
	case 1:
		return sinks[0], nil
	default:
		return audit.NewMultiLogger(sinks...), nil
	}
}

// scheduleRetentionPurge registers the daily purge job. It reports whether
// a job was registered; retention stays off when no sink is configured or
// RetentionDays is zero.
func scheduleRetentionPurge(ctx context.Context, scheduler *cron.Cron, auditLogger audit.Logger, retention audit.RetentionPolicy, logger *observability.Logger) bool {
	if _, nop := auditLogger.(audit.NopLogger); nop || retention.RetentionDays <= 0 {
		return false
	}

	_, err := scheduler.AddFunc(*purgeSchedule, func() {
		async.SafeGo(ctx, purgeTimeout, "audit retention purge", func(ctx context.Context) error {
			cutoff := retention.Cutoff(time.Now().UTC())
			removed, err := auditLogger.PurgeBefore(ctx, cutoff)
			if err != nil {
				return err
			}
			logger.WithFields(map[string]interface{}{
				"removed": removed,
				"cutoff":  cutoff.Format(time.RFC3339),
			}).Info("Audit retention purge complete")
			return nil
		})
	})
	if err != nil {
		logger.WithError(err).Error("Failed to schedule audit retention purge")
		os.Exit(1)
	}
	return true
}
