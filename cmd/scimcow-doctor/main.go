package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/scimcow/scimcow/pkg/audit"
	"github.com/scimcow/scimcow/pkg/config"
	"github.com/scimcow/scimcow/pkg/mailcow"
)

// scimcow-doctor runs preflight checks against a scimcow configuration:
// it loads and validates the settings, talks to the mailcow admin API
// with the configured key, and probes the audit sinks. Run it on the
// host that will run scimcow before pointing an identity provider at it.

var (
	configPath = flag.String("config", "", "Path to an optional YAML config file (environment variables win)")
	timeout    = flag.Duration("timeout", 15*time.Second, "Deadline for the whole preflight run")
	verbose    = flag.Bool("verbose", false, "Enable debug logging")
)

// minTokenLength is the shortest bearer secret that does not draw a warning.
const minTokenLength = 16

type checkResult struct {
	name string
	note string
	warn string
	err  error
}

func main() {
	flag.Parse()

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.LoadConfigFile(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("Configuration is not usable")
	}
	logger.WithFields(logrus.Fields{
		"addr":        cfg.Server.Addr(),
		"mailcow_api": cfg.Mailcow.APIURL,
	}).Info("Configuration loaded")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	checks := []struct {
		name string
		fn   func(context.Context) checkResult
	}{
		{"scim token", func(context.Context) checkResult { return checkToken(cfg.SCIM.Token) }},
		{"mailcow api", func(ctx context.Context) checkResult { return checkMailcow(ctx, cfg.Mailcow) }},
		{"audit file sink", func(context.Context) checkResult { return checkAuditFile(cfg.Audit.LogPath) }},
		{"audit database sink", func(ctx context.Context) checkResult { return checkAuditDB(ctx, cfg.Audit.DBPath) }},
	}

	// Every check runs to completion so the report is complete; failures
	// are collected instead of cancelling the group.
	results := make([]checkResult, len(checks))
	eg, ctx := errgroup.WithContext(ctx)
	for i, c := range checks {
		i, c := i, c
		eg.Go(func() error {
			logger.WithField("check", c.name).Debug("Running check")
			res := c.fn(ctx)
			res.name = c.name
			results[i] = res
			return nil
		})
	}
	_ = eg.Wait()

	failed := 0
	for _, res := range results {
		entry := logger.WithField("check", res.name)
		switch {
		case res.err != nil:
			failed++
			entry.WithError(res.err).Error("check failed")
		case res.warn != "":
			entry.Warn(res.warn)
		case res.note != "":
			entry.Info(res.note)
		default:
			entry.Info("ok")
		}
	}

	if failed > 0 {
		logger.Errorf("%d of %d checks failed", failed, len(checks))
		os.Exit(1)
	}
	logger.Infof("All %d checks passed", len(checks))
}

func checkToken(token string) checkResult {
	if len(token) < minTokenLength {
		return checkResult{warn: fmt.Sprintf("SCIM_TOKEN is shorter than %d characters; the endpoint is only as strong as this secret", minTokenLength)}
	}
	return checkResult{note: "token length ok"}
}

// checkMailcow verifies the admin API answers with the configured key and
// that the mailbox inventory is readable.
func checkMailcow(ctx context.Context, cfg config.MailcowConfig) checkResult {
	client := mailcow.NewClient(mailcow.Config{
		BaseURL:       cfg.APIURL,
		APIKey:        cfg.APIKey,
		Timeout:       cfg.Timeout,
		SkipTLSVerify: cfg.SkipTLSVerify,
	})

	if err := client.Check(ctx); err != nil {
		return checkResult{err: fmt.Errorf("admin API not reachable: %w", err)}
	}

	boxes, err := client.ListMailboxes(ctx)
	if err != nil {
		return checkResult{err: fmt.Errorf("mailbox inventory not readable: %w", err)}
	}

	res := checkResult{note: fmt.Sprintf("reachable, %d mailboxes visible", len(boxes))}
	if cfg.SkipTLSVerify {
		res.warn = fmt.Sprintf("reachable (%d mailboxes) but certificate verification is disabled", len(boxes))
	}
	return res
}

func checkAuditFile(path string) checkResult {
	if path == "" {
		return checkResult{note: "not configured"}
	}
	fl, err := audit.NewFileLogger(audit.DefaultFileLoggerConfig(path))
	if err != nil {
		return checkResult{err: fmt.Errorf("log file not writable: %w", err)}
	}
	defer fl.Close()

	// Read the trail back so a corrupted file surfaces here instead of
	// during an incident review.
	events, err := fl.ReadEvents(0)
	if err != nil {
		return checkResult{err: fmt.Errorf("log file not readable: %w", err)}
	}
	if len(events) == 0 {
		return checkResult{note: "writable, no events yet"}
	}
	return checkResult{note: fmt.Sprintf("writable, %d events, newest %s", len(events), events[len(events)-1].Timestamp.Format(time.RFC3339))}
}

func checkAuditDB(ctx context.Context, path string) checkResult {
	if path == "" {
		return checkResult{note: "not configured"}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return checkResult{err: fmt.Errorf("database not openable: %w", err)}
	}
	dl, err := audit.NewDBLogger(db)
	if err != nil {
		db.Close()
		return checkResult{err: fmt.Errorf("schema not usable: %w", err)}
	}
	defer dl.Close()

	events, err := dl.Recent(ctx, 1)
	if err != nil {
		return checkResult{err: fmt.Errorf("audit table not readable: %w", err)}
	}
	if len(events) == 0 {
		return checkResult{note: "writable, no events yet"}
	}
	return checkResult{note: fmt.Sprintf("writable, newest event %s", events[0].Timestamp.Format(time.RFC3339))}
}
