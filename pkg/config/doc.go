// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings. An optional YAML file can supply the same
// keys; any variable set in the environment wins over the file.
//
// # Configuration Structure
//
// Server settings:
//
//	SERVER_HOST="0.0.0.0"
//	SERVER_PORT="8000"
//	SERVER_READ_TIMEOUT="15s"
//	SERVER_WRITE_TIMEOUT="30s"
//
// SCIM endpoint settings:
//
//	SCIM_TOKEN="shared-bearer-secret"   # required
//	SCIM_MAX_RESULTS="500"
//
// Mailcow admin API settings:
//
//	MAILCOW_API_URL="https://mail.example.com/api/v1/"  # required
//	MAILCOW_API_KEY="..."                               # required
//	MAILCOW_TIMEOUT="30s"
//	SKIP_VERIFY_CERTIFICATE="false"
//
// Provisioning behavior:
//
//	ALLOW_DELETE="true"            # false rejects DELETE /Users with 403
//	MAILCOW_DELETE_MAILBOX="false" # false deactivates instead of deleting
//	UPSERT_ON_UPDATE="true"        # PUT on unknown id creates the mailbox
//
// Audit trail settings:
//
//	AUDIT_LOG_PATH="/var/log/scimcow/audit.log"  # empty disables the file sink
//	AUDIT_DB_PATH="/var/lib/scimcow/audit.db"    # empty disables the DB sink
//	AUDIT_RETENTION_DAYS="90"
//
// Observability settings:
//
//	LOG_LEVEL="info"   # debug, info, warn, error
//	LOG_FORMAT="json"  # json, text
//	OTEL_ENABLED="false"
//	OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Listening on %s\n", cfg.Server.Addr())
//	fmt.Printf("Admin API: %s\n", cfg.Mailcow.APIURL)
//
// # Related Packages
//
//   - pkg/mailcow: Uses the admin API configuration
//   - pkg/provisioner: Uses the provisioning behavior knobs
//   - pkg/observability: Uses observability configuration
package config
