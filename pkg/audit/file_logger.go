package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileLogger implements audit logging to a JSON-lines file
type FileLogger struct {
	path    string
	file    *os.File
	mu      sync.Mutex
	encoder *json.Encoder
	rotate  bool
	maxSize int64 // Max file size in bytes before rotation
}

// FileLoggerConfig configures the file logger
type FileLoggerConfig struct {
	Path    string // Path of the active audit log file
	Rotate  bool   // Enable size-based rotation
	MaxSize int64  // Max file size in bytes (default: 100MB)
}

// DefaultFileLoggerConfig returns default configuration
func DefaultFileLoggerConfig(path string) FileLoggerConfig {
	return FileLoggerConfig{
		Path:    path,
		Rotate:  true,
		MaxSize: 100 * 1024 * 1024, // 100MB
	}
}

// NewFileLogger creates a new file-based audit logger
func NewFileLogger(config FileLoggerConfig) (*FileLogger, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("audit log path is required")
	}

	// Create parent directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	logger := &FileLogger{
		path:    config.Path,
		rotate:  config.Rotate,
		maxSize: config.MaxSize,
	}

	if logger.maxSize == 0 {
		logger.maxSize = 100 * 1024 * 1024 // 100MB default
	}

	// Open the current log file
	if err := logger.openLogFile(); err != nil {
		return nil, err
	}

	return logger, nil
}

// openLogFile opens or creates the current log file
func (l *FileLogger) openLogFile() error {
	// Check if we need to rotate
	if l.rotate {
		if info, err := os.Stat(l.path); err == nil && info.Size() >= l.maxSize {
			if err := l.rotateFile(); err != nil {
				return fmt.Errorf("failed to rotate audit log: %w", err)
			}
		}
	}

	// Open file in append mode
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log file: %w", err)
	}

	l.file = file
	l.encoder = json.NewEncoder(file)

	return nil
}

// rotateFile renames the active file to a timestamped sibling
func (l *FileLogger) rotateFile() error {
	// Close current file if open
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	timestamp := time.Now().Format("2006-01-02-15-04-05")
	rotated := l.rotatedName(timestamp)

	if err := os.Rename(l.path, rotated); err != nil {
		return fmt.Errorf("failed to rename audit log: %w", err)
	}

	return nil
}

// rotatedName builds the path of a rotated file: audit.log becomes
// audit-<timestamp>.log next to the active file.
func (l *FileLogger) rotatedName(timestamp string) string {
	ext := filepath.Ext(l.path)
	base := strings.TrimSuffix(l.path, ext)
	return fmt.Sprintf("%s-%s%s", base, timestamp, ext)
}

// rotatedPattern matches all rotated files for this logger
func (l *FileLogger) rotatedPattern() string {
	ext := filepath.Ext(l.path)
	base := strings.TrimSuffix(l.path, ext)
	return fmt.Sprintf("%s-*%s", base, ext)
}

// Log writes an audit event to the file
func (l *FileLogger) Log(ctx context.Context, event *Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Check if we need to rotate
	if l.rotate && l.file != nil {
		if info, err := l.file.Stat(); err == nil && info.Size() >= l.maxSize {
			if err := l.openLogFile(); err != nil {
				return fmt.Errorf("failed to rotate audit log: %w", err)
			}
		}
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}

	return nil
}

// PurgeBefore removes rotated files whose last modification is older
// than the cutoff. The active file is never removed.
func (l *FileLogger) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	files, err := filepath.Glob(l.rotatedPattern())
	if err != nil {
		return 0, fmt.Errorf("failed to list rotated audit logs: %w", err)
	}

	var removed int64
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(file); err != nil {
				return removed, fmt.Errorf("failed to remove audit log %s: %w", file, err)
			}
			removed++
		}
	}

	return removed, nil
}

// Close closes the file logger
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}

	return nil
}

// ReadEvents reads events back from the active file, oldest first.
// A count of 0 reads everything.
func (l *FileLogger) ReadEvents(count int) ([]*Event, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer file.Close()

	var events []*Event
	decoder := json.NewDecoder(file)

	for {
		var event Event
		if err := decoder.Decode(&event); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to decode audit log entry: %w", err)
		}
		events = append(events, &event)

		if count > 0 && len(events) >= count {
			break
		}
	}

	return events, nil
}
