package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/suiyueran97/vision-engine/internal/domain"
)

// FailureLog is the durable record of callback payloads that exhausted
// every delivery attempt. It is one shared JSON array file rewritten on
// each append; mu serializes the read-modify-write so concurrent
// dispatcher goroutines cannot lose entries. The whole-file rewrite is a
// scalability ceiling accepted for the low expected failure volume.
type FailureLog struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewFailureLog creates a failure log backed by the file at path. The file
// is created lazily on first append.
func NewFailureLog(path string, logger *slog.Logger) (*FailureLog, error) {
	if path == "" {
		return nil, errors.New("failure log path cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create failure log directory: %w", err)
		}
	}

	return &FailureLog{
		path:   path,
		logger: logger.With(slog.String("component", "failure_log")),
	}, nil
}

// Append adds a record to the log. An unreadable or corrupt existing log
// is replaced rather than blocking the append: preserving the new
// undeliverable payload outweighs preserving a file that already lost its
// integrity.
func (l *FailureLog) Append(record domain.PendingCallback) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.readLocked()
	if err != nil {
		l.logger.Warn("resetting unreadable failure log", "error", err)
		records = nil
	}

	records = append(records, record)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode failure log: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), filepath.Base(l.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp failure log: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write failure log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp failure log: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace failure log: %w", err)
	}

	l.logger.Info("recorded undeliverable callback",
		"job_id", record.TaskID,
		"callback_url", record.CallbackURL,
		"total_records", len(records))

	return nil
}

// ReadAll returns every recorded undeliverable callback, oldest first.
func (l *FailureLog) ReadAll() ([]domain.PendingCallback, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readLocked()
}

func (l *FailureLog) readLocked() ([]domain.PendingCallback, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read failure log: %w", err)
	}

	var records []domain.PendingCallback
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode failure log: %w", err)
	}
	return records, nil
}
