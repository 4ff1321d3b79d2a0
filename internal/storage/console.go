package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// ConsoleStorage implements Storage by pretty-printing to console.
type ConsoleStorage struct {
	out    io.Writer
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage writing to stdout.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		out:    os.Stdout,
		logger: logger,
	}
}

// StoreResult pretty-prints a result summary to console.
func (c *ConsoleStorage) StoreResult(ctx context.Context, rec *Record) error {
	var b strings.Builder
	b.WriteString("\n" + rule + "\n")
	fmt.Fprintf(&b, "📈 %s RESULT\n", strings.ToUpper(strings.ReplaceAll(string(rec.Kind), "_", " ")))
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "ID:       %s\n", shortID(rec.ID))
	fmt.Fprintf(&b, "Subject:  %s\n", rec.SubjectID)
	fmt.Fprintf(&b, "Time:     %s\n", rec.ComputedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Payload:  %d bytes\n", len(rec.Payload))
	b.WriteString(rule + "\n")

	_, err := io.WriteString(c.out, b.String())
	if err != nil {
		ResultsStoredTotal.WithLabelValues(string(rec.Kind), "error").Inc()
		return fmt.Errorf("write result: %w", err)
	}

	ResultsStoredTotal.WithLabelValues(string(rec.Kind), "ok").Inc()
	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
