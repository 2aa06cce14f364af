package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/datamorph/datamorph/internal/storage"
)

// AuditSink persists JSON audit documents to object storage under paths
// namespaced by category and session id. The audit trail is best-effort:
// Store never fails outward, it only logs.
type AuditSink struct {
	store  storage.ObjectStore
	logger *zap.Logger
	now    func() time.Time
}

// NewAuditSink creates an audit sink backed by the given object store.
func NewAuditSink(store storage.ObjectStore, logger *zap.Logger) *AuditSink {
	return &AuditSink{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Store writes jsonText to object storage under
// <category>/session_<sessionID>_<timestamp>.json. Failures are logged with
// enough context to correlate with the session's other artifacts.
func (s *AuditSink) Store(ctx context.Context, category, sessionID, jsonText string) {
	if err := s.put(ctx, category, sessionID, jsonText); err != nil {
		s.logger.Error("failed to store audit document",
			zap.String("category", category),
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
}

// put stages the document in a temp file, flushed before handoff, and uploads
// it under the computed object path.
func (s *AuditSink) put(ctx context.Context, category, sessionID, jsonText string) error {
	tmp, err := os.CreateTemp("", "audit-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(jsonText); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to flush temp file: %w", err)
	}

	timestamp := s.now().Format("20060102_150405")
	objectPath := fmt.Sprintf("%s/session_%s_%s.json", category, sessionID, timestamp)

	return s.store.Upload(ctx, objectPath, tmp.Name())
}
