package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/datamorph/datamorph/internal/domain"
	"github.com/datamorph/datamorph/internal/llm"
	"github.com/datamorph/datamorph/internal/pkg/metrics"
)

// TelemetryRecorder turns a completed model call into audit documents: a
// performance record with the usage counters and a message record with the
// instruction objects and cleaned post-stage data. It never fails visibly to
// its caller; internal errors are logged and swallowed.
type TelemetryRecorder struct {
	sink   *AuditSink
	logger *zap.Logger
}

// NewTelemetryRecorder creates a telemetry recorder pushing through the sink.
func NewTelemetryRecorder(sink *AuditSink, logger *zap.Logger) *TelemetryRecorder {
	return &TelemetryRecorder{
		sink:   sink,
		logger: logger,
	}
}

// Record builds and stores both audit documents for one model call.
func (r *TelemetryRecorder) Record(
	ctx context.Context,
	sessionID string,
	completion *llm.Completion,
	instructions []domain.Instruction,
	cleanedData any,
) {
	performance := domain.PerformanceRecord{
		SessionID:        sessionID,
		ResponseID:       completion.ID,
		CreatedAt:        completion.Created,
		CompletionTokens: completion.Usage.CompletionTokens,
		PromptTokens:     completion.Usage.PromptTokens,
		TotalTokens:      completion.Usage.TotalTokens,
	}
	message := domain.MessageRecord{
		SessionID:    sessionID,
		ResponseID:   completion.ID,
		Instructions: instructions,
		Data:         cleanedData,
	}

	r.logger.Info("model usage recorded",
		zap.String("session_id", sessionID),
		zap.String("response_id", completion.ID),
		zap.Int("completion_tokens", performance.CompletionTokens),
		zap.Int("prompt_tokens", performance.PromptTokens),
		zap.Int("total_tokens", performance.TotalTokens),
	)
	metrics.RecordTokenUsage(completion.Model, performance.PromptTokens, performance.CompletionTokens)

	r.storeDocument(ctx, domain.CategoryTokenUsage, sessionID, performance)
	r.storeDocument(ctx, domain.CategoryMessageData, sessionID, message)
}

// storeDocument serializes one record and hands it to the sink.
func (r *TelemetryRecorder) storeDocument(ctx context.Context, category, sessionID string, doc any) {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		r.logger.Error("failed to serialize audit document",
			zap.String("category", category),
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return
	}
	r.sink.Store(ctx, category, sessionID, string(data))
}
