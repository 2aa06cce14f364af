package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datamorph/datamorph/internal/domain"
	"github.com/datamorph/datamorph/internal/llm"
	apperrors "github.com/datamorph/datamorph/internal/pkg/errors"
	"github.com/datamorph/datamorph/internal/pkg/metrics"
)

// Pipeline stage names. The stages run strictly in this order; field_creations
// is terminal.
const (
	StageFieldTransformations = "field_transformations"
	StageFieldCreations       = "field_creations"
)

const stageDirective = "Make the updates to the data using the given instructions for %s: %s. " +
	"Your response should only be in JSON format; do not wrap in ```json markdown."

// PipelineService owns the two-stage sequential transformation flow. It decides
// whether each stage runs, threads the evolving payload between stages,
// classifies failures, and shapes the final response. One instance is shared
// across requests; all per-request state lives in Process locals.
type PipelineService struct {
	client    llm.Client
	telemetry *TelemetryRecorder
	logger    *zap.Logger
}

// NewPipelineService creates the pipeline with its chat completion capability
// injected, so tests can substitute a double.
func NewPipelineService(client llm.Client, telemetry *TelemetryRecorder, logger *zap.Logger) *PipelineService {
	return &PipelineService{
		client:    client,
		telemetry: telemetry,
		logger:    logger,
	}
}

// Process runs the transformation pipeline over the records and returns the
// fresh session id together with the modified data. Any stage failure aborts
// immediately with a classified error; no partial results are returned.
func (s *PipelineService) Process(
	ctx context.Context,
	records []domain.Record,
	instructions domain.InstructionSet,
) (string, any, error) {
	sessionID := uuid.New().String()
	payload := domain.NewDataPayload(records)

	log := s.logger.With(zap.String("session_id", sessionID))

	if len(instructions.FieldTransformations) > 0 {
		reply := s.invokeStage(ctx, log, sessionID, StageFieldTransformations, instructions.FieldTransformations, payload)

		var parsed map[string]any
		if err := json.Unmarshal([]byte(reply), &parsed); err != nil {
			metrics.RecordStage(StageFieldTransformations, "invalid_json")
			return "", nil, apperrors.InvalidStageJSON(StageFieldTransformations).WithError(err)
		}
		data, ok := parsed["data"]
		if !ok {
			metrics.RecordStage(StageFieldTransformations, "invalid_format")
			return "", nil, apperrors.InvalidStageFormat(StageFieldTransformations)
		}

		payload = domain.DataPayload{Data: data}
		metrics.RecordStage(StageFieldTransformations, "success")
		log.Info("stage completed", zap.String("stage", StageFieldTransformations))
	}

	if len(instructions.FieldCreations) > 0 {
		reply := s.invokeStage(ctx, log, sessionID, StageFieldCreations, instructions.FieldCreations, payload)

		var parsed any
		if err := json.Unmarshal([]byte(reply), &parsed); err != nil {
			metrics.RecordStage(StageFieldCreations, "invalid_json")
			return "", nil, apperrors.InvalidStageJSON(StageFieldCreations).WithError(err)
		}

		metrics.RecordStage(StageFieldCreations, "success")
		log.Info("stage completed", zap.String("stage", StageFieldCreations))

		// Unlike stage one, the parsed reply is returned whole: no data key is
		// required and nothing is unwrapped. This asymmetry is part of the
		// endpoint's contract; do not normalize it.
		return sessionID, parsed, nil
	}

	// Neither stage ran: the original records go back untouched, without a
	// round trip through the model.
	return sessionID, payload.Data, nil
}

// invokeStage wraps one model call and returns the raw reply text. Every
// failure inside the call is absorbed into the empty-string sentinel; the
// orchestrator re-parses the reply and treats the sentinel as a JSON parse
// failure.
func (s *PipelineService) invokeStage(
	ctx context.Context,
	log *zap.Logger,
	sessionID string,
	stage string,
	instructions []domain.Instruction,
	payload domain.DataPayload,
) string {
	reply, completion, err := s.callModel(ctx, stage, instructions, payload)
	if err != nil {
		metrics.RecordStage(stage, "transport_failure")
		log.Error("failed to generate response",
			zap.String("stage", stage),
			zap.Error(err),
		)
		return ""
	}

	// Best-effort extraction of the data field for the message record. A reply
	// without one still flows back to the orchestrator untouched.
	var cleaned any
	var parsed map[string]any
	if err := json.Unmarshal([]byte(reply), &parsed); err != nil {
		log.Warn("reply not parseable for telemetry",
			zap.String("stage", stage),
			zap.Error(err),
		)
	} else if v, ok := parsed["data"]; ok {
		cleaned = v
	} else {
		log.Warn("reply missing data field for telemetry", zap.String("stage", stage))
	}

	s.telemetry.Record(ctx, sessionID, completion, instructions, cleaned)

	return reply
}

// callModel builds the two-message prompt for a stage and submits it as a chat
// exchange.
func (s *PipelineService) callModel(
	ctx context.Context,
	stage string,
	instructions []domain.Instruction,
	payload domain.DataPayload,
) (string, *llm.Completion, error) {
	instructionsJSON, err := json.MarshalIndent(map[string]any{stage: instructions}, "", "    ")
	if err != nil {
		return "", nil, fmt.Errorf("failed to serialize instructions: %w", err)
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to serialize payload: %w", err)
	}

	messages := []llm.Message{
		{Role: "user", Content: fmt.Sprintf(stageDirective, stage, instructionsJSON)},
		{Role: "user", Content: "Here's the data: " + string(payloadJSON)},
	}

	start := time.Now()
	completion, err := s.client.Complete(ctx, messages)
	if err != nil {
		return "", nil, err
	}
	metrics.RecordModelCall(stage, time.Since(start))

	return completion.Content(), completion, nil
}
