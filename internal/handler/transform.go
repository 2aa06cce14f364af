package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/datamorph/datamorph/internal/domain"
	"github.com/datamorph/datamorph/internal/middleware"
	apperrors "github.com/datamorph/datamorph/internal/pkg/errors"
)

// Pipeline is the transformation pipeline consumed by the transform handler.
type Pipeline interface {
	Process(ctx context.Context, records []domain.Record, instructions domain.InstructionSet) (string, any, error)
}

// TransformHandler handles data transformation endpoints
type TransformHandler struct {
	pipeline Pipeline
	logger   *zap.Logger
}

// NewTransformHandler creates a new transform handler
func NewTransformHandler(pipeline Pipeline, logger *zap.Logger) *TransformHandler {
	return &TransformHandler{
		pipeline: pipeline,
		logger:   logger,
	}
}

// Transform handles POST /api/v1/transform. It runs the two-stage pipeline
// over the submitted records and returns the session id with the modified data.
func (h *TransformHandler) Transform(c *fiber.Ctx) error {
	var req domain.TransformRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	if len(req.Data) == 0 {
		return errorResponse(c, fiber.StatusBadRequest, "data is required")
	}

	sessionID, modified, err := h.pipeline.Process(c.Context(), req.Data, req.Instructions)
	if err != nil {
		h.logger.Error("pipeline processing failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		if appErr := apperrors.GetAppError(err); appErr != nil {
			return c.Status(appErr.StatusCode).JSON(ErrorResponse{
				Error:   appErr.Code,
				Message: appErr.Message,
			})
		}
		return errorResponse(c, fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(domain.TransformResponse{
		SessionID:    sessionID,
		ModifiedData: modified,
	})
}
