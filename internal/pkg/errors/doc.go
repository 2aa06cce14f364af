// Package errors provides application error types for DataMorph.
//
// This package defines:
//   - AppError type with error classification
//   - Error constructors for common error types and pipeline stage failures
//   - Error type checking helpers
//   - HTTP status code mapping
//
// # Error Types
//
//   - Validation: Invalid input data (400)
//   - BadRequest: Malformed request (400)
//   - InvalidStageJSON: A pipeline stage's model reply was not parseable JSON (500)
//   - InvalidStageFormat: A stage reply parsed but lacked the required data key (500)
//   - Internal: Unexpected server error (500)
//
// # Usage
//
// Create errors using constructor functions:
//
//	return apperrors.InvalidStageJSON("field_transformations")
//	return apperrors.Validation("data is required")
//
// Check error types:
//
//	if apperrors.IsStageFailure(err) {
//	    // Handle pipeline stage failure
//	}
//
// Errors support wrapping with fmt.Errorf:
//
//	return fmt.Errorf("pipeline failed: %w", apperrors.InvalidStageJSON(stage))
package errors
