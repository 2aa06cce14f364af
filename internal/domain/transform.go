package domain

// Record is a single tabular row mapping field names to arbitrary JSON values.
type Record map[string]any

// Instruction is one natural-language transformation directive. Its structure
// is opaque to the service and interpreted only by the model.
type Instruction map[string]any

// InstructionSet holds the two recognized instruction phases. An absent or
// empty list means the corresponding pipeline stage is skipped.
type InstructionSet struct {
	FieldTransformations []Instruction `json:"field_transformations,omitempty"`
	FieldCreations       []Instruction `json:"field_creations,omitempty"`
}

// DataPayload is the evolving data envelope threaded between pipeline stages.
// It is always serialized as {"data": ...} for the model. Data starts as the
// caller's records and is replaced wholesale by each stage's unwrapped output,
// so after stage one it can hold whatever JSON value the model returned under
// its data key.
type DataPayload struct {
	Data any `json:"data"`
}

// NewDataPayload wraps incoming records as the initial pipeline payload.
func NewDataPayload(records []Record) DataPayload {
	return DataPayload{Data: records}
}

// TransformRequest is the inbound body for the transform endpoint.
type TransformRequest struct {
	Data         []Record       `json:"data"`
	Instructions InstructionSet `json:"instructions"`
}

// TransformResponse is the success envelope returned to the caller. ModifiedData
// is a record sequence when the pipeline ended after field_transformations (or
// ran no stages), and the model's full parsed reply when field_creations ran.
type TransformResponse struct {
	SessionID    string `json:"session_id"`
	ModifiedData any    `json:"modified_data"`
}
