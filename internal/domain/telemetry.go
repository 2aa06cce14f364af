package domain

// Audit document categories. Each category becomes the top-level prefix of the
// stored object's path.
const (
	CategoryTokenUsage  = "token_usage"
	CategoryMessageData = "message_data"
)

// PerformanceRecord captures the usage counters of one completed model call.
// Write-once; it has no lifecycle beyond serialization and storage.
type PerformanceRecord struct {
	SessionID        string `json:"session_id"`
	ResponseID       string `json:"response_id"`
	CreatedAt        int64  `json:"created_at"`
	CompletionTokens int    `json:"completion_tokens"`
	PromptTokens     int    `json:"prompt_tokens"`
	TotalTokens      int    `json:"total_tokens"`
}

// MessageRecord captures the instruction objects and the cleaned post-stage
// data of one model call. Instructions holds the caller's instruction objects,
// not the rendered prompt text.
type MessageRecord struct {
	SessionID    string        `json:"session_id"`
	ResponseID   string        `json:"response_id"`
	Instructions []Instruction `json:"instructions"`
	Data         any           `json:"data"`
}
