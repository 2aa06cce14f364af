// Package llm provides the chat completion capability used by the
// transformation pipeline. The Client interface keeps the pipeline decoupled
// from the concrete endpoint so tests can substitute a double.
package llm

import "context"

// Message is one chat message in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage holds the token counters reported by the completion endpoint.
type Usage struct {
	CompletionTokens int `json:"completion_tokens"`
	PromptTokens     int `json:"prompt_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Choice is one candidate reply in a completion envelope.
type Choice struct {
	Message Message `json:"message"`
}

// Completion is the response envelope for one chat completion call.
type Completion struct {
	ID      string   `json:"id"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Content returns the textual content of the first choice, or an empty string
// when the envelope carries no choices.
func (c *Completion) Content() string {
	if len(c.Choices) == 0 {
		return ""
	}
	return c.Choices[0].Message.Content
}

// Client is the chat completion capability. Implementations must be safe for
// concurrent use across in-flight requests.
type Client interface {
	Complete(ctx context.Context, messages []Message) (*Completion, error)
}
