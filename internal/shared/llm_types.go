package shared

import (
	"time"
)

// TokenUsage tracks the tokens consumed by a request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// Empty reports whether the provider reported no usage at all, as with cached replies.
func (u TokenUsage) Empty() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0
}

// AgentMeta holds operational metadata for one LLM-backed step.
type AgentMeta struct {
	AgentName string
	Usage     TokenUsage
	Latency   time.Duration
}

// NewAgentMeta stamps the latency of a step that began at start.
func NewAgentMeta(agent string, usage TokenUsage, start time.Time) AgentMeta {
	return AgentMeta{AgentName: agent, Usage: usage, Latency: time.Since(start)}
}
