// Package providers defines the model-calling seam for the docent agent loop.
// A ModelCaller performs one streaming model turn: it accepts the conversation
// so far plus tool declarations, invokes chunk handlers as output arrives, and
// returns the completed turn with its stop condition. Concrete implementations
// exist for Anthropic and OpenAI and are selected by configuration at
// construction time.
package providers

import (
	"context"
	"errors"
	"fmt"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in a conversation history, in provider-neutral form.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolError  bool       `json:"tool_error,omitempty"`
}

// ToolCall is a model-requested tool invocation. Arguments is the raw JSON
// input the model produced for the tool.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDecl declares a callable tool to the model.
type ToolDecl struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// StopReason is the provider-neutral stop condition of a completed turn.
type StopReason string

const (
	StopReasonEndTurn   StopReason = "end_turn"
	StopReasonMaxTokens StopReason = "max_tokens"
	StopReasonToolUse   StopReason = "tool_use"
	StopReasonError     StopReason = "error"
)

// ChunkType discriminates streaming chunks.
type ChunkType string

const (
	ChunkTypeText      ChunkType = "text"
	ChunkTypeToolStart ChunkType = "tool_start"
)

// StreamChunk is one unit of incremental model output.
type StreamChunk struct {
	Type ChunkType

	// Text carries the delta for ChunkTypeText.
	Text string

	// ToolCall carries the id and name for ChunkTypeToolStart. Arguments are
	// not complete at this point; the finished call appears on the Turn.
	ToolCall *ToolCall
}

// StreamHandler receives chunks as they arrive. Returning an error aborts the
// stream and the turn.
type StreamHandler func(chunk *StreamChunk) error

// TurnRequest is one model invocation.
type TurnRequest struct {
	SystemPrompt string
	Messages     []Message
	Tools        []ToolDecl
	MaxTokens    int
}

// Turn is the completed result of one model invocation.
type Turn struct {
	Text       string
	ToolCalls  []ToolCall
	StopReason StopReason
}

// ModelCaller performs streaming model turns. The model call is treated as an
// opaque streaming RPC: implementations must invoke the handler for every text
// fragment and tool-call start in arrival order, then return the assembled
// turn. Any transport, auth, or rate-limit failure is returned as an error and
// is never retried here.
type ModelCaller interface {
	Name() string
	StreamTurn(ctx context.Context, req *TurnRequest, handler StreamHandler) (*Turn, error)
}

// Config selects and configures a concrete ModelCaller.
type Config struct {
	// Provider is "anthropic" or "openai".
	Provider string `yaml:"provider"`

	// APIKey authenticates with the provider. Falls back to the provider's
	// standard environment variable when empty.
	APIKey string `yaml:"api_key"`

	// Model overrides the provider default model.
	Model string `yaml:"model"`

	// MaxTokens caps generated tokens per turn.
	MaxTokens int `yaml:"max_tokens"`

	// BaseURL overrides the provider endpoint (proxies, gateways).
	BaseURL string `yaml:"base_url"`
}

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"

	// DefaultMaxTokens bounds a single turn's generation.
	DefaultMaxTokens = 4096
)

// ErrUnknownProvider indicates a provider name outside the supported set.
var ErrUnknownProvider = errors.New("unknown model provider")

// New constructs the ModelCaller selected by cfg.Provider. Selection happens
// here, once, at construction time.
func New(cfg Config) (ModelCaller, error) {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	switch cfg.Provider {
	case ProviderAnthropic, "":
		return NewAnthropicCaller(cfg), nil
	case ProviderOpenAI:
		return NewOpenAICaller(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
