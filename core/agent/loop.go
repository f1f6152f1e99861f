// Package agent drives the tool loop: repeated streaming model calls
// interleaved with tool execution until the model stops requesting tools or
// the turn ceiling is reached, with every state transition emitted as a
// protocol event in the exact order it occurred.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/docentsh/docent/core/protocol"
	"github.com/docentsh/docent/core/providers"
	"github.com/docentsh/docent/core/tools"
)

// ToolSet is the dispatch surface the loop needs; both tools.Registry and
// tools.NamespacedRegistry satisfy it.
type ToolSet interface {
	Decls() []providers.ToolDecl
	Call(ctx context.Context, name string, args map[string]any) *tools.Result
}

// EmitFunc delivers one event downstream. An error means the consumer is gone
// and aborts the run.
type EmitFunc func(protocol.Event) error

// DefaultMaxTurns caps model invocations per request.
const DefaultMaxTurns = 8

// LoopConfig configures a Loop.
type LoopConfig struct {
	Caller providers.ModelCaller
	Tools  ToolSet

	// MaxTurns is a hard ceiling on loop iterations, one iteration per model
	// call. Enforced by counting alone, independent of token accounting.
	MaxTurns int

	// MaxTokens bounds each turn's generation.
	MaxTokens int

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Loop is the per-request state machine. One Loop instance processes one
// request end to end.
type Loop struct {
	caller   providers.ModelCaller
	tools    ToolSet
	maxTurns int
	maxToks  int
	logger   *slog.Logger
}

// NewLoop creates a loop from cfg.
func NewLoop(cfg LoopConfig) *Loop {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Loop{
		caller:   cfg.Caller,
		tools:    cfg.Tools,
		maxTurns: cfg.MaxTurns,
		maxToks:  cfg.MaxTokens,
		logger:   cfg.Logger,
	}
}

// Run executes the tool loop over history (which already ends with the new
// user message) under systemPrompt. Text fragments stream out as
// content_delta events the moment they arrive; tool calls execute
// sequentially in the order the model emitted them, so the fed-back
// transcript order matches call order exactly. Run returns the messages this
// run produced, for the caller to persist. When the run ends early on
// cancellation or a model-call failure, that includes the partial transcript.
func (l *Loop) Run(ctx context.Context, systemPrompt string, history []providers.Message, emit EmitFunc) ([]providers.Message, error) {
	msgs := slices.Clone(history)
	var produced []providers.Message

	decls := l.tools.Decls()

	for turn := 1; ; turn++ {
		if turn > l.maxTurns {
			// Designed degradation, not a failure: stop calling the model and
			// let the stream finish in done.
			l.logger.Debug("turn ceiling reached", "max_turns", l.maxTurns)
			return produced, nil
		}

		req := &providers.TurnRequest{
			SystemPrompt: systemPrompt,
			Messages:     msgs,
			Tools:        decls,
			MaxTokens:    l.maxToks,
		}

		result, err := l.caller.StreamTurn(ctx, req, func(chunk *providers.StreamChunk) error {
			switch chunk.Type {
			case providers.ChunkTypeText:
				return emit(&protocol.ContentDeltaEvent{Text: chunk.Text})
			case providers.ChunkTypeToolStart:
				return emit(&protocol.ToolUseStartEvent{
					ID:   chunk.ToolCall.ID,
					Tool: chunk.ToolCall.Name,
				})
			}
			return nil
		})
		if err != nil {
			return produced, fmt.Errorf("model call: %w", err)
		}

		assistant := providers.Message{
			Role:      providers.RoleAssistant,
			Content:   result.Text,
			ToolCalls: result.ToolCalls,
		}
		msgs = append(msgs, assistant)
		produced = append(produced, assistant)

		if result.StopReason != providers.StopReasonToolUse {
			if err := emit(&protocol.MessageEndEvent{ID: uuid.NewString()}); err != nil {
				return produced, err
			}
			return produced, nil
		}

		if len(result.ToolCalls) == 0 {
			// The model signaled tool use but produced no call blocks.
			// Terminate rather than loop on an ill-formed response.
			l.logger.Warn("tool_use stop with no tool calls")
			return produced, nil
		}

		for _, call := range result.ToolCalls {
			toolResult := l.tools.Call(ctx, call.Name, parseArgs(call.Arguments))

			if err := emit(&protocol.ToolUseEndEvent{ID: call.ID, Tool: call.Name}); err != nil {
				return produced, err
			}

			toolMsg := providers.Message{
				Role:       providers.RoleTool,
				Content:    toolResult.Text(),
				ToolCallID: call.ID,
				ToolError:  toolResult.IsError,
			}
			msgs = append(msgs, toolMsg)
			produced = append(produced, toolMsg)
		}
	}
}

// parseArgs decodes a tool call's JSON arguments. Malformed arguments yield
// an empty map; the tool's own validation produces the model-visible error.
func parseArgs(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return map[string]any{}
	}
	return args
}
