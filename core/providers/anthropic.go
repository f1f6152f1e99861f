package providers

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-sonnet-4-5-20250929"

// AnthropicCaller implements ModelCaller over the Anthropic Messages API.
type AnthropicCaller struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropicCaller creates an Anthropic-backed caller.
func NewAnthropicCaller(cfg Config) *AnthropicCaller {
	opts := []option.RequestOption{}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := anthropic.NewClient(opts...)

	model := cfg.Model
	if model == "" {
		model = DefaultAnthropicModel
	}

	return &AnthropicCaller{
		client:    &client,
		model:     model,
		maxTokens: cfg.MaxTokens,
	}
}

// Name returns the provider identifier.
func (c *AnthropicCaller) Name() string {
	return ProviderAnthropic
}

// StreamTurn performs one streaming model invocation, forwarding text deltas
// and tool-call starts to the handler as they arrive.
func (c *AnthropicCaller) StreamTurn(ctx context.Context, req *TurnRequest, handler StreamHandler) (*Turn, error) {
	params := c.buildParams(req)

	stream := c.client.Messages.NewStreaming(ctx, params)

	var acc anthropic.Message
	for stream.Next() {
		event := stream.Current()
		if err := acc.Accumulate(event); err != nil {
			return nil, fmt.Errorf("anthropic accumulate: %w", err)
		}

		chunk := convertStreamEvent(event)
		if chunk == nil {
			continue
		}
		if err := handler(chunk); err != nil {
			return nil, err
		}
	}

	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("anthropic stream: %w", err)
	}

	return convertMessage(&acc), nil
}

// buildParams constructs Anthropic API parameters from a TurnRequest.
func (c *AnthropicCaller) buildParams(req *TurnRequest) anthropic.MessageNewParams {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages:  convertMessages(req.Messages),
		Tools:     convertTools(req.Tools),
	}

	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		}
	}

	return params
}

// convertMessages converts neutral messages to Anthropic format. Tool results
// become user-role tool_result blocks keyed to their originating call IDs.
func convertMessages(messages []Message) []anthropic.MessageParam {
	result := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case RoleUser:
			result = append(result, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))

		case RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.ToolCalls)+1)
				if msg.Content != "" {
					blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
				}
				for _, tc := range msg.ToolCalls {
					blocks = append(blocks, anthropic.ContentBlockParamUnion{
						OfToolUse: &anthropic.ToolUseBlockParam{
							ID:    tc.ID,
							Name:  tc.Name,
							Input: tc.Arguments,
						},
					})
				}
				result = append(result, anthropic.NewAssistantMessage(blocks...))
			} else {
				result = append(result, anthropic.NewAssistantMessage(
					anthropic.NewTextBlock(msg.Content),
				))
			}

		case RoleTool:
			result = append(result, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, msg.ToolError),
			))
		}
	}

	return result
}

// convertTools converts neutral tool declarations to Anthropic format.
func convertTools(tools []ToolDecl) []anthropic.ToolUnionParam {
	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, tool := range tools {
		result[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name,
				Description: anthropic.String(tool.Description),
				InputSchema: buildSchema(tool.InputSchema),
			},
		}
	}
	return result
}

func buildSchema(schema map[string]any) anthropic.ToolInputSchemaParam {
	return anthropic.ToolInputSchemaParam{
		Type:       "object",
		Properties: schema["properties"],
		Required:   requiredFields(schema),
	}
}

func requiredFields(schema map[string]any) []string {
	req, ok := schema["required"].([]any)
	if !ok {
		return nil
	}
	result := make([]string, 0, len(req))
	for _, r := range req {
		if s, ok := r.(string); ok {
			result = append(result, s)
		}
	}
	return result
}

// convertStreamEvent maps an Anthropic stream event to a neutral chunk.
// Events that carry no caller-visible output return nil.
func convertStreamEvent(event anthropic.MessageStreamEventUnion) *StreamChunk {
	switch ev := event.AsAny().(type) {
	case anthropic.ContentBlockDeltaEvent:
		if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok {
			return &StreamChunk{
				Type: ChunkTypeText,
				Text: delta.Text,
			}
		}

	case anthropic.ContentBlockStartEvent:
		if ev.ContentBlock.Type == "tool_use" {
			tb := ev.ContentBlock.AsAny().(anthropic.ToolUseBlock)
			return &StreamChunk{
				Type: ChunkTypeToolStart,
				ToolCall: &ToolCall{
					ID:   tb.ID,
					Name: tb.Name,
				},
			}
		}
	}

	return nil
}

// convertMessage assembles the completed turn from the accumulated message.
func convertMessage(msg *anthropic.Message) *Turn {
	var text string
	var toolCalls []ToolCall

	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text += b.Text
		case anthropic.ToolUseBlock:
			args, _ := b.Input.MarshalJSON()
			toolCalls = append(toolCalls, ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: string(args),
			})
		}
	}

	return &Turn{
		Text:       text,
		ToolCalls:  toolCalls,
		StopReason: convertStopReason(msg.StopReason),
	}
}

// convertStopReason maps the Anthropic stop reason to neutral form.
func convertStopReason(reason anthropic.StopReason) StopReason {
	switch reason {
	case anthropic.StopReasonToolUse:
		return StopReasonToolUse
	case anthropic.StopReasonMaxTokens:
		return StopReasonMaxTokens
	default:
		return StopReasonEndTurn
	}
}
