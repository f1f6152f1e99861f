package providers

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4.1"

// OpenAICaller implements ModelCaller over the OpenAI Responses API. It is the
// second model-calling strategy, interchangeable with AnthropicCaller behind
// the same interface.
type OpenAICaller struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAICaller creates an OpenAI-backed caller.
func NewOpenAICaller(cfg Config) *OpenAICaller {
	opts := []option.RequestOption{}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := openai.NewClient(opts...)

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAICaller{
		client:    &client,
		model:     model,
		maxTokens: cfg.MaxTokens,
	}
}

// Name returns the provider identifier.
func (c *OpenAICaller) Name() string {
	return ProviderOpenAI
}

// StreamTurn performs one streaming model invocation, forwarding text deltas
// and tool-call starts to the handler as they arrive.
func (c *OpenAICaller) StreamTurn(ctx context.Context, req *TurnRequest, handler StreamHandler) (*Turn, error) {
	params := c.buildParams(req)

	stream := c.client.Responses.NewStreaming(ctx, params)

	var completion *responses.Response
	started := make(map[string]bool)

	for stream.Next() {
		event := stream.Current()

		switch ev := event.AsAny().(type) {
		case responses.ResponseTextDeltaEvent:
			if ev.Delta == "" {
				continue
			}
			if err := handler(&StreamChunk{
				Type: ChunkTypeText,
				Text: ev.Delta,
			}); err != nil {
				return nil, err
			}

		case responses.ResponseOutputItemAddedEvent:
			if ev.Item.Type != "function_call" || started[ev.Item.CallID] {
				continue
			}
			started[ev.Item.CallID] = true
			if err := handler(&StreamChunk{
				Type: ChunkTypeToolStart,
				ToolCall: &ToolCall{
					ID:   ev.Item.CallID,
					Name: ev.Item.Name,
				},
			}); err != nil {
				return nil, err
			}

		case responses.ResponseCompletedEvent:
			completion = &ev.Response

		case responses.ResponseIncompleteEvent:
			completion = &ev.Response

		case responses.ResponseErrorEvent:
			return nil, fmt.Errorf("openai stream: %s", ev.Message)
		}
	}

	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("openai stream: %w", err)
	}

	return convertResponse(completion), nil
}

// buildParams constructs Responses API parameters from a TurnRequest.
func (c *OpenAICaller) buildParams(req *TurnRequest) responses.ResponseNewParams {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(c.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: convertInput(req.Messages, req.SystemPrompt),
		},
		MaxOutputTokens: openai.Int(int64(maxTokens)),
	}

	if len(req.Tools) > 0 {
		params.Tools = convertOpenAITools(req.Tools)
	}

	return params
}

// convertInput converts neutral messages to Responses API input items. Prior
// assistant tool calls are replayed as function_call items so their
// function_call_output entries resolve.
func convertInput(messages []Message, systemPrompt string) responses.ResponseInputParam {
	result := make(responses.ResponseInputParam, 0, len(messages)+1)

	if systemPrompt != "" {
		result = append(result, responses.ResponseInputItemParamOfMessage(systemPrompt, responses.EasyInputMessageRoleSystem))
	}

	for _, msg := range messages {
		switch msg.Role {
		case RoleUser:
			result = append(result, responses.ResponseInputItemParamOfMessage(msg.Content, responses.EasyInputMessageRoleUser))

		case RoleAssistant:
			if msg.Content != "" {
				result = append(result, responses.ResponseInputItemParamOfMessage(msg.Content, responses.EasyInputMessageRoleAssistant))
			}
			for _, tc := range msg.ToolCalls {
				result = append(result, responses.ResponseInputItemParamOfFunctionCall(tc.Arguments, tc.ID, tc.Name))
			}

		case RoleTool:
			result = append(result, responses.ResponseInputItemParamOfFunctionCallOutput(msg.ToolCallID, msg.Content))
		}
	}

	return result
}

// convertOpenAITools converts neutral tool declarations to Responses API form.
func convertOpenAITools(tools []ToolDecl) []responses.ToolUnionParam {
	result := make([]responses.ToolUnionParam, len(tools))
	for i, tool := range tools {
		result[i] = responses.ToolParamOfFunction(tool.Name, ensureObjectSchema(tool.InputSchema), true)
		if tool.Description != "" {
			desc := openai.String(tool.Description)
			function := result[i].OfFunction
			function.Description = desc
			result[i].OfFunction = function
		}
	}
	return result
}

func ensureObjectSchema(schema map[string]any) map[string]any {
	if schema == nil {
		return map[string]any{"type": "object"}
	}
	if _, hasType := schema["type"]; !hasType {
		schema["type"] = "object"
	}
	return schema
}

// convertResponse assembles the completed turn from the final response.
func convertResponse(result *responses.Response) *Turn {
	if result == nil {
		return &Turn{StopReason: StopReasonEndTurn}
	}

	turn := &Turn{
		Text:       result.OutputText(),
		StopReason: StopReasonEndTurn,
	}

	for _, item := range result.Output {
		if item.Type == "function_call" {
			turn.ToolCalls = append(turn.ToolCalls, ToolCall{
				ID:        item.CallID,
				Name:      item.Name,
				Arguments: item.Arguments,
			})
		}
	}

	if len(turn.ToolCalls) > 0 {
		turn.StopReason = StopReasonToolUse
	}
	if result.IncompleteDetails.Reason == "max_output_tokens" {
		turn.StopReason = StopReasonMaxTokens
	}

	return turn
}
