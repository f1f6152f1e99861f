// Package protocol defines the wire contract between the agent loop and any
// transport: the chat request shape, the typed event union, and the
// line-oriented event framing. Events are transient; they are streamed, never
// persisted.
package protocol

import (
	"encoding/json"
	"fmt"
)

// EventType tags one variant of the event union.
type EventType string

const (
	EventSession      EventType = "session"
	EventContentDelta EventType = "content_delta"
	EventToolUseStart EventType = "tool_use_start"
	EventToolUseEnd   EventType = "tool_use_end"
	EventMessageEnd   EventType = "message_end"
	EventDone         EventType = "done"
	EventError        EventType = "error"
)

// Event is one unit of the outbound stream.
type Event interface {
	Type() EventType
}

// SessionEvent announces the session identifier, first on every stream.
type SessionEvent struct {
	SessionID string `json:"sessionId"`
}

func (SessionEvent) Type() EventType { return EventSession }

// ContentDeltaEvent carries one fragment of model text.
type ContentDeltaEvent struct {
	Text string `json:"text"`
}

func (ContentDeltaEvent) Type() EventType { return EventContentDelta }

// ToolUseStartEvent signals a model-requested tool call before it executes.
// Input is present once the call's arguments are known.
type ToolUseStartEvent struct {
	ID    string         `json:"id"`
	Tool  string         `json:"tool"`
	Input map[string]any `json:"input,omitempty"`
}

func (ToolUseStartEvent) Type() EventType { return EventToolUseStart }

// ToolUseEndEvent signals a tool call has finished executing.
type ToolUseEndEvent struct {
	ID   string `json:"id"`
	Tool string `json:"tool"`
}

func (ToolUseEndEvent) Type() EventType { return EventToolUseEnd }

// MessageEndEvent marks the natural end of the assistant's answer.
type MessageEndEvent struct {
	ID string `json:"id"`
}

func (MessageEndEvent) Type() EventType { return EventMessageEnd }

// DoneEvent terminates a successful stream.
type DoneEvent struct {
	SessionID string `json:"sessionId"`
}

func (DoneEvent) Type() EventType { return EventDone }

// ErrorEvent terminates a failed stream. Exactly one is emitted per failed
// turn and nothing follows it.
type ErrorEvent struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (ErrorEvent) Type() EventType { return EventError }

// Stable error codes surfaced to clients.
const (
	CodeInvalidInput  = "INVALID_INPUT"
	CodeInputTooLong  = "INPUT_TOO_LONG"
	CodeUpstreamError = "UPSTREAM_ERROR"
)

// decodeEvent reconstructs a typed event from its tag and JSON payload.
func decodeEvent(eventType, data string) (Event, error) {
	unmarshal := func(v Event) (Event, error) {
		if err := json.Unmarshal([]byte(data), v); err != nil {
			return nil, fmt.Errorf("decode %s event: %w", eventType, err)
		}
		return v, nil
	}

	switch EventType(eventType) {
	case EventSession:
		return unmarshal(&SessionEvent{})
	case EventContentDelta:
		return unmarshal(&ContentDeltaEvent{})
	case EventToolUseStart:
		return unmarshal(&ToolUseStartEvent{})
	case EventToolUseEnd:
		return unmarshal(&ToolUseEndEvent{})
	case EventMessageEnd:
		return unmarshal(&MessageEndEvent{})
	case EventDone:
		return unmarshal(&DoneEvent{})
	case EventError:
		return unmarshal(&ErrorEvent{})
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
}
