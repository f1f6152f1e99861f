// Package tools defines callable tools the model may invoke, the registry
// that dispatches them, and the built-in project tools over the keyword index.
// Dispatch never propagates a failure: unknown names, handler errors, and
// handler panics all become error-flagged results the agent loop can feed
// back to the model as data.
package tools

import (
	"context"
	"fmt"
	"strings"
)

// Handler executes one tool call. Returning an error is equivalent to
// returning an error-flagged result; the registry converts it.
type Handler func(ctx context.Context, args map[string]any) (*Result, error)

// Tool is a named, schema-declared callable. Tools are stateless; any state
// (such as the index) lives in the handler's closure.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
	Handler     Handler
}

// Result is the outcome of one tool call. Error results always carry at least
// one segment describing the failure.
type Result struct {
	Segments []string `json:"segments"`
	IsError  bool     `json:"is_error"`
}

// Text joins the result segments for feeding back to the model.
func (r *Result) Text() string {
	return strings.Join(r.Segments, "\n")
}

// TextResult builds a successful result from segments.
func TextResult(segments ...string) *Result {
	return &Result{Segments: segments}
}

// Errorf builds an error-flagged result.
func Errorf(format string, a ...any) *Result {
	return &Result{
		Segments: []string{fmt.Sprintf(format, a...)},
		IsError:  true,
	}
}

// stringArg extracts an optional string argument.
func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}
