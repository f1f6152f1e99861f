package agent

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/docentsh/docent/core/protocol"
	"github.com/docentsh/docent/core/providers"
	"github.com/docentsh/docent/core/session"
)

// DefaultMaxMessageLength bounds an incoming user message.
const DefaultMaxMessageLength = 10_000

// DefaultSystemPrompt frames the assistant when no prompt is configured.
const DefaultSystemPrompt = `You are a helpful assistant embedded in a software project's documentation site.
Answer questions about the project using the provided tools to search its
documentation and source code. Ground every answer in what the tools return;
say so when the project's files do not cover a question.`

// ServiceConfig wires a chat service together.
type ServiceConfig struct {
	Caller providers.ModelCaller
	Tools  ToolSet
	Store  session.Store

	// SystemPrompt overrides DefaultSystemPrompt.
	SystemPrompt string

	MaxTurns  int
	MaxTokens int

	// MaxMessageLength rejects oversized user messages before any model call.
	MaxMessageLength int

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Service turns one ChatRequest into an ordered event stream: it validates
// input, resolves the session, runs the tool loop, and persists the turn's
// history. Concurrent requests for different sessions are independent; a
// single session's get/run/set is one request's critical section.
type Service struct {
	loop         *Loop
	store        session.Store
	systemPrompt string
	maxMsgLen    int
	logger       *slog.Logger
}

// NewService creates a chat service from cfg.
func NewService(cfg ServiceConfig) *Service {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = DefaultMaxMessageLength
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Service{
		loop: NewLoop(LoopConfig{
			Caller:    cfg.Caller,
			Tools:     cfg.Tools,
			MaxTurns:  cfg.MaxTurns,
			MaxTokens: cfg.MaxTokens,
			Logger:    cfg.Logger,
		}),
		store:        cfg.Store,
		systemPrompt: cfg.SystemPrompt,
		maxMsgLen:    cfg.MaxMessageLength,
		logger:       cfg.Logger,
	}
}

// Chat processes one request, emitting the full event stream. Every stream
// terminates with exactly one of done or error. Validation failures
// short-circuit before any session state is touched. A cancelled request
// stops emitting immediately but still persists the partial turn.
func (s *Service) Chat(ctx context.Context, req *protocol.ChatRequest, emit EmitFunc) {
	if strings.TrimSpace(req.Message) == "" {
		s.fail(emit, protocol.CodeInvalidInput, "message must not be empty")
		return
	}
	if len(req.Message) > s.maxMsgLen {
		s.fail(emit, protocol.CodeInputTooLong,
			fmt.Sprintf("message exceeds %d characters", s.maxMsgLen))
		return
	}

	sess, err := s.resolveSession(ctx, req.SessionID)
	if err != nil {
		s.logger.Error("session load failed", "error", err)
		s.fail(emit, protocol.CodeUpstreamError, "session storage unavailable")
		return
	}

	if err := emit(&protocol.SessionEvent{SessionID: sess.ID}); err != nil {
		return
	}

	userMsg := providers.Message{Role: providers.RoleUser, Content: req.Message}
	history := append(slices.Clone(sess.History), userMsg)

	produced, runErr := s.loop.Run(ctx, s.buildSystemPrompt(req.Context), history, emit)

	// A stopped turn is frozen, not rolled back: persist whatever the run
	// reached in one write. The write must survive request cancellation, so
	// it runs on a detached context.
	sess.Touch(append([]providers.Message{userMsg}, produced...)...)
	if err := s.store.Set(context.WithoutCancel(ctx), sess.ID, sess); err != nil {
		s.logger.Error("session save failed", "session", sess.ID, "error", err)
	}

	if runErr != nil {
		if ctx.Err() != nil {
			// Client went away; nothing more may be emitted.
			return
		}
		s.logger.Error("model call failed", "session", sess.ID, "error", runErr)
		s.fail(emit, protocol.CodeUpstreamError, runErr.Error())
		return
	}

	_ = emit(&protocol.DoneEvent{SessionID: sess.ID})
}

// fail terminates the stream with its single error event.
func (s *Service) fail(emit EmitFunc, code, message string) {
	_ = emit(&protocol.ErrorEvent{Message: message, Code: code})
}

// ClearSession drops a conversation's stored history.
func (s *Service) ClearSession(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// resolveSession loads the identified session or starts a new one when the
// identifier is absent, unseen, or expired.
func (s *Service) resolveSession(ctx context.Context, id string) (*session.Session, error) {
	if id != "" {
		sess, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if sess != nil {
			return sess, nil
		}
	}

	if id == "" {
		id = uuid.NewString()
	}
	return session.NewSession(id), nil
}

// buildSystemPrompt folds the request's page context into the base prompt.
// Context travels per request; there is no process-wide current page.
func (s *Service) buildSystemPrompt(rc *protocol.RequestContext) string {
	if rc == nil {
		return s.systemPrompt
	}

	var b strings.Builder
	b.WriteString(s.systemPrompt)

	if page := rc.Page; page != nil {
		b.WriteString("\n\nThe visitor is currently on the page ")
		if page.Title != "" {
			fmt.Fprintf(&b, "%q ", page.Title)
		}
		fmt.Fprintf(&b, "(%s).", page.URL)
		if page.Referrer != "" {
			fmt.Fprintf(&b, " They arrived from %s.", page.Referrer)
		}
	}

	if pc := rc.PageContent; pc != nil {
		if len(pc.Headings) > 0 {
			fmt.Fprintf(&b, "\nPage headings: %s.", strings.Join(pc.Headings, "; "))
		}
		if pc.Text != "" {
			fmt.Fprintf(&b, "\nVisible page text:\n%s", pc.Text)
		}
	}

	return b.String()
}
