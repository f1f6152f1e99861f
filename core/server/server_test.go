package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docentsh/docent/core/agent"
	"github.com/docentsh/docent/core/protocol"
	"github.com/docentsh/docent/core/providers"
	"github.com/docentsh/docent/core/session"
	"github.com/docentsh/docent/core/tools"
)

// fixedCaller answers every turn with one canned text response.
type fixedCaller struct {
	text string
}

func (c *fixedCaller) Name() string { return "fixed" }

func (c *fixedCaller) StreamTurn(ctx context.Context, req *providers.TurnRequest, handler providers.StreamHandler) (*providers.Turn, error) {
	if err := handler(&providers.StreamChunk{Type: providers.ChunkTypeText, Text: c.text}); err != nil {
		return nil, err
	}
	return &providers.Turn{Text: c.text, StopReason: providers.StopReasonEndTurn}, nil
}

func newTestServer(t *testing.T, store session.Store) *Server {
	t.Helper()

	svc := agent.NewService(agent.ServiceConfig{
		Caller: &fixedCaller{text: "hello from docent"},
		Tools:  tools.NewRegistry(),
		Store:  store,
		Logger: slog.New(slog.DiscardHandler),
	})
	return New(Config{Addr: ":0", Service: svc, Logger: slog.New(slog.DiscardHandler)})
}

func postChat(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeStream(t *testing.T, body string) []protocol.Event {
	t.Helper()

	events, err := protocol.NewDecoder().Feed([]byte(body))
	require.NoError(t, err)
	return events
}

func TestChatEndpointStreamsEvents(t *testing.T) {
	srv := newTestServer(t, session.NewMemoryStore(time.Hour))

	rec := postChat(t, srv, `{"message":"hi"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	events := decodeStream(t, rec.Body.String())
	require.NotEmpty(t, events)
	assert.IsType(t, &protocol.SessionEvent{}, events[0])
	assert.IsType(t, &protocol.DoneEvent{}, events[len(events)-1])

	var text strings.Builder
	for _, e := range events {
		if delta, ok := e.(*protocol.ContentDeltaEvent); ok {
			text.WriteString(delta.Text)
		}
	}
	assert.Equal(t, "hello from docent", text.String())
}

func TestChatEndpointRejectsBadJSON(t *testing.T) {
	srv := newTestServer(t, session.NewMemoryStore(time.Hour))

	rec := postChat(t, srv, `{"message":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatEndpointValidationError(t *testing.T) {
	srv := newTestServer(t, session.NewMemoryStore(time.Hour))

	rec := postChat(t, srv, `{"message":"  "}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	events := decodeStream(t, rec.Body.String())
	require.Len(t, events, 1)
	errEvent := events[0].(*protocol.ErrorEvent)
	assert.Equal(t, protocol.CodeInvalidInput, errEvent.Code)
}

func TestClearSessionEndpoint(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	srv := newTestServer(t, store)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "s1", session.NewSession("s1")))

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/s1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	sess, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, session.NewMemoryStore(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
