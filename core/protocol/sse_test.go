package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, e Event) Event {
	t.Helper()

	frame, err := Marshal(e)
	require.NoError(t, err)

	events, err := NewDecoder().Feed(frame)
	require.NoError(t, err)
	require.Len(t, events, 1)
	return events[0]
}

func TestRoundTripEveryVariant(t *testing.T) {
	cases := []Event{
		&SessionEvent{SessionID: "abc-123"},
		&ContentDeltaEvent{Text: "Hello,\nworld: with \"quotes\""},
		&ToolUseStartEvent{ID: "tu_1", Tool: "search_docs"},
		&ToolUseStartEvent{ID: "tu_2", Tool: "read_file", Input: map[string]any{"path": "README.md"}},
		&ToolUseEndEvent{ID: "tu_1", Tool: "search_docs"},
		&MessageEndEvent{ID: "msg_1"},
		&DoneEvent{SessionID: "abc-123"},
		&ErrorEvent{Message: "upstream unavailable", Code: CodeUpstreamError},
		&ErrorEvent{Message: "bad input"},
	}

	for _, e := range cases {
		assert.Equal(t, e, roundTrip(t, e))
	}
}

func TestFramingShape(t *testing.T) {
	frame, err := Marshal(&SessionEvent{SessionID: "s1"})
	require.NoError(t, err)

	text := string(frame)
	assert.True(t, strings.HasPrefix(text, "event: session\ndata: "))
	assert.True(t, strings.HasSuffix(text, "\n\n"))

	// The data payload stays on a single line even with embedded newlines.
	frame, err = Marshal(&ContentDeltaEvent{Text: "line1\nline2"})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(frame), "\n"), "\n")
	assert.Len(t, lines, 2)
}

func TestDecoderHandlesChunkedInput(t *testing.T) {
	frame, err := Marshal(&ContentDeltaEvent{Text: "chunked"})
	require.NoError(t, err)

	d := NewDecoder()
	var events []Event
	for _, b := range frame {
		got, err := d.Feed([]byte{b})
		require.NoError(t, err)
		events = append(events, got...)
	}

	require.Len(t, events, 1)
	assert.Equal(t, &ContentDeltaEvent{Text: "chunked"}, events[0])
}

func TestDecoderMultipleEvents(t *testing.T) {
	var stream []byte
	for _, e := range []Event{
		&SessionEvent{SessionID: "s"},
		&ContentDeltaEvent{Text: "hi"},
		&DoneEvent{SessionID: "s"},
	} {
		frame, err := Marshal(e)
		require.NoError(t, err)
		stream = append(stream, frame...)
	}

	events, err := NewDecoder().Feed(stream)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.IsType(t, &SessionEvent{}, events[0])
	assert.IsType(t, &ContentDeltaEvent{}, events[1])
	assert.IsType(t, &DoneEvent{}, events[2])
}

func TestDecoderIgnoresColonlessLines(t *testing.T) {
	stream := "keep-alive\n" +
		"event: done\n" +
		"another stray line\n" +
		"data: {\"sessionId\":\"s\"}\n" +
		"\n"

	events, err := NewDecoder().Feed([]byte(stream))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, &DoneEvent{SessionID: "s"}, events[0])
}

func TestDecoderIncompleteFrameFiresNothing(t *testing.T) {
	// data without event, terminated by a blank line: not a parse error,
	// just no event.
	events, err := NewDecoder().Feed([]byte("data: {\"text\":\"x\"}\n\n"))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestDecoderUnknownEventType(t *testing.T) {
	_, err := NewDecoder().Feed([]byte("event: mystery\ndata: {}\n\n"))
	assert.Error(t, err)
}
