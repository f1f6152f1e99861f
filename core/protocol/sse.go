package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Marshal frames one event as two header lines and a blank line:
//
//	event: <type>\n
//	data: <json>\n
//	\n
//
// json.Marshal escapes newlines, so the data line is always a single line and
// the frame stays self-delimiting.
func Marshal(e Event) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", e.Type(), err)
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "event: %s\n", e.Type())
	fmt.Fprintf(&b, "data: %s\n\n", payload)
	return b.Bytes(), nil
}

// Write frames one event onto w.
func Write(w io.Writer, e Event) error {
	frame, err := Marshal(e)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

// Decoder incrementally parses the framed stream back into typed events. Feed
// it arbitrary chunks; it fires an event once both an `event` and a `data`
// field have been seen since the last blank line. Lines without a colon are
// ignored, which tolerates keep-alive blanks and comments.
type Decoder struct {
	buf bytes.Buffer

	eventType string
	data      string
	hasEvent  bool
	hasData   bool
}

// NewDecoder creates an empty decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends raw bytes and returns every event completed by them.
func (d *Decoder) Feed(p []byte) ([]Event, error) {
	d.buf.Write(p)

	var events []Event
	for {
		line, ok := d.nextLine()
		if !ok {
			return events, nil
		}

		if line == "" {
			if d.hasEvent && d.hasData {
				event, err := decodeEvent(d.eventType, d.data)
				if err != nil {
					return events, err
				}
				events = append(events, event)
			}
			d.reset()
			continue
		}

		field, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			d.eventType = value
			d.hasEvent = true
		case "data":
			d.data = value
			d.hasData = true
		}
	}
}

// nextLine pops one complete newline-terminated line from the buffer.
func (d *Decoder) nextLine() (string, bool) {
	raw := d.buf.Bytes()
	i := bytes.IndexByte(raw, '\n')
	if i < 0 {
		return "", false
	}

	line := string(raw[:i])
	d.buf.Next(i + 1)
	return strings.TrimSuffix(line, "\r"), true
}

func (d *Decoder) reset() {
	d.eventType = ""
	d.data = ""
	d.hasEvent = false
	d.hasData = false
}
