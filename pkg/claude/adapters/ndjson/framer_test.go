package ndjson_test

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/yuri-xyz/claudebot/pkg/claude/adapters/ndjson"
)

type collector struct {
	messages []string
	nonJSON  []string
}

func (c *collector) framer() *ndjson.Framer {
	return ndjson.NewFramer(
		func(m json.RawMessage) { c.messages = append(c.messages, string(m)) },
		func(s string) { c.nonJSON = append(c.nonJSON, s) },
	)
}

func TestFramerSplitLine(t *testing.T) {
	var c collector
	f := c.framer()

	f.Process([]byte(`{"a":1}` + "\n" + `{"b"`))
	f.Process([]byte(`:2}` + "\n"))

	want := []string{`{"a":1}`, `{"b":2}`}
	if !reflect.DeepEqual(c.messages, want) {
		t.Errorf("messages = %v, want %v", c.messages, want)
	}
	if f.Buffered() != 0 {
		t.Errorf("Buffered() = %d", f.Buffered())
	}
}

func TestFramerLines(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		flush       bool
		wantMsgs    []string
		wantNonJSON []string
	}{
		{
			name:     "blank lines skipped",
			input:    "\n  \n{\"a\":1}\r\n\n",
			wantMsgs: []string{`{"a":1}`},
		},
		{
			name:        "non json reported",
			input:       "warning: slow\n{\"a\":1}\n",
			wantMsgs:    []string{`{"a":1}`},
			wantNonJSON: []string{"warning: slow"},
		},
		{
			name:        "two values on one line are not json",
			input:       "{\"a\":1} {\"b\":2}\n",
			wantNonJSON: []string{`{"a":1} {"b":2}`},
		},
		{
			name:     "partial line held until flush",
			input:    "{\"a\":1}\n{\"tail\":true}",
			flush:    true,
			wantMsgs: []string{`{"a":1}`, `{"tail":true}`},
		},
		{
			name:     "partial line without flush",
			input:    "{\"a\":1}\n{\"tail\":true}",
			wantMsgs: []string{`{"a":1}`},
		},
		{
			name:     "scalars are json",
			input:    "42\n\"s\"\n",
			wantMsgs: []string{`42`, `"s"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c collector
			f := c.framer()
			f.Process([]byte(tt.input))
			if tt.flush {
				f.Flush()
			}
			if !reflect.DeepEqual(c.messages, tt.wantMsgs) {
				t.Errorf("messages = %v, want %v", c.messages, tt.wantMsgs)
			}
			if !reflect.DeepEqual(c.nonJSON, tt.wantNonJSON) {
				t.Errorf("nonJSON = %v, want %v", c.nonJSON, tt.wantNonJSON)
			}
		})
	}
}

func TestFramerChunkBoundariesDoNotMatter(t *testing.T) {
	lines := []string{
		`{"type":"system","subtype":"init"}`,
		`{"type":"assistant","message":{"content":[{"type":"text","text":"héllo\nworld"}]}}`,
		`{"type":"result","result":"ok"}`,
		`[1,2,3]`,
	}
	stream := strings.Join(lines, "\n") + "\n"

	var whole collector
	wf := whole.framer()
	wf.Process([]byte(stream))
	wf.Flush()

	for size := 1; size <= len(stream); size++ {
		var c collector
		f := c.framer()
		for i := 0; i < len(stream); i += size {
			end := min(i+size, len(stream))
			f.Process([]byte(stream[i:end]))
		}
		f.Flush()

		if !reflect.DeepEqual(c.messages, whole.messages) {
			t.Fatalf("chunk size %d: messages = %v, want %v", size, c.messages, whole.messages)
		}
	}
	if len(whole.messages) != len(lines) {
		t.Errorf("decoded %d messages, want %d", len(whole.messages), len(lines))
	}
}

func TestFramerReset(t *testing.T) {
	var c collector
	f := c.framer()
	f.Process([]byte(`{"partial":`))
	f.Reset()
	f.Flush()
	f.Process([]byte("{\"a\":1}\n"))

	if !reflect.DeepEqual(c.messages, []string{`{"a":1}`}) {
		t.Errorf("messages = %v", c.messages)
	}
	if len(c.nonJSON) != 0 {
		t.Errorf("nonJSON = %v", c.nonJSON)
	}
}
