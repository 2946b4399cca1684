package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func newTestLogger() (*Logger, *bytes.Buffer) {
	l := New("test")
	buf := &bytes.Buffer{}
	l.SetWriter(buf)
	l.SetColorize(false)
	return l, buf
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newTestLogger()
	l.SetLevel(WARN)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below WARN were logged: %q", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("WARN/ERROR messages missing: %q", out)
	}
}

func TestTextFormat(t *testing.T) {
	l, buf := newTestLogger()
	l.Info("staged %d channels", 4)

	out := buf.String()
	if !strings.Contains(out, "[INFO ]") {
		t.Errorf("missing level tag: %q", out)
	}
	if !strings.Contains(out, "test: staged 4 channels") {
		t.Errorf("missing prefix or formatted message: %q", out)
	}
}

func TestFieldsSorted(t *testing.T) {
	l, buf := newTestLogger()
	l.WithFields(Fields{"tool": 2, "channel": 0}).Info("commit")

	out := buf.String()
	ci := strings.Index(out, "channel=0")
	ti := strings.Index(out, "tool=2")
	if ci < 0 || ti < 0 {
		t.Fatalf("fields missing: %q", out)
	}
	if ci > ti {
		t.Errorf("fields not in sorted order: %q", out)
	}
}

func TestJSONFormat(t *testing.T) {
	l, buf := newTestLogger()
	l.SetFormat(FormatJSON)
	l.WithField("tool", 1).Warn("zero sum")

	var obj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &obj); err != nil {
		t.Fatalf("invalid JSON output %q: %v", buf.String(), err)
	}
	if obj["level"] != "WARN" || obj["component"] != "test" || obj["msg"] != "zero sum" {
		t.Errorf("unexpected JSON fields: %v", obj)
	}
	if obj["tool"] != float64(1) {
		t.Errorf("structured field lost: %v", obj)
	}
}

func TestWithPrefix(t *testing.T) {
	l, buf := newTestLogger()
	sub := l.WithPrefix("serial")
	sub.Info("opened")

	if !strings.Contains(buf.String(), "test.serial: opened") {
		t.Errorf("prefix chain missing: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   DEBUG,
		"INFO":    INFO,
		"Warning": WARN,
		"error":   ERROR,
		"bogus":   INFO,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
