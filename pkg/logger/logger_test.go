package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestWarnEscalatesInStrictMode(t *testing.T) {
	tests := []struct {
		name      string
		strict    bool
		wantLevel string
	}{
		{name: "strict mode turns warning into error", strict: true, wantLevel: "[ERROR]"},
		{name: "default mode keeps warning", strict: false, wantLevel: "[WARNING]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Options{Out: &buf, Strict: tt.strict})

			log.Warn("fishy template")

			out := buf.String()
			if !strings.Contains(out, tt.wantLevel) {
				t.Errorf("output %q missing level %q", out, tt.wantLevel)
			}
			if !strings.Contains(out, "fishy template") {
				t.Errorf("output %q missing message", out)
			}
		})
	}
}

func TestQuietDiscardsOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Out: &buf, Quiet: true})

	log.Info("rendered 10 posts")
	log.Error("even errors stay silent")

	if buf.Len() != 0 {
		t.Errorf("quiet logger wrote %q", buf.String())
	}
}

func TestFieldsRendered(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Out: &buf})

	log.Info("loading", WithField("file", "conf.yml"))

	if !strings.Contains(buf.String(), "file=conf.yml") {
		t.Errorf("output %q missing field", buf.String())
	}
}
