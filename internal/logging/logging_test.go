package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestLogfPrefix(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{Prefix: "kernelc: ", Out: &buf}
	l.Logf("built %d programs\n", 3)

	if got := buf.String(); got != "kernelc: built 3 programs\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestWarnfLevel(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	l := &Logger{Out: &buf}
	l.Warnf("target %q conflicts", "glsl:vertex")

	if got := buf.String(); got != "warning: target \"glsl:vertex\" conflicts\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestDebugfCaller(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{Out: &buf}
	l.Debugf("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output without Debug, got %q", buf.String())
	}

	l.Debug = true
	l.Debugf("shown")
	got := buf.String()
	if !strings.HasPrefix(got, "shown [") || !strings.Contains(got, "logging_test.go") {
		t.Errorf("expected caller annotation, got %q", got)
	}
}
