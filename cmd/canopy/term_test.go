package main

import (
	"bytes"
	"testing"
)

func TestTermStylePlainOutput(t *testing.T) {
	var buf bytes.Buffer
	style := newTermStyle(&buf)
	if style.useColors {
		t.Fatal("colors enabled for a buffer")
	}

	style.Success("created feat")
	style.Warn("careful")
	style.Error("broken")
	style.KeyValue("path", "/tmp/x")

	want := "✓ created feat\n⚠ careful\n✗ broken\n  path:           /tmp/x\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestHighlight(t *testing.T) {
	plain := &termStyle{useColors: false}
	if got := plain.Highlight("feature", []int{0, 1}); got != "feature" {
		t.Errorf("Highlight without colors = %q, want %q", got, "feature")
	}

	colored := &termStyle{useColors: true}
	if got := colored.Highlight("feature", nil); got != "feature" {
		t.Errorf("Highlight with no indices = %q, want %q", got, "feature")
	}
}
