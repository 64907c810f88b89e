package postprocess_test

import (
	"testing"

	"github.com/valpere/transflow/internal/postprocess"
)

func TestClean_ThinkingBlock(t *testing.T) {
	in := "<thinking>let me work this out</thinking>[{\"id\":\"1\"}]"
	got := postprocess.Clean(in)
	if got != `[{"id":"1"}]` {
		t.Errorf("expected thinking block removed, got %q", got)
	}
}

func TestClean_TruncatedThinkingBlock(t *testing.T) {
	in := "[{\"id\":\"1\"}]\n<think>unterminated reasoning"
	got := postprocess.Clean(in)
	if got != `[{"id":"1"}]` {
		t.Errorf("expected truncated block removed, got %q", got)
	}
}

func TestClean_InstructionEcho(t *testing.T) {
	in := `Here is the JSON: [{"id":"1"}]`
	got := postprocess.Clean(in)
	if got != `[{"id":"1"}]` {
		t.Errorf("expected echo removed, got %q", got)
	}
}

func TestClean_EchoVariants(t *testing.T) {
	cases := []string{
		`Sure, here's the translations: []`,
		`The output: []`,
		`here is the array: []`,
	}
	for _, in := range cases {
		if got := postprocess.Clean(in); got != "[]" {
			t.Errorf("Clean(%q) = %q, want %q", in, got, "[]")
		}
	}
}

func TestClean_LeavesPayloadAlone(t *testing.T) {
	in := `[{"id":"1","translations":{"ms":{"text":"here is the thing: ok"}}}]`
	if got := postprocess.Clean(in); got != in {
		t.Errorf("payload mutated: %q", got)
	}
}

func TestClean_TrimsWhitespace(t *testing.T) {
	if got := postprocess.Clean("  \n[]\n  "); got != "[]" {
		t.Errorf("expected trimmed output, got %q", got)
	}
}
