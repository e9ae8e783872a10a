package pipeline

import (
	"context"
	"testing"
)

// ---------------------------------------------------------------------------
// TestMarkdownPreprocessor - Preprocessing
// ---------------------------------------------------------------------------

func TestMarkdownPreprocessor(t *testing.T) {
	t.Parallel()

	mark := func(s string) string { return MarkStartPlaceholder + s + MarkEndPlaceholder }

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"crlf normalized", "a\r\nb\rc", "a\nb\nc"},
		{"blank lines compressed", "a\n\n\n\n\nb", "a\n\nb"},
		{"highlight converted", "a ==b== c", "a " + mark("b") + " c"},
		{"two highlights", "==a== and ==b==", mark("a") + " and " + mark("b")},
		{"highlight does not span lines", "==a\nb==", "==a\nb=="},
		{
			name:  "fence body untouched",
			input: "==x==\n```mermaid\nA==>B\n\n\n\nC\n```\n==y==",
			want:  mark("x") + "\n```mermaid\nA==>B\n\n\n\nC\n```\n" + mark("y"),
		},
	}

	p := &MarkdownPreprocessor{}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := p.Preprocess(context.Background(), tt.input); got != tt.want {
				t.Errorf("Preprocess() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMarkdownPreprocessor_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := "a\r\n==b=="
	if got := (&MarkdownPreprocessor{}).Preprocess(ctx, in); got != in {
		t.Errorf("Preprocess() = %q, want unchanged", got)
	}
}

func TestConvertMarkPlaceholders(t *testing.T) {
	t.Parallel()

	in := "a " + MarkStartPlaceholder + "b" + MarkEndPlaceholder
	if got := ConvertMarkPlaceholders(in); got != "a <mark>b</mark>" {
		t.Errorf("ConvertMarkPlaceholders() = %q", got)
	}
}
