package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "  Report body  ", "Report body"},
		{"fenced with tag", "```markdown\n# Title\n\nBody\n```", "# Title\n\nBody"},
		{"fenced without tag", "```\n<p>x</p>\n```", "<p>x</p>"},
		{"inner fence untouched", "Intro\n```go\ncode\n```\nOutro", "Intro\n```go\ncode\n```\nOutro"},
		{"fence only", "``````", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripCodeFence(tt.input))
		})
	}
}
