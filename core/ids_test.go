package core

import (
	"strings"
	"testing"
)

func TestNewJobID(t *testing.T) {
	id := NewJobID()
	if !strings.HasPrefix(id, JobIDPrefix) {
		t.Errorf("NewJobID() = %q, want prefix %q", id, JobIDPrefix)
	}
	if !IsJobID(id) {
		t.Errorf("IsJobID(%q) = false, want true", id)
	}

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewJobID()
		if seen[id] {
			t.Fatalf("NewJobID() produced duplicate %q", id)
		}
		seen[id] = true
	}
}

func TestIsJobID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"valid", "research_0123456789abcdef0123456789abcdef", true},
		{"missing prefix", "0123456789abcdef0123456789abcdef", false},
		{"short", "research_0123", false},
		{"not hex", "research_zz23456789abcdef0123456789abcdef", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsJobID(tt.id); got != tt.want {
				t.Errorf("IsJobID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "simple text",
			content:  "test content",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "The owner of land may acquire title by adverse possession after twenty years of open use",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %s vs %s", id1, id2)
			}
			if len(id1) != 32 {
				t.Errorf("IDFromContent() length = %d, want 32", len(id1))
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content one")
	id2 := IDFromContent("content two")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content: %s", id1)
	}
}
