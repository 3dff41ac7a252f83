package ui

import (
	"strings"
	"testing"

	"github.com/tdlgui/tdl-gui/internal/model"
)

func TestParseSources(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "one per line",
			input: "https://t.me/a/1\nhttps://t.me/b/2",
			want:  []string{"https://t.me/a/1", "https://t.me/b/2"},
		},
		{
			name:  "blank lines and whitespace skipped",
			input: "  https://t.me/a/1  \n\n\t\nhttps://t.me/b/2\n",
			want:  []string{"https://t.me/a/1", "https://t.me/b/2"},
		},
		{
			name:  "duplicates collapsed",
			input: "https://t.me/a/1\nhttps://t.me/a/1",
			want:  []string{"https://t.me/a/1"},
		},
		{
			name:  "empty input",
			input: "   \n  ",
			want:  nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := parseSources(tc.input)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("source %d: expected %s, got %s", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestFormatAggregate(t *testing.T) {
	known := model.AggregateSnapshot{
		BytesDone:  512 * 1024,
		BytesTotal: 1024 * 1024,
		TotalKnown: true,
		Speed:      256 * 1024,
		ETASec:     2,
		Percent:    50,
		Sources:    1,
	}
	text := formatAggregate(known)
	for _, fragment := range []string{"512.00 KB", "1.00 MB", "/s", "ETA"} {
		if !strings.Contains(text, fragment) {
			t.Errorf("expected %q in %q", fragment, text)
		}
	}

	unknown := model.AggregateSnapshot{
		BytesDone:  2048,
		BytesTotal: model.UnknownTotal,
		TotalKnown: false,
		Sources:    1,
	}
	text = formatAggregate(unknown)
	if strings.Contains(text, "ETA") || strings.Contains(text, "/") {
		t.Errorf("unknown totals must not show a total or ETA, got %q", text)
	}
}
