package textprep_test

import (
	"testing"

	"github.com/book-expert/speechkit/internal/textprep"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	normalizer := textprep.New()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain sentence", input: "Hello there, friend.", want: "Hello there, friend."},
		{
			name:  "reference markers",
			input: "Water boils at 100 degrees [3]. It freezes at zero¹².",
			want:  "Water boils at 100 degrees. It freezes at zero.",
		},
		{
			name:  "reference ranges",
			input: "Results vary [2, 5-7] by region.",
			want:  "Results vary by region.",
		},
		{
			name:  "parenthetical citation",
			input: "Sleep matters (Walker et al., 2017) for memory.",
			want:  "Sleep matters for memory.",
		},
		{
			name:  "lowercase parenthetical kept",
			input: "He was born (circa 1950) in Ohio",
			want:  "He was born (circa 1950) in Ohio.",
		},
		{
			name:  "typography",
			input: "“Wait…” she said—quietly",
			want:  `"Wait..." she said—quietly.`,
		},
		{name: "range dash", input: "Pages 10–12 cover it.", want: "Pages 10-12 cover it."},
		{name: "repeated marks", input: "Really?!?  Yes!!!", want: "Really? Yes!"},
		{name: "whitespace", input: "Line one\n\tline two\r\n", want: "Line one line two."},
		{
			name:  "url preserved",
			input: "See https://example.com/a[1]_b for details",
			want:  "See https://example.com/a[1]_b for details.",
		},
		{name: "email preserved", input: "Write to team.lead@example.org!!", want: "Write to team.lead@example.org!"},
		{name: "blank", input: "  \n ", want: ""},
		{name: "only references", input: "[1] [2]", want: ""},
		{name: "only punctuation", input: "...", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, normalizer.Normalize(tt.input))
		})
	}
}
