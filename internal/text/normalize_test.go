package text_test

import (
	"testing"

	"github.com/book-expert/audiobook-service/internal/text"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	normalizer := text.NewNormalizer()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "abbreviation expansion",
			input:    "Dr. Smith met Mr. Jones",
			expected: "Doctor Smith met Mister Jones.",
		},
		{
			name:     "small integer to words",
			input:    "Chapter 5",
			expected: "Chapter five.",
		},
		{
			name:     "hundreds to words",
			input:    "It cost 100 dollars",
			expected: "It cost one hundred dollars.",
		},
		{
			name:     "thousands to words",
			input:    "In 1234 things happened",
			expected: "In one thousand two hundred thirty four things happened.",
		},
		{
			name:     "typography flattened",
			input:    "wait—no…",
			expected: "wait-no...",
		},
		{
			name:     "whitespace collapsed",
			input:    "first\n\nsecond\tthird",
			expected: "first second third.",
		},
		{
			name:     "existing terminator kept",
			input:    "Already done.",
			expected: "Already done.",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got := normalizer.Normalize(testCase.input)
			if got != testCase.expected {
				t.Errorf("expected %q, got %q", testCase.expected, got)
			}
		})
	}
}

func TestNormalize_SmartQuotes(t *testing.T) {
	t.Parallel()

	normalizer := text.NewNormalizer()

	got := normalizer.Normalize("she said “hello”")
	expected := `she said "hello"`

	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}
