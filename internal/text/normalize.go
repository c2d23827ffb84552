package text

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Number-to-words conversion bounds.
const (
	numberBaseTen      = 10
	numberBaseTwenty   = 20
	numberBaseHundred  = 100
	numberBaseThousand = 1000
	maxNumberForWords  = 999999
)

const (
	integerRegexPattern    = `\d+`
	whitespaceRegexPattern = `\s+`
)

// Normalizer prepares raw chapter text for narration: abbreviations are
// spelled out, integers become words, typography is flattened to plain ASCII
// punctuation, and whitespace is collapsed. Normalized text reads the same
// whether it comes out of the synthesizer or back from the transcriber, which
// keeps verification scores honest.
type Normalizer struct {
	integerPattern       *regexp.Regexp
	whitespacePattern    *regexp.Regexp
	abbreviationReplacer *strings.Replacer
	typographyReplacer   *strings.Replacer
}

// NewNormalizer creates a Normalizer with its patterns and replacers
// compiled up front.
func NewNormalizer() *Normalizer {
	abbreviations := []string{
		"Mr.", "Mister",
		"Mrs.", "Misses",
		"Ms.", "Miss",
		"Dr.", "Doctor",
		"St.", "Saint",
		"Co.", "Company",
		"Ltd.", "Limited",
		"Corp.", "Corporation",
		"Inc.", "Incorporated",
	}

	typography := []string{
		"—", "-",
		"–", "-",
		"‒", "-",
		"…", "...",
		"“", `"`,
		"”", `"`,
		"‘", "'",
		"’", "'",
	}

	return &Normalizer{
		integerPattern:       regexp.MustCompile(integerRegexPattern),
		whitespacePattern:    regexp.MustCompile(whitespaceRegexPattern),
		abbreviationReplacer: strings.NewReplacer(abbreviations...),
		typographyReplacer:   strings.NewReplacer(typography...),
	}
}

// Normalize runs the full narration cleanup over one chapter's text.
func (n *Normalizer) Normalize(text string) string {
	if text == "" {
		return text
	}

	normalized := n.abbreviationReplacer.Replace(text)
	normalized = n.expandIntegers(normalized)
	normalized = n.typographyReplacer.Replace(normalized)
	normalized = strings.TrimSpace(n.whitespacePattern.ReplaceAllString(normalized, " "))

	return ensureSentenceEnding(normalized)
}

// expandIntegers replaces every integer in the text with its English words,
// leaving numbers beyond the conversion bound as digits.
func (n *Normalizer) expandIntegers(text string) string {
	return n.integerPattern.ReplaceAllStringFunc(text, func(match string) string {
		value, err := strconv.Atoi(match)
		if err != nil {
			return match
		}

		return integerToWords(value)
	})
}

// ensureSentenceEnding appends a terminator when the text does not already
// end with sentence punctuation, so the segmenter always finds a boundary.
func ensureSentenceEnding(text string) string {
	if text == "" {
		return text
	}

	lastRune, _ := utf8.DecodeLastRuneInString(text)

	switch lastRune {
	case '.', '!', '?':
		return text
	}

	if unicode.IsPunct(lastRune) {
		return text
	}

	return text + "."
}

// wordsTable holds the fixed lookup tables for number spelling.
type wordsTable struct {
	ones  []string
	teens []string
	tens  []string
}

func newWordsTable() *wordsTable {
	return &wordsTable{
		ones: []string{
			"", "one", "two", "three", "four", "five",
			"six", "seven", "eight", "nine",
		},
		teens: []string{
			"ten", "eleven", "twelve", "thirteen", "fourteen",
			"fifteen", "sixteen", "seventeen", "eighteen", "nineteen",
		},
		tens: []string{
			"", "", "twenty", "thirty", "forty", "fifty",
			"sixty", "seventy", "eighty", "ninety",
		},
	}
}

func (w *wordsTable) underHundred(value int) string {
	switch {
	case value < numberBaseTen:
		return w.ones[value]
	case value < numberBaseTwenty:
		return w.teens[value-numberBaseTen]
	default:
		result := w.tens[value/numberBaseTen]
		if value%numberBaseTen > 0 {
			result += " " + w.ones[value%numberBaseTen]
		}

		return result
	}
}

func (w *wordsTable) underThousand(value int) string {
	var parts []string

	if value >= numberBaseHundred {
		parts = append(parts, w.ones[value/numberBaseHundred]+" hundred")
		value %= numberBaseHundred
	}

	if value > 0 {
		parts = append(parts, w.underHundred(value))
	}

	return strings.Join(parts, " ")
}

// integerToWords converts a non-negative integer up to 999999 into its
// English word representation; anything else is returned as digits.
func integerToWords(value int) string {
	if value < 0 || value > maxNumberForWords {
		return strconv.Itoa(value)
	}

	if value == 0 {
		return "zero"
	}

	table := newWordsTable()

	var parts []string

	if value >= numberBaseThousand {
		parts = append(parts, table.underThousand(value/numberBaseThousand)+" thousand")
		value %= numberBaseThousand
	}

	if value > 0 {
		parts = append(parts, table.underThousand(value))
	}

	return strings.Join(parts, " ")
}
