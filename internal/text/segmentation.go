// Package text provides the text-side building blocks of the audiobook
// pipeline: chapter segmentation, transcript similarity scoring, and
// narration-oriented normalization.
package text

import "strings"

// Boundary characters, in descending split priority.
const (
	sentenceTerminator = "."
	clauseSeparator    = ","
)

// DefaultMaxChunkLength bounds chunk size so a single synthesis request stays
// well under the model's token limit.
const DefaultMaxChunkLength = 250

// Segment splits chapter text into an ordered sequence of chunks that stay
// below maxLength characters, preferring sentence boundaries, then clause
// boundaries, then word boundaries. The only chunks allowed to reach or
// exceed the bound are single words that cannot be split further.
// Empty or whitespace-only input yields no chunks.
func Segment(text string, maxLength int) []string {
	if maxLength <= 0 || strings.TrimSpace(text) == "" {
		return nil
	}

	var (
		chunks  []string
		current string
	)

	for _, sentence := range splitSentences(text) {
		// A sentence that cannot fit in a chunk of its own descends to
		// the clause tier. The pending buffer is flushed first so chunk
		// order keeps matching the original text order.
		if len(sentence) >= maxLength {
			if current != "" {
				chunks = append(chunks, current)
				current = ""
			}

			chunks = append(chunks, splitOversizedSentence(sentence, maxLength)...)

			continue
		}

		switch {
		case current == "":
			current = sentence
		case len(current)+len(sentence)+1 < maxLength:
			current += " " + sentence
		default:
			chunks = append(chunks, current)
			current = sentence
		}
	}

	if current != "" {
		chunks = append(chunks, current)
	}

	// Finishing pass: anything still at or over the bound falls back to
	// word packing, so the length invariant holds globally.
	final := make([]string, 0, len(chunks))

	for _, chunk := range chunks {
		if len(chunk) >= maxLength {
			final = append(final, packWords(chunk, maxLength)...)
		} else {
			final = append(final, chunk)
		}
	}

	return final
}

// splitSentences splits text on the sentence terminator, discards blank
// results, and re-appends the terminator to each surviving sentence.
func splitSentences(text string) []string {
	parts := strings.Split(text, sentenceTerminator)
	sentences := make([]string, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		sentences = append(sentences, part+sentenceTerminator)
	}

	return sentences
}

// splitOversizedSentence splits one over-long sentence on the clause
// separator. Clauses are emitted as independent chunks rather than re-packed;
// a clause that is itself too long descends to the word tier.
func splitOversizedSentence(sentence string, maxLength int) []string {
	var out []string

	for _, clause := range splitClauses(sentence) {
		if len(clause) >= maxLength {
			out = append(out, packWords(clause, maxLength)...)
		} else {
			out = append(out, clause)
		}
	}

	return out
}

// splitClauses splits a sentence on the clause separator, re-suffixing the
// separator onto every clause that was actually followed by one.
func splitClauses(sentence string) []string {
	parts := strings.Split(sentence, clauseSeparator)
	clauses := make([]string, 0, len(parts))

	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if i < len(parts)-1 {
			part += clauseSeparator
		}

		clauses = append(clauses, part)
	}

	return clauses
}

// packWords greedily packs whitespace-separated words into chunks below
// maxLength. A single word at or over the bound is emitted unsplit: that is
// the one permitted violation of the length invariant.
func packWords(chunk string, maxLength int) []string {
	var (
		out    []string
		buffer string
	)

	for _, word := range strings.Fields(chunk) {
		switch {
		case buffer == "":
			buffer = word
		case len(buffer)+len(word)+1 < maxLength:
			buffer += " " + word
		default:
			out = append(out, buffer)
			buffer = word
		}
	}

	if buffer != "" {
		out = append(out, buffer)
	}

	return out
}
