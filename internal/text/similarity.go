package text

import "strings"

// Similarity scores how closely a transcript matches the text it was
// synthesized from. Both strings are normalized (lower-cased, whitespace runs
// collapsed, trimmed) and compared at the character level with a
// longest-matching-blocks ratio: 2*M/T, where M is the total matched length
// across all matching blocks and T is the combined normalized length.
// The result is always in [0, 1]; identical normalized inputs score 1.0.
func Similarity(first, second string) float64 {
	runesA := []rune(normalizeForComparison(first))
	runesB := []rune(normalizeForComparison(second))

	total := len(runesA) + len(runesB)
	if total == 0 {
		return 1.0
	}

	matched := totalMatchedLength(runesA, runesB)

	return 2.0 * float64(matched) / float64(total)
}

// normalizeForComparison lower-cases the text and collapses every whitespace
// run to a single space, so the score reflects wording rather than casing or
// layout.
func normalizeForComparison(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// matchRegion is one unresolved sub-range pair during block matching.
type matchRegion struct {
	aLow, aHigh int
	bLow, bHigh int
}

// totalMatchedLength sums the lengths of all matching blocks between the two
// rune slices: it finds the longest common run, then recurses into the
// regions on either side of it, iteratively via an explicit stack.
func totalMatchedLength(runesA, runesB []rune) int {
	total := 0
	stack := []matchRegion{{0, len(runesA), 0, len(runesB)}}

	for len(stack) > 0 {
		region := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		i, j, size := longestMatch(runesA, runesB, region)
		if size == 0 {
			continue
		}

		total += size

		stack = append(stack,
			matchRegion{region.aLow, i, region.bLow, j},
			matchRegion{i + size, region.aHigh, j + size, region.bHigh},
		)
	}

	return total
}

// longestMatch finds the longest run of runes common to both slices within
// the given region, preferring the earliest match on ties.
func longestMatch(runesA, runesB []rune, region matchRegion) (bestI, bestJ, bestSize int) {
	positions := make(map[rune][]int)
	for j := region.bLow; j < region.bHigh; j++ {
		positions[runesB[j]] = append(positions[runesB[j]], j)
	}

	bestI, bestJ = region.aLow, region.bLow
	runLengths := make(map[int]int)

	for i := region.aLow; i < region.aHigh; i++ {
		nextRunLengths := make(map[int]int)

		for _, j := range positions[runesA[i]] {
			length := runLengths[j-1] + 1
			nextRunLengths[j] = length

			if length > bestSize {
				bestI = i - length + 1
				bestJ = j - length + 1
				bestSize = length
			}
		}

		runLengths = nextRunLengths
	}

	return bestI, bestJ, bestSize
}
