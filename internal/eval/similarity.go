// internal/eval/similarity.go
package eval

import "strings"

// substringFloor is the minimum similarity granted when the expected answer
// appears verbatim inside the obtained one. A verbose answer that restates
// the expected fact should never score below this.
const substringFloor = 0.7

// CalculateSimilarity returns a normalized sequence-similarity ratio in
// [0, 1] between the expected and obtained strings, case-folded and
// whitespace-trimmed. If expected is a literal substring of obtained, the
// result is floored at 0.7.
func CalculateSimilarity(expected, obtained string) float64 {
	e := strings.ToLower(strings.TrimSpace(expected))
	o := strings.ToLower(strings.TrimSpace(obtained))

	if e == "" && o == "" {
		return 1
	}
	if e == "" || o == "" {
		return 0
	}

	ratio := matchRatio([]rune(e), []rune(o))
	if strings.Contains(o, e) && ratio < substringFloor {
		return substringFloor
	}
	return ratio
}

// matchRatio is 2*M/T where M is the length of the longest common
// subsequence and T the combined length of both strings.
func matchRatio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}

	// Single-row LCS table; a is the shorter string to bound memory.
	if len(a) > len(b) {
		a, b = b, a
	}
	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)
	for i := 1; i <= len(b); i++ {
		for j := 1; j <= len(a); j++ {
			if b[i-1] == a[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return 2 * float64(prev[len(a)]) / float64(total)
}

// Classify maps a similarity score to a quality tier. The refusal override
// runs first: an apologetic non-answer is "no information found" no matter
// how much surface text it shares with the expected answer.
func Classify(similarity float64, obtained string, refusalPhrases []string) string {
	lowered := strings.ToLower(obtained)
	for _, phrase := range refusalPhrases {
		if phrase == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(phrase)) {
			return TierNoInfo
		}
	}

	switch {
	case similarity >= 0.8:
		return TierCorrect
	case similarity >= 0.5:
		return TierPartial
	case similarity >= 0.2:
		return TierIncorrect
	default:
		return TierTotallyWrong
	}
}
