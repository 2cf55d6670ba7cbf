package matcher

import (
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Ratio is the whole-string similarity in percent: 100 means equal,
// 0 means nothing in common.
func Ratio(a, b string) int {
	if a == "" && b == "" {
		return 100
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 100
	}
	distance := levenshtein.DistanceForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
	return (maxLen - distance) * 100 / maxLen
}

// PartialRatio is the best Ratio of the shorter string against every
// equal-length window of the longer one. A short core fully contained
// in a longer bill number scores 100.
func PartialRatio(a, b string) int {
	shorter, longer := []rune(a), []rune(b)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		if len(longer) == 0 {
			return 100
		}
		return 0
	}

	best := 0
	for i := 0; i+len(shorter) <= len(longer); i++ {
		window := longer[i : i+len(shorter)]
		score := Ratio(string(shorter), string(window))
		if score > best {
			best = score
		}
		if best == 100 {
			break
		}
	}
	return best
}
