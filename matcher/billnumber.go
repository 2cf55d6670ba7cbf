package matcher

import (
	"regexp"
	"strings"
)

// Financial-year substrings embedded in bill numbers, most specific
// first so "2023-2024" is not half-consumed by the short form.
var fyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`20\d{2}[-/]20\d{2}`),
	regexp.MustCompile(`20\d{2}[-/]\d{2}`),
	regexp.MustCompile(`\d{2}[-/]\d{2}`),
}

var (
	digitRun = regexp.MustCompile(`\d+`)
	nonAlnum = regexp.MustCompile(`[^A-Z0-9]`)
)

// CleanBillNumber normalizes a bill number for comparison: upper-case,
// financial-year substrings removed, leading zeros stripped from every
// digit run, separators dropped. "2023-24/00042" and "INV-42" both
// reduce to a comparable core.
func CleanBillNumber(billNumber string) string {
	out := strings.ToUpper(strings.TrimSpace(billNumber))
	for _, p := range fyPatterns {
		out = p.ReplaceAllString(out, "")
	}
	out = digitRun.ReplaceAllStringFunc(out, func(run string) string {
		trimmed := strings.TrimLeft(run, "0")
		if trimmed == "" {
			return "0"
		}
		return trimmed
	})
	return nonAlnum.ReplaceAllString(out, "")
}
