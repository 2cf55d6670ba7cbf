package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// MatcherSettings holds the empirically tuned thresholds of the
// purchase <-> inward-supply matcher. The defaults are the production
// values; override via env only when re-tuning against live data.
//
// Env overrides:
// - GST_MATCH_DATE_WINDOW_DAYS (default 10)
// - GST_MATCH_ROUNDING_TOLERANCE (default 1)
// - GST_MATCH_RESIDUAL_MONTHLY_TOLERANCE (default 2)
type MatcherSettings struct {
	FuzzyDateWindowDays      int
	RoundingTolerance        decimal.Decimal
	ResidualMonthlyTolerance decimal.Decimal
}

func GetMatcherSettings() MatcherSettings {
	return MatcherSettings{
		FuzzyDateWindowDays:      intFromEnv("GST_MATCH_DATE_WINDOW_DAYS", 10),
		RoundingTolerance:        decimalFromEnv("GST_MATCH_ROUNDING_TOLERANCE", decimal.NewFromInt(1)),
		ResidualMonthlyTolerance: decimalFromEnv("GST_MATCH_RESIDUAL_MONTHLY_TOLERANCE", decimal.NewFromInt(2)),
	}
}

func decimalFromEnv(key string, def decimal.Decimal) decimal.Decimal {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return def
	}
	return d
}

// GSTAutoRefresh2A enables the nightly 2A/2B re-download worker.
//
// Set via env:
// - GST_AUTO_REFRESH_2A=true
func GSTAutoRefresh2A() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("GST_AUTO_REFRESH_2A")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// GSTB2CLThreshold is the document value above which an interstate
// unregistered invoice is reported invoice-wise (B2CL) instead of
// aggregated (B2CS). The statutory limit is 2.5 lakh.
//
// Env override: GST_B2CL_THRESHOLD
func GSTB2CLThreshold() decimal.Decimal {
	return decimalFromEnv("GST_B2CL_THRESHOLD", decimal.NewFromInt(250000))
}

// GSTRoundingPrecision is the decimal precision applied to every
// document-level total recomputed from item sums. Government returns
// carry two decimals; do not change this casually.
func GSTRoundingPrecision() int32 {
	v := strings.TrimSpace(os.Getenv("GST_ROUNDING_PRECISION"))
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n > 4 {
		return 2
	}
	return int32(n)
}
