package recon

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmdatafocus/gst_backend/gstr"
	"github.com/mmdatafocus/gst_backend/utils"
)

// MatchStatus classifies one reconciled row.
type MatchStatus string

const (
	StatusMatched        MatchStatus = "Matched"
	StatusMismatch       MatchStatus = "Mismatch"
	StatusMissingInBooks MatchStatus = "Missing in Books"
	StatusMissingInGov   MatchStatus = "Missing in GSTR-1"
)

// Upload-status annotations written onto book rows by the reconciler.
const (
	UploadStatusNotUploaded    = "Not Uploaded"
	UploadStatusUploaded       = "Uploaded"
	UploadStatusMismatch       = "Mismatch"
	UploadStatusMissingInBooks = "Missing in Books"
)

// ReconRow is one reconciled difference. Matched rows are never
// emitted, so every persisted row carries a discrepancy.
type ReconRow struct {
	MatchStatus MatchStatus `json:"match_status"`
	Differences []string    `json:"differences"`
	Deltas      gstr.Row    `json:"deltas,omitempty"`
	Books       gstr.Row    `json:"books"`
	Gov         gstr.Row    `json:"gov"`
}

// Settings controls the differ's tolerances and field treatment. The
// zero value is not usable; construct via DefaultSettings.
type Settings struct {
	// Precision for delta rounding. A books/gov pair equal after
	// rounding is Matched even when the raw values differ.
	Precision int32

	// MissingInGovStatus names the gov-absent status, which differs
	// between GSTR-1 ("Missing in GSTR-1") and 2A/2B reconciliation.
	MissingInGovStatus MatchStatus
}

func DefaultSettings() Settings {
	return Settings{
		Precision:          2,
		MissingInGovStatus: StatusMissingInGov,
	}
}

// categoricalFields compare by direct string equality.
var categoricalFields = []string{
	gstr.FieldCustomerGstin,
	gstr.FieldPlaceOfSupply,
}

// unrequiredFields never participate in comparison and are nulled in
// synthesized templates. They identify the document rather than its
// amounts and differ legitimately across shapes.
var unrequiredFields = map[string]bool{
	gstr.FieldDocumentNumber: true,
	gstr.FieldDocumentDate:   true,
	gstr.FieldCustomerName:   true,
	gstr.FieldReverseCharge:  true,
}

// Diff compares one books row against one gov row and returns the
// reconciled difference, or nil when the rows match. Either side may be
// nil, yielding the corresponding missing status against a zeroed
// template of the present side.
func Diff(settings Settings, books, gov gstr.Row) *ReconRow {
	switch {
	case gov == nil && books == nil:
		return nil
	case gov == nil:
		return &ReconRow{
			MatchStatus: settings.MissingInGovStatus,
			Books:       books,
			Gov:         gstr.Row{},
		}
	case books == nil:
		return &ReconRow{
			MatchStatus: StatusMissingInBooks,
			Books:       gstr.Row{},
			Gov:         gov,
		}
	}

	deltas := make(gstr.Row)
	var differences []string

	for _, field := range comparableNumericFields(books, gov) {
		delta := books.Decimal(field).Sub(gov.Decimal(field)).Round(settings.Precision)
		if delta.IsZero() {
			continue
		}
		deltas[field] = delta
		differences = append(differences, utils.TitleCaseField(field))
	}
	for _, field := range categoricalFields {
		b, g := books.String(field), gov.String(field)
		if b == "" && g == "" {
			continue
		}
		if b != g {
			differences = append(differences, utils.TitleCaseField(field))
		}
	}

	if len(differences) == 0 {
		return nil
	}
	sort.Strings(differences)
	return &ReconRow{
		MatchStatus: StatusMismatch,
		Differences: differences,
		Deltas:      deltas,
		Books:       books,
		Gov:         gov,
	}
}

// DiffRows handles the multi-line shape: several partial book rows
// against one gov-reported total. Books are aggregated first; the first
// gov row is the representative shape.
func DiffRows(settings Settings, books, gov []gstr.Row) *ReconRow {
	var booksRow, govRow gstr.Row
	if len(books) > 0 {
		booksRow = Aggregate(books, nil)
	}
	if len(gov) > 0 {
		govRow = gov[0]
	}
	return Diff(settings, booksRow, govRow)
}

// ZeroTemplate builds an empty placeholder from a present row: numeric
// fields zeroed, unrequired fields dropped, items removed. Used for the
// synthetic Missing-in-Books book rows.
func ZeroTemplate(row gstr.Row) gstr.Row {
	out := make(gstr.Row, len(row))
	for field, v := range row {
		if unrequiredFields[field] || field == gstr.FieldItems {
			continue
		}
		if _, ok := v.(decimal.Decimal); ok {
			out[field] = decimal.Zero
			continue
		}
		out[field] = v
	}
	return out
}

// comparableNumericFields is the union of both rows' decimal-valued
// fields minus the non-additive and unrequired sets, sorted for
// deterministic difference ordering.
func comparableNumericFields(books, gov gstr.Row) []string {
	seen := make(map[string]bool)
	for _, row := range []gstr.Row{books, gov} {
		for field, v := range row {
			if _, ok := v.(decimal.Decimal); !ok {
				continue
			}
			if nonAdditiveFields[field] || unrequiredFields[field] {
				continue
			}
			seen[field] = true
		}
	}
	fields := make([]string, 0, len(seen))
	for field := range seen {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}
