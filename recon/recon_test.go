package recon

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmdatafocus/gst_backend/gstr"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAggregate_SumsNumericKeepsFirstRowFields(t *testing.T) {
	rows := []gstr.Row{
		{
			gstr.FieldCustomerGstin:     "29AABCT1332L1ZT",
			gstr.FieldTaxRate:           dec("18"),
			gstr.FieldDocumentValue:     dec("1000"),
			gstr.FieldTotalTaxableValue: dec("100.10"),
			gstr.FieldTotalIgstAmount:   dec("18.018"),
		},
		{
			gstr.FieldCustomerGstin:     "IGNORED",
			gstr.FieldTaxRate:           dec("28"),
			gstr.FieldDocumentValue:     dec("2000"),
			gstr.FieldTotalTaxableValue: dec("200.20"),
			gstr.FieldTotalIgstAmount:   dec("36.036"),
		},
	}

	out := Aggregate(rows, nil)

	if got := out.String(gstr.FieldCustomerGstin); got != "29AABCT1332L1ZT" {
		t.Fatalf("customer_gstin = %q, want first row's value", got)
	}
	if got := out.Decimal(gstr.FieldTaxRate); !got.Equal(dec("18")) {
		t.Fatalf("tax_rate summed: %s", got)
	}
	if got := out.Decimal(gstr.FieldDocumentValue); !got.Equal(dec("1000")) {
		t.Fatalf("document_value summed: %s", got)
	}
	if got := out.Decimal(gstr.FieldTotalTaxableValue); !got.Equal(dec("300.3")) {
		t.Fatalf("total_taxable_value = %s, want 300.3", got)
	}
	if got := out.Decimal(gstr.FieldTotalIgstAmount); !got.Equal(dec("54.05")) {
		t.Fatalf("total_igst_amount = %s, want 54.05 (rounded)", got)
	}
	// input rows untouched
	if got := rows[0].Decimal(gstr.FieldTotalTaxableValue); !got.Equal(dec("100.10")) {
		t.Fatalf("input row mutated: %s", got)
	}
}

func TestDiff_SelfComparisonIsNil(t *testing.T) {
	row := gstr.Row{
		gstr.FieldCustomerGstin:     "29AABCT1332L1ZT",
		gstr.FieldPlaceOfSupply:     "29-Karnataka",
		gstr.FieldTotalTaxableValue: dec("25000"),
		gstr.FieldTotalIgstAmount:   dec("4500"),
	}
	if d := Diff(DefaultSettings(), row, row.Clone()); d != nil {
		t.Fatalf("diff(x, x) = %+v, want nil", d)
	}
}

func TestDiff_RoundingAbsorbsFloatNoise(t *testing.T) {
	books := gstr.Row{gstr.FieldTotalTaxableValue: dec("100.004")}
	gov := gstr.Row{gstr.FieldTotalTaxableValue: dec("100.001")}
	if d := Diff(DefaultSettings(), books, gov); d != nil {
		t.Fatalf("sub-precision delta produced a mismatch: %+v", d)
	}
}

func TestDiff_B2CSMismatchDeltas(t *testing.T) {
	books := gstr.Row{
		gstr.FieldPlaceOfSupply:     "29-Karnataka",
		gstr.FieldTaxRate:           dec("18"),
		gstr.FieldTotalTaxableValue: dec("-100000"),
		gstr.FieldTotalIgstAmount:   dec("-18000"),
	}
	gov := gstr.Row{
		gstr.FieldPlaceOfSupply:     "29-Karnataka",
		gstr.FieldTaxRate:           dec("18"),
		gstr.FieldTotalTaxableValue: dec("-40000"),
		gstr.FieldTotalIgstAmount:   dec("-7200"),
	}

	d := Diff(DefaultSettings(), books, gov)
	if d == nil {
		t.Fatal("expected mismatch")
	}
	if d.MatchStatus != StatusMismatch {
		t.Fatalf("match_status = %s", d.MatchStatus)
	}
	want := []string{"Total Igst Amount", "Total Taxable Value"}
	if !reflect.DeepEqual(d.Differences, want) {
		t.Fatalf("differences = %v, want %v", d.Differences, want)
	}
	if got := d.Deltas.Decimal(gstr.FieldTotalTaxableValue); !got.Equal(dec("-60000")) {
		t.Fatalf("taxable delta = %s, want -60000", got)
	}
	if got := d.Deltas.Decimal(gstr.FieldTotalIgstAmount); !got.Equal(dec("-10800")) {
		t.Fatalf("igst delta = %s, want -10800", got)
	}
}

func TestDiffRows_AggregatesBooksAgainstGovTotal(t *testing.T) {
	partials := []gstr.Row{
		{
			gstr.FieldCustomerGstin:     "29AABCT1332L1ZT",
			gstr.FieldTotalTaxableValue: dec("600"),
			gstr.FieldTotalIgstAmount:   dec("108"),
		},
		{
			gstr.FieldCustomerGstin:     "29AABCT1332L1ZT",
			gstr.FieldTotalTaxableValue: dec("400"),
			gstr.FieldTotalIgstAmount:   dec("72"),
		},
	}
	govTotal := gstr.Row{
		gstr.FieldCustomerGstin:     "29AABCT1332L1ZT",
		gstr.FieldTotalTaxableValue: dec("1000"),
		gstr.FieldTotalIgstAmount:   dec("180"),
	}

	tests := []struct {
		name       string
		books, gov []gstr.Row
		wantStatus MatchStatus
		wantNil    bool
		wantDelta  string
	}{
		{
			name:    "partials sum to the reported total",
			books:   partials,
			gov:     []gstr.Row{govTotal},
			wantNil: true,
		},
		{
			name:  "partials fall short of the reported total",
			books:      partials[:1],
			gov:        []gstr.Row{govTotal},
			wantStatus: StatusMismatch,
			wantDelta:  "-400",
		},
		{
			name:       "no book rows",
			books:      nil,
			gov:        []gstr.Row{govTotal},
			wantStatus: StatusMissingInBooks,
		},
		{
			name:       "no gov rows",
			books:      partials,
			gov:        nil,
			wantStatus: StatusMissingInGov,
		},
		{
			name:    "both sides empty",
			books:   nil,
			gov:     nil,
			wantNil: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := DiffRows(DefaultSettings(), tc.books, tc.gov)
			if tc.wantNil {
				if d != nil {
					t.Fatalf("expected no difference, got %+v", d)
				}
				return
			}
			if d == nil {
				t.Fatal("expected a reconcile row")
			}
			if d.MatchStatus != tc.wantStatus {
				t.Fatalf("match_status = %s, want %s", d.MatchStatus, tc.wantStatus)
			}
			if tc.wantDelta != "" {
				if got := d.Deltas.Decimal(gstr.FieldTotalTaxableValue); !got.Equal(dec(tc.wantDelta)) {
					t.Fatalf("taxable delta = %s, want %s", got, tc.wantDelta)
				}
			}
		})
	}
}

func TestDiff_CategoricalMismatch(t *testing.T) {
	books := gstr.Row{
		gstr.FieldCustomerGstin:     "29AABCT1332L1ZT",
		gstr.FieldTotalTaxableValue: dec("100"),
	}
	gov := gstr.Row{
		gstr.FieldCustomerGstin:     "27AAACI1681G1Z0",
		gstr.FieldTotalTaxableValue: dec("100"),
	}
	d := Diff(DefaultSettings(), books, gov)
	if d == nil {
		t.Fatal("expected categorical mismatch")
	}
	if !reflect.DeepEqual(d.Differences, []string{"Customer Gstin"}) {
		t.Fatalf("differences = %v", d.Differences)
	}
}

func TestDiff_UnrequiredFieldsSuppressed(t *testing.T) {
	books := gstr.Row{
		gstr.FieldDocumentNumber:    "INV-1",
		gstr.FieldDocumentDate:      "2020-01-05",
		gstr.FieldCustomerName:      "Acme",
		gstr.FieldReverseCharge:     "N",
		gstr.FieldTotalTaxableValue: dec("100"),
	}
	gov := gstr.Row{
		gstr.FieldDocumentNumber:    "INV-001",
		gstr.FieldDocumentDate:      "2020-01-06",
		gstr.FieldCustomerName:      "ACME PVT LTD",
		gstr.FieldReverseCharge:     "Y",
		gstr.FieldTotalTaxableValue: dec("100"),
	}
	if d := Diff(DefaultSettings(), books, gov); d != nil {
		t.Fatalf("identifying fields triggered a mismatch: %+v", d)
	}
}

func TestReconcile_MissingInBooksSynthesizesPlaceholder(t *testing.T) {
	gov := gstr.ReturnData{
		gstr.SubcategoryCDNUR: {
			"CN-77": gstr.Row{
				gstr.FieldDocumentNumber:    "CN-77",
				gstr.FieldDocumentDate:      "2020-03-15",
				gstr.FieldDocumentType:      "Credit Note",
				gstr.FieldPlaceOfSupply:     "29-Karnataka",
				gstr.FieldTotalTaxableValue: dec("-1000"),
				gstr.FieldTotalIgstAmount:   dec("-180"),
			},
		},
	}
	books := gstr.ReturnData{}

	out := NewReconciler(DefaultSettings()).Reconcile(gov, books)

	row := out[gstr.SubcategoryCDNUR]["CN-77"]
	if row == nil {
		t.Fatal("no reconcile row for gov-only key")
	}
	if row.MatchStatus != StatusMissingInBooks {
		t.Fatalf("match_status = %s", row.MatchStatus)
	}
	if len(row.Books) != 0 {
		t.Fatalf("books side should be empty, got %v", row.Books)
	}
	if got := row.Gov.Decimal(gstr.FieldTotalIgstAmount); !got.Equal(dec("-180")) {
		t.Fatalf("gov row not embedded: %s", got)
	}

	placeholder := books.Get(gstr.SubcategoryCDNUR)["CN-77"]
	if placeholder == nil {
		t.Fatal("no synthetic placeholder in books")
	}
	if got := placeholder.String(gstr.FieldUploadStatus); got != UploadStatusMissingInBooks {
		t.Fatalf("placeholder upload_status = %q", got)
	}
	if got := placeholder.Decimal(gstr.FieldTotalTaxableValue); !got.IsZero() {
		t.Fatalf("placeholder amounts not zeroed: %s", got)
	}
	if _, has := placeholder[gstr.FieldDocumentNumber]; has {
		t.Fatal("placeholder kept an unrequired identifying field")
	}
}

func TestReconcile_UploadStatusAnnotation(t *testing.T) {
	matched := gstr.Row{
		gstr.FieldPlaceOfSupply:     "29-Karnataka",
		gstr.FieldTotalTaxableValue: dec("100"),
	}
	mismatched := gstr.Row{
		gstr.FieldPlaceOfSupply:     "27-Maharashtra",
		gstr.FieldTotalTaxableValue: dec("999"),
	}
	booksOnly := gstr.Row{
		gstr.FieldPlaceOfSupply:     "32-Kerala",
		gstr.FieldTotalTaxableValue: dec("50"),
	}
	books := gstr.ReturnData{
		gstr.SubcategoryB2CS: {
			"k1": matched,
			"k2": mismatched,
			"k3": booksOnly,
		},
	}
	gov := gstr.ReturnData{
		gstr.SubcategoryB2CS: {
			"k1": matched.Clone(),
			"k2": gstr.Row{
				gstr.FieldPlaceOfSupply:     "27-Maharashtra",
				gstr.FieldTotalTaxableValue: dec("900"),
			},
		},
	}

	out := NewReconciler(DefaultSettings()).Reconcile(gov, books)

	if got := matched.String(gstr.FieldUploadStatus); got != UploadStatusUploaded {
		t.Fatalf("matched upload_status = %q", got)
	}
	if got := mismatched.String(gstr.FieldUploadStatus); got != UploadStatusMismatch {
		t.Fatalf("mismatched upload_status = %q", got)
	}
	if got := booksOnly.String(gstr.FieldUploadStatus); got != UploadStatusNotUploaded {
		t.Fatalf("books-only upload_status = %q", got)
	}

	reconciled := out[gstr.SubcategoryB2CS]
	if _, has := reconciled["k1"]; has {
		t.Fatal("matched key emitted a reconcile row")
	}
	if reconciled["k2"] == nil || reconciled["k2"].MatchStatus != StatusMismatch {
		t.Fatalf("k2 = %+v", reconciled["k2"])
	}
	if reconciled["k3"] == nil || reconciled["k3"].MatchStatus != StatusMissingInGov {
		t.Fatalf("k3 = %+v", reconciled["k3"])
	}
}

func TestReconcile_FiledPeriodNeverMutatesBooks(t *testing.T) {
	row := gstr.Row{
		gstr.FieldPlaceOfSupply:     "29-Karnataka",
		gstr.FieldTotalTaxableValue: dec("100"),
	}
	books := gstr.ReturnData{gstr.SubcategoryB2CS: {"k1": row}}
	gov := gstr.ReturnData{
		gstr.SubcategoryB2CS: {
			"k2": gstr.Row{
				gstr.FieldPlaceOfSupply:     "27-Maharashtra",
				gstr.FieldTotalTaxableValue: dec("200"),
			},
		},
	}

	r := NewReconciler(DefaultSettings())
	r.Filed = true
	out := r.Reconcile(gov, books)

	if _, has := row[gstr.FieldUploadStatus]; has {
		t.Fatal("filed period annotated a book row")
	}
	if _, has := books.Get(gstr.SubcategoryB2CS)["k2"]; has {
		t.Fatal("filed period synthesized a placeholder")
	}
	if out[gstr.SubcategoryB2CS]["k2"].MatchStatus != StatusMissingInBooks {
		t.Fatal("gov-only key still reconciles on filed periods")
	}
}

func TestReconcile_Deterministic(t *testing.T) {
	build := func() (gstr.ReturnData, gstr.ReturnData) {
		books := gstr.ReturnData{
			gstr.SubcategoryB2CS: {
				"k1": gstr.Row{gstr.FieldTotalTaxableValue: dec("100")},
			},
		}
		gov := gstr.ReturnData{
			gstr.SubcategoryB2CS: {
				"k1": gstr.Row{gstr.FieldTotalTaxableValue: dec("150")},
			},
		}
		return gov, books
	}

	gov1, books1 := build()
	gov2, books2 := build()
	first := NewReconciler(DefaultSettings()).Reconcile(gov1, books1)
	second := NewReconciler(DefaultSettings()).Reconcile(gov2, books2)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reconcile not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestSummarize_GrandTotal(t *testing.T) {
	data := gstr.ReturnData{
		gstr.SubcategoryB2BRegular: {
			"INV-1": gstr.Row{
				gstr.FieldTotalTaxableValue: dec("1000"),
				gstr.FieldTotalIgstAmount:   dec("180"),
			},
			"INV-2": gstr.Row{
				gstr.FieldTotalTaxableValue: dec("500"),
				gstr.FieldTotalCgstAmount:   dec("45"),
				gstr.FieldTotalSgstAmount:   dec("45"),
			},
		},
		gstr.SubcategoryB2CS: {
			"29-Karnataka - 18 - ": gstr.Row{
				gstr.FieldTotalTaxableValue: dec("200"),
			},
		},
	}

	rows := Summarize(data)
	if len(rows) != 3 {
		t.Fatalf("expected 2 lines + grand total, got %d", len(rows))
	}
	if rows[0].Subcategory != gstr.SubcategoryB2BRegular || rows[0].RecordCount != 2 {
		t.Fatalf("first line = %+v", rows[0])
	}
	grand := rows[len(rows)-1]
	if grand.Subcategory != GrandTotalLabel {
		t.Fatalf("last line = %+v", grand)
	}
	if !grand.TotalTaxableValue.Equal(dec("1700")) {
		t.Fatalf("grand taxable = %s, want 1700", grand.TotalTaxableValue)
	}
	if grand.RecordCount != 3 {
		t.Fatalf("grand record count = %d", grand.RecordCount)
	}
}

func TestFlatten_SortsByKey(t *testing.T) {
	data := gstr.ReturnData{
		gstr.SubcategoryB2BRegular: {
			"INV-2": gstr.Row{gstr.FieldDocumentNumber: "INV-2"},
			"INV-1": gstr.Row{gstr.FieldDocumentNumber: "INV-1"},
		},
	}
	flat := Flatten(data)
	rows := flat[gstr.SubcategoryB2BRegular]
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0].String(gstr.FieldDocumentNumber) != "INV-1" || rows[1].String(gstr.FieldDocumentNumber) != "INV-2" {
		t.Fatalf("rows out of order: %v", rows)
	}
}
