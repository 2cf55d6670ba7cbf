package gstr

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func decodePayload(t *testing.T, payload string) ReturnData {
	t.Helper()
	var wire map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	data, err := NewRegistry(DefaultSettings()).DecodeReturn(wire)
	if err != nil {
		t.Fatalf("DecodeReturn error: %v", err)
	}
	return data
}

// jsonValue parses with UseNumber so numeric text compares exactly.
func jsonValue(t *testing.T, raw []byte) any {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return v
}

func TestB2BDecode_SezWithPayment(t *testing.T) {
	payload := `{
		"b2b": [{
			"ctin": "29AABCT1332L1ZT",
			"inv": [{
				"inum": "SINV-19-01064",
				"idt": "21-02-2020",
				"val": 29500,
				"pos": "29",
				"rchrg": "N",
				"inv_typ": "SEWP",
				"itms": [{
					"num": 1,
					"itm_det": {"rt": 18, "txval": 25000, "iamt": 4500, "camt": 0, "samt": 0, "csamt": 0}
				}]
			}]
		}]
	}`
	data := decodePayload(t, payload)

	sub := data.Get(SubcategorySEZWP)
	if len(sub) != 1 {
		t.Fatalf("expected 1 SEZ WP row, got %d", len(sub))
	}
	row, ok := sub["SINV-19-01064"]
	if !ok {
		t.Fatalf("row not keyed by invoice number: %v", sub)
	}

	if got := row.String(FieldCustomerGstin); got != "29AABCT1332L1ZT" {
		t.Fatalf("customer_gstin = %q", got)
	}
	if got := row.String(FieldPlaceOfSupply); got != "29-Karnataka" {
		t.Fatalf("place_of_supply = %q", got)
	}
	if got := row.String(FieldDocumentDate); got != "2020-02-21" {
		t.Fatalf("document_date = %q", got)
	}
	if got := row.Decimal(FieldTotalTaxableValue); !got.Equal(decimal.NewFromInt(25000)) {
		t.Fatalf("total_taxable_value = %s", got)
	}
	if got := row.Decimal(FieldTotalIgstAmount); !got.Equal(decimal.NewFromInt(4500)) {
		t.Fatalf("total_igst_amount = %s", got)
	}
}

func TestB2BDecode_UnknownInvoiceTypeFails(t *testing.T) {
	payload := `{"b2b": [{"ctin": "29AABCT1332L1ZT", "inv": [{"inum": "X", "idt": "01-01-2020", "val": 0, "pos": "29", "rchrg": "N", "inv_typ": "XYZ", "itms": []}]}]}`
	var wire map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		t.Fatal(err)
	}
	if _, err := NewRegistry(DefaultSettings()).DecodeReturn(wire); err == nil {
		t.Fatal("expected error for unknown invoice type")
	}
}

func TestCDNRDecode_CreditNoteSignFlips(t *testing.T) {
	payload := `{
		"cdnr": [{
			"ctin": "29AABCT1332L1ZT",
			"nt": [{
				"ntty": "C",
				"nt_num": "CN-01",
				"nt_dt": "15-03-2020",
				"pos": "29",
				"rchrg": "N",
				"inv_typ": "R",
				"val": 1180,
				"itms": [{"num": 1, "itm_det": {"rt": 18, "txval": 1000, "iamt": 180, "camt": 0, "samt": 0, "csamt": 0}}]
			}]
		}]
	}`
	data := decodePayload(t, payload)

	row := data.Get(SubcategoryCDNR)["CN-01"]
	if row == nil {
		t.Fatal("credit note not decoded")
	}
	if got := row.String(FieldDocumentType); got != "Credit Note" {
		t.Fatalf("document_type = %q", got)
	}
	if got := row.Decimal(FieldDocumentValue); !got.Equal(decimal.NewFromInt(-1180)) {
		t.Fatalf("document_value = %s, want -1180", got)
	}
	if got := row.Decimal(FieldTotalTaxableValue); !got.Equal(decimal.NewFromInt(-1000)) {
		t.Fatalf("total_taxable_value = %s, want -1000", got)
	}
	if got := row.Items()[0].Decimal(FieldIgstAmount); !got.Equal(decimal.NewFromInt(-180)) {
		t.Fatalf("item igst = %s, want -180", got)
	}

	// encode restores the wire sign without mutating the stored row
	encoded, err := NewRegistry(DefaultSettings()).EncodeReturn(data)
	if err != nil {
		t.Fatalf("EncodeReturn error: %v", err)
	}
	parties := encoded["cdnr"].([]cdnrWireParty)
	if got := parties[0].Nt[0].Val; got != "1180" {
		t.Fatalf("encoded val = %s, want 1180", got)
	}
	if got := row.Decimal(FieldTotalTaxableValue); !got.Equal(decimal.NewFromInt(-1000)) {
		t.Fatalf("stored row mutated by encode: %s", got)
	}
}

func TestB2CSDecode_CollisionAggregates(t *testing.T) {
	payload := `{
		"b2cs": [
			{"sply_ty": "INTRA", "rt": 18, "typ": "OE", "pos": "29", "txval": 10000, "camt": 900, "samt": 900},
			{"sply_ty": "INTRA", "rt": 18, "typ": "OE", "pos": "29", "txval": 5000, "camt": 450, "samt": 450},
			{"sply_ty": "INTER", "rt": 18, "typ": "OE", "pos": "27", "txval": 2000, "iamt": 360}
		]
	}`
	data := decodePayload(t, payload)

	sub := data.Get(SubcategoryB2CS)
	if len(sub) != 2 {
		t.Fatalf("expected 2 aggregated rows, got %d", len(sub))
	}
	key := B2CSKey{PlaceOfSupply: "29-Karnataka", TaxRate: decimal.NewFromInt(18)}.String()
	row := sub[key]
	if row == nil {
		t.Fatalf("missing aggregated key %q in %v", key, sub)
	}
	if got := row.Decimal(FieldTotalTaxableValue); !got.Equal(decimal.NewFromInt(15000)) {
		t.Fatalf("aggregated txval = %s, want 15000", got)
	}
	if got := row.Decimal(FieldTotalCgstAmount); !got.Equal(decimal.NewFromInt(1350)) {
		t.Fatalf("aggregated cgst = %s, want 1350", got)
	}
}

func TestHSNDecode_UomCasingCollapses(t *testing.T) {
	payload := `{
		"hsn": {"data": [
			{"num": 1, "hsn_sc": "9983", "desc": "Services", "uqc": "pcs", "qty": 2, "rt": 18, "txval": 1000, "iamt": 180, "camt": 0, "samt": 0, "csamt": 0},
			{"num": 2, "hsn_sc": "9983", "desc": "Services", "uqc": "PCS", "qty": 3, "rt": 18, "txval": 500, "iamt": 90, "camt": 0, "samt": 0, "csamt": 0}
		]}
	}`
	data := decodePayload(t, payload)

	sub := data.Get(SubcategoryHSN)
	if len(sub) != 1 {
		t.Fatalf("expected 1 collapsed row, got %d", len(sub))
	}
	key := HSNKey{HsnCode: "9983", Uom: "PCS-PIECES", TaxRate: decimal.NewFromInt(18)}.String()
	row := sub[key]
	if row == nil {
		t.Fatalf("missing key %q in %v", key, sub)
	}
	if got := row.Decimal(FieldQuantity); !got.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("quantity = %s, want 5", got)
	}
	if got := row.Decimal(FieldTotalTaxableValue); !got.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("txval = %s, want 1500", got)
	}
}

// Round-trip law: encode(decode(x)) preserves every mapped field value
// for sorted fixtures. Compared semantically (key order independent)
// with UseNumber so numeric text must survive exactly.
func TestEncodeDecode_RoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"b2b", `{"b2b": [{"ctin": "27AAACI1681G1Z0", "inv": [{"inum": "INV-001", "idt": "05-01-2020", "val": 1180.50, "pos": "27", "rchrg": "N", "inv_typ": "R", "itms": [{"num": 1, "itm_det": {"rt": 18, "txval": 1000.42, "iamt": 180.08, "camt": 0, "samt": 0, "csamt": 0}}]}]}]}`},
		{"b2cl", `{"b2cl": [{"pos": "27", "inv": [{"inum": "INV-100", "idt": "10-01-2020", "val": 350000, "itms": [{"num": 1, "itm_det": {"rt": 18, "txval": 296610.17, "iamt": 53389.83, "camt": 0, "samt": 0, "csamt": 0}}]}]}]}`},
		{"exp", `{"exp": [{"exp_typ": "WOPAY", "inv": [{"inum": "EXP-01", "idt": "12-01-2020", "val": 5000, "sbpcode": "INMAA1", "sbnum": "778899", "sbdt": "14-01-2020", "itms": [{"txval": 5000, "rt": 0, "iamt": 0, "csamt": 0}]}]}]}`},
		{"b2cs", `{"b2cs": [{"sply_ty": "INTRA", "rt": 18, "typ": "OE", "pos": "29", "txval": 10000, "iamt": 0, "camt": 900, "samt": 900, "csamt": 0}]}`},
		{"nil", `{"nil": {"inv": [{"sply_ty": "INTRB2B", "nil_amt": 100, "expt_amt": 200, "ngsup_amt": 0}]}}`},
		{"cdnr", `{"cdnr": [{"ctin": "29AABCT1332L1ZT", "nt": [{"ntty": "C", "nt_num": "CN-01", "nt_dt": "15-03-2020", "pos": "29", "rchrg": "N", "inv_typ": "R", "val": 1180, "itms": [{"num": 1, "itm_det": {"rt": 18, "txval": 1000, "iamt": 180, "camt": 0, "samt": 0, "csamt": 0}}]}]}]}`},
		{"hsn", `{"hsn": {"data": [{"num": 1, "hsn_sc": "9983", "desc": "Services", "uqc": "NOS", "qty": 2, "rt": 18, "txval": 1000, "iamt": 180, "camt": 0, "samt": 0, "csamt": 0}]}}`},
		{"at", `{"at": [{"pos": "29", "sply_ty": "INTRA", "itms": [{"rt": 18, "ad_amt": 10000, "iamt": 0, "camt": 900, "samt": 900, "csamt": 0}]}]}`},
		{"txpd", `{"txpd": [{"pos": "29", "sply_ty": "INTRA", "itms": [{"rt": 18, "ad_amt": 4000, "iamt": 0, "camt": 360, "samt": 360, "csamt": 0}]}]}`},
		{"doc_issue", `{"doc_issue": {"doc_det": [{"doc_num": 1, "docs": [{"num": 1, "from": "SINV-001", "to": "SINV-120", "totnum": 120, "cancel": 2, "net_issue": 118}]}]}}`},
		{"supeco", `{"supeco": {"clttx": [{"etin": "29AAICA3918J1C0", "suppval": 10000, "igst": 1800, "cgst": 0, "sgst": 0, "cess": 0}]}}`},
	}

	registry := NewRegistry(DefaultSettings())
	for _, tc := range cases {
		var wire map[string]json.RawMessage
		if err := json.Unmarshal([]byte(tc.payload), &wire); err != nil {
			t.Fatalf("%s: bad fixture: %v", tc.name, err)
		}
		data, err := registry.DecodeReturn(wire)
		if err != nil {
			t.Fatalf("%s: decode: %v", tc.name, err)
		}
		encoded, err := registry.EncodeReturn(data)
		if err != nil {
			t.Fatalf("%s: encode: %v", tc.name, err)
		}
		got, err := json.Marshal(encoded[tc.name])
		if err != nil {
			t.Fatalf("%s: marshal: %v", tc.name, err)
		}
		want := jsonValue(t, wire[tc.name])
		if !reflect.DeepEqual(jsonValue(t, got), want) {
			t.Fatalf("%s round trip mismatch:\n got %s\nwant %s", tc.name, got, wire[tc.name])
		}
	}
}

func TestRowJSON_DecimalsSurviveBlobRoundTrip(t *testing.T) {
	row := Row{
		FieldDocumentNumber:    "INV-001",
		FieldDocumentValue:     decimal.RequireFromString("1180.50"),
		FieldTotalTaxableValue: decimal.RequireFromString("1000.42"),
		FieldItems: []Row{{
			FieldItemIndex:    decimal.NewFromInt(1),
			FieldTaxRate:      decimal.NewFromInt(18),
			FieldTaxableValue: decimal.RequireFromString("1000.42"),
		}},
	}

	blob, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Row
	if err := json.Unmarshal(blob, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got := back.Decimal(FieldDocumentValue); !got.Equal(decimal.RequireFromString("1180.50")) {
		t.Fatalf("document_value = %s", got)
	}
	if _, ok := back[FieldDocumentValue].(decimal.Decimal); !ok {
		t.Fatalf("document_value not a decimal after round trip: %T", back[FieldDocumentValue])
	}
	items := back.Items()
	if len(items) != 1 {
		t.Fatalf("items lost: %v", back)
	}
	if got := items[0].Decimal(FieldTaxableValue); !got.Equal(decimal.RequireFromString("1000.42")) {
		t.Fatalf("item taxable_value = %s", got)
	}
}

func TestExpandContract_StateAndUom(t *testing.T) {
	if got := ExpandPlaceOfSupply("29"); got != "29-Karnataka" {
		t.Fatalf("ExpandPlaceOfSupply(29) = %q", got)
	}
	if got := ContractPlaceOfSupply("29-Karnataka"); got != "29" {
		t.Fatalf("ContractPlaceOfSupply = %q", got)
	}
	// unknown codes pass through unchanged
	if got := ExpandPlaceOfSupply("99"); got != "99" {
		t.Fatalf("ExpandPlaceOfSupply(99) = %q", got)
	}
	if got := ExpandUom("pcs"); got != "PCS-PIECES" {
		t.Fatalf("ExpandUom(pcs) = %q", got)
	}
	if got := ContractUom("PCS-PIECES"); got != "PCS" {
		t.Fatalf("ContractUom = %q", got)
	}
}
