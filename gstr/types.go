package gstr

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Category is the government wire-format bucket a record travels in
// (the top-level key of the GSTR-1 JSON payload).
type Category string

const (
	CategoryB2B      Category = "b2b"
	CategoryB2CL     Category = "b2cl"
	CategoryExports  Category = "exp"
	CategoryB2CS     Category = "b2cs"
	CategoryNil      Category = "nil"
	CategoryCDNR     Category = "cdnr"
	CategoryCDNUR    Category = "cdnur"
	CategoryHSN      Category = "hsn"
	CategoryAT       Category = "at"
	CategoryTXP      Category = "txpd"
	CategoryDocIssue Category = "doc_issue"
	CategorySupEcom  Category = "supeco"
)

// Subcategory identifies one row shape and business meaning. Several
// subcategories can share a wire category (b2b carries five of them).
type Subcategory string

const (
	SubcategoryB2BRegular       Subcategory = "B2B Regular"
	SubcategoryB2BReverseCharge Subcategory = "B2B Reverse Charge"
	SubcategorySEZWP            Subcategory = "SEZ With Payment of Tax"
	SubcategorySEZWOP           Subcategory = "SEZ Without Payment of Tax"
	SubcategoryDeemedExports    Subcategory = "Deemed Exports"
	SubcategoryB2CL             Subcategory = "B2C (Large)"
	SubcategoryExportsWP        Subcategory = "Exports With Payment of Tax"
	SubcategoryExportsWOP       Subcategory = "Exports Without Payment of Tax"
	SubcategoryB2CS             Subcategory = "B2C (Others)"
	SubcategoryNilExemptNonGST  Subcategory = "Nil-Rated, Exempted, Non-GST"
	SubcategoryCDNR             Subcategory = "Credit/Debit Notes (Registered)"
	SubcategoryCDNUR            Subcategory = "Credit/Debit Notes (Unregistered)"
	SubcategoryHSN              Subcategory = "HSN Summary"
	SubcategoryAT               Subcategory = "Advances Received"
	SubcategoryTXP              Subcategory = "Advances Adjusted"
	SubcategoryDocIssue         Subcategory = "Document Issued"
	SubcategorySupEcom          Subcategory = "Liable to Collect Tax (U/s 52)"
)

// AllSubcategories is the canonical reconciliation order.
var AllSubcategories = []Subcategory{
	SubcategoryB2BRegular,
	SubcategoryB2BReverseCharge,
	SubcategorySEZWP,
	SubcategorySEZWOP,
	SubcategoryDeemedExports,
	SubcategoryB2CL,
	SubcategoryExportsWP,
	SubcategoryExportsWOP,
	SubcategoryB2CS,
	SubcategoryNilExemptNonGST,
	SubcategoryCDNR,
	SubcategoryCDNUR,
	SubcategoryHSN,
	SubcategoryAT,
	SubcategoryTXP,
	SubcategoryDocIssue,
	SubcategorySupEcom,
}

// Semantic field names shared by codecs, differ and aggregator.
const (
	FieldCustomerGstin     = "customer_gstin"
	FieldCustomerName      = "customer_name"
	FieldDocumentNumber    = "document_number"
	FieldDocumentDate      = "document_date"
	FieldDocumentValue     = "document_value"
	FieldDocumentType      = "document_type"
	FieldPlaceOfSupply     = "place_of_supply"
	FieldReverseCharge     = "reverse_charge"
	FieldTaxRate           = "tax_rate"
	FieldEcommerceGstin    = "ecommerce_gstin"
	FieldSupplyType        = "supply_type"
	FieldInvoiceType       = "invoice_type"
	FieldShippingBillNum   = "shipping_bill_number"
	FieldShippingBillDate  = "shipping_bill_date"
	FieldShippingPortCode  = "shipping_port_code"
	FieldHsnCode           = "hsn_code"
	FieldDescription       = "description"
	FieldUom               = "uom"
	FieldQuantity          = "quantity"
	FieldNatureOfDocument  = "nature_of_document"
	FieldFromSerial        = "from_serial"
	FieldToSerial          = "to_serial"
	FieldTotalCount        = "total_count"
	FieldCancelledCount    = "cancelled_count"
	FieldNetIssued         = "net_issued"
	FieldNilRatedAmount    = "nil_rated_amount"
	FieldExemptedAmount    = "exempted_amount"
	FieldNonGstAmount      = "non_gst_amount"
	FieldItems             = "items"
	FieldTotalTaxableValue = "total_taxable_value"
	FieldTotalIgstAmount   = "total_igst_amount"
	FieldTotalCgstAmount   = "total_cgst_amount"
	FieldTotalSgstAmount   = "total_sgst_amount"
	FieldTotalCessAmount   = "total_cess_amount"
	FieldUploadStatus      = "upload_status"

	// item-level fields
	FieldItemIndex    = "idx"
	FieldTaxableValue = "taxable_value"
	FieldIgstAmount   = "igst_amount"
	FieldCgstAmount   = "cgst_amount"
	FieldSgstAmount   = "sgst_amount"
	FieldCessAmount   = "cess_amount"
)

// Row is one normalized record: semantic field name -> value.
// Values are string, decimal.Decimal or []Row (line items). The shape
// is deliberately dynamic: the differ and aggregator walk fields by
// name and the persisted blobs round-trip through JSON.
type Row map[string]any

// SubcategoryData maps composite record key -> normalized record.
type SubcategoryData map[string]Row

// ReturnData is one side (books or gov) of a return period.
type ReturnData map[Subcategory]SubcategoryData

func (d ReturnData) Get(sub Subcategory) SubcategoryData {
	if d == nil {
		return nil
	}
	return d[sub]
}

func (d ReturnData) ensure(sub Subcategory) SubcategoryData {
	m, ok := d[sub]
	if !ok {
		m = make(SubcategoryData)
		d[sub] = m
	}
	return m
}

func (r Row) Decimal(field string) decimal.Decimal {
	v, ok := r[field]
	if !ok {
		return decimal.Zero
	}
	d, ok := v.(decimal.Decimal)
	if !ok {
		return decimal.Zero
	}
	return d
}

func (r Row) String(field string) string {
	v, ok := r[field]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func (r Row) Items() []Row {
	v, ok := r[FieldItems]
	if !ok {
		return nil
	}
	items, _ := v.([]Row)
	return items
}

func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		if items, ok := v.([]Row); ok {
			copied := make([]Row, len(items))
			for i, it := range items {
				copied[i] = it.Clone()
			}
			out[k] = copied
			continue
		}
		out[k] = v
	}
	return out
}

func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(rowToJSONValue(map[string]any(r)))
}

func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}
	out, err := rowFromJSONMap(m)
	if err != nil {
		return err
	}
	*r = out
	return nil
}

func rowToJSONValue(v any) any {
	switch t := v.(type) {
	case decimal.Decimal:
		return json.Number(t.String())
	case Row:
		return rowToJSONValue(map[string]any(t))
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = rowToJSONValue(val)
		}
		return m
	case []Row:
		arr := make([]any, len(t))
		for i, val := range t {
			arr[i] = rowToJSONValue(map[string]any(val))
		}
		return arr
	default:
		return v
	}
}

func rowFromJSONMap(m map[string]any) (Row, error) {
	out := make(Row, len(m))
	for k, v := range m {
		converted, err := rowFromJSONValue(v)
		if err != nil {
			return nil, err
		}
		out[k] = converted
	}
	return out, nil
}

func rowFromJSONValue(v any) (any, error) {
	switch t := v.(type) {
	case json.Number:
		return decimal.NewFromString(t.String())
	case map[string]any:
		return rowFromJSONMap(t)
	case []any:
		rows := make([]Row, 0, len(t))
		for _, el := range t {
			m, ok := el.(map[string]any)
			if !ok {
				return v, nil
			}
			row, err := rowFromJSONMap(m)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
		return rows, nil
	default:
		return v, nil
	}
}

/* composite keys */

// B2CSKey keys B2C (Others) records: there is no document number at
// this granularity, only a (place, rate, operator) bucket.
type B2CSKey struct {
	PlaceOfSupply  string
	TaxRate        decimal.Decimal
	EcommerceGstin string
}

func (k B2CSKey) String() string {
	return fmt.Sprintf("%s - %s - %s", k.PlaceOfSupply, k.TaxRate.String(), k.EcommerceGstin)
}

// HSNKey keys HSN summary records.
type HSNKey struct {
	HsnCode string
	Uom     string
	TaxRate decimal.Decimal
}

func (k HSNKey) String() string {
	return fmt.Sprintf("%s - %s - %s", k.HsnCode, k.Uom, k.TaxRate.String())
}

// AdvanceKey keys AT / TXP records.
type AdvanceKey struct {
	PlaceOfSupply string
	TaxRate       decimal.Decimal
}

func (k AdvanceKey) String() string {
	return fmt.Sprintf("%s - %s", k.PlaceOfSupply, k.TaxRate.String())
}

// DocIssueKey keys document-issued records.
type DocIssueKey struct {
	NatureOfDocument string
	FromSerial       string
}

func (k DocIssueKey) String() string {
	return fmt.Sprintf("%s - %s", k.NatureOfDocument, k.FromSerial)
}
