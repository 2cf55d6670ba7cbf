package gstr

import (
	"encoding/json"
)

// SupEcomCodec handles supplies made through e-commerce operators
// liable to collect tax under section 52. Keyed by operator GSTIN.
type SupEcomCodec struct {
	settings Settings
}

type supEcomWirePayload struct {
	Clttx []supEcomWireRow `json:"clttx"`
}

type supEcomWireRow struct {
	Etin    string      `json:"etin"`
	SupPval json.Number `json:"suppval"`
	Igst    json.Number `json:"igst"`
	Cgst    json.Number `json:"cgst"`
	Sgst    json.Number `json:"sgst"`
	Cess    json.Number `json:"cess"`
}

func (c *SupEcomCodec) Category() Category           { return CategorySupEcom }
func (c *SupEcomCodec) Subcategories() []Subcategory { return []Subcategory{SubcategorySupEcom} }

func (c *SupEcomCodec) Decode(raw json.RawMessage, data ReturnData) error {
	var payload supEcomWirePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}

	for _, wr := range payload.Clttx {
		suppval, err := numToDecimal(wr.SupPval)
		if err != nil {
			return err
		}
		igst, err := numToDecimal(wr.Igst)
		if err != nil {
			return err
		}
		cgst, err := numToDecimal(wr.Cgst)
		if err != nil {
			return err
		}
		sgst, err := numToDecimal(wr.Sgst)
		if err != nil {
			return err
		}
		cess, err := numToDecimal(wr.Cess)
		if err != nil {
			return err
		}
		data.ensure(SubcategorySupEcom)[wr.Etin] = Row{
			FieldEcommerceGstin:    wr.Etin,
			FieldTotalTaxableValue: suppval,
			FieldTotalIgstAmount:   igst,
			FieldTotalCgstAmount:   cgst,
			FieldTotalSgstAmount:   sgst,
			FieldTotalCessAmount:   cess,
		}
	}
	return nil
}

func (c *SupEcomCodec) Encode(data ReturnData) (any, error) {
	sub := data.Get(SubcategorySupEcom)
	if len(sub) == 0 {
		return nil, nil
	}

	rows := make([]supEcomWireRow, 0, len(sub))
	for _, key := range sortedKeys(sub) {
		row := sub[key]
		rows = append(rows, supEcomWireRow{
			Etin:    row.String(FieldEcommerceGstin),
			SupPval: decToNum(row.Decimal(FieldTotalTaxableValue)),
			Igst:    decToNum(row.Decimal(FieldTotalIgstAmount)),
			Cgst:    decToNum(row.Decimal(FieldTotalCgstAmount)),
			Sgst:    decToNum(row.Decimal(FieldTotalSgstAmount)),
			Cess:    decToNum(row.Decimal(FieldTotalCessAmount)),
		})
	}
	return supEcomWirePayload{Clttx: rows}, nil
}
