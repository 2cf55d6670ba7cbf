package gstr

import (
	"encoding/json"
)

// B2CSCodec handles small unregistered supplies. The wire rows are
// rate-level aggregates already; internally they are keyed by
// (place, rate, operator) and summed on key collision.
type B2CSCodec struct {
	settings Settings
}

type b2csWireRow struct {
	SplyTy string      `json:"sply_ty"`
	Rt     json.Number `json:"rt"`
	Typ    string      `json:"typ"`
	Pos    string      `json:"pos"`
	Txval  json.Number `json:"txval"`
	Iamt   json.Number `json:"iamt,omitempty"`
	Camt   json.Number `json:"camt,omitempty"`
	Samt   json.Number `json:"samt,omitempty"`
	Csamt  json.Number `json:"csamt,omitempty"`
	Etin   string      `json:"etin,omitempty"`
}

func (c *B2CSCodec) Category() Category           { return CategoryB2CS }
func (c *B2CSCodec) Subcategories() []Subcategory { return []Subcategory{SubcategoryB2CS} }

func (c *B2CSCodec) Decode(raw json.RawMessage, data ReturnData) error {
	var rows []b2csWireRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return err
	}

	for _, wr := range rows {
		rate, err := numToDecimal(wr.Rt)
		if err != nil {
			return err
		}
		txval, err := numToDecimal(wr.Txval)
		if err != nil {
			return err
		}
		iamt, err := numToDecimal(wr.Iamt)
		if err != nil {
			return err
		}
		camt, err := numToDecimal(wr.Camt)
		if err != nil {
			return err
		}
		samt, err := numToDecimal(wr.Samt)
		if err != nil {
			return err
		}
		csamt, err := numToDecimal(wr.Csamt)
		if err != nil {
			return err
		}

		pos := ExpandPlaceOfSupply(wr.Pos)
		key := B2CSKey{PlaceOfSupply: pos, TaxRate: rate, EcommerceGstin: wr.Etin}
		row := Row{
			FieldSupplyType:        wr.SplyTy,
			FieldPlaceOfSupply:     pos,
			FieldTaxRate:           rate,
			FieldEcommerceGstin:    wr.Etin,
			FieldTotalTaxableValue: txval,
			FieldTotalIgstAmount:   iamt,
			FieldTotalCgstAmount:   camt,
			FieldTotalSgstAmount:   samt,
			FieldTotalCessAmount:   csamt,
		}
		putOrMerge(data.ensure(SubcategoryB2CS), key.String(), row)
	}
	return nil
}

func (c *B2CSCodec) Encode(data ReturnData) (any, error) {
	sub := data.Get(SubcategoryB2CS)
	if len(sub) == 0 {
		return nil, nil
	}

	rows := make([]b2csWireRow, 0, len(sub))
	for _, key := range sortedKeys(sub) {
		row := sub[key]
		etin := row.String(FieldEcommerceGstin)
		typ := "OE"
		if etin != "" {
			typ = "E"
		}
		rows = append(rows, b2csWireRow{
			SplyTy: row.String(FieldSupplyType),
			Rt:     decToNum(row.Decimal(FieldTaxRate)),
			Typ:    typ,
			Pos:    ContractPlaceOfSupply(row.String(FieldPlaceOfSupply)),
			Txval:  decToNum(row.Decimal(FieldTotalTaxableValue)),
			Iamt:   decToNum(row.Decimal(FieldTotalIgstAmount)),
			Camt:   decToNum(row.Decimal(FieldTotalCgstAmount)),
			Samt:   decToNum(row.Decimal(FieldTotalSgstAmount)),
			Csamt:  decToNum(row.Decimal(FieldTotalCessAmount)),
			Etin:   etin,
		})
	}
	return rows, nil
}
