package gstr

import (
	"encoding/json"
)

// HSNCodec handles the HSN-wise summary. UQC codes expand to their
// descriptive form internally, so wire rows differing only in unit
// casing collapse onto one key and aggregate.
type HSNCodec struct {
	settings Settings
}

type hsnWirePayload struct {
	Data []hsnWireRow `json:"data"`
}

type hsnWireRow struct {
	Num   int         `json:"num"`
	HsnSc string      `json:"hsn_sc"`
	Desc  string      `json:"desc,omitempty"`
	Uqc   string      `json:"uqc"`
	Qty   json.Number `json:"qty"`
	Rt    json.Number `json:"rt"`
	Txval json.Number `json:"txval"`
	Iamt  json.Number `json:"iamt"`
	Camt  json.Number `json:"camt"`
	Samt  json.Number `json:"samt"`
	Csamt json.Number `json:"csamt"`
}

func (c *HSNCodec) Category() Category           { return CategoryHSN }
func (c *HSNCodec) Subcategories() []Subcategory { return []Subcategory{SubcategoryHSN} }

func (c *HSNCodec) Decode(raw json.RawMessage, data ReturnData) error {
	var payload hsnWirePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}

	for _, wr := range payload.Data {
		qty, err := numToDecimal(wr.Qty)
		if err != nil {
			return err
		}
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

		uom := ExpandUom(wr.Uqc)
		key := HSNKey{HsnCode: wr.HsnSc, Uom: uom, TaxRate: rate}
		row := Row{
			FieldHsnCode:           wr.HsnSc,
			FieldUom:               uom,
			FieldTaxRate:           rate,
			FieldQuantity:          qty,
			FieldTotalTaxableValue: txval,
			FieldTotalIgstAmount:   iamt,
			FieldTotalCgstAmount:   camt,
			FieldTotalSgstAmount:   samt,
			FieldTotalCessAmount:   csamt,
		}
		if wr.Desc != "" {
			row[FieldDescription] = wr.Desc
		}
		putOrMerge(data.ensure(SubcategoryHSN), key.String(), row)
	}
	return nil
}

func (c *HSNCodec) Encode(data ReturnData) (any, error) {
	sub := data.Get(SubcategoryHSN)
	if len(sub) == 0 {
		return nil, nil
	}

	rows := make([]hsnWireRow, 0, len(sub))
	for i, key := range sortedKeys(sub) {
		row := sub[key]
		rows = append(rows, hsnWireRow{
			Num:   i + 1,
			HsnSc: row.String(FieldHsnCode),
			Desc:  row.String(FieldDescription),
			Uqc:   ContractUom(row.String(FieldUom)),
			Qty:   decToNum(row.Decimal(FieldQuantity)),
			Rt:    decToNum(row.Decimal(FieldTaxRate)),
			Txval: decToNum(row.Decimal(FieldTotalTaxableValue)),
			Iamt:  decToNum(row.Decimal(FieldTotalIgstAmount)),
			Camt:  decToNum(row.Decimal(FieldTotalCgstAmount)),
			Samt:  decToNum(row.Decimal(FieldTotalSgstAmount)),
			Csamt: decToNum(row.Decimal(FieldTotalCessAmount)),
		})
	}
	return hsnWirePayload{Data: rows}, nil
}
