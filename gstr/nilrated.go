package gstr

import (
	"encoding/json"
)

// NilRatedCodec handles the nil-rated / exempted / non-GST summary.
// One wire row per supply-type bucket.
type NilRatedCodec struct {
	settings Settings
}

type nilWirePayload struct {
	Inv []nilWireRow `json:"inv"`
}

type nilWireRow struct {
	SplyTy   string      `json:"sply_ty"`
	NilAmt   json.Number `json:"nil_amt"`
	ExptAmt  json.Number `json:"expt_amt"`
	NgsupAmt json.Number `json:"ngsup_amt"`
}

func (c *NilRatedCodec) Category() Category { return CategoryNil }

func (c *NilRatedCodec) Subcategories() []Subcategory {
	return []Subcategory{SubcategoryNilExemptNonGST}
}

func (c *NilRatedCodec) Decode(raw json.RawMessage, data ReturnData) error {
	var payload nilWirePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}

	for _, wr := range payload.Inv {
		nilAmt, err := numToDecimal(wr.NilAmt)
		if err != nil {
			return err
		}
		exptAmt, err := numToDecimal(wr.ExptAmt)
		if err != nil {
			return err
		}
		ngsupAmt, err := numToDecimal(wr.NgsupAmt)
		if err != nil {
			return err
		}
		data.ensure(SubcategoryNilExemptNonGST)[wr.SplyTy] = Row{
			FieldSupplyType:     wr.SplyTy,
			FieldNilRatedAmount: nilAmt,
			FieldExemptedAmount: exptAmt,
			FieldNonGstAmount:   ngsupAmt,
		}
	}
	return nil
}

func (c *NilRatedCodec) Encode(data ReturnData) (any, error) {
	sub := data.Get(SubcategoryNilExemptNonGST)
	if len(sub) == 0 {
		return nil, nil
	}

	rows := make([]nilWireRow, 0, len(sub))
	for _, key := range sortedKeys(sub) {
		row := sub[key]
		rows = append(rows, nilWireRow{
			SplyTy:   row.String(FieldSupplyType),
			NilAmt:   decToNum(row.Decimal(FieldNilRatedAmount)),
			ExptAmt:  decToNum(row.Decimal(FieldExemptedAmount)),
			NgsupAmt: decToNum(row.Decimal(FieldNonGstAmount)),
		})
	}
	return nilWirePayload{Inv: rows}, nil
}
