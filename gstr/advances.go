package gstr

import (
	"encoding/json"
	"sort"
)

// AdvanceCodec handles both advances received (at) and advances
// adjusted (txpd). The two categories share one wire shape; the
// instance is parameterized by which bucket it serves.
type AdvanceCodec struct {
	settings    Settings
	category    Category
	subcategory Subcategory
}

type advWireGroup struct {
	Pos    string        `json:"pos"`
	SplyTy string        `json:"sply_ty"`
	Itms   []advWireItem `json:"itms"`
}

type advWireItem struct {
	Rt    json.Number `json:"rt"`
	AdAmt json.Number `json:"ad_amt"`
	Iamt  json.Number `json:"iamt"`
	Camt  json.Number `json:"camt"`
	Samt  json.Number `json:"samt"`
	Csamt json.Number `json:"csamt"`
}

func (c *AdvanceCodec) Category() Category           { return c.category }
func (c *AdvanceCodec) Subcategories() []Subcategory { return []Subcategory{c.subcategory} }

func (c *AdvanceCodec) Decode(raw json.RawMessage, data ReturnData) error {
	var groups []advWireGroup
	if err := json.Unmarshal(raw, &groups); err != nil {
		return err
	}

	for _, group := range groups {
		pos := ExpandPlaceOfSupply(group.Pos)
		for _, it := range group.Itms {
			rate, err := numToDecimal(it.Rt)
			if err != nil {
				return err
			}
			adAmt, err := numToDecimal(it.AdAmt)
			if err != nil {
				return err
			}
			iamt, err := numToDecimal(it.Iamt)
			if err != nil {
				return err
			}
			camt, err := numToDecimal(it.Camt)
			if err != nil {
				return err
			}
			samt, err := numToDecimal(it.Samt)
			if err != nil {
				return err
			}
			csamt, err := numToDecimal(it.Csamt)
			if err != nil {
				return err
			}

			key := AdvanceKey{PlaceOfSupply: pos, TaxRate: rate}
			row := Row{
				FieldPlaceOfSupply:     pos,
				FieldSupplyType:        group.SplyTy,
				FieldTaxRate:           rate,
				FieldTotalTaxableValue: adAmt,
				FieldTotalIgstAmount:   iamt,
				FieldTotalCgstAmount:   camt,
				FieldTotalSgstAmount:   samt,
				FieldTotalCessAmount:   csamt,
			}
			putOrMerge(data.ensure(c.subcategory), key.String(), row)
		}
	}
	return nil
}

func (c *AdvanceCodec) Encode(data ReturnData) (any, error) {
	sub := data.Get(c.subcategory)
	if len(sub) == 0 {
		return nil, nil
	}

	type posBucket struct {
		splyTy string
		items  []advWireItem
	}
	byPos := make(map[string]*posBucket)
	for _, key := range sortedKeys(sub) {
		row := sub[key]
		pos := ContractPlaceOfSupply(row.String(FieldPlaceOfSupply))
		bucket, ok := byPos[pos]
		if !ok {
			bucket = &posBucket{splyTy: row.String(FieldSupplyType)}
			byPos[pos] = bucket
		}
		bucket.items = append(bucket.items, advWireItem{
			Rt:    decToNum(row.Decimal(FieldTaxRate)),
			AdAmt: decToNum(row.Decimal(FieldTotalTaxableValue)),
			Iamt:  decToNum(row.Decimal(FieldTotalIgstAmount)),
			Camt:  decToNum(row.Decimal(FieldTotalCgstAmount)),
			Samt:  decToNum(row.Decimal(FieldTotalSgstAmount)),
			Csamt: decToNum(row.Decimal(FieldTotalCessAmount)),
		})
	}

	codes := make([]string, 0, len(byPos))
	for pos := range byPos {
		codes = append(codes, pos)
	}
	sort.Strings(codes)

	groups := make([]advWireGroup, 0, len(codes))
	for _, pos := range codes {
		bucket := byPos[pos]
		groups = append(groups, advWireGroup{Pos: pos, SplyTy: bucket.splyTy, Itms: bucket.items})
	}
	return groups, nil
}
