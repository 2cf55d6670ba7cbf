package gstr

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mmdatafocus/gst_backend/utils"
)

// B2CLCodec handles large unregistered invoices, grouped by place of
// supply on the wire.
type B2CLCodec struct {
	settings Settings
}

type b2clWireGroup struct {
	Pos string            `json:"pos"`
	Inv []b2clWireInvoice `json:"inv"`
}

type b2clWireInvoice struct {
	Inum string      `json:"inum"`
	Idt  string      `json:"idt"`
	Val  json.Number `json:"val"`
	Itms []wireItem  `json:"itms"`
}

func (c *B2CLCodec) Category() Category          { return CategoryB2CL }
func (c *B2CLCodec) Subcategories() []Subcategory { return []Subcategory{SubcategoryB2CL} }

func (c *B2CLCodec) Decode(raw json.RawMessage, data ReturnData) error {
	var groups []b2clWireGroup
	if err := json.Unmarshal(raw, &groups); err != nil {
		return err
	}

	for _, group := range groups {
		for _, inv := range group.Inv {
			date, err := utils.ParseGovDate(inv.Idt)
			if err != nil {
				return fmt.Errorf("invoice %s: %w", inv.Inum, err)
			}
			val, err := numToDecimal(inv.Val)
			if err != nil {
				return err
			}
			items, err := decodeItems(inv.Itms)
			if err != nil {
				return err
			}

			row := Row{
				FieldDocumentNumber: inv.Inum,
				FieldDocumentDate:   date,
				FieldDocumentValue:  val,
				FieldDocumentType:   "Invoice",
				FieldPlaceOfSupply:  ExpandPlaceOfSupply(group.Pos),
				FieldItems:          items,
			}
			setItemTotals(row, items, c.settings.Precision)
			data.ensure(SubcategoryB2CL)[inv.Inum] = row
		}
	}
	return nil
}

func (c *B2CLCodec) Encode(data ReturnData) (any, error) {
	sub := data.Get(SubcategoryB2CL)
	if len(sub) == 0 {
		return nil, nil
	}

	byPos := make(map[string][]b2clWireInvoice)
	for _, key := range sortedKeys(sub) {
		row := sub[key]
		idt, err := utils.FormatGovDate(row.String(FieldDocumentDate))
		if err != nil {
			return nil, fmt.Errorf("invoice %s: %w", key, err)
		}
		pos := ContractPlaceOfSupply(row.String(FieldPlaceOfSupply))
		byPos[pos] = append(byPos[pos], b2clWireInvoice{
			Inum: row.String(FieldDocumentNumber),
			Idt:  idt,
			Val:  decToNum(row.Decimal(FieldDocumentValue)),
			Itms: encodeItems(row.Items()),
		})
	}

	codes := make([]string, 0, len(byPos))
	for pos := range byPos {
		codes = append(codes, pos)
	}
	sort.Strings(codes)

	groups := make([]b2clWireGroup, 0, len(codes))
	for _, pos := range codes {
		invoices := byPos[pos]
		sort.Slice(invoices, func(i, j int) bool { return invoices[i].Inum < invoices[j].Inum })
		groups = append(groups, b2clWireGroup{Pos: pos, Inv: invoices})
	}
	return groups, nil
}
