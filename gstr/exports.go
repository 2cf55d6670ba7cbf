package gstr

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mmdatafocus/gst_backend/utils"
)

// ExportsCodec handles export invoices. Exports carry a flat item
// shape on the wire (no itm_det nesting) and only IGST/cess amounts.
type ExportsCodec struct {
	settings Settings
}

type expWireGroup struct {
	ExpTyp string           `json:"exp_typ"`
	Inv    []expWireInvoice `json:"inv"`
}

type expWireInvoice struct {
	Inum    string        `json:"inum"`
	Idt     string        `json:"idt"`
	Val     json.Number   `json:"val"`
	Sbpcode string        `json:"sbpcode,omitempty"`
	Sbnum   string        `json:"sbnum,omitempty"`
	Sbdt    string        `json:"sbdt,omitempty"`
	Itms    []expWireItem `json:"itms"`
}

type expWireItem struct {
	Txval json.Number `json:"txval"`
	Rt    json.Number `json:"rt"`
	Iamt  json.Number `json:"iamt"`
	Csamt json.Number `json:"csamt"`
}

func (c *ExportsCodec) Category() Category { return CategoryExports }

func (c *ExportsCodec) Subcategories() []Subcategory {
	return []Subcategory{SubcategoryExportsWP, SubcategoryExportsWOP}
}

func exportSubcategory(expTyp string) (Subcategory, error) {
	switch expTyp {
	case "WPAY":
		return SubcategoryExportsWP, nil
	case "WOPAY":
		return SubcategoryExportsWOP, nil
	default:
		return "", fmt.Errorf("unknown export type %q", expTyp)
	}
}

func exportTypeCode(sub Subcategory) string {
	if sub == SubcategoryExportsWP {
		return "WPAY"
	}
	return "WOPAY"
}

func (c *ExportsCodec) Decode(raw json.RawMessage, data ReturnData) error {
	var groups []expWireGroup
	if err := json.Unmarshal(raw, &groups); err != nil {
		return err
	}

	for _, group := range groups {
		sub, err := exportSubcategory(group.ExpTyp)
		if err != nil {
			return err
		}
		for _, inv := range group.Inv {
			date, err := utils.ParseGovDate(inv.Idt)
			if err != nil {
				return fmt.Errorf("invoice %s: %w", inv.Inum, err)
			}
			val, err := numToDecimal(inv.Val)
			if err != nil {
				return err
			}

			items := make([]Row, 0, len(inv.Itms))
			for _, it := range inv.Itms {
				txval, err := numToDecimal(it.Txval)
				if err != nil {
					return err
				}
				rate, err := numToDecimal(it.Rt)
				if err != nil {
					return err
				}
				iamt, err := numToDecimal(it.Iamt)
				if err != nil {
					return err
				}
				csamt, err := numToDecimal(it.Csamt)
				if err != nil {
					return err
				}
				items = append(items, Row{
					FieldTaxableValue: txval,
					FieldTaxRate:      rate,
					FieldIgstAmount:   iamt,
					FieldCessAmount:   csamt,
				})
			}

			row := Row{
				FieldDocumentNumber: inv.Inum,
				FieldDocumentDate:   date,
				FieldDocumentValue:  val,
				FieldDocumentType:   "Invoice",
				FieldItems:          items,
			}
			if inv.Sbnum != "" {
				row[FieldShippingBillNum] = inv.Sbnum
			}
			if inv.Sbdt != "" {
				sbDate, err := utils.ParseGovDate(inv.Sbdt)
				if err != nil {
					return fmt.Errorf("invoice %s shipping bill: %w", inv.Inum, err)
				}
				row[FieldShippingBillDate] = sbDate
			}
			if inv.Sbpcode != "" {
				row[FieldShippingPortCode] = inv.Sbpcode
			}
			setItemTotals(row, items, c.settings.Precision)
			data.ensure(sub)[inv.Inum] = row
		}
	}
	return nil
}

func (c *ExportsCodec) Encode(data ReturnData) (any, error) {
	groups := make([]expWireGroup, 0, 2)
	for _, sub := range c.Subcategories() {
		rows := data.Get(sub)
		if len(rows) == 0 {
			continue
		}
		invoices := make([]expWireInvoice, 0, len(rows))
		for _, key := range sortedKeys(rows) {
			row := rows[key]
			idt, err := utils.FormatGovDate(row.String(FieldDocumentDate))
			if err != nil {
				return nil, fmt.Errorf("invoice %s: %w", key, err)
			}
			inv := expWireInvoice{
				Inum:    row.String(FieldDocumentNumber),
				Idt:     idt,
				Val:     decToNum(row.Decimal(FieldDocumentValue)),
				Sbpcode: row.String(FieldShippingPortCode),
				Sbnum:   row.String(FieldShippingBillNum),
			}
			if sbDate := row.String(FieldShippingBillDate); sbDate != "" {
				sbdt, err := utils.FormatGovDate(sbDate)
				if err != nil {
					return nil, fmt.Errorf("invoice %s shipping bill: %w", key, err)
				}
				inv.Sbdt = sbdt
			}
			for _, it := range row.Items() {
				inv.Itms = append(inv.Itms, expWireItem{
					Txval: decToNum(it.Decimal(FieldTaxableValue)),
					Rt:    decToNum(it.Decimal(FieldTaxRate)),
					Iamt:  decToNum(it.Decimal(FieldIgstAmount)),
					Csamt: decToNum(it.Decimal(FieldCessAmount)),
				})
			}
			invoices = append(invoices, inv)
		}
		sort.Slice(invoices, func(i, j int) bool { return invoices[i].Inum < invoices[j].Inum })
		groups = append(groups, expWireGroup{ExpTyp: exportTypeCode(sub), Inv: invoices})
	}
	if len(groups) == 0 {
		return nil, nil
	}
	return groups, nil
}
