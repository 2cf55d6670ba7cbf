package gstr

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mmdatafocus/gst_backend/utils"
)

// B2BCodec handles registered outward supplies. One wire category
// fans out into five subcategories selected by invoice type and
// reverse-charge flag.
type B2BCodec struct {
	settings Settings
}

type b2bWireParty struct {
	Ctin string           `json:"ctin"`
	Inv  []b2bWireInvoice `json:"inv"`
}

type b2bWireInvoice struct {
	Inum   string      `json:"inum"`
	Idt    string      `json:"idt"`
	Val    json.Number `json:"val"`
	Pos    string      `json:"pos"`
	Rchrg  string      `json:"rchrg"`
	InvTyp string      `json:"inv_typ"`
	Itms   []wireItem  `json:"itms"`
}

func (c *B2BCodec) Category() Category { return CategoryB2B }

func (c *B2BCodec) Subcategories() []Subcategory {
	return []Subcategory{
		SubcategoryB2BRegular,
		SubcategoryB2BReverseCharge,
		SubcategorySEZWP,
		SubcategorySEZWOP,
		SubcategoryDeemedExports,
	}
}

func b2bSubcategory(invTyp, rchrg string) (Subcategory, error) {
	switch invTyp {
	case "R":
		if rchrg == "Y" {
			return SubcategoryB2BReverseCharge, nil
		}
		return SubcategoryB2BRegular, nil
	case "SEWP":
		return SubcategorySEZWP, nil
	case "SEWOP":
		return SubcategorySEZWOP, nil
	case "DE":
		return SubcategoryDeemedExports, nil
	default:
		return "", fmt.Errorf("unknown b2b invoice type %q", invTyp)
	}
}

func b2bInvoiceType(sub Subcategory) string {
	switch sub {
	case SubcategorySEZWP:
		return "SEWP"
	case SubcategorySEZWOP:
		return "SEWOP"
	case SubcategoryDeemedExports:
		return "DE"
	default:
		return "R"
	}
}

func (c *B2BCodec) Decode(raw json.RawMessage, data ReturnData) error {
	var parties []b2bWireParty
	if err := json.Unmarshal(raw, &parties); err != nil {
		return err
	}

	for _, party := range parties {
		for _, inv := range party.Inv {
			sub, err := b2bSubcategory(inv.InvTyp, inv.Rchrg)
			if err != nil {
				return err
			}
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
				FieldCustomerGstin:  party.Ctin,
				FieldDocumentNumber: inv.Inum,
				FieldDocumentDate:   date,
				FieldDocumentValue:  val,
				FieldDocumentType:   "Invoice",
				FieldPlaceOfSupply:  ExpandPlaceOfSupply(inv.Pos),
				FieldReverseCharge:  inv.Rchrg,
				FieldItems:          items,
			}
			setItemTotals(row, items, c.settings.Precision)
			data.ensure(sub)[inv.Inum] = row
		}
	}
	return nil
}

func (c *B2BCodec) Encode(data ReturnData) (any, error) {
	// group rows back into per-ctin parties across all b2b subcategories
	byCtin := make(map[string][]b2bWireInvoice)
	for _, sub := range c.Subcategories() {
		for _, key := range sortedKeys(data.Get(sub)) {
			row := data.Get(sub)[key]
			idt, err := utils.FormatGovDate(row.String(FieldDocumentDate))
			if err != nil {
				return nil, fmt.Errorf("invoice %s: %w", key, err)
			}
			ctin := row.String(FieldCustomerGstin)
			byCtin[ctin] = append(byCtin[ctin], b2bWireInvoice{
				Inum:   row.String(FieldDocumentNumber),
				Idt:    idt,
				Val:    decToNum(row.Decimal(FieldDocumentValue)),
				Pos:    ContractPlaceOfSupply(row.String(FieldPlaceOfSupply)),
				Rchrg:  row.String(FieldReverseCharge),
				InvTyp: b2bInvoiceType(sub),
				Itms:   encodeItems(row.Items()),
			})
		}
	}
	if len(byCtin) == 0 {
		return nil, nil
	}

	ctins := make([]string, 0, len(byCtin))
	for ctin := range byCtin {
		ctins = append(ctins, ctin)
	}
	sort.Strings(ctins)

	parties := make([]b2bWireParty, 0, len(ctins))
	for _, ctin := range ctins {
		invoices := byCtin[ctin]
		sort.Slice(invoices, func(i, j int) bool { return invoices[i].Inum < invoices[j].Inum })
		parties = append(parties, b2bWireParty{Ctin: ctin, Inv: invoices})
	}
	return parties, nil
}
