package gstr

import (
	"encoding/json"
	"fmt"

	"github.com/mmdatafocus/gst_backend/utils"
)

// CDNURCodec handles credit/debit notes for unregistered
// counterparties. Same sign convention as CDNR, flat note list on the
// wire (no ctin grouping).
type CDNURCodec struct {
	settings Settings
}

type cdnurWireNote struct {
	Typ   string      `json:"typ"`
	Ntty  string      `json:"ntty"`
	NtNum string      `json:"nt_num"`
	NtDt  string      `json:"nt_dt"`
	Pos   string      `json:"pos"`
	Val   json.Number `json:"val"`
	Itms  []wireItem  `json:"itms"`
}

func (c *CDNURCodec) Category() Category          { return CategoryCDNUR }
func (c *CDNURCodec) Subcategories() []Subcategory { return []Subcategory{SubcategoryCDNUR} }

func (c *CDNURCodec) Decode(raw json.RawMessage, data ReturnData) error {
	var notes []cdnurWireNote
	if err := json.Unmarshal(raw, &notes); err != nil {
		return err
	}

	for _, note := range notes {
		docType, err := noteDocumentType(note.Ntty)
		if err != nil {
			return err
		}
		date, err := utils.ParseGovDate(note.NtDt)
		if err != nil {
			return fmt.Errorf("note %s: %w", note.NtNum, err)
		}
		val, err := numToDecimal(note.Val)
		if err != nil {
			return err
		}
		items, err := decodeItems(note.Itms)
		if err != nil {
			return err
		}
		if docType == "Credit Note" {
			negateItems(items)
			val = val.Neg()
		}

		row := Row{
			FieldDocumentNumber: note.NtNum,
			FieldDocumentDate:   date,
			FieldDocumentValue:  val,
			FieldDocumentType:   docType,
			FieldPlaceOfSupply:  ExpandPlaceOfSupply(note.Pos),
			FieldInvoiceType:    note.Typ,
			FieldItems:          items,
		}
		setItemTotals(row, items, c.settings.Precision)
		data.ensure(SubcategoryCDNUR)[note.NtNum] = row
	}
	return nil
}

func (c *CDNURCodec) Encode(data ReturnData) (any, error) {
	sub := data.Get(SubcategoryCDNUR)
	if len(sub) == 0 {
		return nil, nil
	}

	notes := make([]cdnurWireNote, 0, len(sub))
	for _, key := range sortedKeys(sub) {
		row := sub[key]
		ntDt, err := utils.FormatGovDate(row.String(FieldDocumentDate))
		if err != nil {
			return nil, fmt.Errorf("note %s: %w", key, err)
		}
		docType := row.String(FieldDocumentType)
		items := row.Items()
		val := row.Decimal(FieldDocumentValue)
		if docType == "Credit Note" {
			items = cloneRows(items)
			negateItems(items)
			val = val.Neg()
		}
		notes = append(notes, cdnurWireNote{
			Typ:   row.String(FieldInvoiceType),
			Ntty:  noteTypeCode(docType),
			NtNum: row.String(FieldDocumentNumber),
			NtDt:  ntDt,
			Pos:   ContractPlaceOfSupply(row.String(FieldPlaceOfSupply)),
			Val:   decToNum(val),
			Itms:  encodeItems(items),
		})
	}
	return notes, nil
}
