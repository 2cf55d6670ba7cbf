package gstr

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mmdatafocus/gst_backend/utils"
)

// CDNRCodec handles credit/debit notes issued to registered
// counterparties. Credit-note amounts are negated on decode and
// negated back on encode; both flips are exact decimal negations.
type CDNRCodec struct {
	settings Settings
}

type cdnrWireParty struct {
	Ctin string         `json:"ctin"`
	Nt   []cdnrWireNote `json:"nt"`
}

type cdnrWireNote struct {
	Ntty   string      `json:"ntty"`
	NtNum  string      `json:"nt_num"`
	NtDt   string      `json:"nt_dt"`
	Pos    string      `json:"pos"`
	Rchrg  string      `json:"rchrg"`
	InvTyp string      `json:"inv_typ"`
	Val    json.Number `json:"val"`
	Itms   []wireItem  `json:"itms"`
}

func (c *CDNRCodec) Category() Category          { return CategoryCDNR }
func (c *CDNRCodec) Subcategories() []Subcategory { return []Subcategory{SubcategoryCDNR} }

func noteDocumentType(ntty string) (string, error) {
	switch ntty {
	case "C":
		return "Credit Note", nil
	case "D":
		return "Debit Note", nil
	default:
		return "", fmt.Errorf("unknown note type %q", ntty)
	}
}

func noteTypeCode(documentType string) string {
	if documentType == "Credit Note" {
		return "C"
	}
	return "D"
}

func (c *CDNRCodec) Decode(raw json.RawMessage, data ReturnData) error {
	var parties []cdnrWireParty
	if err := json.Unmarshal(raw, &parties); err != nil {
		return err
	}

	for _, party := range parties {
		for _, note := range party.Nt {
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
				FieldCustomerGstin:  party.Ctin,
				FieldDocumentNumber: note.NtNum,
				FieldDocumentDate:   date,
				FieldDocumentValue:  val,
				FieldDocumentType:   docType,
				FieldPlaceOfSupply:  ExpandPlaceOfSupply(note.Pos),
				FieldReverseCharge:  note.Rchrg,
				FieldInvoiceType:    note.InvTyp,
				FieldItems:          items,
			}
			setItemTotals(row, items, c.settings.Precision)
			data.ensure(SubcategoryCDNR)[note.NtNum] = row
		}
	}
	return nil
}

func (c *CDNRCodec) Encode(data ReturnData) (any, error) {
	sub := data.Get(SubcategoryCDNR)
	if len(sub) == 0 {
		return nil, nil
	}

	byCtin := make(map[string][]cdnrWireNote)
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
		ctin := row.String(FieldCustomerGstin)
		byCtin[ctin] = append(byCtin[ctin], cdnrWireNote{
			Ntty:   noteTypeCode(docType),
			NtNum:  row.String(FieldDocumentNumber),
			NtDt:   ntDt,
			Pos:    ContractPlaceOfSupply(row.String(FieldPlaceOfSupply)),
			Rchrg:  row.String(FieldReverseCharge),
			InvTyp: row.String(FieldInvoiceType),
			Val:    decToNum(val),
			Itms:   encodeItems(items),
		})
	}

	ctins := make([]string, 0, len(byCtin))
	for ctin := range byCtin {
		ctins = append(ctins, ctin)
	}
	sort.Strings(ctins)

	parties := make([]cdnrWireParty, 0, len(ctins))
	for _, ctin := range ctins {
		notes := byCtin[ctin]
		sort.Slice(notes, func(i, j int) bool { return notes[i].NtNum < notes[j].NtNum })
		parties = append(parties, cdnrWireParty{Ctin: ctin, Nt: notes})
	}
	return parties, nil
}

func cloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
