package gstr

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// DocIssueCodec handles the documents-issued summary. Counts are
// integral on the wire but stored as decimals so the differ treats
// them like every other numeric field.
type DocIssueCodec struct{}

// docNatureNames maps the government nature code to its display name.
var docNatureNames = map[int]string{
	1:  "Invoices for outward supply",
	2:  "Invoices for inward supply from unregistered person",
	3:  "Revised Invoice",
	4:  "Debit Note",
	5:  "Credit Note",
	6:  "Receipt Voucher",
	7:  "Payment Voucher",
	8:  "Refund Voucher",
	9:  "Delivery Challan for job work",
	10: "Delivery Challan for supply on approval",
	11: "Delivery Challan in case of liquid gas",
	12: "Delivery Challan in cases other than by way of supply",
}

type docWirePayload struct {
	DocDet []docWireGroup `json:"doc_det"`
}

type docWireGroup struct {
	DocNum int           `json:"doc_num"`
	Docs   []docWireSpan `json:"docs"`
}

type docWireSpan struct {
	Num      int    `json:"num"`
	From     string `json:"from"`
	To       string `json:"to"`
	Totnum   int    `json:"totnum"`
	Cancel   int    `json:"cancel"`
	NetIssue int    `json:"net_issue"`
}

func (c *DocIssueCodec) Category() Category           { return CategoryDocIssue }
func (c *DocIssueCodec) Subcategories() []Subcategory { return []Subcategory{SubcategoryDocIssue} }

func docNatureCode(name string) (int, error) {
	for code, n := range docNatureNames {
		if n == name {
			return code, nil
		}
	}
	return 0, fmt.Errorf("unknown document nature %q", name)
}

func (c *DocIssueCodec) Decode(raw json.RawMessage, data ReturnData) error {
	var payload docWirePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}

	for _, group := range payload.DocDet {
		nature, ok := docNatureNames[group.DocNum]
		if !ok {
			return fmt.Errorf("unknown document nature code %d", group.DocNum)
		}
		for _, span := range group.Docs {
			key := DocIssueKey{NatureOfDocument: nature, FromSerial: span.From}
			data.ensure(SubcategoryDocIssue)[key.String()] = Row{
				FieldNatureOfDocument: nature,
				FieldFromSerial:       span.From,
				FieldToSerial:         span.To,
				FieldTotalCount:       decimal.NewFromInt(int64(span.Totnum)),
				FieldCancelledCount:   decimal.NewFromInt(int64(span.Cancel)),
				FieldNetIssued:        decimal.NewFromInt(int64(span.NetIssue)),
			}
		}
	}
	return nil
}

func (c *DocIssueCodec) Encode(data ReturnData) (any, error) {
	sub := data.Get(SubcategoryDocIssue)
	if len(sub) == 0 {
		return nil, nil
	}

	byCode := make(map[int][]docWireSpan)
	for _, key := range sortedKeys(sub) {
		row := sub[key]
		code, err := docNatureCode(row.String(FieldNatureOfDocument))
		if err != nil {
			return nil, err
		}
		byCode[code] = append(byCode[code], docWireSpan{
			From:     row.String(FieldFromSerial),
			To:       row.String(FieldToSerial),
			Totnum:   int(row.Decimal(FieldTotalCount).IntPart()),
			Cancel:   int(row.Decimal(FieldCancelledCount).IntPart()),
			NetIssue: int(row.Decimal(FieldNetIssued).IntPart()),
		})
	}

	codes := make([]int, 0, len(byCode))
	for code := range byCode {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	groups := make([]docWireGroup, 0, len(codes))
	for _, code := range codes {
		spans := byCode[code]
		sort.Slice(spans, func(i, j int) bool { return spans[i].From < spans[j].From })
		for i := range spans {
			spans[i].Num = i + 1
		}
		groups = append(groups, docWireGroup{DocNum: code, Docs: spans})
	}
	return docWirePayload{DocDet: groups}, nil
}
