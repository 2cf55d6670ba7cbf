package gstr

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Settings is threaded explicitly into every codec so decode/encode is
// deterministic in tests without any ambient configuration lookup.
type Settings struct {
	// Precision applied when recomputing document totals from items.
	Precision int32
}

func DefaultSettings() Settings {
	return Settings{Precision: 2}
}

// Codec converts between the government wire JSON of one category and
// the internal normalized representation. Decode and Encode are
// lossy-aware inverses: Encode(Decode(x)) reproduces x exactly for
// every field in the codec's mapping table; unmapped wire fields
// (chksum, flag, derived totals) drop silently by design.
type Codec interface {
	Category() Category
	Subcategories() []Subcategory

	// Decode parses the category's raw wire value into data,
	// aggregating key collisions where the category allows several
	// wire rows under one composite key.
	Decode(raw json.RawMessage, data ReturnData) error

	// Encode emits the category's wire value from data, or nil when
	// the category has no rows.
	Encode(data ReturnData) (any, error)
}

// Registry holds one codec per category. Category dispatch is a closed
// set: an unknown top-level key in a government payload is ignored
// rather than guessed at.
type Registry struct {
	codecs map[Category]Codec
	order  []Category
}

func NewRegistry(settings Settings) *Registry {
	codecs := []Codec{
		&B2BCodec{settings: settings},
		&B2CLCodec{settings: settings},
		&ExportsCodec{settings: settings},
		&B2CSCodec{settings: settings},
		&NilRatedCodec{settings: settings},
		&CDNRCodec{settings: settings},
		&CDNURCodec{settings: settings},
		&HSNCodec{settings: settings},
		&AdvanceCodec{settings: settings, category: CategoryAT, subcategory: SubcategoryAT},
		&AdvanceCodec{settings: settings, category: CategoryTXP, subcategory: SubcategoryTXP},
		&DocIssueCodec{},
		&SupEcomCodec{settings: settings},
	}

	r := &Registry{codecs: make(map[Category]Codec, len(codecs))}
	for _, c := range codecs {
		r.codecs[c.Category()] = c
		r.order = append(r.order, c.Category())
	}
	return r
}

func (r *Registry) Codec(category Category) (Codec, bool) {
	c, ok := r.codecs[category]
	return c, ok
}

// DecodeReturn converts a full GSTR-1 style payload (category-keyed
// arrays/objects) into internal normalized data.
func (r *Registry) DecodeReturn(wire map[string]json.RawMessage) (ReturnData, error) {
	data := make(ReturnData)
	for _, category := range r.order {
		raw, ok := wire[string(category)]
		if !ok || len(raw) == 0 {
			continue
		}
		if err := r.codecs[category].Decode(raw, data); err != nil {
			return nil, fmt.Errorf("decode %s: %w", category, err)
		}
	}
	return data, nil
}

// EncodeReturn is the inverse of DecodeReturn. Categories without rows
// are omitted from the payload, matching government upload semantics.
func (r *Registry) EncodeReturn(data ReturnData) (map[string]any, error) {
	wire := make(map[string]any)
	for _, category := range r.order {
		value, err := r.codecs[category].Encode(data)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", category, err)
		}
		if value != nil {
			wire[string(category)] = value
		}
	}
	return wire, nil
}

/* shared wire helpers */

type wireItem struct {
	Num    int           `json:"num"`
	Detail wireItemDetail `json:"itm_det"`
}

type wireItemDetail struct {
	Rate  json.Number `json:"rt"`
	Txval json.Number `json:"txval"`
	Iamt  json.Number `json:"iamt"`
	Camt  json.Number `json:"camt"`
	Samt  json.Number `json:"samt"`
	Csamt json.Number `json:"csamt"`
}

func numToDecimal(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(n.String())
}

func decToNum(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func decodeItems(items []wireItem) ([]Row, error) {
	rows := make([]Row, 0, len(items))
	for _, it := range items {
		rate, err := numToDecimal(it.Detail.Rate)
		if err != nil {
			return nil, err
		}
		txval, err := numToDecimal(it.Detail.Txval)
		if err != nil {
			return nil, err
		}
		iamt, err := numToDecimal(it.Detail.Iamt)
		if err != nil {
			return nil, err
		}
		camt, err := numToDecimal(it.Detail.Camt)
		if err != nil {
			return nil, err
		}
		samt, err := numToDecimal(it.Detail.Samt)
		if err != nil {
			return nil, err
		}
		csamt, err := numToDecimal(it.Detail.Csamt)
		if err != nil {
			return nil, err
		}
		rows = append(rows, Row{
			FieldItemIndex:    decimal.NewFromInt(int64(it.Num)),
			FieldTaxRate:      rate,
			FieldTaxableValue: txval,
			FieldIgstAmount:   iamt,
			FieldCgstAmount:   camt,
			FieldSgstAmount:   samt,
			FieldCessAmount:   csamt,
		})
	}
	return rows, nil
}

func encodeItems(rows []Row) []wireItem {
	items := make([]wireItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, wireItem{
			Num: int(r.Decimal(FieldItemIndex).IntPart()),
			Detail: wireItemDetail{
				Rate:  decToNum(r.Decimal(FieldTaxRate)),
				Txval: decToNum(r.Decimal(FieldTaxableValue)),
				Iamt:  decToNum(r.Decimal(FieldIgstAmount)),
				Camt:  decToNum(r.Decimal(FieldCgstAmount)),
				Samt:  decToNum(r.Decimal(FieldSgstAmount)),
				Csamt: decToNum(r.Decimal(FieldCessAmount)),
			},
		})
	}
	return items
}

// negateItems flips signs in place. Credit notes are stored negated
// internally relative to the wire form; the flip must be exact because
// downstream diffing depends on signed equality.
func negateItems(rows []Row) {
	for _, r := range rows {
		for _, field := range []string{FieldTaxableValue, FieldIgstAmount, FieldCgstAmount, FieldSgstAmount, FieldCessAmount} {
			r[field] = r.Decimal(field).Neg()
		}
	}
}

// setItemTotals recomputes the document-level totals from the item
// rows. The recomputed sum, not the wire copy, is the internal source
// of truth.
func setItemTotals(row Row, items []Row, precision int32) {
	sums := map[string]string{
		FieldTotalTaxableValue: FieldTaxableValue,
		FieldTotalIgstAmount:   FieldIgstAmount,
		FieldTotalCgstAmount:   FieldCgstAmount,
		FieldTotalSgstAmount:   FieldSgstAmount,
		FieldTotalCessAmount:   FieldCessAmount,
	}
	for totalField, itemField := range sums {
		total := decimal.Zero
		for _, it := range items {
			total = total.Add(it.Decimal(itemField))
		}
		row[totalField] = total.Round(precision)
	}
}

// amountFields are the additive fields merged when two wire rows land
// on the same composite key (B2CS, HSN, AT/TXP).
var amountFields = []string{
	FieldTotalTaxableValue,
	FieldTotalIgstAmount,
	FieldTotalCgstAmount,
	FieldTotalSgstAmount,
	FieldTotalCessAmount,
	FieldQuantity,
}

// putOrMerge inserts row under key, summing additive fields on
// collision instead of overwriting.
func putOrMerge(data SubcategoryData, key string, row Row) {
	existing, ok := data[key]
	if !ok {
		data[key] = row
		return
	}
	for _, field := range amountFields {
		if _, has := existing[field]; !has {
			if _, incoming := row[field]; !incoming {
				continue
			}
		}
		existing[field] = existing.Decimal(field).Add(row.Decimal(field))
	}
}

func sortedKeys(data SubcategoryData) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
