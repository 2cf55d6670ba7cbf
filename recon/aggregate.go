package recon

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmdatafocus/gst_backend/gstr"
)

// nonAdditiveFields are numeric fields never summed across rows. Tax
// rate is categorical at the aggregation key and document value is
// representative, not additive.
var nonAdditiveFields = map[string]bool{
	gstr.FieldTaxRate:       true,
	gstr.FieldDocumentValue: true,
}

// Aggregate collapses several book rows sharing one comparison key into
// a single row. The first row supplies every non-numeric field; numeric
// fields outside the non-additive set are summed. Pass valueKeys to fix
// the summed field set explicitly, or nil to infer it from the first
// row's numeric fields.
func Aggregate(rows []gstr.Row, valueKeys []string) gstr.Row {
	if len(rows) == 0 {
		return nil
	}
	out := rows[0].Clone()
	if len(rows) == 1 {
		return out
	}

	if valueKeys == nil {
		valueKeys = numericFields(rows[0])
	}
	for _, field := range valueKeys {
		if nonAdditiveFields[field] {
			continue
		}
		total := decimal.Zero
		for _, row := range rows {
			total = total.Add(row.Decimal(field))
		}
		out[field] = total.Round(2)
	}
	return out
}

func numericFields(row gstr.Row) []string {
	fields := make([]string, 0, len(row))
	for field, v := range row {
		if _, ok := v.(decimal.Decimal); !ok {
			continue
		}
		if nonAdditiveFields[field] {
			continue
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}
