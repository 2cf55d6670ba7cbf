package recon

import (
	"sort"

	"github.com/mmdatafocus/gst_backend/gstr"
)

// Flatten converts the keyed subcategory maps into the list-of-rows
// shape consumed by the worksheet exporter and the UI data table. Rows
// are ordered by key so exports are stable run to run.
func Flatten(data gstr.ReturnData) map[gstr.Subcategory][]gstr.Row {
	out := make(map[gstr.Subcategory][]gstr.Row, len(data))
	for sub, subData := range data {
		keys := make([]string, 0, len(subData))
		for key := range subData {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		rows := make([]gstr.Row, 0, len(keys))
		for _, key := range keys {
			rows = append(rows, subData[key])
		}
		out[sub] = rows
	}
	return out
}

// FlattenReconciled does the same for the reconciled difference map.
func FlattenReconciled(data ReconciledData) map[gstr.Subcategory][]*ReconRow {
	out := make(map[gstr.Subcategory][]*ReconRow, len(data))
	for sub, reconciled := range data {
		keys := make([]string, 0, len(reconciled))
		for key := range reconciled {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		rows := make([]*ReconRow, 0, len(keys))
		for _, key := range keys {
			rows = append(rows, reconciled[key])
		}
		out[sub] = rows
	}
	return out
}
