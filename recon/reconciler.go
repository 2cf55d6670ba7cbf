package recon

import (
	"github.com/mmdatafocus/gst_backend/gstr"
)

// ReconciledData is the sparse reconciliation output: only rows with a
// discrepancy or missing-ness appear.
type ReconciledData map[gstr.Subcategory]map[string]*ReconRow

// Reconciler runs the two-pass key-by-key reconciliation over every
// canonical subcategory.
type Reconciler struct {
	settings Settings

	// Filed periods are immutable ground truth. Book rows are never
	// annotated when set.
	Filed bool
}

func NewReconciler(settings Settings) *Reconciler {
	return &Reconciler{settings: settings}
}

// Reconcile diffs gov against books subcategory by subcategory. Book
// rows are annotated in place with an upload status unless the period
// is filed. Gov-only keys gain a synthetic zeroed placeholder in books
// so a blank row exists to reconcile against.
func (r *Reconciler) Reconcile(gov, books gstr.ReturnData) ReconciledData {
	out := make(ReconciledData)

	for _, sub := range gstr.AllSubcategories {
		booksSub := books.Get(sub)
		govSub := gov.Get(sub)
		if len(booksSub) == 0 && len(govSub) == 0 {
			continue
		}

		reconciled := make(map[string]*ReconRow)

		// forward pass: books against gov
		for key, booksRow := range booksSub {
			govRow, inGov := govSub[key]
			var d *ReconRow
			if inGov {
				d = Diff(r.settings, booksRow, govRow)
			} else {
				d = Diff(r.settings, booksRow, nil)
			}
			if !r.Filed {
				switch {
				case !inGov:
					booksRow[gstr.FieldUploadStatus] = UploadStatusNotUploaded
				case d == nil:
					booksRow[gstr.FieldUploadStatus] = UploadStatusUploaded
				default:
					booksRow[gstr.FieldUploadStatus] = UploadStatusMismatch
				}
			}
			if d != nil {
				reconciled[key] = d
			}
		}

		// reverse pass: gov-only keys
		for key, govRow := range govSub {
			if _, inBooks := booksSub[key]; inBooks {
				continue
			}
			reconciled[key] = Diff(r.settings, nil, govRow)
			if !r.Filed {
				if booksSub == nil {
					booksSub = make(gstr.SubcategoryData)
					books[sub] = booksSub
				}
				placeholder := ZeroTemplate(govRow)
				placeholder[gstr.FieldUploadStatus] = UploadStatusMissingInBooks
				booksSub[key] = placeholder
			}
		}

		if len(reconciled) > 0 {
			out[sub] = reconciled
		}
	}
	return out
}
