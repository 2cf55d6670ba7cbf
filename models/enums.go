package models

// ReturnType is the statutory return a log belongs to.
type ReturnType string

const (
	ReturnTypeGSTR1  ReturnType = "GSTR-1"
	ReturnTypeGSTR2A ReturnType = "GSTR-2A"
	ReturnTypeGSTR2B ReturnType = "GSTR-2B"
)

// FilingStatus of one (gstin, period) return.
type FilingStatus string

const (
	FilingStatusNotFiled FilingStatus = "Not Filed"
	FilingStatusFiled    FilingStatus = "Filed"
)

// BlobKind names one persisted JSON blob of a return log.
type BlobKind string

const (
	BlobBooks            BlobKind = "books"
	BlobFiled            BlobKind = "filed"
	BlobUnfiled          BlobKind = "unfiled"
	BlobReconcile        BlobKind = "reconcile"
	BlobBooksSummary     BlobKind = "books_summary"
	BlobFiledSummary     BlobKind = "filed_summary"
	BlobUnfiledSummary   BlobKind = "unfiled_summary"
	BlobReconcileSummary BlobKind = "reconcile_summary"
)

// reconInputKinds are the blob kinds whose write invalidates the
// cached reconciliation.
var reconInputKinds = map[BlobKind]bool{
	BlobBooks:   true,
	BlobFiled:   true,
	BlobUnfiled: true,
}

// InwardMatchStatus is the persisted purchase link state on an inward
// supply row.
type InwardMatchStatus string

const (
	InwardMatchExact     InwardMatchStatus = "Exact Match"
	InwardMatchSuggested InwardMatchStatus = "Suggested Match"
	InwardMatchMismatch  InwardMatchStatus = "Mismatch"
	InwardMatchResidual  InwardMatchStatus = "Residual Match"
	InwardMatchManual    InwardMatchStatus = "Manual Match"
	InwardMatchUnmatched InwardMatchStatus = "Unmatched"
)
