package documents

import "context"

// GetOptions controls which large fields a read returns.
type GetOptions struct {
	IncludeText    bool
	IncludeHistory bool
}

// DocumentsRepo defines persistence operations for the document registry.
// Every operation is scoped to the owning user; a foreign document behaves
// exactly like a missing one.
type DocumentsRepo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, userID, documentID string, opts GetOptions) (Document, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Document, error)
	Delete(ctx context.Context, userID, documentID string) error

	// TransitionStatus moves a document from an observed status to a new one.
	// It fails with ErrStaleStatus when the stored status no longer matches.
	TransitionStatus(ctx context.Context, userID, documentID string, from, to Status) error

	// StoreExtraction persists OCR output and moves PROCESSING -> EXTRACTED.
	StoreExtraction(ctx context.Context, userID, documentID string, res Extraction, truncatedStored bool) error

	// StoreSummary persists the summary and moves the document to COMPLETED.
	StoreSummary(ctx context.Context, userID, documentID, summary string) error

	// MarkFailed records a failure reason; terminal documents are untouched.
	MarkFailed(ctx context.Context, userID, documentID, reason string) error

	// AppendQuery appends one record to the document's Q&A history.
	AppendQuery(ctx context.Context, userID, documentID string, rec QueryRecord) error
}
