package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of DocumentsRepo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]map[string]*Document // userId -> documentId -> document
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]map[string]*Document),
	}
}

// Create stores a new document record.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	byID, ok := r.data[doc.UserID]
	if !ok {
		byID = make(map[string]*Document)
		r.data[doc.UserID] = byID
	}
	stored := doc
	byID[doc.ID] = &stored
	return nil
}

// GetByID returns a document for a user, projecting large fields on request.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, documentID string, opts GetOptions) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[userID][documentID]
	if !ok {
		return Document{}, ErrNotFound
	}
	return project(*doc, opts), nil
}

// ListByUser returns documents for a user, newest first. Large fields are
// never included in listings.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)

	r.mu.RLock()
	byID := r.data[userID]
	docs := make([]Document, 0, len(byID))
	for _, doc := range byID {
		docs = append(docs, project(*doc, GetOptions{}))
	}
	r.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})

	if len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// Delete removes a document record.
func (r *MemoryRepo) Delete(ctx context.Context, userID, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[userID][documentID]; !ok {
		return ErrNotFound
	}
	delete(r.data[userID], documentID)
	return nil
}

// TransitionStatus applies a compare-and-swap status change.
func (r *MemoryRepo) TransitionStatus(ctx context.Context, userID, documentID string, from, to Status) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[userID][documentID]
	if !ok {
		return ErrNotFound
	}
	if doc.Status != from {
		return ErrStaleStatus
	}
	doc.Status = to
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

// StoreExtraction persists OCR output, guarded on the PROCESSING status.
func (r *MemoryRepo) StoreExtraction(ctx context.Context, userID, documentID string, res Extraction, truncatedStored bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[userID][documentID]
	if !ok {
		return ErrNotFound
	}
	if doc.Status != StatusProcessing {
		return ErrStaleStatus
	}
	doc.ExtractedText = res.Text
	doc.WordCount = res.WordCount
	doc.OCRConfidence = res.Confidence
	doc.TextTruncated = truncatedStored
	doc.Status = StatusExtracted
	doc.ErrorMessage = ""
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

// StoreSummary persists the summary and completes the document.
func (r *MemoryRepo) StoreSummary(ctx context.Context, userID, documentID, summary string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[userID][documentID]
	if !ok {
		return ErrNotFound
	}
	if doc.Status != StatusExtracted && doc.Status != StatusCompleted {
		return ErrStaleStatus
	}
	doc.Summary = summary
	doc.Status = StatusCompleted
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkFailed records a failure reason unless the document already finished.
func (r *MemoryRepo) MarkFailed(ctx context.Context, userID, documentID, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[userID][documentID]
	if !ok {
		return ErrNotFound
	}
	if doc.Status.Terminal() {
		return nil
	}
	doc.Status = StatusFailed
	doc.ErrorMessage = reason
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

// AppendQuery appends one Q&A record to the document's history.
func (r *MemoryRepo) AppendQuery(ctx context.Context, userID, documentID string, rec QueryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[userID][documentID]
	if !ok {
		return ErrNotFound
	}
	doc.QueryHistory = append(doc.QueryHistory, rec)
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

func project(doc Document, opts GetOptions) Document {
	if !opts.IncludeText {
		doc.ExtractedText = ""
	}
	if !opts.IncludeHistory {
		doc.QueryHistory = nil
	} else if doc.QueryHistory != nil {
		history := make([]QueryRecord, len(doc.QueryHistory))
		copy(history, doc.QueryHistory)
		doc.QueryHistory = history
	}
	return doc
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 100 {
		return 100
	}
	return limit
}

var _ DocumentsRepo = (*MemoryRepo)(nil)
