package documents

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements DocumentsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    user_id,
    file_name,
    storage_key,
    content_type,
    size_bytes,
    status,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	status := doc.Status
	if status == "" {
		status = StatusUploaded
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.UserID,
		doc.FileName,
		doc.StorageKey,
		doc.ContentType,
		doc.SizeBytes,
		string(status),
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return err
}

// GetByID fetches a document for a user. Extracted text is only read from the
// database when requested; history comes from the side table.
func (r *PGRepo) GetByID(ctx context.Context, userID, documentID string, opts GetOptions) (Document, error) {
	const query = `
SELECT id, user_id, file_name, storage_key, content_type, size_bytes, status,
       error_message,
       CASE WHEN $3 THEN extracted_text ELSE NULL END,
       word_count, ocr_confidence, text_truncated, summary, created_at, updated_at
FROM documents
WHERE user_id = $1 AND id = $2
LIMIT 1`

	var doc Document
	var errMsg sql.NullString
	var text sql.NullString
	var wordCount sql.NullInt64
	var confidence sql.NullFloat64
	var summary sql.NullString
	var status string
	err := r.DB.QueryRowContext(ctx, query, userID, documentID, opts.IncludeText).Scan(
		&doc.ID,
		&doc.UserID,
		&doc.FileName,
		&doc.StorageKey,
		&doc.ContentType,
		&doc.SizeBytes,
		&status,
		&errMsg,
		&text,
		&wordCount,
		&confidence,
		&doc.TextTruncated,
		&summary,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	doc.Status = Status(status)
	if errMsg.Valid {
		doc.ErrorMessage = errMsg.String
	}
	if text.Valid {
		doc.ExtractedText = text.String
	}
	if wordCount.Valid {
		doc.WordCount = int(wordCount.Int64)
	}
	if confidence.Valid {
		doc.OCRConfidence = confidence.Float64
	}
	if summary.Valid {
		doc.Summary = summary.String
	}

	if opts.IncludeHistory {
		history, err := r.queryHistory(ctx, documentID)
		if err != nil {
			return Document{}, err
		}
		doc.QueryHistory = history
	}
	return doc, nil
}

// ListByUser lists documents ordered newest-first, without large fields.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Document, error) {
	limit = clampLimit(limit)
	const query = `
SELECT id, user_id, file_name, storage_key, content_type, size_bytes, status,
       error_message, word_count, ocr_confidence, text_truncated, summary,
       created_at, updated_at
FROM documents
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var doc Document
		var errMsg sql.NullString
		var wordCount sql.NullInt64
		var confidence sql.NullFloat64
		var summary sql.NullString
		var status string
		if err := rows.Scan(
			&doc.ID,
			&doc.UserID,
			&doc.FileName,
			&doc.StorageKey,
			&doc.ContentType,
			&doc.SizeBytes,
			&status,
			&errMsg,
			&wordCount,
			&confidence,
			&doc.TextTruncated,
			&summary,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		); err != nil {
			return nil, err
		}
		doc.Status = Status(status)
		if errMsg.Valid {
			doc.ErrorMessage = errMsg.String
		}
		if wordCount.Valid {
			doc.WordCount = int(wordCount.Int64)
		}
		if confidence.Valid {
			doc.OCRConfidence = confidence.Float64
		}
		if summary.Valid {
			doc.Summary = summary.String
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Delete removes the metadata record. Query history cascades.
func (r *PGRepo) Delete(ctx context.Context, userID, documentID string) error {
	const query = `DELETE FROM documents WHERE user_id = $1 AND id = $2`
	res, err := r.DB.ExecContext(ctx, query, userID, documentID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// TransitionStatus applies a compare-and-swap status change.
func (r *PGRepo) TransitionStatus(ctx context.Context, userID, documentID string, from, to Status) error {
	const query = `
UPDATE documents
SET status = $4, updated_at = now()
WHERE user_id = $1 AND id = $2 AND status = $3`
	res, err := r.DB.ExecContext(ctx, query, userID, documentID, string(from), string(to))
	if err != nil {
		return err
	}
	return r.resolveConditional(ctx, userID, documentID, res, ErrStaleStatus)
}

// StoreExtraction persists OCR output, guarded on the PROCESSING status.
func (r *PGRepo) StoreExtraction(ctx context.Context, userID, documentID string, ext Extraction, truncatedStored bool) error {
	const query = `
UPDATE documents
SET extracted_text = $3,
    word_count = $4,
    ocr_confidence = $5,
    text_truncated = $6,
    status = $7,
    error_message = NULL,
    updated_at = now()
WHERE user_id = $1 AND id = $2 AND status = $8`
	res, err := r.DB.ExecContext(ctx, query,
		userID, documentID,
		ext.Text, ext.WordCount, ext.Confidence, truncatedStored,
		string(StatusExtracted), string(StatusProcessing),
	)
	if err != nil {
		return err
	}
	return r.resolveConditional(ctx, userID, documentID, res, ErrStaleStatus)
}

// StoreSummary persists the summary and completes the document.
func (r *PGRepo) StoreSummary(ctx context.Context, userID, documentID, summary string) error {
	const query = `
UPDATE documents
SET summary = $3, status = $4, updated_at = now()
WHERE user_id = $1 AND id = $2 AND status IN ($5, $4)`
	res, err := r.DB.ExecContext(ctx, query,
		userID, documentID, summary,
		string(StatusCompleted), string(StatusExtracted),
	)
	if err != nil {
		return err
	}
	return r.resolveConditional(ctx, userID, documentID, res, ErrStaleStatus)
}

// MarkFailed records a failure reason unless the document already finished.
func (r *PGRepo) MarkFailed(ctx context.Context, userID, documentID, reason string) error {
	const query = `
UPDATE documents
SET status = $3, error_message = $4, updated_at = now()
WHERE user_id = $1 AND id = $2 AND status NOT IN ($3, $5)`
	res, err := r.DB.ExecContext(ctx, query,
		userID, documentID,
		string(StatusFailed), reason, string(StatusCompleted),
	)
	if err != nil {
		return err
	}
	// Terminal documents are left untouched without error.
	return r.resolveConditional(ctx, userID, documentID, res, nil)
}

// AppendQuery appends one Q&A record, scoped to the owning user.
func (r *PGRepo) AppendQuery(ctx context.Context, userID, documentID string, rec QueryRecord) error {
	const query = `
INSERT INTO document_queries (document_id, question, answer, asked_at)
SELECT d.id, $3, $4, $5
FROM documents d
WHERE d.user_id = $1 AND d.id = $2`
	res, err := r.DB.ExecContext(ctx, query, userID, documentID, rec.Question, rec.Answer, rec.Timestamp)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) queryHistory(ctx context.Context, documentID string) ([]QueryRecord, error) {
	const query = `
SELECT question, answer, asked_at
FROM document_queries
WHERE document_id = $1
ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []QueryRecord
	for rows.Next() {
		var rec QueryRecord
		if err := rows.Scan(&rec.Question, &rec.Answer, &rec.Timestamp); err != nil {
			return nil, err
		}
		history = append(history, rec)
	}
	return history, rows.Err()
}

// resolveConditional maps a zero-row conditional update to either not-found
// or the supplied guard error, depending on whether the row exists at all.
func (r *PGRepo) resolveConditional(ctx context.Context, userID, documentID string, res sql.Result, guardErr error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	const existsQuery = `SELECT 1 FROM documents WHERE user_id = $1 AND id = $2 LIMIT 1`
	var one int
	err = r.DB.QueryRowContext(ctx, existsQuery, userID, documentID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return guardErr
}

var _ DocumentsRepo = (*PGRepo)(nil)
