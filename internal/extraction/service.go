package extraction

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"documind-backend/internal/documents"
	"documind-backend/internal/ocr"
	"documind-backend/internal/shared/telemetry"
)

// ErrUpstream wraps OCR engine failures so handlers can report one stable
// error code without leaking the provider.
var ErrUpstream = errors.New("text extraction failed upstream")

// ErrInProgress signals a concurrent extraction already holds the document.
var ErrInProgress = errors.New("extraction already in progress")

// Service drives OCR extraction over the document registry.
type Service struct {
	Repo           documents.DocumentsRepo
	Engine         ocr.Engine
	Timeout        time.Duration
	MinConfidence  float64
	MaxStoredChars int
}

// Result is the outcome of an extract call.
type Result struct {
	DocumentID string
	Status     documents.Status
	WordCount  int
	Confidence float64
	Truncated  bool
	Cached     bool
}

// Extract runs OCR for the document unless usable text is already stored.
// Force re-runs extraction over a finished, failed, or stuck document. Exactly one
// caller wins the move into PROCESSING; everyone else observes
// ErrInProgress or documents.ErrStaleStatus.
func (s *Service) Extract(ctx context.Context, userID, documentID string, force bool) (Result, error) {
	if userID == "" || documentID == "" {
		return Result{}, documents.ErrInvalidInput
	}

	doc, err := s.Repo.GetByID(ctx, userID, documentID, documents.GetOptions{IncludeText: true})
	if err != nil {
		return Result{}, err
	}

	if doc.ExtractedText != "" && !force {
		return Result{
			DocumentID: doc.ID,
			Status:     doc.Status,
			WordCount:  doc.WordCount,
			Confidence: doc.OCRConfidence,
			Truncated:  doc.TextTruncated,
			Cached:     true,
		}, nil
	}

	// Force may reclaim a document stuck in PROCESSING, e.g. after a crash
	// between the status move and the extraction write.
	if doc.Status == documents.StatusProcessing && !force {
		return Result{}, ErrInProgress
	}

	if err := s.Repo.TransitionStatus(ctx, userID, documentID, doc.Status, documents.StatusProcessing); err != nil {
		return Result{}, err
	}

	ocrCtx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	res, err := s.Engine.DetectText(ocrCtx, doc.StorageKey, doc.ContentType)
	if err != nil {
		return Result{}, s.fail(ctx, userID, documentID, fmt.Errorf("ocr: %w", err))
	}
	if res.Text == "" {
		return Result{}, s.fail(ctx, userID, documentID, errors.New("ocr produced no text"))
	}
	if s.MinConfidence > 0 && res.Confidence < s.MinConfidence {
		return Result{}, s.fail(ctx, userID, documentID,
			fmt.Errorf("ocr confidence %.1f below floor %.1f", res.Confidence, s.MinConfidence))
	}

	extraction := documents.Extraction{
		Text:       res.Text,
		WordCount:  res.WordCount,
		Confidence: res.Confidence,
	}
	truncated := false
	if s.MaxStoredChars > 0 && len(extraction.Text) > s.MaxStoredChars {
		cut := s.MaxStoredChars
		// Never split a rune: a torn trailing byte would store invalid UTF-8.
		for cut > 0 && !utf8.RuneStart(extraction.Text[cut]) {
			cut--
		}
		extraction.Text = extraction.Text[:cut]
		truncated = true
	}

	if err := s.Repo.StoreExtraction(ctx, userID, documentID, extraction, truncated); err != nil {
		if errors.Is(err, documents.ErrNotFound) || errors.Is(err, documents.ErrStaleStatus) {
			return Result{}, err
		}
		// Anything else leaves the document in PROCESSING, so mark it FAILED
		// rather than stranding it there.
		return Result{}, s.fail(ctx, userID, documentID, fmt.Errorf("store extraction: %w", err))
	}

	telemetry.Info("extraction.completed", map[string]any{
		"document_id": documentID,
		"word_count":  res.WordCount,
		"confidence":  res.Confidence,
		"truncated":   truncated,
	})

	return Result{
		DocumentID: documentID,
		Status:     documents.StatusExtracted,
		WordCount:  res.WordCount,
		Confidence: res.Confidence,
		Truncated:  truncated,
	}, nil
}

// fail records the reason on the document and reports an upstream error.
// Marking uses a detached timeout so a dead request context cannot strand
// the document in PROCESSING.
func (s *Service) fail(ctx context.Context, userID, documentID string, cause error) error {
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.Repo.MarkFailed(markCtx, userID, documentID, cause.Error()); err != nil {
		telemetry.Error("extraction.mark_failed.error", map[string]any{
			"document_id": documentID,
			"err":         err.Error(),
		})
	}
	telemetry.Error("extraction.failed", map[string]any{
		"document_id": documentID,
		"err":         cause.Error(),
	})
	return fmt.Errorf("%w: %v", ErrUpstream, cause)
}

func (s *Service) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return 120 * time.Second
}
