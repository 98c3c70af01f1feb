package summaries

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"documind-backend/internal/documents"
	"documind-backend/internal/llm"
	"documind-backend/internal/shared/telemetry"
)

// ErrUpstream wraps model-provider failures.
var ErrUpstream = errors.New("summarization failed upstream")

const (
	defaultMaxLength    = 500
	defaultNumQuestions = 5
)

// Service produces document summaries, structured entities and suggested
// questions over extracted text.
type Service struct {
	Repo     documents.DocumentsRepo
	LLM      llm.Client
	MaxChars int
	Timeout  time.Duration
}

// Options selects what a summarize call computes.
type Options struct {
	Entities  bool
	Questions bool
	MaxLength int
	Force     bool
}

// Result carries the summarize outcome.
type Result struct {
	DocumentID string
	Summary    string
	Entities   *llm.Entities
	Questions  []string
	Cached     bool
	Truncated  bool
	Status     documents.Status
}

// Summarize returns a summary for the document, generating one when absent
// or forced. Entities and suggested questions are computed on demand and
// never cached. The stored summary moves the document to COMPLETED.
func (s *Service) Summarize(ctx context.Context, userID, documentID string, opts Options) (Result, error) {
	if userID == "" || documentID == "" {
		return Result{}, documents.ErrInvalidInput
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = defaultMaxLength
	}

	doc, err := s.Repo.GetByID(ctx, userID, documentID, documents.GetOptions{IncludeText: true})
	if err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(doc.ExtractedText) == "" {
		return Result{}, documents.ErrNoText
	}

	if doc.Summary != "" && !opts.Force && !opts.Entities && !opts.Questions {
		return Result{
			DocumentID: doc.ID,
			Summary:    doc.Summary,
			Cached:     true,
			Status:     doc.Status,
		}, nil
	}

	text, truncated := llm.Truncate(doc.ExtractedText, s.MaxChars)

	llmCtx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	summary := doc.Summary
	if summary == "" || opts.Force {
		out, err := s.LLM.Complete(llmCtx, llm.SummaryRequest(text, opts.MaxLength))
		if err != nil {
			return Result{}, s.upstream(documentID, "summary", err)
		}
		summary = strings.TrimSpace(out)

		if err := s.Repo.StoreSummary(ctx, userID, documentID, summary); err != nil {
			return Result{}, err
		}
	}

	res := Result{
		DocumentID: doc.ID,
		Summary:    summary,
		Truncated:  truncated,
		Status:     documents.StatusCompleted,
	}

	if opts.Entities {
		out, err := s.LLM.Complete(llmCtx, llm.EntitiesRequest(text))
		if err != nil {
			return Result{}, s.upstream(documentID, "entities", err)
		}
		parsed := llm.ParseEntities(out)
		res.Entities = &parsed
	}

	if opts.Questions {
		out, err := s.LLM.Complete(llmCtx, llm.QuestionsRequest(text, defaultNumQuestions))
		if err != nil {
			return Result{}, s.upstream(documentID, "questions", err)
		}
		res.Questions = llm.ParseQuestions(out, defaultNumQuestions)
	}

	return res, nil
}

func (s *Service) upstream(documentID, stage string, err error) error {
	telemetry.Error("summaries.llm.failed", map[string]any{
		"document_id": documentID,
		"stage":       stage,
		"err":         err.Error(),
	})
	return fmt.Errorf("%w: %s: %v", ErrUpstream, stage, err)
}

func (s *Service) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return 120 * time.Second
}
