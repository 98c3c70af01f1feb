package queries

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"documind-backend/internal/documents"
	"documind-backend/internal/llm"
	"documind-backend/internal/shared/telemetry"
)

// ErrUpstream wraps model-provider failures.
var ErrUpstream = errors.New("query failed upstream")

// MaxQuestionChars bounds a single question.
const MaxQuestionChars = 1000

// Service answers questions over a document's extracted text. Each call is
// independent; there is no conversation memory beyond the stored history.
type Service struct {
	Repo     documents.DocumentsRepo
	LLM      llm.Client
	MaxChars int
	Timeout  time.Duration
}

// Result carries one answered question.
type Result struct {
	DocumentID string
	Question   string
	Answer     string
	Confidence string
	Truncated  bool
	Timestamp  time.Time
}

// Ask answers question against the document and appends the exchange to its
// query history.
func (s *Service) Ask(ctx context.Context, userID, documentID, question string) (Result, error) {
	if userID == "" || documentID == "" {
		return Result{}, documents.ErrInvalidInput
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return Result{}, fmt.Errorf("%w: question is required", documents.ErrInvalidInput)
	}
	if utf8.RuneCountInString(question) > MaxQuestionChars {
		return Result{}, fmt.Errorf("%w: question exceeds %d characters", documents.ErrInvalidInput, MaxQuestionChars)
	}

	doc, err := s.Repo.GetByID(ctx, userID, documentID, documents.GetOptions{IncludeText: true})
	if err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(doc.ExtractedText) == "" {
		return Result{}, documents.ErrNoText
	}

	text, truncated := llm.Truncate(doc.ExtractedText, s.MaxChars)

	llmCtx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	out, err := s.LLM.Complete(llmCtx, llm.AnswerRequest(text, question))
	if err != nil {
		telemetry.Error("queries.llm.failed", map[string]any{
			"document_id": documentID,
			"err":         err.Error(),
		})
		return Result{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	answer := strings.TrimSpace(out)

	rec := documents.QueryRecord{
		Question:  question,
		Answer:    answer,
		Timestamp: time.Now().UTC(),
	}
	// A dropped history row would break the audit trail, so the request
	// fails rather than returning an unrecorded answer.
	if err := s.Repo.AppendQuery(ctx, userID, documentID, rec); err != nil {
		telemetry.Error("queries.append.failed", map[string]any{
			"document_id": documentID,
			"err":         err.Error(),
		})
		return Result{}, fmt.Errorf("append query history: %w", err)
	}

	return Result{
		DocumentID: documentID,
		Question:   question,
		Answer:     answer,
		Confidence: llm.AnswerConfidence(answer),
		Truncated:  truncated,
		Timestamp:  rec.Timestamp,
	}, nil
}

func (s *Service) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return 120 * time.Second
}
