package queries

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"documind-backend/internal/documents"
	"documind-backend/internal/llm"
)

type stubLLM struct {
	answer string
	err    error
	calls  int
}

func (s *stubLLM) Complete(_ context.Context, _ llm.Request) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func seedExtracted(t *testing.T) *documents.MemoryRepo {
	t.Helper()
	repo := documents.NewMemoryRepo()
	ctx := context.Background()
	err := repo.Create(ctx, documents.Document{
		ID:         "doc-1",
		UserID:     "user-1",
		StorageKey: "documents/x/doc-1",
		Status:     documents.StatusProcessing,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := repo.StoreExtraction(ctx, "user-1", "doc-1",
		documents.Extraction{Text: "the term is two years", WordCount: 5, Confidence: 95}, false); err != nil {
		t.Fatalf("seed extraction: %v", err)
	}
	return repo
}

func TestAskValidation(t *testing.T) {
	svc := &Service{Repo: documents.NewMemoryRepo(), LLM: &stubLLM{}}

	if _, err := svc.Ask(context.Background(), "user-1", "doc-1", "   "); !errors.Is(err, documents.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty question, got %v", err)
	}

	long := strings.Repeat("q", MaxQuestionChars+1)
	if _, err := svc.Ask(context.Background(), "user-1", "doc-1", long); !errors.Is(err, documents.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for oversized question, got %v", err)
	}
}

func TestAskQuestionCapCountsRunes(t *testing.T) {
	repo := seedExtracted(t)
	svc := &Service{Repo: repo, LLM: &stubLLM{answer: "Two years."}}

	// Exactly at the cap in runes, well over it in bytes.
	atCap := strings.Repeat("é", MaxQuestionChars)
	if _, err := svc.Ask(context.Background(), "user-1", "doc-1", atCap); err != nil {
		t.Fatalf("question at the rune cap must pass validation: %v", err)
	}

	over := strings.Repeat("é", MaxQuestionChars+1)
	if _, err := svc.Ask(context.Background(), "user-1", "doc-1", over); !errors.Is(err, documents.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput one rune over the cap, got %v", err)
	}
}

func TestAskRequiresExtractedText(t *testing.T) {
	repo := documents.NewMemoryRepo()
	_ = repo.Create(context.Background(), documents.Document{
		ID: "doc-1", UserID: "user-1", Status: documents.StatusUploaded,
	})
	svc := &Service{Repo: repo, LLM: &stubLLM{}}

	_, err := svc.Ask(context.Background(), "user-1", "doc-1", "what is the term?")
	if !errors.Is(err, documents.ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}

func TestAskAnswersAndAppendsHistory(t *testing.T) {
	repo := seedExtracted(t)
	svc := &Service{Repo: repo, LLM: &stubLLM{answer: "The term is two years."}}

	for i := 0; i < 3; i++ {
		res, err := svc.Ask(context.Background(), "user-1", "doc-1", "what is the term?")
		if err != nil {
			t.Fatalf("Ask %d: %v", i, err)
		}
		if res.Answer != "The term is two years." || res.Confidence != "high" {
			t.Fatalf("unexpected result: %+v", res)
		}
	}

	doc, _ := repo.GetByID(context.Background(), "user-1", "doc-1", documents.GetOptions{IncludeHistory: true})
	if len(doc.QueryHistory) != 3 {
		t.Fatalf("expected 3 history records, got %d", len(doc.QueryHistory))
	}
	if doc.QueryHistory[0].Question != "what is the term?" {
		t.Fatalf("history record malformed: %+v", doc.QueryHistory[0])
	}
}

func TestAskConfidenceClassification(t *testing.T) {
	cases := []struct {
		answer string
		want   string
	}{
		{"The term is two years.", "high"},
		{"It may be two years, depending on renewal.", "medium"},
		{"The parties might renew annually.", "medium"},
		{"I couldn't find this information in the document.", "low"},
		{"That detail was not found in the provided text.", "low"},
	}

	for _, tc := range cases {
		repo := seedExtracted(t)
		svc := &Service{Repo: repo, LLM: &stubLLM{answer: tc.answer}}
		res, err := svc.Ask(context.Background(), "user-1", "doc-1", "what is the term?")
		if err != nil {
			t.Fatalf("Ask(%q): %v", tc.answer, err)
		}
		if res.Confidence != tc.want {
			t.Fatalf("answer %q: expected confidence %s, got %s", tc.answer, tc.want, res.Confidence)
		}
	}
}

type appendFailRepo struct {
	*documents.MemoryRepo
}

func (r *appendFailRepo) AppendQuery(_ context.Context, _, _ string, _ documents.QueryRecord) error {
	return errors.New("disk full")
}

func TestAskFailsWhenHistoryWriteFails(t *testing.T) {
	repo := &appendFailRepo{MemoryRepo: seedExtracted(t)}
	svc := &Service{Repo: repo, LLM: &stubLLM{answer: "Two years."}}

	_, err := svc.Ask(context.Background(), "user-1", "doc-1", "what is the term?")
	if err == nil {
		t.Fatalf("expected error when the history write fails")
	}

	doc, _ := repo.GetByID(context.Background(), "user-1", "doc-1", documents.GetOptions{IncludeHistory: true})
	if len(doc.QueryHistory) != 0 {
		t.Fatalf("no history must be recorded, got %d records", len(doc.QueryHistory))
	}
}

func TestAskUpstreamFailure(t *testing.T) {
	repo := seedExtracted(t)
	svc := &Service{Repo: repo, LLM: &stubLLM{err: errors.New("model unavailable")}}

	_, err := svc.Ask(context.Background(), "user-1", "doc-1", "what is the term?")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}

	doc, _ := repo.GetByID(context.Background(), "user-1", "doc-1", documents.GetOptions{IncludeHistory: true})
	if len(doc.QueryHistory) != 0 {
		t.Fatalf("failed call must not append history, got %d records", len(doc.QueryHistory))
	}
}
