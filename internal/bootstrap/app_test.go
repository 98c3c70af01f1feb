package bootstrap_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"documind-backend/internal/bootstrap"
	"documind-backend/internal/llm"
	"documind-backend/internal/shared/config"
)

type scriptedLLM struct{}

func (scriptedLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	switch {
	case strings.Contains(req.Prompt, "summary of the following document"):
		return "A short summary of the uploaded notes.", nil
	case strings.Contains(req.Prompt, "Extract key entities"):
		return `{"people": [], "organizations": ["Acme"], "dates": [], "locations": [], "monetary_values": [], "key_terms": ["renewal"]}`, nil
	case strings.Contains(req.Prompt, "thoughtful questions"):
		return "1. What does the document cover?\n2. Who wrote it?", nil
	case strings.Contains(req.Prompt, "answer the question"):
		return "The renewal term is one year.", nil
	default:
		return "", errors.New("unexpected prompt")
	}
}

func do(t *testing.T, router *gin.Engine, method, target string, body []byte, userID string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-User-Id", userID)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestDocumentLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	app, err := bootstrap.Build(config.Config{
		Env:             "dev",
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		CORSAllowOrigin: []string{"http://localhost:5173"},
	})
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	app.SummariesService.LLM = scriptedLLM{}
	app.QueriesService.LLM = scriptedLLM{}
	router := app.Router

	const user = "lifecycle-user"
	content := "These notes describe the Acme renewal terms in detail."

	// Presign.
	resp := do(t, router, http.MethodGet, "/api/v1/upload?filename=notes.txt&contentType=text/plain", nil, user)
	if resp.Code != http.StatusOK {
		t.Fatalf("presign: %d: %s", resp.Code, resp.Body.String())
	}
	var presign struct {
		UploadURL  string `json:"uploadUrl"`
		DocumentID string `json:"documentId"`
		StorageKey string `json:"storageKey"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&presign); err != nil {
		t.Fatalf("decode presign: %v", err)
	}

	// Upload bytes.
	putReq := httptest.NewRequest(http.MethodPut, presign.UploadURL, strings.NewReader(content))
	putReq.Header.Set("Content-Type", "text/plain")
	putReq.Header.Set("X-User-Id", user)
	putResp := httptest.NewRecorder()
	router.ServeHTTP(putResp, putReq)
	if putResp.Code != http.StatusOK {
		t.Fatalf("direct put: %d: %s", putResp.Code, putResp.Body.String())
	}

	// Confirm.
	confirmPayload, _ := json.Marshal(map[string]any{
		"documentId":  presign.DocumentID,
		"storageKey":  presign.StorageKey,
		"filename":    "notes.txt",
		"contentType": "text/plain",
		"fileSize":    len(content),
	})
	resp = do(t, router, http.MethodPost, "/api/v1/upload", confirmPayload, user)
	if resp.Code != http.StatusCreated {
		t.Fatalf("confirm: %d: %s", resp.Code, resp.Body.String())
	}
	docPath := "/api/v1/documents/" + presign.DocumentID

	// Summarize before extraction must fail with the precondition code.
	resp = do(t, router, http.MethodGet, docPath+"/summarize", nil, user)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("summarize precondition: expected 400, got %d", resp.Code)
	}
	var errBody struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errBody); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if errBody.Error != "text_not_extracted" {
		t.Fatalf("expected text_not_extracted, got %s", errBody.Error)
	}

	// Extract.
	resp = do(t, router, http.MethodPost, docPath+"/extract", []byte(`{}`), user)
	if resp.Code != http.StatusOK {
		t.Fatalf("extract: %d: %s", resp.Code, resp.Body.String())
	}
	var extracted struct {
		Status    string `json:"status"`
		WordCount int    `json:"wordCount"`
		Cached    bool   `json:"cached"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&extracted); err != nil {
		t.Fatalf("decode extract: %v", err)
	}
	if extracted.Status != "EXTRACTED" || extracted.WordCount == 0 || extracted.Cached {
		t.Fatalf("unexpected extract result: %+v", extracted)
	}

	// A repeat extract hits the cache.
	resp = do(t, router, http.MethodPost, docPath+"/extract", []byte(`{}`), user)
	if resp.Code != http.StatusOK {
		t.Fatalf("re-extract: %d", resp.Code)
	}
	if err := json.NewDecoder(resp.Body).Decode(&extracted); err != nil {
		t.Fatalf("decode re-extract: %v", err)
	}
	if !extracted.Cached {
		t.Fatalf("expected cached re-extract, got %+v", extracted)
	}

	// Summarize with entities and questions.
	resp = do(t, router, http.MethodGet, docPath+"/summarize?entities=true&questions=true", nil, user)
	if resp.Code != http.StatusOK {
		t.Fatalf("summarize: %d: %s", resp.Code, resp.Body.String())
	}
	var summarized struct {
		Summary   string   `json:"summary"`
		Status    string   `json:"status"`
		Questions []string `json:"suggestedQuestions"`
		Entities  *struct {
			Organizations []string `json:"organizations"`
		} `json:"entities"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&summarized); err != nil {
		t.Fatalf("decode summarize: %v", err)
	}
	if summarized.Summary == "" || summarized.Status != "COMPLETED" {
		t.Fatalf("unexpected summarize result: %+v", summarized)
	}
	if summarized.Entities == nil || len(summarized.Entities.Organizations) != 1 {
		t.Fatalf("entities missing: %+v", summarized.Entities)
	}
	if len(summarized.Questions) != 2 {
		t.Fatalf("expected 2 suggested questions, got %v", summarized.Questions)
	}

	// Query.
	queryPayload, _ := json.Marshal(map[string]string{"question": "What is the renewal term?"})
	resp = do(t, router, http.MethodPost, docPath+"/query", queryPayload, user)
	if resp.Code != http.StatusOK {
		t.Fatalf("query: %d: %s", resp.Code, resp.Body.String())
	}
	var answered struct {
		Answer     string `json:"answer"`
		Confidence string `json:"confidence"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&answered); err != nil {
		t.Fatalf("decode query: %v", err)
	}
	if answered.Answer == "" || answered.Confidence != "high" {
		t.Fatalf("unexpected query result: %+v", answered)
	}

	// The history shows up on a full read.
	resp = do(t, router, http.MethodGet, docPath+"?includeHistory=true", nil, user)
	if resp.Code != http.StatusOK {
		t.Fatalf("get with history: %d", resp.Code)
	}
	var fetched struct {
		Document struct {
			QueryHistory []struct {
				Question string `json:"question"`
			} `json:"queryHistory"`
		} `json:"document"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&fetched); err != nil {
		t.Fatalf("decode get: %v", err)
	}
	if len(fetched.Document.QueryHistory) != 1 {
		t.Fatalf("expected 1 history record, got %d", len(fetched.Document.QueryHistory))
	}

	// Delete, then confirm it is gone.
	resp = do(t, router, http.MethodDelete, docPath, nil, user)
	if resp.Code != http.StatusOK {
		t.Fatalf("delete: %d: %s", resp.Code, resp.Body.String())
	}
	resp = do(t, router, http.MethodGet, docPath, nil, user)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.Code)
	}
}
