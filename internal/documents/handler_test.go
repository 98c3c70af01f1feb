package documents_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"documind-backend/internal/bootstrap"
	"documind-backend/internal/shared/config"
)

func newTestApp(t *testing.T) *bootstrap.App {
	t.Helper()
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
	return app
}

// uploadDocument pushes a document through presign, direct put, and confirm,
// returning its id.
func uploadDocument(t *testing.T, app *bootstrap.App, userID, filename, content string) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/upload?filename="+filename+"&contentType=text/plain", nil)
	req.Header.Set("X-User-Id", userID)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
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

	putReq := httptest.NewRequest(http.MethodPut, presign.UploadURL, bytes.NewReader([]byte(content)))
	putReq.Header.Set("Content-Type", "text/plain")
	putReq.Header.Set("X-User-Id", userID)
	putResp := httptest.NewRecorder()
	app.Router.ServeHTTP(putResp, putReq)
	if putResp.Code != http.StatusOK {
		t.Fatalf("direct put: %d: %s", putResp.Code, putResp.Body.String())
	}

	payload, _ := json.Marshal(map[string]any{
		"documentId":  presign.DocumentID,
		"storageKey":  presign.StorageKey,
		"filename":    filename,
		"contentType": "text/plain",
		"fileSize":    len(content),
	})
	confirmReq := httptest.NewRequest(http.MethodPost, "/api/v1/upload", bytes.NewReader(payload))
	confirmReq.Header.Set("Content-Type", "application/json")
	confirmReq.Header.Set("X-User-Id", userID)
	confirmResp := httptest.NewRecorder()
	app.Router.ServeHTTP(confirmResp, confirmReq)
	if confirmResp.Code != http.StatusCreated {
		t.Fatalf("confirm: %d: %s", confirmResp.Code, confirmResp.Body.String())
	}

	return presign.DocumentID
}

func TestListDocuments(t *testing.T) {
	app := newTestApp(t)
	uploadDocument(t, app, "alice", "one.txt", "first document")
	uploadDocument(t, app, "alice", "two.txt", "second document")
	uploadDocument(t, app, "bob", "other.txt", "bob document")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	req.Header.Set("X-User-Id", "alice")
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body struct {
		Documents []struct {
			DocumentID string `json:"documentId"`
			Status     string `json:"status"`
		} `json:"documents"`
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 2 || len(body.Documents) != 2 {
		t.Fatalf("expected 2 documents for alice, got count=%d len=%d", body.Count, len(body.Documents))
	}
}

func TestGetDocumentCrossTenantIs404(t *testing.T) {
	app := newTestApp(t)
	docID := uploadDocument(t, app, "alice", "secret.txt", "private content")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+docID, nil)
	req.Header.Set("X-User-Id", "bob")
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign document, got %d", resp.Code)
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "not_found" {
		t.Fatalf("expected not_found code, got %s", body.Error)
	}
}

func TestGetDocumentProjection(t *testing.T) {
	app := newTestApp(t)
	docID := uploadDocument(t, app, "alice", "a.txt", "some text content")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+docID, nil)
	req.Header.Set("X-User-Id", "alice")
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body struct {
		Document struct {
			DocumentID    string  `json:"documentId"`
			Status        string  `json:"status"`
			ExtractedText *string `json:"extractedText"`
		} `json:"document"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Document.DocumentID != docID || body.Document.Status != "UPLOADED" {
		t.Fatalf("unexpected document: %+v", body.Document)
	}
	if body.Document.ExtractedText != nil && *body.Document.ExtractedText != "" {
		t.Fatalf("extracted text must not be returned by default")
	}
}

func TestDeleteDocument(t *testing.T) {
	app := newTestApp(t)
	docID := uploadDocument(t, app, "alice", "gone.txt", "delete me")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+docID, nil)
	req.Header.Set("X-User-Id", "alice")
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	// The document is gone afterwards.
	getReq := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+docID, nil)
	getReq.Header.Set("X-User-Id", "alice")
	getResp := httptest.NewRecorder()
	app.Router.ServeHTTP(getResp, getReq)
	if getResp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", getResp.Code)
	}

	// Deleting again reports not found.
	againReq := httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+docID, nil)
	againReq.Header.Set("X-User-Id", "alice")
	againResp := httptest.NewRecorder()
	app.Router.ServeHTTP(againResp, againReq)
	if againResp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for double delete, got %d", againResp.Code)
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPatch, "/api/v1/documents", nil)
	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for bad method, got %d", resp.Code)
	}
}
