package local

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"documind-backend/internal/ocr"
	localstore "documind-backend/internal/shared/storage/object/local"
)

func newEngine(t *testing.T) (*Engine, *localstore.Store) {
	t.Helper()
	store := localstore.New(t.TempDir())
	return New(store), store
}

func put(t *testing.T, store *localstore.Store, key, contentType string, data []byte) {
	t.Helper()
	if _, err := store.SaveWithKey(context.Background(), key, contentType, bytes.NewReader(data)); err != nil {
		t.Fatalf("save %s: %v", key, err)
	}
}

func TestDetectTextPlain(t *testing.T) {
	engine, store := newEngine(t)
	put(t, store, "documents/u/plain.txt", "text/plain", []byte("hello plain world\nsecond line"))

	res, err := engine.DetectText(context.Background(), "documents/u/plain.txt", "text/plain")
	if err != nil {
		t.Fatalf("DetectText: %v", err)
	}
	if res.WordCount != 5 {
		t.Fatalf("expected 5 words, got %d", res.WordCount)
	}
	if res.LineCount != 2 {
		t.Fatalf("expected 2 lines, got %d", res.LineCount)
	}
	if res.Confidence != 100 {
		t.Fatalf("expected confidence 100, got %f", res.Confidence)
	}
}

func TestDetectTextPlainWithCharset(t *testing.T) {
	engine, store := newEngine(t)
	put(t, store, "documents/u/a.txt", "text/plain", []byte("one two"))

	res, err := engine.DetectText(context.Background(), "documents/u/a.txt", "text/plain; charset=utf-8")
	if err != nil {
		t.Fatalf("DetectText with charset param: %v", err)
	}
	if res.WordCount != 2 {
		t.Fatalf("expected 2 words, got %d", res.WordCount)
	}
}

func TestDetectTextDocx(t *testing.T) {
	engine, store := newEngine(t)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	doc := `<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>First paragraph</w:t></w:r></w:p><w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p></w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}

	const mime = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	put(t, store, "documents/u/d.docx", mime, buf.Bytes())

	res, err := engine.DetectText(context.Background(), "documents/u/d.docx", mime)
	if err != nil {
		t.Fatalf("DetectText docx: %v", err)
	}
	if !strings.Contains(res.Text, "First paragraph") || !strings.Contains(res.Text, "Second paragraph") {
		t.Fatalf("docx text missing paragraphs: %q", res.Text)
	}
	if res.WordCount != 4 {
		t.Fatalf("expected 4 words, got %d", res.WordCount)
	}
}

func TestDetectTextEmptyDocument(t *testing.T) {
	engine, store := newEngine(t)
	put(t, store, "documents/u/empty.txt", "text/plain", []byte("   \n  "))

	_, err := engine.DetectText(context.Background(), "documents/u/empty.txt", "text/plain")
	if !errors.Is(err, ocr.ErrEmptyOutput) {
		t.Fatalf("expected ErrEmptyOutput, got %v", err)
	}
}

func TestDetectTextUnsupportedMime(t *testing.T) {
	engine, store := newEngine(t)
	put(t, store, "documents/u/img.png", "image/png", []byte{0x89, 0x50, 0x4e, 0x47})

	_, err := engine.DetectText(context.Background(), "documents/u/img.png", "image/png")
	if err == nil {
		t.Fatalf("expected error for image input on the local engine")
	}
}

func TestDetectTextMissingKey(t *testing.T) {
	engine, _ := newEngine(t)

	_, err := engine.DetectText(context.Background(), "documents/u/missing.txt", "text/plain")
	if err == nil {
		t.Fatalf("expected error for missing object")
	}
}
