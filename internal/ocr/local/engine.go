package local

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"documind-backend/internal/ocr"
	"documind-backend/internal/shared/storage/object"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeText = "text/plain"
)

// Engine is a development OCR engine that parses machine-readable formats
// directly from the object store. Scanned images need a real OCR backend.
type Engine struct {
	store object.ObjectStore
}

// New creates a local engine reading from the given store.
func New(store object.ObjectStore) *Engine {
	return &Engine{store: store}
}

// DetectText pulls the stored bytes and extracts their text.
func (e *Engine) DetectText(ctx context.Context, storageKey string, contentType string) (ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}

	body, err := e.store.Open(ctx, storageKey)
	if err != nil {
		return ocr.Result{}, fmt.Errorf("local ocr key=%s: %w", storageKey, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return ocr.Result{}, fmt.Errorf("local ocr key=%s: read: %w", storageKey, err)
	}

	text, err := extractBytes(raw, contentType)
	if err != nil {
		return ocr.Result{}, fmt.Errorf("local ocr key=%s mime=%s: %w", storageKey, contentType, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return ocr.Result{}, ocr.ErrEmptyOutput
	}

	return ocr.Result{
		Text:       text,
		LineCount:  len(strings.Split(text, "\n")),
		WordCount:  ocr.CountWords(text),
		Confidence: 100,
	}, nil
}

func extractBytes(data []byte, contentType string) (string, error) {
	switch normalizeMime(contentType) {
	case mimePDF:
		return extractPDF(data)
	case mimeDOCX:
		return extractDOCX(data)
	case mimeText:
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported mime type for local ocr: %s", contentType)
	}
}

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	readerAt := bytes.NewReader(data)
	zr, err := zip.NewReader(readerAt, int64(len(data)))
	if err != nil {
		return "", err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		if name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errors.New("document.xml file not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}

	return stripDocxXML(string(raw)), nil
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if last := buf.Len(); last > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func normalizeMime(contentType string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
}

var _ ocr.Engine = (*Engine)(nil)
