package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
// Large fields are omitted unless the caller asked for them.
type DocumentResponse struct {
	DocumentID    string        `json:"documentId"`
	FileName      string        `json:"filename"`
	StorageKey    string        `json:"storageKey"`
	ContentType   string        `json:"contentType"`
	FileSize      int64         `json:"fileSize"`
	Status        Status        `json:"status"`
	ErrorMessage  string        `json:"errorMessage,omitempty"`
	WordCount     int           `json:"wordCount,omitempty"`
	OCRConfidence float64       `json:"ocrConfidence,omitempty"`
	TextTruncated bool          `json:"textTruncated,omitempty"`
	Summary       string        `json:"summary,omitempty"`
	ExtractedText string        `json:"extractedText,omitempty"`
	QueryHistory  []QueryRecord `json:"queryHistory,omitempty"`
	DownloadURL   string        `json:"downloadUrl,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

func toResponse(doc Document, downloadURL string) DocumentResponse {
	return DocumentResponse{
		DocumentID:    doc.ID,
		FileName:      doc.FileName,
		StorageKey:    doc.StorageKey,
		ContentType:   doc.ContentType,
		FileSize:      doc.SizeBytes,
		Status:        doc.Status,
		ErrorMessage:  doc.ErrorMessage,
		WordCount:     doc.WordCount,
		OCRConfidence: doc.OCRConfidence,
		TextTruncated: doc.TextTruncated,
		Summary:       doc.Summary,
		ExtractedText: doc.ExtractedText,
		QueryHistory:  doc.QueryHistory,
		DownloadURL:   downloadURL,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}
