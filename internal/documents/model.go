package documents

import "time"

// Status is a document's lifecycle stage.
type Status string

const (
	StatusUploaded   Status = "UPLOADED"
	StatusProcessing Status = "PROCESSING"
	StatusExtracted  Status = "EXTRACTED"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Terminal reports whether no further transitions may leave this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// QueryRecord is one question/answer exchange stored against a document.
type QueryRecord struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

// Document represents an uploaded document owned by a user.
type Document struct {
	ID            string
	UserID        string
	FileName      string
	StorageKey    string
	ContentType   string
	SizeBytes     int64
	Status        Status
	ErrorMessage  string
	ExtractedText string
	WordCount     int
	OCRConfidence float64
	TextTruncated bool
	Summary       string
	QueryHistory  []QueryRecord
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Extraction holds the persisted result of an OCR pass.
type Extraction struct {
	Text       string
	WordCount  int
	Confidence float64
}
