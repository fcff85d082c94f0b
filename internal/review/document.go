package review

import (
	"time"

	"github.com/danielmagalmeida/smartscan/internal/annotation"
)

// Document statuses.
const (
	StatusExtracted = "extracted"
	StatusCorrected = "corrected"
)

// Document represents an uploaded document and its extraction session
// metadata. TransactionID is the correlation id returned by the extraction
// backend; it links any later feedback to the original extraction and is
// never modified.
type Document struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	StoredFile    string    `json:"stored_file"`
	ContentType   string    `json:"content_type"`
	TransactionID string    `json:"transaction_id"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FeedbackRecord archives one submitted correction payload.
type FeedbackRecord struct {
	ID            string         `json:"id"`
	DocumentID    string         `json:"document_id"`
	TransactionID string         `json:"transaction_id"`
	Fields        map[string]any `json:"fields"`
	SubmittedAt   time.Time      `json:"submitted_at"`
}

// Review is a document plus its renderable field and line records, the shape
// the presentation layer consumes.
type Review struct {
	Document *Document                `json:"document"`
	Fields   []annotation.FieldRecord `json:"fields"`
	Lines    []annotation.LineRecord  `json:"lines"`
}
