package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/danielmagalmeida/smartscan/internal/annotation"
	"github.com/danielmagalmeida/smartscan/internal/extract"
)

// ErrNoFeedbackEndpoint means the configured extraction backend has no
// correction endpoint to send feedback to.
var ErrNoFeedbackEndpoint = errors.New("no feedback endpoint configured")

// IDGenerator generates unique IDs for documents and feedback records
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service orchestrates document review sessions: upload and extraction,
// in-memory edit state, and feedback reconciliation. Each uploaded document
// gets one session; the session's edit state lives until feedback is
// submitted or the document is deleted.
type Service struct {
	db          DB
	extractor   extract.Extractor
	sink        extract.FeedbackSink
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource

	// sessions maps document id to its live edit state. The map needs the
	// lock because net/http serves concurrently; a single session is still
	// only ever edited by its one reviewer.
	mu       sync.Mutex
	sessions map[string]*annotation.EditState
}

// NewService creates a new Service with default ID generator and time source.
// sink may be nil when the backend has no correction endpoint.
func NewService(db DB, extractor extract.Extractor, sink extract.FeedbackSink, storage Storage) *Service {
	return NewServiceWithDeps(db, extractor, sink, storage, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, extractor extract.Extractor, sink extract.FeedbackSink, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		extractor:   extractor,
		sink:        sink,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
		sessions:    make(map[string]*annotation.EditState),
	}
}

// ProcessDocument stores an uploaded document, runs extraction, persists the
// result and seeds the review session. The returned Review carries the full
// field schema and the line item table; the session is fully seeded before
// this returns, so edits can never race a still-loading result.
func (s *Service) ProcessDocument(ctx context.Context, filename string, data []byte, contentType string) (*Review, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	savedPath, err := s.storage.Save(id, filename, data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	result, err := s.extractor.Extract(ctx, data, contentType)
	if err != nil {
		slog.Error("Failed to extract document",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		// Clean up the saved file since extraction failed
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("extracting document: %w", err)
	}
	if result == nil {
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("extracting document: backend returned no result")
	}

	// A malformed result degrades to "nothing to render": the reviewer
	// still gets the full empty schema to fill in by hand.
	if result.Annotations == nil {
		slog.Warn("Extraction result carries no annotations", "document_id", id, "transaction_id", result.ID)
	}
	if result.ID == "" {
		slog.Warn("Extraction result carries no correlation id; feedback will be blocked", "document_id", id)
	}

	document := &Document{
		ID:            id,
		Filename:      filename,
		StoredFile:    savedPath,
		ContentType:   contentType,
		TransactionID: result.ID,
		Status:        StatusExtracted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.db.SaveResult(id, result); err != nil {
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving extraction result: %w", err)
	}
	if err := s.db.SaveDocument(document); err != nil {
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving document to database: %w", err)
	}

	index := annotation.NewIndex(result.Annotations)
	fields := annotation.RenderAllFields(index)
	lines := annotation.ExtractLines(index)

	s.mu.Lock()
	s.sessions[id] = annotation.NewEditState(result.ID, fields, lines)
	s.mu.Unlock()

	return &Review{Document: document, Fields: fields, Lines: lines}, nil
}

// editState returns the live edit state for a document, re-seeding it from
// the persisted extraction result when the session is gone (e.g. after a
// process restart).
func (s *Service) editState(documentID string) (*annotation.EditState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.sessions[documentID]; ok {
		return state, nil
	}

	result, err := s.db.GetResult(documentID)
	if err != nil {
		return nil, fmt.Errorf("loading extraction result: %w", err)
	}
	index := annotation.NewIndex(result.Annotations)
	state := annotation.NewEditState(result.ID, annotation.RenderAllFields(index), annotation.ExtractLines(index))
	s.sessions[documentID] = state
	return state, nil
}

// endSession drops a document's edit state.
func (s *Service) endSession(documentID string) {
	s.mu.Lock()
	delete(s.sessions, documentID)
	s.mu.Unlock()
}

// GetReview returns a document with its current field and line records:
// presence and confidence from the original extraction, values from the live
// edit state.
func (s *Service) GetReview(id string) (*Review, error) {
	document, err := s.db.GetDocument(id)
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	result, err := s.db.GetResult(id)
	if err != nil {
		return nil, fmt.Errorf("getting extraction result: %w", err)
	}

	index := annotation.NewIndex(result.Annotations)
	fields := annotation.RenderAllFields(index)
	lines := annotation.ExtractLines(index)

	state, err := s.editState(id)
	if err != nil {
		return nil, err
	}
	for i := range fields {
		fields[i].Value = state.Field(fields[i].Field)
	}
	rows := state.Rows()
	for i := range lines {
		if i < len(rows) {
			lines[i].Cells = rows[i]
		}
	}

	return &Review{Document: document, Fields: fields, Lines: lines}, nil
}

// SetFieldValue overwrites one scalar field slot in a document's session. The
// field must belong to the review schema; the session never grows slots the
// render and the feedback payload would not account for.
func (s *Service) SetFieldValue(documentID, field, value string) error {
	if !validField(field) {
		return fmt.Errorf("unknown field: %s", field)
	}
	state, err := s.editState(documentID)
	if err != nil {
		return err
	}
	state.SetField(field, value)
	return nil
}

func validField(field string) bool {
	for _, f := range annotation.AllFields() {
		if f == field {
			return true
		}
	}
	return false
}

// SetCellValue overwrites one line item cell in a document's session. The
// column must belong to the fixed line item schema.
func (s *Service) SetCellValue(documentID string, row int, column, value string) error {
	if !validLineColumn(column) {
		return fmt.Errorf("unknown line item column: %s", column)
	}
	state, err := s.editState(documentID)
	if err != nil {
		return err
	}
	return state.SetCell(row, column, value)
}

func validLineColumn(column string) bool {
	for _, c := range annotation.LineColumns {
		if c == column {
			return true
		}
	}
	return false
}

// SubmitFeedback reconciles a document's edit state into a sparse correction
// payload, submits it and archives the submission. The session ends on
// success. Reconciliation errors (annotation.ErrMissingCorrelation,
// annotation.ErrEmptyFeedback) pass through untouched so callers can
// distinguish them.
func (s *Service) SubmitFeedback(ctx context.Context, documentID string) (*FeedbackRecord, error) {
	document, err := s.db.GetDocument(documentID)
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	state, err := s.editState(documentID)
	if err != nil {
		return nil, err
	}

	payload, err := annotation.BuildFeedback(document.TransactionID, state)
	if err != nil {
		return nil, err
	}

	if s.sink == nil {
		return nil, ErrNoFeedbackEndpoint
	}
	if err := s.sink.SubmitFeedback(ctx, payload); err != nil {
		return nil, fmt.Errorf("submitting feedback: %w", err)
	}

	now := s.timeSource.Now()
	record := &FeedbackRecord{
		ID:            s.idGenerator.Generate(),
		DocumentID:    documentID,
		TransactionID: payload.TransactionID,
		Fields:        payload.Fields,
		SubmittedAt:   now,
	}
	if err := s.db.SaveFeedback(record); err != nil {
		return nil, fmt.Errorf("archiving feedback: %w", err)
	}

	document.Status = StatusCorrected
	document.UpdatedAt = now
	if err := s.db.SaveDocument(document); err != nil {
		return nil, fmt.Errorf("updating document status: %w", err)
	}

	s.endSession(documentID)

	return record, nil
}

// ListFeedback returns the archived feedback records for a document
func (s *Service) ListFeedback(documentID string) ([]*FeedbackRecord, error) {
	records, err := s.db.ListFeedback(documentID)
	if err != nil {
		return nil, fmt.Errorf("listing feedback: %w", err)
	}
	return records, nil
}

// GetDocument retrieves a document by ID
func (s *Service) GetDocument(id string) (*Document, error) {
	document, err := s.db.GetDocument(id)
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return document, nil
}

// ListDocuments returns all documents
func (s *Service) ListDocuments() ([]*Document, error) {
	documents, err := s.db.ListDocuments()
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return documents, nil
}

// GetDocumentFile retrieves the stored original for a document
func (s *Service) GetDocumentFile(id string) ([]byte, string, error) {
	document, err := s.db.GetDocument(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting document: %w", err)
	}

	data, err := s.storage.Get(document.StoredFile)
	if err != nil {
		return nil, "", fmt.Errorf("getting document file: %w", err)
	}

	return data, document.ContentType, nil
}

// DeleteDocument removes a document, its stored file and its session
func (s *Service) DeleteDocument(id string) error {
	document, err := s.db.GetDocument(id)
	if err != nil {
		return fmt.Errorf("getting document for deletion: %w", err)
	}

	if err := s.storage.Delete(document.StoredFile); err != nil {
		// Log error but continue with database deletion
		slog.Warn("Failed to delete file", "filename", document.StoredFile, "error", err)
	}

	if err := s.db.DeleteDocument(id); err != nil {
		return fmt.Errorf("deleting document from database: %w", err)
	}

	s.endSession(id)
	return nil
}
