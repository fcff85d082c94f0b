package review

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/danielmagalmeida/smartscan/internal/annotation"
)

const (
	documentBucketName = "documents"
	resultBucketName   = "results"
	feedbackBucketName = "feedback"
)

// DB defines the interface for database operations
type DB interface {
	// SaveDocument saves a document to the database
	SaveDocument(document *Document) error

	// GetDocument retrieves a document by ID
	GetDocument(id string) (*Document, error)

	// ListDocuments returns all documents
	ListDocuments() ([]*Document, error)

	// DeleteDocument removes a document and its stored result
	DeleteDocument(id string) error

	// SaveResult stores the raw extraction result for a document
	SaveResult(documentID string, result *annotation.DocumentResult) error

	// GetResult retrieves the stored extraction result for a document
	GetResult(documentID string) (*annotation.DocumentResult, error)

	// SaveFeedback archives a submitted feedback record
	SaveFeedback(record *FeedbackRecord) error

	// ListFeedback returns the archived feedback records for a document
	ListFeedback(documentID string) ([]*FeedbackRecord, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	// Create buckets if they don't exist
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{documentBucketName, resultBucketName, feedbackBucketName} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveDocument saves a document to the database
func (b *BoltDB) SaveDocument(document *Document) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(documentBucketName))
		data, err := json.Marshal(document)
		if err != nil {
			return fmt.Errorf("marshaling document: %w", err)
		}
		return bucket.Put([]byte(document.ID), data)
	})
}

// GetDocument retrieves a document by ID
func (b *BoltDB) GetDocument(id string) (*Document, error) {
	var document *Document
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(documentBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("document not found: %s", id)
		}
		return json.Unmarshal(data, &document)
	})
	if err != nil {
		return nil, err
	}
	return document, nil
}

// ListDocuments returns all documents
func (b *BoltDB) ListDocuments() ([]*Document, error) {
	documents := make([]*Document, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(documentBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var document Document
			if err := json.Unmarshal(v, &document); err != nil {
				return fmt.Errorf("unmarshaling document: %w", err)
			}
			documents = append(documents, &document)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return documents, nil
}

// DeleteDocument removes a document, its stored result and its feedback
// archive from the database
func (b *BoltDB) DeleteDocument(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(documentBucketName)).Delete([]byte(id)); err != nil {
			return err
		}
		if err := tx.Bucket([]byte(resultBucketName)).Delete([]byte(id)); err != nil {
			return err
		}
		return tx.Bucket([]byte(feedbackBucketName)).Delete([]byte(id))
	})
}

// SaveResult stores the raw extraction result for a document
func (b *BoltDB) SaveResult(documentID string, result *annotation.DocumentResult) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(resultBucketName))
		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshaling result: %w", err)
		}
		return bucket.Put([]byte(documentID), data)
	})
}

// GetResult retrieves the stored extraction result for a document
func (b *BoltDB) GetResult(documentID string) (*annotation.DocumentResult, error) {
	var result *annotation.DocumentResult
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(resultBucketName))
		data := bucket.Get([]byte(documentID))
		if data == nil {
			return fmt.Errorf("result not found: %s", documentID)
		}
		return json.Unmarshal(data, &result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SaveFeedback appends a feedback record to the document's archive. Records
// are stored per document so the whole history stays one key.
func (b *BoltDB) SaveFeedback(record *FeedbackRecord) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(feedbackBucketName))

		records := make([]*FeedbackRecord, 0)
		if data := bucket.Get([]byte(record.DocumentID)); data != nil {
			if err := json.Unmarshal(data, &records); err != nil {
				return fmt.Errorf("unmarshaling feedback archive: %w", err)
			}
		}
		records = append(records, record)

		data, err := json.Marshal(records)
		if err != nil {
			return fmt.Errorf("marshaling feedback archive: %w", err)
		}
		return bucket.Put([]byte(record.DocumentID), data)
	})
}

// ListFeedback returns the archived feedback records for a document
func (b *BoltDB) ListFeedback(documentID string) ([]*FeedbackRecord, error) {
	records := make([]*FeedbackRecord, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(feedbackBucketName))
		data := bucket.Get([]byte(documentID))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &records)
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
