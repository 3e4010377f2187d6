package storage

import (
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("document not found")

// Keeps raw timetable documents as retrieved, so that a document can
// still be resolved when its source is unreachable.
type Storage interface {
	// Writes a document record. If a record with the same URL
	// and hash exists, it is updated.
	WriteDocument(doc *DocumentRecord) error

	// Retrieves all document records matching the given filter,
	// most recently retrieved first.
	ListDocuments(filter ListDocumentsFilter) ([]*DocumentRecord, error)

	// Deletes the record with the given URL and hash.
	DeleteDocument(url string, hash string) error

	Close() error
}

type ListDocumentsFilter struct {
	// If set, only include documents with the given URL.
	URL string

	// If set, only include documents with the given hash.
	Hash string
}

// A retrieved timetable document. Body is the document exactly as
// retrieved; Timezone and Operator are copied from it for listing.
type DocumentRecord struct {
	URL         string
	Hash        string
	RetrievedAt time.Time
	Timezone    string
	Operator    string
	Body        []byte
}

// Returns the most recently retrieved document for url.
func LatestDocument(s Storage, url string) (*DocumentRecord, error) {
	docs, err := s.ListDocuments(ListDocumentsFilter{URL: url})
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return docs[0], nil
}
