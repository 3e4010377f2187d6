package storage

import (
	"sort"
	"sync"
)

// In memory implementation of Storage below

type memoryKey struct {
	URL  string
	Hash string
}

type MemoryStorage struct {
	mutex     sync.Mutex
	Documents map[memoryKey]*DocumentRecord
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		Documents: map[memoryKey]*DocumentRecord{},
	}
}

func (s *MemoryStorage) WriteDocument(doc *DocumentRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stored := *doc
	stored.Body = append([]byte(nil), doc.Body...)
	s.Documents[memoryKey{doc.URL, doc.Hash}] = &stored
	return nil
}

func (s *MemoryStorage) ListDocuments(filter ListDocumentsFilter) ([]*DocumentRecord, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	docs := []*DocumentRecord{}
	for _, doc := range s.Documents {
		if filter.URL != "" && doc.URL != filter.URL {
			continue
		}
		if filter.Hash != "" && doc.Hash != filter.Hash {
			continue
		}
		c := *doc
		docs = append(docs, &c)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].RetrievedAt.After(docs[j].RetrievedAt)
	})
	return docs, nil
}

func (s *MemoryStorage) DeleteDocument(url string, hash string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	key := memoryKey{url, hash}
	if _, found := s.Documents[key]; !found {
		return ErrNotFound
	}
	delete(s.Documents, key)
	return nil
}

func (s *MemoryStorage) Close() error {
	return nil
}
