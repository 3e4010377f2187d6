package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

type PSQLStorage struct {
	db *sql.DB
}

// Creates a new Postgres Storage using the provided connection string.
//
// If clearDB is true, the database will be cleared on startup. You
// probably only want this for testing.
func NewPSQLStorage(connStr string, clearDB bool) (*PSQLStorage, error) {

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	if clearDB {
		_, err = db.Exec(`DROP TABLE IF EXISTS document;`)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("clearing db: %w", err)
		}
	}

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS document (
    url TEXT NOT NULL,
    hash TEXT NOT NULL,
    retrieved_at TIMESTAMPTZ NOT NULL,
    timezone TEXT NOT NULL,
    operator TEXT NOT NULL,
    body BYTEA NOT NULL,
    PRIMARY KEY (hash, url)
);`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating document table: %w", err)
	}

	return &PSQLStorage{db: db}, nil
}

func (s *PSQLStorage) WriteDocument(doc *DocumentRecord) error {
	_, err := s.db.Exec(`
INSERT INTO document (url, hash, retrieved_at, timezone, operator, body)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (hash, url) DO UPDATE SET
    retrieved_at = EXCLUDED.retrieved_at,
    timezone = EXCLUDED.timezone,
    operator = EXCLUDED.operator,
    body = EXCLUDED.body`,
		doc.URL,
		doc.Hash,
		doc.RetrievedAt.UTC(),
		doc.Timezone,
		doc.Operator,
		doc.Body,
	)
	if err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}

func (s *PSQLStorage) ListDocuments(filter ListDocumentsFilter) ([]*DocumentRecord, error) {
	query := `
SELECT url, hash, retrieved_at, timezone, operator, body
FROM document`

	conditions := []string{}
	params := []interface{}{}
	if filter.URL != "" {
		params = append(params, filter.URL)
		conditions = append(conditions, fmt.Sprintf("url = $%d", len(params)))
	}
	if filter.Hash != "" {
		params = append(params, filter.Hash)
		conditions = append(conditions, fmt.Sprintf("hash = $%d", len(params)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY retrieved_at DESC"

	rows, err := s.db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	docs := []*DocumentRecord{}
	for rows.Next() {
		var doc DocumentRecord
		err := rows.Scan(
			&doc.URL,
			&doc.Hash,
			&doc.RetrievedAt,
			&doc.Timezone,
			&doc.Operator,
			&doc.Body,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

func (s *PSQLStorage) DeleteDocument(url string, hash string) error {
	res, err := s.db.Exec(`DELETE FROM document WHERE url = $1 AND hash = $2`, url, hash)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PSQLStorage) Close() error {
	return s.db.Close()
}
