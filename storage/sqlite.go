package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteConfig struct {
	OnDisk    bool
	Directory string
}

type SQLiteStorage struct {
	SQLiteConfig

	db *sql.DB
}

func NewSQLiteStorage(cfg ...SQLiteConfig) (*SQLiteStorage, error) {
	onDisk := false
	directory := ""
	if len(cfg) > 0 {
		onDisk = cfg[0].OnDisk
		directory = cfg[0].Directory
	}

	sourceName := ":memory:"
	if onDisk {
		sourceName = directory + "/timetable.db"
	}

	db, err := sql.Open("sqlite3", sourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Every connection to :memory: is its own database.
	if !onDisk {
		db.SetMaxOpenConns(1)
	}

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS document (
    url TEXT NOT NULL,
    hash TEXT NOT NULL,
    retrieved_at TIMESTAMP NOT NULL,
    timezone TEXT NOT NULL,
    operator TEXT NOT NULL,
    body BLOB NOT NULL,
PRIMARY KEY (hash, url)
);`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating document table: %w", err)
	}

	return &SQLiteStorage{
		SQLiteConfig: SQLiteConfig{
			OnDisk:    onDisk,
			Directory: directory,
		},
		db: db,
	}, nil
}

func (s *SQLiteStorage) WriteDocument(doc *DocumentRecord) error {
	_, err := s.db.Exec(`
INSERT INTO document (url, hash, retrieved_at, timezone, operator, body)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (hash, url) DO UPDATE SET
    retrieved_at = excluded.retrieved_at,
    timezone = excluded.timezone,
    operator = excluded.operator,
    body = excluded.body`,
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

func (s *SQLiteStorage) ListDocuments(filter ListDocumentsFilter) ([]*DocumentRecord, error) {
	query := `
SELECT
    url,
    hash,
    retrieved_at,
    timezone,
    operator,
    body
FROM document`

	conditions := []string{}
	params := []interface{}{}
	if filter.URL != "" {
		conditions = append(conditions, "url = ?")
		params = append(params, filter.URL)
	}
	if filter.Hash != "" {
		conditions = append(conditions, "hash = ?")
		params = append(params, filter.Hash)
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

func (s *SQLiteStorage) DeleteDocument(url string, hash string) error {
	res, err := s.db.Exec(`DELETE FROM document WHERE url = ? AND hash = ?`, url, hash)
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

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
