// Package store keeps the registry of produced exam archives.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/examforge/examforge/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS archives (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		path TEXT NOT NULL,
		mode TEXT NOT NULL,
		num_versions INTEGER NOT NULL,
		num_documents INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS app_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// InsertArchive registers a produced zip under its download ID.
func (s *Store) InsertArchive(a model.Archive) error {
	_, err := s.db.Exec(
		`INSERT INTO archives (id, filename, path, mode, num_versions, num_documents, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Filename, a.Path, a.Mode, a.NumVersions, a.NumDocuments, a.CreatedAt,
	)
	return err
}

// GetArchive returns the archive for the given ID, or nil if unknown.
func (s *Store) GetArchive(id string) (*model.Archive, error) {
	var a model.Archive
	err := s.db.QueryRow(
		`SELECT id, filename, path, mode, num_versions, num_documents, created_at
		 FROM archives WHERE id = ?`, id,
	).Scan(&a.ID, &a.Filename, &a.Path, &a.Mode, &a.NumVersions, &a.NumDocuments, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// DeleteArchive removes an archive record.
func (s *Store) DeleteArchive(id string) error {
	_, err := s.db.Exec(`DELETE FROM archives WHERE id = ?`, id)
	return err
}

// ExpiredArchives returns all archives created before the cutoff, oldest
// first, so the caller can remove their files and records.
func (s *Store) ExpiredArchives(cutoff time.Time) ([]model.Archive, error) {
	rows, err := s.db.Query(
		`SELECT id, filename, path, mode, num_versions, num_documents, created_at
		 FROM archives WHERE created_at < ? ORDER BY created_at`, cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var archives []model.Archive
	for rows.Next() {
		var a model.Archive
		if err := rows.Scan(&a.ID, &a.Filename, &a.Path, &a.Mode, &a.NumVersions, &a.NumDocuments, &a.CreatedAt); err != nil {
			return nil, err
		}
		archives = append(archives, a)
	}
	return archives, rows.Err()
}

// ArchiveCount returns the number of registered archives.
func (s *Store) ArchiveCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM archives`).Scan(&count)
	return count, err
}
