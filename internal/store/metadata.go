package store

import (
	"database/sql"
	"strconv"
)

// SetMetadata upserts a key-value pair in the app_metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO app_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM app_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

const generationCountKey = "generation_count"

// IncrementGenerationCount bumps the lifetime counter of generated exam sets.
func (s *Store) IncrementGenerationCount() error {
	n, err := s.GenerationCount()
	if err != nil {
		return err
	}
	return s.SetMetadata(generationCountKey, strconv.Itoa(n+1))
}

// GenerationCount reads the lifetime counter of generated exam sets.
func (s *Store) GenerationCount() (int, error) {
	v, err := s.GetMetadata(generationCountKey)
	if err != nil || v == "" {
		return 0, err
	}
	return strconv.Atoi(v)
}
