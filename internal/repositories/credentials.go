package repositories

import (
	"database/sql"
	"fmt"
	"time"
)

// CredentialRepository persists named secrets in the credentials table.
// The session manager uses it as its token store.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a CredentialRepository with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Get returns the value stored under name, or the empty string when none exists.
func (r *CredentialRepository) Get(name string) (string, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM credentials WHERE name = ?", name).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query credential: %w", err)
	}
	return value, nil
}

// Put stores value under name, replacing any previous value.
func (r *CredentialRepository) Put(name, value string) error {
	query := `
		INSERT INTO credentials (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, name, value, time.Now()); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// Delete removes the value stored under name. Deleting a missing name is not
// an error; sign-out must be idempotent.
func (r *CredentialRepository) Delete(name string) error {
	if _, err := r.db.Exec("DELETE FROM credentials WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}
