package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/nacl/secretbox"
)

// ErrCorrupt is returned when a stored value cannot be unsealed.
var ErrCorrupt = errors.New("stored value cannot be unsealed")

const nonceSize = 24

// Storage is the per-browser key/value store. Each browser is addressed by a
// storage ID; values are sealed with secretbox before they reach the database.
type Storage struct {
	db  *sql.DB
	key [32]byte
}

// NewStorage returns a Storage sealing values with key.
func NewStorage(db *sql.DB, key [32]byte) *Storage {
	return &Storage{db: db, key: key}
}

// GetItem returns the value stored under key. The boolean is false when the
// key has never been set for this browser.
func (s *Storage) GetItem(ctx context.Context, storageID, key string) (string, bool, error) {
	var sealed []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM browser_storage WHERE storage_id = ? AND key = ?`,
		storageID, key,
	).Scan(&sealed)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting %s: %w", key, err)
	}

	value, err := s.open(sealed)
	if err != nil {
		return "", false, fmt.Errorf("getting %s: %w", key, err)
	}
	return value, true, nil
}

// SetItem stores value under key, overwriting any previous value.
func (s *Storage) SetItem(ctx context.Context, storageID, key, value string) error {
	sealed, err := s.seal(value)
	if err != nil {
		return fmt.Errorf("sealing %s: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO browser_storage (storage_id, key, value, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (storage_id, key)
		 DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		storageID, key, sealed,
	)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

// RemoveItem deletes key. Removing a missing key is not an error.
func (s *Storage) RemoveItem(ctx context.Context, storageID, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM browser_storage WHERE storage_id = ? AND key = ?`,
		storageID, key,
	)
	if err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

// Clear deletes every key stored for a browser.
func (s *Storage) Clear(ctx context.Context, storageID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM browser_storage WHERE storage_id = ?`, storageID,
	)
	if err != nil {
		return fmt.Errorf("clearing storage: %w", err)
	}
	return nil
}

// Prune deletes values not written since before and returns how many rows
// were removed.
func (s *Storage) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM browser_storage WHERE updated_at < ?`,
		before.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning storage: %w", err)
	}
	return res.RowsAffected()
}

func (s *Storage) seal(value string) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], []byte(value), &nonce, &s.key), nil
}

func (s *Storage) open(sealed []byte) (string, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return "", ErrCorrupt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])

	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrCorrupt
	}
	return string(plain), nil
}
