package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

// Settings keys for process-wide secrets.
const (
	SettingCookieSecret = "cookie_secret"
	SettingStorageKey   = "storage_key"
)

// GetSecret retrieves a 32-byte hex secret stored under key.
// If none exists, it generates one, stores it, and returns it.
// Uses INSERT OR IGNORE + re-SELECT so concurrent startups agree on one value.
func GetSecret(ctx context.Context, db *sql.DB, key string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating %s: %w", key, err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		key, candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing %s: %w", key, err)
	}

	var secret string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&secret)
	if err != nil {
		return "", fmt.Errorf("querying %s: %w", key, err)
	}

	return secret, nil
}

// GetStorageKey returns the persisted key that seals browser storage values.
func GetStorageKey(ctx context.Context, db *sql.DB) ([32]byte, error) {
	var key [32]byte

	secret, err := GetSecret(ctx, db, SettingStorageKey)
	if err != nil {
		return key, err
	}
	raw, err := hex.DecodeString(secret)
	if err != nil || len(raw) != len(key) {
		return key, fmt.Errorf("malformed %s setting", SettingStorageKey)
	}
	copy(key[:], raw)
	return key, nil
}
