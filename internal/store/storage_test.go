package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/labinventory/internal/db"
)

func newTestStorage(t *testing.T) (*Storage, context.Context) {
	t.Helper()
	database := db.NewTestDB(t)
	ctx := context.Background()

	key, err := GetStorageKey(ctx, database)
	if err != nil {
		t.Fatalf("GetStorageKey: %v", err)
	}
	return NewStorage(database, key), ctx
}

func TestStorageSetGet(t *testing.T) {
	s, ctx := newTestStorage(t)

	if _, ok, err := s.GetItem(ctx, "browser-1", "token"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := s.SetItem(ctx, "browser-1", "token", "abc"); err != nil {
		t.Fatalf("SetItem: %v", err)
	}

	got, ok, err := s.GetItem(ctx, "browser-1", "token")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if !ok || got != "abc" {
		t.Errorf("expected abc, got %q (ok=%v)", got, ok)
	}
}

func TestStorageOverwrite(t *testing.T) {
	s, ctx := newTestStorage(t)

	s.SetItem(ctx, "browser-1", "token", "first")
	if err := s.SetItem(ctx, "browser-1", "token", "second"); err != nil {
		t.Fatalf("SetItem: %v", err)
	}

	got, _, _ := s.GetItem(ctx, "browser-1", "token")
	if got != "second" {
		t.Errorf("expected overwritten value, got %q", got)
	}
}

func TestStorageEmptyValue(t *testing.T) {
	s, ctx := newTestStorage(t)

	if err := s.SetItem(ctx, "browser-1", "token", ""); err != nil {
		t.Fatalf("SetItem: %v", err)
	}
	got, ok, err := s.GetItem(ctx, "browser-1", "token")
	if err != nil || !ok || got != "" {
		t.Errorf("expected stored empty string, got %q ok=%v err=%v", got, ok, err)
	}
}

func TestStorageIsolatedPerBrowser(t *testing.T) {
	s, ctx := newTestStorage(t)

	s.SetItem(ctx, "browser-1", "token", "abc")

	if _, ok, _ := s.GetItem(ctx, "browser-2", "token"); ok {
		t.Error("expected other browser to see no token")
	}
}

func TestStorageRemoveAndClear(t *testing.T) {
	s, ctx := newTestStorage(t)

	s.SetItem(ctx, "browser-1", "token", "abc")
	s.SetItem(ctx, "browser-1", "user", `{"name":"Admin"}`)
	s.SetItem(ctx, "browser-2", "token", "xyz")

	if err := s.RemoveItem(ctx, "browser-1", "token"); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if _, ok, _ := s.GetItem(ctx, "browser-1", "token"); ok {
		t.Error("expected token removed")
	}
	if err := s.RemoveItem(ctx, "browser-1", "missing"); err != nil {
		t.Errorf("removing a missing key should not fail: %v", err)
	}

	if err := s.Clear(ctx, "browser-1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := s.GetItem(ctx, "browser-1", "user"); ok {
		t.Error("expected user cleared")
	}
	if _, ok, _ := s.GetItem(ctx, "browser-2", "token"); !ok {
		t.Error("expected other browser untouched by Clear")
	}
}

func TestStorageSealedAtRest(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	s := NewStorage(database, [32]byte{1})
	s.SetItem(ctx, "browser-1", "token", "secret-token")

	var raw []byte
	if err := database.QueryRow(
		`SELECT value FROM browser_storage WHERE storage_id = 'browser-1'`,
	).Scan(&raw); err != nil {
		t.Fatal(err)
	}
	if string(raw) == "secret-token" {
		t.Fatal("expected value sealed at rest")
	}

	other := NewStorage(database, [32]byte{2})
	_, _, err := other.GetItem(ctx, "browser-1", "token")
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt with wrong key, got %v", err)
	}
}

func TestStoragePrune(t *testing.T) {
	s, ctx := newTestStorage(t)

	s.SetItem(ctx, "browser-1", "token", "abc")

	n, err := s.Prune(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 0 {
		t.Errorf("expected nothing pruned, got %d", n)
	}

	n, err = s.Prune(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 pruned, got %d", n)
	}
}
