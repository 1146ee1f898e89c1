package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/itbasis/go-clock"

	"aoc-leaderboard/cache"
)

func TestNewDB(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := NewDB(dbPath, clock.New())
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	defer db.Close()

	// Verify tables exist by querying them
	ctx := context.Background()
	_, err = db.conn.ExecContext(ctx, "SELECT 1 FROM cache_entries LIMIT 1")
	if err != nil {
		t.Errorf("cache_entries table not created: %v", err)
	}
	_, err = db.conn.ExecContext(ctx, "SELECT 1 FROM settings LIMIT 1")
	if err != nil {
		t.Errorf("settings table not created: %v", err)
	}
}

func TestNewDBReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	db, err := NewDB(dbPath, clock.New())
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	if err := db.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	db.Close()

	db, err = NewDB(dbPath, clock.New())
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db.Close()

	entry, err := db.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if string(entry.Data) != "v" {
		t.Errorf("Data = %q, want v", entry.Data)
	}
}

func TestCacheEntries(t *testing.T) {
	mock := clock.NewMock()
	start := time.Date(2023, 12, 5, 6, 0, 0, 0, time.UTC)
	mock.Set(start)

	db := newTestDB(t, mock)
	defer db.Close()
	ctx := context.Background()
	key := cache.Key(2023, 42)

	// Get non-existent entry
	if _, err := db.Get(ctx, key); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("expected cache.ErrNotFound, got: %v", err)
	}

	if err := db.Put(ctx, key, []byte(`{"event":2023}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	entry, err := db.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(entry.Data) != `{"event":2023}` {
		t.Errorf("Data = %q", entry.Data)
	}
	if !entry.ModTime.Equal(start) {
		t.Errorf("ModTime = %v, want %v", entry.ModTime, start)
	}

	// Overwrite refreshes both data and time
	mock.Add(20 * time.Minute)
	if err := db.Put(ctx, key, []byte(`{"event":"2023"}`)); err != nil {
		t.Fatalf("Put (update) failed: %v", err)
	}

	entry, err = db.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(entry.Data) != `{"event":"2023"}` {
		t.Errorf("Data = %q", entry.Data)
	}
	if !entry.ModTime.Equal(start.Add(20 * time.Minute)) {
		t.Errorf("ModTime = %v, want %v", entry.ModTime, start.Add(20*time.Minute))
	}

	// Other keys are independent
	if _, err := db.Get(ctx, cache.Key(2022, 42)); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("expected cache.ErrNotFound for other year, got: %v", err)
	}
}

func TestCacheClosedDB(t *testing.T) {
	db := newTestDB(t, clock.New())
	db.Close()

	if _, err := db.Get(context.Background(), "k"); !errors.Is(err, cache.ErrIO) {
		t.Errorf("Get on closed db error = %v, want cache.ErrIO", err)
	}
	if err := db.Put(context.Background(), "k", []byte("v")); !errors.Is(err, cache.ErrIO) {
		t.Errorf("Put on closed db error = %v, want cache.ErrIO", err)
	}
}

func TestSettingsOperations(t *testing.T) {
	db := newTestDB(t, clock.New())
	defer db.Close()
	ctx := context.Background()

	// Get non-existent setting
	_, err := db.GetSetting(ctx, "unknown")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound for unknown setting, got: %v", err)
	}

	// Set setting
	if err := db.SetSetting(ctx, "chat_id", "12345"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}

	// Get setting
	val, err := db.GetSetting(ctx, "chat_id")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if val != "12345" {
		t.Errorf("value = %q, want '12345'", val)
	}

	// Update setting
	if err := db.SetSetting(ctx, "chat_id", "67890"); err != nil {
		t.Fatalf("SetSetting (update) failed: %v", err)
	}

	val, _ = db.GetSetting(ctx, "chat_id")
	if val != "67890" {
		t.Errorf("value = %q, want '67890'", val)
	}
}

func newTestDB(t *testing.T, clk clock.Clock) *DB {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := NewDB(dbPath, clk)
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	return db
}
