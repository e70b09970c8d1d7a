package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// storeFactories builds each Store implementation against a temp location.
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "trail.db"))
			if err != nil {
				t.Fatalf("NewSQLiteStore() failed: %v", err)
			}
			return store
		},
	}
}

func TestStore_AppendAndRecent(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			defer store.Close()

			ctx := context.Background()
			base := time.Now().Add(-time.Hour).Truncate(time.Second)

			for i := 0; i < 5; i++ {
				rec := NewRecord("logs", "/data/logs/f"+string(rune('a'+i)), "file", 100, base)
				rec.DeletedAt = base.Add(time.Duration(i) * time.Minute)
				if err := store.Append(ctx, rec); err != nil {
					t.Fatalf("Append() failed: %v", err)
				}
			}

			recent, err := store.Recent(ctx, "logs", 3)
			if err != nil {
				t.Fatalf("Recent() failed: %v", err)
			}
			if len(recent) != 3 {
				t.Fatalf("Recent() returned %d records, want 3", len(recent))
			}
			if recent[0].Path != "/data/logs/fe" {
				t.Errorf("Recent()[0].Path = %q, want the newest record", recent[0].Path)
			}
			for i := 1; i < len(recent); i++ {
				if recent[i].DeletedAt.After(recent[i-1].DeletedAt) {
					t.Errorf("Recent() not ordered newest first at index %d", i)
				}
			}
		})
	}
}

func TestStore_RecentFiltersByRoot(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			defer store.Close()

			ctx := context.Background()
			now := time.Now()
			store.Append(ctx, NewRecord("logs", "/data/logs/a", "file", 1, now))
			store.Append(ctx, NewRecord("cache", "/data/cache/b", "file", 1, now))
			store.Append(ctx, NewRecord("logs", "/data/logs/c", "directory", 0, now))

			logs, err := store.Recent(ctx, "logs", 10)
			if err != nil {
				t.Fatalf("Recent() failed: %v", err)
			}
			if len(logs) != 2 {
				t.Errorf("Recent(logs) returned %d records, want 2", len(logs))
			}

			all, err := store.Recent(ctx, "", 10)
			if err != nil {
				t.Fatalf("Recent(all) failed: %v", err)
			}
			if len(all) != 3 {
				t.Errorf("Recent(all) returned %d records, want 3", len(all))
			}
		})
	}
}

func TestStore_Count(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			defer store.Close()

			ctx := context.Background()
			now := time.Now()
			store.Append(ctx, NewRecord("logs", "/data/logs/a", "file", 1, now))
			store.Append(ctx, NewRecord("cache", "/data/cache/b", "file", 1, now))

			count, err := store.Count(ctx, "logs")
			if err != nil {
				t.Fatalf("Count() failed: %v", err)
			}
			if count != 1 {
				t.Errorf("Count(logs) = %d, want 1", count)
			}

			total, err := store.Count(ctx, "")
			if err != nil {
				t.Fatalf("Count(all) failed: %v", err)
			}
			if total != 2 {
				t.Errorf("Count(all) = %d, want 2", total)
			}
		})
	}
}

func TestStore_Cleanup(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			defer store.Close()

			ctx := context.Background()
			now := time.Now().Truncate(time.Second)

			old := NewRecord("logs", "/data/logs/old", "file", 1, now)
			old.DeletedAt = now.Add(-48 * time.Hour)
			fresh := NewRecord("logs", "/data/logs/fresh", "file", 1, now)
			fresh.DeletedAt = now

			store.Append(ctx, old)
			store.Append(ctx, fresh)

			deleted, err := store.Cleanup(ctx, now.Add(-24*time.Hour))
			if err != nil {
				t.Fatalf("Cleanup() failed: %v", err)
			}
			if deleted != 1 {
				t.Errorf("Cleanup() = %d, want 1", deleted)
			}

			count, _ := store.Count(ctx, "")
			if count != 1 {
				t.Errorf("Count() after cleanup = %d, want 1", count)
			}
		})
	}
}

func TestStore_AppendValidation(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			defer store.Close()

			ctx := context.Background()
			if err := store.Append(ctx, nil); err == nil {
				t.Error("Append(nil) succeeded, want error")
			}
			if err := store.Append(ctx, &Record{Path: "/x"}); err == nil {
				t.Error("Append() without id succeeded, want error")
			}
			if err := store.Append(ctx, &Record{ID: "r1"}); err == nil {
				t.Error("Append() without path succeeded, want error")
			}
		})
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trail.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore() failed: %v", err)
	}
	if err := store.Append(ctx, NewRecord("logs", "/data/logs/a", "file", 42, time.Now())); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	reopened, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopening store failed: %v", err)
	}
	defer reopened.Close()

	count, err := reopened.Count(ctx, "logs")
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Count() after reopen = %d, want 1", count)
	}
}

func TestSQLiteStore_CloseIdempotent(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "trail.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("first Close() failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("second Close() failed: %v", err)
	}
}

func TestMemoryStore_CapsTrailLength(t *testing.T) {
	store := NewMemoryStore()
	store.maxRecords = 10
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		rec := NewRecord("logs", "/data/logs/x", "file", 1, time.Now())
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
	}

	if got := store.Size(); got != 10 {
		t.Errorf("Size() = %d, want 10", got)
	}
}
