package eventstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newMemoryStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_AppendAndGetByBuildID(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()
	at := time.UnixMilli(1_700_000_000_000)

	started, err := NewBuildStarted("b1", at, StartedPayload{Trigger: "watch", Path: "pages/a.md"})
	if err != nil {
		t.Fatalf("NewBuildStarted: %v", err)
	}
	completed, err := NewBuildCompleted("b1", at.Add(time.Second), CompletedPayload{Documents: 3, DurationMS: 1000})
	if err != nil {
		t.Fatalf("NewBuildCompleted: %v", err)
	}
	other, err := NewBuildStarted("b2", at, StartedPayload{Trigger: "manual"})
	if err != nil {
		t.Fatalf("NewBuildStarted: %v", err)
	}

	for _, e := range []Event{started, other, completed} {
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	events, err := store.GetByBuildID(ctx, "b1")
	if err != nil {
		t.Fatalf("GetByBuildID: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != TypeBuildStarted || events[1].Type != TypeBuildCompleted {
		t.Fatalf("unexpected order: %s, %s", events[0].Type, events[1].Type)
	}
	if !events[0].Timestamp.Equal(at) {
		t.Errorf("timestamp = %v, want %v", events[0].Timestamp, at)
	}

	var payload StartedPayload
	if err := events[0].Decode(&payload); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if payload.Trigger != "watch" || payload.Path != "pages/a.md" {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestSQLiteStore_GetRange(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	for i, id := range []string{"early", "middle", "late"} {
		e, err := NewBuildStarted(id, base.Add(time.Duration(i)*time.Hour), StartedPayload{Trigger: "schedule"})
		if err != nil {
			t.Fatalf("NewBuildStarted: %v", err)
		}
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	events, err := store.GetRange(ctx, base.Add(30*time.Minute), base.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("GetRange: %v", err)
	}
	if len(events) != 1 || events[0].BuildID != "middle" {
		t.Fatalf("expected only the middle event, got %+v", events)
	}
}

func TestSQLiteStore_Metadata(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	e, err := NewBuildStarted("b1", time.Now(), StartedPayload{Trigger: "startup"})
	if err != nil {
		t.Fatalf("NewBuildStarted: %v", err)
	}
	e.Metadata = map[string]string{"host": "builder-1"}
	if err := store.Append(ctx, e); err != nil {
		t.Fatalf("Append: %v", err)
	}

	events, err := store.GetByBuildID(ctx, "b1")
	if err != nil {
		t.Fatalf("GetByBuildID: %v", err)
	}
	if got := events[0].Metadata["host"]; got != "builder-1" {
		t.Errorf("metadata host = %q", got)
	}
}

func TestSQLiteStore_FileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "events.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	e, err := NewBuildStarted("b1", time.Now(), StartedPayload{Trigger: "manual"})
	if err != nil {
		t.Fatalf("NewBuildStarted: %v", err)
	}
	if err := store.Append(context.Background(), e); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	events, err := reopened.GetByBuildID(context.Background(), "b1")
	if err != nil {
		t.Fatalf("GetByBuildID: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected persisted event, got %d", len(events))
	}
}

func TestDatabaseFiles(t *testing.T) {
	files := DatabaseFiles("site/history.db")
	want := []string{"site/history.db", "site/history.db-wal", "site/history.db-shm", "site/history.db-journal"}
	if len(files) != len(want) {
		t.Fatalf("DatabaseFiles = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("DatabaseFiles[%d] = %q, want %q", i, files[i], want[i])
		}
	}
	if got := DatabaseFiles(":memory:"); got != nil {
		t.Fatalf("in-memory database should have no files, got %v", got)
	}
	if got := DatabaseFiles(""); got != nil {
		t.Fatalf("empty path should have no files, got %v", got)
	}
}
