package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestRecordAndRecent(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		d := &Decision{
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
			UserPrompt: "Read the latest email from john@example.com",
			Action:     "read_email",
			UserIntent: "read",
			Approved:   i != 1,
			Reason:     "Parameters validated successfully",
		}
		if err := store.Record(ctx, d); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if d.ID == "" {
			t.Fatal("record must assign an ID")
		}
	}

	got, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d decisions, want 3", len(got))
	}
	// Newest first.
	if !got[0].Timestamp.After(got[2].Timestamp) {
		t.Errorf("expected newest-first ordering: %v then %v", got[0].Timestamp, got[2].Timestamp)
	}
	if got[1].Approved {
		t.Error("middle decision should be a rejection")
	}
}

func TestRecentLimit(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := store.Record(ctx, &Decision{
			UserPrompt: "read my email",
			Action:     "read_email",
			UserIntent: "read",
			Approved:   true,
			Reason:     "Parameters validated successfully",
		}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("got %d decisions, want 2", len(got))
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	store.Close()
}

func TestRecentEmptyStore(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	got, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected no decisions, got %d", len(got))
	}
}
