package history

import (
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordAndRecent(t *testing.T) {
	s := openTemp(t)

	if err := s.Record("setup", "frankfurt", 0, "ok"); err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if err := s.Record("connect", "frankfurt", 0, "ok"); err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if err := s.Record("disconnect", "", 4242, "ok"); err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	entries, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}

	// Newest first.
	if entries[0].Op != "disconnect" || entries[0].PID != 4242 {
		t.Errorf("entries[0] = %+v, want disconnect of pid 4242", entries[0])
	}
	if entries[2].Op != "setup" || entries[2].Server != "frankfurt" {
		t.Errorf("entries[2] = %+v, want setup of frankfurt", entries[2])
	}
	if entries[0].Time.IsZero() {
		t.Error("entry timestamps should be set")
	}
}

func TestStore_RecentLimit(t *testing.T) {
	s := openTemp(t)

	for i := 0; i < 5; i++ {
		if err := s.Record("connect", "paris", 0, "ok"); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.Recent(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}
}

func TestStore_EmptyRecent(t *testing.T) {
	s := openTemp(t)

	entries, err := s.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}
