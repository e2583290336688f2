package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "chanrelay.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st, path
}

func TestOpenAndMigrate(t *testing.T) {
	st, path := openTestStore(t)

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("db file not created: %v", err)
	}

	var version string
	if err := st.db.QueryRow("SELECT value FROM metadata WHERE key = 'schema_version'").Scan(&version); err != nil {
		t.Fatalf("read schema version: %v", err)
	}
	if version != "1" {
		t.Fatalf("unexpected schema version: %s", version)
	}
}

func TestOpen_CreatesParentDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deep", "chanrelay.db")

	st, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = st.Close() }()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("db file not created: %v", err)
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestAddPhraseAndList(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()

	for _, p := range []string{"Casino Bonus", "subscribe NOW", "реклама"} {
		if err := st.AddPhrase(ctx, p); err != nil {
			t.Fatalf("add phrase %q: %v", p, err)
		}
	}

	phrases, err := st.Phrases(ctx)
	if err != nil {
		t.Fatalf("phrases: %v", err)
	}

	want := []string{"casino bonus", "subscribe now", "реклама"}
	if len(phrases) != len(want) {
		t.Fatalf("got %d phrases, want %d", len(phrases), len(want))
	}
	for i := range want {
		if phrases[i] != want[i] {
			t.Errorf("phrases[%d] = %q, want %q (lowercased, insertion order)", i, phrases[i], want[i])
		}
	}
}

func TestAddPhrase_Idempotent(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()

	if err := st.AddPhrase(ctx, "spam"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := st.AddPhrase(ctx, "spam"); err != nil {
		t.Fatalf("add again: %v", err)
	}

	phrases, err := st.Phrases(ctx)
	if err != nil {
		t.Fatalf("phrases: %v", err)
	}
	if len(phrases) != 1 {
		t.Fatalf("got %d phrases, want 1", len(phrases))
	}
}

func TestAddPhrase_Empty(t *testing.T) {
	st, _ := openTestStore(t)

	if err := st.AddPhrase(context.Background(), "   "); err == nil {
		t.Fatal("expected error for blank phrase")
	}
}
