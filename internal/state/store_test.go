package state

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target", FileName)
	store := NewStore(path)

	snap, err := store.Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(snap) != 0 {
		t.Errorf("expected empty snapshot, got %v", snap)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected state file to be created: %v", err)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	for _, content := range []string{"", "\n\n", "   \n\t\n"} {
		path := filepath.Join(t.TempDir(), FileName)
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		snap, err := NewStore(path).Load()
		if err != nil {
			t.Fatalf("content %q: expected no error, got %v", content, err)
		}
		if len(snap) != 0 {
			t.Errorf("content %q: expected empty snapshot, got %v", content, snap)
		}
	}
}

func TestLoadMalformedFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no delimiter", "[payments]\nthis is not a key value pair\n"},
		{"unclosed section", "[payments\nqps = 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}

			_, err := NewStore(path).Load()
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestLoadKeepsNonNumericValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	content := "[payments]\nqps = garbage\nqpstime = 1000\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	snap, err := NewStore(path).Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := snap["payments"]["qps"]; got != "garbage" {
		t.Errorf("expected qps 'garbage', got %q", got)
	}
	if got := snap["payments"]["qpstime"]; got != "1000" {
		t.Errorf("expected qpstime '1000', got %q", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	store := NewStore(path)

	want := Snapshot{
		InstanceKey: {"qps": "123456", "qpstime": "1700000000"},
		"payments":  {"qps": "500", "qpstime": "1000"},
		"reports":   {"qps": "not-a-number"},
		"empty":     {},
	}
	if err := store.Save(want); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := NewStore(path).Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d sections, got %d: %v", len(want), len(got), got)
	}
	for name, sec := range want {
		gotSec, ok := got[name]
		if !ok {
			t.Errorf("section %q missing after round trip", name)
			continue
		}
		if len(gotSec) != len(sec) {
			t.Errorf("section %q: expected %d keys, got %d", name, len(sec), len(gotSec))
		}
		for k, v := range sec {
			if gotSec[k] != v {
				t.Errorf("section %q key %q: expected %q, got %q", name, k, v, gotSec[k])
			}
		}
	}
}

func TestSaveReplacesFileWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	store := NewStore(path)

	if err := store.Save(Snapshot{"a": {"qps": "1"}}); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(Snapshot{"b": {"qps": "2"}}); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}

	snap, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := snap["a"]; ok {
		t.Error("expected section 'a' to be gone after overwrite")
	}
	if snap["b"]["qps"] != "2" {
		t.Errorf("expected b.qps 2, got %q", snap["b"]["qps"])
	}
}

func TestSaveFailureKeepsOldContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	store := NewStore(path)
	if err := store.Save(Snapshot{"payments": {"qps": "500"}}); err != nil {
		t.Fatal(err)
	}

	// An empty key name cannot be written; the old file must survive.
	if err := store.Save(Snapshot{"payments": {"": "1"}}); err == nil {
		t.Fatal("expected error for empty key name")
	}

	snap, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if snap["payments"]["qps"] != "500" {
		t.Errorf("expected old content to survive, got %v", snap)
	}
}

func TestLockUnlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target", FileName)
	store := NewStore(path)

	if err := store.Lock(); err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	if err := store.Lock(); err != nil {
		t.Fatalf("second lock on same store should be a no-op, got %v", err)
	}
	if _, err := os.Stat(path + ".lock"); err != nil {
		t.Errorf("expected lock file: %v", err)
	}
	if err := store.Unlock(); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	if err := store.Unlock(); err != nil {
		t.Fatalf("second unlock should be a no-op, got %v", err)
	}
}

func TestDefaultPath(t *testing.T) {
	a := DefaultPath("db.example.com", "5432", "postgres")
	b := DefaultPath("db.example.com", "5433", "postgres")

	if filepath.Base(a) != FileName {
		t.Errorf("expected file name %s, got %s", FileName, filepath.Base(a))
	}
	if !strings.HasPrefix(a, os.TempDir()) {
		t.Errorf("expected path under %s, got %s", os.TempDir(), a)
	}
	if a == b {
		t.Error("expected different paths for different targets")
	}
	odd := DefaultPath("h/../x", "1", "u")
	plain := DefaultPath("h", "1", "u")
	if filepath.Dir(filepath.Dir(odd)) != filepath.Dir(filepath.Dir(plain)) {
		t.Errorf("expected path separators in target to be sanitized, got %s", odd)
	}
}
