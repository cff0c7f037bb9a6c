package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_LoadMissingFile(t *testing.T) {
	s := NewFileStore(t.TempDir())
	if err := s.Load(); err != nil {
		t.Fatalf("Load on missing file should not error: %v", err)
	}
	if keys := s.Keys(""); len(keys) != 0 {
		t.Errorf("expected empty store, got %v", keys)
	}
}

func TestFileStore_LoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	storeDir := filepath.Join(dir, ".msccrafter")
	_ = os.MkdirAll(storeDir, 0755)
	_ = os.WriteFile(filepath.Join(storeDir, "cache.json"), []byte("not json"), 0644)

	s := NewFileStore(dir)
	if err := s.Load(); err != nil {
		t.Fatalf("Load on invalid JSON should not error: %v", err)
	}
	if keys := s.Keys(""); len(keys) != 0 {
		t.Errorf("expected empty store after invalid JSON, got %v", keys)
	}
}

func TestFileStore_SetAndReload(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	if err := s.Set("msccrafter.msc.1", `{"prNumber":1}`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set("msccrafter.msc.2", `{"prNumber":2}`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	s2 := NewFileStore(dir)
	if err := s2.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	v, ok := s2.Get("msccrafter.msc.1")
	if !ok || v != `{"prNumber":1}` {
		t.Errorf("unexpected value: %q (%v)", v, ok)
	}

	keys := s2.Keys("msccrafter.msc.")
	if len(keys) != 2 || keys[0] != "msccrafter.msc.1" || keys[1] != "msccrafter.msc.2" {
		t.Errorf("unexpected keys: %v", keys)
	}
}

func TestFileStore_KeysFiltersPrefix(t *testing.T) {
	s := NewFileStore(t.TempDir())
	_ = s.Set("msccrafter.msc.1", "a")
	_ = s.Set("msccrafter.recents", "b")

	keys := s.Keys("msccrafter.msc.")
	if len(keys) != 1 || keys[0] != "msccrafter.msc.1" {
		t.Errorf("unexpected keys: %v", keys)
	}
}
