// Package cache provides the client-side proposal cache with adaptive expiry
// and render-depth tracking, backed by an injected key-value store.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store is the key-value backing for the cache. Keys returns all stored keys
// under the given prefix; it exists for the local cache listing and is not
// needed by Get/Put themselves.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Keys(prefix string) []string
}

// FileStore persists entries as a single JSON object in
// <workDir>/.msccrafter/cache.json, written through on every Set.
type FileStore struct {
	filePath string
	data     map[string]string
}

// NewFileStore creates a file store rooted at the given work directory.
func NewFileStore(workDir string) *FileStore {
	return &FileStore{
		filePath: filepath.Join(workDir, ".msccrafter", "cache.json"),
		data:     map[string]string{},
	}
}

// Load reads the store file from disk. A missing file leaves the store empty
// without error; an unreadable one starts fresh since the cache is always
// reconstructible from the API.
func (s *FileStore) Load() error {
	raw, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var data map[string]string
	if err := json.Unmarshal(raw, &data); err != nil {
		// Invalid JSON — start fresh
		return nil
	}
	s.data = data
	return nil
}

// Get returns the value stored under key.
func (s *FileStore) Get(key string) (string, bool) {
	v, ok := s.data[key]
	return v, ok
}

// Set stores value under key and writes the file to disk.
func (s *FileStore) Set(key, value string) error {
	s.data[key] = value
	return s.save()
}

// Keys returns all keys with the given prefix, sorted.
func (s *FileStore) Keys(prefix string) []string {
	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (s *FileStore) save() error {
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, raw, 0644)
}
