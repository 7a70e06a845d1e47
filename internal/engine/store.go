package engine

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"time"
)

// StoreFilename is the dependency-tracking store kept in the project
// root. It is owned opaquely by the engine; clean removes it.
const StoreFilename = ".nikola-deps.json"

// depStore persists per-unit file fingerprints between runs so
// unchanged units can be skipped.
type depStore struct {
	// RunID identifies the run that last wrote the store.
	RunID string `json:"runId"`
	// LastRun is the engine-observed time of that run.
	LastRun time.Time `json:"lastRun"`
	// Fingerprints maps unit name to file path to content hash.
	Fingerprints map[string]map[string]string `json:"fingerprints"`
}

func newDepStore() *depStore {
	return &depStore{Fingerprints: make(map[string]map[string]string)}
}

// loadStore reads the store file; a missing or corrupt file yields a
// fresh store, never an error.
func loadStore(path string) *depStore {
	data, err := os.ReadFile(path)
	if err != nil {
		return newDepStore()
	}
	var s depStore
	if err := json.Unmarshal(data, &s); err != nil {
		return newDepStore()
	}
	if s.Fingerprints == nil {
		s.Fingerprints = make(map[string]map[string]string)
	}
	return &s
}

// save writes the store atomically enough for a single-writer tool.
func (s *depStore) save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// fileHash returns the md5 fingerprint of a file's contents, or ""
// when the file cannot be read.
func fileHash(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}
