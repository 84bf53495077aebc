package secret

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore implements SecretStore with a JSON file on disk, permissions
// 0600. Suitable for a single-host server deployment; swap for a real
// secret manager when running more than one instance.
type FileStore struct {
	path string

	mu      sync.Mutex
	secrets map[string]string
}

// NewFileStore creates a FileStore backed by the given file, loading any
// existing secrets.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create secrets directory: %w", err)
	}

	s := &FileStore{path: path, secrets: make(map[string]string)}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read secrets file: %w", err)
	}
	if err := json.Unmarshal(data, &s.secrets); err != nil {
		return nil, fmt.Errorf("parse secrets file: %w", err)
	}
	return s, nil
}

func (s *FileStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[key] = string(value)
	return s.flushLocked()
}

func (s *FileStore) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.secrets[key]
	if !ok {
		return nil, nil
	}
	return []byte(v), nil
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.secrets[key]; !ok {
		return nil
	}
	delete(s.secrets, key)
	return s.flushLocked()
}

// flushLocked writes the secrets map atomically: write to a temp file in
// the same directory, then rename over the original.
func (s *FileStore) flushLocked() error {
	data, err := json.MarshalIndent(s.secrets, "", "  ")
	if err != nil {
		return fmt.Errorf("encode secrets: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write secrets: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace secrets file: %w", err)
	}
	return nil
}
