package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Store holds per-session message histories. Implementations must be safe for
// concurrent use; the reference driver is single-writer but session lookups
// can happen from multiple goroutines.
type Store interface {
	// Append adds a message to a session, creating the session if needed.
	Append(sessionID string, msg Message) error

	// History returns the session's messages in insertion order. A missing
	// session yields an empty slice.
	History(sessionID string) []Message

	// Replace swaps a session's history wholesale (import, trim).
	Replace(sessionID string, msgs []Message) error

	// Clear removes a session entirely. Reports whether it existed.
	Clear(sessionID string) bool

	// Sessions returns all known session ids, sorted.
	Sessions() []string
}

// InMemoryStore keeps histories in a process-local map.
type InMemoryStore struct {
	mutex sync.RWMutex
	data  map[string][]Message
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{data: make(map[string][]Message)}
}

func (s *InMemoryStore) Append(sessionID string, msg Message) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.data[sessionID] = append(s.data[sessionID], msg)
	return nil
}

func (s *InMemoryStore) History(sessionID string) []Message {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	msgs := s.data[sessionID]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

func (s *InMemoryStore) Replace(sessionID string, msgs []Message) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	copied := make([]Message, len(msgs))
	copy(copied, msgs)
	s.data[sessionID] = copied
	return nil
}

func (s *InMemoryStore) Clear(sessionID string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, exists := s.data[sessionID]
	delete(s.data, sessionID)
	return exists
}

func (s *InMemoryStore) Sessions() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FileStore persists histories to a JSON file. Every mutation rewrites the
// file atomically via a temp file so a crash never leaves a torn write.
type FileStore struct {
	mutex    sync.RWMutex
	data     map[string][]Message
	filePath string
}

func NewFileStore(path string) (*FileStore, error) {
	store := &FileStore{
		data:     make(map[string][]Message),
		filePath: path,
	}
	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist yet, start with empty data
		}
		return fmt.Errorf("failed to read memory file: %w", err)
	}

	if err := json.Unmarshal(data, &s.data); err != nil {
		return fmt.Errorf("failed to parse memory file: %w", err)
	}
	return nil
}

// save writes the current data to disk. Callers must hold the write lock.
func (s *FileStore) save() error {
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create memory directory: %w", err)
	}

	encoded, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode memory data: %w", err)
	}

	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, encoded, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to replace memory file: %w", err)
	}
	return nil
}

func (s *FileStore) Append(sessionID string, msg Message) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.data[sessionID] = append(s.data[sessionID], msg)
	return s.save()
}

func (s *FileStore) History(sessionID string) []Message {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	msgs := s.data[sessionID]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

func (s *FileStore) Replace(sessionID string, msgs []Message) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	copied := make([]Message, len(msgs))
	copy(copied, msgs)
	s.data[sessionID] = copied
	return s.save()
}

func (s *FileStore) Clear(sessionID string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, exists := s.data[sessionID]
	if !exists {
		return false
	}
	delete(s.data, sessionID)
	if err := s.save(); err != nil {
		return false
	}
	return true
}

func (s *FileStore) Sessions() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
