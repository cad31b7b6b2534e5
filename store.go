package pocketbot

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// ============================================================================
// Storage backends
// ============================================================================

// Storage is a minimal key-value backend for client-side persistence.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// MemoryStorage is a goroutine-safe in-memory storage backend.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (s *MemoryStorage) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemoryStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStorage) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// FileStorage keeps all keys in a single JSON object file, loaded on open
// and rewritten on every change.
type FileStorage struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// NewFileStorage opens (or initializes) the storage file at path.
func NewFileStorage(path string) (*FileStorage, error) {
	s := &FileStorage{path: path, values: make(map[string]string)}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("cannot read storage file: %w", err)
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("cannot parse storage file: %w", err)
	}
	return s, nil
}

func (s *FileStorage) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *FileStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.persistLocked()
}

func (s *FileStorage) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return s.persistLocked()
}

func (s *FileStorage) persistLocked() error {
	data, err := json.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("cannot marshal storage: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("cannot write storage file: %w", err)
	}
	return nil
}

// ============================================================================
// SettingsStore
// ============================================================================

// HistoryLimit caps the persisted chat history at the newest entries.
const HistoryLimit = 200

const (
	keyServerAddress = "server_address"
	keyServerToken   = "server_token"
	keyChatHistory   = "chat_history"
)

// SettingsStore persists the connection settings and a bounded chat-history
// log on top of a Storage backend. It holds no business logic beyond
// trimming the history to the newest HistoryLimit entries.
type SettingsStore struct {
	storage Storage
}

// NewSettingsStore wraps the given backend.
func NewSettingsStore(storage Storage) *SettingsStore {
	return &SettingsStore{storage: storage}
}

// ServerAddress returns the stored server address, or "".
func (s *SettingsStore) ServerAddress() string {
	v, _ := s.storage.Get(keyServerAddress)
	return v
}

func (s *SettingsStore) SetServerAddress(address string) error {
	return s.storage.Set(keyServerAddress, address)
}

// Token returns the stored access token, or "".
func (s *SettingsStore) Token() string {
	v, _ := s.storage.Get(keyServerToken)
	return v
}

func (s *SettingsStore) SetToken(token string) error {
	return s.storage.Set(keyServerToken, token)
}

// History returns the persisted chat log, oldest first. A missing or
// unreadable entry yields nil.
func (s *SettingsStore) History() []ChatMessage {
	raw, ok := s.storage.Get(keyChatHistory)
	if !ok {
		return nil
	}
	var msgs []ChatMessage
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		return nil
	}
	return msgs
}

// AppendHistory adds messages to the log, trimming to the newest
// HistoryLimit entries.
func (s *SettingsStore) AppendHistory(msgs ...ChatMessage) error {
	log := append(s.History(), msgs...)
	if len(log) > HistoryLimit {
		log = log[len(log)-HistoryLimit:]
	}
	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("cannot marshal history: %w", err)
	}
	return s.storage.Set(keyChatHistory, string(data))
}

// ClearHistory removes the chat log.
func (s *SettingsStore) ClearHistory() error {
	return s.storage.Remove(keyChatHistory)
}
