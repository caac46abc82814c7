package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Keys of the three independently persisted blobs.
const (
	PreferencesKey = "dontGetFat_preferences"
	MealPlanKey    = "dontGetFat_mealPlan"
	GroceryListKey = "dontGetFat_groceryList"
)

// ErrNotFound is returned by Load when nothing is stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// Storage is durable key/value storage for JSON blobs.
type Storage interface {
	Load(key string) ([]byte, error)
	Save(key string, data []byte) error
	Remove(key string) error
}

// FileStore keeps one JSON file per key under a base directory.
type FileStore struct {
	basePath string
}

// NewFileStore creates a FileStore and ensures the base directory exists.
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &FileStore{basePath: basePath}, nil
}

// sanitizeKey makes the key safe for filenames.
func sanitizeKey(key string) string {
	return strings.NewReplacer("/", "-", "\\", "-", ":", "-").Replace(key)
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.basePath, sanitizeKey(key)+".json")
}

// Load reads the blob stored under key.
func (s *FileStore) Load(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Save writes the blob through a temporary file so a crash never leaves half a document behind.
func (s *FileStore) Save(key string, data []byte) error {
	target := s.path(key)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}
	return nil
}

// Remove deletes the blob. Removing a missing key is not an error.
func (s *FileStore) Remove(key string) error {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// MemoryStore is an in-process Storage, used by tests and ephemeral sessions.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Load(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryStore) Save(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), data...)
	return nil
}

func (s *MemoryStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

type prefixed struct {
	inner  Storage
	prefix string
}

// WithPrefix scopes every key of s under prefix, giving each user their own set of blobs.
func WithPrefix(s Storage, prefix string) Storage {
	return &prefixed{inner: s, prefix: prefix}
}

func (p *prefixed) Load(key string) ([]byte, error)    { return p.inner.Load(p.prefix + key) }
func (p *prefixed) Save(key string, data []byte) error { return p.inner.Save(p.prefix+key, data) }
func (p *prefixed) Remove(key string) error            { return p.inner.Remove(p.prefix + key) }

// LoadJSON decodes the blob under key into v and reports whether a value was loaded.
// A blob that does not parse is removed and treated as absent.
func LoadJSON[T any](s Storage, key string, v *T) bool {
	data, err := s.Load(key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("Failed to load %s from storage: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Printf("Failed to parse %s from storage, resetting: %v", key, err)
		var zero T
		*v = zero
		Remove(s, key)
		return false
	}
	return true
}

// SaveJSON encodes v under key. Failures are logged, not returned.
func SaveJSON(s Storage, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Failed to encode %s for storage: %v", key, err)
		return
	}
	if err := s.Save(key, data); err != nil {
		log.Printf("Failed to save %s to storage: %v", key, err)
	}
}

// Remove deletes key. Failures are logged, not returned.
func Remove(s Storage, key string) {
	if err := s.Remove(key); err != nil {
		log.Printf("Failed to remove %s from storage: %v", key, err)
	}
}
