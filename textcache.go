package triviacards

import (
	"context"
	"sync"
	"time"
)

// TextCache holds the raw text of the file each browsing session loaded.
// Entries live until the session ends or they go stale.
type TextCache interface {
	Put(ctx context.Context, sessionID string, file LoadedFile) error
	Get(ctx context.Context, sessionID string) (LoadedFile, error)
	Delete(ctx context.Context, sessionID string) error
	Prune(ctx context.Context, olderThan time.Time) (int, error)
	Close() error
}

// MemoryCache keeps loaded files in process memory
type MemoryCache struct {
	mu    sync.RWMutex
	files map[string]LoadedFile
}

// NewMemoryCache creates an empty in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		files: make(map[string]LoadedFile),
	}
}

// Put stores or replaces the file for a session
func (mc *MemoryCache) Put(_ context.Context, sessionID string, file LoadedFile) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if file.LoadedAt.IsZero() {
		file.LoadedAt = time.Now()
	}
	mc.files[sessionID] = file
	return nil
}

// Get retrieves the file for a session
func (mc *MemoryCache) Get(_ context.Context, sessionID string) (LoadedFile, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	file, ok := mc.files[sessionID]
	if !ok {
		return LoadedFile{}, ErrCacheMiss
	}
	return file, nil
}

// Delete removes the file for a session
func (mc *MemoryCache) Delete(_ context.Context, sessionID string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	delete(mc.files, sessionID)
	return nil
}

// Prune removes files loaded before olderThan
func (mc *MemoryCache) Prune(_ context.Context, olderThan time.Time) (int, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	removed := 0
	for id, file := range mc.files {
		if file.LoadedAt.Before(olderThan) {
			delete(mc.files, id)
			removed++
		}
	}
	return removed, nil
}

// Size returns the number of sessions holding a file
func (mc *MemoryCache) Size() int {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return len(mc.files)
}

func (mc *MemoryCache) Close() error {
	return nil
}

// OpenTextCache opens the cache named by the config
func OpenTextCache(cfg CacheConfig) (TextCache, error) {
	if cfg.Driver == "memory" {
		return NewMemoryCache(), nil
	}
	db, err := OpenCacheDB(cfg.Path)
	if err != nil {
		return nil, err
	}
	if err := db.CreateTables(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
