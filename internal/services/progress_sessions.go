package services

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/ad/go-telegram-onboarding/internal/models"
)

// ProgressRootKey prefixes every persisted progress blob.
const ProgressRootKey = "root"

func ProgressKey(userID int64) string {
	return fmt.Sprintf("%s:%d", ProgressRootKey, userID)
}

type ProgressLoader interface {
	Load(key string) ([]byte, error)
}

// ProgressSessions owns one ProgressStore per user for the lifetime of the
// process. Stores are resumed from the loader on first use and written back
// through the persister on every change.
type ProgressSessions struct {
	loader    ProgressLoader
	persister *ProgressPersister

	mu     sync.Mutex
	stores map[int64]*ProgressStore
}

func NewProgressSessions(loader ProgressLoader, persister *ProgressPersister) *ProgressSessions {
	return &ProgressSessions{
		loader:    loader,
		persister: persister,
		stores:    make(map[int64]*ProgressStore),
	}
}

// Get returns the user's store, resuming it on first use. The loader runs
// outside the registry lock; if two callers race on a new user, the first
// store registered wins.
func (s *ProgressSessions) Get(userID int64) *ProgressStore {
	s.mu.Lock()
	store, ok := s.stores[userID]
	s.mu.Unlock()
	if ok {
		return store
	}

	key := ProgressKey(userID)
	store = NewProgressStore()
	s.resume(key, store)

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.stores[userID]; ok {
		return existing
	}
	if s.persister != nil {
		store.Subscribe(s.persister.Listener(key))
	}
	s.stores[userID] = store
	return store
}

// resume leaves store at its initial state when nothing usable was persisted.
func (s *ProgressSessions) resume(key string, store *ProgressStore) {
	if s.loader == nil {
		return
	}
	data, err := s.loader.Load(key)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("[SESSIONS] Failed to load progress %s, starting over: %v", key, err)
		}
		return
	}
	state, err := models.DecodeProgressState(data)
	if err != nil {
		log.Printf("[SESSIONS] Discarding persisted progress %s: %v", key, err)
		return
	}
	if err := store.Restore(state); err != nil {
		log.Printf("[SESSIONS] Failed to restore progress %s: %v", key, err)
	}
}

func (s *ProgressSessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stores)
}
