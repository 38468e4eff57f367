package sharedstate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type fileState struct {
	IsTracking bool       `json:"is_tracking"`
	StartTime  *time.Time `json:"start_time,omitempty"`
	IsLoggedIn bool       `json:"is_logged_in"`
}

// FileStore keeps the shared flags in a JSON file written with an atomic
// rename, so a reader in another process never sees a torn write. Missing or
// unreadable files read as the zero state; the store itself never reports an
// error.
type FileStore struct {
	mu          sync.Mutex
	path        string
	subscribers []func()
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) IsTracking() bool {
	return s.read().IsTracking
}

func (s *FileStore) SetTracking(tracking bool) {
	s.write(func(state *fileState) {
		state.IsTracking = tracking
	})
}

func (s *FileStore) StartTime() *time.Time {
	return s.read().StartTime
}

func (s *FileStore) SetStartTime(start *time.Time) {
	s.write(func(state *fileState) {
		if start == nil {
			state.StartTime = nil
			return
		}
		t := start.UTC()
		state.StartTime = &t
	})
}

func (s *FileStore) IsLoggedIn() bool {
	return s.read().IsLoggedIn
}

func (s *FileStore) SetLoggedIn(loggedIn bool) {
	s.write(func(state *fileState) {
		state.IsLoggedIn = loggedIn
	})
}

func (s *FileStore) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// read loads the file on every call so a process always sees the latest
// committed write from any sibling process.
func (s *FileStore) read() fileState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) write(mutate func(*fileState)) {
	s.mu.Lock()
	state := s.load()
	mutate(&state)
	s.store(state)
	subscribers := make([]func(), len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn()
	}
}

func (s *FileStore) load() fileState {
	var state fileState
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return state
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		return fileState{}
	}
	return state
}

func (s *FileStore) store(state fileState) {
	raw, err := json.Marshal(state)
	if err != nil {
		return
	}
	dir := filepath.Dir(s.path)
	_ = os.MkdirAll(dir, 0o755)

	tmp, err := os.CreateTemp(dir, ".shared-state-*")
	if err != nil {
		return
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return
	}
	_ = os.Rename(tmpName, s.path)
}
