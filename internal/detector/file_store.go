package detector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type fileSnapshot struct {
	States    map[string]State `json:"states"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// FileStore is a MemoryStore persisted as a JSON snapshot after every Put,
// so last-known signals survive restarts.
type FileStore struct {
	mem      *MemoryStore
	mu       sync.Mutex
	filePath string
}

// NewFileStore loads the snapshot at filePath; a missing file starts empty.
func NewFileStore(filePath string) (*FileStore, error) {
	snap, err := loadSnapshot(filePath)
	if err != nil {
		return nil, err
	}
	mem := NewMemoryStore()
	for k, v := range snap.States {
		mem.states[k] = v
	}
	return &FileStore{mem: mem, filePath: filePath}, nil
}

func (f *FileStore) Get(ctx context.Context, instrument string) (State, bool, error) {
	return f.mem.Get(ctx, instrument)
}

func (f *FileStore) Put(ctx context.Context, instrument string, st State) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Memory only changes once the snapshot is on disk, so a failed write
	// leaves the previous state for the next observation to compare against.
	states := f.mem.Snapshot()
	states[instrument] = st
	if err := saveSnapshot(f.filePath, fileSnapshot{States: states, UpdatedAt: time.Now()}); err != nil {
		return err
	}
	return f.mem.Put(ctx, instrument, st)
}

func loadSnapshot(filePath string) (fileSnapshot, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fileSnapshot{}, nil
		}
		return fileSnapshot{}, fmt.Errorf("read detector state: %w", err)
	}
	var snap fileSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fileSnapshot{}, fmt.Errorf("decode detector state: %w", err)
	}
	return snap, nil
}

// saveSnapshot writes via a temp file and rename so a crash never leaves a
// truncated snapshot.
func saveSnapshot(filePath string, snap fileSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filePath)
}
