package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// Snapshot is a point-in-time export of the favorites set.
type Snapshot struct {
	Seq    uint64   `json:"seq"`
	TsUnix int64    `json:"ts"`
	Key    string   `json:"key"`
	IDs    []string `json:"ids"`
}

// SnapshotManager writes and reads favorites exports in a directory.
type SnapshotManager struct {
	dir string
}

func NewSnapshotManager(dir string) *SnapshotManager {
	return &SnapshotManager{dir: dir}
}

type snapFile struct {
	path string
	seq  uint64
}

func (sm *SnapshotManager) list() ([]snapFile, error) {
	entries, err := os.ReadDir(sm.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot dir: %w", err)
	}

	var files []snapFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var seq uint64
		var ts int64
		if _, err := fmt.Sscanf(entry.Name(), "snapshot_%d_%d.json", &seq, &ts); err != nil {
			continue
		}
		files = append(files, snapFile{path: filepath.Join(sm.dir, entry.Name()), seq: seq})
	}

	// newest first
	slices.SortFunc(files, func(a, b snapFile) int {
		switch {
		case a.seq > b.seq:
			return -1
		case a.seq < b.seq:
			return 1
		}
		return 0
	})
	return files, nil
}

// Save writes ids as the next snapshot and returns it.
func (sm *SnapshotManager) Save(key string, ids []string) (*Snapshot, error) {
	if err := os.MkdirAll(sm.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	files, err := sm.list()
	if err != nil {
		return nil, err
	}
	var seq uint64 = 1
	if len(files) > 0 {
		seq = files[0].seq + 1
	}

	snap := &Snapshot{Seq: seq, TsUnix: time.Now().Unix(), Key: key, IDs: normalize(ids)}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	path := filepath.Join(sm.dir, fmt.Sprintf("snapshot_%d_%d.json", snap.Seq, snap.TsUnix))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write snapshot: %w", err)
	}

	slog.Info("Snapshot saved",
		slog.Uint64("seq", snap.Seq),
		slog.Int("ids", len(snap.IDs)),
		slog.String("path", path))
	return snap, nil
}

// LoadLatest returns the newest snapshot, or nil when none exists.
func (sm *SnapshotManager) LoadLatest() (*Snapshot, error) {
	files, err := sm.list()
	if err != nil || len(files) == 0 {
		return nil, err
	}

	data, err := os.ReadFile(files[0].path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Cleanup keeps only the newest keepCount snapshots.
func (sm *SnapshotManager) Cleanup(keepCount int) error {
	files, err := sm.list()
	if err != nil {
		return err
	}
	if keepCount < 0 {
		keepCount = 0
	}
	for i := keepCount; i < len(files); i++ {
		if err := os.Remove(files[i].path); err != nil {
			slog.Warn("Failed to remove old snapshot", slog.String("path", files[i].path))
		}
	}
	return nil
}
