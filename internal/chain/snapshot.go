package chain

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/ssamchain/ssam/internal/blockmodel"
)

// JSONSnapshotWriter append-persists each accepted main block to a
// local JSON file, the Go counterpart of the source's write_to_json:
// a best-effort side channel for the block viewer, not part of
// consensus. Failures are logged, never returned — a disk or encoding
// problem here must not stall the staker role loop.
type JSONSnapshotWriter struct {
	mu   sync.Mutex
	path string
	log  *zap.Logger
}

// NewJSONSnapshotWriter builds a writer targeting path. If path is
// empty, Write is a no-op, letting callers disable snapshotting
// without special-casing it at call sites.
func NewJSONSnapshotWriter(path string, log *zap.Logger) *JSONSnapshotWriter {
	if log == nil {
		log = zap.NewNop()
	}
	return &JSONSnapshotWriter{path: path, log: log}
}

// Write appends block to the snapshot file, reading and rewriting the
// whole JSON array (matching the source's approach) since these
// snapshots are a debugging/viewer aid, not a hot path.
func (w *JSONSnapshotWriter) Write(block *blockmodel.MainBlock) {
	if w.path == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.append(block); err != nil {
		w.log.Warn("failed to append chain snapshot", zap.String("path", w.path), zap.Error(err))
	}
}

func (w *JSONSnapshotWriter) append(block *blockmodel.MainBlock) error {
	var snapshot []json.RawMessage

	if info, err := os.Stat(w.path); err == nil && info.Size() > 0 {
		existing, err := os.ReadFile(w.path)
		if err != nil {
			return fmt.Errorf("read existing snapshot: %w", err)
		}
		if err := json.Unmarshal(existing, &snapshot); err != nil {
			w.log.Warn("snapshot file corrupted, reinitializing", zap.String("path", w.path))
			snapshot = nil
		}
	}

	encoded, err := json.Marshal(block)
	if err != nil {
		return fmt.Errorf("encode block: %w", err)
	}
	snapshot = append(snapshot, encoded)

	out, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	return os.WriteFile(w.path, out, 0o644)
}
