package chain

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestJSONSnapshotWriterAppendsAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "chain.json")
	w := NewJSONSnapshotWriter(path, zap.NewNop())

	genesis := Genesis()
	w.Write(genesis)

	c := New(zap.NewNop())
	b1 := next(c, "staker1:abc", "root1", nil)
	w.Write(b1)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var snapshot []json.RawMessage
	if err := json.Unmarshal(data, &snapshot); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(snapshot) != 2 {
		t.Fatalf("snapshot has %d entries, want 2", len(snapshot))
	}
}

func TestJSONSnapshotWriterNoopWhenPathEmpty(t *testing.T) {
	w := NewJSONSnapshotWriter("", zap.NewNop())
	w.Write(Genesis()) // must not panic or create anything
}

func TestJSONSnapshotWriterRecoversFromCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chain.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	w := NewJSONSnapshotWriter(path, zap.NewNop())
	w.Write(Genesis())

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var snapshot []json.RawMessage
	if err := json.Unmarshal(data, &snapshot); err != nil {
		t.Fatalf("Unmarshal after recovery: %v", err)
	}
	if len(snapshot) != 1 {
		t.Fatalf("snapshot has %d entries after recovery, want 1", len(snapshot))
	}
}
