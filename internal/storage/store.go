package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"bpi-tracker/internal/domain"
)

// SnapshotStore persists the complete sample sequence after every successful cycle.
type SnapshotStore interface {
	Save(ctx context.Context, samples []domain.Sample) error
	Load(ctx context.Context) ([]domain.Sample, error)
}

// ErrNoSnapshot indicates the snapshot file does not exist yet.
var ErrNoSnapshot = errors.New("storage: snapshot not found")

// FileStore keeps the snapshot as a JSON array on disk, one sample per line.
type FileStore struct {
	path string
	perm os.FileMode
}

// NewFileStore returns a store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, perm: 0o644}
}

// Path returns the snapshot location.
func (s *FileStore) Path() string {
	return s.path
}

// Save replaces the snapshot atomically: readers see either the previous
// complete document or the new one.
// The write is not interruptible, so ctx is not consulted.
func (s *FileStore) Save(_ context.Context, samples []domain.Sample) error {
	data, err := Encode(samples)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersist, err)
	}

	if err := ensureDir(s.path); err != nil {
		return fmt.Errorf("%w: create snapshot dir: %w", domain.ErrPersist, err)
	}
	if err := renameio.WriteFile(s.path, data, s.perm); err != nil {
		return fmt.Errorf("%w: write snapshot: %w", domain.ErrPersist, err)
	}
	return nil
}

// Load reads the snapshot back in file order.
func (s *FileStore) Load(ctx context.Context) ([]domain.Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoSnapshot, s.path)
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return Decode(data)
}

// Encode renders samples as a JSON array with each object on its own line.
func Encode(samples []domain.Sample) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("[\n")
	for i, sample := range samples {
		obj, err := json.Marshal(sample)
		if err != nil {
			return nil, fmt.Errorf("marshal sample %d: %w", i, err)
		}
		buf.Write(obj)
		if i < len(samples)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("]\n")
	return buf.Bytes(), nil
}

// Decode parses a snapshot document.
func Decode(data []byte) ([]domain.Sample, error) {
	samples := make([]domain.Sample, 0)
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return samples, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

var _ SnapshotStore = (*FileStore)(nil)
