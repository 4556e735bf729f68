package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lintang-b-s/bike-route-planner/pkg/datastructure"
)

// FileStore keeps the graph in one compressed file. Save writes a temporary
// file next to the target and renames it, so a failed save leaves any
// previous graph untouched.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Save(ctx context.Context, g *datastructure.Graph) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := g.WriteGraph(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write graph: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStore) Load(ctx context.Context) (*datastructure.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", s.path, ErrGraphNotFound)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := datastructure.ReadGraph(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return g, nil
}
