package storage

import (
	"context"
	"errors"

	"github.com/lintang-b-s/bike-route-planner/pkg/datastructure"
)

var ErrGraphNotFound = errors.New("no stored graph")

// Store persists a built graph so it can be served without rebuilding.
type Store interface {
	Save(ctx context.Context, g *datastructure.Graph) error
	Load(ctx context.Context) (*datastructure.Graph, error)
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
