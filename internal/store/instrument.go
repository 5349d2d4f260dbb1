package store

import (
	"context"

	"github.com/ManuGH/geoanonymizer/internal/metrics"
	"github.com/ManuGH/geoanonymizer/spatial"
)

// instrumented counts store operations per backend. The factory wraps every
// backend with it so callers get metrics without knowing about them.
type instrumented struct {
	backend string
	inner   Store
}

func instrument(backend string, inner Store) Store {
	return &instrumented{backend: backend, inner: inner}
}

func (s *instrumented) Load(ctx context.Context, key string) (spatial.Point, bool, error) {
	p, ok, err := s.inner.Load(ctx, key)
	switch {
	case err != nil:
		metrics.IncStoreOp(s.backend, "get", "error")
	case ok:
		metrics.IncStoreOp(s.backend, "get", "hit")
	default:
		metrics.IncStoreOp(s.backend, "get", "miss")
	}
	return p, ok, err
}

func (s *instrumented) Save(ctx context.Context, key string, p spatial.Point) error {
	err := s.inner.Save(ctx, key, p)
	if err != nil {
		metrics.IncStoreOp(s.backend, "put", "error")
		return err
	}
	metrics.IncStoreOp(s.backend, "put", "ok")
	if m, ok := s.inner.(*MemoryStore); ok {
		metrics.SetStoreEntries(s.backend, m.Len())
	}
	return nil
}

func (s *instrumented) Close() error {
	return s.inner.Close()
}

// Maintain forwards to the backend when it has upkeep to do.
func (s *instrumented) Maintain(ctx context.Context) error {
	if m, ok := s.inner.(Maintainer); ok {
		return m.Maintain(ctx)
	}
	return nil
}

var _ Store = (*instrumented)(nil)
