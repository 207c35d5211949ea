// Package directory holds lookup tables that are filled once per process,
// either from a snapshot on disk or from the remote API, and written back to
// disk when the process shuts down.
package directory

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Store loads and saves a directory snapshot. Load reports found=false when
// no snapshot exists.
type Store[T any] interface {
	Load() (value T, found bool, err error)
	Save(value T) error
}

// FetchFunc builds the directory from the remote API.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Lazy is a directory populated on first Get. Once populated it never
// changes for the life of the process. The returned value is shared and must
// not be modified.
type Lazy[T any] struct {
	name  string
	store Store[T]
	fetch FetchFunc[T]
	log   *zap.Logger

	mu     sync.RWMutex
	value  T
	loaded bool

	group singleflight.Group
}

// NewLazy returns an empty directory. store may be nil, in which case
// nothing is loaded or flushed.
func NewLazy[T any](name string, store Store[T], fetch FetchFunc[T], log *zap.Logger) *Lazy[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Lazy[T]{
		name:  name,
		store: store,
		fetch: fetch,
		log:   log.With(zap.String("directory", name)),
	}
}

// Get returns the in-memory directory, populating it from the store or,
// failing that, the remote fetch. Concurrent first calls share one populate.
// A failed fetch leaves the directory empty so the next call tries again.
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	if v, ok := l.cached(); ok {
		return v, nil
	}

	v, err, _ := l.group.Do("populate", func() (any, error) {
		if v, ok := l.cached(); ok {
			return v, nil
		}
		v, err := l.populate(ctx)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.value, l.loaded = v, true
		l.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (l *Lazy[T]) cached() (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.value, l.loaded
}

func (l *Lazy[T]) populate(ctx context.Context) (T, error) {
	if l.store != nil {
		v, found, err := l.store.Load()
		switch {
		case err != nil:
			// An unreadable snapshot is as good as none.
			l.log.Warn("ignoring unreadable directory snapshot", zap.Error(err))
		case found:
			l.log.Debug("directory loaded from snapshot")
			return v, nil
		}
	}

	v, err := l.fetch(ctx)
	if err != nil {
		return v, err
	}
	l.log.Debug("directory fetched from remote")
	return v, nil
}

// Loaded reports whether the directory has been populated.
func (l *Lazy[T]) Loaded() bool {
	_, ok := l.cached()
	return ok
}

// Flush writes the directory to the store. An unpopulated directory is
// left alone.
func (l *Lazy[T]) Flush() error {
	v, ok := l.cached()
	if !ok || l.store == nil {
		return nil
	}
	return l.store.Save(v)
}
