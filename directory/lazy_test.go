package directory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xtvctl/xtv/fault"
)

type entry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type table map[string][]entry

func sample() table {
	return table{
		"ABC": {{ID: "2", Name: "ABC"}, {ID: "502", Name: "ABC HD"}},
		"NBC": {{ID: "4", Name: "NBC"}},
	}
}

type countingFetch struct {
	calls atomic.Int32
	value table
	err   error
}

func (c *countingFetch) fetch(context.Context) (table, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.value, nil
}

func TestLazy_FetchesOnce(t *testing.T) {
	f := &countingFetch{value: sample()}
	l := NewLazy[table]("channels", nil, f.fetch, zaptest.NewLogger(t))

	first, err := l.Get(context.Background())
	require.NoError(t, err)
	second, err := l.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), f.calls.Load())
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second Get differs (-first +second):\n%s", diff)
	}
}

func TestLazy_ConcurrentFirstGetSharesFetch(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	l := NewLazy[table]("channels", nil, func(context.Context) (table, error) {
		calls.Add(1)
		<-release
		return sample(), nil
	}, nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.Get(context.Background())
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestLazy_SnapshotSkipsFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.yaml")
	require.NoError(t, NewFileStore[table](path).Save(sample()))

	f := &countingFetch{}
	l := NewLazy[table]("channels", NewFileStore[table](path), f.fetch, zaptest.NewLogger(t))

	got, err := l.Get(context.Background())
	require.NoError(t, err)
	assert.Zero(t, f.calls.Load())
	if diff := cmp.Diff(sample(), got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestLazy_UnreadableSnapshotFallsBackToFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ABC: [unterminated"), 0o600))

	f := &countingFetch{value: sample()}
	l := NewLazy[table]("channels", NewFileStore[table](path), f.fetch, zaptest.NewLogger(t))

	_, err := l.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestLazy_FetchErrorIsNotCached(t *testing.T) {
	f := &countingFetch{err: fault.New(fault.Network, "GET /channelmap/", "connection reset")}
	l := NewLazy[table]("channels", nil, f.fetch, nil)

	_, err := l.Get(context.Background())
	assert.ErrorIs(t, err, fault.ErrNetwork)
	assert.False(t, l.Loaded())

	f.err = nil
	f.value = sample()
	got, err := l.Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestLazy_Flush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "devices.yaml")
	fs := NewFileStore[table](path)
	f := &countingFetch{value: sample()}
	l := NewLazy[table]("devices", fs, f.fetch, nil)

	require.NoError(t, l.Flush())
	_, err := os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist), "unpopulated directory must not be written")

	_, err = l.Get(context.Background())
	require.NoError(t, err)
	require.NoError(t, l.Flush())

	got, found, err := fs.Load()
	require.NoError(t, err)
	require.True(t, found)
	if diff := cmp.Diff(sample(), got); diff != "" {
		t.Errorf("flushed snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestLazy_FlushLoadedSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.yaml")
	fs := NewFileStore[table](path)
	require.NoError(t, fs.Save(sample()))

	l := NewLazy[table]("channels", fs, (&countingFetch{}).fetch, nil)
	_, err := l.Get(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	require.NoError(t, l.Flush())

	_, found, err := fs.Load()
	require.NoError(t, err)
	assert.True(t, found, "a directory adopted from disk is written back too")
}

func TestFileStore_Clear(t *testing.T) {
	fs := NewFileStore[table](filepath.Join(t.TempDir(), "devices.yaml"))
	require.NoError(t, fs.Save(sample()))

	require.NoError(t, fs.Clear())
	_, found, err := fs.Load()
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, fs.Clear(), "clearing a missing snapshot")
}
