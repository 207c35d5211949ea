package directory

import "github.com/xtvctl/xtv/store"

// FileStore keeps a directory snapshot as a YAML document.
type FileStore[T any] struct {
	path string
}

func NewFileStore[T any](path string) *FileStore[T] {
	return &FileStore[T]{path: path}
}

func (f *FileStore[T]) Path() string {
	return f.path
}

func (f *FileStore[T]) Load() (T, bool, error) {
	var v T
	found, err := store.ReadYAML(f.path, &v)
	return v, found, err
}

func (f *FileStore[T]) Save(v T) error {
	return store.WriteYAML(f.path, v)
}

// Clear deletes the snapshot. A missing snapshot is not an error.
func (f *FileStore[T]) Clear() error {
	return store.Remove(f.path)
}
