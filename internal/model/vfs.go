package model

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path"
)

const DefaultVFSCapacity = 2000

// VFS is an in-memory set of named model files consulted before the OS file
// system. It is not safe for concurrent use.
type VFS struct {
	capacity int
	files    map[string][]byte
}

func NewVFS(capacity int) *VFS {
	if capacity <= 0 {
		capacity = DefaultVFSCapacity
	}
	return &VFS{
		capacity: capacity,
		files:    make(map[string][]byte),
	}
}

// AddFile stores a copy of contents under name.
func (v *VFS) AddFile(name string, contents []byte) error {
	name = path.Clean(name)
	if _, ok := v.files[name]; ok {
		return fmt.Errorf("%w: %s", ErrRepeatedName, name)
	}
	if len(v.files) >= v.capacity {
		return ErrVFSFull
	}
	v.files[name] = bytes.Clone(contents)
	return nil
}

// DeleteFile removes name and reports whether it was present.
func (v *VFS) DeleteFile(name string) bool {
	name = path.Clean(name)
	if _, ok := v.files[name]; !ok {
		return false
	}
	delete(v.files, name)
	return true
}

func (v *VFS) Open(name string) (io.Reader, error) {
	data, ok := v.files[path.Clean(name)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return bytes.NewReader(data), nil
}

func (v *VFS) Len() int {
	return len(v.files)
}
