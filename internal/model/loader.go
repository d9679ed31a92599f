package model

import (
	"embed"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

//go:embed catalogue/*.xml
var catalogue embed.FS

// Loader resolves model references. A reference is looked up in the VFS
// first, then on the OS file system, then among the built-in models by
// name (with or without the .xml suffix).
type Loader struct {
	vfs *VFS
}

// NewLoader returns a loader over vfs. A nil vfs is treated as empty.
func NewLoader(vfs *VFS) *Loader {
	return &Loader{vfs: vfs}
}

// Load is shorthand for a loader without a VFS.
func Load(ref string) (*Description, error) {
	return NewLoader(nil).Load(ref)
}

// Load resolves ref and parses it. Every failure is a *LoadError.
func (l *Loader) Load(ref string) (*Description, error) {
	if ref == "" {
		return nil, &LoadError{Ref: ref, Err: ErrUnknownModel}
	}
	data, name, err := l.read(ref)
	if err != nil {
		return nil, &LoadError{Ref: ref, Err: err}
	}
	d, err := Parse(data, DetectFormat(name, data))
	if err != nil {
		return nil, &LoadError{Ref: ref, Err: err}
	}
	return d, nil
}

func (l *Loader) read(ref string) ([]byte, string, error) {
	if l.vfs != nil {
		if r, err := l.vfs.Open(ref); err == nil {
			data, err := io.ReadAll(r)
			return data, ref, err
		}
	}

	data, err := os.ReadFile(ref)
	if err == nil {
		return data, ref, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, ref, err
	}

	name := path.Join("catalogue", strings.TrimSuffix(ref, ".xml")+".xml")
	data, err = catalogue.ReadFile(name)
	if err != nil {
		return nil, ref, ErrUnknownModel
	}
	return data, name, nil
}

// Builtins lists the names of the embedded models.
func Builtins() []string {
	entries, err := catalogue.ReadDir("catalogue")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".xml"))
	}
	sort.Strings(names)
	return names
}
