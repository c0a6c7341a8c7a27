// Package confkit holds small helpers shared by the configuration loaders:
// .env bootstrap, project-root discovery and side-loaded config sections.
package confkit

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolvePath expands environment variables in file and, when the result is
// relative, joins it onto base.
func ResolvePath(base, file string) string {
	file = os.ExpandEnv(file)
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(base, file)
}

// BaseDir returns the directory of the main config file path.
func BaseDir(mainPath string) string {
	return filepath.Dir(mainPath)
}

// Section is a config block whose body lives in its own file, referenced from
// the main config by path.
type Section[T any] struct {
	File  string `json:",optional"`
	Value *T     `json:"-"`
}

// Loaded reports whether the section carries a value.
func (s *Section[T]) Loaded() bool {
	return s != nil && s.Value != nil
}

// Hydrate loads File (resolved against base) through loader. An empty File is
// a no-op so optional sections can be left out.
func (s *Section[T]) Hydrate(base string, loader func(string) (*T, error)) error {
	if s.File == "" {
		return nil
	}
	p := ResolvePath(base, s.File)
	v, err := loader(p)
	if err != nil {
		return fmt.Errorf("section %s: %w", p, err)
	}
	s.File, s.Value = p, v
	return nil
}

// ValueOr returns the hydrated value, falling back to fallback() when the
// section was not configured.
func (s *Section[T]) ValueOr(fallback func() *T) *T {
	if s.Loaded() {
		return s.Value
	}
	return fallback()
}
