// Package configloader reads YAML overrides for the lexicon and reply templates.
package configloader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Loader resolves YAML files against a base directory.
type Loader struct {
	baseDir string
	strict  bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithStrict rejects keys that do not map to a field of the target.
func WithStrict() Option {
	return func(l *Loader) { l.strict = true }
}

// NewLoader creates a loader rooted at baseDir. An empty baseDir resolves
// relative paths against the working directory.
func NewLoader(baseDir string, opts ...Option) *Loader {
	l := &Loader{baseDir: baseDir}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads one YAML file and unmarshals it into target. An empty file
// leaves target untouched.
func (l *Loader) Load(path string, target any) error {
	data, err := l.ReadFileWithFallback(path)
	if err != nil {
		return fmt.Errorf("read file %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(l.strict)
	if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("unmarshal YAML %s: %w", path, err)
	}
	return nil
}

// ReadFileWithFallback reads path relative to the base directory, then relative
// to the executable's directory for installed binaries. Absolute paths are read
// as is.
func (l *Loader) ReadFileWithFallback(path string) ([]byte, error) {
	if filepath.IsAbs(path) {
		return os.ReadFile(path)
	}

	data, err := os.ReadFile(filepath.Join(l.baseDir, path))
	if err == nil {
		return data, nil
	}

	execPath, execErr := os.Executable()
	if execErr != nil {
		return nil, err
	}
	data, fallbackErr := os.ReadFile(filepath.Join(filepath.Dir(execPath), l.baseDir, path))
	if fallbackErr != nil {
		return nil, err
	}
	return data, nil
}
