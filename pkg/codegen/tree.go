package codegen

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pavexcore/pavexc/pkg/errors"
)

// File is one emitted source file, path relative to the generated crate's
// root.
type File struct {
	Path     string
	Contents []byte
}

// Tree is the full generated source tree: one module per route stage plus
// the top-level entry module and the manifest, per §4.11/§6.
type Tree struct {
	Files []File
}

// Write materializes t under dir, creating parent directories as needed.
func Write(t *Tree, dir string) error {
	for _, f := range t.Files {
		full := filepath.Join(dir, f.Path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return errors.EmissionError(full, err)
		}
		if err := os.WriteFile(full, f.Contents, 0o644); err != nil {
			return errors.EmissionError(full, err)
		}
	}
	return nil
}

// Check compares t against the tree already on disk at dir without writing
// anything, reporting whether they differ. A missing on-disk file counts
// as a difference. This backs `pavexc check`'s exit behavior (§6): zero
// iff a fresh generation would produce byte-identical output.
func Check(t *Tree, dir string) (bool, error) {
	for _, f := range t.Files {
		full := filepath.Join(dir, f.Path)
		existing, err := os.ReadFile(full)
		if os.IsNotExist(err) {
			return true, nil
		}
		if err != nil {
			return false, errors.EmissionError(full, err)
		}
		if !bytes.Equal(existing, f.Contents) {
			return true, nil
		}
	}
	return false, nil
}
