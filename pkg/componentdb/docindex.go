package componentdb

import (
	"strings"

	"github.com/pavexcore/pavexc/pkg/rustdoc"
)

// CrateDocIndex adapts a loaded rustdoc.CrateDocs into the DocIndex
// interface the Blueprint hydration pass depends on.
type CrateDocIndex struct {
	docs *rustdoc.CrateDocs
}

// NewCrateDocIndex wraps docs for use as a ComponentDB DocIndex.
func NewCrateDocIndex(docs *rustdoc.CrateDocs) *CrateDocIndex {
	return &CrateDocIndex{docs: docs}
}

func (i *CrateDocIndex) Lookup(itemID string) (rustdoc.Item, error) {
	return i.docs.Lookup(itemID)
}

// ExternalReexport follows itemID's `pub use` re-export, if any, into the
// foreign crate and path it stands in for.
func (i *CrateDocIndex) ExternalReexport(itemID string) (sourcePackage string, sourcePath []string, ok bool) {
	return i.docs.Imports.ExternalReexport(itemID)
}

// AnnotatedItemsUnder returns every annotated item whose module path is
// modulePath or nested under it, mirroring how a RegisteredImport sweeps a
// Rust module tree for #[pavex::*]-annotated items.
func (i *CrateDocIndex) AnnotatedItemsUnder(modulePath string) ([]rustdoc.AnnotatedItem, error) {
	prefix := strings.Split(modulePath, "::")
	var out []rustdoc.AnnotatedItem
	for _, ai := range rustdoc.AnnotatedItems(i.docs) {
		if hasPathPrefix(ai.Item.Path, prefix) {
			out = append(out, ai)
		}
	}
	return out, nil
}

func hasPathPrefix(path, prefix []string) bool {
	if len(prefix) > len(path) {
		return false
	}
	for i, seg := range prefix {
		if path[i] != seg {
			return false
		}
	}
	return true
}
