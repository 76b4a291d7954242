package rustdoc

import (
	"sort"
	"strings"
)

// sortablePath orders candidate public paths for an item so the shortest,
// then lexicographically first, path is chosen as canonical. Re-exports
// frequently give an item more than one valid public path; downstream code
// generation needs exactly one deterministic choice.
type sortablePath struct {
	segments []string
}

func (p sortablePath) less(other sortablePath) bool {
	if len(p.segments) != len(other.segments) {
		return len(p.segments) < len(other.segments)
	}
	return strings.Join(p.segments, "::") < strings.Join(other.segments, "::")
}

// externalReexport records that a `pub use` item stands in for a type
// actually defined in a different crate.
type externalReexport struct {
	sourcePackage string
	sourcePath    []string
}

// ImportIndex maps each item ID to the set of public paths it is reachable
// under and exposes the single canonical path chosen per sortablePath
// ordering.
type ImportIndex struct {
	// paths maps item ID -> every public path segment slice it is reachable
	// under, gathered from both its own definition site and any `pub use`
	// re-export the crate's docs recorded.
	paths map[string][][]string

	// externalReexports maps a `pub use` item's own id to the foreign crate
	// and path it re-exports, for `pub use other_crate::Type;` declarations
	// — as opposed to a same-crate re-export, which addPath already folds
	// into the canonical path search.
	externalReexports map[string]externalReexport
}

// NewImportIndex builds an ImportIndex from a crate's items, seeding each
// item with its own definition path and then folding in re-export items
// (KindUse) that point at it.
func NewImportIndex(items []Item) *ImportIndex {
	idx := &ImportIndex{paths: make(map[string][][]string), externalReexports: make(map[string]externalReexport)}

	for _, it := range items {
		if !it.IsPublic() {
			continue
		}
		idx.addPath(it.ID, it.FullPath())
	}

	for _, it := range items {
		if it.Kind != KindUse || !it.IsPublic() {
			continue
		}
		// A `use` item's Output, if present, names the re-exported item's
		// def ID; its own FullPath is the additional public path.
		if it.Output != nil && it.Output.DefID != "" {
			idx.addPath(it.Output.DefID, it.FullPath())
		}
		if it.Output != nil {
			if source, path, ok := foreignTarget(it.CrateName, it.Output.Repr); ok {
				idx.externalReexports[it.ID] = externalReexport{sourcePackage: source, sourcePath: path}
			}
		}
	}

	return idx
}

// foreignTarget splits a `use` item's Output.Repr ("other_crate::module::Type")
// into the crate it names and the path within it, reporting ok=false when
// repr is empty or its leading segment is ownCrate (a same-crate re-export,
// not an external one).
func foreignTarget(ownCrate, repr string) (crate string, path []string, ok bool) {
	if repr == "" {
		return "", nil, false
	}
	segments := strings.Split(repr, "::")
	if len(segments) < 2 {
		return "", nil, false
	}
	if segments[0] == ownCrate || segments[0] == "crate" || segments[0] == "self" {
		return "", nil, false
	}
	return segments[0], segments[1:], true
}

func (idx *ImportIndex) addPath(itemID string, path []string) {
	idx.paths[itemID] = append(idx.paths[itemID], path)
}

// CanonicalPath returns the shortest, lexicographically-first public path
// for itemID, or nil if the item has no known public path.
func (idx *ImportIndex) CanonicalPath(itemID string) []string {
	candidates := idx.paths[itemID]
	if len(candidates) == 0 {
		return nil
	}

	sorted := make([]sortablePath, len(candidates))
	for i, c := range candidates {
		sorted[i] = sortablePath{segments: c}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].less(sorted[j]) })
	return sorted[0].segments
}

// AllPaths returns every known public path for itemID.
func (idx *ImportIndex) AllPaths(itemID string) [][]string {
	return idx.paths[itemID]
}

// ExternalReexport reports the foreign crate and path itemID's `pub use`
// re-export follows into, per §4.1's external_reexport: (source_package,
// source_path), or ok=false when itemID is not a `pub use` of a foreign
// item (either unknown, or a same-crate re-export already folded into
// CanonicalPath/AllPaths).
func (idx *ImportIndex) ExternalReexport(itemID string) (sourcePackage string, sourcePath []string, ok bool) {
	r, found := idx.externalReexports[itemID]
	if !found {
		return "", nil, false
	}
	return r.sourcePackage, r.sourcePath, true
}
