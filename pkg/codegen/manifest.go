package codegen

import (
	"encoding/json"
	"sort"
)

// ManifestEntry is one dependency pinned to an exact version, drawn from
// the package graph.
type ManifestEntry struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	PackageID string `json:"package_id"`
}

// Manifest renders entries as indented JSON, sorted by name, so the
// manifest agrees byte-for-byte across runs over the same package graph.
// A TOML Cargo.lock has no analog writer in the pack; JSON keeps the
// manifest dependency-free without losing any of the required fields.
func Manifest(entries []ManifestEntry) ([]byte, error) {
	sorted := append([]ManifestEntry{}, entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return json.MarshalIndent(sorted, "", "  ")
}
