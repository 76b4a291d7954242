package rustdoc

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pavexcore/pavexc/pkg/errors"
)

// formatVersion is the only rustdoc JSON schema version pavexc ingests.
// Detecting and rejecting mismatched versions keeps a detect-then-dispatch
// schema loader shape, simplified because the Doc Index only ever targets
// one upstream format.
const formatVersion = 1

// rawDoc mirrors the subset of rustdoc JSON output pavexc consumes.
type rawDoc struct {
	FormatVersion int    `json:"format_version"`
	CrateName     string `json:"crate_name"`
	Items         []Item `json:"items"`
}

// CrateDocs is the fully ingested Doc Index entry for a single crate: every
// public and crate-visible item plus the import index used to canonicalize
// paths.
type CrateDocs struct {
	CrateName string
	Items     []Item
	ByID      map[string]Item
	Imports   *ImportIndex
}

// Loader ingests rustdoc JSON files into CrateDocs.
type Loader interface {
	LoadCrate(path string) (*CrateDocs, error)
	// PeekDependencies returns the extern-crate names referenced by the
	// crate at path, without fully ingesting it. Implements
	// pkg/resolver.CrateLoader.
	PeekDependencies(path string) ([]string, error)
}

type loader struct{}

// NewLoader creates a Doc Index loader.
func NewLoader() Loader {
	return &loader{}
}

func (l *loader) LoadCrate(path string) (*CrateDocs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, fmt.Sprintf("failed to read %s", path), err)
	}

	var doc rawDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.ParseError(path, err)
	}
	if doc.FormatVersion != 0 && doc.FormatVersion != formatVersion {
		return nil, errors.New(errors.ErrCodeParse,
			fmt.Sprintf("unsupported rustdoc format_version %d in %s (expected %d)", doc.FormatVersion, path, formatVersion))
	}

	byID := make(map[string]Item, len(doc.Items))
	for _, it := range doc.Items {
		it.CrateName = doc.CrateName
		byID[it.ID] = it
	}

	return &CrateDocs{
		CrateName: doc.CrateName,
		Items:     doc.Items,
		ByID:      byID,
		Imports:   NewImportIndex(doc.Items),
	}, nil
}

func (l *loader) PeekDependencies(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, fmt.Sprintf("failed to read %s", path), err)
	}

	var partial struct {
		ExternCrates []string `json:"extern_crates"`
	}
	if err := json.Unmarshal(data, &partial); err != nil {
		return nil, errors.ParseError(path, err)
	}
	return partial.ExternCrates, nil
}

// Lookup resolves a rustdoc item ID to its Item, failing with a
// ResolutionError if absent.
func (cd *CrateDocs) Lookup(itemID string) (Item, error) {
	it, ok := cd.ByID[itemID]
	if !ok {
		return Item{}, errors.ResolutionError(itemID, fmt.Errorf("item not found in crate %s", cd.CrateName))
	}
	return it, nil
}
