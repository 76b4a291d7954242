// Package resolver resolves Blueprint import declarations to on-disk rustdoc
// JSON sources that the Doc Index can ingest.
package resolver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pavexcore/pavexc/pkg/errors"
)

// Resolver resolves a crate reference to a loadable rustdoc JSON path.
type Resolver interface {
	// Resolve resolves a single crate reference.
	Resolve(ctx context.Context, ref string) (ResolvedCrate, error)

	// ResolveAll resolves multiple crate references, failing on the first error.
	ResolveAll(ctx context.Context, refs []string) ([]ResolvedCrate, error)
}

// ResolvedCrate is a crate reference resolved to a concrete rustdoc JSON file.
type ResolvedCrate struct {
	// Reference is the original module path or crate name as written in the
	// Blueprint import declaration.
	Reference string

	// Type classifies how the reference was resolved.
	Type ReferenceType

	// Path is the on-disk path to the crate's rustdoc JSON document.
	Path string

	// Version is the resolved crate version, when known.
	Version string

	// Metadata carries resolver-specific detail (e.g. whether a cache hit
	// occurred) for diagnostics.
	Metadata map[string]string
}

// ReferenceType classifies a crate reference.
type ReferenceType string

const (
	// ReferenceTypeLocal points at a rustdoc JSON file or a directory
	// containing one, on the local filesystem.
	ReferenceTypeLocal ReferenceType = "local"

	// ReferenceTypeWorkspace points at a crate name resolvable through the
	// resolver's workspace index (Options.WorkspaceIndex).
	ReferenceTypeWorkspace ReferenceType = "workspace"
)

type resolver struct {
	cacheDir       string
	workspaceIndex map[string]string // crate name -> rustdoc JSON path
}

// Options configures the resolver.
type Options struct {
	// CacheDir is the on-disk Doc Index cache directory. The resolver
	// records it (defaulting to $HOME/.cache/pavexc/docs) but does not read
	// from or write to it.
	CacheDir string

	// WorkspaceIndex maps crate names already known to the workspace (built
	// ahead of time by the orchestrator) to their rustdoc JSON paths.
	WorkspaceIndex map[string]string
}

// NewResolver creates a new crate reference resolver.
func NewResolver(opts Options) Resolver {
	cacheDir := opts.CacheDir
	if cacheDir == "" {
		homeDir, _ := os.UserHomeDir()
		cacheDir = filepath.Join(homeDir, ".cache", "pavexc", "docs")
	}
	idx := opts.WorkspaceIndex
	if idx == nil {
		idx = map[string]string{}
	}
	return &resolver{cacheDir: cacheDir, workspaceIndex: idx}
}

func (r *resolver) Resolve(ctx context.Context, ref string) (ResolvedCrate, error) {
	refType := DetectReferenceType(ref)

	switch refType {
	case ReferenceTypeLocal:
		return r.resolveLocal(ref)
	case ReferenceTypeWorkspace:
		return r.resolveWorkspace(ref)
	default:
		return ResolvedCrate{}, errors.ResolutionError(ref, fmt.Errorf("unknown reference type"))
	}
}

func (r *resolver) ResolveAll(ctx context.Context, refs []string) ([]ResolvedCrate, error) {
	results := make([]ResolvedCrate, 0, len(refs))
	for _, ref := range refs {
		resolved, err := r.Resolve(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", ref, err)
		}
		results = append(results, resolved)
	}
	return results, nil
}

func (r *resolver) resolveLocal(ref string) (ResolvedCrate, error) {
	absPath, err := filepath.Abs(ref)
	if err != nil {
		return ResolvedCrate{}, errors.ResolutionError(ref, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return ResolvedCrate{}, errors.ResolutionError(ref, err)
	}

	if info.IsDir() {
		jsonPath := filepath.Join(absPath, "doc.json")
		if _, err := os.Stat(jsonPath); err != nil {
			return ResolvedCrate{}, errors.ResolutionError(ref, fmt.Errorf("no doc.json found in %s", absPath))
		}
		absPath = jsonPath
	}

	return ResolvedCrate{
		Reference: ref,
		Type:      ReferenceTypeLocal,
		Path:      absPath,
		Metadata:  map[string]string{},
	}, nil
}

func (r *resolver) resolveWorkspace(ref string) (ResolvedCrate, error) {
	path, ok := r.workspaceIndex[ref]
	if !ok {
		return ResolvedCrate{}, errors.ResolutionError(ref, fmt.Errorf("crate %q is not part of the workspace doc cache", ref))
	}
	return ResolvedCrate{
		Reference: ref,
		Type:      ReferenceTypeWorkspace,
		Path:      path,
		Metadata:  map[string]string{"cached": "true"},
	}, nil
}

// DetectReferenceType classifies a crate reference by its syntax, without
// touching the filesystem.
func DetectReferenceType(ref string) ReferenceType {
	if strings.HasPrefix(ref, "./") || strings.HasPrefix(ref, "../") || strings.HasPrefix(ref, "/") {
		return ReferenceTypeLocal
	}
	if strings.HasSuffix(ref, ".json") {
		return ReferenceTypeLocal
	}
	return ReferenceTypeWorkspace
}
