package resolvedtype

import (
	"fmt"

	"github.com/pavexcore/pavexc/pkg/errors"
)

// TraitImpl records that a concrete type implements a trait, as discovered
// from a rustdoc KindImpl item.
type TraitImpl struct {
	Type      ResolvedType
	Trait     string
	CrateName string
}

// TraitIndex answers "does T implement Trait?" using only impls visible
// within the crates actually reachable from the compiled Blueprint's
// dependency closure — an impl defined in a crate that isn't a transitive
// dependency of the workspace is invisible, matching real trait coherence
// rules and resolving the open question on downstream trait-impl
// visibility (see SPEC_FULL.md §9).
type TraitIndex struct {
	impls         []TraitImpl
	visibleCrates map[string]bool
}

// NewTraitIndex builds an index scoped to the given set of visible crates.
func NewTraitIndex(visibleCrates []string) *TraitIndex {
	vis := make(map[string]bool, len(visibleCrates))
	for _, c := range visibleCrates {
		vis[c] = true
	}
	return &TraitIndex{visibleCrates: vis}
}

// Add records a trait impl discovered in the Doc Index.
func (ti *TraitIndex) Add(impl TraitImpl) {
	ti.impls = append(ti.impls, impl)
}

// Implements reports whether t implements trait, considering only impls
// from visible crates.
func (ti *TraitIndex) Implements(t ResolvedType, trait string) bool {
	for _, impl := range ti.impls {
		if !ti.visibleCrates[impl.CrateName] {
			continue
		}
		if impl.Trait == trait && Equal(impl.Type, t) {
			return true
		}
	}
	return false
}

// AssertImplemented returns a TraitError if t does not implement trait in
// any visible crate.
func (ti *TraitIndex) AssertImplemented(t ResolvedType, trait string) error {
	if ti.Implements(t, trait) {
		return nil
	}
	return errors.TraitError(t.String(), trait)
}

// AssertCloneIfNecessary checks the Clone requirement of a clone-insertion
// repair: it reports a BorrowError, not a TraitError, because the concrete
// failure mode is known (a clone is needed to resolve a borrow conflict).
// The borrow checker in pkg/callgraph does not call it.
func (ti *TraitIndex) AssertCloneIfNecessary(t ResolvedType, nodeID string) error {
	if ti.Implements(t, "Clone") {
		return nil
	}
	return errors.BorrowError(nodeID, fmt.Sprintf("%s must implement Clone to repair this borrow conflict", t.String()))
}
