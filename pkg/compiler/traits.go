package compiler

import (
	"github.com/pavexcore/pavexc/pkg/resolvedtype"
	"github.com/pavexcore/pavexc/pkg/rustdoc"
)

// BuildTraitIndex scans every KindImpl item visible across the
// workspace's dependency closure and records it, scoping visibility to
// exactly the crates that were actually ingested.
func BuildTraitIndex(workspace *WorkspaceDocs) *resolvedtype.TraitIndex {
	idx := resolvedtype.NewTraitIndex(workspace.VisibleCrateNames())
	for _, item := range workspace.AllItems() {
		if item.Kind != rustdoc.KindImpl || item.ImplTrait == nil || item.ImplFor == nil {
			continue
		}
		t, err := resolvedtype.ParsePath(item.ImplFor.Repr)
		if err != nil {
			continue
		}
		idx.Add(resolvedtype.TraitImpl{
			Type:      t,
			Trait:     item.ImplTrait.Repr,
			CrateName: item.CrateName,
		})
	}
	return idx
}
