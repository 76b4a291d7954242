package callgraph

import (
	"fmt"

	"github.com/pavexcore/pavexc/pkg/componentdb"
	"github.com/pavexcore/pavexc/pkg/errors"
	"github.com/pavexcore/pavexc/pkg/resolvedtype"
)

// ComponentSource is the subset of the Component DB the builder needs:
// resolving a component id to the Callable it invokes and the lifecycle
// policy governing how often it is constructed.
type ComponentSource interface {
	Callable(componentID string) (resolvedtype.Callable, bool)
	Lifecycle(componentID string) (componentdb.Lifecycle, bool)
	CloningStrategy(componentID string) (componentdb.CloningStrategy, bool)
	// ErrorHandlerFor resolves §4.7's error-handler preference order for a
	// fallible component's error type in scope, returning the handler's
	// component id.
	ErrorHandlerFor(fallibleComponentID string, errType resolvedtype.ResolvedType, scope string) (string, bool)
	// Component looks up the base Component record backing componentID, so
	// a derived Ok/Err match can be interned with the right Scope.
	Component(componentID string) (componentdb.Component, bool)
	// NewComponentID and InternSynthetic register a call-graph-derived
	// Component in the Component DB, giving it the same hydrate/lint
	// visibility as any other interned component.
	NewComponentID(prefix string) string
	InternSynthetic(c componentdb.Component)
}

// Resolver answers "which component, visible in scope, produces type T",
// i.e. pkg/constructibles.Index.GetOrBind.
type Resolver interface {
	GetOrBind(scope string, t resolvedtype.ResolvedType) (string, bool)
}

// FrameworkItemClassifier reports whether t is a framework-supplied type
// (the incoming request, connection info, ...) rather than something the
// Constructibles Index must construct, returning the framework item's
// kind name when it is.
type FrameworkItemClassifier func(t resolvedtype.ResolvedType) (kind string, ok bool)

// Builder builds one stage's call graph: the root component plus every
// transitive dependency the Constructibles Index can supply.
type Builder struct {
	components  ComponentSource
	resolver    Resolver
	isFramework FrameworkItemClassifier

	// prebuilt maps a request-scoped type's string representation to the
	// node id that already produced it in an earlier pipeline stage, so a
	// downstream stage reuses rather than reconstructs it.
	prebuilt map[string]string

	// errorSources maps a fallible component's error type string to the
	// ErrMatch node id that projects it, for the lifetime of a single
	// Build call. A wired error handler's own inputs are resolved through
	// this map instead of the Constructibles Index, so the error value
	// reaches the handler in its original argument position.
	errorSources map[string]string

	// constructSingletons forces singleton-lifecycle dependencies to be
	// invoked as real Compute nodes instead of the usual appstate_-sourced
	// InputParameter shortcut. Set only by pkg/appstate, which builds
	// ApplicationState's own graph — the one place a singleton's
	// constructor actually runs rather than being referenced by value from
	// an already-built ApplicationState.
	constructSingletons bool
}

// NewBuilder creates a call graph builder for one pipeline stage, where
// singleton dependencies are references into an already-built
// ApplicationState. prebuilt may be nil.
func NewBuilder(components ComponentSource, resolver Resolver, isFramework FrameworkItemClassifier, prebuilt map[string]string) *Builder {
	if prebuilt == nil {
		prebuilt = map[string]string{}
	}
	return &Builder{components: components, resolver: resolver, isFramework: isFramework, prebuilt: prebuilt}
}

// NewApplicationStateBuilder creates a call graph builder for
// ApplicationState's own construction graph, where singleton dependencies
// must be invoked for real rather than referenced from ApplicationState.
func NewApplicationStateBuilder(components ComponentSource, resolver Resolver, isFramework FrameworkItemClassifier) *Builder {
	b := NewBuilder(components, resolver, isFramework, nil)
	b.constructSingletons = true
	return b
}

type queueItem struct {
	typ      resolvedtype.ResolvedType
	consumer string
}

// Build constructs the call graph rooted at rootComponentID, registered in
// scope.
func (b *Builder) Build(rootComponentID, scope string) (*Graph, error) {
	b.errorSources = nil
	callable, ok := b.components.Callable(rootComponentID)
	if !ok {
		return nil, errors.UnconstructibleError(rootComponentID, scope)
	}

	g := NewGraph()
	rootNode := &Node{ID: "n0", Kind: NodeCompute, ComponentID: rootComponentID, OutputType: callable.ProducedType()}
	g.AddNode(rootNode)
	g.RootID = rootNode.ID

	// producedBy tracks, per (componentID, scope) pair, the node id already
	// materialized for it within this graph — step 4's redundant-node
	// collapse, applied eagerly rather than as a post-pass.
	producedBy := map[string]string{rootComponentID: rootNode.ID}

	seq := 1
	freshID := func() string {
		id := fmt.Sprintf("n%d", seq)
		seq++
		return id
	}

	queue := make([]queueItem, 0, len(callable.Inputs))
	for _, in := range callable.Inputs {
		queue = append(queue, queueItem{typ: in, consumer: rootNode.ID})
	}
	if callable.IsFallible {
		if err := b.wireFallible(g, rootNode, callable, scope, freshID, &queue); err != nil {
			return nil, err
		}
	}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if err := b.resolveInput(g, item, scope, producedBy, freshID, &queue); err != nil {
			return nil, err
		}
	}

	return g, nil
}

func (b *Builder) resolveInput(g *Graph, item queueItem, scope string, producedBy map[string]string, freshID func() string, queue *[]queueItem) error {
	t := item.typ
	borrow := t.Kind == resolvedtype.KindReference
	concrete := t
	if borrow {
		concrete = *t.Reference.Inner
	}

	// An in-flight error value a wired §4.7 handler is waiting on.
	if nodeID, ok := b.errorSources[concrete.String()]; ok {
		g.AddEdge(nodeID, item.consumer, edgeKindFor(borrow))
		return nil
	}

	// Framework-supplied values.
	if b.isFramework != nil {
		if kind, ok := b.isFramework(concrete); ok {
			nodeID := "framework_" + kind
			if _, exists := g.Nodes[nodeID]; !exists {
				g.AddNode(&Node{ID: nodeID, Kind: NodeInputParameter, SourceKind: InputSourceFrameworkItem, FrameworkItem: kind, OutputType: concrete})
			}
			g.AddEdge(nodeID, item.consumer, edgeKindFor(borrow))
			return nil
		}
	}

	// Already prebuilt upstream in this request (request-scoped carried
	// over from an earlier pipeline stage).
	if nodeID, ok := b.prebuilt[concrete.String()]; ok {
		if _, exists := g.Nodes[nodeID]; !exists {
			g.AddNode(&Node{ID: nodeID, Kind: NodeInputParameter, SourceKind: InputSourceComponent, OutputType: concrete})
		}
		g.AddEdge(nodeID, item.consumer, edgeKindFor(borrow))
		return nil
	}

	componentID, ok := b.resolver.GetOrBind(scope, concrete)
	if !ok {
		return errors.UnconstructibleError(concrete.String(), scope)
	}

	lifecycle, _ := b.components.Lifecycle(componentID)
	if lifecycle == componentdb.LifecycleSingleton && !b.constructSingletons {
		nodeID := "appstate_" + componentID
		if _, exists := g.Nodes[nodeID]; !exists {
			g.AddNode(&Node{ID: nodeID, Kind: NodeInputParameter, SourceKind: InputSourceComponent, SourceComponent: componentID, OutputType: concrete, FromAppState: true})
		}
		g.AddEdge(nodeID, item.consumer, edgeKindFor(borrow))
		return nil
	}

	// Collapse redundant nodes: reuse an existing Compute node for the same
	// component within this graph, unless it is Transient.
	if existingID, produced := producedBy[componentID]; produced && lifecycle != componentdb.LifecycleTransient {
		g.AddEdge(existingID, item.consumer, edgeKindFor(borrow))
		return nil
	}

	callable, ok := b.components.Callable(componentID)
	if !ok {
		return errors.UnconstructibleError(componentID, scope)
	}

	nodeID := freshID()
	node := &Node{ID: nodeID, Kind: NodeCompute, ComponentID: componentID, OutputType: callable.ProducedType()}
	g.AddNode(node)
	if lifecycle != componentdb.LifecycleTransient {
		producedBy[componentID] = nodeID
	}
	g.AddEdge(nodeID, item.consumer, edgeKindFor(borrow))

	for _, in := range callable.Inputs {
		*queue = append(*queue, queueItem{typ: in, consumer: nodeID})
	}
	if callable.IsFallible {
		if err := b.wireFallible(g, node, callable, scope, freshID, queue); err != nil {
			return err
		}
	}
	return nil
}

// wireFallible attaches the MatchBranching/OkMatch/ErrMatch trio to a
// fallible Compute node, per §4.6 step 2, and resolves §4.7's error
// handler for the ErrMatch arm: an explicit binding on parent's own
// component wins, otherwise the nearest scope-default handler registered
// for callable.ErrType. When one resolves, its own dependencies are
// queued exactly like any other component's, with the error value itself
// available through errorSources.
func (b *Builder) wireFallible(g *Graph, parent *Node, callable resolvedtype.Callable, scope string, freshID func() string, queue *[]queueItem) error {
	branchID := freshID()
	okID := freshID()
	errID := freshID()

	okNode := &Node{ID: okID, Kind: NodeCompute, MatchArm: MatchArmOk, DerivedFrom: parent.ID, OutputType: callable.OkType}
	errNode := &Node{ID: errID, Kind: NodeCompute, MatchArm: MatchArmErr, DerivedFrom: parent.ID, OutputType: callable.ErrType}

	if parentComp, ok := b.components.Component(parent.ComponentID); ok {
		okCompID := b.components.NewComponentID("ok_match")
		b.components.InternSynthetic(componentdb.NewOkMatch(okCompID, parentComp, callable.OkType))
		okNode.ComponentID = okCompID

		errCompID := b.components.NewComponentID("err_match")
		b.components.InternSynthetic(componentdb.NewErrMatch(errCompID, parentComp, callable.ErrType))
		errNode.ComponentID = errCompID
	}

	g.AddNode(&Node{ID: branchID, Kind: NodeMatchBranching, BranchesFrom: parent.ID, OkNodeID: okID, ErrNodeID: errID})
	g.AddNode(okNode)
	g.AddNode(errNode)

	parent.OutputType = callable.OkType

	// ApplicationState's own construction graph has no request to produce a
	// Response from, so a singleton constructor's error always propagates
	// bare into ApplicationStateError — §4.7's handler wiring only applies
	// to request-pipeline fallible components.
	if b.constructSingletons {
		return nil
	}

	if handlerID, ok := b.components.ErrorHandlerFor(parent.ComponentID, callable.ErrType, scope); ok {
		handlerCallable, ok := b.components.Callable(handlerID)
		if !ok {
			return errors.UnconstructibleError(handlerID, scope)
		}
		handlerNodeID := freshID()
		g.AddNode(&Node{ID: handlerNodeID, Kind: NodeCompute, ComponentID: handlerID, DerivedFrom: errID, OutputType: handlerCallable.ProducedType()})
		errNode.ErrorHandlerID = handlerNodeID

		if b.errorSources == nil {
			b.errorSources = map[string]string{}
		}
		b.errorSources[callable.ErrType.String()] = errID

		for _, in := range handlerCallable.Inputs {
			*queue = append(*queue, queueItem{typ: in, consumer: handlerNodeID})
		}
	}

	return nil
}

func edgeKindFor(borrow bool) EdgeKind {
	if borrow {
		return EdgeSharedBorrow
	}
	return EdgeMove
}
