package componentdb

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pavexcore/pavexc/pkg/errors"
)

// SourceLocation pinpoints the Blueprint-building call a node came from.
type SourceLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// BlueprintNodeKind discriminates the Blueprint input tree's node types, a
// direct mirror of the serialized registration tree pavexc ingests.
type BlueprintNodeKind string

const (
	NodeRegisteredConstructor              BlueprintNodeKind = "registered_constructor"
	NodeRegisteredRoute                    BlueprintNodeKind = "registered_route"
	NodeRegisteredWrappingMiddleware       BlueprintNodeKind = "registered_wrapping_middleware"
	NodeRegisteredPreProcessingMiddleware  BlueprintNodeKind = "registered_pre_processing_middleware"
	NodeRegisteredPostProcessingMiddleware BlueprintNodeKind = "registered_post_processing_middleware"
	NodeRegisteredFallback                 BlueprintNodeKind = "registered_fallback"
	NodeRegisteredConfig                   BlueprintNodeKind = "registered_config"
	NodeRegisteredPrebuiltType             BlueprintNodeKind = "registered_prebuilt_type"
	NodeRegisteredErrorObserver            BlueprintNodeKind = "registered_error_observer"
	NodeRegisteredImport                   BlueprintNodeKind = "registered_import"
	NodeNestedBlueprint                    BlueprintNodeKind = "nested_blueprint"
)

// BlueprintNode is one entry in the serialized Blueprint tree. Every node
// carries its SourceLocation and the fields relevant to its Kind; fields
// irrelevant to a given Kind are left zero.
type BlueprintNode struct {
	Kind   BlueprintNodeKind `json:"kind"`
	Source SourceLocation    `json:"source"`

	// Shared by constructor/route/middleware/fallback/error-observer nodes:
	// the rustdoc item id of the annotated callable this node registers.
	Callable string `json:"callable,omitempty"`

	// RegisteredConstructor fields.
	Lifecycle       Lifecycle       `json:"lifecycle,omitempty"`
	CloningStrategy CloningStrategy `json:"cloning_strategy,omitempty"`
	ErrorHandler    string          `json:"error_handler,omitempty"` // rustdoc item id, optional

	// RegisteredRoute fields.
	Path        string      `json:"path,omitempty"`
	MethodGuard MethodGuard `json:"method_guard,omitempty"`
	Handler     string      `json:"handler,omitempty"`

	// RegisteredConfig fields.
	ConfigKey        string `json:"config_key,omitempty"`
	DefaultIfMissing string `json:"default_if_missing,omitempty"` // raw Rust expression text, optional
	IncludeIfUnused  bool   `json:"include_if_unused,omitempty"`

	// Shared by RegisteredConfig and RegisteredPrebuiltType: the rustdoc
	// item id of the struct the config/prebuilt component's own type is.
	Type string `json:"type,omitempty"`

	// RegisteredImport fields.
	ModulePath string `json:"module_path,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`

	// NestedBlueprint fields.
	Prefix   string          `json:"prefix,omitempty"`
	Children []BlueprintNode `json:"children,omitempty"`
}

// LoadBlueprintFile reads a serialized Blueprint tree from path, the JSON
// form the `#[pavex::blueprint]` macro emits alongside a crate's rustdoc
// JSON.
func LoadBlueprintFile(path string) (BlueprintNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BlueprintNode{}, errors.ResolutionError(path, err)
	}

	var root BlueprintNode
	if err := json.Unmarshal(data, &root); err != nil {
		return BlueprintNode{}, errors.ResolutionError(path, fmt.Errorf("parsing blueprint file: %w", err))
	}
	return root, nil
}
