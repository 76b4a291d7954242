package resolvedtype

// Callable is a resolved function or method pavexc can invoke as a
// constructor, handler, middleware, or error handler: its full path plus
// resolved input and output types.
type Callable struct {
	Path    PathType
	Inputs  []ResolvedType
	Output  ResolvedType
	IsAsync bool
	// IsFallible reports whether Output is a std::result::Result<T, E>;
	// OkType/ErrType are only meaningful when true.
	IsFallible bool
	OkType     ResolvedType
	ErrType    ResolvedType
}

// IsResultType reports whether t is std::result::Result<_, _>.
func IsResultType(t ResolvedType) bool {
	return t.Kind == KindPath &&
		len(t.Path.Segments) > 0 &&
		t.Path.Segments[len(t.Path.Segments)-1] == "Result" &&
		len(t.Path.Generics) == 2
}

// NewCallable builds a Callable from resolved input/output types, detecting
// fallibility from the output's shape.
func NewCallable(path PathType, inputs []ResolvedType, output ResolvedType, isAsync bool) Callable {
	c := Callable{Path: path, Inputs: inputs, Output: output, IsAsync: isAsync}
	if IsResultType(output) {
		c.IsFallible = true
		c.OkType = output.Path.Generics[0]
		c.ErrType = output.Path.Generics[1]
	}
	return c
}

// ProducedType returns the type a successful invocation of c makes
// available to its dependents: Output itself for infallible callables, or
// OkType for fallible ones.
func (c Callable) ProducedType() ResolvedType {
	if c.IsFallible {
		return c.OkType
	}
	return c.Output
}
