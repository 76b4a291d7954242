// Package resolvedtype implements the closed ResolvedType sum type used
// throughout the rest of the compiler to represent a concrete Rust type once
// a raw rustdoc TypeRef has been resolved against the Doc Index.
package resolvedtype

import "strings"

// Kind discriminates the ResolvedType sum type.
type Kind string

const (
	KindPath      Kind = "path"
	KindReference Kind = "reference"
	KindTuple     Kind = "tuple"
	KindSlice     Kind = "slice"
	KindScalar    Kind = "scalar"
	KindGeneric   Kind = "generic"
)

// ScalarPrimitive enumerates Rust's built-in scalar types.
type ScalarPrimitive string

const (
	ScalarBool  ScalarPrimitive = "bool"
	ScalarChar  ScalarPrimitive = "char"
	ScalarStr   ScalarPrimitive = "str"
	ScalarI8    ScalarPrimitive = "i8"
	ScalarI16   ScalarPrimitive = "i16"
	ScalarI32   ScalarPrimitive = "i32"
	ScalarI64   ScalarPrimitive = "i64"
	ScalarI128  ScalarPrimitive = "i128"
	ScalarISize ScalarPrimitive = "isize"
	ScalarU8    ScalarPrimitive = "u8"
	ScalarU16   ScalarPrimitive = "u16"
	ScalarU32   ScalarPrimitive = "u32"
	ScalarU64   ScalarPrimitive = "u64"
	ScalarU128  ScalarPrimitive = "u128"
	ScalarUSize ScalarPrimitive = "usize"
	ScalarF32   ScalarPrimitive = "f32"
	ScalarF64   ScalarPrimitive = "f64"
	ScalarUnit  ScalarPrimitive = "()"
)

// PathType is a concrete named type: a crate-qualified segment path plus any
// generic arguments bound at this position (e.g. std::sync::Arc<crate::Db>).
type PathType struct {
	CrateName string
	Segments  []string
	Generics  []ResolvedType
}

// String renders the path in Rust syntax, e.g. "std::sync::Arc<crate::Db>".
func (p PathType) String() string {
	var sb strings.Builder
	sb.WriteString(strings.Join(p.Segments, "::"))
	if len(p.Generics) > 0 {
		sb.WriteString("<")
		for i, g := range p.Generics {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(g.String())
		}
		sb.WriteString(">")
	}
	return sb.String()
}

// ReferenceType is a Rust borrow: &T or &mut T.
type ReferenceType struct {
	Inner   *ResolvedType
	Mutable bool
}

// ResolvedType is the closed sum type for every type pavexc reasons about:
// a concrete path, a reference, a tuple, a slice, a scalar primitive, or an
// unbound generic parameter awaiting specialization.
type ResolvedType struct {
	Kind Kind

	Path      *PathType
	Reference *ReferenceType
	Tuple     []ResolvedType
	Slice     *ResolvedType
	Scalar    ScalarPrimitive
	// Generic holds the parameter name, e.g. "T", when Kind == KindGeneric.
	Generic string
}

// Path builds a concrete named ResolvedType.
func Path(crate string, segments []string, generics ...ResolvedType) ResolvedType {
	return ResolvedType{Kind: KindPath, Path: &PathType{CrateName: crate, Segments: segments, Generics: generics}}
}

// Ref builds a shared-reference ResolvedType.
func Ref(inner ResolvedType) ResolvedType {
	return ResolvedType{Kind: KindReference, Reference: &ReferenceType{Inner: &inner, Mutable: false}}
}

// MutRef builds a mutable-reference ResolvedType.
func MutRef(inner ResolvedType) ResolvedType {
	return ResolvedType{Kind: KindReference, Reference: &ReferenceType{Inner: &inner, Mutable: true}}
}

// Scalar builds a scalar primitive ResolvedType.
func Scalar(s ScalarPrimitive) ResolvedType {
	return ResolvedType{Kind: KindScalar, Scalar: s}
}

// Generic builds an unbound generic-parameter ResolvedType.
func Generic(name string) ResolvedType {
	return ResolvedType{Kind: KindGeneric, Generic: name}
}

// IsGeneric reports whether t (or any of its structural components)
// contains an unbound generic parameter.
func (t ResolvedType) IsGeneric() bool {
	switch t.Kind {
	case KindGeneric:
		return true
	case KindReference:
		return t.Reference.Inner.IsGeneric()
	case KindSlice:
		return t.Slice.IsGeneric()
	case KindTuple:
		for _, e := range t.Tuple {
			if e.IsGeneric() {
				return true
			}
		}
		return false
	case KindPath:
		for _, g := range t.Path.Generics {
			if g.IsGeneric() {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// String renders t in Rust syntax.
func (t ResolvedType) String() string {
	switch t.Kind {
	case KindPath:
		return t.Path.String()
	case KindReference:
		prefix := "&"
		if t.Reference.Mutable {
			prefix = "&mut "
		}
		return prefix + t.Reference.Inner.String()
	case KindTuple:
		parts := make([]string, len(t.Tuple))
		for i, e := range t.Tuple {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindSlice:
		return "[" + t.Slice.String() + "]"
	case KindScalar:
		return string(t.Scalar)
	case KindGeneric:
		return t.Generic
	default:
		return "<unknown>"
	}
}

// Equal reports structural equality between two ResolvedTypes.
func Equal(a, b ResolvedType) bool {
	return a.String() == b.String()
}
