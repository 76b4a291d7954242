package resolvedtype

import (
	"strings"

	"github.com/pavexcore/pavexc/pkg/errors"
)

var scalarNames = map[string]ScalarPrimitive{
	"bool": ScalarBool, "char": ScalarChar, "str": ScalarStr,
	"i8": ScalarI8, "i16": ScalarI16, "i32": ScalarI32, "i64": ScalarI64, "i128": ScalarI128, "isize": ScalarISize,
	"u8": ScalarU8, "u16": ScalarU16, "u32": ScalarU32, "u64": ScalarU64, "u128": ScalarU128, "usize": ScalarUSize,
	"f32": ScalarF32, "f64": ScalarF64,
	"()": ScalarUnit,
}

// ParsePath parses a rendered Rust type path such as
// "std::sync::Arc<crate::Db>" or "&crate::Db" into a ResolvedType. Single
// uppercase-first identifiers with no "::" and no known scalar meaning are
// treated as unbound generic parameters (e.g. "T").
func ParsePath(repr string) (ResolvedType, error) {
	repr = strings.TrimSpace(repr)

	if repr == "" {
		return ResolvedType{}, errors.New(errors.ErrCodeResolution, "empty type representation")
	}

	if strings.HasPrefix(repr, "&mut ") {
		inner, err := ParsePath(repr[len("&mut "):])
		if err != nil {
			return ResolvedType{}, err
		}
		return MutRef(inner), nil
	}
	if strings.HasPrefix(repr, "&") {
		inner, err := ParsePath(repr[1:])
		if err != nil {
			return ResolvedType{}, err
		}
		return Ref(inner), nil
	}

	if strings.HasPrefix(repr, "(") && strings.HasSuffix(repr, ")") {
		inside := repr[1 : len(repr)-1]
		if strings.TrimSpace(inside) == "" {
			return Scalar(ScalarUnit), nil
		}
		parts := splitTopLevelComma(inside)
		elems := make([]ResolvedType, len(parts))
		for i, p := range parts {
			t, err := ParsePath(strings.TrimSpace(p))
			if err != nil {
				return ResolvedType{}, err
			}
			elems[i] = t
		}
		return ResolvedType{Kind: KindTuple, Tuple: elems}, nil
	}

	if strings.HasPrefix(repr, "[") && strings.HasSuffix(repr, "]") {
		inner, err := ParsePath(repr[1 : len(repr)-1])
		if err != nil {
			return ResolvedType{}, err
		}
		return ResolvedType{Kind: KindSlice, Slice: &inner}, nil
	}

	if scalar, ok := scalarNames[repr]; ok {
		return Scalar(scalar), nil
	}

	base, genericsStr := splitGenerics(repr)
	segments := strings.Split(base, "::")

	if len(segments) == 1 && genericsStr == "" && isGenericParamName(segments[0]) {
		return Generic(segments[0]), nil
	}

	var generics []ResolvedType
	if genericsStr != "" {
		for _, part := range splitTopLevelComma(genericsStr) {
			t, err := ParsePath(strings.TrimSpace(part))
			if err != nil {
				return ResolvedType{}, err
			}
			generics = append(generics, t)
		}
	}

	crate := segments[0]
	return Path(crate, segments, generics...), nil
}

// splitGenerics splits "Arc<crate::Db>" into ("Arc", "crate::Db") using the
// outermost angle-bracket pair.
func splitGenerics(repr string) (base, generics string) {
	open := strings.IndexByte(repr, '<')
	if open == -1 {
		return repr, ""
	}
	close := strings.LastIndexByte(repr, '>')
	if close <= open {
		return repr, ""
	}
	return repr[:open], repr[open+1 : close]
}

func splitTopLevelComma(s string) []string {
	var parts []string
	depth := 0
	var cur strings.Builder
	for _, r := range s {
		switch r {
		case '<':
			depth++
			cur.WriteRune(r)
		case '>':
			depth--
			cur.WriteRune(r)
		case ',':
			if depth == 0 {
				parts = append(parts, cur.String())
				cur.Reset()
			} else {
				cur.WriteRune(r)
			}
		default:
			cur.WriteRune(r)
		}
	}
	parts = append(parts, cur.String())
	return parts
}

// isGenericParamName heuristically identifies bare generic parameter names:
// a single uppercase letter, optionally followed by digits (T, T1, E, ...).
func isGenericParamName(s string) bool {
	if s == "" {
		return false
	}
	if s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	if len(s) == 1 {
		return true
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
