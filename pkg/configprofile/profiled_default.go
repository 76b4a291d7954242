package configprofile

import (
	"fmt"

	"github.com/pavexcore/pavexc/pkg/errors"
	"github.com/pavexcore/pavexc/pkg/resolvedtype/configexpr"
)

// ProfiledDefault is a config field's default_if_missing expression, keyed
// by declared profile, per the supplemented `default_if_missing` becomes
// profile-keyed" behavior: one raw HCL expression per profile in set,
// evaluated against the active profile at generation time.
type ProfiledDefault struct {
	set       *Set
	byProfile map[string]string
}

// NewProfiledDefault builds a ProfiledDefault for set, validating that
// every key in exprs names a profile actually declared in set — a
// Blueprint-shape error otherwise, mirroring the derived `FromStr`'s
// exhaustive unknown-variant rejection.
func NewProfiledDefault(set *Set, exprs map[string]string) (*ProfiledDefault, error) {
	for profile := range exprs {
		if !set.Contains(profile) {
			return nil, errors.BlueprintShapeError(
				fmt.Sprintf("default_if_missing declared for undeclared profile %q", profile),
				map[string]interface{}{"profile": profile})
		}
	}
	return &ProfiledDefault{set: set, byProfile: exprs}, nil
}

// Resolve evaluates the expression declared for profile against env,
// returning the field's resolved default value. It is an error to resolve
// against a profile with no declared expression.
func (pd *ProfiledDefault) Resolve(profile string, env map[string]string) (interface{}, error) {
	if !pd.set.Contains(profile) {
		return nil, fmt.Errorf("profile %q is not declared in this set", profile)
	}
	raw, ok := pd.byProfile[profile]
	if !ok {
		return nil, fmt.Errorf("no default_if_missing declared for profile %q", profile)
	}
	return configexpr.EvalString(raw, configexpr.Context{Env: env, Profile: profile})
}
