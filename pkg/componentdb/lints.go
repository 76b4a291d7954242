package componentdb

import (
	"fmt"

	"github.com/pavexcore/pavexc/pkg/errors"
)

// Lint runs every shape check over a hydrated DB that can't be enforced
// incrementally while walking the Blueprint tree (duplicate router keys
// already fail fast during Build; these checks need the full DB).
func (db *DB) Lint() []error {
	var errs []error
	errs = append(errs, db.lintConfigKeys()...)
	errs = append(errs, db.lintErrorHandlerTargets()...)
	return errs
}

// lintConfigKeys rejects a RegisteredConfig entry with no key, and any
// second RegisteredConfig entry claiming a key already taken, whatever its
// type, since ApplicationConfig can only carry one field per key.
func (db *DB) lintConfigKeys() []error {
	seen := map[string]UserComponent{}
	var errs []error
	for _, uc := range db.Users {
		if uc.Kind != KindConfigType {
			continue
		}
		if uc.ConfigKey == "" {
			errs = append(errs, errors.BlueprintShapeError("config component missing a key", map[string]interface{}{"component_id": uc.ID}))
			continue
		}
		if existing, ok := seen[uc.ConfigKey]; ok {
			errs = append(errs, errors.BlueprintShapeError(
				fmt.Sprintf("config key %q registered more than once", uc.ConfigKey),
				map[string]interface{}{"first_component_id": existing.ID, "second_component_id": uc.ID}))
			continue
		}
		seen[uc.ConfigKey] = uc
	}
	return errs
}

// lintErrorHandlerTargets rejects an ErrorHandler whose target points at a
// component id that was never interned.
func (db *DB) lintErrorHandlerTargets() []error {
	var errs []error
	for _, uc := range db.Users {
		if uc.Kind != KindErrorHandler {
			continue
		}
		if uc.ErrorHandlerTargetKind != ErrorHandlerTargetComponent {
			continue
		}
		if _, ok := db.Users[uc.ErrorHandlerTargetID]; !ok {
			errs = append(errs, errors.BlueprintShapeError(
				fmt.Sprintf("error handler targets unknown component %q", uc.ErrorHandlerTargetID),
				map[string]interface{}{"component_id": uc.ID}))
		}
	}
	return errs
}
