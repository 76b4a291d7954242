package componentdb

import "github.com/pavexcore/pavexc/pkg/resolvedtype"

// ErrorHandlerFor resolves §4.7's error-handler preference order for a
// fallible component's Err arm: an explicit binding on fallibleComponentID
// itself wins; failing that, the nearest scope-default handler registered
// for errType, walking outward through scope ancestors starting at scope
// itself. Returns the handler's UserComponent id.
func (db *DB) ErrorHandlerFor(fallibleComponentID string, errType resolvedtype.ResolvedType, scope string) (string, bool) {
	for _, uc := range db.Users {
		if uc.Kind != KindErrorHandler || uc.ErrorHandlerTargetKind != ErrorHandlerTargetComponent {
			continue
		}
		if uc.ErrorHandlerTargetID == fallibleComponentID {
			return uc.ID, true
		}
	}

	for _, s := range db.Scopes.Ancestors(scope) {
		var best UserComponent
		found := false
		for _, uc := range db.Users {
			if uc.Kind != KindErrorHandler || uc.ErrorHandlerTargetKind != ErrorHandlerTargetErrorType {
				continue
			}
			if uc.Scope != s || uc.ErrorHandlerTargetType.String() != errType.String() {
				continue
			}
			if !found || RegistrationSeq(uc.ID) < RegistrationSeq(best.ID) {
				best, found = uc, true
			}
		}
		if found {
			return best.ID, true
		}
	}
	return "", false
}
