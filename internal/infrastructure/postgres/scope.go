package postgres

import "github.com/jhoicas/evidenta-api/internal/domain/access"

// userScopeClause condición SQL del alcance sobre la tabla users con alias u.
func userScopeClause(scope access.Scope, a *args) string {
	switch scope.Kind {
	case access.ScopeAll:
		return "TRUE"
	case access.ScopeSelf:
		if !validID(scope.ActorID) {
			return "FALSE"
		}
		return "u.id = " + a.add(scope.ActorID)
	case access.ScopeSharedCompanies:
		if !validID(scope.ActorID) {
			return "FALSE"
		}
		return `(NOT u.is_superuser AND EXISTS (
			SELECT 1 FROM company_users mine
			JOIN company_users theirs ON theirs.company_id = mine.company_id
			WHERE mine.user_id = ` + a.add(scope.ActorID) + ` AND theirs.user_id = u.id))`
	default:
		return "FALSE"
	}
}

// companyScopeClause condición SQL del alcance sobre companies con alias c.
func companyScopeClause(scope access.Scope, a *args) string {
	switch scope.Kind {
	case access.ScopeAll:
		return "TRUE"
	case access.ScopeMember:
		if !validID(scope.ActorID) {
			return "FALSE"
		}
		return "EXISTS (SELECT 1 FROM company_users m WHERE m.company_id = c.id AND m.user_id = " + a.add(scope.ActorID) + ")"
	default:
		return "FALSE"
	}
}
