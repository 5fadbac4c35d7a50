package access

import "github.com/jhoicas/evidenta-api/internal/domain/entity"

// ScopeKind forma del conjunto visible.
type ScopeKind int

const (
	// ScopeNone no ve nada (sesión anónima).
	ScopeNone ScopeKind = iota
	// ScopeSelf solo el propio usuario.
	ScopeSelf
	// ScopeSharedCompanies usuarios no superusuario que comparten al menos una empresa con ActorID.
	ScopeSharedCompanies
	// ScopeMember empresas de las que ActorID es miembro.
	ScopeMember
	// ScopeAll sin restricción.
	ScopeAll
)

// Scope restricción que los repositorios aplican dentro de la propia consulta,
// antes de cualquier búsqueda por id.
type Scope struct {
	Kind    ScopeKind
	ActorID string
}

// Unrestricted alcance global para procesos internos (seed, login, limpieza).
var Unrestricted = Scope{Kind: ScopeAll}

// VisibleUsers alcance de usuarios según el rol del actor.
// Un usuario sin rol se trata como guest.
func VisibleUsers(actor *entity.User) Scope {
	if actor == nil {
		return Scope{Kind: ScopeNone}
	}
	switch actor.RoleName() {
	case entity.RoleSupervisor, entity.RoleAdmin:
		return Scope{Kind: ScopeAll, ActorID: actor.ID}
	case entity.RoleClient, entity.RoleAccountant:
		return Scope{Kind: ScopeSharedCompanies, ActorID: actor.ID}
	default:
		return Scope{Kind: ScopeSelf, ActorID: actor.ID}
	}
}

// VisibleCompanies alcance de empresas según el rol del actor.
func VisibleCompanies(actor *entity.User) Scope {
	if actor == nil {
		return Scope{Kind: ScopeNone}
	}
	switch actor.RoleName() {
	case entity.RoleSupervisor, entity.RoleAdmin:
		return Scope{Kind: ScopeAll, ActorID: actor.ID}
	default:
		return Scope{Kind: ScopeMember, ActorID: actor.ID}
	}
}

// UserVisible evalúa el alcance en memoria. actorCompanies son las empresas del actor.
func (s Scope) UserVisible(target *entity.User, actorCompanies []string) bool {
	if target == nil {
		return false
	}
	switch s.Kind {
	case ScopeAll:
		return true
	case ScopeSelf:
		return target.ID == s.ActorID
	case ScopeSharedCompanies:
		if target.IsSuperuser {
			return false
		}
		for _, c := range actorCompanies {
			if target.InCompany(c) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// CompanyVisible evalúa el alcance de empresa en memoria.
func (s Scope) CompanyVisible(c *entity.Company) bool {
	if c == nil {
		return false
	}
	switch s.Kind {
	case ScopeAll:
		return true
	case ScopeMember:
		for _, id := range c.UserIDs {
			if id == s.ActorID {
				return true
			}
		}
		return false
	default:
		return false
	}
}
