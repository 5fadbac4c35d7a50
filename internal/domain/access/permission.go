// Package access reúne las reglas puras de autorización: permisos efectivos,
// guardas de asignación y alcance de visibilidad por rol.
package access

import "github.com/jhoicas/evidenta-api/internal/domain/entity"

// HasPermission informa si el usuario tiene el permiso por su rol o por concesión directa.
// Un superusuario activo tiene todos los permisos. Nunca falla con usuario o rol nil.
func HasPermission(u *entity.User, p entity.Permission) bool {
	if u == nil {
		return false
	}
	if u.IsSuperuser && u.IsActive {
		return true
	}
	if u.Role != nil && u.Role.Permissions.Has(p) {
		return true
	}
	for _, direct := range u.Permissions {
		if direct == p {
			return true
		}
	}
	return false
}

// HasAllPermissions exige todos los permisos indicados.
func HasAllPermissions(u *entity.User, perms ...entity.Permission) bool {
	for _, p := range perms {
		if !HasPermission(u, p) {
			return false
		}
	}
	return true
}

// EffectivePermissions permisos del rol más los directos (o el catálogo completo para superusuarios).
func EffectivePermissions(u *entity.User) entity.PermissionSet {
	if u == nil {
		return entity.PermissionSet{}
	}
	if u.IsSuperuser && u.IsActive {
		return entity.NewPermissionSet(entity.AllPermissions...)
	}
	out := entity.NewPermissionSet(u.Permissions...)
	if u.Role != nil {
		for p := range u.Role.Permissions {
			out[p] = struct{}{}
		}
	}
	return out
}
