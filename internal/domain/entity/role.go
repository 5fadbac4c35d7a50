package entity

import "sort"

// RoleName enumeración cerrada de roles.
type RoleName string

// Roles válidos para User.
const (
	RoleGuest      RoleName = "guest"
	RoleClient     RoleName = "client"
	RoleAccountant RoleName = "accountant"
	RoleSupervisor RoleName = "supervisor"
	RoleAdmin      RoleName = "admin"
)

// RoleNames todos los roles en orden de privilegio creciente.
var RoleNames = []RoleName{RoleGuest, RoleClient, RoleAccountant, RoleSupervisor, RoleAdmin}

// ParseRoleName valida que s pertenezca a la enumeración.
func ParseRoleName(s string) (RoleName, bool) {
	for _, r := range RoleNames {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// Permission capacidad con nombre (codename).
type Permission string

// Catálogo de permisos.
const (
	PermAddUser           Permission = "add_user"
	PermViewUser          Permission = "view_user"
	PermChangeUser        Permission = "change_user"
	PermDeleteUser        Permission = "delete_user"
	PermAddCompany        Permission = "add_company"
	PermViewCompany       Permission = "view_company"
	PermChangeCompany     Permission = "change_company"
	PermDeleteCompany     Permission = "delete_company"
	PermAssignRole        Permission = "assign_role"
	PermAssignSupervisor  Permission = "assign_supervisor"
	PermAssignCompanyUser Permission = "assign_company_user"
)

// AllPermissions catálogo completo (coincide con la tabla permissions).
var AllPermissions = []Permission{
	PermAddUser, PermViewUser, PermChangeUser, PermDeleteUser,
	PermAddCompany, PermViewCompany, PermChangeCompany, PermDeleteCompany,
	PermAssignRole, PermAssignSupervisor, PermAssignCompanyUser,
}

// DefaultRolePermissions permisos que el seed asigna a cada rol.
// admin no recibe permisos: sus cuentas son superusuario.
func DefaultRolePermissions() map[RoleName][]Permission {
	return map[RoleName][]Permission{
		RoleGuest:      {PermChangeUser},
		RoleClient:     {PermViewCompany, PermChangeCompany, PermViewUser, PermChangeUser},
		RoleAccountant: {PermViewCompany, PermChangeCompany, PermViewUser, PermChangeUser},
		RoleSupervisor: {
			PermAddCompany, PermViewCompany, PermChangeCompany, PermDeleteCompany,
			PermAddUser, PermViewUser, PermChangeUser, PermDeleteUser,
			PermAssignRole, PermAssignSupervisor, PermAssignCompanyUser,
		},
		RoleAdmin: {},
	}
}

// PermissionSet conjunto de permisos.
type PermissionSet map[Permission]struct{}

// NewPermissionSet construye el conjunto a partir de una lista.
func NewPermissionSet(perms ...Permission) PermissionSet {
	s := make(PermissionSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// Has informa si el permiso está en el conjunto. Seguro sobre un set nil.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Sorted devuelve los permisos ordenados (salida estable para respuestas y tests).
func (s PermissionSet) Sorted() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Role agrupa un conjunto de permisos bajo un nombre único.
type Role struct {
	ID          string
	Name        RoleName
	Permissions PermissionSet
}
