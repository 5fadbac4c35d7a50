package access

import (
	"github.com/jhoicas/evidenta-api/internal/domain"
	"github.com/jhoicas/evidenta-api/internal/domain/entity"
)

// RequireLogin falla con login_required si no hay usuario en sesión.
func RequireLogin(actor *entity.User) error {
	if actor == nil {
		return domain.LoginRequired()
	}
	return nil
}

// RequirePermissions combina login y permisos, en ese orden.
func RequirePermissions(actor *entity.User, perms ...entity.Permission) error {
	if err := RequireLogin(actor); err != nil {
		return err
	}
	if !HasAllPermissions(actor, perms...) {
		return domain.PermissionRequired(actor.Username, "", permNames(perms)...)
	}
	return nil
}

// CheckCanAssignCompany exige assign_company_user para fijar membresías.
func CheckCanAssignCompany(actor *entity.User) error {
	if !HasPermission(actor, entity.PermAssignCompanyUser) {
		return domain.PermissionRequired(username(actor), "assign companies", string(entity.PermAssignCompanyUser))
	}
	return nil
}

// CheckCanAssignRole valida la asignación de rol. El orden es fijo:
// assign_role, después admin siempre denegado, después supervisor exige assign_supervisor.
func CheckCanAssignRole(actor *entity.User, target entity.RoleName) error {
	if !HasPermission(actor, entity.PermAssignRole) {
		return domain.PermissionRequired(username(actor), "assign role", string(entity.PermAssignRole))
	}
	if target == entity.RoleAdmin {
		return domain.PermissionRequired(username(actor), "assign role admin")
	}
	if target == entity.RoleSupervisor && !HasPermission(actor, entity.PermAssignSupervisor) {
		return domain.PermissionRequired(username(actor), "assign role supervisor", string(entity.PermAssignSupervisor))
	}
	return nil
}

func username(u *entity.User) string {
	if u == nil {
		return ""
	}
	return u.Username
}

func permNames(perms []entity.Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}
