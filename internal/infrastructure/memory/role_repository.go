package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhoicas/evidenta-api/internal/domain"
	"github.com/jhoicas/evidenta-api/internal/domain/entity"
	"github.com/jhoicas/evidenta-api/internal/domain/repository"
)

var _ repository.RoleRepository = (*RoleRepo)(nil)

// RoleRepo implementación en memoria de repository.RoleRepository.
type RoleRepo struct {
	acc accessor
}

func (r *RoleRepo) GetOrCreate(ctx context.Context, name entity.RoleName) (*entity.Role, bool, error) {
	var out *entity.Role
	var created bool
	err := r.acc(func(st *state) error {
		role, ok := st.roles[name]
		if !ok {
			role = entity.Role{ID: uuid.New().String(), Name: name, Permissions: entity.PermissionSet{}}
			st.roles[name] = role
			created = true
		}
		out = copyRole(role)
		return nil
	})
	return out, created, err
}

func (r *RoleRepo) AddPermissions(ctx context.Context, roleID string, perms []entity.Permission) error {
	return r.acc(func(st *state) error {
		for name, role := range st.roles {
			if role.ID != roleID {
				continue
			}
			next := entity.NewPermissionSet(role.Permissions.Sorted()...)
			for _, p := range perms {
				if !st.catalogue.Has(p) {
					return fmt.Errorf("permiso %s: %w", p, domain.ErrNotFound)
				}
				next[p] = struct{}{}
			}
			role.Permissions = next
			st.roles[name] = role
			return nil
		}
		return domain.ErrNotFound
	})
}

func (r *RoleRepo) GetByName(ctx context.Context, name entity.RoleName) (*entity.Role, error) {
	var out *entity.Role
	err := r.acc(func(st *state) error {
		if role, ok := st.roles[name]; ok {
			out = copyRole(role)
		}
		return nil
	})
	return out, err
}

func (r *RoleRepo) List(ctx context.Context) ([]*entity.Role, error) {
	var out []*entity.Role
	err := r.acc(func(st *state) error {
		for _, name := range entity.RoleNames {
			if role, ok := st.roles[name]; ok {
				out = append(out, copyRole(role))
			}
		}
		return nil
	})
	return out, err
}

func (r *RoleRepo) KnownPermissions(ctx context.Context) (entity.PermissionSet, error) {
	var out entity.PermissionSet
	err := r.acc(func(st *state) error {
		out = entity.NewPermissionSet(st.catalogue.Sorted()...)
		return nil
	})
	return out, err
}

func copyRole(role entity.Role) *entity.Role {
	role.Permissions = entity.NewPermissionSet(role.Permissions.Sorted()...)
	return &role
}
