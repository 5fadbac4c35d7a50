package repository

import (
	"context"

	"github.com/jhoicas/evidenta-api/internal/domain/entity"
)

// RoleRepository define el puerto de persistencia para Role y el catálogo de permisos.
type RoleRepository interface {
	// GetOrCreate devuelve el rol y si fue creado en esta llamada.
	GetOrCreate(ctx context.Context, name entity.RoleName) (*entity.Role, bool, error)
	// AddPermissions añade permisos al rol; los ya presentes se ignoran.
	AddPermissions(ctx context.Context, roleID string, perms []entity.Permission) error
	// GetByName devuelve nil, nil si no existe.
	GetByName(ctx context.Context, name entity.RoleName) (*entity.Role, error)
	List(ctx context.Context) ([]*entity.Role, error)
	// KnownPermissions catálogo de permisos registrados en almacenamiento.
	KnownPermissions(ctx context.Context) (entity.PermissionSet, error)
}
