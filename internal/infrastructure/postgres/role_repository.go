package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/evidenta-api/internal/domain"
	"github.com/jhoicas/evidenta-api/internal/domain/entity"
	"github.com/jhoicas/evidenta-api/internal/domain/repository"
)

var _ repository.RoleRepository = (*RoleRepo)(nil)

// RoleRepo roles y catálogo de permisos sobre PostgreSQL.
type RoleRepo struct {
	q Querier
}

// NewRoleRepository construye el adaptador de roles.
func NewRoleRepository(q Querier) *RoleRepo {
	return &RoleRepo{q: q}
}

// GetOrCreate inserta el rol si falta; con concurrencia gana el primero.
func (r *RoleRepo) GetOrCreate(ctx context.Context, name entity.RoleName) (*entity.Role, bool, error) {
	var id string
	err := r.q.QueryRow(ctx, `
		INSERT INTO roles (id, name) VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
		RETURNING id::text`, uuid.New().String(), string(name)).Scan(&id)
	if err == nil {
		return &entity.Role{ID: id, Name: name, Permissions: entity.PermissionSet{}}, true, nil
	}
	if !isNoRows(err) {
		return nil, false, fmt.Errorf("insert role: %w", err)
	}
	role, err := r.GetByName(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if role == nil {
		return nil, false, fmt.Errorf("rol %s: %w", name, domain.ErrNotFound)
	}
	return role, false, nil
}

// AddPermissions concede permisos del catálogo; un permiso desconocido es ErrNotFound.
func (r *RoleRepo) AddPermissions(ctx context.Context, roleID string, perms []entity.Permission) error {
	if !validID(roleID) {
		return domain.ErrNotFound
	}
	if len(perms) == 0 {
		return nil
	}
	codes := make([]string, len(perms))
	for i, p := range perms {
		codes[i] = string(p)
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission)
		SELECT $1, p FROM UNNEST($2::text[]) AS p
		ON CONFLICT DO NOTHING`, roleID, codes)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("role permissions: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("role permissions: %w", err)
	}
	return nil
}

// GetByName devuelve nil, nil si no existe.
func (r *RoleRepo) GetByName(ctx context.Context, name entity.RoleName) (*entity.Role, error) {
	roles, err := r.query(ctx, `WHERE r.name = $1`, string(name))
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, nil
	}
	return roles[0], nil
}

// List roles en orden de privilegio creciente.
func (r *RoleRepo) List(ctx context.Context) ([]*entity.Role, error) {
	roles, err := r.query(ctx, "")
	if err != nil {
		return nil, err
	}
	byName := make(map[entity.RoleName]*entity.Role, len(roles))
	for _, role := range roles {
		byName[role.Name] = role
	}
	out := make([]*entity.Role, 0, len(roles))
	for _, name := range entity.RoleNames {
		if role, ok := byName[name]; ok {
			out = append(out, role)
		}
	}
	return out, nil
}

// KnownPermissions catálogo de la tabla permissions.
func (r *RoleRepo) KnownPermissions(ctx context.Context) (entity.PermissionSet, error) {
	rows, err := r.q.Query(ctx, `SELECT codename FROM permissions`)
	if err != nil {
		return nil, fmt.Errorf("query permissions: %w", err)
	}
	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan permissions: %w", err)
	}
	set := make(entity.PermissionSet, len(codes))
	for _, c := range codes {
		set[entity.Permission(c)] = struct{}{}
	}
	return set, nil
}

func (r *RoleRepo) query(ctx context.Context, where string, queryArgs ...any) ([]*entity.Role, error) {
	rows, err := r.q.Query(ctx, `
		SELECT r.id::text, r.name, rp.permission
		FROM roles r LEFT JOIN role_permissions rp ON rp.role_id = r.id
		`+where+`
		ORDER BY r.name, rp.permission`, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()
	var out []*entity.Role
	byID := map[string]*entity.Role{}
	for rows.Next() {
		var (
			id, name string
			perm     *string
		)
		if err := rows.Scan(&id, &name, &perm); err != nil {
			return nil, fmt.Errorf("scan roles: %w", err)
		}
		role, ok := byID[id]
		if !ok {
			role = &entity.Role{ID: id, Name: entity.RoleName(name), Permissions: entity.PermissionSet{}}
			byID[id] = role
			out = append(out, role)
		}
		if perm != nil {
			role.Permissions[entity.Permission(*perm)] = struct{}{}
		}
	}
	return out, rows.Err()
}
