package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/jhoicas/evidenta-api/internal/domain/entity"
	"github.com/jhoicas/evidenta-api/internal/domain/repository"
)

var _ repository.RoleRepository = (*RoleCache)(nil)

const (
	keyList  = "roles:list"
	keyKnown = "permissions:known"
)

// RoleCache decora un RoleRepository cacheando las lecturas con caducidad.
// Las escrituras vacían la caché; el seed la vacía al terminar con Purge.
type RoleCache struct {
	next   repository.RoleRepository
	roles  *lru.LRU[string, []*entity.Role]
	byName *lru.LRU[entity.RoleName, *entity.Role]
	known  *lru.LRU[string, entity.PermissionSet]
}

// NewRoleCache ttl cero o negativo desactiva la caducidad.
func NewRoleCache(next repository.RoleRepository, ttl time.Duration) *RoleCache {
	return &RoleCache{
		next:   next,
		roles:  lru.NewLRU[string, []*entity.Role](1, nil, ttl),
		byName: lru.NewLRU[entity.RoleName, *entity.Role](len(entity.RoleNames), nil, ttl),
		known:  lru.NewLRU[string, entity.PermissionSet](1, nil, ttl),
	}
}

// Purge vacía todas las entradas.
func (c *RoleCache) Purge() {
	c.roles.Purge()
	c.byName.Purge()
	c.known.Purge()
}

func (c *RoleCache) GetOrCreate(ctx context.Context, name entity.RoleName) (*entity.Role, bool, error) {
	role, created, err := c.next.GetOrCreate(ctx, name)
	if created {
		c.Purge()
	}
	return role, created, err
}

func (c *RoleCache) AddPermissions(ctx context.Context, roleID string, perms []entity.Permission) error {
	defer c.Purge()
	return c.next.AddPermissions(ctx, roleID, perms)
}

func (c *RoleCache) GetByName(ctx context.Context, name entity.RoleName) (*entity.Role, error) {
	if role, ok := c.byName.Get(name); ok {
		return cloneRole(role), nil
	}
	role, err := c.next.GetByName(ctx, name)
	if err != nil || role == nil {
		return role, err
	}
	c.byName.Add(name, cloneRole(role))
	return role, nil
}

func (c *RoleCache) List(ctx context.Context) ([]*entity.Role, error) {
	if roles, ok := c.roles.Get(keyList); ok {
		return cloneRoles(roles), nil
	}
	roles, err := c.next.List(ctx)
	if err != nil {
		return nil, err
	}
	c.roles.Add(keyList, cloneRoles(roles))
	return roles, nil
}

func (c *RoleCache) KnownPermissions(ctx context.Context) (entity.PermissionSet, error) {
	if set, ok := c.known.Get(keyKnown); ok {
		return entity.NewPermissionSet(set.Sorted()...), nil
	}
	set, err := c.next.KnownPermissions(ctx)
	if err != nil {
		return nil, err
	}
	c.known.Add(keyKnown, entity.NewPermissionSet(set.Sorted()...))
	return set, nil
}

// cloneRole los llamantes pueden mutar el rol devuelto.
func cloneRole(r *entity.Role) *entity.Role {
	out := *r
	out.Permissions = entity.NewPermissionSet(r.Permissions.Sorted()...)
	return &out
}

func cloneRoles(roles []*entity.Role) []*entity.Role {
	out := make([]*entity.Role, len(roles))
	for i, r := range roles {
		out[i] = cloneRole(r)
	}
	return out
}
