// Package memory implementa los repositorios sobre mapas en proceso.
// Sirve para tests y para arrancar la API sin PostgreSQL (STORAGE_DRIVER=memory).
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/evidenta-api/internal/application/ports"
	"github.com/jhoicas/evidenta-api/internal/domain/entity"
)

var _ ports.TxRunner = (*Store)(nil)

type userRow struct {
	user entity.User // sin Role ni CompanyIDs: se hidratan al leer
	role entity.RoleName
}

type state struct {
	users     map[string]userRow
	companies map[string]entity.Company
	members   map[string]map[string]struct{} // companyID -> userIDs
	roles     map[entity.RoleName]entity.Role
	catalogue entity.PermissionSet
	tokens    map[string]entity.Token
	otps      map[string]entity.OTPToken
}

func newState(catalogue []entity.Permission) *state {
	return &state{
		users:     map[string]userRow{},
		companies: map[string]entity.Company{},
		members:   map[string]map[string]struct{}{},
		roles:     map[entity.RoleName]entity.Role{},
		catalogue: entity.NewPermissionSet(catalogue...),
		tokens:    map[string]entity.Token{},
		otps:      map[string]entity.OTPToken{},
	}
}

// clone copia el estado para una transacción. Los valores guardados nunca se mutan
// en sitio, salvo los conjuntos de miembros, que se copian en profundidad.
func (s *state) clone() *state {
	c := &state{
		users:     make(map[string]userRow, len(s.users)),
		companies: make(map[string]entity.Company, len(s.companies)),
		members:   make(map[string]map[string]struct{}, len(s.members)),
		roles:     make(map[entity.RoleName]entity.Role, len(s.roles)),
		catalogue: s.catalogue,
		tokens:    make(map[string]entity.Token, len(s.tokens)),
		otps:      make(map[string]entity.OTPToken, len(s.otps)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.companies {
		c.companies[k] = v
	}
	for k, set := range s.members {
		inner := make(map[string]struct{}, len(set))
		for id := range set {
			inner[id] = struct{}{}
		}
		c.members[k] = inner
	}
	for k, v := range s.roles {
		c.roles[k] = v
	}
	for k, v := range s.tokens {
		c.tokens[k] = v
	}
	for k, v := range s.otps {
		c.otps[k] = v
	}
	return c
}

// companiesOf empresas del usuario, ordenadas.
func (s *state) companiesOf(userID string) []string {
	var out []string
	for companyID, set := range s.members {
		if _, ok := set[userID]; ok {
			out = append(out, companyID)
		}
	}
	sort.Strings(out)
	return out
}

// usersOf miembros de la empresa, ordenados.
func (s *state) usersOf(companyID string) []string {
	out := make([]string, 0, len(s.members[companyID]))
	for id := range s.members[companyID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

type accessor func(fn func(st *state) error) error

// Store almacén en memoria con transacciones copy-on-write.
// Las transacciones se serializan; dentro de Run solo deben usarse los repos recibidos.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore crea un almacén vacío con el catálogo de permisos completo.
func NewStore() *Store {
	return NewStoreWithCatalogue(entity.AllPermissions)
}

// NewStoreWithCatalogue crea un almacén con un catálogo de permisos concreto.
func NewStoreWithCatalogue(catalogue []entity.Permission) *Store {
	return &Store{st: newState(catalogue)}
}

func (s *Store) direct(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

// Repositories repos fuera de transacción.
func (s *Store) Repositories() ports.Repositories {
	return reposWith(s.direct)
}

// Run ejecuta fn sobre una copia del estado y la publica solo si fn no falla.
func (s *Store) Run(ctx context.Context, fn func(repos ports.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	acc := func(f func(st *state) error) error { return f(work) }
	if err := fn(reposWith(acc)); err != nil {
		return err
	}
	s.st = work
	return nil
}

func reposWith(acc accessor) ports.Repositories {
	return ports.Repositories{
		Users:     &UserRepo{acc: acc},
		Companies: &CompanyRepo{acc: acc},
		Roles:     &RoleRepo{acc: acc},
		Tokens:    &TokenRepo{acc: acc},
	}
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
