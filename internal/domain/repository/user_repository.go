package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/evidenta-api/internal/domain/access"
	"github.com/jhoicas/evidenta-api/internal/domain/entity"
)

// UserFilter filtros y paginación del listado de usuarios.
type UserFilter struct {
	Search  string // contiene en username, email, nombre o apellidos
	Role    entity.RoleName
	Fields  []UserFieldFilter
	OrderBy string // ver UserOrderFields; prefijo "-" = descendente
	Limit   int
	Offset  int
}

// Lookup comparación de texto sin distinguir mayúsculas.
type Lookup string

const (
	LookupExact      Lookup = "iexact"
	LookupContains   Lookup = "icontains"
	LookupStartsWith Lookup = "istartswith"
)

// Valid indica si el lookup es uno de los soportados.
func (l Lookup) Valid() bool {
	return l == LookupExact || l == LookupContains || l == LookupStartsWith
}

// Match aplica el lookup a value.
func (l Lookup) Match(value, want string) bool {
	value, want = strings.ToLower(value), strings.ToLower(want)
	switch l {
	case LookupExact:
		return value == want
	case LookupContains:
		return strings.Contains(value, want)
	case LookupStartsWith:
		return strings.HasPrefix(value, want)
	default:
		return false
	}
}

// UserFieldFilter condición sobre un campo de UserFilterFields.
type UserFieldFilter struct {
	Field  string
	Lookup Lookup
	Value  string
}

// UserFilterFields campos filtrables por lookup.
var UserFilterFields = []string{"username", "first_name", "last_name", "email", "phone_number", "role"}

// UserOrderFields campos admitidos en OrderBy.
var UserOrderFields = []string{"username", "email", "first_name", "last_name", "role", "created_at"}

// UserRepository define el puerto de persistencia para User (DIP).
// Las lecturas reciben el alcance visible del actor y lo aplican en la consulta;
// un id fuera de alcance se comporta igual que uno inexistente.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	// Update guarda los campos de perfil, rol y updated_at.
	Update(ctx context.Context, user *entity.User) error
	// GetByID devuelve nil, nil si no existe o no es visible.
	GetByID(ctx context.Context, scope access.Scope, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, scope access.Scope, email string) (*entity.User, error)
	// GetByLogin busca por username o email sin alcance (login).
	GetByLogin(ctx context.Context, login string) (*entity.User, error)
	List(ctx context.Context, scope access.Scope, filter UserFilter) ([]*entity.User, int, error)
	// Delete devuelve domain.ErrNotFound si no borró ninguna fila visible.
	Delete(ctx context.Context, scope access.Scope, id string) error
	ExistsByUsername(ctx context.Context, username, excludeID string) (bool, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	// CountExisting cuántos de los ids existen.
	CountExisting(ctx context.Context, ids []string) (int, error)
	// SetCompanies reemplaza las membresías del usuario.
	SetCompanies(ctx context.Context, userID string, companyIDs []string) error
	SetPassword(ctx context.Context, userID, hash string, at time.Time) error
	// RevokeSessions invalida las sesiones emitidas antes de before. Nunca retrocede el límite.
	RevokeSessions(ctx context.Context, userID string, before time.Time) error
}
