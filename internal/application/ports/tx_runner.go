package ports

import (
	"context"

	"github.com/jhoicas/evidenta-api/internal/domain/repository"
)

// Repositories repositorios atados a una misma unidad de trabajo.
type Repositories struct {
	Users     repository.UserRepository
	Companies repository.CompanyRepository
	Roles     repository.RoleRepository
	Tokens    repository.TokenRepository
}

// TxRunner ejecuta fn dentro de una transacción: Commit si fn devuelve nil, Rollback en otro caso.
// No admite anidamiento.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos Repositories) error) error
}
