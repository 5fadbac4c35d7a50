package repository

import (
	"context"

	"github.com/jhoicas/evidenta-api/internal/domain/access"
	"github.com/jhoicas/evidenta-api/internal/domain/entity"
)

// CompanyFilter filtros y paginación del listado de empresas.
type CompanyFilter struct {
	Name                    string // contiene, sin mayúsculas
	IdentificationNumber    string
	TaxIdentificationNumber string
	Limit                   int
	Offset                  int
}

// CompanyRepository define el puerto de persistencia para Company (DIP).
// La implementación vive en infrastructure.
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	Update(ctx context.Context, company *entity.Company) error
	// GetByID devuelve nil, nil si no existe o no es visible.
	GetByID(ctx context.Context, scope access.Scope, id string) (*entity.Company, error)
	List(ctx context.Context, scope access.Scope, filter CompanyFilter) ([]*entity.Company, int, error)
	// Delete borra la empresa y sus membresías; domain.ErrNotFound si no era visible.
	Delete(ctx context.Context, scope access.Scope, id string) error
	ExistsByIdentificationNumber(ctx context.Context, number, excludeID string) (bool, error)
	ExistsByTaxIdentificationNumber(ctx context.Context, number, excludeID string) (bool, error)
	CountExisting(ctx context.Context, ids []string) (int, error)
	// SetUsers reemplaza los miembros de la empresa.
	SetUsers(ctx context.Context, companyID string, userIDs []string) error
}
