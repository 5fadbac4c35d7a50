package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/evidenta-api/internal/application/dto"
	"github.com/jhoicas/evidenta-api/internal/application/ports"
	"github.com/jhoicas/evidenta-api/internal/application/validation"
	"github.com/jhoicas/evidenta-api/internal/domain"
	"github.com/jhoicas/evidenta-api/internal/domain/access"
	"github.com/jhoicas/evidenta-api/internal/domain/entity"
	"github.com/jhoicas/evidenta-api/internal/domain/repository"
)

// CompanyUseCase aplica reglas de negocio para empresas (casos de uso).
type CompanyUseCase struct {
	tx       ports.TxRunner
	repos    ports.Repositories
	validate *validation.Validator
	now      func() time.Time
}

// NewCompanyUseCase construye el caso de uso con el puerto de persistencia.
func NewCompanyUseCase(tx ports.TxRunner, repos ports.Repositories, v *validation.Validator) *CompanyUseCase {
	return &CompanyUseCase{tx: tx, repos: repos, validate: v, now: time.Now}
}

// Create crea una nueva empresa y fija su membresía.
func (uc *CompanyUseCase) Create(ctx context.Context, actor *entity.User, in dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	const method = "CompanyUseCase.Create"
	if err := access.RequirePermissions(actor, entity.PermAddCompany); err != nil {
		return nil, err
	}
	if len(in.Users) > 0 {
		if err := access.CheckCanAssignCompany(actor); err != nil {
			return nil, err
		}
	}

	rec := companyRecordFromRequest(in)
	rec.normalize()
	if fe := uc.validate.Struct("Company", rec); len(fe) > 0 {
		return nil, domain.InvalidValues(fe)
	}
	fe, err := checkCompanyUnique(ctx, uc.repos.Companies, rec, "")
	if err != nil {
		return nil, domain.Expose(err, method, in, actor.Username)
	}
	if len(fe) > 0 {
		return nil, domain.InvalidValues(fe)
	}

	now := uc.now()
	company := &entity.Company{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}
	rec.applyTo(company)
	users := dedupe(in.Users)

	err = uc.tx.Run(ctx, func(repos ports.Repositories) error {
		if err := repos.Companies.Create(ctx, company); err != nil {
			return uniqueFromStorage("Company", err)
		}
		if len(users) == 0 {
			return nil
		}
		if err := ensureUsersExist(ctx, repos.Users, users); err != nil {
			return err
		}
		if err := repos.Companies.SetUsers(ctx, company.ID, users); err != nil {
			return err
		}
		company.UserIDs = users
		return nil
	})
	if err != nil {
		return nil, domain.Expose(err, method, in, actor.Username)
	}
	return toCompanyResponse(company), nil
}

// Update aplica un parche sobre una empresa visible. Users presente reemplaza la membresía.
func (uc *CompanyUseCase) Update(ctx context.Context, actor *entity.User, id string, in dto.UpdateCompanyRequest) (*dto.CompanyResponse, error) {
	const method = "CompanyUseCase.Update"
	if err := access.RequirePermissions(actor, entity.PermChangeCompany); err != nil {
		return nil, err
	}
	if in.Users != nil {
		if err := access.CheckCanAssignCompany(actor); err != nil {
			return nil, err
		}
	}

	var out *entity.Company
	err := uc.tx.Run(ctx, func(repos ports.Repositories) error {
		company, err := repos.Companies.GetByID(ctx, access.VisibleCompanies(actor), id)
		if err != nil {
			return err
		}
		if company == nil {
			return domain.ObjectNotFound("Company", "id", id)
		}

		before := companyRecordFromEntity(company)
		rec := before
		rec.patch(in)
		rec.normalize()
		if fe := uc.validate.Struct("Company", rec); len(fe) > 0 {
			return domain.InvalidValues(fe)
		}
		fe, err := checkCompanyUnique(ctx, repos.Companies, rec, company.ID)
		if err != nil {
			return err
		}
		if len(fe) > 0 {
			return domain.InvalidValues(fe)
		}

		users := dedupe(in.Users)
		usersChanged := in.Users != nil && !sameSet(users, company.UserIDs)
		if rec == before && !usersChanged {
			out = company
			return nil
		}
		if usersChanged {
			if err := ensureUsersExist(ctx, repos.Users, users); err != nil {
				return err
			}
			if err := repos.Companies.SetUsers(ctx, company.ID, users); err != nil {
				return err
			}
		}
		rec.applyTo(company)
		company.UpdatedAt = uc.now()
		if err := repos.Companies.Update(ctx, company); err != nil {
			return uniqueFromStorage("Company", err)
		}
		out, err = repos.Companies.GetByID(ctx, access.Unrestricted, company.ID)
		return err
	})
	if err != nil {
		return nil, domain.Expose(err, method, in, actor.Username)
	}
	return toCompanyResponse(out), nil
}

// Delete borra una empresa visible; los usuarios miembros se conservan.
func (uc *CompanyUseCase) Delete(ctx context.Context, actor *entity.User, id string) error {
	if err := access.RequirePermissions(actor, entity.PermDeleteCompany); err != nil {
		return err
	}
	err := uc.tx.Run(ctx, func(repos ports.Repositories) error {
		return repos.Companies.Delete(ctx, access.VisibleCompanies(actor), id)
	})
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ObjectNotFound("Company", "id", id)
	}
	return domain.Expose(err, "CompanyUseCase.Delete", map[string]any{"company_id": id}, actor.Username)
}

// GetByID obtiene una empresa visible para el actor.
func (uc *CompanyUseCase) GetByID(ctx context.Context, actor *entity.User, id string) (*dto.CompanyResponse, error) {
	if err := access.RequirePermissions(actor, entity.PermViewCompany); err != nil {
		return nil, err
	}
	company, err := uc.repos.Companies.GetByID(ctx, access.VisibleCompanies(actor), id)
	if err != nil {
		return nil, domain.Expose(err, "CompanyUseCase.GetByID", map[string]any{"company_id": id}, actor.Username)
	}
	if company == nil {
		return nil, domain.ObjectNotFound("Company", "id", id)
	}
	return toCompanyResponse(company), nil
}

// List lista empresas visibles con paginación.
func (uc *CompanyUseCase) List(ctx context.Context, actor *entity.User, in dto.CompanyListRequest) (*dto.CompanyListResponse, error) {
	if err := access.RequirePermissions(actor, entity.PermViewCompany); err != nil {
		return nil, err
	}
	in.DefaultPage()
	filter := repository.CompanyFilter{
		Name:                    in.Name,
		IdentificationNumber:    in.IdentificationNumber,
		TaxIdentificationNumber: in.TaxIdentificationNumber,
		Limit:                   in.Limit,
		Offset:                  in.Offset,
	}
	list, total, err := uc.repos.Companies.List(ctx, access.VisibleCompanies(actor), filter)
	if err != nil {
		return nil, domain.Expose(err, "CompanyUseCase.List", in, actor.Username)
	}
	items := make([]dto.CompanyResponse, 0, len(list))
	for _, c := range list {
		items = append(items, *toCompanyResponse(c))
	}
	return &dto.CompanyListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}, nil
}

func ensureUsersExist(ctx context.Context, users repository.UserRepository, ids []string) error {
	n, err := users.CountExisting(ctx, ids)
	if err != nil {
		return err
	}
	if n != len(ids) {
		return domain.InvalidValues([]domain.FieldError{
			domain.NewFieldError("Company", "users", domain.CodeUserDoesNotExist, ids, ""),
		})
	}
	return nil
}
