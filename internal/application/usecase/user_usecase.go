package usecase

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
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

// Inviter emite el token de invitación dentro de la transacción de alta
// y envía la notificación una vez confirmada.
type Inviter interface {
	IssueInvitation(ctx context.Context, repos ports.Repositories, user *entity.User) (ports.Notification, error)
	Dispatch(ctx context.Context, n ports.Notification)
}

// UserUseCase aplica reglas de negocio para usuarios.
type UserUseCase struct {
	tx       ports.TxRunner
	repos    ports.Repositories
	inviter  Inviter
	validate *validation.Validator
	now      func() time.Time
}

// NewUserUseCase construye el caso de uso. repos se usa para lecturas fuera de transacción.
func NewUserUseCase(tx ports.TxRunner, repos ports.Repositories, inviter Inviter, v *validation.Validator) *UserUseCase {
	return &UserUseCase{tx: tx, repos: repos, inviter: inviter, validate: v, now: time.Now}
}

// Create da de alta un usuario sin contraseña y le envía la invitación.
func (uc *UserUseCase) Create(ctx context.Context, actor *entity.User, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	const method = "UserUseCase.Create"
	if err := access.RequirePermissions(actor, entity.PermAddUser); err != nil {
		return nil, err
	}
	if len(in.Companies) > 0 {
		if err := access.CheckCanAssignCompany(actor); err != nil {
			return nil, err
		}
	}
	if err := access.CheckCanAssignRole(actor, entity.RoleName(in.Role)); err != nil {
		return nil, err
	}

	rec := userRecordFromRequest(in)
	rec.normalize()
	if fe := uc.validate.Struct("User", rec); len(fe) > 0 {
		return nil, domain.InvalidValues(fe)
	}
	fe, err := checkUserUnique(ctx, uc.repos.Users, rec, "")
	if err != nil {
		return nil, domain.Expose(err, method, in, actor.Username)
	}
	if len(fe) > 0 {
		return nil, domain.InvalidValues(fe)
	}

	now := uc.now()
	user := &entity.User{ID: uuid.New().String(), IsActive: true, CreatedAt: now, UpdatedAt: now}
	rec.applyTo(user)
	companies := dedupe(in.Companies)

	var note ports.Notification
	err = uc.tx.Run(ctx, func(repos ports.Repositories) error {
		role, err := resolveRole(ctx, repos.Roles, rec.Role)
		if err != nil {
			return err
		}
		user.Role = role
		if err := repos.Users.Create(ctx, user); err != nil {
			return uniqueFromStorage("User", err)
		}
		if len(companies) > 0 {
			if err := ensureCompaniesExist(ctx, repos.Companies, companies); err != nil {
				return err
			}
			if err := repos.Users.SetCompanies(ctx, user.ID, companies); err != nil {
				return err
			}
			user.CompanyIDs = companies
		}
		note, err = uc.inviter.IssueInvitation(ctx, repos, user)
		return err
	})
	if err != nil {
		return nil, domain.Expose(err, method, in, actor.Username)
	}
	uc.inviter.Dispatch(ctx, note)
	return ToUserResponse(user), nil
}

// Update aplica un parche explícito sobre un usuario visible para el actor.
// Un parche que no cambia nada no toca updated_at.
func (uc *UserUseCase) Update(ctx context.Context, actor *entity.User, id string, in dto.UpdateUserRequest) (*dto.UserResponse, error) {
	const method = "UserUseCase.Update"
	if err := access.RequirePermissions(actor, entity.PermChangeUser); err != nil {
		return nil, err
	}
	if in.Companies != nil {
		if err := access.CheckCanAssignCompany(actor); err != nil {
			return nil, err
		}
	}
	if in.Role != nil {
		if err := access.CheckCanAssignRole(actor, entity.RoleName(*in.Role)); err != nil {
			return nil, err
		}
	}

	var out *entity.User
	err := uc.tx.Run(ctx, func(repos ports.Repositories) error {
		user, err := repos.Users.GetByID(ctx, access.VisibleUsers(actor), id)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ObjectNotFound("User", "id", id)
		}

		before := userRecordFromEntity(user)
		rec := before
		rec.patch(in)
		rec.normalize()
		if fe := uc.validate.Struct("User", rec); len(fe) > 0 {
			return domain.InvalidValues(fe)
		}
		fe, err := checkUserUnique(ctx, repos.Users, rec, user.ID)
		if err != nil {
			return err
		}
		if len(fe) > 0 {
			return domain.InvalidValues(fe)
		}

		companies := dedupe(in.Companies)
		companiesChanged := in.Companies != nil && !sameSet(companies, user.CompanyIDs)
		if rec == before && !companiesChanged {
			out = user
			return nil
		}

		if companiesChanged {
			if err := ensureCompaniesExist(ctx, repos.Companies, companies); err != nil {
				return err
			}
			if err := repos.Users.SetCompanies(ctx, user.ID, companies); err != nil {
				return err
			}
		}
		if rec.Role != before.Role {
			role, err := resolveRole(ctx, repos.Roles, rec.Role)
			if err != nil {
				return err
			}
			user.Role = role
		}
		rec.applyTo(user)
		user.UpdatedAt = uc.now()
		if err := repos.Users.Update(ctx, user); err != nil {
			return uniqueFromStorage("User", err)
		}
		out, err = repos.Users.GetByID(ctx, access.Unrestricted, user.ID)
		return err
	})
	if err != nil {
		return nil, domain.Expose(err, method, in, actor.Username)
	}
	return ToUserResponse(out), nil
}

// Delete borra un usuario visible para el actor.
func (uc *UserUseCase) Delete(ctx context.Context, actor *entity.User, id string) error {
	const method = "UserUseCase.Delete"
	if err := access.RequirePermissions(actor, entity.PermDeleteUser); err != nil {
		return err
	}
	err := uc.tx.Run(ctx, func(repos ports.Repositories) error {
		return repos.Users.Delete(ctx, access.VisibleUsers(actor), id)
	})
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ObjectNotFound("User", "id", id)
	}
	return domain.Expose(err, method, map[string]any{"user_id": id}, actor.Username)
}

// Get obtiene un usuario visible para el actor.
func (uc *UserUseCase) Get(ctx context.Context, actor *entity.User, id string) (*dto.UserResponse, error) {
	if err := access.RequirePermissions(actor, entity.PermViewUser); err != nil {
		return nil, err
	}
	user, err := uc.repos.Users.GetByID(ctx, access.VisibleUsers(actor), id)
	if err != nil {
		return nil, domain.Expose(err, "UserUseCase.Get", map[string]any{"user_id": id}, actor.Username)
	}
	if user == nil {
		return nil, domain.ObjectNotFound("User", "id", id)
	}
	return ToUserResponse(user), nil
}

// List lista los usuarios visibles para el actor.
func (uc *UserUseCase) List(ctx context.Context, actor *entity.User, in dto.UserListRequest) (*dto.UserListResponse, error) {
	if err := access.RequirePermissions(actor, entity.PermViewUser); err != nil {
		return nil, err
	}
	in.DefaultPage()
	fields, fe := parseUserFilters(in.Filters)
	if len(fe) > 0 {
		return nil, domain.InvalidValues(fe)
	}
	// orden desconocido: se ignora y queda el de creación.
	if !slices.Contains(repository.UserOrderFields, strings.TrimPrefix(in.OrderBy, "-")) {
		in.OrderBy = ""
	}
	filter := repository.UserFilter{
		Fields:  fields,
		Search:  in.Search,
		Role:    entity.RoleName(in.Role),
		OrderBy: in.OrderBy,
		Limit:   in.Limit,
		Offset:  in.Offset,
	}
	list, total, err := uc.repos.Users.List(ctx, access.VisibleUsers(actor), filter)
	if err != nil {
		return nil, domain.Expose(err, "UserUseCase.List", in, actor.Username)
	}
	items := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		items = append(items, *ToUserResponse(u))
	}
	return &dto.UserListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}, nil
}

// parseUserFilters valida claves <campo>__<lookup> contra los campos filtrables.
func parseUserFilters(raw map[string]string) ([]repository.UserFieldFilter, []domain.FieldError) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []repository.UserFieldFilter
	var fe []domain.FieldError
	for _, k := range keys {
		field, lookup, ok := strings.Cut(k, "__")
		l := repository.Lookup(lookup)
		if !ok || !l.Valid() || !slices.Contains(repository.UserFilterFields, field) {
			fe = append(fe, domain.NewFieldError("User", k, domain.CodeInvalid, raw[k], ""))
			continue
		}
		out = append(out, repository.UserFieldFilter{Field: field, Lookup: l, Value: raw[k]})
	}
	return out, fe
}

// Me devuelve el usuario de la sesión con sus permisos efectivos.
func (uc *UserUseCase) Me(ctx context.Context, actor *entity.User) (*dto.UserResponse, error) {
	if err := access.RequireLogin(actor); err != nil {
		return nil, err
	}
	return ToMeResponse(actor), nil
}

// resolveRole traduce el nombre a la referencia persistida.
func resolveRole(ctx context.Context, roles repository.RoleRepository, name string) (*entity.Role, error) {
	role, err := roles.GetByName(ctx, entity.RoleName(name))
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, domain.InvalidValues([]domain.FieldError{
			domain.NewFieldError("User", "role", domain.CodeInvalid, name, ""),
		})
	}
	return role, nil
}

func ensureCompaniesExist(ctx context.Context, companies repository.CompanyRepository, ids []string) error {
	n, err := companies.CountExisting(ctx, ids)
	if err != nil {
		return err
	}
	if n != len(ids) {
		return domain.InvalidValues([]domain.FieldError{
			domain.NewFieldError("User", "companies", domain.CodeCompanyDoesNotExist, ids, ""),
		})
	}
	return nil
}
