package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/evidenta-api/internal/application/dto"
	"github.com/jhoicas/evidenta-api/internal/application/ports"
	"github.com/jhoicas/evidenta-api/internal/domain"
	"github.com/jhoicas/evidenta-api/internal/domain/access"
	"github.com/jhoicas/evidenta-api/internal/domain/entity"
	"github.com/jhoicas/evidenta-api/internal/domain/repository"
	"github.com/jhoicas/evidenta-api/pkg/logger"
	"github.com/jhoicas/evidenta-api/pkg/password"
)

// purger lo implementan los repositorios de roles con caché.
type purger interface {
	Purge()
}

// SeedReport resumen de una ejecución del seed.
type SeedReport struct {
	Created []entity.RoleName
	Skipped []entity.Permission // permisos de la tabla que no existen en el catálogo
}

// RoleUseCase seed de roles/permisos, usuarios base y consulta de roles.
type RoleUseCase struct {
	tx    ports.TxRunner
	roles repository.RoleRepository
	log   *logger.Logger
	now   func() time.Time
}

// NewRoleUseCase roles es el repositorio de lectura (puede estar cacheado).
func NewRoleUseCase(tx ports.TxRunner, roles repository.RoleRepository, log *logger.Logger) *RoleUseCase {
	return &RoleUseCase{tx: tx, roles: roles, log: log.Named("roles"), now: time.Now}
}

// Seed crea los roles que falten y les añade sus permisos por defecto.
// Es idempotente: repetirlo no duplica roles ni permisos.
func (uc *RoleUseCase) Seed(ctx context.Context) (*SeedReport, error) {
	report := &SeedReport{}
	defaults := entity.DefaultRolePermissions()
	err := uc.tx.Run(ctx, func(repos ports.Repositories) error {
		known, err := repos.Roles.KnownPermissions(ctx)
		if err != nil {
			return err
		}
		for _, name := range entity.RoleNames {
			role, created, err := repos.Roles.GetOrCreate(ctx, name)
			if err != nil {
				return err
			}
			if created {
				report.Created = append(report.Created, name)
			}
			perms := make([]entity.Permission, 0, len(defaults[name]))
			for _, p := range defaults[name] {
				if !known.Has(p) {
					uc.log.Warn().Str("role", string(name)).Str("permission", string(p)).Msg("permiso no encontrado, se omite")
					report.Skipped = append(report.Skipped, p)
					continue
				}
				perms = append(perms, p)
			}
			if len(perms) == 0 {
				continue
			}
			if err := repos.Roles.AddPermissions(ctx, role.ID, perms); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if p, ok := uc.roles.(purger); ok {
		p.Purge()
	}
	uc.log.Info().Int("created", len(report.Created)).Int("skipped", len(report.Skipped)).Msg("seed de roles completado")
	return report, nil
}

// SeedBaseUsers crea un usuario por rol para entornos de desarrollo.
// En producción no hace nada. Los usernames existentes se respetan.
func (uc *RoleUseCase) SeedBaseUsers(ctx context.Context, production bool) ([]string, error) {
	if production {
		uc.log.Warn().Msg("no se crean usuarios base en producción")
		return nil, nil
	}
	var created []string
	err := uc.tx.Run(ctx, func(repos ports.Repositories) error {
		for _, name := range entity.RoleNames {
			username := string(name)
			exists, err := repos.Users.ExistsByUsername(ctx, username, "")
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			role, err := repos.Roles.GetByName(ctx, name)
			if err != nil {
				return err
			}
			if role == nil {
				return domain.ObjectNotFound("Role", "name", username)
			}
			hash, err := password.Hash("evidenta" + username + "123")
			if err != nil {
				return err
			}
			display := cases.Title(language.Und).String(username)
			now := uc.now()
			user := &entity.User{
				ID:           uuid.New().String(),
				Username:     username,
				FirstName:    display,
				LastName:     display,
				Email:        strings.ToLower(username + "@" + username + ".cz"),
				PasswordHash: hash,
				Role:         role,
				IsSuperuser:  name == entity.RoleAdmin,
				IsActive:     true,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := repos.Users.Create(ctx, user); err != nil {
				return err
			}
			created = append(created, username)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, u := range created {
		uc.log.Info().Str("username", u).Msg("usuario base creado")
	}
	return created, nil
}

// List devuelve los roles con sus permisos.
func (uc *RoleUseCase) List(ctx context.Context, actor *entity.User) ([]dto.RoleResponse, error) {
	if err := access.RequireLogin(actor); err != nil {
		return nil, err
	}
	roles, err := uc.roles.List(ctx)
	if err != nil {
		return nil, domain.Expose(err, "RoleUseCase.List", nil, actor.Username)
	}
	out := make([]dto.RoleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, toRoleResponse(r))
	}
	return out, nil
}
