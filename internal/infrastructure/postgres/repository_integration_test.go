//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/jhoicas/evidenta-api/internal/application/ports"
	"github.com/jhoicas/evidenta-api/internal/domain"
	"github.com/jhoicas/evidenta-api/internal/domain/access"
	"github.com/jhoicas/evidenta-api/internal/domain/entity"
	"github.com/jhoicas/evidenta-api/internal/domain/repository"
	"github.com/jhoicas/evidenta-api/pkg/config"
	"github.com/jhoicas/evidenta-api/pkg/logger"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("evidenta_test"),
		tcpostgres.WithUsername("evidenta"),
		tcpostgres.WithPassword("evidenta_test"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("docker no disponible: %v", err)
	}
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 5})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool, logger.Nop()))
	// idempotente
	require.NoError(t, Migrate(ctx, pool, logger.Nop()))
	return pool
}

func seedRole(t *testing.T, repos ports.Repositories, name entity.RoleName) *entity.Role {
	t.Helper()
	role, _, err := repos.Roles.GetOrCreate(context.Background(), name)
	require.NoError(t, err)
	require.NoError(t, repos.Roles.AddPermissions(context.Background(), role.ID, entity.DefaultRolePermissions()[name]))
	role, err = repos.Roles.GetByName(context.Background(), name)
	require.NoError(t, err)
	return role
}

func newUser(role *entity.Role, username string) *entity.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &entity.User{
		ID: uuid.New().String(), Username: username, FirstName: "Jan", LastName: "Novák",
		Email: username + "@evidenta.cz", Role: role, IsActive: true,
		CreatedAt: now, UpdatedAt: now,
	}
}

func newCompany(ico string) *entity.Company {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &entity.Company{
		ID: uuid.New().String(), Name: "Firma " + ico, IdentificationNumber: ico,
		Address1: "Václavské náměstí 1", City: "Praha", ZipCode: "11000",
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestPostgres_RolesYCatalogo(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	repos := Repositories(pool)

	known, err := repos.Roles.KnownPermissions(ctx)
	require.NoError(t, err)
	assert.Len(t, known, len(entity.AllPermissions))

	first, created, err := repos.Roles.GetOrCreate(ctx, entity.RoleClient)
	require.NoError(t, err)
	assert.True(t, created)
	again, created, err := repos.Roles.GetOrCreate(ctx, entity.RoleClient)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	err = repos.Roles.AddPermissions(ctx, first.ID, []entity.Permission{"fly"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgres_UsuariosAlcanceYUnicidad(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	repos := Repositories(pool)
	client := seedRole(t, repos, entity.RoleClient)
	guest := seedRole(t, repos, entity.RoleGuest)

	alice := newUser(client, "alice")
	bob := newUser(guest, "bob")
	carol := newUser(guest, "carol")
	for _, u := range []*entity.User{alice, bob, carol} {
		require.NoError(t, repos.Users.Create(ctx, u))
	}

	dup := newUser(guest, "alice2")
	dup.Email = "ALICE@evidenta.cz"
	var uv *repository.UniqueViolation
	require.ErrorAs(t, repos.Users.Create(ctx, dup), &uv)
	assert.Equal(t, "email", uv.Field)

	company := newCompany("25596641")
	require.NoError(t, repos.Companies.Create(ctx, company))
	require.NoError(t, repos.Companies.SetUsers(ctx, company.ID, []string{alice.ID, bob.ID}))

	scope := access.VisibleUsers(alice)
	list, total, err := repos.Users.List(ctx, scope, repository.UserFilter{OrderBy: "username"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "alice", list[0].Username)
	assert.Equal(t, []string{company.ID}, list[0].CompanyIDs)
	assert.True(t, list[0].Role.Permissions.Has(entity.PermViewUser))

	hidden, err := repos.Users.GetByID(ctx, scope, carol.ID)
	require.NoError(t, err)
	assert.Nil(t, hidden)
	assert.ErrorIs(t, repos.Users.Delete(ctx, scope, carol.ID), domain.ErrNotFound)

	byLogin, err := repos.Users.GetByLogin(ctx, "BOB@evidenta.cz")
	require.NoError(t, err)
	require.NotNil(t, byLogin)
	assert.Equal(t, bob.ID, byLogin.ID)

	notUUID, err := repos.Users.GetByID(ctx, access.Unrestricted, "42")
	require.NoError(t, err)
	assert.Nil(t, notUUID)
}

func TestPostgres_BorrarEmpresaDesvinculaUsuarios(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	repos := Repositories(pool)
	guest := seedRole(t, repos, entity.RoleGuest)

	u := newUser(guest, "dana")
	require.NoError(t, repos.Users.Create(ctx, u))
	c := newCompany("25596641")
	require.NoError(t, repos.Companies.Create(ctx, c))
	require.NoError(t, repos.Users.SetCompanies(ctx, u.ID, []string{c.ID}))

	require.NoError(t, repos.Companies.Delete(ctx, access.Unrestricted, c.ID))
	got, err := repos.Users.GetByID(ctx, access.Unrestricted, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.CompanyIDs)

	err = repos.Users.SetCompanies(ctx, u.ID, []string{uuid.New().String()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgres_DICVacioNoColisiona(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	repos := Repositories(pool)

	require.NoError(t, repos.Companies.Create(ctx, newCompany("25596641")))
	require.NoError(t, repos.Companies.Create(ctx, newCompany("00000019")))

	taxed := newCompany("27082440")
	taxed.TaxIdentificationNumber = "CZ27082440"
	require.NoError(t, repos.Companies.Create(ctx, taxed))
	exists, err := repos.Companies.ExistsByTaxIdentificationNumber(ctx, "CZ27082440", "")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repos.Companies.ExistsByTaxIdentificationNumber(ctx, "CZ27082440", taxed.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPostgres_TokensRollbackYConsumo(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	repos := Repositories(pool)
	guest := seedRole(t, repos, entity.RoleGuest)
	u := newUser(guest, "eva")
	require.NoError(t, repos.Users.Create(ctx, u))

	now := time.Now().UTC()
	tok := &entity.Token{Value: "abc", UserID: u.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repos.Tokens.CreateToken(ctx, tok))
	assert.ErrorIs(t, repos.Tokens.CreateToken(ctx, tok), domain.ErrDuplicate)

	runner := NewTxRunner(pool)
	boom := domain.InvalidToken()
	err := runner.Run(ctx, func(tx ports.Repositories) error {
		require.NoError(t, tx.Tokens.DeleteToken(ctx, "abc"))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	still, err := repos.Tokens.GetToken(ctx, "abc")
	require.NoError(t, err)
	assert.NotNil(t, still)

	require.NoError(t, runner.Run(ctx, func(tx ports.Repositories) error {
		got, err := tx.Tokens.GetToken(ctx, "abc")
		if err != nil {
			return err
		}
		require.NotNil(t, got)
		return tx.Tokens.DeleteToken(ctx, got.Value)
	}))
	assert.ErrorIs(t, repos.Tokens.DeleteToken(ctx, "abc"), domain.ErrNotFound)

	expired := &entity.OTPToken{Token: entity.Token{Value: "123456", UserID: u.ID, CreatedAt: now, ExpiresAt: now.Add(-time.Minute)}}
	require.NoError(t, repos.Tokens.CreateOTP(ctx, expired))
	n, err := repos.Tokens.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestPostgres_FiltrosPorCampoYLimitesDeSesion(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	repos := Repositories(pool)
	guest := seedRole(t, repos, entity.RoleGuest)
	client := seedRole(t, repos, entity.RoleClient)

	jana := newUser(guest, "jana")
	jana.FirstName, jana.LastName = "Jana", "Dvořáková"
	petr := newUser(client, "petr_1")
	petr.FirstName, petr.LastName = "Petr", "Černý"
	for _, u := range []*entity.User{jana, petr} {
		require.NoError(t, repos.Users.Create(ctx, u))
	}

	list, _, err := repos.Users.List(ctx, access.Unrestricted, repository.UserFilter{Fields: []repository.UserFieldFilter{
		{Field: "role", Lookup: repository.LookupExact, Value: "CLIENT"},
	}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, petr.ID, list[0].ID)

	list, _, err = repos.Users.List(ctx, access.Unrestricted, repository.UserFilter{Fields: []repository.UserFieldFilter{
		{Field: "username", Lookup: repository.LookupContains, Value: "_"},
	}})
	require.NoError(t, err)
	require.Len(t, list, 1, "el guion bajo no es comodín")
	assert.Equal(t, petr.ID, list[0].ID)

	list, _, err = repos.Users.List(ctx, access.Unrestricted, repository.UserFilter{OrderBy: "-role"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, jana.ID, list[0].ID)

	changed := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repos.Users.SetPassword(ctx, jana.ID, "hash", changed))
	require.NoError(t, repos.Users.RevokeSessions(ctx, jana.ID, changed.Add(time.Minute)))
	require.NoError(t, repos.Users.RevokeSessions(ctx, jana.ID, changed))
	got, err := repos.Users.GetByID(ctx, access.Unrestricted, jana.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PasswordChangedAt)
	require.NotNil(t, got.TokensRevokedAt)
	assert.True(t, got.PasswordChangedAt.Equal(changed))
	assert.True(t, got.TokensRevokedAt.Equal(changed.Add(time.Minute)), "el límite no retrocede")
	assert.ErrorIs(t, repos.Users.RevokeSessions(ctx, uuid.New().String(), changed), domain.ErrNotFound)
}
