package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/evidenta-api/internal/application/ports"
	"github.com/jhoicas/evidenta-api/internal/domain"
	"github.com/jhoicas/evidenta-api/internal/domain/access"
	"github.com/jhoicas/evidenta-api/internal/domain/entity"
	"github.com/jhoicas/evidenta-api/internal/domain/repository"
	"github.com/jhoicas/evidenta-api/internal/infrastructure/memory"
)

func seedRole(t *testing.T, repos ports.Repositories, name entity.RoleName) *entity.Role {
	t.Helper()
	role, _, err := repos.Roles.GetOrCreate(context.Background(), name)
	require.NoError(t, err)
	require.NoError(t, repos.Roles.AddPermissions(context.Background(), role.ID, entity.DefaultRolePermissions()[name]))
	role, err = repos.Roles.GetByName(context.Background(), name)
	require.NoError(t, err)
	return role
}

func newUser(id string, role *entity.Role) *entity.User {
	return &entity.User{ID: id, Username: id, Email: id + "@evidenta.cz", FirstName: "A", LastName: "B", Role: role, IsActive: true}
}

func TestStore_RunRollbackDescartaCambios(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Repositories()
	guest := seedRole(t, repos, entity.RoleGuest)

	boom := errors.New("boom")
	err := store.Run(ctx, func(tx ports.Repositories) error {
		require.NoError(t, tx.Users.Create(ctx, newUser("u1", guest)))
		return boom
	})
	require.ErrorIs(t, err, boom)

	u, err := repos.Users.GetByID(ctx, access.Unrestricted, "u1")
	require.NoError(t, err)
	assert.Nil(t, u, "el usuario creado en la transacción fallida no debe persistir")

	require.NoError(t, store.Run(ctx, func(tx ports.Repositories) error {
		return tx.Users.Create(ctx, newUser("u1", guest))
	}))
	u, err = repos.Users.GetByID(ctx, access.Unrestricted, "u1")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, entity.RoleGuest, u.RoleName())
	assert.True(t, u.Role.Permissions.Has(entity.PermChangeUser))
}

func TestUserRepo_UnicidadUsernameYEmail(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	guest := seedRole(t, repos, entity.RoleGuest)

	require.NoError(t, repos.Users.Create(ctx, newUser("u1", guest)))

	dup := newUser("u2", guest)
	dup.Username = "u1"
	assert.ErrorIs(t, repos.Users.Create(ctx, dup), domain.ErrDuplicate)

	dup = newUser("u3", guest)
	dup.Email = "U1@evidenta.cz"
	assert.ErrorIs(t, repos.Users.Create(ctx, dup), domain.ErrDuplicate)
}

func TestUserRepo_AlcanceCompartido(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	client := seedRole(t, repos, entity.RoleClient)

	for _, id := range []string{"c1", "peer", "stranger", "root"} {
		require.NoError(t, repos.Users.Create(ctx, newUser(id, client)))
	}
	for _, id := range []string{"co1", "co2"} {
		require.NoError(t, repos.Companies.Create(ctx, &entity.Company{ID: id, IdentificationNumber: id}))
	}
	require.NoError(t, repos.Companies.SetUsers(ctx, "co1", []string{"c1", "peer", "root"}))
	require.NoError(t, repos.Companies.SetUsers(ctx, "co2", []string{"stranger"}))

	rootUser, err := repos.Users.GetByID(ctx, access.Unrestricted, "root")
	require.NoError(t, err)
	rootUser.IsSuperuser = true
	require.NoError(t, repos.Users.Update(ctx, rootUser))

	actor, err := repos.Users.GetByID(ctx, access.Unrestricted, "c1")
	require.NoError(t, err)
	scope := access.VisibleUsers(actor)

	list, total, err := repos.Users.List(ctx, scope, repository.UserFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	ids := []string{list[0].ID, list[1].ID}
	assert.ElementsMatch(t, []string{"c1", "peer"}, ids)

	hidden, err := repos.Users.GetByID(ctx, scope, "stranger")
	require.NoError(t, err)
	assert.Nil(t, hidden, "fuera de alcance equivale a inexistente")

	assert.ErrorIs(t, repos.Users.Delete(ctx, scope, "stranger"), domain.ErrNotFound)
}

func TestCompanyRepo_BorrarDesvinculaMiembros(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	guest := seedRole(t, repos, entity.RoleGuest)
	require.NoError(t, repos.Users.Create(ctx, newUser("u1", guest)))
	require.NoError(t, repos.Companies.Create(ctx, &entity.Company{ID: "co1", IdentificationNumber: "25596641"}))
	require.NoError(t, repos.Companies.SetUsers(ctx, "co1", []string{"u1"}))

	require.NoError(t, repos.Companies.Delete(ctx, access.Unrestricted, "co1"))

	u, err := repos.Users.GetByID(ctx, access.Unrestricted, "u1")
	require.NoError(t, err)
	require.NotNil(t, u, "el usuario sobrevive al borrado de la empresa")
	assert.Empty(t, u.CompanyIDs)
}

func TestTokenRepo_BorradoDobleYCaducados(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	guest := seedRole(t, repos, entity.RoleGuest)
	require.NoError(t, repos.Users.Create(ctx, newUser("u1", guest)))

	now := time.Now()
	require.NoError(t, repos.Tokens.CreateToken(ctx, &entity.Token{Value: "live", UserID: "u1", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, repos.Tokens.CreateToken(ctx, &entity.Token{Value: "dead", UserID: "u1", ExpiresAt: now.Add(-time.Hour)}))
	assert.ErrorIs(t, repos.Tokens.CreateToken(ctx, &entity.Token{Value: "live", UserID: "u1"}), domain.ErrDuplicate)

	n, err := repos.Tokens.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repos.Tokens.DeleteToken(ctx, "live"))
	assert.ErrorIs(t, repos.Tokens.DeleteToken(ctx, "live"), domain.ErrNotFound, "el segundo borrado no encuentra la fila")
}

func TestUserRepo_BorrarUsuarioBorraTokens(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	guest := seedRole(t, repos, entity.RoleGuest)
	require.NoError(t, repos.Users.Create(ctx, newUser("u1", guest)))
	require.NoError(t, repos.Tokens.CreateOTP(ctx, &entity.OTPToken{Token: entity.Token{Value: "123456", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}}))

	require.NoError(t, repos.Users.Delete(ctx, access.Unrestricted, "u1"))

	otp, err := repos.Tokens.GetOTP(ctx, "123456")
	require.NoError(t, err)
	assert.Nil(t, otp)
}

func TestUserRepo_LimitesDeSesion(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	guest := seedRole(t, repos, entity.RoleGuest)
	require.NoError(t, repos.Users.Create(ctx, newUser("u1", guest)))

	changed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repos.Users.SetPassword(ctx, "u1", "hash", changed))
	later := changed.Add(time.Hour)
	require.NoError(t, repos.Users.RevokeSessions(ctx, "u1", later))
	// un límite anterior no retrocede el vigente
	require.NoError(t, repos.Users.RevokeSessions(ctx, "u1", changed))

	u, err := repos.Users.GetByID(ctx, access.Unrestricted, "u1")
	require.NoError(t, err)
	require.NotNil(t, u.PasswordChangedAt)
	require.NotNil(t, u.TokensRevokedAt)
	assert.True(t, u.PasswordChangedAt.Equal(changed))
	assert.True(t, u.TokensRevokedAt.Equal(later))

	// Update de perfil no toca los límites
	u.FirstName = "Otro"
	u.TokensRevokedAt = nil
	require.NoError(t, repos.Users.Update(ctx, u))
	u, err = repos.Users.GetByID(ctx, access.Unrestricted, "u1")
	require.NoError(t, err)
	require.NotNil(t, u.TokensRevokedAt)
	assert.True(t, u.TokensRevokedAt.Equal(later))

	assert.ErrorIs(t, repos.Users.RevokeSessions(ctx, "nadie", later), domain.ErrNotFound)
}
