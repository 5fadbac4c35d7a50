package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/evidenta-api/internal/domain"
	"github.com/jhoicas/evidenta-api/internal/domain/access"
	"github.com/jhoicas/evidenta-api/internal/domain/entity"
	"github.com/jhoicas/evidenta-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

const userColumns = `
	u.id::text, u.username, u.title, u.first_name, u.last_name, u.email, u.password_hash,
	r.id::text, r.name, u.phone_number, u.gender, u.birthday, u.is_superuser, u.is_active,
	u.created_at, u.updated_at, u.password_changed_at, u.tokens_revoked_at`

const userFrom = `FROM users u LEFT JOIN roles r ON r.id = u.role_id`

// userOrder columnas permitidas en order_by.
var userOrder = map[string]string{
	"username":   "u.username",
	"email":      "u.email",
	"first_name": "u.first_name",
	"last_name":  "u.last_name",
	"role":       "COALESCE(r.name, '')",
	"created_at": "u.created_at",
}

// userFilterColumns columnas de repository.UserFilterFields.
var userFilterColumns = map[string]string{
	"username":     "u.username",
	"first_name":   "u.first_name",
	"last_name":    "u.last_name",
	"email":        "u.email",
	"phone_number": "u.phone_number",
	"role":         "COALESCE(r.name, '')",
}

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

// Create persiste un nuevo usuario con sus permisos directos.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	roleID, err := roleIDOf(user)
	if err != nil {
		return err
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO users (id, username, title, first_name, last_name, email, password_hash, role_id,
			phone_number, gender, birthday, is_superuser, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		user.ID, user.Username, user.Title, user.FirstName, user.LastName, user.Email, user.PasswordHash, roleID,
		user.PhoneNumber, genderValue(user.Gender), user.Birthday, user.IsSuperuser, user.IsActive,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if uv := asUniqueViolation(err); uv != nil {
			return uv
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("insert user: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return r.setPermissions(ctx, user.ID, user.Permissions)
}

// Update guarda perfil, rol y updated_at. La contraseña solo cambia con SetPassword.
func (r *UserRepo) Update(ctx context.Context, user *entity.User) error {
	roleID, err := roleIDOf(user)
	if err != nil {
		return err
	}
	if !validID(user.ID) {
		return domain.ErrNotFound
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE users SET username = $2, title = $3, first_name = $4, last_name = $5, email = $6,
			role_id = $7, phone_number = $8, gender = $9, birthday = $10, is_superuser = $11,
			is_active = $12, updated_at = $13
		WHERE id = $1`,
		user.ID, user.Username, user.Title, user.FirstName, user.LastName, user.Email,
		roleID, user.PhoneNumber, genderValue(user.Gender), user.Birthday, user.IsSuperuser,
		user.IsActive, user.UpdatedAt,
	)
	if err != nil {
		if uv := asUniqueViolation(err); uv != nil {
			return uv
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID obtiene un usuario visible por ID.
func (r *UserRepo) GetByID(ctx context.Context, scope access.Scope, id string) (*entity.User, error) {
	if !validID(id) {
		return nil, nil
	}
	var a args
	cond := "u.id = " + a.add(id) + " AND " + userScopeClause(scope, &a)
	return r.findOne(ctx, cond, a)
}

// GetByEmail obtiene un usuario visible por email, sin distinguir mayúsculas.
func (r *UserRepo) GetByEmail(ctx context.Context, scope access.Scope, email string) (*entity.User, error) {
	var a args
	cond := "LOWER(u.email) = LOWER(" + a.add(email) + ") AND " + userScopeClause(scope, &a)
	return r.findOne(ctx, cond, a)
}

// GetByLogin busca por username exacto o por email.
func (r *UserRepo) GetByLogin(ctx context.Context, login string) (*entity.User, error) {
	var a args
	p := a.add(login)
	return r.findOne(ctx, "(u.username = "+p+" OR LOWER(u.email) = LOWER("+p+"))", a)
}

// List devuelve la página pedida y el total filtrado.
func (r *UserRepo) List(ctx context.Context, scope access.Scope, f repository.UserFilter) ([]*entity.User, int, error) {
	var a args
	conds := []string{userScopeClause(scope, &a)}
	if f.Search != "" {
		p := a.add("%" + escapeLike(strings.ToLower(f.Search)) + "%")
		conds = append(conds, fmt.Sprintf(
			"(LOWER(u.username) LIKE %[1]s OR LOWER(u.email) LIKE %[1]s OR LOWER(u.first_name) LIKE %[1]s OR LOWER(u.last_name) LIKE %[1]s)", p))
	}
	if f.Role != "" {
		conds = append(conds, "r.name = "+a.add(string(f.Role)))
	}
	for _, ff := range f.Fields {
		cond, err := lookupClause(userFilterColumns, ff, &a)
		if err != nil {
			return nil, 0, err
		}
		conds = append(conds, cond)
	}
	where := strings.Join(conds, " AND ")

	var total int
	if err := r.q.QueryRow(ctx, "SELECT COUNT(*) "+userFrom+" WHERE "+where, a...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	order := "u.created_at ASC, u.id ASC"
	key := strings.TrimPrefix(f.OrderBy, "-")
	if col, ok := userOrder[key]; ok {
		dir := "ASC"
		if strings.HasPrefix(f.OrderBy, "-") {
			dir = "DESC"
		}
		order = col + " " + dir + ", u.id " + dir
	}
	query := "SELECT " + userColumns + " " + userFrom + " WHERE " + where + " ORDER BY " + order
	if f.Limit > 0 {
		query += " LIMIT " + a.add(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + a.add(f.Offset)
	}
	users, err := r.query(ctx, query, a)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Delete borra el usuario visible; membresías y tokens caen en cascada.
func (r *UserRepo) Delete(ctx context.Context, scope access.Scope, id string) error {
	if !validID(id) {
		return domain.ErrNotFound
	}
	var a args
	cond := "u.id = " + a.add(id) + " AND " + userScopeClause(scope, &a)
	tag, err := r.q.Exec(ctx, "DELETE FROM users u WHERE "+cond, a...)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepo) ExistsByUsername(ctx context.Context, username, excludeID string) (bool, error) {
	return r.exists(ctx, "username = $1", username, excludeID)
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	return r.exists(ctx, "LOWER(email) = LOWER($1)", email, excludeID)
}

// CountExisting cuántos de los ids existen.
func (r *UserRepo) CountExisting(ctx context.Context, ids []string) (int, error) {
	valid := validIDs(dedupe(ids))
	if len(valid) == 0 {
		return 0, nil
	}
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE id = ANY($1::uuid[])`, valid).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// SetCompanies reemplaza las membresías del usuario.
func (r *UserRepo) SetCompanies(ctx context.Context, userID string, companyIDs []string) error {
	if !validID(userID) {
		return domain.ErrNotFound
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM company_users WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear memberships: %w", err)
	}
	ids := dedupe(companyIDs)
	if len(ids) == 0 {
		return nil
	}
	if len(validIDs(ids)) != len(ids) {
		return fmt.Errorf("empresa inexistente: %w", domain.ErrNotFound)
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO company_users (company_id, user_id)
		SELECT c, $1 FROM UNNEST($2::uuid[]) AS c`, userID, ids)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("set companies: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("set companies: %w", err)
	}
	return nil
}

// SetPassword guarda el hash y marca la fecha del cambio.
func (r *UserRepo) SetPassword(ctx context.Context, userID, hash string, at time.Time) error {
	if !validID(userID) {
		return domain.ErrNotFound
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE users SET password_hash = $2, password_changed_at = $3, updated_at = $3
		WHERE id = $1`, userID, hash, at)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepo) RevokeSessions(ctx context.Context, userID string, before time.Time) error {
	if !validID(userID) {
		return domain.ErrNotFound
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE users SET tokens_revoked_at = GREATEST(COALESCE(tokens_revoked_at, $2), $2)
		WHERE id = $1`, userID, before)
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepo) setPermissions(ctx context.Context, userID string, perms []entity.Permission) error {
	if len(perms) == 0 {
		return nil
	}
	codes := make([]string, len(perms))
	for i, p := range perms {
		codes[i] = string(p)
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO user_permissions (user_id, permission)
		SELECT $1, p FROM UNNEST($2::text[]) AS p
		ON CONFLICT DO NOTHING`, userID, codes)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("user permissions: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("user permissions: %w", err)
	}
	return nil
}

func (r *UserRepo) exists(ctx context.Context, cond, value, excludeID string) (bool, error) {
	query := "SELECT EXISTS (SELECT 1 FROM users WHERE " + cond
	queryArgs := []any{value}
	if validID(excludeID) {
		query += " AND id <> $2"
		queryArgs = append(queryArgs, excludeID)
	}
	var found bool
	if err := r.q.QueryRow(ctx, query+")", queryArgs...).Scan(&found); err != nil {
		return false, fmt.Errorf("exists user: %w", err)
	}
	return found, nil
}

func (r *UserRepo) findOne(ctx context.Context, cond string, a args) (*entity.User, error) {
	users, err := r.query(ctx, "SELECT "+userColumns+" "+userFrom+" WHERE "+cond+" LIMIT 1", a)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return users[0], nil
}

func (r *UserRepo) query(ctx context.Context, query string, a args) ([]*entity.User, error) {
	rows, err := r.q.Query(ctx, query, a...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	users, err := pgx.CollectRows(rows, scanUser)
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	if err := r.hydrate(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

func scanUser(row pgx.CollectableRow) (*entity.User, error) {
	var (
		u        entity.User
		roleID   *string
		roleName *string
		gender   *int16
		birthday *time.Time
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Title, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&roleID, &roleName, &u.PhoneNumber, &gender, &birthday, &u.IsSuperuser, &u.IsActive,
		&u.CreatedAt, &u.UpdatedAt, &u.PasswordChangedAt, &u.TokensRevokedAt,
	)
	if err != nil {
		return nil, err
	}
	if roleID != nil && roleName != nil {
		u.Role = &entity.Role{ID: *roleID, Name: entity.RoleName(*roleName), Permissions: entity.PermissionSet{}}
	}
	if gender != nil {
		g := entity.Gender(*gender)
		u.Gender = &g
	}
	u.Birthday = birthday
	return &u, nil
}

// hydrate carga permisos del rol, permisos directos y empresas en tres consultas.
func (r *UserRepo) hydrate(ctx context.Context, users []*entity.User) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]string, len(users))
	byID := make(map[string]*entity.User, len(users))
	roleIDs := make([]string, 0, len(users))
	byRole := map[string][]*entity.User{}
	for i, u := range users {
		ids[i] = u.ID
		byID[u.ID] = u
		if u.Role != nil {
			if _, seen := byRole[u.Role.ID]; !seen {
				roleIDs = append(roleIDs, u.Role.ID)
			}
			byRole[u.Role.ID] = append(byRole[u.Role.ID], u)
		}
	}

	if len(roleIDs) > 0 {
		err := r.pairs(ctx, `SELECT role_id::text, permission FROM role_permissions WHERE role_id = ANY($1::uuid[])`, roleIDs,
			func(roleID, perm string) {
				for _, u := range byRole[roleID] {
					u.Role.Permissions[entity.Permission(perm)] = struct{}{}
				}
			})
		if err != nil {
			return err
		}
	}
	err := r.pairs(ctx, `SELECT user_id::text, permission FROM user_permissions WHERE user_id = ANY($1::uuid[]) ORDER BY permission`, ids,
		func(userID, perm string) {
			u := byID[userID]
			u.Permissions = append(u.Permissions, entity.Permission(perm))
		})
	if err != nil {
		return err
	}
	return r.pairs(ctx, `
		SELECT cu.user_id::text, cu.company_id::text FROM company_users cu
		JOIN companies c ON c.id = cu.company_id
		WHERE cu.user_id = ANY($1::uuid[]) ORDER BY c.created_at, c.id`, ids,
		func(userID, companyID string) {
			u := byID[userID]
			u.CompanyIDs = append(u.CompanyIDs, companyID)
		})
}

func (r *UserRepo) pairs(ctx context.Context, query string, ids []string, fn func(a, b string)) error {
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("hydrate users: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a, b string
		if err := rows.Scan(&a, &b); err != nil {
			return fmt.Errorf("hydrate users: %w", err)
		}
		fn(a, b)
	}
	return rows.Err()
}

func roleIDOf(user *entity.User) (*string, error) {
	if user.Role == nil {
		return nil, nil
	}
	if !validID(user.Role.ID) {
		return nil, fmt.Errorf("rol %s: %w", user.Role.Name, domain.ErrNotFound)
	}
	return &user.Role.ID, nil
}

func genderValue(g *entity.Gender) *int16 {
	if g == nil {
		return nil
	}
	v := int16(*g)
	return &v
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
