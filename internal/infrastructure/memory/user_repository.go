package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/evidenta-api/internal/domain"
	"github.com/jhoicas/evidenta-api/internal/domain/access"
	"github.com/jhoicas/evidenta-api/internal/domain/entity"
	"github.com/jhoicas/evidenta-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación en memoria de repository.UserRepository.
type UserRepo struct {
	acc accessor
}

func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	return r.acc(func(st *state) error {
		if _, ok := st.users[user.ID]; ok {
			return &repository.UniqueViolation{Field: "id"}
		}
		if err := checkUserUnique(st, user); err != nil {
			return err
		}
		row, err := toRow(st, user)
		if err != nil {
			return err
		}
		st.users[user.ID] = row
		return nil
	})
}

func (r *UserRepo) Update(ctx context.Context, user *entity.User) error {
	return r.acc(func(st *state) error {
		prev, ok := st.users[user.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if err := checkUserUnique(st, user); err != nil {
			return err
		}
		row, err := toRow(st, user)
		if err != nil {
			return err
		}
		// la contraseña y los límites de sesión solo cambian por sus métodos
		row.user.PasswordHash = prev.user.PasswordHash
		row.user.PasswordChangedAt = prev.user.PasswordChangedAt
		row.user.TokensRevokedAt = prev.user.TokensRevokedAt
		st.users[user.ID] = row
		return nil
	})
}

func (r *UserRepo) GetByID(ctx context.Context, scope access.Scope, id string) (*entity.User, error) {
	var out *entity.User
	err := r.acc(func(st *state) error {
		row, ok := st.users[id]
		if !ok {
			return nil
		}
		u := hydrateUser(st, row)
		if visibleUser(st, scope, u) {
			out = u
		}
		return nil
	})
	return out, err
}

func (r *UserRepo) GetByEmail(ctx context.Context, scope access.Scope, email string) (*entity.User, error) {
	var out *entity.User
	err := r.acc(func(st *state) error {
		for _, row := range st.users {
			if strings.EqualFold(row.user.Email, email) {
				u := hydrateUser(st, row)
				if visibleUser(st, scope, u) {
					out = u
				}
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *UserRepo) GetByLogin(ctx context.Context, login string) (*entity.User, error) {
	var out *entity.User
	err := r.acc(func(st *state) error {
		for _, row := range st.users {
			if row.user.Username == login || strings.EqualFold(row.user.Email, login) {
				out = hydrateUser(st, row)
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *UserRepo) List(ctx context.Context, scope access.Scope, f repository.UserFilter) ([]*entity.User, int, error) {
	var out []*entity.User
	var total int
	err := r.acc(func(st *state) error {
		search := strings.ToLower(f.Search)
		var all []*entity.User
		for _, row := range st.users {
			u := hydrateUser(st, row)
			if !visibleUser(st, scope, u) {
				continue
			}
			if f.Role != "" && u.RoleName() != f.Role {
				continue
			}
			if search != "" && !matchesUser(u, search) {
				continue
			}
			if !matchesFields(u, f.Fields) {
				continue
			}
			all = append(all, u)
		}
		sortUsers(all, f.OrderBy)
		total = len(all)
		out = page(all, f.Limit, f.Offset)
		return nil
	})
	return out, total, err
}

func (r *UserRepo) Delete(ctx context.Context, scope access.Scope, id string) error {
	return r.acc(func(st *state) error {
		row, ok := st.users[id]
		if !ok || !visibleUser(st, scope, hydrateUser(st, row)) {
			return domain.ErrNotFound
		}
		delete(st.users, id)
		for _, set := range st.members {
			delete(set, id)
		}
		for k, t := range st.tokens {
			if t.UserID == id {
				delete(st.tokens, k)
			}
		}
		for k, t := range st.otps {
			if t.UserID == id {
				delete(st.otps, k)
			}
		}
		return nil
	})
}

func (r *UserRepo) ExistsByUsername(ctx context.Context, username, excludeID string) (bool, error) {
	var found bool
	err := r.acc(func(st *state) error {
		for id, row := range st.users {
			if id != excludeID && row.user.Username == username {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	var found bool
	err := r.acc(func(st *state) error {
		for id, row := range st.users {
			if id != excludeID && strings.EqualFold(row.user.Email, email) {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *UserRepo) CountExisting(ctx context.Context, ids []string) (int, error) {
	var n int
	err := r.acc(func(st *state) error {
		for _, id := range dedupe(ids) {
			if _, ok := st.users[id]; ok {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *UserRepo) SetCompanies(ctx context.Context, userID string, companyIDs []string) error {
	return r.acc(func(st *state) error {
		if _, ok := st.users[userID]; !ok {
			return domain.ErrNotFound
		}
		for _, cid := range companyIDs {
			if _, ok := st.companies[cid]; !ok {
				return fmt.Errorf("empresa %s: %w", cid, domain.ErrNotFound)
			}
		}
		for _, set := range st.members {
			delete(set, userID)
		}
		for _, cid := range dedupe(companyIDs) {
			if st.members[cid] == nil {
				st.members[cid] = map[string]struct{}{}
			}
			st.members[cid][userID] = struct{}{}
		}
		return nil
	})
}

func (r *UserRepo) SetPassword(ctx context.Context, userID, hash string, at time.Time) error {
	return r.acc(func(st *state) error {
		row, ok := st.users[userID]
		if !ok {
			return domain.ErrNotFound
		}
		row.user.PasswordHash = hash
		row.user.PasswordChangedAt = &at
		row.user.UpdatedAt = at
		st.users[userID] = row
		return nil
	})
}

func (r *UserRepo) RevokeSessions(ctx context.Context, userID string, before time.Time) error {
	return r.acc(func(st *state) error {
		row, ok := st.users[userID]
		if !ok {
			return domain.ErrNotFound
		}
		if row.user.TokensRevokedAt == nil || before.After(*row.user.TokensRevokedAt) {
			row.user.TokensRevokedAt = &before
		}
		st.users[userID] = row
		return nil
	})
}

func checkUserUnique(st *state, user *entity.User) error {
	for id, row := range st.users {
		if id == user.ID {
			continue
		}
		if row.user.Username == user.Username {
			return &repository.UniqueViolation{Field: "username"}
		}
		if strings.EqualFold(row.user.Email, user.Email) {
			return &repository.UniqueViolation{Field: "email"}
		}
	}
	return nil
}

func toRow(st *state, user *entity.User) (userRow, error) {
	u := *user
	var role entity.RoleName
	if user.Role != nil {
		if _, ok := st.roles[user.Role.Name]; !ok {
			return userRow{}, fmt.Errorf("rol %s: %w", user.Role.Name, domain.ErrNotFound)
		}
		role = user.Role.Name
	}
	u.Role = nil
	u.CompanyIDs = nil
	u.Permissions = append([]entity.Permission(nil), user.Permissions...)
	return userRow{user: u, role: role}, nil
}

func hydrateUser(st *state, row userRow) *entity.User {
	u := row.user
	if row.role != "" {
		role := st.roles[row.role]
		role.Permissions = entity.NewPermissionSet(role.Permissions.Sorted()...)
		u.Role = &role
	}
	u.CompanyIDs = st.companiesOf(u.ID)
	u.Permissions = append([]entity.Permission(nil), row.user.Permissions...)
	return &u
}

func visibleUser(st *state, scope access.Scope, u *entity.User) bool {
	var actorCompanies []string
	if scope.Kind == access.ScopeSharedCompanies {
		actorCompanies = st.companiesOf(scope.ActorID)
	}
	return scope.UserVisible(u, actorCompanies)
}

func matchesUser(u *entity.User, search string) bool {
	for _, v := range []string{u.Username, u.Email, u.FirstName, u.LastName} {
		if strings.Contains(strings.ToLower(v), search) {
			return true
		}
	}
	return false
}

func matchesFields(u *entity.User, filters []repository.UserFieldFilter) bool {
	for _, f := range filters {
		if !f.Lookup.Match(userField(u, f.Field), f.Value) {
			return false
		}
	}
	return true
}

func userField(u *entity.User, field string) string {
	switch field {
	case "username":
		return u.Username
	case "first_name":
		return u.FirstName
	case "last_name":
		return u.LastName
	case "email":
		return u.Email
	case "phone_number":
		return u.PhoneNumber
	case "role":
		return string(u.RoleName())
	default:
		return ""
	}
}

func sortUsers(users []*entity.User, orderBy string) {
	desc := strings.HasPrefix(orderBy, "-")
	key := strings.TrimPrefix(orderBy, "-")
	less := func(a, b *entity.User) bool {
		switch key {
		case "username":
			return a.Username < b.Username
		case "email":
			return a.Email < b.Email
		case "first_name", "last_name", "role":
			return userField(a, key) < userField(b, key)
		default:
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.ID < b.ID
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(users, func(i, j int) bool {
		if desc {
			return less(users[j], users[i])
		}
		return less(users[i], users[j])
	})
}
