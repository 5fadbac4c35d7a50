package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jhoicas/evidenta-api/internal/domain"
	"github.com/jhoicas/evidenta-api/internal/domain/access"
	"github.com/jhoicas/evidenta-api/internal/domain/entity"
	"github.com/jhoicas/evidenta-api/internal/domain/repository"
)

var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo implementación en memoria de repository.CompanyRepository.
type CompanyRepo struct {
	acc accessor
}

func (r *CompanyRepo) Create(ctx context.Context, company *entity.Company) error {
	return r.acc(func(st *state) error {
		if _, ok := st.companies[company.ID]; ok {
			return &repository.UniqueViolation{Field: "id"}
		}
		if err := checkCompanyUnique(st, company); err != nil {
			return err
		}
		c := *company
		c.UserIDs = nil
		st.companies[c.ID] = c
		return nil
	})
}

func (r *CompanyRepo) Update(ctx context.Context, company *entity.Company) error {
	return r.acc(func(st *state) error {
		if _, ok := st.companies[company.ID]; !ok {
			return domain.ErrNotFound
		}
		if err := checkCompanyUnique(st, company); err != nil {
			return err
		}
		c := *company
		c.UserIDs = nil
		st.companies[c.ID] = c
		return nil
	})
}

func (r *CompanyRepo) GetByID(ctx context.Context, scope access.Scope, id string) (*entity.Company, error) {
	var out *entity.Company
	err := r.acc(func(st *state) error {
		c, ok := st.companies[id]
		if !ok {
			return nil
		}
		hydrated := hydrateCompany(st, c)
		if scope.CompanyVisible(hydrated) {
			out = hydrated
		}
		return nil
	})
	return out, err
}

func (r *CompanyRepo) List(ctx context.Context, scope access.Scope, f repository.CompanyFilter) ([]*entity.Company, int, error) {
	var out []*entity.Company
	var total int
	err := r.acc(func(st *state) error {
		name := strings.ToLower(f.Name)
		var all []*entity.Company
		for _, c := range st.companies {
			h := hydrateCompany(st, c)
			if !scope.CompanyVisible(h) {
				continue
			}
			if name != "" && !strings.Contains(strings.ToLower(h.Name), name) {
				continue
			}
			if f.IdentificationNumber != "" && h.IdentificationNumber != f.IdentificationNumber {
				continue
			}
			if f.TaxIdentificationNumber != "" && h.TaxIdentificationNumber != f.TaxIdentificationNumber {
				continue
			}
			all = append(all, h)
		}
		sort.SliceStable(all, func(i, j int) bool {
			if all[i].CreatedAt.Equal(all[j].CreatedAt) {
				return all[i].ID < all[j].ID
			}
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		})
		total = len(all)
		out = page(all, f.Limit, f.Offset)
		return nil
	})
	return out, total, err
}

func (r *CompanyRepo) Delete(ctx context.Context, scope access.Scope, id string) error {
	return r.acc(func(st *state) error {
		c, ok := st.companies[id]
		if !ok || !scope.CompanyVisible(hydrateCompany(st, c)) {
			return domain.ErrNotFound
		}
		delete(st.companies, id)
		delete(st.members, id)
		return nil
	})
}

func (r *CompanyRepo) ExistsByIdentificationNumber(ctx context.Context, number, excludeID string) (bool, error) {
	var found bool
	err := r.acc(func(st *state) error {
		for id, c := range st.companies {
			if id != excludeID && c.IdentificationNumber == number {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *CompanyRepo) ExistsByTaxIdentificationNumber(ctx context.Context, number, excludeID string) (bool, error) {
	if number == "" {
		return false, nil
	}
	var found bool
	err := r.acc(func(st *state) error {
		for id, c := range st.companies {
			if id != excludeID && c.TaxIdentificationNumber == number {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *CompanyRepo) CountExisting(ctx context.Context, ids []string) (int, error) {
	var n int
	err := r.acc(func(st *state) error {
		for _, id := range dedupe(ids) {
			if _, ok := st.companies[id]; ok {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *CompanyRepo) SetUsers(ctx context.Context, companyID string, userIDs []string) error {
	return r.acc(func(st *state) error {
		if _, ok := st.companies[companyID]; !ok {
			return domain.ErrNotFound
		}
		set := make(map[string]struct{}, len(userIDs))
		for _, uid := range userIDs {
			if _, ok := st.users[uid]; !ok {
				return fmt.Errorf("usuario %s: %w", uid, domain.ErrNotFound)
			}
			set[uid] = struct{}{}
		}
		st.members[companyID] = set
		return nil
	})
}

func checkCompanyUnique(st *state, company *entity.Company) error {
	for id, c := range st.companies {
		if id == company.ID {
			continue
		}
		if c.IdentificationNumber == company.IdentificationNumber {
			return &repository.UniqueViolation{Field: "company_identification_number"}
		}
		if company.TaxIdentificationNumber != "" && c.TaxIdentificationNumber == company.TaxIdentificationNumber {
			return &repository.UniqueViolation{Field: "tax_identification_number"}
		}
	}
	return nil
}

func hydrateCompany(st *state, c entity.Company) *entity.Company {
	c.UserIDs = st.usersOf(c.ID)
	return &c
}
