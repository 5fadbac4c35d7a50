package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/evidenta-api/internal/domain"
	"github.com/jhoicas/evidenta-api/internal/domain/access"
	"github.com/jhoicas/evidenta-api/internal/domain/entity"
	"github.com/jhoicas/evidenta-api/internal/domain/repository"
)

var _ repository.CompanyRepository = (*CompanyRepo)(nil)

const companyColumns = `
	c.id::text, c.name, c.description, c.company_identification_number, c.tax_identification_number,
	c.address_1, c.address_2, c.city, c.zip_code, c.created_at, c.updated_at`

// CompanyRepo implementación del puerto CompanyRepository sobre PostgreSQL.
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador de persistencia para empresas.
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

// Create persiste una nueva empresa.
func (r *CompanyRepo) Create(ctx context.Context, c *entity.Company) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO companies (id, name, description, company_identification_number, tax_identification_number,
			address_1, address_2, city, zip_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID, c.Name, c.Description, c.IdentificationNumber, c.TaxIdentificationNumber,
		c.Address1, c.Address2, c.City, c.ZipCode, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if uv := asUniqueViolation(err); uv != nil {
			return uv
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

// Update actualiza los datos de la empresa.
func (r *CompanyRepo) Update(ctx context.Context, c *entity.Company) error {
	if !validID(c.ID) {
		return domain.ErrNotFound
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE companies SET name = $2, description = $3, company_identification_number = $4,
			tax_identification_number = $5, address_1 = $6, address_2 = $7, city = $8, zip_code = $9,
			updated_at = $10
		WHERE id = $1`,
		c.ID, c.Name, c.Description, c.IdentificationNumber, c.TaxIdentificationNumber,
		c.Address1, c.Address2, c.City, c.ZipCode, c.UpdatedAt,
	)
	if err != nil {
		if uv := asUniqueViolation(err); uv != nil {
			return uv
		}
		return fmt.Errorf("update company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID obtiene una empresa visible por ID.
func (r *CompanyRepo) GetByID(ctx context.Context, scope access.Scope, id string) (*entity.Company, error) {
	if !validID(id) {
		return nil, nil
	}
	var a args
	cond := "c.id = " + a.add(id) + " AND " + companyScopeClause(scope, &a)
	companies, err := r.query(ctx, "SELECT "+companyColumns+" FROM companies c WHERE "+cond, a)
	if err != nil {
		return nil, err
	}
	if len(companies) == 0 {
		return nil, nil
	}
	return companies[0], nil
}

// List devuelve la página pedida y el total filtrado, por fecha de creación.
func (r *CompanyRepo) List(ctx context.Context, scope access.Scope, f repository.CompanyFilter) ([]*entity.Company, int, error) {
	var a args
	conds := []string{companyScopeClause(scope, &a)}
	if f.Name != "" {
		conds = append(conds, "LOWER(c.name) LIKE "+a.add("%"+strings.ToLower(f.Name)+"%"))
	}
	if f.IdentificationNumber != "" {
		conds = append(conds, "c.company_identification_number = "+a.add(f.IdentificationNumber))
	}
	if f.TaxIdentificationNumber != "" {
		conds = append(conds, "c.tax_identification_number = "+a.add(f.TaxIdentificationNumber))
	}
	where := strings.Join(conds, " AND ")

	var total int
	if err := r.q.QueryRow(ctx, "SELECT COUNT(*) FROM companies c WHERE "+where, a...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count companies: %w", err)
	}
	query := "SELECT " + companyColumns + " FROM companies c WHERE " + where + " ORDER BY c.created_at, c.id"
	if f.Limit > 0 {
		query += " LIMIT " + a.add(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + a.add(f.Offset)
	}
	companies, err := r.query(ctx, query, a)
	if err != nil {
		return nil, 0, err
	}
	return companies, total, nil
}

// Delete borra la empresa visible; sus usuarios quedan sin esa membresía.
func (r *CompanyRepo) Delete(ctx context.Context, scope access.Scope, id string) error {
	if !validID(id) {
		return domain.ErrNotFound
	}
	var a args
	cond := "c.id = " + a.add(id) + " AND " + companyScopeClause(scope, &a)
	tag, err := r.q.Exec(ctx, "DELETE FROM companies c WHERE "+cond, a...)
	if err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CompanyRepo) ExistsByIdentificationNumber(ctx context.Context, number, excludeID string) (bool, error) {
	return r.exists(ctx, "company_identification_number", number, excludeID)
}

// ExistsByTaxIdentificationNumber el DIČ vacío nunca colisiona.
func (r *CompanyRepo) ExistsByTaxIdentificationNumber(ctx context.Context, number, excludeID string) (bool, error) {
	if number == "" {
		return false, nil
	}
	return r.exists(ctx, "tax_identification_number", number, excludeID)
}

func (r *CompanyRepo) CountExisting(ctx context.Context, ids []string) (int, error) {
	valid := validIDs(dedupe(ids))
	if len(valid) == 0 {
		return 0, nil
	}
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM companies WHERE id = ANY($1::uuid[])`, valid).Scan(&n); err != nil {
		return 0, fmt.Errorf("count companies: %w", err)
	}
	return n, nil
}

// SetUsers reemplaza los miembros de la empresa.
func (r *CompanyRepo) SetUsers(ctx context.Context, companyID string, userIDs []string) error {
	if !validID(companyID) {
		return domain.ErrNotFound
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM company_users WHERE company_id = $1`, companyID); err != nil {
		return fmt.Errorf("clear members: %w", err)
	}
	ids := dedupe(userIDs)
	if len(ids) == 0 {
		return nil
	}
	if len(validIDs(ids)) != len(ids) {
		return fmt.Errorf("usuario inexistente: %w", domain.ErrNotFound)
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO company_users (company_id, user_id)
		SELECT $1, u FROM UNNEST($2::uuid[]) AS u`, companyID, ids)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("set users: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("set users: %w", err)
	}
	return nil
}

func (r *CompanyRepo) exists(ctx context.Context, column, value, excludeID string) (bool, error) {
	query := "SELECT EXISTS (SELECT 1 FROM companies WHERE " + column + " = $1"
	queryArgs := []any{value}
	if validID(excludeID) {
		query += " AND id <> $2"
		queryArgs = append(queryArgs, excludeID)
	}
	var found bool
	if err := r.q.QueryRow(ctx, query+")", queryArgs...).Scan(&found); err != nil {
		return false, fmt.Errorf("exists company: %w", err)
	}
	return found, nil
}

func (r *CompanyRepo) query(ctx context.Context, query string, a args) ([]*entity.Company, error) {
	rows, err := r.q.Query(ctx, query, a...)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	companies, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.Company, error) {
		var c entity.Company
		err := row.Scan(&c.ID, &c.Name, &c.Description, &c.IdentificationNumber, &c.TaxIdentificationNumber,
			&c.Address1, &c.Address2, &c.City, &c.ZipCode, &c.CreatedAt, &c.UpdatedAt)
		return &c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan companies: %w", err)
	}
	if len(companies) == 0 {
		return companies, nil
	}

	ids := make([]string, len(companies))
	byID := make(map[string]*entity.Company, len(companies))
	for i, c := range companies {
		ids[i] = c.ID
		byID[c.ID] = c
	}
	members, err := r.q.Query(ctx, `
		SELECT cu.company_id::text, cu.user_id::text FROM company_users cu
		JOIN users u ON u.id = cu.user_id
		WHERE cu.company_id = ANY($1::uuid[]) ORDER BY u.created_at, u.id`, ids)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer members.Close()
	for members.Next() {
		var companyID, userID string
		if err := members.Scan(&companyID, &userID); err != nil {
			return nil, fmt.Errorf("scan members: %w", err)
		}
		c := byID[companyID]
		c.UserIDs = append(c.UserIDs, userID)
	}
	if err := members.Err(); err != nil {
		return nil, fmt.Errorf("scan members: %w", err)
	}
	return companies, nil
}
