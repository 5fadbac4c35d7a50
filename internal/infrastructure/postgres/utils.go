package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/evidenta-api/internal/domain/repository"
)

// Códigos SQLSTATE usados.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// constraintFields traduce el nombre de la constraint única al campo expuesto.
var constraintFields = map[string]string{
	"users_username_key":                      "username",
	"users_email_key":                         "email",
	"companies_identification_number_key":     "company_identification_number",
	"companies_tax_identification_number_key": "tax_identification_number",
}

func pgCode(err error) (string, string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	code, _ := pgCode(err)
	return code == codeUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	code, _ := pgCode(err)
	return code == codeForeignKeyViolation
}

// asUniqueViolation convierte 23505 en *repository.UniqueViolation con el campo afectado.
func asUniqueViolation(err error) error {
	code, constraint := pgCode(err)
	if code != codeUniqueViolation {
		return nil
	}
	field, ok := constraintFields[constraint]
	if !ok {
		field = constraint
	}
	return &repository.UniqueViolation{Field: field}
}

// validID los ids son UUID; cualquier otro valor no puede existir.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func validIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			out = append(out, id)
		}
	}
	return out
}

// args acumula parámetros posicionales para SQL dinámico.
type args []any

func (a *args) add(v any) string {
	*a = append(*a, v)
	return fmt.Sprintf("$%d", len(*a))
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// escapeLike escapa los comodines de LIKE (el escape por defecto es la barra invertida).
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// lookupClause traduce un filtro por campo a SQL sin distinguir mayúsculas.
func lookupClause(columns map[string]string, f repository.UserFieldFilter, a *args) (string, error) {
	col, ok := columns[f.Field]
	if !ok {
		return "", fmt.Errorf("filtro sobre campo desconocido %q", f.Field)
	}
	value := strings.ToLower(f.Value)
	switch f.Lookup {
	case repository.LookupExact:
		return "LOWER(" + col + ") = " + a.add(value), nil
	case repository.LookupContains:
		return "LOWER(" + col + ") LIKE " + a.add("%"+escapeLike(value)+"%"), nil
	case repository.LookupStartsWith:
		return "LOWER(" + col + ") LIKE " + a.add(escapeLike(value)+"%"), nil
	default:
		return "", fmt.Errorf("lookup desconocido %q", f.Lookup)
	}
}
