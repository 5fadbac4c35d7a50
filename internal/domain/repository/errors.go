package repository

import (
	"fmt"

	"github.com/jhoicas/evidenta-api/internal/domain"
)

// UniqueViolation violación de unicidad traducida al campo afectado.
type UniqueViolation struct {
	Field string
}

func (e *UniqueViolation) Error() string {
	return fmt.Sprintf("valor duplicado en %s", e.Field)
}

// Is permite errors.Is(err, domain.ErrDuplicate).
func (e *UniqueViolation) Is(target error) bool {
	return target == domain.ErrDuplicate
}
