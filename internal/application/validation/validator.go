// Package validation traduce las reglas declarativas (tags validate) a errores de campo de dominio.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/jhoicas/evidenta-api/internal/domain"
	"github.com/jhoicas/evidenta-api/internal/domain/entity"
	"github.com/jhoicas/evidenta-api/pkg/ico"
)

var (
	usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)
	phoneRe    = regexp.MustCompile(`^\+?1?\d{9,15}$`)
)

// Validator envuelve go-playground/validator con los tags propios del dominio:
// username, phone y company_idn.
type Validator struct {
	v *validator.Validate
}

// New registra los validadores propios y usa el nombre JSON como nombre de campo.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	if err := register(v, domainRules); err != nil {
		panic(err)
	}
	return &Validator{v: v}
}

// rule validador propio asociado a un tag.
type rule struct {
	tag string
	fn  validator.Func
}

var domainRules = []rule{
	{"username", func(fl validator.FieldLevel) bool { return usernameRe.MatchString(fl.Field().String()) }},
	{"phone", func(fl validator.FieldLevel) bool { return phoneRe.MatchString(fl.Field().String()) }},
	{"company_idn", func(fl validator.FieldLevel) bool { return ico.Validate(fl.Field().String()) == nil }},
}

// register falla si un tag no se puede registrar: un tag ausente nunca validaría.
func register(v *validator.Validate, rules []rule) error {
	for _, r := range rules {
		if err := v.RegisterValidation(r.tag, r.fn); err != nil {
			return fmt.Errorf("validation: registrar %q: %w", r.tag, err)
		}
	}
	return nil
}

// Struct valida s y devuelve los errores por campo (nil si es válido).
// objName se usa en los mensajes ("User", "Company").
func (v *Validator) Struct(objName string, s any) []domain.FieldError {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []domain.FieldError{domain.NewFieldError(objName, "", domain.CodeInvalid, nil, "")}
	}
	out := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		code := codeFor(fe)
		out = append(out, domain.NewFieldError(objName, fe.Field(), code, fe.Value(), fe.Param()))
	}
	return out
}

func codeFor(fe validator.FieldError) domain.ErrorCode {
	switch fe.Tag() {
	case "required":
		return domain.CodeBlank
	case "max":
		return domain.CodeMaxLength
	case "min":
		return domain.CodeMinLength
	case "len":
		n, _ := strconv.Atoi(fe.Param())
		if s, ok := fe.Value().(string); ok && utf8.RuneCountInString(s) > n {
			return domain.CodeMaxLength
		}
		return domain.CodeMinLength
	case "oneof":
		return domain.CodeChoice
	default:
		return domain.CodeInvalid
	}
}

// Password aplica las reglas de fortaleza y devuelve un error por regla incumplida.
func Password(field, plain string) []domain.FieldError {
	var out []domain.FieldError
	for _, v := range entity.CheckPasswordStrength(plain) {
		out = append(out, domain.NewFieldError("User", field, domain.ErrorCode(v), nil, entity.PasswordMinLengthParam()))
	}
	return out
}
