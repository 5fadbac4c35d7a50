package domain

import (
	"errors"
	"fmt"
)

// ErrorCode código legible por máquina que viaja en el campo error_code de la respuesta.
type ErrorCode string

const (
	CodeLoginRequired      ErrorCode = "login_required"
	CodePermissionRequired ErrorCode = "permission_required"
	CodeObjectNotFound     ErrorCode = "object_not_found"
	CodeInvalidValues      ErrorCode = "invalid_values"
	CodeInvalidToken       ErrorCode = "invalid_token"
	CodeInvalidPasswords   ErrorCode = "invalid_passwords"
	CodeInvalidOldPassword ErrorCode = "invalid_old_password"
	CodeUnexpectedError    ErrorCode = "unexpected_error"

	// Códigos por campo dentro de invalid_values.
	CodeInvalid                 ErrorCode = "invalid"
	CodeBlank                   ErrorCode = "blank"
	CodeNull                    ErrorCode = "null"
	CodeMaxLength               ErrorCode = "max_length"
	CodeMinLength               ErrorCode = "min_length"
	CodeChoice                  ErrorCode = "choice"
	CodeUnique                  ErrorCode = "unique"
	CodeCompanyDoesNotExist     ErrorCode = "company_does_not_exist"
	CodeUserDoesNotExist        ErrorCode = "user_does_not_exist"
	CodePasswordTooShort        ErrorCode = "password_too_short"
	CodePasswordTooCommon       ErrorCode = "password_too_common"
	CodePasswordEntirelyNumeric ErrorCode = "password_entirely_numeric"
)

// Error es el error de dominio expuesto al cliente: {error_code, message, error_data}.
// Err conserva la causa original solo para logs; nunca se serializa.
type Error struct {
	Code    ErrorCode
	Message string
	Data    any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is compara por código, de modo que errors.Is(err, domain.ErrInvalidToken) funciona
// aunque el mensaje o los datos difieran.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// FieldError entrada de error de validación para un campo.
type FieldError struct {
	Field   string    `json:"field"`
	Message string    `json:"message"`
	Code    ErrorCode `json:"code"`
	Value   any       `json:"value"`
}

// Errores de dominio base; usar los constructores para añadir contexto.
var (
	ErrLoginRequired      = &Error{Code: CodeLoginRequired, Message: "User is unauthorized."}
	ErrPermissionRequired = &Error{Code: CodePermissionRequired, Message: "User doesn't have required permissions."}
	ErrObjectNotFound     = &Error{Code: CodeObjectNotFound, Message: "Object doesn't exist."}
	ErrInvalidValues      = &Error{Code: CodeInvalidValues, Message: "Invalid values."}
	ErrInvalidToken       = &Error{Code: CodeInvalidToken, Message: "Given token is invalid."}
	ErrInvalidPasswords   = &Error{Code: CodeInvalidPasswords, Message: "Given passwords are not same."}
	ErrInvalidOldPassword = &Error{Code: CodeInvalidOldPassword, Message: "Given old password is not valid."}
	ErrUnexpected         = &Error{Code: CodeUnexpectedError, Message: "Unexpected error."}
)

// Errores internos de persistencia (no llegan al cliente tal cual).
var (
	ErrNotFound  = errors.New("recurso no encontrado")
	ErrDuplicate = errors.New("recurso duplicado")
)

// LoginRequired el llamante es anónimo.
func LoginRequired() *Error {
	return &Error{Code: CodeLoginRequired, Message: ErrLoginRequired.Message, Data: map[string]any{}}
}

// PermissionRequired el usuario no tiene los permisos indicados.
func PermissionRequired(username, reason string, permissions ...string) *Error {
	msg := fmt.Sprintf("User '%s' does not have required permissions.", username)
	if reason != "" {
		msg = fmt.Sprintf("User '%s' does not have permission to %s.", username, reason)
	}
	return &Error{
		Code:    CodePermissionRequired,
		Message: msg,
		Data:    map[string]any{"permissions": permissions},
	}
}

// ObjectNotFound el objeto no existe o queda fuera del alcance visible del usuario.
func ObjectNotFound(objName, field string, value any) *Error {
	return &Error{
		Code:    CodeObjectNotFound,
		Message: fmt.Sprintf("%s with %s = %v doesn't exist.", objName, field, value),
		Data:    map[string]any{field: value},
	}
}

// InvalidValues agrega los errores por campo.
func InvalidValues(fields []FieldError) *Error {
	return &Error{Code: CodeInvalidValues, Message: ErrInvalidValues.Message, Data: fields}
}

// InvalidToken token expirado o de otro usuario.
func InvalidToken() *Error {
	return &Error{Code: CodeInvalidToken, Message: ErrInvalidToken.Message, Data: map[string]any{}}
}

// InvalidPasswords la contraseña y su confirmación no coinciden.
func InvalidPasswords() *Error {
	return &Error{Code: CodeInvalidPasswords, Message: ErrInvalidPasswords.Message, Data: map[string]any{}}
}

// InvalidOldPassword la contraseña actual no coincide.
func InvalidOldPassword() *Error {
	return &Error{Code: CodeInvalidOldPassword, Message: ErrInvalidOldPassword.Message, Data: map[string]any{}}
}

// Unexpected envuelve un error no clasificado con el contexto de la operación.
func Unexpected(method string, input any, asUser string, cause error) *Error {
	return &Error{
		Code:    CodeUnexpectedError,
		Message: fmt.Sprintf("Unexpected error: %v", cause),
		Data: map[string]any{
			"method":     method,
			"input_data": input,
			"as_user":    asUser,
		},
		Err: cause,
	}
}

// FieldMessage construye el mensaje por código de campo.
func FieldMessage(code ErrorCode, objName, field string, value any, param string) string {
	switch code {
	case CodeBlank:
		return fmt.Sprintf("%s can't be blank.", field)
	case CodeNull:
		return fmt.Sprintf("%s can't be null.", field)
	case CodeMaxLength:
		return fmt.Sprintf("Invalid max length '%s' for field '%s'.", param, field)
	case CodeMinLength:
		return fmt.Sprintf("Invalid min length '%s' for field '%s'.", param, field)
	case CodeChoice:
		return fmt.Sprintf("Invalid choice '%v' for field '%s'.", value, field)
	case CodeUnique:
		return fmt.Sprintf("%s with this '%s' already exist.", objName, field)
	case CodeCompanyDoesNotExist:
		return "One or more of the companies doesn't exist."
	case CodeUserDoesNotExist:
		return "One or more of the users doesn't exist."
	case CodePasswordTooShort:
		return fmt.Sprintf("Password is too short min length is: %s.", param)
	case CodePasswordTooCommon:
		return "Password is too common."
	case CodePasswordEntirelyNumeric:
		return "Password is entirely numeric."
	default:
		return fmt.Sprintf("Invalid value '%v' for field '%s'.", value, field)
	}
}

// NewFieldError atajo para construir un FieldError con su mensaje.
func NewFieldError(objName, field string, code ErrorCode, value any, param string) FieldError {
	return FieldError{
		Field:   field,
		Message: FieldMessage(code, objName, field, value, param),
		Code:    code,
		Value:   value,
	}
}

// AsError extrae el *Error de dominio si existe en la cadena.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Expose deja pasar los errores de dominio y envuelve cualquier otro como unexpected_error.
func Expose(err error, method string, input any, asUser string) error {
	if err == nil {
		return nil
	}
	if _, ok := AsError(err); ok {
		return err
	}
	return Unexpected(method, input, asUser, err)
}
