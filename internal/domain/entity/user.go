package entity

import (
	"strings"
	"time"
)

// Gender género opcional del usuario.
type Gender int

const (
	GenderMale   Gender = 1
	GenderFemale Gender = 2
)

// Valid informa si el valor pertenece a las opciones.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Límites de longitud de los campos de User.
const (
	UserUsernameMaxLength = 150
	UserTitleMaxLength    = 10
	UserNameMaxLength     = 150
	UserEmailMaxLength    = 254
	UserPhoneMaxLength    = 16
)

// User representa una identidad del sistema. Pertenece a cero o más Company.
type User struct {
	ID           string
	Username     string
	Title        string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string // vacío = sin contraseña utilizable hasta canjear un token
	Role         *Role  // nil solo de forma transitoria
	PhoneNumber  string
	Gender       *Gender
	Birthday     *time.Time
	IsSuperuser  bool
	IsActive     bool
	CompanyIDs   []string
	Permissions  []Permission // permisos concedidos directamente
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// PasswordChangedAt y TokensRevokedAt invalidan sesiones emitidas antes.
	PasswordChangedAt *time.Time
	TokensRevokedAt   *time.Time
}

// RoleName devuelve el nombre del rol o "" si no tiene.
func (u *User) RoleName() RoleName {
	if u == nil || u.Role == nil {
		return ""
	}
	return u.Role.Name
}

// HasUsablePassword informa si el usuario ya estableció contraseña.
func (u *User) HasUsablePassword() bool {
	return u != nil && u.PasswordHash != ""
}

// FullName nombre para mostrar en notificaciones.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// InCompany informa si el usuario es miembro de la empresa.
func (u *User) InCompany(companyID string) bool {
	for _, id := range u.CompanyIDs {
		if id == companyID {
			return true
		}
	}
	return false
}

// SessionRevoked informa si una sesión emitida en issuedAt ya no vale. iat tiene
// resolución de segundos: el cambio de contraseña se compara truncado y
// TokensRevokedAt se guarda ya como límite exclusivo.
func (u *User) SessionRevoked(issuedAt time.Time) bool {
	if u.PasswordChangedAt != nil && issuedAt.Before(u.PasswordChangedAt.Truncate(time.Second)) {
		return true
	}
	return u.TokensRevokedAt != nil && issuedAt.Before(*u.TokensRevokedAt)
}
