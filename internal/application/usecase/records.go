package usecase

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/evidenta-api/internal/application/dto"
	"github.com/jhoicas/evidenta-api/internal/domain"
	"github.com/jhoicas/evidenta-api/internal/domain/entity"
	"github.com/jhoicas/evidenta-api/internal/domain/repository"
)

const dateLayout = "2006-01-02"

// userRecord forma editable y validable de un usuario. Es comparable con ==,
// lo que permite detectar parches que no cambian nada.
type userRecord struct {
	Username    string `json:"username" validate:"required,max=150,username"`
	Title       string `json:"title" validate:"max=10"`
	FirstName   string `json:"first_name" validate:"required,max=150"`
	LastName    string `json:"last_name" validate:"required,max=150"`
	Email       string `json:"email" validate:"required,max=254,email"`
	Role        string `json:"role" validate:"required,oneof=guest client accountant supervisor admin"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=16,phone"`
	Gender      int    `json:"gender" validate:"omitempty,oneof=1 2"`
	Birthday    string `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
}

func userRecordFromRequest(in dto.CreateUserRequest) userRecord {
	r := userRecord{
		Username:    in.Username,
		Title:       in.Title,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		Role:        in.Role,
		PhoneNumber: in.PhoneNumber,
		Birthday:    in.Birthday,
	}
	if in.Gender != nil {
		r.Gender = *in.Gender
	}
	return r
}

func userRecordFromEntity(u *entity.User) userRecord {
	r := userRecord{
		Username:    u.Username,
		Title:       u.Title,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Role:        string(u.RoleName()),
		PhoneNumber: u.PhoneNumber,
	}
	if u.Gender != nil {
		r.Gender = int(*u.Gender)
	}
	if u.Birthday != nil {
		r.Birthday = u.Birthday.Format(dateLayout)
	}
	return r
}

// patch aplica solo los campos presentes.
func (r *userRecord) patch(in dto.UpdateUserRequest) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&r.Username, in.Username)
	set(&r.Title, in.Title)
	set(&r.FirstName, in.FirstName)
	set(&r.LastName, in.LastName)
	set(&r.Email, in.Email)
	set(&r.Role, in.Role)
	set(&r.PhoneNumber, in.PhoneNumber)
	set(&r.Birthday, in.Birthday)
	if in.Gender != nil {
		r.Gender = *in.Gender
	}
}

// normalize nombres capitalizados y email en minúsculas.
func (r *userRecord) normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.FirstName = capitalize(r.FirstName)
	r.LastName = capitalize(r.LastName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
}

// applyTo copia el registro validado sobre la entidad. El rol se resuelve aparte.
func (r userRecord) applyTo(u *entity.User) {
	u.Username = r.Username
	u.Title = r.Title
	u.FirstName = r.FirstName
	u.LastName = r.LastName
	u.Email = r.Email
	u.PhoneNumber = r.PhoneNumber
	u.Gender = nil
	if r.Gender != 0 {
		g := entity.Gender(r.Gender)
		u.Gender = &g
	}
	u.Birthday = nil
	if r.Birthday != "" {
		if t, err := time.Parse(dateLayout, r.Birthday); err == nil {
			u.Birthday = &t
		}
	}
}

// capitalize primera letra en mayúscula y el resto en minúscula ("van der berg" → "Van der berg").
func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	_, size := utf8.DecodeRuneInString(s)
	// cases.Caser guarda estado: uno por llamada.
	return cases.Upper(language.Und).String(s[:size]) + cases.Lower(language.Und).String(s[size:])
}

// companyRecord forma editable y validable de una empresa.
type companyRecord struct {
	Name                    string `json:"name" validate:"required,max=50"`
	Description             string `json:"description" validate:"max=200"`
	IdentificationNumber    string `json:"company_identification_number" validate:"required,len=8,company_idn"`
	TaxIdentificationNumber string `json:"tax_identification_number" validate:"max=16"`
	Address1                string `json:"address_1" validate:"required,max=128"`
	Address2                string `json:"address_2" validate:"max=128"`
	City                    string `json:"city" validate:"required,max=64"`
	ZipCode                 string `json:"zip_code" validate:"required,len=5,numeric"`
}

func companyRecordFromRequest(in dto.CreateCompanyRequest) companyRecord {
	return companyRecord{
		Name:                    in.Name,
		Description:             in.Description,
		IdentificationNumber:    in.IdentificationNumber,
		TaxIdentificationNumber: in.TaxIdentificationNumber,
		Address1:                in.Address1,
		Address2:                in.Address2,
		City:                    in.City,
		ZipCode:                 in.ZipCode,
	}
}

func companyRecordFromEntity(c *entity.Company) companyRecord {
	return companyRecord{
		Name:                    c.Name,
		Description:             c.Description,
		IdentificationNumber:    c.IdentificationNumber,
		TaxIdentificationNumber: c.TaxIdentificationNumber,
		Address1:                c.Address1,
		Address2:                c.Address2,
		City:                    c.City,
		ZipCode:                 c.ZipCode,
	}
}

func (r *companyRecord) patch(in dto.UpdateCompanyRequest) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&r.Name, in.Name)
	set(&r.Description, in.Description)
	set(&r.IdentificationNumber, in.IdentificationNumber)
	set(&r.TaxIdentificationNumber, in.TaxIdentificationNumber)
	set(&r.Address1, in.Address1)
	set(&r.Address2, in.Address2)
	set(&r.City, in.City)
	set(&r.ZipCode, in.ZipCode)
}

func (r *companyRecord) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.IdentificationNumber = strings.TrimSpace(r.IdentificationNumber)
	r.TaxIdentificationNumber = strings.ToUpper(strings.TrimSpace(r.TaxIdentificationNumber))
	r.ZipCode = strings.ReplaceAll(r.ZipCode, " ", "")
}

func (r companyRecord) applyTo(c *entity.Company) {
	c.Name = r.Name
	c.Description = r.Description
	c.IdentificationNumber = r.IdentificationNumber
	c.TaxIdentificationNumber = r.TaxIdentificationNumber
	c.Address1 = r.Address1
	c.Address2 = r.Address2
	c.City = r.City
	c.ZipCode = r.ZipCode
}

// checkUserUnique comprueba username y email excluyendo al propio usuario.
func checkUserUnique(ctx context.Context, users repository.UserRepository, r userRecord, excludeID string) ([]domain.FieldError, error) {
	var out []domain.FieldError
	taken, err := users.ExistsByUsername(ctx, r.Username, excludeID)
	if err != nil {
		return nil, err
	}
	if taken {
		out = append(out, domain.NewFieldError("User", "username", domain.CodeUnique, r.Username, ""))
	}
	taken, err = users.ExistsByEmail(ctx, r.Email, excludeID)
	if err != nil {
		return nil, err
	}
	if taken {
		out = append(out, domain.NewFieldError("User", "email", domain.CodeUnique, r.Email, ""))
	}
	return out, nil
}

func checkCompanyUnique(ctx context.Context, companies repository.CompanyRepository, r companyRecord, excludeID string) ([]domain.FieldError, error) {
	var out []domain.FieldError
	taken, err := companies.ExistsByIdentificationNumber(ctx, r.IdentificationNumber, excludeID)
	if err != nil {
		return nil, err
	}
	if taken {
		out = append(out, domain.NewFieldError("Company", "company_identification_number", domain.CodeUnique, r.IdentificationNumber, ""))
	}
	taken, err = companies.ExistsByTaxIdentificationNumber(ctx, r.TaxIdentificationNumber, excludeID)
	if err != nil {
		return nil, err
	}
	if taken {
		out = append(out, domain.NewFieldError("Company", "tax_identification_number", domain.CodeUnique, r.TaxIdentificationNumber, ""))
	}
	return out, nil
}

// uniqueFromStorage traduce una violación de unicidad detectada por el almacenamiento
// (carrera entre la comprobación y la escritura) a invalid_values.
func uniqueFromStorage(objName string, err error) error {
	var uv *repository.UniqueViolation
	if errors.As(err, &uv) {
		return domain.InvalidValues([]domain.FieldError{domain.NewFieldError(objName, uv.Field, domain.CodeUnique, nil, "")})
	}
	return err
}

// sameSet compara dos listas de ids ignorando orden y duplicados.
func sameSet(a, b []string) bool {
	as := make(map[string]struct{}, len(a))
	for _, v := range a {
		as[v] = struct{}{}
	}
	bs := make(map[string]struct{}, len(b))
	for _, v := range b {
		bs[v] = struct{}{}
	}
	if len(as) != len(bs) {
		return false
	}
	for v := range as {
		if _, ok := bs[v]; !ok {
			return false
		}
	}
	return true
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
