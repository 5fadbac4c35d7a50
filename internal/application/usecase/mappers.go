package usecase

import (
	"github.com/jhoicas/evidenta-api/internal/application/dto"
	"github.com/jhoicas/evidenta-api/internal/domain/access"
	"github.com/jhoicas/evidenta-api/internal/domain/entity"
)

// ToUserResponse convierte la entidad a su salida pública.
func ToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	out := &dto.UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Title:       u.Title,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Role:        string(u.RoleName()),
		PhoneNumber: u.PhoneNumber,
		IsActive:    u.IsActive,
		Companies:   append([]string{}, u.CompanyIDs...),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
	if u.Gender != nil {
		g := int(*u.Gender)
		out.Gender = &g
	}
	if u.Birthday != nil {
		b := u.Birthday.Format(dateLayout)
		out.Birthday = &b
	}
	return out
}

// ToMeResponse como ToUserResponse pero con los permisos efectivos.
func ToMeResponse(u *entity.User) *dto.UserResponse {
	out := ToUserResponse(u)
	if out == nil {
		return nil
	}
	for _, p := range access.EffectivePermissions(u).Sorted() {
		out.Permissions = append(out.Permissions, string(p))
	}
	return out
}

func toCompanyResponse(c *entity.Company) *dto.CompanyResponse {
	if c == nil {
		return nil
	}
	return &dto.CompanyResponse{
		ID:                      c.ID,
		Name:                    c.Name,
		Description:             c.Description,
		IdentificationNumber:    c.IdentificationNumber,
		TaxIdentificationNumber: c.TaxIdentificationNumber,
		Address1:                c.Address1,
		Address2:                c.Address2,
		City:                    c.City,
		ZipCode:                 c.ZipCode,
		Users:                   append([]string{}, c.UserIDs...),
		CreatedAt:               c.CreatedAt,
		UpdatedAt:               c.UpdatedAt,
	}
}

func toRoleResponse(r *entity.Role) dto.RoleResponse {
	perms := r.Permissions.Sorted()
	names := make([]string, len(perms))
	for i, p := range perms {
		names[i] = string(p)
	}
	return dto.RoleResponse{ID: r.ID, Name: string(r.Name), Permissions: names}
}
