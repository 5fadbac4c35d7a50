package dto

import "time"

// CreateUserRequest entrada para crear un usuario. No lleva contraseña:
// el usuario la establece con el enlace de invitación.
type CreateUserRequest struct {
	Username    string   `json:"username"`
	Title       string   `json:"title"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	PhoneNumber string   `json:"phone_number"`
	Gender      *int     `json:"gender"`
	Birthday    string   `json:"birthday"` // YYYY-MM-DD
	Companies   []string `json:"companies"`
}

// UpdateUserRequest parche explícito: nil = campo ausente.
// Companies nil = ausente; lista vacía = quitar todas.
type UpdateUserRequest struct {
	Username    *string  `json:"username"`
	Title       *string  `json:"title"`
	FirstName   *string  `json:"first_name"`
	LastName    *string  `json:"last_name"`
	Email       *string  `json:"email"`
	Role        *string  `json:"role"`
	PhoneNumber *string  `json:"phone_number"`
	Gender      *int     `json:"gender"`
	Birthday    *string  `json:"birthday"`
	Companies   []string `json:"companies"`
}

// UserListRequest filtros del listado de usuarios.
type UserListRequest struct {
	PageRequest
	Search  string `query:"search"`
	Role    string `query:"role"`
	OrderBy string `query:"order_by"`
	// Filters <campo>__<lookup> → valor, p. ej. first_name__istartswith=jan.
	Filters map[string]string `query:"-"`
}

// UserResponse salida de un usuario (sin password ni is_superuser).
type UserResponse struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Title       string    `json:"title"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	PhoneNumber string    `json:"phone_number"`
	Gender      *int      `json:"gender"`
	Birthday    *string   `json:"birthday"`
	IsActive    bool      `json:"is_active"`
	Companies   []string  `json:"companies"`
	Permissions []string  `json:"permissions,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserListResponse lista paginada de usuarios.
type UserListResponse struct {
	Items []UserResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}
