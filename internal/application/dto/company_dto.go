package dto

import "time"

// CreateCompanyRequest entrada para crear una empresa.
type CreateCompanyRequest struct {
	Name                    string   `json:"name"`
	Description             string   `json:"description"`
	IdentificationNumber    string   `json:"company_identification_number"`
	TaxIdentificationNumber string   `json:"tax_identification_number"`
	Address1                string   `json:"address_1"`
	Address2                string   `json:"address_2"`
	City                    string   `json:"city"`
	ZipCode                 string   `json:"zip_code"`
	Users                   []string `json:"users"`
}

// UpdateCompanyRequest entrada para actualizar una empresa (campos opcionales).
// Users presente reemplaza la membresía completa.
type UpdateCompanyRequest struct {
	Name                    *string  `json:"name"`
	Description             *string  `json:"description"`
	IdentificationNumber    *string  `json:"company_identification_number"`
	TaxIdentificationNumber *string  `json:"tax_identification_number"`
	Address1                *string  `json:"address_1"`
	Address2                *string  `json:"address_2"`
	City                    *string  `json:"city"`
	ZipCode                 *string  `json:"zip_code"`
	Users                   []string `json:"users"`
}

// CompanyListRequest filtros del listado de empresas.
type CompanyListRequest struct {
	PageRequest
	Name                    string `query:"name"`
	IdentificationNumber    string `query:"company_identification_number"`
	TaxIdentificationNumber string `query:"tax_identification_number"`
}

// CompanyResponse salida de una empresa.
type CompanyResponse struct {
	ID                      string    `json:"id"`
	Name                    string    `json:"name"`
	Description             string    `json:"description"`
	IdentificationNumber    string    `json:"company_identification_number"`
	TaxIdentificationNumber string    `json:"tax_identification_number"`
	Address1                string    `json:"address_1"`
	Address2                string    `json:"address_2"`
	City                    string    `json:"city"`
	ZipCode                 string    `json:"zip_code"`
	Users                   []string  `json:"users"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// CompanyListResponse lista paginada de empresas.
type CompanyListResponse struct {
	Items []CompanyResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
