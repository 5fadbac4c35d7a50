package entity

import "time"

// Límites de longitud de los campos de Company.
const (
	CompanyNameMaxLength        = 50
	CompanyDescriptionMaxLength = 200
	CompanyTaxIDMaxLength       = 16
	CompanyAddressMaxLength     = 128
	CompanyCityMaxLength        = 64
	CompanyZipCodeLength        = 5
)

// Company representa una empresa cliente (tenant) con sus miembros.
type Company struct {
	ID                      string
	Name                    string
	Description             string
	IdentificationNumber    string // IČO, 8 dígitos con control módulo 11
	TaxIdentificationNumber string // DIČ, único cuando no está vacío
	Address1                string
	Address2                string
	City                    string
	ZipCode                 string
	UserIDs                 []string
	CreatedAt               time.Time
	UpdatedAt               time.Time
}
