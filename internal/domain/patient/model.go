package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table. MRN is the hospital-wide medical
// record number assigned at first registration.
type Patient struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	MRN               string     `db:"mrn" json:"mrn"`
	NameFamily        string     `db:"name_family" json:"name_family"`
	NameGiven         string     `db:"name_given" json:"name_given"`
	Gender            *string    `db:"gender" json:"gender,omitempty"`
	BirthDate         *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	AddressLine       *string    `db:"address_line" json:"address_line,omitempty"`
	AddressCity       *string    `db:"address_city" json:"address_city,omitempty"`
	AddressState      *string    `db:"address_state" json:"address_state,omitempty"`
	AddressPostalCode *string    `db:"address_postal_code" json:"address_postal_code,omitempty"`
	TelecomPhone      *string    `db:"telecom_phone" json:"telecom_phone,omitempty"`
	TelecomEmail      *string    `db:"telecom_email" json:"telecom_email,omitempty"`
	Active            bool       `db:"active" json:"active"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName joins given and family names for display surfaces like the
// discharge summary.
func (p *Patient) FullName() string {
	if p.NameGiven == "" {
		return p.NameFamily
	}
	if p.NameFamily == "" {
		return p.NameGiven
	}
	return p.NameGiven + " " + p.NameFamily
}
