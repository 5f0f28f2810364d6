package pharmacy

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Dispense maps to the medication_dispenses table. Cost is stored at dispense
// time so later rate changes never rewrite history.
type Dispense struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	VisitID        uuid.UUID       `db:"visit_id" json:"visit_id"`
	MedicationName string          `db:"medication_name" json:"medication_name"`
	BatchNumber    *string         `db:"batch_number" json:"batch_number,omitempty"`
	Quantity       decimal.Decimal `db:"quantity" json:"quantity"`
	Rate           decimal.Decimal `db:"rate" json:"rate"`
	Cost           decimal.Decimal `db:"cost" json:"cost"`
	Status         string          `db:"status" json:"status"`
	DispensedAt    time.Time       `db:"dispensed_at" json:"dispensed_at"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}
