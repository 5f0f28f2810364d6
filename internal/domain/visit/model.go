package visit

import (
	"time"

	"github.com/google/uuid"
)

// Visit maps to the visits table. Every visit carries two identifiers: the
// internal uuid used by all category join tables, and the human-facing visit
// code (e.g. IH25I22001) that the billing screens work with. The two are
// never interchangeable; category queries must resolve the code first.
type Visit struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	VisitCode    string     `db:"visit_code" json:"visit_code"`
	PatientID    uuid.UUID  `db:"patient_id" json:"patient_id"`
	Status       string     `db:"status" json:"status"`
	VisitType    *string    `db:"visit_type" json:"visit_type,omitempty"`
	WardCode     *string    `db:"ward_code" json:"ward_code,omitempty"`
	BedNumber    *string    `db:"bed_number" json:"bed_number,omitempty"`
	AdmittedAt   time.Time  `db:"admitted_at" json:"admitted_at"`
	DischargedAt *time.Time `db:"discharged_at" json:"discharged_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// AdmissionDays counts whole days from admission to discharge, or to now for
// an open visit. A same-day visit counts as one day.
func (v *Visit) AdmissionDays(now time.Time) int {
	end := now
	if v.DischargedAt != nil {
		end = *v.DischargedAt
	}
	days := int(end.Sub(v.AdmittedAt).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}
