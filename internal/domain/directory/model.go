// Package directory reads patient and doctor records owned by the
// registration service.
package directory

import (
	"strings"

	"github.com/google/uuid"
)

// Patient maps to the patient table.
type Patient struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
}

func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Doctor maps to the doctor table. UserID is the login identity that
// receives notifications.
type Doctor struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	FullName    string    `db:"full_name" json:"full_name"`
	Specialty   *string   `db:"specialty" json:"specialty,omitempty"`
	IsAvailable bool      `db:"is_available" json:"is_available"`
}
