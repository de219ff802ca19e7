package reports

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/waterwatch/internal/common"
)

// Status is the review state of a report.
type Status string

const (
	StatusPending   Status = "pending"
	StatusReviewing Status = "reviewing"
	StatusResolved  Status = "resolved"
)

// Statuses lists every valid status in workflow order.
var Statuses = []Status{StatusPending, StatusReviewing, StatusResolved}

// ParseStatus returns the Status named by s.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", ErrUnknownStatus
}

var (
	ErrNotFound      = fmt.Errorf("report %w", common.ErrorNotFound)
	ErrInvalid       = fmt.Errorf("invalid report: %w", common.ErrorValidation)
	ErrUnknownStatus = errors.New("unknown report status")
)

// Submitter identifies the person filing a report.
type Submitter struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Source describes the water source being reported.
type Source struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Location    string `json:"location"`
	Coordinates string `json:"coordinates,omitempty"`
}

// Observations are the user's sensory findings.
type Observations struct {
	Appearance       string `json:"appearance"`
	Smell            string `json:"smell"`
	Taste            string `json:"taste"`
	VisibleParticles string `json:"visible_particles"`
	Flow             string `json:"flow"`
}

// Health holds the optional health concerns.
type Health struct {
	General string `json:"general,omitempty"`
	Skin    string `json:"skin,omitempty"`
	Stomach string `json:"stomach,omitempty"`
}

// Report is a water quality report.
//
// ID, Status and CreatedAt are kept as plain columns; everything else is
// sealed in the row payload.
type Report struct {
	ID        string    `json:"-"`
	Status    Status    `json:"-"`
	CreatedAt time.Time `json:"-"`

	Submitter    Submitter    `json:"submitter"`
	Date         string       `json:"date"`
	Source       Source       `json:"source"`
	Observations Observations `json:"observations"`
	Health       Health       `json:"health"`
	Notes        string       `json:"notes,omitempty"`
	Photos       []string     `json:"photos,omitempty"`
}

// Row is the stored form of a Report.
type Row struct {
	ID        string
	Status    Status
	CreatedAt int64
	Payload   []byte
	Nonce     []byte
}
