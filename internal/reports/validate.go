package reports

import (
	"strings"

	"github.com/dmitrijs2005/waterwatch/internal/common"
)

const minPhoneLength = 10

// ValidationError carries a message meant for the user. It matches ErrInvalid.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrInvalid }

type requiredField struct {
	value string
	label string
}

// Validate checks the fields a report must carry before it is submitted.
// Missing fields are reported together, in form order.
func Validate(r *Report) error {
	required := []requiredField{
		{r.Submitter.FullName, "Full Name"},
		{r.Submitter.Email, "Email"},
		{r.Submitter.Phone, "Phone Number"},
		{r.Source.Name, "Water Source Name"},
		{r.Source.Type, "Source Type"},
		{r.Source.Location, "Location"},
		{r.Observations.Appearance, "Water Appearance"},
		{r.Observations.Smell, "Water Smell"},
		{r.Observations.Taste, "Water Taste"},
		{r.Observations.VisibleParticles, "Visible Particles"},
		{r.Observations.Flow, "Water Flow"},
	}

	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.label)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{"Please fill in: " + strings.Join(missing, ", ")}
	}

	if !common.ValidEmail(r.Submitter.Email) {
		return &ValidationError{"Please enter a valid email address"}
	}
	if len(r.Submitter.Phone) < minPhoneLength {
		return &ValidationError{"Please enter a valid phone number (at least 10 digits)"}
	}
	return nil
}
