package service

import (
	"lifeline/pkg/apperr"
	"lifeline/pkg/models"
	"regexp"
	"strings"
)

var (
	nameRegex  = regexp.MustCompile(`^[A-Za-z\s]+$`)
	phoneRegex = regexp.MustCompile(`^[0-9]{10}$`)
)

const (
	FieldPatientName   = "patientName"
	FieldContactNumber = "contactNumber"
	FieldEmergencyType = "emergencyType"
)

// Validate checks the booking form in a fixed order and reports the first
// failing field. It never touches the network or the location provider.
func Validate(form models.BookingForm) error {
	name := strings.TrimSpace(form.PatientName)
	if name == "" || !nameRegex.MatchString(name) {
		return &apperr.ValidationError{Field: FieldPatientName, Message: "Please enter a valid name (alphabets only)."}
	}

	if !phoneRegex.MatchString(strings.TrimSpace(form.ContactNumber)) {
		return &apperr.ValidationError{Field: FieldContactNumber, Message: "Please enter a valid 10-digit contact number."}
	}

	if strings.TrimSpace(string(form.EmergencyType)) == "" {
		return &apperr.ValidationError{Field: FieldEmergencyType, Message: "Please select an emergency type."}
	}

	return nil
}
