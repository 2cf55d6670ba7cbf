package utils

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

func IsValidEmail(email string) bool {
	// Basic email validation regex pattern
	pattern := `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	regex := regexp.MustCompile(pattern)
	return regex.MatchString(email)
}

func ProcessValidationErrors(err error) map[string]string {

	validationErrors := err.(validator.ValidationErrors)

	errorResponse := make(map[string]string)
	for _, fieldError := range validationErrors {
		errorResponse[fieldError.Field()] = fieldError.Tag()
	}
	return errorResponse
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func DereferencePtr[T any](ptr *T, defaults ...T) T {
	if ptr != nil {
		return *ptr
	}
	if len(defaults) > 0 {
		return defaults[0]
	}
	var zero T
	return zero
}

// TitleCaseField converts a snake_case field name into the
// human-readable form used in reconciliation difference lists
// ("total_igst_amount" -> "Total Igst Amount").
func TitleCaseField(field string) string {
	parts := strings.Split(field, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

const (
	govDateLayout      = "02-01-2006"
	internalDateLayout = "2006-01-02"
)

// ParseGovDate parses the DD-MM-YYYY dates used across government
// return JSON into the internal YYYY-MM-DD form.
func ParseGovDate(value string) (string, error) {
	t, err := time.Parse(govDateLayout, strings.TrimSpace(value))
	if err != nil {
		return "", err
	}
	return t.Format(internalDateLayout), nil
}

// FormatGovDate is the inverse of ParseGovDate.
func FormatGovDate(value string) (string, error) {
	t, err := time.Parse(internalDateLayout, strings.TrimSpace(value))
	if err != nil {
		return "", err
	}
	return t.Format(govDateLayout), nil
}

// ParseReturnPeriod parses the MMYYYY period tag of a return into the
// first day of that month (UTC).
func ParseReturnPeriod(period string) (time.Time, error) {
	return time.Parse("012006", strings.TrimSpace(period))
}
