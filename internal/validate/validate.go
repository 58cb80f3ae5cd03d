package validate

import (
	"fmt"
	"regexp"
	"strings"
)

var phoneRegexp = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)

// ValidationError reports user input that cannot be acted on.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Errorf builds a ValidationError for the given field.
func Errorf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Required fails when value is blank.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Reason: "is required"}
	}
	return nil
}

// StripSpace removes every whitespace rune from phone.
func StripSpace(phone string) string {
	return strings.Join(strings.Fields(phone), "")
}

// Phone checks a recipient number. Whitespace is ignored, a leading + is allowed.
func Phone(phone string) error {
	if err := Required("phone", phone); err != nil {
		return err
	}
	cleaned := StripSpace(phone)
	if !phoneRegexp.MatchString(cleaned) {
		return Errorf("phone", "invalid number %q: must match ^\\+?[1-9]\\d{0,15}$", phone)
	}
	return nil
}

// Contact validates the fields accepted by the add-contact form.
func Contact(name, phone string) error {
	if err := Required("name", name); err != nil {
		return err
	}
	return Phone(phone)
}
