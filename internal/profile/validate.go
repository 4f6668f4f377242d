package profile

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var tzOffsetPattern = regexp.MustCompile(`^[+-](0\d|1[0-4]):[0-5]\d$`)

// Validator is a wrapper around go-playground/validator with the profile
// rules registered.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()

	_ = v.RegisterValidation("tzoffset", func(fl validator.FieldLevel) bool {
		return tzOffsetPattern.MatchString(fl.Field().String())
	})
	v.RegisterStructValidation(profileStructLevel, Profile{})

	return &Validator{validate: v}
}

// Exactly one of the server triple or the storage path is populated, and a
// production profile never points at the embedded store.
func profileStructLevel(sl validator.StructLevel) {
	p := sl.Current().Interface().(Profile)

	if p.Dialect != SQLite {
		required := map[string]string{"Host": p.Host, "Database": p.Database, "Username": p.Username}
		for _, name := range []string{"Host", "Database", "Username"} {
			if required[name] == "" {
				sl.ReportError(required[name], name, name, "required_for_server", string(p.Dialect))
			}
		}
		if p.Port < 1 {
			sl.ReportError(p.Port, "Port", "Port", "required_for_server", string(p.Dialect))
		}
		if p.StoragePath != "" {
			sl.ReportError(p.StoragePath, "StoragePath", "StoragePath", "sqlite_only", "")
		}
		return
	}

	if p.StoragePath == "" {
		sl.ReportError(p.StoragePath, "StoragePath", "StoragePath", "required_for_sqlite", "")
	}
	if p.Host != "" || p.Port != 0 || p.Database != "" || p.Username != "" || p.Password != "" {
		sl.ReportError(p.Host, "Host", "Host", "server_fields_on_sqlite", "")
	}
	if p.Environment == Production {
		sl.ReportError(p.Dialect, "Dialect", "Dialect", "no_sqlite_in_production", "")
	}
}

func (v *Validator) Validate(p Profile) error {
	if err := v.validate.Struct(p); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	var messages []string
	for _, e := range validationErrs {
		if e.Field() == "Password" {
			messages = append(messages, fmt.Sprintf("field '%s' failed validation: %s", e.Namespace(), e.Tag()))
			continue
		}
		messages = append(messages, fmt.Sprintf(
			"field '%s' failed validation: %s (value: '%v')",
			e.Namespace(),
			e.Tag(),
			e.Value(),
		))
	}
	return fmt.Errorf("validation failed:\n  %s", strings.Join(messages, "\n  "))
}

var defaultValidator = NewValidator()

// Validate checks the invariants every resolved profile must hold.
func Validate(p Profile) error {
	return defaultValidator.Validate(p)
}
