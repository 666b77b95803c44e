package template

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var schemaValidate = validator.New()

// ValidateSchema checks a FileSchema for structural errors.
// Returns a slice of errors (empty if valid).
func ValidateSchema(schema *FileSchema) []error {
	var errs []error

	if err := schemaValidate.Struct(schema); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Errorf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, err)
		}
	}

	seen := map[string]bool{}
	for i, tc := range schema.Templates {
		key := string(tc.Type)
		if key != "" && seen[key] {
			errs = append(errs, fmt.Errorf("templates[%d]: duplicate type %q", i, tc.Type))
		}
		seen[key] = true
	}

	return errs
}
