// Package validation configures go-playground/validator the same way for
// the HTTP layer (gin binding) and the client workflow, so a draft that
// passes the wizard passes the API and vice versa.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// TagName is the struct tag read by gin's binding engine
const TagName = "binding"

const dateLayout = "2006-01-02"

// New returns a validator reading `binding` tags
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName(TagName)
	Configure(v)
	return v
}

// Configure registers field naming and custom rules on v. It is used on
// gin's own engine at server start.
func Configure(v *validator.Validate) {
	v.RegisterTagNameFunc(jsonName)
	// Registration only fails for empty tags or nil funcs
	_ = v.RegisterValidation("pastdate", pastDate)
}

// FieldErrors converts validator errors to messages keyed by JSON field name.
// It returns nil when err is not a validation error.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

// Summary joins field errors into one stable, human-readable line
func Summary(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, fields[k]))
	}
	return strings.Join(parts, ", ")
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "eqfield":
		return fmt.Sprintf("must match %s", lowerFirst(fe.Param()))
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "pastdate":
		return "must not be in the future"
	default:
		return "is invalid"
	}
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

func pastDate(fl validator.FieldLevel) bool {
	d, err := time.Parse(dateLayout, fl.Field().String())
	if err != nil {
		return false
	}
	return !d.After(time.Now())
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// ConfigureEngine applies Configure to a binding engine such as the one
// returned by gin's binding.Validator.Engine()
func ConfigureEngine(engine any) error {
	v, ok := engine.(*validator.Validate)
	if !ok {
		return fmt.Errorf("unsupported validator engine %T", engine)
	}
	Configure(v)
	return nil
}
