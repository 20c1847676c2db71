package http

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"credential-approval/internal/adapter/middleware"
	"credential-approval/internal/domain/credential"

	"github.com/go-playground/validator/v10"
)

// Reusable error payload
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
	// Status is set when the call changed the request before failing.
	Status    string `json:"status,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

var (
	reHex64  = regexp.MustCompile(`^[a-f0-9]{64}$`)
	reCertID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

type CustomValidator struct{ v *validator.Validate }

func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// request ids and evidence hashes = 64-char lowercase hex
	_ = v.RegisterValidation("hex64", func(fl validator.FieldLevel) bool {
		return reHex64.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("certid", func(fl validator.FieldLevel) bool {
		return reCertID.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("scope", func(fl validator.FieldLevel) bool {
		return credential.ValidCourseID(fl.Field().String())
	})
	_ = v.RegisterValidation("actor", func(fl validator.FieldLevel) bool {
		return middleware.ValidActor(fl.Field().String())
	})
	_ = v.RegisterValidation("uri_scheme", func(fl validator.FieldLevel) bool {
		return credential.ValidURI(fl.Field().String())
	})

	return &CustomValidator{v: v}
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

// ToFieldErrors maps validator.ValidationErrors to readable field messages.
func ToFieldErrors(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		var msg string
		switch e.Tag() {
		case "required":
			msg = "is required"
		case "hex64":
			msg = "must be 64-char lowercase hex"
		case "certid":
			msg = "must be 1-64 letters, digits, '-' or '_'"
		case "scope":
			msg = "must be 3-100 alphanumeric characters, '-' or '_' only inside"
		case "actor":
			msg = "must be 1-64 of letters, digits or _.:@-"
		case "uri_scheme":
			msg = "must be 10-500 characters with https://, ipfs:// or ar:// scheme"
		case "min":
			msg = "must have at least " + e.Param() + " characters or items"
		case "max":
			msg = "must have at most " + e.Param() + " characters or items"
		case "gte":
			msg = "must be greater than or equal to " + e.Param()
		case "lte":
			msg = "must be less than or equal to " + e.Param()
		case "oneof":
			msg = "must be one of: " + e.Param()
		default:
			msg = e.Tag() + " validation failed"
		}
		out = append(out, FieldError{Field: field, Message: msg})
	}
	return out
}
