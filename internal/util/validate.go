package util

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"nathanbeddoewebdev/tsm/internal/domain"

	"github.com/go-playground/validator/v10"
)

// maxServerNameLen matches the description limit of the servers table.
const maxServerNameLen = 255

// ValidateServerName checks a server's display name: it must contain
// something other than whitespace, fit in 255 characters and hold no
// control characters, which would break table output.
func ValidateServerName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("server name must not be blank")
	}
	if n := utf8.RuneCountInString(name); n > maxServerNameLen {
		return fmt.Errorf("server name must be at most %d characters, got %d", maxServerNameLen, n)
	}
	if i := strings.IndexFunc(name, unicode.IsControl); i >= 0 {
		return fmt.Errorf("server name contains a control character at position %d", i)
	}
	return nil
}

// ValidateHTTPURL checks that raw is an absolute http or https URL with a host.
func ValidateHTTPURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL %q must start with http:// or https://", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("URL %q has no host", raw)
	}
	return nil
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonName)
		_ = v.RegisterValidation("servername", func(fl validator.FieldLevel) bool {
			return ValidateServerName(fl.Field().String()) == nil
		})
		_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
			return ValidateHTTPURL(fl.Field().String()) == nil
		})
		validate = v
	})
	return validate
}

// jsonName reports fields by their wire name so errors match what the
// user typed into a form or flag.
func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return strings.ToLower(f.Name)
	}
	return name
}

// ValidateStruct runs the struct's validate tags and returns the first
// failure as a *domain.ValidationError.
func ValidateStruct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &domain.ValidationError{Message: err.Error()}
	}
	fe := verrs[0]
	return &domain.ValidationError{Field: fieldName(fe), Message: describe(fe)}
}

// ValidateCredentials checks a login form before it is sent.
func ValidateCredentials(c domain.Credentials) error {
	c.Email = strings.TrimSpace(c.Email)
	return ValidateStruct(c)
}

// ValidateCreateServer checks the options for a new server.
func ValidateCreateServer(opts domain.CreateServerOpts) error {
	opts.Name = strings.TrimSpace(opts.Name)
	if err := ValidateStruct(opts); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) && ve.Field == "server_name" && opts.Name != "" {
			if nameErr := ValidateServerName(opts.Name); nameErr != nil {
				return &domain.ValidationError{Field: ve.Field, Message: nameErr.Error()}
			}
		}
		return err
	}
	return nil
}

// ValidateWebsites checks the URLs submitted for monitoring.
func ValidateWebsites(opts domain.AddWebsitesOpts) error {
	return ValidateStruct(opts)
}

func fieldName(fe validator.FieldError) string {
	// Namespace is "Type.field[0]"; drop the type prefix.
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "servername":
		return "must be a valid server name"
	case "httpurl":
		return fmt.Sprintf("%q is not an http(s) URL", fe.Value())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
