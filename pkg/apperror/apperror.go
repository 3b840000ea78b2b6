// Package apperror carries request-scoped failure kinds from the application
// layer to the HTTP boundary, where each kind maps to one status code.
package apperror

import (
	"errors"
	"net/http"
	"strings"
)

// Kind classifies an application failure
type Kind int

const (
	KindUnknown Kind = iota
	KindPostalCodeNotFound
	KindCityOutOfServiceRange
	KindCityNotFound
	KindInvalidFieldKeys
	KindInvalidFieldValue
	KindIdentityNotResolved
	KindUnauthorized
	KindEmailTaken
)

var kindNames = map[Kind]string{
	KindUnknown:               "unknown",
	KindPostalCodeNotFound:    "postal_code_not_found",
	KindCityOutOfServiceRange: "city_out_of_service_range",
	KindCityNotFound:          "city_not_found",
	KindInvalidFieldKeys:      "invalid_field_keys",
	KindInvalidFieldValue:     "invalid_field_value",
	KindIdentityNotResolved:   "user_not_found",
	KindUnauthorized:          "unauthorized",
	KindEmailTaken:            "email_taken",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[KindUnknown]
}

// Status returns the HTTP status reported for the kind
func (k Kind) Status() int {
	switch k {
	case KindPostalCodeNotFound, KindCityNotFound, KindIdentityNotResolved:
		return http.StatusNotFound
	case KindCityOutOfServiceRange:
		return http.StatusUnprocessableEntity
	case KindInvalidFieldKeys, KindInvalidFieldValue:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindEmailTaken:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a failure tagged with a Kind. Details is optional payload for the
// client (e.g. offending field names).
type Error struct {
	Kind    Kind
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status is shorthand for e.Kind.Status()
func (e *Error) Status() int { return e.Kind.Status() }

// New returns an Error of the given kind
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an Error of the given kind wrapping err
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// As returns the first *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Constructors for the domain taxonomy.

func PostalCodeNotFound(cep string) *Error {
	return &Error{Kind: KindPostalCodeNotFound, Message: "postal code not found", Details: map[string]string{"cep": cep}}
}

func CityOutOfServiceRange(city string) *Error {
	return &Error{Kind: KindCityOutOfServiceRange, Message: "city is outside the service area", Details: map[string]string{"city": city}}
}

func CityNotFound(city, uf string) *Error {
	return &Error{Kind: KindCityNotFound, Message: "city not found", Details: map[string]string{"city": city, "state": uf}}
}

func InvalidFieldKeys(keys []string, allowed []string) *Error {
	return &Error{
		Kind:    KindInvalidFieldKeys,
		Message: "invalid keys: " + strings.Join(keys, ", "),
		Details: map[string]any{"invalid_keys": keys, "allowed_keys": allowed},
	}
}

func InvalidFieldValue(field, reason string) *Error {
	return &Error{Kind: KindInvalidFieldValue, Message: "invalid value for " + field, Details: map[string]string{field: reason}}
}

var (
	ErrUserNotFound = New(KindIdentityNotResolved, "user not found")
	ErrUnauthorized = New(KindUnauthorized, "unauthorized")
	ErrEmailTaken   = New(KindEmailTaken, "email already registered")
)
