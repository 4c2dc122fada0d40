package domain

import (
	dErrors "agrocert/pkg/domain-errors"
)

// GGN is a GlobalGAP Number: exactly 13 numeric digits with a fixed leading
// digit. Construct via ParseGGN at trust boundaries; the registry client
// validates before any network call so malformed input fails fast.
type GGN string

const (
	ggnLength       = 13
	ggnLeadingDigit = '4'
)

func (g GGN) String() string { return string(g) }

// ParseGGN validates the GGN format client-side.
//
// Errors: returns CodeValidation with field-level detail and a localized
// message for any length, digit, or prefix violation.
func ParseGGN(s string) (GGN, error) {
	if len(s) != ggnLength {
		return "", invalidGGN("GGN must be exactly 13 digits", "el GGN debe tener exactamente 13 dígitos")
	}
	if s[0] != ggnLeadingDigit {
		return "", invalidGGN("GGN must start with digit 4", "el GGN debe comenzar con el dígito 4")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return "", invalidGGN("GGN must contain only digits", "el GGN solo puede contener dígitos")
		}
	}
	return GGN(s), nil
}

func invalidGGN(en, es string) error {
	return dErrors.New(dErrors.CodeValidation, en).WithLocalized("es", es).WithField("ggn")
}
