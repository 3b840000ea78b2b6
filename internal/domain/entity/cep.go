package entity

import "strings"

// NormalizeCep strips separators from a postal code and reports whether what
// remains is exactly 8 digits.
func NormalizeCep(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '.' || r == ' ':
		default:
			return "", false
		}
	}
	cep := b.String()
	return cep, len(cep) == 8
}
