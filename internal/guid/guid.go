// Package guid generates and validates the 32-character hexadecimal
// identifiers GnuCash uses for every record.
package guid

import "github.com/google/uuid"

// Length is the number of hex characters in a GnuCash GUID.
const Length = 32

// New returns a fresh random GUID in GnuCash form (UUIDv4 without dashes).
func New() string {
	u := uuid.New()
	buf := make([]byte, 0, Length)
	for _, b := range u {
		buf = append(buf, hexDigits[b>>4], hexDigits[b&0xf])
	}
	return string(buf)
}

const hexDigits = "0123456789abcdef"

// Valid reports whether s looks like a GnuCash GUID.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
