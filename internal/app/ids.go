package app

import (
	"crypto/rand"

	"github.com/google/uuid"
)

func newID() string {
	return uuid.NewString()
}

// codeAlphabet omits 0/O, 1/I/L and U to keep references unambiguous when
// read aloud or typed from a printed ticket.
const codeAlphabet = "ABCDEFGHJKMNPQRSTVWXYZ23456789"

// newBookingCode returns a short human-readable reference like PK-7XK2M9QD.
// Uniqueness is enforced by the database; collisions are retried by the
// caller.
func newBookingCode() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "PK-" + uuid.NewString()[:8]
	}
	out := make([]byte, 0, 11)
	out = append(out, 'P', 'K', '-')
	for _, c := range b {
		out = append(out, codeAlphabet[int(c)%len(codeAlphabet)])
	}
	return string(out)
}
