// Package idgen centralizes node and client identifier creation so tests can
// inject a deterministic generator while production code gets collision
// resistant random IDs.
package idgen

import "github.com/google/uuid"

// Generator produces identifiers for newly created nodes, clients, and
// collaboration rooms. A nil Generator is not usable; use New, or a
// *Sequential in tests.
type Generator interface {
	NewID() string
}

// randomGenerator generates uuid v4 strings, giving 122 bits of randomness
// per id — comfortably above the 96-bit collision-resistance floor.
type randomGenerator struct{}

// New returns the production identifier generator.
func New() Generator {
	return randomGenerator{}
}

func (randomGenerator) NewID() string {
	return uuid.NewString()
}

// Sequential is a deterministic generator for tests: it returns ids of the
// form "<prefix><n>" in increasing order, starting at 0.
type Sequential struct {
	Prefix string
	next   int
}

// NewID returns the next sequential identifier.
func (s *Sequential) NewID() string {
	id := s.Prefix + itoa(s.next)
	s.next++
	return id
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
