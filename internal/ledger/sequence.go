package ledger

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultPrefix is the identifier prefix used when none is configured.
const DefaultPrefix = "DEC"

// Sequence allocates unique, monotonically increasing, human-readable
// identifiers of the form PREFIX-NNN. It is owned by a Store instance;
// there is deliberately no process-wide counter, so independent ledgers
// (and tests) never collide.
//
// Sequence is not safe for concurrent use on its own; the owning Store
// serializes access.
type Sequence struct {
	prefix string
	next   int
}

// NewSequence creates a sequence starting at 1.
func NewSequence(prefix string) *Sequence {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Sequence{prefix: prefix, next: 1}
}

// Next allocates the next identifier.
func (s *Sequence) Next() string {
	id := fmt.Sprintf("%s-%03d", s.prefix, s.next)
	s.next++
	return id
}

// Reset returns the sequence to its initial value.
func (s *Sequence) Reset() {
	s.next = 1
}

// Resume sets the sequence to one past the highest numeric suffix among the
// given identifiers. Malformed or non-numeric suffixes are ignored; if none
// parse, the sequence resets to 1.
func (s *Sequence) Resume(ids []string) {
	s.next = 1
	for _, id := range ids {
		if n, ok := numericSuffix(id); ok && n+1 > s.next {
			s.next = n + 1
		}
	}
}

// numericSuffix extracts the numeric portion after the last '-'.
func numericSuffix(id string) (int, bool) {
	i := strings.LastIndex(id, "-")
	if i < 0 || i == len(id)-1 {
		return 0, false
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
