package trigger

import (
	"sync"

	"github.com/pkg/errors"
)

// DefaultSequenceCode opens the standalone secret page
const DefaultSequenceCode = "133767"

// Sequence matches the last typed digits against a fixed code
type Sequence struct {
	code string

	mu    sync.Mutex
	typed []byte
}

// NewSequence creates a Sequence for code, which must consist of digits
func NewSequence(code string) (*Sequence, error) {
	if code == "" {
		return nil, errors.New("sequence code must not be empty")
	}
	for i := 0; i < len(code); i++ {
		if !isDigit(code[i]) {
			return nil, errors.Errorf("sequence code '%s' must only contain digits", code)
		}
	}
	return &Sequence{code: code}, nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// Press registers a key press and tells if the last typed digits equal the
// code. Keys other than single digits are ignored.
func (s *Sequence) Press(key string) bool {
	if len(key) != 1 || !isDigit(key[0]) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.typed = append(s.typed, key[0])
	if len(s.typed) > len(s.code) {
		s.typed = s.typed[len(s.typed)-len(s.code):]
	}
	return string(s.typed) == s.code
}
