package music

import (
	"fmt"
	"strconv"
	"strings"
)

// Mode values as reported by the Spotify audio features endpoint.
const (
	ModeMinor = 0
	ModeMajor = 1
)

// Camelot letters.
const (
	LetterMinor byte = 'A'
	LetterMajor byte = 'B'
)

// Key is a position on the Camelot wheel.
// The zero value represents an unknown key.
type Key struct {
	Number int  `json:"number"` // 1-12
	Letter byte `json:"letter"` // 'A' (minor) or 'B' (major)
}

// camelotTable maps (pitch class, mode) to a Camelot key.
// Indexed by pitch class (0 = C ... 11 = B), then by mode.
//
// D#/Eb major maps to 3B rather than 5B; existing setlists depend on it.
var camelotTable = [12][2]Key{
	{{5, 'A'}, {8, 'B'}},
	{{12, 'A'}, {3, 'B'}},
	{{7, 'A'}, {10, 'B'}},
	{{2, 'A'}, {3, 'B'}},
	{{9, 'A'}, {12, 'B'}},
	{{4, 'A'}, {7, 'B'}},
	{{11, 'A'}, {2, 'B'}},
	{{6, 'A'}, {9, 'B'}},
	{{1, 'A'}, {4, 'B'}},
	{{8, 'A'}, {11, 'B'}},
	{{3, 'A'}, {6, 'B'}},
	{{10, 'A'}, {1, 'B'}},
}

// CamelotKey converts a pitch class (0-11) and mode (0 minor, 1 major) to
// its Camelot key. It returns false for unknown input, including the -1
// pitch class Spotify reports when no key was detected.
func CamelotKey(pitchClass, mode int) (Key, bool) {
	if pitchClass < 0 || pitchClass > 11 || (mode != ModeMinor && mode != ModeMajor) {
		return Key{}, false
	}
	return camelotTable[pitchClass][mode], true
}

// ParseKey parses Camelot notation such as "8A" or "12b".
func ParseKey(s string) (Key, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return Key{}, fmt.Errorf("invalid camelot key %q", s)
	}
	letter := s[len(s)-1]
	if letter != LetterMinor && letter != LetterMajor {
		return Key{}, fmt.Errorf("invalid camelot key %q: letter must be A or B", s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 1 || n > 12 {
		return Key{}, fmt.Errorf("invalid camelot key %q: number must be 1-12", s)
	}
	return Key{Number: n, Letter: letter}, nil
}

// MustParseKey is like [ParseKey] but panics on invalid input.
// Intended for tests and constant tables.
func MustParseKey(s string) Key {
	k, err := ParseKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

// Valid reports whether k is a known Camelot position.
func (k Key) Valid() bool {
	return k.Number >= 1 && k.Number <= 12 && (k.Letter == LetterMinor || k.Letter == LetterMajor)
}

// Minor reports whether k is a minor key.
func (k Key) Minor() bool { return k.Letter == LetterMinor }

// String returns the Camelot notation, or "?" for an unknown key.
func (k Key) String() string {
	if !k.Valid() {
		return "?"
	}
	return strconv.Itoa(k.Number) + string(k.Letter)
}

// MarshalText encodes the key in Camelot notation.
func (k Key) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return []byte{}, nil
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes Camelot notation. An empty string yields the zero Key.
func (k *Key) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*k = Key{}
		return nil
	}
	parsed, err := ParseKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
