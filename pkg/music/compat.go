package music

// Compatibility scores returned by [Compatibility].
const (
	ScoreSameKey      = 1.0
	ScoreRelative     = 0.9
	ScoreFifth        = 0.8
	ScoreFifthAcross  = 0.7
	ScoreFourthAcross = 0.7
	ScoreNone         = 0.0
)

// Compatibility scores how well a mix from key a into key b works.
// Rules are checked in order and the first match wins:
//
//   - same key: 1.0
//   - relative major/minor (same number, other letter): 0.9
//   - a perfect fifth up or down, same letter: 0.8
//   - a perfect fifth up or down into the other letter: 0.7
//   - a perfect fourth up or down into the other letter: 0.7
//
// Everything else, including unknown keys, scores 0.
func Compatibility(a, b Key) float64 {
	if !a.Valid() || !b.Valid() {
		return ScoreNone
	}
	if a == b {
		return ScoreSameKey
	}

	sameLetter := a.Letter == b.Letter
	if !sameLetter && a.Number == b.Number {
		return ScoreRelative
	}

	up, down := wheelDistance(a.Number, b.Number), wheelDistance(b.Number, a.Number)
	switch {
	case (up == 7 || down == 7) && sameLetter:
		return ScoreFifth
	case (up == 7 || down == 7) && !sameLetter:
		return ScoreFifthAcross
	case (up == 5 || down == 5) && !sameLetter:
		return ScoreFourthAcross
	}
	return ScoreNone
}

// wheelDistance returns (a - b) mod 12 in the range [0, 12).
func wheelDistance(a, b int) int {
	return ((a-b)%12 + 12) % 12
}
