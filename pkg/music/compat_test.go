package music

import "testing"

func TestCompatibility(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"8A", "8A", ScoreSameKey},
		{"8A", "8B", ScoreRelative},
		{"8B", "8A", ScoreRelative},
		{"8A", "3A", ScoreFifth},  // (8-3) mod 12 = 5, (3-8) mod 12 = 7
		{"1A", "8A", ScoreFifth},  // (8-1) = 7
		{"12B", "5B", ScoreFifth}, // (12-5) = 7
		{"8A", "1B", ScoreFifthAcross},
		{"8A", "3B", ScoreFourthAcross},
		{"8A", "9A", ScoreNone},
		{"8A", "10B", ScoreNone},
	}

	for _, tt := range tests {
		t.Run(tt.a+"->"+tt.b, func(t *testing.T) {
			got := Compatibility(MustParseKey(tt.a), MustParseKey(tt.b))
			if got != tt.want {
				t.Errorf("Compatibility(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCompatibilityUnknownKey(t *testing.T) {
	if got := Compatibility(Key{}, Key{}); got != 0 {
		t.Errorf("unknown keys should score 0, got %v", got)
	}
	if got := Compatibility(MustParseKey("8A"), Key{}); got != 0 {
		t.Errorf("unknown key should score 0, got %v", got)
	}
}

func TestCompatibilitySymmetric(t *testing.T) {
	for a := 1; a <= 12; a++ {
		for b := 1; b <= 12; b++ {
			for _, la := range []byte{LetterMinor, LetterMajor} {
				for _, lb := range []byte{LetterMinor, LetterMajor} {
					ka, kb := Key{a, la}, Key{b, lb}
					if Compatibility(ka, kb) != Compatibility(kb, ka) {
						t.Fatalf("Compatibility not symmetric for %s, %s", ka, kb)
					}
				}
			}
		}
	}
}
