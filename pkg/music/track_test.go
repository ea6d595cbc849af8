package music

import "testing"

func testTrack() Track {
	return NewTrack("t1", "Strobe", "spotify:track:t1",
		[]Artist{{ID: "a1", Name: "deadmau5"}, {ID: "a2", Name: "Kaskade"}},
		AudioFeatures{Tempo: 128, Key: 9, Mode: ModeMinor},
	)
}

func TestNewTrackDerivesCamelot(t *testing.T) {
	tr := testTrack()
	if tr.Camelot.String() != "8A" {
		t.Errorf("Camelot = %s, want 8A", tr.Camelot)
	}

	unknown := NewTrack("t2", "Noise", "", nil, AudioFeatures{Key: -1})
	if unknown.Camelot.Valid() {
		t.Errorf("expected unknown key, got %s", unknown.Camelot)
	}
}

func TestTrackLabel(t *testing.T) {
	tr := testTrack()
	if got, want := tr.Label(), "Strobe - deadmau5, Kaskade"; got != want {
		t.Errorf("Label() = %q, want %q", got, want)
	}
}

func TestTrackMatches(t *testing.T) {
	tr := testTrack()
	tests := []struct {
		query string
		want  bool
	}{
		{"strobe", true},
		{"STROBE - DEADMAU5", true},
		{"kaskade", true},
		{"ghosts", false},
	}
	for _, tt := range tests {
		if got := tr.Matches(tt.query); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestTrackLine(t *testing.T) {
	tr := testTrack()
	if got, want := tr.Line(), "[deadmau5, Kaskade] - [Strobe] (128.00 BPM, 8A)"; got != want {
		t.Errorf("Line() = %q, want %q", got, want)
	}
}
