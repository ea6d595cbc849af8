package setlist

import (
	"time"

	"github.com/matzehuels/setlistgen/pkg/music"
)

// Transition describes the step between two consecutive tracks.
type Transition struct {
	From          string  `json:"from"`
	To            string  `json:"to"`
	BPMDelta      float64 `json:"bpm_delta"`
	Compatibility float64 `json:"compatibility"`
	Similarity    float64 `json:"similarity"`
}

// Setlist is an ordered list of tracks.
type Setlist struct {
	ID          string        `json:"id" bson:"_id"`
	Name        string        `json:"name" bson:"name"`
	PlaylistID  string        `json:"playlist_id" bson:"playlist_id"`
	Owner       string        `json:"owner,omitempty" bson:"owner,omitempty"`
	Tracks      []music.Track `json:"tracks" bson:"tracks"`
	Transitions []Transition  `json:"transitions" bson:"transitions"`
	Options     Options       `json:"options" bson:"options"`
	CreatedAt   time.Time     `json:"created_at" bson:"created_at"`
}

// Len returns the number of tracks.
func (s *Setlist) Len() int { return len(s.Tracks) }

// TempoRange returns the lowest and highest tempo in the setlist.
func (s *Setlist) TempoRange() (lo, hi float64) {
	for i, t := range s.Tracks {
		if i == 0 || t.Tempo() < lo {
			lo = t.Tempo()
		}
		if i == 0 || t.Tempo() > hi {
			hi = t.Tempo()
		}
	}
	return lo, hi
}

// Lines returns one formatted line per track.
func (s *Setlist) Lines() []string {
	lines := make([]string, len(s.Tracks))
	for i, t := range s.Tracks {
		lines[i] = t.Line()
	}
	return lines
}

func transitions(tracks []music.Track) []Transition {
	if len(tracks) < 2 {
		return nil
	}
	out := make([]Transition, 0, len(tracks)-1)
	for i := 1; i < len(tracks); i++ {
		a, b := tracks[i-1], tracks[i]
		out = append(out, Transition{
			From:          a.ID,
			To:            b.ID,
			BPMDelta:      b.Tempo() - a.Tempo(),
			Compatibility: music.Compatibility(a.Camelot, b.Camelot),
			Similarity:    music.Similarity(a, b),
		})
	}
	return out
}
