package setlist

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/setlistgen/pkg/errors"
	"github.com/matzehuels/setlistgen/pkg/music"
)

// Generator builds setlists. It is not safe for concurrent use.
type Generator struct {
	opts Options
	rng  *rand.Rand
}

// NewGenerator creates a generator. Options.Seed 0 seeds from the clock.
func NewGenerator(opts Options) *Generator {
	opts = opts.WithDefaults()
	seed := uint64(opts.Seed)
	if opts.Seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Generator{
		opts: opts,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Options returns the effective options.
func (g *Generator) Options() Options { return g.opts }

// SelectFirst picks the opening track. An empty query picks uniformly at
// random; otherwise the first track whose label contains query
// (case-insensitive) is used. It returns the opener and a copy of tracks
// without it.
func (g *Generator) SelectFirst(tracks []music.Track, query string) (music.Track, []music.Track, error) {
	if len(tracks) == 0 {
		return music.Track{}, nil, errors.New(errors.ErrCodeInvalidInput, "playlist has no usable tracks")
	}

	var idx int
	if query == "" {
		idx = g.rng.IntN(len(tracks))
	} else {
		idx = slices.IndexFunc(tracks, func(t music.Track) bool { return t.Matches(query) })
		if idx < 0 {
			return music.Track{}, nil, errors.New(errors.ErrCodeTrackNotFound,
				"no track matching %q in the playlist; try just the song name or pick a random song", query)
		}
	}

	return splitAt(tracks, idx)
}

// SelectByID picks the track with the given ID as opener. Unlike
// SelectFirst it never confuses tracks whose labels overlap.
func (g *Generator) SelectByID(tracks []music.Track, id string) (music.Track, []music.Track, error) {
	idx := slices.IndexFunc(tracks, func(t music.Track) bool { return t.ID == id })
	if idx < 0 {
		return music.Track{}, nil, errors.New(errors.ErrCodeTrackNotFound, "track %s is not in the playlist", id)
	}
	return splitAt(tracks, idx)
}

// splitAt returns tracks[idx] and a copy of tracks without it.
func splitAt(tracks []music.Track, idx int) (music.Track, []music.Track, error) {
	remaining := make([]music.Track, 0, len(tracks)-1)
	remaining = append(remaining, tracks[:idx]...)
	remaining = append(remaining, tracks[idx+1:]...)
	return tracks[idx], remaining, nil
}

// Extend appends tracks to setlist until MaxSongs is reached, the pool is
// empty, or no track fits even the widened tempo window. setlist must be
// non-empty. It returns the extended setlist and the unused tracks.
func (g *Generator) Extend(setlist, remaining []music.Track) ([]music.Track, []music.Track) {
	if len(setlist) == 0 {
		return setlist, remaining
	}
	remaining = slices.Clone(remaining)
	bpmRange := g.opts.BPMRange
	widened := false

	for len(remaining) > 0 && len(setlist) < g.opts.MaxSongs {
		current := setlist[len(setlist)-1]
		candidates := inTempoWindow(remaining, current.Tempo(), bpmRange)
		if len(candidates) == 0 {
			if widened {
				break
			}
			bpmRange = g.opts.WidenedBPMRange
			widened = true
			continue
		}

		top := bestCandidates(current, remaining, candidates)
		pick := top[g.rng.IntN(len(top))]

		setlist = append(setlist, remaining[pick])
		remaining = slices.Delete(remaining, pick, pick+1)
	}
	return setlist, remaining
}

// inTempoWindow returns indexes of tracks with tempo in
// [bpm*(1-r), bpm*(1+r)].
func inTempoWindow(tracks []music.Track, bpm, r float64) []int {
	lo, hi := bpm*(1-r), bpm*(1+r)
	var out []int
	for i, t := range tracks {
		if tempo := t.Tempo(); tempo >= lo && tempo <= hi {
			out = append(out, i)
		}
	}
	return out
}

// bestCandidates keeps the candidates with the highest key compatibility
// and, among those, the highest similarity to current.
func bestCandidates(current music.Track, tracks []music.Track, candidates []int) []int {
	scores := make([]float64, len(candidates))
	best := -1.0
	for i, idx := range candidates {
		scores[i] = music.Compatibility(current.Camelot, tracks[idx].Camelot)
		best = max(best, scores[i])
	}

	var tied []int
	for i, idx := range candidates {
		if scores[i] == best {
			tied = append(tied, idx)
		}
	}
	if len(tied) == 1 {
		return tied
	}

	sims := make([]float64, len(tied))
	bestSim := -1.0
	for i, idx := range tied {
		sims[i] = music.Similarity(current, tracks[idx])
		bestSim = max(bestSim, sims[i])
	}
	top := tied[:0:0]
	for i, idx := range tied {
		if sims[i] == bestSim {
			top = append(top, idx)
		}
	}
	return top
}

// Generate selects the opener with Options.StartID, or Options.Start when
// no ID is set, and extends it into a setlist.
func (g *Generator) Generate(tracks []music.Track) (*Setlist, error) {
	var (
		first     music.Track
		remaining []music.Track
		err       error
	)
	if g.opts.StartID != "" {
		first, remaining, err = g.SelectByID(tracks, g.opts.StartID)
	} else {
		first, remaining, err = g.SelectFirst(tracks, g.opts.Start)
	}
	if err != nil {
		return nil, err
	}
	list, _ := g.Extend([]music.Track{first}, remaining)

	return &Setlist{
		ID:          uuid.NewString(),
		Tracks:      list,
		Transitions: transitions(list),
		Options:     g.opts,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Generate validates opts and builds a setlist from tracks.
func Generate(tracks []music.Track, opts Options) (*Setlist, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return NewGenerator(opts).Generate(tracks)
}
