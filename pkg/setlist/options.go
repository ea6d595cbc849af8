package setlist

import "github.com/matzehuels/setlistgen/pkg/errors"

// Default generation parameters.
const (
	DefaultMaxSongs        = 30
	DefaultBPMRange        = 0.05
	DefaultWidenedBPMRange = 0.08
)

// Options controls setlist generation. Zero values take the defaults.
type Options struct {
	MaxSongs        int     `json:"max_songs" toml:"max_songs" validate:"min=0,max=1000"`
	BPMRange        float64 `json:"bpm_range" toml:"bpm_range" validate:"gte=0,lt=1"`
	WidenedBPMRange float64 `json:"widened_bpm_range" toml:"widened_bpm_range" validate:"gte=0,lt=1"`
	Seed            int64   `json:"seed,omitempty" toml:"seed"`
	Start           string  `json:"start,omitempty" toml:"-" validate:"max=256"`
	// StartID names the opener exactly and takes precedence over Start.
	StartID string `json:"start_id,omitempty" toml:"-" validate:"max=64"`
}

// DefaultOptions returns options with every default filled in.
func DefaultOptions() Options {
	return Options{
		MaxSongs:        DefaultMaxSongs,
		BPMRange:        DefaultBPMRange,
		WidenedBPMRange: DefaultWidenedBPMRange,
	}
}

// WithDefaults fills zero fields. A widened range narrower than the base
// range is raised to the base range.
func (o Options) WithDefaults() Options {
	if o.MaxSongs == 0 {
		o.MaxSongs = DefaultMaxSongs
	}
	if o.BPMRange == 0 {
		o.BPMRange = DefaultBPMRange
	}
	if o.WidenedBPMRange == 0 {
		o.WidenedBPMRange = max(DefaultWidenedBPMRange, o.BPMRange)
	}
	o.WidenedBPMRange = max(o.WidenedBPMRange, o.BPMRange)
	return o
}

// Validate checks option bounds.
func (o Options) Validate() error {
	return errors.ValidateStruct(errors.ErrCodeInvalidOptions, o)
}
