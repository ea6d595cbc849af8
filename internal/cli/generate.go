package cli

import (
	"context"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/setlistgen/pkg/errors"
	"github.com/matzehuels/setlistgen/pkg/pipeline"
	"github.com/matzehuels/setlistgen/pkg/setlist"
)

// defaultOutputDir is where --save and the interactive loop write files.
const defaultOutputDir = "output"

// generateOptions holds the generate command flags.
type generateOptions struct {
	start       string
	random      bool
	interactive bool
	maxSongs    int
	bpmRange    float64
	seed        int64
	format      string
	outputDir   string
	save        bool
	refresh     bool
	noCache     bool
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	opts := generateOptions{outputDir: defaultOutputDir, format: string(setlist.FormatText)}

	cmd := &cobra.Command{
		Use:   "generate [playlist]",
		Short: "Generate a setlist from a Spotify playlist",
		Long: `Generate a DJ setlist from a Spotify playlist.

The playlist may be given as an open.spotify.com URL, a spotify:playlist: URI
or a bare playlist ID. Starting from the chosen song, each next track is
picked from the songs within the BPM window of the current one, preferring
the best Camelot key compatibility and then the closest audio and genre
profile.

Without a playlist argument, or with --interactive, setlistgen asks for the
playlist and the start song, then offers to save the result and generate
again.`,
		Example: `  # Start from a specific song
  setlistgen generate https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M --start "strobe"

  # Random opener, 20 songs, written to output/setlist.m3u
  setlistgen generate 37i9dQZF1DXcBWIGoYBM5M --random --max-songs 20 --format m3u --save

  # Interactive session
  setlistgen generate -i`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			setOpts, err := c.setlistOptions(cmd, &opts)
			if err != nil {
				return err
			}

			var ref string
			if len(args) > 0 {
				ref = args[0]
			}
			if ref == "" || opts.interactive {
				return c.runInteractive(ctx, newPrompter(c.In, c.Out), ref, setOpts, &opts)
			}
			return c.runGenerate(ctx, ref, setOpts, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.start, "start", "", "start song (substring of \"name - artists\")")
	cmd.Flags().BoolVar(&opts.random, "random", false, "start with a random song")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "pick the start song interactively")
	cmd.Flags().IntVarP(&opts.maxSongs, "max-songs", "n", setlist.DefaultMaxSongs, "maximum setlist length")
	cmd.Flags().Float64Var(&opts.bpmRange, "bpm-range", setlist.DefaultBPMRange, "tempo window as a fraction of the current BPM")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed for reproducible setlists (0 = random)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: txt, json, dot, svg, m3u")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", opts.outputDir, "directory for saved setlists")
	cmd.Flags().BoolVar(&opts.save, "save", false, "write the setlist to a file in --output-dir")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached playlist data")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the response cache")
	cmd.MarkFlagsMutuallyExclusive("start", "random")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	return cmd
}

// setlistOptions merges config defaults with the flags the user set.
func (c *CLI) setlistOptions(cmd *cobra.Command, o *generateOptions) (setlist.Options, error) {
	opts := c.conf().Setlist
	if cmd.Flags().Changed("max-songs") {
		opts.MaxSongs = o.maxSongs
	}
	if cmd.Flags().Changed("bpm-range") {
		opts.BPMRange = o.bpmRange
	}
	opts.Seed = o.seed
	opts.Start = o.start
	if o.random {
		opts.Start = ""
	}
	if err := opts.Validate(); err != nil {
		return setlist.Options{}, err
	}
	return opts, nil
}

// runGenerate is the scripted path: one playlist, one setlist.
func (c *CLI) runGenerate(ctx context.Context, ref string, opts setlist.Options, o *generateOptions) error {
	format, err := setlist.ParseFormat(o.format)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, o.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	pl, cached, err := c.loadPlaylist(ctx, runner, ref, o.refresh)
	if err != nil {
		return err
	}
	if opts.Start == "" {
		c.Logger.Debug("no --start given, picking a random opener")
	}

	s, _, err := runner.Generate(ctx, pl, opts)
	if err != nil {
		return err
	}
	return c.emit(ctx, s, format, len(pl.Tracks), cached, o)
}

// loadPlaylist loads a playlist behind a spinner.
func (c *CLI) loadPlaylist(ctx context.Context, runner *pipeline.Runner, ref string, refresh bool) (*pipeline.Playlist, bool, error) {
	prog := startStopwatch(c.Logger)
	sp := startSpinner(ctx, "Loading playlist...")

	pl, cached, err := runner.LoadWithCacheInfo(ctx, ref, refresh)
	if err != nil {
		sp.StopWithError(errors.UserMessage(err))
		return nil, false, err
	}
	sp.Stop()

	if pl.Skipped > 0 {
		printWarning("%d tracks have no audio features and were skipped", pl.Skipped)
	}
	prog.done("Loaded %d tracks from %q", len(pl.Tracks), pl.Name)
	return pl, cached, nil
}

// emit prints or saves a setlist.
func (c *CLI) emit(ctx context.Context, s *setlist.Setlist, f setlist.Format, pool int, cached bool, o *generateOptions) error {
	if o.save {
		path, err := setlist.WriteFile(ctx, o.outputDir, s, f)
		if err != nil {
			return err
		}
		printSuccess("Setlist saved")
		printFile(path)
		if f != setlist.FormatSVG {
			printNextStep("Render the transition graph", "setlistgen generate "+s.PlaylistID+" --format svg --save")
		}
		return nil
	}

	if f != setlist.FormatText {
		data, err := setlist.Export(ctx, s, f)
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	}

	if !isTerminal(stdout) {
		printLines(s.Lines())
		return nil
	}
	printNewline()
	printKeyValue("Setlist", styleTitle.Render(s.Name))
	printNewline()
	printSetlist(s)
	printNewline()
	printStats(s, pool, cached)
	return nil
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// =============================================================================
// Interactive Loop
// =============================================================================

// Menu choices after a setlist was generated.
const (
	nextSamePlaylist = iota
	nextNewPlaylist
	nextExit
)

var nextOptions = []string{
	"Generate another setlist from the same playlist",
	"Use a different playlist",
	"Exit",
}

// runInteractive asks for a playlist and a start song, prints the setlist,
// offers to save it, and repeats until the user exits.
func (c *CLI) runInteractive(ctx context.Context, p prompter, ref string, opts setlist.Options, o *generateOptions) error {
	runner, err := c.newRunner(ctx, o.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	for {
		if ref == "" {
			if ref, err = p.Ask("Enter the URL of the Spotify playlist you want to generate a setlist from:"); err != nil {
				return err
			}
		}
		pl, cached, err := c.loadPlaylist(ctx, runner, ref, o.refresh)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			ref = ""
			continue
		}

		next, err := c.interactiveRound(ctx, p, runner, pl, cached, opts, o)
		if err != nil {
			return err
		}
		switch next {
		case nextNewPlaylist:
			ref = ""
		case nextExit:
			printInfo("Exiting")
			return nil
		}
	}
}

// interactiveRound generates setlists from one playlist until the user
// asks for a different playlist or exits.
func (c *CLI) interactiveRound(ctx context.Context, p prompter, runner *pipeline.Runner, pl *pipeline.Playlist, cached bool, opts setlist.Options, o *generateOptions) (int, error) {
	for {
		round := opts
		if o.random {
			round.Start = ""
		} else {
			pick, err := p.PickTrack(pl.Tracks)
			if err != nil {
				return nextExit, err
			}
			if pick.Quit {
				return nextExit, nil
			}
			round.Start, round.StartID = pick.Query, pick.TrackID
		}
		s, _, err := runner.Generate(ctx, pl, round)
		if errors.Is(err, errors.ErrCodeTrackNotFound) || errors.Is(err, errors.ErrCodeInvalidInput) {
			printError("%s", errors.UserMessage(err))
			continue
		}
		if err != nil {
			return nextExit, err
		}

		printNewline()
		printSetlist(s)
		printNewline()
		printStats(s, len(pl.Tracks), cached)
		printNewline()

		save, err := p.Confirm("Would you like to save this setlist as a text file?")
		if err != nil {
			return nextExit, err
		}
		if save {
			path, err := setlist.WriteFile(ctx, o.outputDir, s, setlist.FormatText)
			if err != nil {
				return nextExit, err
			}
			printSuccess("Setlist saved to '%s'", path)
		}

		choice, err := p.Choose("What would you like to do next?", nextOptions)
		if err != nil {
			return nextExit, err
		}
		switch choice {
		case nextSamePlaylist:
			continue
		case nextNewPlaylist:
			return nextNewPlaylist, nil
		default:
			return nextExit, nil
		}
	}
}
