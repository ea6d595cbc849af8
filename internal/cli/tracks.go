package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/setlistgen/pkg/music"
)

// tracksCommand creates the tracks command, which lists a playlist's songs.
func (c *CLI) tracksCommand() *cobra.Command {
	var refresh, plain bool

	cmd := &cobra.Command{
		Use:   "tracks <playlist>",
		Short: "List the songs of a playlist",
		Long: `List the songs of a playlist as "Name - Artists" together with their
tempo and Camelot key. Any of the names works as a --start query for
generate.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			pl, _, err := c.loadPlaylist(ctx, runner, args[0], refresh)
			if err != nil {
				return err
			}

			if plain || !isTerminal(stdout) {
				for _, t := range pl.Tracks {
					fmt.Fprintln(stdout, t.Label())
				}
				return nil
			}
			fmt.Fprintln(stdout, trackTable(pl.Tracks))
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached playlist data")
	cmd.Flags().BoolVar(&plain, "plain", false, "print one \"Name - Artists\" line per song")
	return cmd
}

func trackTable(tracks []music.Track) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorMuted).Bold(true)
	rows := make([][]string, len(tracks))
	for i, t := range tracks {
		rows[i] = []string{
			fmt.Sprintf("%d", i+1),
			truncate(t.Name, 40),
			truncate(t.ArtistNames(), 30),
			fmt.Sprintf("%.1f", t.Tempo()),
			t.Camelot.String(),
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorFaint)).
		Headers("#", "Song", "Artists", "BPM", "Key").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			switch col {
			case 0:
				return lipgloss.NewStyle().Foreground(colorFaint)
			case 3, 4:
				return lipgloss.NewStyle().Foreground(colorAccent)
			}
			return lipgloss.NewStyle().Foreground(colorText)
		}).
		String()
}
