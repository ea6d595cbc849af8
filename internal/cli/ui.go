package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/setlistgen/pkg/music"
	"github.com/matzehuels/setlistgen/pkg/setlist"
)

// stdout receives everything printed for the user. Tests swap it out.
var stdout io.Writer = os.Stdout

// 256-colour palette.
var (
	colorAccent = lipgloss.Color("36")
	colorOK     = lipgloss.Color("35")
	colorWarn   = lipgloss.Color("220")
	colorFail   = lipgloss.Color("167")
	colorLink   = lipgloss.Color("75")
	colorText   = lipgloss.Color("255")
	colorMuted  = lipgloss.Color("245")
	colorFaint  = lipgloss.Color("240")
)

func fg(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

var (
	styleTitle   = fg(colorAccent).Bold(true)
	styleAccent  = fg(colorAccent)
	styleLink    = fg(colorLink).Underline(true)
	styleFaint   = fg(colorFaint)
	styleText    = fg(colorText)
	styleSpinner = fg(colorAccent)

	styleLabel = fg(colorMuted).Width(12)
	styleIndex = fg(colorFaint).Width(4).Align(lipgloss.Right)
)

// status glyphs
var (
	glyphOK   = fg(colorOK).Render("✓")
	glyphFail = fg(colorFail).Render("✗")
	glyphWarn = fg(colorWarn).Render("!")
	glyphInfo = fg(colorMuted).Render("›")
)

func printStatus(glyph, msg string) { fmt.Fprintln(stdout, glyph+" "+msg) }

func printSuccess(format string, args ...any) { printStatus(glyphOK, fmt.Sprintf(format, args...)) }
func printError(format string, args ...any)   { printStatus(glyphFail, fmt.Sprintf(format, args...)) }
func printInfo(format string, args ...any)    { printStatus(glyphInfo, fmt.Sprintf(format, args...)) }

func printWarning(format string, args ...any) {
	printStatus(glyphWarn, fg(colorWarn).Render(fmt.Sprintf(format, args...)))
}

// printDetail prints an indented, faint line under a status line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+styleFaint.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Fprintf(stdout, "  %s %s\n", styleFaint.Render("→"), styleText.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleLabel.Render(key)+" "+styleText.Render(value))
}

// printStats prints e.g. "12 of 40 tracks · 124-131 BPM · cached".
func printStats(s *setlist.Setlist, pool int, cached bool) {
	lo, hi := s.TempoRange()
	origin := fg(colorMuted).Render("fresh")
	if cached {
		origin = fg(colorOK).Render("cached")
	}
	sep := styleFaint.Render(" · ")
	fmt.Fprintln(stdout, "  "+strings.Join([]string{
		styleFaint.Render(fmt.Sprintf("%d of %d tracks", s.Len(), pool)),
		styleFaint.Render(fmt.Sprintf("%.0f-%.0f BPM", lo, hi)),
		origin,
	}, sep))
}

// printSetlist prints the numbered setlist. Each key after the first is
// coloured by how well it mixes from the track before it.
func printSetlist(s *setlist.Setlist) {
	for i, t := range s.Tracks {
		key := styleText
		if i > 0 {
			key = keyStyle(s.Transitions[i-1].Compatibility)
		}
		fmt.Fprintf(stdout, "%s %s %s %s\n",
			styleIndex.Render(fmt.Sprintf("%d.", i+1)),
			styleText.Render(t.Label()),
			styleAccent.Render(fmt.Sprintf("%6.2f BPM", t.Tempo())),
			key.Render(t.Camelot.String()))
	}
}

func keyStyle(compat float64) lipgloss.Style {
	switch {
	case compat >= music.ScoreFifth:
		return fg(colorOK)
	case compat > music.ScoreNone:
		return fg(colorWarn)
	}
	return fg(colorFail)
}

// printLines writes lines unstyled, for piped output and the plain format.
func printLines(lines []string) { fmt.Fprintln(stdout, strings.Join(lines, "\n")) }

func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, styleFaint.Render(description+":")+" "+fg(colorLink).Render(cmd))
}

// printInline prints a faint message and leaves the cursor on the line.
func printInline(format string, args ...any) {
	fmt.Fprint(stdout, styleFaint.Render(fmt.Sprintf(format, args...)))
}

func printNewline() { fmt.Fprintln(stdout) }
