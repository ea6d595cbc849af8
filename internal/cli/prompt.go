package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/matzehuels/setlistgen/pkg/music"
)

// trackPick is the answer to "which song should open the set?".
type trackPick struct {
	Query   string // start song query; empty with Random
	TrackID string // exact opener chosen from a list; wins over Query
	Random  bool
	Quit    bool
}

// prompter asks the questions of the interactive loop.
type prompter interface {
	Ask(question string) (string, error)
	Confirm(question string) (bool, error)
	// Choose returns the index of the chosen option, or -1 when cancelled.
	Choose(title string, options []string) (int, error)
	PickTrack(tracks []music.Track) (trackPick, error)
}

// newPrompter returns a TUI prompter on a terminal and a line-based one
// otherwise (pipes, scripts, tests).
func newPrompter(in io.Reader, out io.Writer) prompter {
	lp := &linePrompter{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return &teaPrompter{linePrompter: lp, in: in, out: out}
	}
	return lp
}

// =============================================================================
// linePrompter - plain stdin/stdout prompts
// =============================================================================

type linePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func (p *linePrompter) Ask(question string) (string, error) {
	fmt.Fprint(p.out, styleAccent.Render(question)+" ")
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *linePrompter) Confirm(question string) (bool, error) {
	answer, err := p.Ask(question + " [Y/N]:")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (p *linePrompter) Choose(title string, options []string) (int, error) {
	fmt.Fprintln(p.out, styleTitle.Render(title))
	nums := make([]string, len(options))
	for i, opt := range options {
		fmt.Fprintf(p.out, "%d. %s\n", i+1, opt)
		nums[i] = strconv.Itoa(i + 1)
	}
	answer, err := p.Ask(fmt.Sprintf("Enter your choice (%s):", strings.Join(nums, ", ")))
	if err != nil {
		return -1, err
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(options) {
		return -1, nil
	}
	return n - 1, nil
}

func (p *linePrompter) PickTrack(tracks []music.Track) (trackPick, error) {
	choice, err := p.Choose("Would you like to:", []string{"Choose a specific song", "Start with a random song"})
	if err != nil {
		return trackPick{}, err
	}
	switch choice {
	case 1:
		return trackPick{Random: true}, nil
	case 0:
	default:
		return trackPick{Quit: true}, nil
	}

	fmt.Fprintln(p.out, "Here are the songs available:")
	for _, t := range tracks {
		fmt.Fprintln(p.out, t.Label())
	}
	answer, err := p.Ask("Enter the song name or 'song name - artist' to start with, 'random', or 'exit' to quit:")
	if err != nil {
		return trackPick{}, err
	}
	switch strings.ToLower(answer) {
	case "exit":
		return trackPick{Quit: true}, nil
	case "random", "":
		return trackPick{Random: true}, nil
	}
	return trackPick{Query: answer}, nil
}

// =============================================================================
// teaPrompter - bubbletea pickers on a terminal
// =============================================================================

type teaPrompter struct {
	*linePrompter
	in  io.Reader
	out io.Writer
}

func (p *teaPrompter) Choose(title string, options []string) (int, error) {
	final, err := tea.NewProgram(NewMenuModel(title, options), tea.WithInput(p.in), tea.WithOutput(p.out)).Run()
	if err != nil {
		return -1, err
	}
	return final.(MenuModel).Selected, nil
}

func (p *teaPrompter) PickTrack(tracks []music.Track) (trackPick, error) {
	final, err := tea.NewProgram(NewTrackPickerModel(tracks), tea.WithInput(p.in), tea.WithOutput(p.out)).Run()
	if err != nil {
		return trackPick{}, err
	}
	return final.(TrackPickerModel).pick(), nil
}
