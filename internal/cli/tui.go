package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/setlistgen/pkg/music"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorText)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorFaint)
)

// =============================================================================
// TrackPickerModel - Interactive start song selection
// =============================================================================

// TrackPickerModel is the bubbletea model for picking the opening track.
// Typing filters the list by "name - artists"; "ctrl+r" picks at random.
type TrackPickerModel struct {
	Tracks []music.Track
	Filter string
	Cursor int
	Height int
	Offset int

	Selected *music.Track
	Random   bool
	Quit     bool

	visible []int
}

// NewTrackPickerModel creates a picker over tracks.
func NewTrackPickerModel(tracks []music.Track) TrackPickerModel {
	m := TrackPickerModel{Tracks: tracks, Height: 15}
	m.refilter()
	return m
}

func (m *TrackPickerModel) refilter() {
	m.visible = m.visible[:0]
	for i, t := range m.Tracks {
		if m.Filter == "" || t.Matches(m.Filter) {
			m.visible = append(m.visible, i)
		}
	}
	m.Cursor, m.Offset = 0, 0
}

// pick converts the final picker state into a trackPick. A selected track
// is passed on by ID since labels of different tracks can overlap.
func (m TrackPickerModel) pick() trackPick {
	switch {
	case m.Quit:
		return trackPick{Quit: true}
	case m.Random:
		return trackPick{Random: true}
	case m.Selected != nil:
		return trackPick{TrackID: m.Selected.ID}
	}
	return trackPick{Quit: true}
}

func (m TrackPickerModel) Init() tea.Cmd {
	return nil
}

func (m TrackPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.Quit = true
			return m, tea.Quit
		case tea.KeyCtrlR:
			m.Random = true
			return m, tea.Quit
		case tea.KeyUp:
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case tea.KeyDown:
			if m.Cursor < len(m.visible)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case tea.KeyEnter:
			if len(m.visible) == 0 {
				return m, nil
			}
			t := m.Tracks[m.visible[m.Cursor]]
			m.Selected = &t
			return m, tea.Quit
		case tea.KeyBackspace:
			if m.Filter != "" {
				r := []rune(m.Filter)
				m.Filter = string(r[:len(r)-1])
				m.refilter()
			}
		case tea.KeySpace:
			m.Filter += " "
			m.refilter()
		case tea.KeyRunes:
			m.Filter += string(msg.Runes)
			m.refilter()
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-7, 5)
	}
	return m, nil
}

func (m TrackPickerModel) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("Pick a start song"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("type to filter  ↑/↓ navigate  ⏎ select  ctrl+r random  esc quit"))
	b.WriteString("\n")
	b.WriteString(styleAccent.Render("> ") + m.Filter)
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.visible))
	for i := m.Offset; i < end; i++ {
		t := m.Tracks[m.visible[i]]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%-50s %s", cursor, truncate(t.Label(), 50),
			listDimStyle.Render(fmt.Sprintf("%6.1f BPM %3s", t.Tempo(), t.Camelot)))
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}
	if len(m.visible) == 0 {
		b.WriteString(listDimStyle.Render("  no matching songs"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", len(m.visible), len(m.Tracks))))
	return b.String()
}

// =============================================================================
// MenuModel - Single choice from a short list
// =============================================================================

// MenuModel is the bubbletea model for a numbered choice list.
// Digits jump straight to an option.
type MenuModel struct {
	Title    string
	Options  []string
	Cursor   int
	Selected int // -1 until chosen or when cancelled
}

// NewMenuModel creates a menu.
func NewMenuModel(title string, options []string) MenuModel {
	return MenuModel{Title: title, Options: options, Selected: -1}
}

func (m MenuModel) Init() tea.Cmd {
	return nil
}

func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch s := key.String(); s {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Options)-1 {
			m.Cursor++
		}
	case "enter":
		m.Selected = m.Cursor
		return m, tea.Quit
	default:
		if len(s) == 1 && s[0] >= '1' && int(s[0]-'1') < len(m.Options) {
			m.Selected = int(s[0] - '1')
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m MenuModel) View() string {
	var b strings.Builder
	b.WriteString(styleTitle.Render(m.Title))
	b.WriteString("\n\n")
	for i, opt := range m.Options {
		line := fmt.Sprintf("%d. %s", i+1, opt)
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render("▸ " + line))
		} else {
			b.WriteString(listNormalStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
