package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/setlistgen/pkg/music"
)

func pickerTracks() []music.Track {
	return []music.Track{
		{ID: "t1", Name: "Strobe", Artists: []music.Artist{{Name: "deadmau5"}}},
		{ID: "t2", Name: "Opus", Artists: []music.Artist{{Name: "Eric Prydz"}}},
		{ID: "t3", Name: "Pjanoo", Artists: []music.Artist{{Name: "Eric Prydz"}}},
	}
}

func typeKeys(m tea.Model, keys ...tea.KeyMsg) tea.Model {
	for _, k := range keys {
		m, _ = m.Update(k)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTrackPickerSelect(t *testing.T) {
	tests := []struct {
		name string
		keys []tea.KeyMsg
		want string
	}{
		{"first", []tea.KeyMsg{{Type: tea.KeyEnter}}, "Strobe"},
		{"down", []tea.KeyMsg{{Type: tea.KeyDown}, {Type: tea.KeyEnter}}, "Opus"},
		{"down stops at end", []tea.KeyMsg{{Type: tea.KeyDown}, {Type: tea.KeyDown}, {Type: tea.KeyDown}, {Type: tea.KeyEnter}}, "Pjanoo"},
		{"filter", []tea.KeyMsg{runes("prydz"), {Type: tea.KeyDown}, {Type: tea.KeyEnter}}, "Pjanoo"},
		{"filter with space", []tea.KeyMsg{runes("eric"), {Type: tea.KeySpace}, runes("p"), {Type: tea.KeyEnter}}, "Opus"},
		{"backspace widens", []tea.KeyMsg{runes("opx"), {Type: tea.KeyBackspace}, {Type: tea.KeyEnter}}, "Opus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := typeKeys(NewTrackPickerModel(pickerTracks()), tt.keys...).(TrackPickerModel)
			if m.Selected == nil || m.Selected.Name != tt.want {
				t.Fatalf("Selected = %+v, want %s", m.Selected, tt.want)
			}
		})
	}
}

func TestTrackPickerNoMatch(t *testing.T) {
	m := typeKeys(NewTrackPickerModel(pickerTracks()), runes("zzz"), tea.KeyMsg{Type: tea.KeyEnter}).(TrackPickerModel)
	if m.Selected != nil {
		t.Errorf("Selected = %+v with no matches", m.Selected)
	}
	if !strings.Contains(m.View(), "no matching songs") {
		t.Errorf("view does not report missing matches:\n%s", m.View())
	}
}

func TestTrackPickerRandomAndQuit(t *testing.T) {
	m := typeKeys(NewTrackPickerModel(pickerTracks()), tea.KeyMsg{Type: tea.KeyCtrlR}).(TrackPickerModel)
	if !m.Random || m.Quit {
		t.Errorf("ctrl+r: Random=%v Quit=%v", m.Random, m.Quit)
	}
	m = typeKeys(NewTrackPickerModel(pickerTracks()), tea.KeyMsg{Type: tea.KeyEsc}).(TrackPickerModel)
	if !m.Quit {
		t.Error("esc did not quit")
	}
}

func TestTrackPickerView(t *testing.T) {
	m := NewTrackPickerModel(pickerTracks())
	v := m.View()
	for _, w := range []string{"Pick a start song", "Strobe - deadmau5", "[3/3]"} {
		if !strings.Contains(v, w) {
			t.Errorf("view missing %q", w)
		}
	}
}

func TestMenuModel(t *testing.T) {
	opts := []string{"same", "new", "exit"}
	tests := []struct {
		name string
		keys []tea.KeyMsg
		want int
	}{
		{"enter", []tea.KeyMsg{{Type: tea.KeyEnter}}, 0},
		{"down enter", []tea.KeyMsg{{Type: tea.KeyDown}, {Type: tea.KeyEnter}}, 1},
		{"digit", []tea.KeyMsg{runes("3")}, 2},
		{"out of range digit ignored", []tea.KeyMsg{runes("9"), {Type: tea.KeyEnter}}, 0},
		{"esc", []tea.KeyMsg{{Type: tea.KeyEsc}}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := typeKeys(NewMenuModel("next?", opts), tt.keys...).(MenuModel)
			if m.Selected != tt.want {
				t.Errorf("Selected = %d, want %d", m.Selected, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
	if got := truncate("a much longer string", 8); len([]rune(got)) > 8 {
		t.Errorf("truncate returned %q (%d runes)", got, len([]rune(got)))
	}
}

func TestTrackPickerPickByID(t *testing.T) {
	// The second label is a prefix of the first, so a label query would
	// resolve to the wrong song.
	tracks := []music.Track{
		{ID: "t1", Name: "Strobe", Artists: []music.Artist{{Name: "deadmau5"}, {Name: "Kaskade"}}},
		{ID: "t2", Name: "Strobe", Artists: []music.Artist{{Name: "deadmau5"}}},
	}
	m := typeKeys(NewTrackPickerModel(tracks), tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter}).(TrackPickerModel)
	if got := m.pick(); got != (trackPick{TrackID: "t2"}) {
		t.Errorf("pick() = %+v, want TrackID t2", got)
	}

	tests := []struct {
		name string
		key  tea.KeyMsg
		want trackPick
	}{
		{"random", tea.KeyMsg{Type: tea.KeyCtrlR}, trackPick{Random: true}},
		{"quit", tea.KeyMsg{Type: tea.KeyEsc}, trackPick{Quit: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := typeKeys(NewTrackPickerModel(tracks), tt.key).(TrackPickerModel)
			if got := m.pick(); got != tt.want {
				t.Errorf("pick() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
