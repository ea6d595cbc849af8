package music

import (
	"encoding/json"
	"testing"
)

func TestCamelotKey(t *testing.T) {
	tests := []struct {
		key, mode int
		want      string
		ok        bool
	}{
		{0, ModeMinor, "5A", true},
		{0, ModeMajor, "8B", true},
		{9, ModeMinor, "8A", true},
		{7, ModeMajor, "9B", true},
		{11, ModeMajor, "1B", true},
		{3, ModeMajor, "3B", true},
		{-1, ModeMajor, "?", false},
		{12, ModeMinor, "?", false},
		{4, 2, "?", false},
	}

	for _, tt := range tests {
		got, ok := CamelotKey(tt.key, tt.mode)
		if ok != tt.ok {
			t.Errorf("CamelotKey(%d, %d) ok = %v, want %v", tt.key, tt.mode, ok, tt.ok)
		}
		if got.String() != tt.want {
			t.Errorf("CamelotKey(%d, %d) = %s, want %s", tt.key, tt.mode, got, tt.want)
		}
	}
}

func TestCamelotKeyCoversWheel(t *testing.T) {
	seen := make(map[string]int)
	for pc := 0; pc < 12; pc++ {
		for _, mode := range []int{ModeMinor, ModeMajor} {
			k, ok := CamelotKey(pc, mode)
			if !ok || !k.Valid() {
				t.Fatalf("CamelotKey(%d, %d) returned invalid key", pc, mode)
			}
			seen[k.String()]++
		}
	}
	// Every minor position appears exactly once.
	for n := 1; n <= 12; n++ {
		k := Key{Number: n, Letter: LetterMinor}
		if seen[k.String()] != 1 {
			t.Errorf("minor key %s seen %d times", k, seen[k.String()])
		}
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		in      string
		want    Key
		wantErr bool
	}{
		{"8A", Key{8, 'A'}, false},
		{"12b", Key{12, 'B'}, false},
		{" 1B ", Key{1, 'B'}, false},
		{"13A", Key{}, true},
		{"0A", Key{}, true},
		{"8C", Key{}, true},
		{"A", Key{}, true},
		{"", Key{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKey(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKey(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseKey(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestKeyJSON(t *testing.T) {
	type wrapper struct {
		Key Key `json:"key"`
	}

	data, err := json.Marshal(wrapper{Key: MustParseKey("11B")})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"key":"11B"}` {
		t.Errorf("Marshal = %s", data)
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"key":""}`), &w); err != nil {
		t.Fatal(err)
	}
	if w.Key.Valid() {
		t.Errorf("empty key should decode to unknown, got %v", w.Key)
	}
}
