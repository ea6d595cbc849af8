package setlist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/setlistgen/pkg/errors"
	"github.com/matzehuels/setlistgen/pkg/observability"
)

// Format is an export format.
type Format string

// Supported export formats.
const (
	FormatText Format = "txt"
	FormatJSON Format = "json"
	FormatDOT  Format = "dot"
	FormatSVG  Format = "svg"
	FormatM3U  Format = "m3u"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatJSON, FormatDOT, FormatSVG, FormatM3U}

// ParseFormat parses a format name. "text" is accepted for txt.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", "text":
		return FormatText, nil
	case FormatText, FormatJSON, FormatDOT, FormatSVG, FormatM3U:
		return f, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q (want txt, json, dot, svg or m3u)", s)
	}
}

// Ext returns the file extension without the dot.
func (f Format) Ext() string { return string(f) }

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatDOT:
		return "text/vnd.graphviz; charset=utf-8"
	case FormatSVG:
		return "image/svg+xml"
	case FormatM3U:
		return "audio/x-mpegurl"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Export renders s in the given format.
func Export(ctx context.Context, s *Setlist, f Format) ([]byte, error) {
	data, err := export(ctx, s, f)
	observability.Pipeline().OnExport(ctx, string(f), len(data), err)
	return data, err
}

func export(ctx context.Context, s *Setlist, f Format) ([]byte, error) {
	switch f {
	case FormatText:
		return []byte(ToText(s)), nil
	case FormatJSON:
		return json.MarshalIndent(s, "", "  ")
	case FormatDOT:
		return []byte(ToDOT(s)), nil
	case FormatSVG:
		return RenderSVG(ctx, ToDOT(s))
	case FormatM3U:
		return []byte(ToM3U(s)), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", f)
	}
}

// ToText returns one [music.Track.Line] per track.
func ToText(s *Setlist) string {
	var buf strings.Builder
	for _, line := range s.Lines() {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.String()
}

// ToM3U returns an extended M3U playlist of Spotify track URIs.
func ToM3U(s *Setlist) string {
	var buf strings.Builder
	buf.WriteString("#EXTM3U\n")
	if s.Name != "" {
		fmt.Fprintf(&buf, "#PLAYLIST:%s\n", s.Name)
	}
	for _, t := range s.Tracks {
		fmt.Fprintf(&buf, "#EXTINF:-1,%s - %s\n", t.ArtistNames(), t.Name)
		uri := t.URI
		if uri == "" {
			uri = "spotify:track:" + t.ID
		}
		buf.WriteString(uri)
		buf.WriteByte('\n')
	}
	return buf.String()
}

// ToDOT converts the setlist to a left-to-right Graphviz chain. Nodes show
// the track, tempo and Camelot key; edges show the BPM change and key
// compatibility of each transition.
func ToDOT(s *Setlist) string {
	var buf bytes.Buffer
	buf.WriteString("digraph setlist {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	buf.WriteString("\n")

	for i, t := range s.Tracks {
		label := fmt.Sprintf("%d. %s\n%s\n%.1f BPM · %s", i+1, t.Name, t.ArtistNames(), t.Tempo(), t.Camelot)
		fmt.Fprintf(&buf, "  n%d [label=%q, fillcolor=%q];\n", i, label, keyColor(t.Camelot.Number))
	}

	buf.WriteString("\n")
	for i, tr := range s.Transitions {
		style := "solid"
		if tr.Compatibility == 0 {
			style = "dashed"
		}
		fmt.Fprintf(&buf, "  n%d -> n%d [label=%q, style=%s];\n", i, i+1,
			fmt.Sprintf("%+.1f BPM\nkey %.1f", tr.BPMDelta, tr.Compatibility), style)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// keyColor maps a Camelot number to a pastel hue so neighbouring keys on
// the wheel get neighbouring colours.
func keyColor(n int) string {
	if n < 1 || n > 12 {
		return "white"
	}
	return fmt.Sprintf("%.3f 0.25 1.0", float64(n-1)/12)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
