// Package setlist builds DJ setlists from a pool of annotated tracks.
//
// # Algorithm
//
// A setlist starts with a chosen (or random) track. Each following track
// is picked from the remaining pool:
//
//  1. Keep tracks whose tempo is within ±BPMRange of the current track.
//     When none qualify the window widens once to WidenedBPMRange and
//     stays widened; if that is empty too, the setlist ends.
//  2. Rank candidates by Camelot key compatibility ([music.Compatibility]).
//  3. Among candidates tied at the best compatibility, keep those most
//     similar to the current track ([music.Similarity]).
//  4. Pick one of the remaining ties at random.
//
// Generation stops at MaxSongs tracks or when the pool is exhausted.
//
// # Export
//
// [Export] renders a setlist as text (one line per track), JSON, a
// Graphviz DOT transition chain, SVG, or an M3U playlist of Spotify URIs.
// [WriteFile] picks a free filename (setlist.txt, setlist(1).txt, ...)
// and writes atomically.
package setlist
