// Package music provides the track model and the harmonic scoring used to
// chain tracks into a DJ setlist.
//
// # Overview
//
// A [Track] carries the audio features reported by Spotify together with
// the genres of its artists. Two tracks are compared along two axes:
//
//   - Harmony: the Camelot wheel position of each track's key
//     ([CamelotKey], [Compatibility])
//   - Feel: cosine similarity of selected audio features and the Jaccard
//     overlap of artist genres ([Similarity])
//
// # Camelot Notation
//
// The Camelot wheel numbers the twelve pitch classes 1-12 so that adjacent
// numbers are a perfect fifth apart. The letter encodes the mode: "A" for
// minor, "B" for major. A key such as 8A (A minor) mixes cleanly into 8A,
// its relative major 8B, and its neighbours on the wheel.
//
//	k, ok := music.CamelotKey(9, 0) // A minor
//	fmt.Println(k, ok)              // 8A true
//
//	music.Compatibility(music.MustParseKey("8A"), music.MustParseKey("8B")) // 0.9
package music
