package setlist

import "github.com/matzehuels/setlistgen/pkg/music"

// track builds a test track. key and mode are the Spotify pitch class and mode.
func track(id string, tempo float64, key, mode int, genres ...string) music.Track {
	return music.NewTrack(id, "Song "+id, "spotify:track:"+id,
		[]music.Artist{{ID: "a-" + id, Name: "Artist " + id, Genres: genres}},
		music.AudioFeatures{
			Tempo:        tempo,
			Key:          key,
			Mode:         mode,
			Valence:      0.5,
			Speechiness:  0.05,
			Acousticness: 0.1,
			Liveness:     0.1,
		})
}

func ids(tracks []music.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.ID
	}
	return out
}
