package music

import "math"

// Weights applied by [Similarity].
const (
	AudioWeight = 0.9
	GenreWeight = 0.1
)

// similarityVector returns the features compared by [AudioSimilarity].
func similarityVector(f AudioFeatures) [6]float64 {
	return [6]float64{
		f.Speechiness,
		f.Acousticness,
		f.Instrumentalness,
		f.Liveness,
		f.Valence,
		f.Tempo,
	}
}

// AudioSimilarity returns the cosine similarity of speechiness,
// acousticness, instrumentalness, liveness, valence and tempo.
// A zero feature vector on either side yields 0.
func AudioSimilarity(a, b AudioFeatures) float64 {
	va, vb := similarityVector(a), similarityVector(b)

	var dot, na, nb float64
	for i := range va {
		dot += va[i] * vb[i]
		na += va[i] * va[i]
		nb += vb[i] * vb[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// GenreSimilarity returns the Jaccard index of the artist genres of a and b.
// Two tracks without any genres score 0.
func GenreSimilarity(a, b Track) float64 {
	ga, gb := a.Genres(), b.Genres()
	union := make(map[string]struct{}, len(ga)+len(gb))
	for g := range ga {
		union[g] = struct{}{}
	}
	inter := 0
	for g := range gb {
		if _, ok := ga[g]; ok {
			inter++
		}
		union[g] = struct{}{}
	}
	if len(union) == 0 {
		return 0
	}
	return float64(inter) / float64(len(union))
}

// Similarity combines audio and genre similarity as
// 0.9*audio + 0.1*genre.
func Similarity(a, b Track) float64 {
	return AudioWeight*AudioSimilarity(a.Features, b.Features) + GenreWeight*GenreSimilarity(a, b)
}
