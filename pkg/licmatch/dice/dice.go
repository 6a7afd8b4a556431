// Package dice implements the Sorensen-Dice coefficient over bigram multisets.
package dice

import (
	"slices"

	"github.com/cognicore/licmatch/pkg/licmatch/bigram"
)

// Score returns 2|A∩B| / (|A|+|B|) for two bigram multisets, in [0, 1].
//
// Empty input scores 0. Identical sequences score 1 without sorting. When the
// sequences differ and either holds a single bigram there is nothing to
// partially match, so the score is 0. Otherwise both sides are sorted (on
// copies; the arguments are not modified) and matched with a merge-join.
func Score(a, b []bigram.Bigram) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	if slices.Equal(a, b) {
		return 1.0
	}
	if len(a) == 1 || len(b) == 1 {
		return 0.0
	}

	as := sorted(a)
	bs := sorted(b)

	matches := 0
	i, j := 0, 0
	for i < len(as) && j < len(bs) {
		switch {
		case as[i] == bs[j]:
			matches += 2
			i++
			j++
		case as[i].Less(bs[j]):
			i++
		default:
			j++
		}
	}
	return float64(matches) / float64(len(as)+len(bs))
}

// ScoreText scores two canonical texts using the given bigram mode.
func ScoreText(a, b string, mode bigram.Mode) float64 {
	return Score(mode.Generate(a), mode.Generate(b))
}

func sorted(in []bigram.Bigram) []bigram.Bigram {
	out := slices.Clone(in)
	slices.SortFunc(out, compare)
	return out
}

func compare(x, y bigram.Bigram) int {
	switch {
	case x.Less(y):
		return -1
	case y.Less(x):
		return 1
	default:
		return 0
	}
}
