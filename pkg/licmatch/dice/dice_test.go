package dice

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/cognicore/licmatch/pkg/licmatch/bigram"
	"github.com/cognicore/licmatch/pkg/licmatch/normalize"
)

func words(s string) []bigram.Bigram { return bigram.Words(s) }

func TestScoreEdgeCases(t *testing.T) {
	tests := []struct {
		name string
		a, b []bigram.Bigram
		want float64
	}{
		{"both empty", nil, nil, 0.0},
		{"left empty", nil, words("a b c"), 0.0},
		{"right empty", words("a b c"), []bigram.Bigram{}, 0.0},
		{"identical", words("a b c"), words("a b c"), 1.0},
		{"identical single", words("a b"), words("a b"), 1.0},
		{"single differs", words("a b"), words("a b c"), 0.0},
		{"disjoint", words("a b c"), words("x y z"), 0.0},
		{"same multiset reordered", words("b c a b"), words("a b c a"), 1.0},
		{"half overlap", words("a b c d e"), words("a b c x y"), 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Score = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreDoesNotMutate(t *testing.T) {
	a := words("z y x w")
	b := words("a b c d")
	before := append([]bigram.Bigram(nil), a...)
	Score(a, b)
	for i := range a {
		if a[i] != before[i] {
			t.Fatal("Score must not reorder its arguments")
		}
	}
}

func TestScoreSymmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		a := randomBigrams(rng)
		b := randomBigrams(rng)
		if ab, ba := Score(a, b), Score(b, a); ab != ba {
			t.Fatalf("Score not symmetric: %v vs %v for %v / %v", ab, ba, a, b)
		}
	}
}

func TestScoreIdentity(t *testing.T) {
	texts := []string{
		"MIT License\n\nPermission is hereby granted, free of charge.",
		"Redistribution and use in source and binary forms are permitted.",
		"two words",
	}
	for _, x := range texts {
		bg := bigram.Words(normalize.Normalize(x))
		if got := Score(bg, bigram.Words(normalize.Normalize(x))); got != 1.0 {
			t.Errorf("Score(x, x) = %v for %q", got, x)
		}
	}
}

func TestScoreText(t *testing.T) {
	if got := ScoreText("night", "nacht", bigram.ModeChar); math.Abs(got-0.25) > 1e-9 {
		t.Errorf("char mode ScoreText = %v, want 0.25", got)
	}
	if got := ScoreText("the quick fox", "the quick fox", bigram.ModeWord); got != 1.0 {
		t.Errorf("word mode ScoreText = %v", got)
	}
}

func FuzzScoreBounds(f *testing.F) {
	f.Add("a b c d", "a b x y")
	f.Add("", "a")
	f.Add("x x x x", "x x")
	f.Fuzz(func(t *testing.T, a, b string) {
		s := Score(bigram.Words(a), bigram.Words(b))
		if s < 0 || s > 1 || math.IsNaN(s) {
			t.Fatalf("Score(%q, %q) = %v out of bounds", a, b, s)
		}
	})
}

func TestScoreBoundsRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		s := Score(randomBigrams(rng), randomBigrams(rng))
		if s < 0 || s > 1 {
			t.Fatalf("score %v out of [0,1]", s)
		}
	}
}

func randomBigrams(rng *rand.Rand) []bigram.Bigram {
	vocab := []string{"the", "license", "software", "holder", "permission", "copy"}
	n := rng.Intn(12)
	toks := make([]string, n)
	for i := range toks {
		toks[i] = vocab[rng.Intn(len(vocab))]
	}
	return bigram.Words(strings.Join(toks, " "))
}
