package normalize

import (
	"regexp"
	"slices"
	"sort"
	"strings"
)

// Variant maps one spelling of a word to its canonical spelling.
type Variant struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// DefaultVariants is the built-in spelling dictionary, in match priority order.
var DefaultVariants = []Variant{
	{"acknowledgment", "acknowledgement"},
	{"analogue", "analog"},
	{"analyse", "analyze"},
	{"artefact", "artifact"},
	{"authorisation", "authorization"},
	{"authorised", "authorized"},
	{"calibre", "caliber"},
	{"cancelled", "canceled"},
	{"capitalisations", "capitalizations"},
	{"catalogue", "catalog"},
	{"categorise", "categorize"},
	{"centre", "center"},
	{"colour", "color"},
	{"emphasised", "emphasized"},
	{"favour", "favor"},
	{"favourite", "favorite"},
	{"fulfil", "fulfill"},
	{"fulfilment", "fulfillment"},
	{"initialise", "initialize"},
	{"judgment", "judgement"},
	{"labelling", "labeling"},
	{"labour", "labor"},
	{"licence", "license"},
	{"maximise", "maximize"},
	{"modelled", "modeled"},
	{"modelling", "modeling"},
	{"offence", "offense"},
	{"optimise", "optimize"},
	{"organisation", "organization"},
	{"organise", "organize"},
	{"practise", "practice"},
	{"programme", "program"},
	{"realise", "realize"},
	{"recognise", "recognize"},
	{"signalling", "signaling"},
	{"sub-license", "sublicense"},
	{"sub license", "sublicense"},
	{"utilisation", "utilization"},
	{"whilst", "while"},
	{"wilful", "wilfull"},
	{"non-commercial", "noncommercial"},
	{"per cent", "percent"},
	{"owner", "holder"},
}

// variantReplacer applies the dictionary one entry at a time, in order, so
// an earlier entry can produce a later key ("sub-licence" becomes
// "sub-license", then "sublicense"). Canonical spellings that contain an
// entry's key ("fulfill" contains "fulfil") are guarded for that entry and
// left alone, which keeps a second run from changing anything.
type variantReplacer struct {
	steps []variantStep
}

type variantStep struct {
	re     *regexp.Regexp
	to     string
	guards map[string]bool
}

func newVariantReplacer(variants []Variant) *variantReplacer {
	vr := &variantReplacer{}
	for _, v := range variants {
		var guards []string
		for _, other := range variants {
			if other.To != v.From && strings.Contains(other.To, v.From) && !slices.Contains(guards, other.To) {
				guards = append(guards, other.To)
			}
		}
		// Longest guard first so it wins over any guard it contains.
		sort.SliceStable(guards, func(i, j int) bool { return len(guards[i]) > len(guards[j]) })

		step := variantStep{to: v.To, guards: make(map[string]bool, len(guards))}
		alts := make([]string, 0, len(guards)+1)
		for _, g := range guards {
			step.guards[g] = true
			alts = append(alts, variantPattern(g))
		}
		alts = append(alts, variantPattern(v.From))
		step.re = regexp.MustCompile(strings.Join(alts, "|"))
		vr.steps = append(vr.steps, step)
	}
	return vr
}

// variantPattern lets multi-word keys match across any white space run.
func variantPattern(key string) string {
	words := strings.Fields(key)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(words, space+"+")
}

// Replace applies the dictionary to lower-cased text.
func (vr *variantReplacer) Replace(text string) string {
	for _, st := range vr.steps {
		text = st.re.ReplaceAllStringFunc(text, func(m string) string {
			if st.guards[strings.Join(strings.Fields(m), " ")] {
				return m
			}
			return st.to
		})
	}
	return text
}
