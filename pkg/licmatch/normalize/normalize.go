package normalize

import "strings"

// Rule is one named step of the normalization pipeline.
type Rule struct {
	Name  string
	Apply func(string) string
}

// Normalizer turns license text into canonical text by running an ordered
// list of rules. A Normalizer is immutable after construction and safe for
// concurrent use.
type Normalizer struct {
	rules []Rule
}

// Option configures a Normalizer.
type Option func(*options)

type options struct {
	variants []Variant
}

// WithVariants appends spelling variants after the built-in dictionary.
// Keys are matched case-insensitively because the text is lower-cased first.
func WithVariants(extra ...Variant) Option {
	return func(o *options) {
		for _, v := range extra {
			from := strings.ToLower(strings.TrimSpace(v.From))
			to := strings.ToLower(strings.TrimSpace(v.To))
			if from == "" || from == to {
				continue
			}
			o.variants = append(o.variants, Variant{From: from, To: to})
		}
	}
}

// New creates a Normalizer with the default rule order.
func New(opts ...Option) *Normalizer {
	o := options{variants: append([]Variant(nil), DefaultVariants...)}
	for _, opt := range opts {
		opt(&o)
	}
	return &Normalizer{rules: buildRules(o.variants)}
}

// Rules returns a copy of the rule list in execution order.
func (n *Normalizer) Rules() []Rule {
	out := make([]Rule, len(n.rules))
	copy(out, n.rules)
	return out
}

// Normalize runs every rule in order.
func (n *Normalizer) Normalize(text string) string {
	for _, r := range n.rules {
		text = r.Apply(text)
	}
	return text
}

var std = New()

// Normalize canonicalizes text with the default Normalizer.
func Normalize(text string) string {
	return std.Normalize(text)
}

// DefaultRules returns the default pipeline.
func DefaultRules() []Rule {
	return std.Rules()
}

// buildRules assembles the pipeline. Later rules assume the earlier ones ran:
// URLs are replaced before comment stripping so "//" inside links survives,
// and the title check runs after lower-casing.
func buildRules(variants []Variant) []Rule {
	vr := newVariantReplacer(variants)
	return []Rule{
		{Name: "unicode", Apply: ComposeUnicode},
		{Name: "url", Apply: ReplaceURLs},
		{Name: "comments", Apply: StripComments},
		{Name: "end-of-terms", Apply: StripEndOfTerms},
		{Name: "appendix", Apply: StripAppendix},
		{Name: "copyright-symbol", Apply: FixCopyrightSymbol},
		{Name: "copyright-notice", Apply: StripCopyrightNotice},
		{Name: "lowercase", Apply: strings.ToLower},
		{Name: "title", Apply: StripTitle},
		{Name: "bullets", Apply: StripBullets},
		{Name: "variants", Apply: vr.Replace},
		{Name: "whitespace", Apply: CollapseWhitespace},
	}
}
