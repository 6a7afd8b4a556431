package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// URLPlaceholder replaces every link found in a license text.
const URLPlaceholder = "normalized/url"

// CopyrightSymbol is the ASCII form every copyright glyph is folded into.
const CopyrightSymbol = "(C)"

// space matches every rune strings.Fields treats as white space, so the
// patterns below see the same token boundaries the final collapse produces.
const space = `[\t\n\v\f\r \x{85}\p{Z}]`

// hspace is space without the line feed.
const hspace = `[\t\v\f\r \x{85}\p{Z}]`

// bulletMarker is one list marker: 1. a. (1) (a) (iv) or *.
const bulletMarker = `(?:(?:[0-9]+|[a-z])\.|\((?:[0-9]+|[a-z]|[ivx]+)\)|\*)`

var (
	urlPattern        = regexp.MustCompile(`https?://(?:[a-zA-Z0-9$-_@.&+!*(),]|%[0-9a-fA-F]{2})+`)
	commentPattern    = regexp.MustCompile(`(?m)(?://|/\*|#)(?:` + hspace + `+.*)?$`)
	endOfTermsPattern = regexp.MustCompile(`(?is)` + space + `*end` + space + `+of` + space + `+terms` + space + `+and` + space + `+conditions.*`)
	appendixPattern   = regexp.MustCompile(`(?s)(?:APPENDIX|EXHIBIT).*`)
	copyrightSymbols  = regexp.MustCompile(`[©Ⓒⓒ]`)
	copyrightLine     = regexp.MustCompile(`(?m)^.*Copyright.*$`)

	// A run of markers of any style, each followed by white space, is one
	// match, so no marker is left behind for a second pass.
	bulletsPattern = regexp.MustCompile(space + `(?:` + bulletMarker + space + `)+`)
)

// ComposeUnicode applies NFC so composed and decomposed accents compare equal.
func ComposeUnicode(text string) string {
	return norm.NFC.String(text)
}

// ReplaceURLs swaps every link for URLPlaceholder.
func ReplaceURLs(text string) string {
	return urlPattern.ReplaceAllString(text, URLPlaceholder)
}

// StripComments drops code comment markers and the rest of their line, so a
// license pasted into a source header matches its prose form.
func StripComments(text string) string {
	return commentPattern.ReplaceAllString(text, "")
}

// StripEndOfTerms removes everything from "END OF TERMS AND CONDITIONS" on.
func StripEndOfTerms(text string) string {
	return endOfTermsPattern.ReplaceAllString(text, "")
}

// StripAppendix removes everything from an upper-case APPENDIX or EXHIBIT
// heading on.
func StripAppendix(text string) string {
	return appendixPattern.ReplaceAllString(text, "")
}

// FixCopyrightSymbol folds ©, Ⓒ and ⓒ into CopyrightSymbol.
func FixCopyrightSymbol(text string) string {
	return copyrightSymbols.ReplaceAllString(text, CopyrightSymbol)
}

// StripCopyrightNotice blanks every line that carries a "Copyright" notice.
func StripCopyrightNotice(text string) string {
	return copyrightLine.ReplaceAllString(text, "")
}

// StripTitle drops the first line when it names the license. Single-line
// text has no title, which keeps canonical text stable under re-normalization.
func StripTitle(text string) string {
	first, rest, ok := strings.Cut(text, "\n")
	if !ok {
		return text
	}
	if strings.Contains(first, "license") {
		return rest
	}
	return text
}

// StripBullets replaces list markers (1. a. (a) (iv) *) with a single space.
func StripBullets(text string) string {
	return bulletsPattern.ReplaceAllString(text, " ")
}

// CollapseWhitespace joins all whitespace runs into single spaces and trims.
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
