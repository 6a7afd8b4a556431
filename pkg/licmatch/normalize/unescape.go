package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cognicore/licmatch/pkg/licmatch/internalerr"
)

// DecodeError reports input that is not valid UTF-8 once escapes are decoded.
type DecodeError struct {
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode input at byte %d: %s", e.Offset, e.Reason)
}

// Unwrap makes errors.Is(err, internalerr.ErrInputDecoding) hold.
func (e *DecodeError) Unwrap() error { return internalerr.ErrInputDecoding }

// Unescape decodes literal backslash sequences (\n, \t, \xHH, \uHHHH, ...)
// written into a license file and returns the resulting UTF-8 text. Unknown
// escapes, and \x, \u or \U sequences that are truncated, not hex, or not a
// valid code point, are kept as written. Only invalid UTF-8 is an error.
func Unescape(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", &DecodeError{Offset: firstInvalid(raw), Reason: "invalid UTF-8"}
	}

	s := string(raw)
	if !strings.Contains(s, `\`) {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			i++
			continue
		}

		next := s[i+1]
		switch next {
		case '\n':
			// line continuation
			i += 2
		case '\\', '\'', '"':
			b.WriteByte(next)
			i += 2
		case 'a':
			b.WriteByte('\a')
			i += 2
		case 'b':
			b.WriteByte('\b')
			i += 2
		case 'f':
			b.WriteByte('\f')
			i += 2
		case 'n':
			b.WriteByte('\n')
			i += 2
		case 'r':
			b.WriteByte('\r')
			i += 2
		case 't':
			b.WriteByte('\t')
			i += 2
		case 'v':
			b.WriteByte('\v')
			i += 2
		case 'x', 'u', 'U':
			width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[next]
			r, ok := hexRune(s, i+2, width)
			if !ok {
				// Not an escape, e.g. a Windows path like C:\Users.
				b.WriteByte(c)
				i++
				continue
			}
			b.WriteRune(r)
			i += 2 + width
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i + 1
			for j < len(s) && j < i+4 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i+1:j], 8, 32)
			b.WriteRune(rune(v))
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), nil
}

func hexRune(s string, start, width int) (rune, bool) {
	if start+width > len(s) {
		return 0, false
	}
	v, err := strconv.ParseUint(s[start:start+width], 16, 32)
	if err != nil {
		return 0, false
	}
	r := rune(v)
	return r, utf8.ValidRune(r)
}

func firstInvalid(raw []byte) int {
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRune(raw[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(raw)
}
