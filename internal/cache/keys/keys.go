package keys

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// Prefix namespaces every geocode entry; bump the version when Entry changes shape.
const Prefix = "geo:v1:"

// Pattern matches every geocode key, for SCAN-based clearing.
const Pattern = Prefix + "*"

// GeocodeKey derives the Redis key for an exact address string. The readable
// part is lossy; the hash over the untouched input keeps keys distinct.
func GeocodeKey(address string) string {
	label := sanitizeForKey(collapseASCIIWhitespace(address))

	const maxLabelLen = 48
	if len(label) > maxLabelLen {
		label = label[:maxLabelLen]
	}

	sum := xxhash.Sum64String(address)
	return fmt.Sprintf("%s%s:h=%016x", Prefix, label, sum)
}

func sanitizeForKey(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == '_' || r == '-':
			out = r
		default:
			// Any other rune (including non-ASCII) becomes '-'
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

// converts any run of ASCII whitespace to a single space.
func collapseASCIIWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	wasWS := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f' {
			if !wasWS {
				b.WriteByte(' ')
				wasWS = true
			}
			continue
		}
		b.WriteRune(r)
		wasWS = false
	}
	return strings.TrimSpace(b.String())
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r < unicode.MaxASCII && unicode.IsDigit(r))
}
