package identity

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// CanonicalKey derives the deduplication identity for a media item.
// Strong identifiers win: a normalized ASIN produces "asin:<norm>", a
// normalized ISBN produces "isbn:<norm>". Without either, the key falls
// back to a content fingerprint over title, author and integer duration so
// two imports of the same untagged item converge on the same key.
func CanonicalKey(asin, isbn, title, author string, durationSec float64) string {
	if norm := NormalizeIdentifier(asin); norm != "" {
		return "asin:" + norm
	}
	if norm := NormalizeIdentifier(isbn); norm != "" {
		return "isbn:" + norm
	}
	base := fmt.Sprintf("%s|%s|%d",
		strings.ToLower(strings.TrimSpace(title)),
		strings.ToLower(strings.TrimSpace(author)),
		int64(durationSec),
	)
	sum := sha1.Sum([]byte(base))
	return "tad:" + hex.EncodeToString(sum[:])
}

// DedupKey groups collected rows for duplicate merging. Identifier-less
// rows collapse onto a text key built from title, author and year.
func DedupKey(asin, isbn, title, author string, year int) string {
	if norm := NormalizeIdentifier(asin); norm != "" {
		return "asin:" + norm
	}
	if norm := NormalizeIdentifier(isbn); norm != "" {
		return "isbn:" + norm
	}
	return fmt.Sprintf("text:%s|%s|%d", NormalizeTextKey(title), NormalizeTextKey(author), year)
}

// NormalizeIdentifier uppercases and strips everything that is not a
// letter or digit, so " b0ff-1234 " and "B0FF1234" compare equal.
func NormalizeIdentifier(value string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(value)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeTextKey case-folds and collapses interior whitespace.
func NormalizeTextKey(value string) string {
	cleaned := foldCaser.String(strings.TrimSpace(value))
	return whitespaceRe.ReplaceAllString(cleaned, " ")
}

var (
	seriesHashSuffixRe = regexp.MustCompile(`(?i)\s*#\s*\d+\s*$`)
	seriesWordSuffixRe = regexp.MustCompile(`(?i)\s*[,:\-]?\s*(book|band|teil|volume|vol|folge)\s*\d+\s*$`)
)

// NormalizeSeriesGroup strips trailing volume markers from a series name so
// "Auris #1" and "Auris, Book 2" land in the same group. Returns the input
// unchanged when stripping would leave nothing.
func NormalizeSeriesGroup(seriesName string) string {
	raw := strings.TrimSpace(seriesName)
	if raw == "" {
		return ""
	}
	normalized := seriesHashSuffixRe.ReplaceAllString(raw, "")
	normalized = seriesWordSuffixRe.ReplaceAllString(normalized, "")
	normalized = strings.TrimSpace(whitespaceRe.ReplaceAllString(normalized, " "))
	if normalized == "" {
		return raw
	}
	return normalized
}
