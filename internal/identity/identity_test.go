package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalKeyPrefersASIN(t *testing.T) {
	key := CanonicalKey("B0CXYZ123", "9781234567890", "Some Title", "Some Author", 3600)
	assert.Equal(t, "asin:B0CXYZ123", key)
}

func TestCanonicalKeyFallsBackToISBN(t *testing.T) {
	key := CanonicalKey("", "978-1-23456-789-0", "Some Title", "Some Author", 3600)
	assert.Equal(t, "isbn:9781234567890", key)
}

func TestCanonicalKeyContentFallback(t *testing.T) {
	key := CanonicalKey("", "", "Some Title", "Some Author", 3600)
	assert.True(t, strings.HasPrefix(key, "tad:"), "expected tad: prefix, got %s", key)
	assert.Len(t, key, len("tad:")+40)

	// Same inputs must converge on the same fingerprint.
	again := CanonicalKey("", "", "Some Title", "Some Author", 3600)
	assert.Equal(t, key, again)

	other := CanonicalKey("", "", "Some Title", "Some Author", 3601)
	assert.NotEqual(t, key, other)
}

func TestCanonicalKeyDeterministic(t *testing.T) {
	cases := []struct {
		asin, isbn, title, author string
		duration                  float64
	}{
		{"B0FF1234", "", "T", "A", 100},
		{"", "12345", "T", "A", 100},
		{"", "", "T", "A", 100},
		{"", "", "", "", 0},
	}
	for _, c := range cases {
		first := CanonicalKey(c.asin, c.isbn, c.title, c.author, c.duration)
		second := CanonicalKey(c.asin, c.isbn, c.title, c.author, c.duration)
		assert.Equal(t, first, second)
	}
}

func TestCanonicalKeyStableUnderNoise(t *testing.T) {
	a := CanonicalKey("b0ff1234", "", "T", "A", 100)
	b := CanonicalKey(" B0FF1234 ", "", "t", "a", 100)
	assert.Equal(t, a, b)
}

func TestNormalizeIdentifier(t *testing.T) {
	assert.Equal(t, "9781234567890", NormalizeIdentifier(" 978-1-23456-789-0 "))
	assert.Equal(t, "B0CXYZ123", NormalizeIdentifier("b0cxyz123"))
	assert.Equal(t, "", NormalizeIdentifier("  --  "))
}

func TestDedupKey(t *testing.T) {
	assert.Equal(t, "asin:B0X", DedupKey("b0x", "123", "T", "A", 2020))
	assert.Equal(t, "isbn:123", DedupKey("", "1-2 3", "T", "A", 2020))
	assert.Equal(t, "text:the title|the author|2020", DedupKey("", "", " The  Title ", "The Author", 2020))
	assert.Equal(t, "text:t|a|0", DedupKey("", "", "T", "A", 0))
}

func TestNormalizeSeriesGroup(t *testing.T) {
	cases := map[string]string{
		"Auris #1":        "Auris",
		"Saga, Book 2":    "Saga",
		"Reihe - Band 3":  "Reihe",
		"Series Vol 12":   "Series",
		"Krimi Folge 4":   "Krimi",
		"Plain Series":    "Plain Series",
		"  Spaced   Out ": "Spaced Out",
		"":                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeSeriesGroup(in), "input %q", in)
	}
}
