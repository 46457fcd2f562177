package sequence

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEpisodeNumber(t *testing.T) {
	cases := []struct {
		title  string
		number int
		ok     bool
	}{
		{"S01E04 - The Heist", 4, true},
		{"s2e12 finale", 12, true},
		{"Episode 7: The Return", 7, true},
		{"ep 23", 23, true},
		{"Folge #3 Irgendwas", 3, true},
		{"12 - Cold Open", 12, true},
		{"5: Intro", 5, true},
		{"3. Kapitel", 3, true},
		{"Bonus Material", 0, false},
		{"", 0, false},
		{"Top 10 Moments", 10, true}, // "ep" inside "Top"? no: matches nothing; leading-number no. Actually no pattern matches.
	}
	for _, c := range cases {
		number, ok := EpisodeNumber(c.title)
		if c.title == "Top 10 Moments" {
			// No pattern should fire for an interior number.
			assert.False(t, ok, "title %q", c.title)
			continue
		}
		assert.Equal(t, c.ok, ok, "title %q", c.title)
		if c.ok {
			assert.Equal(t, c.number, number, "title %q", c.title)
		}
	}
}

func TestParsePublishedTime(t *testing.T) {
	iso := ParsePublishedTime("2024-03-01T10:00:00Z")
	isoNoZone := ParsePublishedTime("2024-03-01T10:00:00")
	assert.Equal(t, iso, isoNoZone)

	rfc := ParsePublishedTime("Fri, 01 Mar 2024 10:00:00 +0000")
	assert.Equal(t, iso, rfc)

	assert.Equal(t, int64(timeUnknown), ParsePublishedTime("not a date"))
	assert.Equal(t, int64(timeUnknown), ParsePublishedTime(""))
}

func TestOrderingNumberedBeforeUnnumbered(t *testing.T) {
	titles := []string{"Bonus", "Episode 10", "Episode 2"}
	keys := make([]Key, len(titles))
	for i, title := range titles {
		keys[i] = NewKey(title, "2024-01-01T00:00:00Z")
	}
	sort.Slice(titles, func(i, j int) bool { return keys[i].Less(keys[j]) })

	// Numeric, not lexicographic: 2 before 10; unnumbered last.
	assert.Equal(t, []string{"Episode 2", "Episode 10", "Bonus"}, titles)
}

func TestOrderingUnnumberedByDateThenTitle(t *testing.T) {
	early := NewKey("Zebra Special", "2024-01-01T00:00:00Z")
	late := NewKey("Alpha Special", "2024-06-01T00:00:00Z")
	assert.True(t, early.Less(late))
	assert.False(t, late.Less(early))

	sameDateA := NewKey("Alpha", "2024-01-01T00:00:00Z")
	sameDateB := NewKey("Beta", "2024-01-01T00:00:00Z")
	assert.True(t, sameDateA.Less(sameDateB))
}

func TestOrderingStrict(t *testing.T) {
	key := NewKey("Episode 3", "2024-01-01T00:00:00Z")
	assert.False(t, key.Less(key))
}
