package feed

import (
	"strings"
	"testing"
)

func TestRSSParsing(t *testing.T) {
	xmlData := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
  <channel>
    <title>Test Podcast</title>
    <itunes:author>Show Host</itunes:author>
    <item>
      <title>Episode 1: Beginnings</title>
      <guid>guid-ep-1</guid>
      <pubDate>Mon, 01 Jan 2024 12:00:00 +0000</pubDate>
      <itunes:duration>01:02:03</itunes:duration>
      <itunes:image href="https://example.com/ep1.jpg"/>
      <enclosure url="https://example.com/ep1.mp3" type="audio/mpeg"/>
    </item>
    <item>
      <title>Episode 2</title>
      <pubDate>Mon, 08 Jan 2024 12:00:00 +0000</pubDate>
      <itunes:duration>1800</itunes:duration>
      <enclosure url="https://example.com/ep2.png" type="image/png"/>
    </item>
  </channel>
</rss>`

	episodes, err := Parse([]byte(xmlData))
	if err != nil {
		t.Fatalf("Failed to parse RSS: %v", err)
	}
	if len(episodes) != 2 {
		t.Fatalf("Expected 2 episodes, got %d", len(episodes))
	}

	first := episodes[0]
	if first.ID != "guid-ep-1" {
		t.Errorf("Expected guid id, got %q", first.ID)
	}
	if first.Title != "Episode 1: Beginnings" {
		t.Errorf("Title mismatch: %q", first.Title)
	}
	if first.DurationSec != 3723 {
		t.Errorf("Expected 3723 seconds, got %v", first.DurationSec)
	}
	if first.ImageURL != "https://example.com/ep1.jpg" {
		t.Errorf("Image mismatch: %q", first.ImageURL)
	}
	if first.Author != "Show Host" {
		t.Errorf("Expected channel author fallback, got %q", first.Author)
	}

	second := episodes[1]
	if !strings.HasPrefix(second.ID, "itunes:") {
		t.Errorf("Expected synthesized id, got %q", second.ID)
	}
	if len(second.ID) != len("itunes:")+40 {
		t.Errorf("Synthesized id has wrong length: %q", second.ID)
	}
	if second.DurationSec != 1800 {
		t.Errorf("Expected 1800 seconds, got %v", second.DurationSec)
	}
	if second.ImageURL != "https://example.com/ep2.png" {
		t.Errorf("Expected image enclosure fallback, got %q", second.ImageURL)
	}
}

func TestSynthesizedIDStable(t *testing.T) {
	xmlData := `<rss><channel><title>T</title><item><title>Ep</title><pubDate>Mon, 01 Jan 2024 12:00:00 +0000</pubDate></item></channel></rss>`

	first, err := Parse([]byte(xmlData))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	second, err := Parse([]byte(xmlData))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if first[0].ID != second[0].ID {
		t.Errorf("Synthesized ids differ across parses: %q vs %q", first[0].ID, second[0].ID)
	}
}

func TestAtomParsing(t *testing.T) {
	xmlData := `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>atom-1</id>
    <title>An Entry</title>
    <published>2024-02-01T08:00:00Z</published>
    <author><name>Writer</name></author>
  </entry>
</feed>`

	episodes, err := Parse([]byte(xmlData))
	if err != nil {
		t.Fatalf("Failed to parse Atom: %v", err)
	}
	if len(episodes) != 1 {
		t.Fatalf("Expected 1 episode, got %d", len(episodes))
	}
	if episodes[0].ID != "atom-1" {
		t.Errorf("ID mismatch: %q", episodes[0].ID)
	}
	if episodes[0].PublishedAt != "2024-02-01T08:00:00Z" {
		t.Errorf("PublishedAt mismatch: %q", episodes[0].PublishedAt)
	}
	if episodes[0].Author != "Writer" {
		t.Errorf("Author mismatch: %q", episodes[0].Author)
	}
}

func TestUntitledEntriesGetPositionalTitles(t *testing.T) {
	xmlData := `<rss><channel><title>T</title>
  <item><guid>g1</guid><pubDate>Mon, 01 Jan 2024 12:00:00 +0000</pubDate></item>
  <item><title>  </title><guid>g2</guid><pubDate>Mon, 08 Jan 2024 12:00:00 +0000</pubDate></item>
  <item><title>Named</title><guid>g3</guid></item>
</channel></rss>`

	episodes, err := Parse([]byte(xmlData))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(episodes) != 3 {
		t.Fatalf("Expected 3 episodes, got %d", len(episodes))
	}
	if episodes[0].Title != "Episode 1" {
		t.Errorf("Expected positional title, got %q", episodes[0].Title)
	}
	if episodes[1].Title != "Episode 2" {
		t.Errorf("Expected positional title, got %q", episodes[1].Title)
	}
	if episodes[2].Title != "Named" {
		t.Errorf("Real title overwritten: %q", episodes[2].Title)
	}

	atomData := `<feed xmlns="http://www.w3.org/2005/Atom">
  <entry><id>a1</id><published>2024-02-01T08:00:00Z</published></entry>
</feed>`
	episodes, err = Parse([]byte(atomData))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(episodes) != 1 || episodes[0].Title != "Episode 1" {
		t.Errorf("Expected positional title for untitled entry, got %+v", episodes)
	}
}

func TestParseDuration(t *testing.T) {
	cases := map[string]float64{
		"01:02:03": 3723,
		"45:30":    2730,
		"900":      900,
		"":         0,
		"abc":      0,
	}
	for input, want := range cases {
		if got := parseDuration(input); got != want {
			t.Errorf("parseDuration(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestUnrecognizedFormat(t *testing.T) {
	if _, err := Parse([]byte(`{"not": "xml"}`)); err == nil {
		t.Error("Expected error for non-XML input")
	}
}
