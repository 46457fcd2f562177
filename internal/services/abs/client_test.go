package abs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestFlexFieldParsing(t *testing.T) {
	jsonData := `{
		"id": "li_1",
		"mediaType": "book",
		"media": {
			"metadata": {
				"title": "A Book",
				"authorName": "Someone",
				"publishedYear": "2021",
				"asin": "B0TEST",
				"itunesId": 123456
			},
			"duration": 3600.5
		}
	}`
	var item LibraryItem
	if err := json.Unmarshal([]byte(jsonData), &item); err != nil {
		t.Fatalf("Failed to parse item: %v", err)
	}
	if item.Media.Metadata.PublishedYear != 2021 {
		t.Errorf("Expected year 2021, got %d", item.Media.Metadata.PublishedYear)
	}
	if item.Media.Metadata.ITunesID != "123456" {
		t.Errorf("Expected itunesId '123456', got %q", item.Media.Metadata.ITunesID)
	}

	// Numeric year and string itunesId must parse too
	jsonData = `{"media":{"metadata":{"publishedYear": 1999, "itunesId": "id42"}}}`
	item = LibraryItem{}
	if err := json.Unmarshal([]byte(jsonData), &item); err != nil {
		t.Fatalf("Failed to parse item: %v", err)
	}
	if item.Media.Metadata.PublishedYear != 1999 {
		t.Errorf("Expected year 1999, got %d", item.Media.Metadata.PublishedYear)
	}
	if item.Media.Metadata.ITunesID != "id42" {
		t.Errorf("Expected itunesId 'id42', got %q", item.Media.Metadata.ITunesID)
	}

	// Null and empty values degrade to zero values
	jsonData = `{"media":{"metadata":{"publishedYear": null, "itunesId": ""}}}`
	item = LibraryItem{}
	if err := json.Unmarshal([]byte(jsonData), &item); err != nil {
		t.Fatalf("Failed to parse item: %v", err)
	}
	if item.Media.Metadata.PublishedYear != 0 {
		t.Errorf("Expected zero year, got %d", item.Media.Metadata.PublishedYear)
	}
}

func TestLibraryItemsPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/libraries/lib_1/items" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "200" {
			t.Errorf("Expected limit 200, got %s", got)
		}
		if got := r.URL.Query().Get("minified"); got != "1" {
			t.Errorf("Expected minified 1, got %s", got)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok" {
			t.Errorf("Unexpected auth header %q", auth)
		}
		_ = json.NewEncoder(w).Encode(ItemsPage{
			Results: []LibraryItem{{ID: "li_1"}, {ID: "li_2"}},
			Total:   2,
		})
	}))
	defer server.Close()

	client, err := NewClient(server.URL+"/", "tok", testLogger())
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	page, err := client.LibraryItems(context.Background(), "lib_1", 0)
	if err != nil {
		t.Fatalf("LibraryItems failed: %v", err)
	}
	if len(page.Results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(page.Results))
	}
}

func TestProgressDegradesToNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "tok", testLogger())
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	if progress := client.Progress(context.Background(), "li_1"); progress != nil {
		t.Errorf("Expected nil progress on 404, got %+v", progress)
	}
}

func TestEpisodePublishedAtISO(t *testing.T) {
	episode := Episode{PublishedAt: 1704103200000}
	if got := episode.PublishedAtISO(); got != "2024-01-01T10:00:00" {
		t.Errorf("Unexpected ISO timestamp %q", got)
	}

	fallback := Episode{PubDate: "Mon, 01 Jan 2024 10:00:00 +0000"}
	if got := fallback.PublishedAtISO(); got != "Mon, 01 Jan 2024 10:00:00 +0000" {
		t.Errorf("Expected pubDate fallback, got %q", got)
	}
}

func TestWebURL(t *testing.T) {
	client, err := NewClient("https://abs.example.com/", "tok", testLogger())
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	if got := client.WebURL("li_1"); got != "https://abs.example.com/item/li_1" {
		t.Errorf("Unexpected web URL %q", got)
	}
}
