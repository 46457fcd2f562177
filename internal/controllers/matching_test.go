package controllers

import (
	"path/filepath"
	"testing"

	"shelftrack/internal/crypto"
	"shelftrack/internal/models"
	"shelftrack/internal/targets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMatchingController(t *testing.T) (*MatchingController, *models.Database) {
	t.Helper()
	db := newTestDatabase(t)
	box := crypto.NewBox("secret")
	dir := t.TempDir()
	writer := targets.NewWriter(db, box,
		filepath.Join(dir, "targets.json"),
		filepath.Join(dir, "sync-now.trigger"),
		testLogger())
	return NewMatchingController(db, writer, testLogger()), db
}

func TestUnmatchedContract(t *testing.T) {
	ctrl, db := newMatchingController(t)

	// No identifiers anywhere: unmatched.
	seedBook(t, db, "u1-a1", "li_bare", "Bare Book", "", 0)

	// ASIN on the collected row only: matched.
	require.NoError(t, db.UpsertCollectedItem(&models.CollectedItem{
		OwnerUserID:   1,
		TargetID:      "u1-a1",
		LibraryItemID: "li_asin",
		MediaType:     models.MediaTypeBook,
		Title:         "ASIN Book",
		ASIN:          "B0X",
		Status:        models.CollectionStatusCollected,
	}))

	// ISBN only via identity: matched.
	seedBook(t, db, "u1-a1", "li_isbn", "ISBN Book", "", 0)
	require.NoError(t, db.UpsertItemIdentity(&models.ItemIdentity{
		TargetID:      "u1-a1",
		LibraryItemID: "li_isbn",
		ISBN:          "9781234567890",
	}))

	rows, err := ctrl.Rows(1)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	byItem := map[string]MatchingRow{}
	for _, row := range rows {
		byItem[row.LibraryItemID] = row
	}
	assert.True(t, byItem["li_bare"].Unmatched)
	assert.False(t, byItem["li_asin"].Unmatched)
	assert.False(t, byItem["li_isbn"].Unmatched)
}

func TestManualMatchMergesIdentity(t *testing.T) {
	ctrl, db := newMatchingController(t)

	require.NoError(t, db.UpsertItemIdentity(&models.ItemIdentity{
		TargetID:      "u1-a1",
		LibraryItemID: "li_ref",
		CanonicalKey:  "asin:B0REF",
		ASIN:          "B0REF",
		Title:         "Reference Title",
		Author:        "Reference Author",
		Year:          2019,
		DurationSec:   3600,
	}))
	require.NoError(t, db.UpsertItemIdentity(&models.ItemIdentity{
		TargetID:      "u1-a2",
		LibraryItemID: "li_src",
		Title:         "Source Title",
	}))

	require.NoError(t, ctrl.ManualMatch(1, "u1-a2", "li_src", "u1-a1", "li_ref"))

	merged, err := db.GetItemIdentity("u1-a2", "li_src")
	require.NoError(t, err)
	require.NotNil(t, merged)
	assert.Equal(t, "asin:B0REF", merged.CanonicalKey)
	assert.Equal(t, "B0REF", merged.ASIN)
	// Existing source fields are not overwritten.
	assert.Equal(t, "Source Title", merged.Title)
	assert.Equal(t, "Reference Author", merged.Author)
	assert.Equal(t, 2019, merged.Year)
}

func TestManualMatchCreatesMissingSourceIdentity(t *testing.T) {
	ctrl, db := newMatchingController(t)

	require.NoError(t, db.UpsertItemIdentity(&models.ItemIdentity{
		TargetID:      "u1-a1",
		LibraryItemID: "li_ref",
		ASIN:          "B0REF",
		Title:         "Reference Title",
		Author:        "Reference Author",
		DurationSec:   100,
	}))

	require.NoError(t, ctrl.ManualMatch(1, "u1-a2", "li_new", "u1-a1", "li_ref"))

	created, err := db.GetItemIdentity("u1-a2", "li_new")
	require.NoError(t, err)
	require.NotNil(t, created)
	// The reference had no canonical key, so one is derived from its
	// fields.
	assert.Equal(t, "asin:B0REF", created.CanonicalKey)
}

func TestManualMatchRequiresReference(t *testing.T) {
	ctrl, _ := newMatchingController(t)
	assert.Error(t, ctrl.ManualMatch(1, "u1-a2", "li_src", "u1-a1", "nope"))
}
