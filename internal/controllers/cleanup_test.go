package controllers

import (
	"path/filepath"
	"testing"

	"shelftrack/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestDatabase(t *testing.T) *models.Database {
	t.Helper()
	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.EnsureSchema())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDedupKeepsRicherRow(t *testing.T) {
	db := newTestDatabase(t)
	cleanup := NewCleanupController(db, nil, testLogger())

	// Same ASIN on two targets; the collected row with cover wins over the
	// missing bare row: (8+16+4)=28 vs 16.
	require.NoError(t, db.UpsertCollectedItem(&models.CollectedItem{
		OwnerUserID:   1,
		TargetID:      "u1-a1",
		LibraryItemID: "li_rich",
		MediaType:     models.MediaTypeBook,
		Title:         "The Book",
		Author:        "The Author",
		ASIN:          "B0SAME",
		CoverURL:      "https://covers.example.com/1.jpg",
		Status:        models.CollectionStatusCollected,
	}))
	require.NoError(t, db.UpsertCollectedItem(&models.CollectedItem{
		OwnerUserID:   1,
		TargetID:      "u1-a2",
		LibraryItemID: "li_bare",
		MediaType:     models.MediaTypeBook,
		Title:         "The Book",
		Author:        "The Author",
		ASIN:          "B0SAME",
		Status:        models.CollectionStatusMissing,
	}))

	groups, deleted, err := cleanup.DedupOwner(1)
	require.NoError(t, err)
	assert.Equal(t, 1, groups)
	assert.Equal(t, 1, deleted)

	remaining, err := db.GetCollectedBooks(1)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "li_rich", remaining[0].LibraryItemID)

	// A second pass over unchanged state is a no-op.
	groups, deleted, err = cleanup.DedupOwner(1)
	require.NoError(t, err)
	assert.Equal(t, 0, groups)
	assert.Equal(t, 0, deleted)
}

func TestDedupJoinsISBNFromIdentity(t *testing.T) {
	db := newTestDatabase(t)
	cleanup := NewCleanupController(db, nil, testLogger())

	// No ASIN anywhere; both rows share an ISBN only via identity, so they
	// must land in one isbn: group.
	for i, itemID := range []string{"li_1", "li_2"} {
		target := "u1-a1"
		if i == 1 {
			target = "u1-a2"
		}
		require.NoError(t, db.UpsertCollectedItem(&models.CollectedItem{
			OwnerUserID:   1,
			TargetID:      target,
			LibraryItemID: itemID,
			MediaType:     models.MediaTypeBook,
			Title:         "Different Title " + itemID,
			Status:        models.CollectionStatusCollected,
		}))
		require.NoError(t, db.UpsertItemIdentity(&models.ItemIdentity{
			TargetID:      target,
			LibraryItemID: itemID,
			ISBN:          "9781234567890",
		}))
	}

	groups, deleted, err := cleanup.DedupOwner(1)
	require.NoError(t, err)
	assert.Equal(t, 1, groups)
	assert.Equal(t, 1, deleted)
}

func TestDedupLeavesDistinctBooksAlone(t *testing.T) {
	db := newTestDatabase(t)
	cleanup := NewCleanupController(db, nil, testLogger())

	require.NoError(t, db.UpsertCollectedItem(&models.CollectedItem{
		OwnerUserID:   1,
		TargetID:      "u1-a1",
		LibraryItemID: "li_1",
		MediaType:     models.MediaTypeBook,
		Title:         "Book One",
		Author:        "Author",
		Year:          2019,
		Status:        models.CollectionStatusCollected,
	}))
	require.NoError(t, db.UpsertCollectedItem(&models.CollectedItem{
		OwnerUserID:   1,
		TargetID:      "u1-a1",
		LibraryItemID: "li_2",
		MediaType:     models.MediaTypeBook,
		Title:         "Book Two",
		Author:        "Author",
		Year:          2020,
		Status:        models.CollectionStatusCollected,
	}))

	groups, deleted, err := cleanup.DedupOwner(1)
	require.NoError(t, err)
	assert.Equal(t, 0, groups)
	assert.Equal(t, 0, deleted)

	remaining, err := db.GetCollectedBooks(1)
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

func TestScoreCollected(t *testing.T) {
	full := &models.CollectedItem{
		Status:     models.CollectionStatusCollected,
		ASIN:       "B0X",
		CoverURL:   "c",
		SeriesName: "s",
		Year:       2020,
	}
	ident := &models.ItemIdentity{ISBN: "123"}
	assert.Equal(t, 8+16+12+4+2+1, scoreCollected(full, ident))

	bare := &models.CollectedItem{Status: models.CollectionStatusMissing}
	assert.Equal(t, 0, scoreCollected(bare, nil))
}
