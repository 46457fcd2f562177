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

func newAccountsController(t *testing.T) (*AccountsController, *models.Database) {
	t.Helper()
	db := newTestDatabase(t)
	box := crypto.NewBox("secret")
	dir := t.TempDir()
	writer := targets.NewWriter(db, box,
		filepath.Join(dir, "targets.json"),
		filepath.Join(dir, "sync-now.trigger"),
		testLogger())
	return NewAccountsController(db, box, writer, 900, testLogger()), db
}

func TestDeriveAccountName(t *testing.T) {
	assert.Equal(t, "alice@abs.example.com", DeriveAccountName("https://abs.example.com:443/", "alice"))
	assert.Equal(t, "bob@host", DeriveAccountName("http://host", "bob"))
}

func TestSaveAccountDerivesAndUniquifiesName(t *testing.T) {
	ctrl, _ := newAccountsController(t)

	first, err := ctrl.Save(1, AccountInput{
		URL:      "https://abs.example.com",
		Username: "alice",
		Token:    "tok-1",
		Enabled:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@abs.example.com", first.AccountName)

	second, err := ctrl.Save(1, AccountInput{
		URL:      "https://abs.example.com",
		Username: "alice",
		Token:    "tok-2",
		Enabled:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@abs.example.com-2", second.AccountName)
}

func TestSaveAccountValidation(t *testing.T) {
	ctrl, _ := newAccountsController(t)

	_, err := ctrl.Save(1, AccountInput{Username: "alice", Token: "tok"})
	assert.Error(t, err)

	_, err = ctrl.Save(1, AccountInput{URL: "not a url", Username: "alice", Token: "tok"})
	assert.Error(t, err)

	_, err = ctrl.Save(1, AccountInput{URL: "https://abs.example.com", Token: "tok"})
	assert.Error(t, err)

	// New accounts need a token.
	_, err = ctrl.Save(1, AccountInput{URL: "https://abs.example.com", Username: "alice"})
	assert.Error(t, err)
}

func TestSaveAccountKeepsTokenOnBlankUpdate(t *testing.T) {
	ctrl, db := newAccountsController(t)

	created, err := ctrl.Save(1, AccountInput{
		URL:      "https://abs.example.com",
		Username: "alice",
		Token:    "tok-1",
		Enabled:  true,
	})
	require.NoError(t, err)

	updated, err := ctrl.Save(1, AccountInput{
		ID:       created.ID,
		URL:      "https://abs.example.com",
		Username: "alice",
		Enabled:  false,
	})
	require.NoError(t, err)
	assert.Equal(t, created.TokenEncrypted, updated.TokenEncrypted)
	assert.False(t, updated.Enabled)

	stored, err := db.GetSyncAccountByID(created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEmpty(t, stored.TokenEncrypted)
}

func TestDeleteAccountChecksOwnership(t *testing.T) {
	ctrl, db := newAccountsController(t)

	created, err := ctrl.Save(1, AccountInput{
		URL:      "https://abs.example.com",
		Username: "alice",
		Token:    "tok",
		Enabled:  true,
	})
	require.NoError(t, err)

	assert.Error(t, ctrl.Delete(2, created.ID))
	require.NoError(t, ctrl.Delete(1, created.ID))

	remaining, err := db.GetSyncAccounts(1)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
