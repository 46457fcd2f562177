package controllers

import (
	"fmt"
	"net/url"
	"strings"

	"shelftrack/internal/crypto"
	"shelftrack/internal/models"
	"shelftrack/internal/targets"

	"github.com/sirupsen/logrus"
)

// AccountInput is the save payload for one account
type AccountInput struct {
	ID          uint   `json:"id,omitempty"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Username    string `json:"username"`
	Token       string `json:"token"`
	TargetID    string `json:"target_id"`
	ServerID    string `json:"server_id"`
	PrincipalID string `json:"principal_id"`
	Enabled     bool   `json:"enabled"`
}

// AccountView is an account without its secret
type AccountView struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Username string `json:"username"`
	TargetID string `json:"target_id"`
	Enabled  bool   `json:"enabled"`
	HasToken bool   `json:"has_token"`
}

// AccountsController manages sync accounts and keeps the worker artifacts
// in step
type AccountsController struct {
	db              *models.Database
	box             *crypto.Box
	targetsWriter   *targets.Writer
	defaultInterval int
	logger          *logrus.Logger
}

// NewAccountsController creates a new accounts controller
func NewAccountsController(db *models.Database, box *crypto.Box, targetsWriter *targets.Writer, defaultInterval int, logger *logrus.Logger) *AccountsController {
	return &AccountsController{
		db:              db,
		box:             box,
		targetsWriter:   targetsWriter,
		defaultInterval: defaultInterval,
		logger:          logger,
	}
}

// List returns an owner's accounts without tokens
func (c *AccountsController) List(owner int) ([]AccountView, error) {
	accounts, err := c.db.GetSyncAccounts(owner)
	if err != nil {
		return nil, err
	}
	views := make([]AccountView, 0, len(accounts))
	for _, account := range accounts {
		views = append(views, AccountView{
			ID:       account.ID,
			Name:     account.AccountName,
			URL:      account.BaseURL,
			Username: account.Username,
			TargetID: account.ResolveTargetID(),
			Enabled:  account.Enabled,
			HasToken: account.TokenEncrypted != "",
		})
	}
	return views, nil
}

// Save creates or updates an account. A blank token on update keeps the
// stored one; a blank name is derived from username and host.
func (c *AccountsController) Save(owner int, input AccountInput) (*models.SyncAccount, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(input.URL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("server URL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("server URL %q is not a valid http(s) URL", input.URL)
	}
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}

	var account *models.SyncAccount
	if input.ID != 0 {
		account, err = c.db.GetSyncAccountByID(input.ID)
		if err != nil {
			return nil, err
		}
		if account == nil || account.OwnerUserID != owner {
			return nil, fmt.Errorf("account %d not found", input.ID)
		}
	} else {
		account = &models.SyncAccount{OwnerUserID: owner}
	}

	token := strings.TrimSpace(input.Token)
	if token == "" && account.TokenEncrypted == "" {
		return nil, fmt.Errorf("token is required")
	}
	if token != "" {
		encrypted, err := c.box.Encrypt(token)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt token: %w", err)
		}
		account.TokenEncrypted = encrypted
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = DeriveAccountName(baseURL, username)
	}
	name, err = c.ensureUniqueName(owner, name, account.ID)
	if err != nil {
		return nil, err
	}

	account.AccountName = name
	account.BaseURL = baseURL
	account.Username = username
	account.TargetID = strings.TrimSpace(input.TargetID)
	account.ServerID = strings.TrimSpace(input.ServerID)
	account.PrincipalID = strings.TrimSpace(input.PrincipalID)
	account.Enabled = input.Enabled

	if err := c.db.SaveSyncAccount(account); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"account": account.AccountName,
		"target":  account.ResolveTargetID(),
	}).Info("Account saved")

	c.refreshArtifacts()
	return account, nil
}

// Delete removes an owner's account and rewrites the worker artifacts
func (c *AccountsController) Delete(owner int, id uint) error {
	account, err := c.db.GetSyncAccountByID(id)
	if err != nil {
		return err
	}
	if account == nil || account.OwnerUserID != owner {
		return fmt.Errorf("account %d not found", id)
	}
	if err := c.db.DeleteSyncAccount(id); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	c.logger.WithField("account", account.AccountName).Info("Account deleted")
	c.refreshArtifacts()
	return nil
}

func (c *AccountsController) refreshArtifacts() {
	if err := c.targetsWriter.WriteTargets(); err != nil {
		c.logger.WithError(err).Warn("Failed to rewrite targets file")
	}
	if err := c.targetsWriter.RecalcInterval(c.defaultInterval); err != nil {
		c.logger.WithError(err).Warn("Failed to recalc sync interval")
	}
}

// ensureUniqueName appends -2, -3, ... until the name is free for the
// owner
func (c *AccountsController) ensureUniqueName(owner int, name string, excludeID uint) (string, error) {
	candidate := name
	for suffix := 2; ; suffix++ {
		exists, err := c.db.AccountNameExists(owner, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", name, suffix)
	}
}

// DeriveAccountName builds the default "username@host" account name
func DeriveAccountName(baseURL, username string) string {
	host := baseURL
	if parsed, err := url.Parse(baseURL); err == nil && parsed.Host != "" {
		host = parsed.Hostname()
	}
	return username + "@" + host
}
