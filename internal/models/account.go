package models

import (
	"fmt"
	"strings"
	"time"
)

// SyncAccount is a configured remote library account. The token is stored
// encrypted; empty TargetID means the id is derived from owner and row id.
type SyncAccount struct {
	ID             uint   `gorm:"primaryKey"`
	OwnerUserID    int    `gorm:"column:owner_user_id;uniqueIndex:uniq_account_owner_name;not null"`
	AccountName    string `gorm:"column:account_name;uniqueIndex:uniq_account_owner_name;not null"`
	BaseURL        string `gorm:"column:base_url"`
	Username       string
	TokenEncrypted string `gorm:"column:token_encrypted"`
	TargetID       string `gorm:"column:target_id"`
	ServerID       string `gorm:"column:server_id"`
	PrincipalID    string `gorm:"column:principal_id"`
	Enabled        bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResolveTargetID returns the explicit target id when set, otherwise the
// derived "u<owner>-a<id>" form.
func (a *SyncAccount) ResolveTargetID() string {
	if id := strings.TrimSpace(a.TargetID); id != "" {
		return id
	}
	return fmt.Sprintf("u%d-a%d", a.OwnerUserID, a.ID)
}

// TargetState holds the server/principal/user ids the sync worker observed
// for a target. Read when composing outbox rows.
type TargetState struct {
	ID          uint   `gorm:"primaryKey"`
	TargetID    string `gorm:"column:target_id;uniqueIndex;not null"`
	ServerID    string `gorm:"column:server_id"`
	PrincipalID string `gorm:"column:principal_id"`
	UserID      string `gorm:"column:user_id"`
	UpdatedAt   time.Time
}

// RuntimeSetting is a key/value marker shared with the sync worker.
type RuntimeSetting struct {
	Key       string `gorm:"primaryKey;column:key"`
	Value     string
	UpdatedAt time.Time
}
