// Package domain contains core types for the auth service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// User represents a system user account.
type User struct {
	ID                  snowflake.ID `gorm:"primaryKey" json:"id,string"`
	CompanyID           snowflake.ID `gorm:"column:company_id;not null;index" json:"company_id,string"`
	Name                string       `gorm:"type:text;not null" json:"name"`
	Email               string       `gorm:"column:email;not null;uniqueIndex" json:"email"`
	PasswordHash        *string      `gorm:"type:text" json:"-"`
	Active              bool         `gorm:"column:active;not null;default:true" json:"active"`
	LastPasswordChanged *time.Time   `gorm:"column:last_password_changed" json:"last_password_changed,omitempty"`
	CreatedAt           time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Session represents a persisted login session.
type Session struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	UserID           snowflake.ID `gorm:"column:user_id;not null;index"`
	CompanyID        snowflake.ID `gorm:"column:company_id;not null;index"`
	SessionTokenHash string       `gorm:"column:session_token_hash;type:text;not null;uniqueIndex"`
	UserAgent        string       `gorm:"column:user_agent;type:text"`
	IPAddress        string       `gorm:"column:ip_address;type:text"`
	ExpiresAt        time.Time    `gorm:"column:expires_at;not null;index"`
	RevokedAt        *time.Time   `gorm:"column:revoked_at"`
	CreatedAt        time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
	LastSeenAt       time.Time    `gorm:"column:last_seen_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }

// LoginLog records every login attempt, successful or not.
type LoginLog struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id,string"`
	UserID    *snowflake.ID `gorm:"column:user_id;index" json:"user_id,string,omitempty"`
	Email     string        `gorm:"column:email;not null" json:"email"`
	Success   bool          `gorm:"column:success;not null" json:"success"`
	IPAddress string        `gorm:"column:ip_address;type:text" json:"ip_address"`
	UserAgent string        `gorm:"column:user_agent;type:text" json:"user_agent"`
	CreatedAt time.Time     `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (LoginLog) TableName() string { return "user_login_logs" }
