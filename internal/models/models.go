package models

import (
	"database/sql"
	"time"
)

// User is a campus member. Seed "system" users (faculty announcements,
// administration) have no email and cannot log in; registered users always
// have one. The password hash never leaves the database layer.
type User struct {
	ID          int       `json:"id"`
	Email       *string   `json:"email"`
	Name        string    `json:"name"`
	Initials    string    `json:"initials"`
	AvatarColor string    `json:"avatarColor"`
	Badge       *string   `json:"badge"`
	Status      string    `json:"status"` // online, offline
	CreatedAt   time.Time `json:"-"`
}

// Message carries a snapshot of the author's display fields taken at
// creation time. Profile changes after posting do not rewrite history.
type Message struct {
	ID             int          `json:"id"`
	UserID         int          `json:"-"`
	Author         string       `json:"author"`
	AuthorInitials string       `json:"authorInitials"`
	AvatarColor    string       `json:"avatarColor"`
	Badge          *string      `json:"badge"`
	BadgeColor     *string      `json:"badgeColor"`
	Timestamp      time.Time    `json:"timestamp"`
	Text           string       `json:"text"`
	Attachments    []Attachment `json:"attachments"`
	Edited         bool         `json:"edited"`
}

// Attachment lives and dies with its message. Data holds the base64 payload
// inline; there is no separate blob store.
type Attachment struct {
	ID        int       `json:"id"`
	MessageID int       `json:"-"`
	Name      string    `json:"name"`
	Size      string    `json:"size"` // display string, e.g. "245 KB"
	Type      string    `json:"type"` // image, pdf, ...
	Data      *string   `json:"data"`
	CreatedAt time.Time `json:"-"`
}

// NullableString converts a scanned sql.NullString into the pointer form the
// JSON models use.
func NullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
