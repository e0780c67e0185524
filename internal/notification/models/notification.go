package models

import (
	"time"

	id "grameengo/pkg/domain"
	dErrors "grameengo/pkg/domain-errors"
)

type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeInfo, TypeSuccess, TypeWarning, TypeError:
		return true
	}
	return false
}

// Notification is one message addressed to one user. Read flips once and
// stays set.
type Notification struct {
	ID          id.NotificationID `json:"id"`
	RecipientID id.UserID         `json:"recipient_id"`
	Title       string            `json:"title"`
	Message     string            `json:"message"`
	Type        Type              `json:"type"`
	Read        bool              `json:"read"`
	Link        string            `json:"link,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Draft is what a producer hands to the emitter. ID and CreatedAt are
// assigned on emit.
type Draft struct {
	RecipientID id.UserID
	Title       string
	Message     string
	Type        Type
	Link        string
}

func NewNotification(nID id.NotificationID, d Draft, now time.Time) (*Notification, error) {
	if nID.IsNil() || d.RecipientID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "notification requires id and recipient")
	}
	if d.Title == "" || d.Message == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "notification requires title and message")
	}
	typ := d.Type
	if typ == "" {
		typ = TypeInfo
	}
	if !typ.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown notification type "+string(typ))
	}
	return &Notification{
		ID:          nID,
		RecipientID: d.RecipientID,
		Title:       d.Title,
		Message:     d.Message,
		Type:        typ,
		Link:        d.Link,
		CreatedAt:   now,
	}, nil
}
