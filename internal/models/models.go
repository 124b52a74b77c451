package models

import (
	"time"

	"github.com/google/uuid"
)

// Chat roles as the completion service expects them.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Turn is a single role-tagged message in a conversation. Immutable once
// created.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NotificationKind distinguishes reminders from alarms. Both follow the same
// schedule/sweep lifecycle; the kind only varies the delivered message.
type NotificationKind string

const (
	KindReminder NotificationKind = "reminder"
	KindAlarm    NotificationKind = "alarm"
)

// Notification is a pending one-shot message. Each schedule request gets its
// own ID, so two notifications with the same owner and note never collide.
type Notification struct {
	ID     uuid.UUID        `json:"id"`
	Owner  string           `json:"owner"`
	Kind   NotificationKind `json:"kind"`
	Note   string           `json:"note"`
	FireAt time.Time        `json:"fire_at"`
}
