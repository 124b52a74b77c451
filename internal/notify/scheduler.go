// Package notify owns the scheduled-notification engine: pending one-shot
// reminders and alarms drained by a periodic sweep, and per-chat escalation
// timers.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dmwangi/relaybot/internal/models"
)

// Sender delivers a text message to a recipient on some channel.
type Sender interface {
	Send(recipient, text string) error
}

// Scheduler holds pending notifications and fires the due ones on each sweep.
// Reminders and alarms share the same lifecycle; only the delivered message
// differs. Delivery is fire-and-forget: a failed send is logged and the entry
// is still removed.
type Scheduler struct {
	mu          sync.Mutex
	pending     []models.Notification
	sender      Sender
	adminChatID string
	logger      *zap.Logger
}

func NewScheduler(sender Sender, adminChatID string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		sender:      sender,
		adminChatID: adminChatID,
		logger:      logger,
	}
}

// Schedule registers a notification to fire at now+delay and returns it.
// Every call gets a fresh ID, so repeated requests with the same owner and
// note coexist instead of overwriting each other.
func (s *Scheduler) Schedule(owner string, kind models.NotificationKind, note string, delay time.Duration, now time.Time) models.Notification {
	n := models.Notification{
		ID:     uuid.New(),
		Owner:  owner,
		Kind:   kind,
		Note:   note,
		FireAt: now.Add(delay),
	}

	s.mu.Lock()
	s.pending = append(s.pending, n)
	s.mu.Unlock()

	s.logger.Info("Notification scheduled",
		zap.String("id", n.ID.String()),
		zap.String("owner", owner),
		zap.String("kind", string(kind)),
		zap.Time("fire_at", n.FireAt))
	return n
}

// Cancel removes a pending notification by ID. Returns false if it already
// fired or was never scheduled.
func (s *Scheduler) Cancel(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.pending {
		if n.ID == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Sweep delivers every notification whose fire time has passed and removes it
// in the same pass. Due entries fire in insertion order. Runs on a one-minute
// cadence in production; tests call it directly with a fixed clock.
func (s *Scheduler) Sweep(now time.Time) {
	s.mu.Lock()
	var due []models.Notification
	remaining := s.pending[:0]
	for _, n := range s.pending {
		if !n.FireAt.After(now) {
			due = append(due, n)
		} else {
			remaining = append(remaining, n)
		}
	}
	s.pending = remaining
	s.mu.Unlock()

	for _, n := range due {
		s.deliver(n)
	}
}

// Count reports the number of pending notifications, for the health endpoint.
func (s *Scheduler) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *Scheduler) deliver(n models.Notification) {
	text := "⏰ Reminder: " + n.Note
	if n.Kind == models.KindAlarm {
		text = "🔔 ALARM: " + n.Note
	}

	if err := s.sender.Send(n.Owner, text); err != nil {
		s.logger.Error("Failed to deliver notification",
			zap.Error(err),
			zap.String("id", n.ID.String()),
			zap.String("owner", n.Owner))
	}

	if n.Kind == models.KindAlarm && s.adminChatID != "" {
		if err := s.sender.Send(s.adminChatID, "Alarm triggered: "+n.Note); err != nil {
			s.logger.Error("Failed to mirror alarm to admin chat", zap.Error(err))
		}
	}
}
