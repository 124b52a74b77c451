package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// EscalationNudge is sent once after a reply if the user stays quiet.
const EscalationNudge = `Still here? Say "escalate" to ping OP-88!`

// Escalator arms one follow-up timer per chat. Re-arming a chat cancels the
// stale timer first, so a user who keeps talking only ever has one pending
// nudge.
type Escalator struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	sender Sender
	logger *zap.Logger
}

func NewEscalator(sender Sender, logger *zap.Logger) *Escalator {
	return &Escalator{
		timers: make(map[string]*time.Timer),
		sender: sender,
		logger: logger,
	}
}

// Arm schedules the escalation nudge for the chat after delay, replacing any
// timer already pending for it.
func (e *Escalator) Arm(chatID string, delay time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t, ok := e.timers[chatID]; ok {
		t.Stop()
	}
	e.timers[chatID] = time.AfterFunc(delay, func() {
		e.fire(chatID)
	})
}

// Disarm cancels the pending nudge for the chat, if any.
func (e *Escalator) Disarm(chatID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t, ok := e.timers[chatID]; ok {
		t.Stop()
		delete(e.timers, chatID)
	}
}

// Stop cancels every pending timer. Used at shutdown.
func (e *Escalator) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for chatID, t := range e.timers {
		t.Stop()
		delete(e.timers, chatID)
	}
}

func (e *Escalator) fire(chatID string) {
	e.mu.Lock()
	delete(e.timers, chatID)
	e.mu.Unlock()

	if err := e.sender.Send(chatID, EscalationNudge); err != nil {
		e.logger.Error("Failed to send escalation nudge",
			zap.Error(err),
			zap.String("chat_id", chatID))
	}
}
