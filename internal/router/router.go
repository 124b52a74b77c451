// Package router dispatches inbound messages from both chat channels to the
// conversation pipeline, the command handlers and the notification engine.
package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dmwangi/relaybot/internal/briefing"
	"github.com/dmwangi/relaybot/internal/conversation"
	"github.com/dmwangi/relaybot/internal/gateway"
	"github.com/dmwangi/relaybot/internal/models"
	"github.com/dmwangi/relaybot/internal/notify"
	"github.com/dmwangi/relaybot/internal/timeparse"
)

// DefaultWindowSize is how many turns, including the new user turn, go into
// a completion request.
const DefaultWindowSize = 10

const welcomeMessage = "Hey! I'm your AI agent—chat, set reminders, or get news with /news!"

// WhatsAppMessage is an inbound event from the WhatsApp channel. Sender is
// the platform-qualified JID.
type WhatsAppMessage struct {
	Sender   string
	Text     string
	FromSelf bool
}

// TelegramMessage is an inbound event from the Telegram channel.
type TelegramMessage struct {
	ChatID string
	Text   string
}

type Config struct {
	AllowedNumbers  []string
	AdminChatID     string
	EscalationDelay time.Duration
	WindowSize      int
}

type Router struct {
	store     *conversation.Store
	gateway   *gateway.Gateway
	briefing  *briefing.Pipeline
	scheduler *notify.Scheduler
	escalator *notify.Escalator
	whatsapp  notify.Sender
	telegram  notify.Sender
	allowed   map[string]struct{}
	cfg       Config
	logger    *zap.Logger
}

func New(
	store *conversation.Store,
	gw *gateway.Gateway,
	pipeline *briefing.Pipeline,
	scheduler *notify.Scheduler,
	escalator *notify.Escalator,
	whatsapp notify.Sender,
	telegram notify.Sender,
	cfg Config,
	logger *zap.Logger,
) *Router {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedNumbers))
	for _, n := range cfg.AllowedNumbers {
		n = strings.TrimSpace(n)
		if n != "" {
			allowed[n] = struct{}{}
		}
	}
	return &Router{
		store:     store,
		gateway:   gw,
		briefing:  pipeline,
		scheduler: scheduler,
		escalator: escalator,
		whatsapp:  whatsapp,
		telegram:  telegram,
		allowed:   allowed,
		cfg:       cfg,
		logger:    logger,
	}
}

// HandleWhatsApp routes an inbound WhatsApp message: drops self-originated
// traffic and senders outside the allow-list, otherwise replies through the
// conversation pipeline and mirrors the exchange to the admin chat.
func (r *Router) HandleWhatsApp(ctx context.Context, msg WhatsAppMessage) {
	if msg.FromSelf {
		return
	}

	number := msg.Sender
	if i := strings.IndexByte(number, '@'); i >= 0 {
		number = number[:i]
	}
	if _, ok := r.allowed[number]; !ok {
		r.logger.Info("Ignored message from sender not in allow-list",
			zap.String("sender", msg.Sender))
		return
	}

	reply := r.converse(ctx, "whatsapp", msg.Sender, msg.Text)
	if err := r.whatsapp.Send(msg.Sender, reply); err != nil {
		r.logger.Error("Failed to send WhatsApp reply",
			zap.Error(err),
			zap.String("sender", msg.Sender))
	}
	r.logger.Info("WhatsApp reply sent",
		zap.String("sender", msg.Sender),
		zap.String("reply", truncate(reply, 50)))

	if r.cfg.AdminChatID != "" {
		mirror := fmt.Sprintf("New WA msg from %s: %s\nReplied: %s", msg.Sender, msg.Text, reply)
		if err := r.telegram.Send(r.cfg.AdminChatID, mirror); err != nil {
			r.logger.Error("Failed to mirror exchange to admin chat", zap.Error(err))
		}
	}
}

// HandleTelegram routes an inbound Telegram message: slash commands go to
// their handlers, anything else through the conversation pipeline followed by
// arming the escalation timer.
func (r *Router) HandleTelegram(ctx context.Context, msg TelegramMessage) {
	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "/") {
		r.handleCommand(ctx, msg.ChatID, text)
		return
	}

	reply := r.converse(ctx, "telegram", msg.ChatID, text)
	r.reply(msg.ChatID, reply)
	r.escalator.Arm(msg.ChatID, r.cfg.EscalationDelay)
}

func (r *Router) handleCommand(ctx context.Context, chatID, text string) {
	fields := strings.Fields(text)
	command := fields[0]
	// Commands may arrive as /news@botname in group chats.
	if i := strings.IndexByte(command, '@'); i >= 0 {
		command = command[:i]
	}

	switch command {
	case "/start":
		r.reply(chatID, welcomeMessage)
	case "/news":
		outcome := r.briefing.RunTo(ctx, time.Now(), r.telegram, chatID)
		r.logger.Info("On-demand briefing finished",
			zap.String("chat_id", chatID),
			zap.String("outcome", string(outcome)))
	case "/reminder":
		r.handleSchedule(chatID, models.KindReminder, fields[1:])
	case "/alarm":
		r.handleSchedule(chatID, models.KindAlarm, fields[1:])
	default:
		r.logger.Info("Ignoring unknown command", zap.String("command", command))
	}
}

func (r *Router) handleSchedule(chatID string, kind models.NotificationKind, args []string) {
	if len(args) < 2 {
		r.reply(chatID, fmt.Sprintf("Use: /%s <time> <note>, e.g., /%s 1h Buy milk", kind, kind))
		return
	}

	delay, err := timeparse.Parse(args[0])
	if err != nil {
		r.reply(chatID, "Invalid time format! Use Xm, Xh, or Xd.")
		return
	}

	note := strings.Join(args[1:], " ")
	r.scheduler.Schedule(chatID, kind, note, delay, time.Now())

	label := "Reminder"
	if kind == models.KindAlarm {
		label = "Alarm"
	}
	r.reply(chatID, fmt.Sprintf("%s set: %q in %s", label, note, args[0]))
}

// converse appends the user turn, windows the recent history and produces a
// reply through the completion gateway, recording the assistant turn.
func (r *Router) converse(ctx context.Context, platform, userID, text string) string {
	prior := r.store.Window(userID, r.cfg.WindowSize-1)
	r.store.Append(userID, models.RoleUser, text)

	reply := r.gateway.Complete(ctx, r.gateway.SystemPrompt(platform, text), prior, text)
	r.store.Append(userID, models.RoleAssistant, reply)
	return reply
}

func (r *Router) reply(chatID, text string) {
	if err := r.telegram.Send(chatID, text); err != nil {
		r.logger.Error("Failed to send Telegram reply",
			zap.Error(err),
			zap.String("chat_id", chatID))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
