package router

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dmwangi/relaybot/internal/briefing"
	"github.com/dmwangi/relaybot/internal/conversation"
	"github.com/dmwangi/relaybot/internal/gateway"
	"github.com/dmwangi/relaybot/internal/notify"
)

type sentMessage struct {
	recipient string
	text      string
}

type fakeChannel struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeChannel) Send(recipient, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{recipient, text})
	return nil
}

func (f *fakeChannel) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

// scriptedCompleter replies with a canned text and records requests.
type scriptedCompleter struct {
	mu    sync.Mutex
	reply string
	reqs  []openai.ChatCompletionRequest
}

func (s *scriptedCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: s.reply}},
		},
	}, nil
}

func (s *scriptedCompleter) requests() []openai.ChatCompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]openai.ChatCompletionRequest, len(s.reqs))
	copy(out, s.reqs)
	return out
}

type fakeFetcher struct {
	headlines []string
	calls     int
}

func (f *fakeFetcher) TopHeadlines(context.Context) ([]string, error) {
	f.calls++
	return f.headlines, nil
}

type testHarness struct {
	router    *Router
	store     *conversation.Store
	scheduler *notify.Scheduler
	completer *scriptedCompleter
	whatsapp  *fakeChannel
	telegram  *fakeChannel
	fetcher   *fakeFetcher
}

func newHarness(t *testing.T, cfg Config) *testHarness {
	t.Helper()
	logger := zap.NewNop()

	completer := &scriptedCompleter{reply: "generated reply"}
	gw := gateway.New(completer, gateway.Config{
		Model:              "test-model",
		MaxTokens:          200,
		Temperature:        0.8,
		SummaryTemperature: 0.7,
	}, logger)

	store := conversation.NewStore(50)
	whatsapp := &fakeChannel{}
	telegram := &fakeChannel{}

	scheduler := notify.NewScheduler(telegram, cfg.AdminChatID, logger)
	escalator := notify.NewEscalator(telegram, logger)
	t.Cleanup(escalator.Stop)

	fetcher := &fakeFetcher{headlines: []string{"headline one", "headline two"}}
	pipeline := briefing.New(fetcher, gw, whatsapp, briefing.Config{
		Recipient: "news-target",
		StartHour: 0,
		EndHour:   24,
	}, logger)

	r := New(store, gw, pipeline, scheduler, escalator, whatsapp, telegram, cfg, logger)
	return &testHarness{
		router:    r,
		store:     store,
		scheduler: scheduler,
		completer: completer,
		whatsapp:  whatsapp,
		telegram:  telegram,
		fetcher:   fetcher,
	}
}

func TestWhatsAppAllowListDrop(t *testing.T) {
	h := newHarness(t, Config{
		AllowedNumbers:  []string{"254700111222"},
		EscalationDelay: time.Minute,
	})

	h.router.HandleWhatsApp(context.Background(), WhatsAppMessage{
		Sender: "999888777@s.whatsapp.net",
		Text:   "hello?",
	})

	assert.Empty(t, h.whatsapp.messages())
	assert.Empty(t, h.telegram.messages())
	assert.Equal(t, 0, h.store.Size())
}

func TestWhatsAppSelfOriginatedDrop(t *testing.T) {
	h := newHarness(t, Config{
		AllowedNumbers:  []string{"254700111222"},
		EscalationDelay: time.Minute,
	})

	h.router.HandleWhatsApp(context.Background(), WhatsAppMessage{
		Sender:   "254700111222@s.whatsapp.net",
		Text:     "echo",
		FromSelf: true,
	})

	assert.Empty(t, h.whatsapp.messages())
	assert.Equal(t, 0, h.store.Size())
}

func TestWhatsAppAllowedConversationAndMirror(t *testing.T) {
	h := newHarness(t, Config{
		AllowedNumbers:  []string{"254700111222"},
		AdminChatID:     "admin-9",
		EscalationDelay: time.Minute,
	})

	h.router.HandleWhatsApp(context.Background(), WhatsAppMessage{
		Sender: "254700111222@s.whatsapp.net",
		Text:   "what's up",
	})

	wa := h.whatsapp.messages()
	require.Len(t, wa, 1)
	assert.Equal(t, "254700111222@s.whatsapp.net", wa[0].recipient)
	assert.Equal(t, "generated reply", wa[0].text)

	tg := h.telegram.messages()
	require.Len(t, tg, 1)
	assert.Equal(t, "admin-9", tg[0].recipient)
	assert.Contains(t, tg[0].text, "New WA msg from 254700111222@s.whatsapp.net")
	assert.Contains(t, tg[0].text, "Replied: generated reply")

	assert.Equal(t, 1, h.store.Size())
}

func TestTelegramStartCommand(t *testing.T) {
	h := newHarness(t, Config{EscalationDelay: time.Minute})

	h.router.HandleTelegram(context.Background(), TelegramMessage{ChatID: "42", Text: "/start"})

	tg := h.telegram.messages()
	require.Len(t, tg, 1)
	assert.Contains(t, tg[0].text, "get news with /news")
}

func TestTelegramNewsCommandDeliversToChat(t *testing.T) {
	h := newHarness(t, Config{EscalationDelay: time.Minute})

	h.router.HandleTelegram(context.Background(), TelegramMessage{ChatID: "42", Text: "/news"})

	assert.Equal(t, 1, h.fetcher.calls)
	tg := h.telegram.messages()
	require.Len(t, tg, 1)
	assert.Equal(t, "42", tg[0].recipient)
	assert.Contains(t, tg[0].text, "1. headline one")
}

func TestTelegramReminderCommand(t *testing.T) {
	h := newHarness(t, Config{EscalationDelay: time.Minute})

	h.router.HandleTelegram(context.Background(), TelegramMessage{ChatID: "42", Text: "/reminder 1h Buy milk"})

	tg := h.telegram.messages()
	require.Len(t, tg, 1)
	assert.Equal(t, `Reminder set: "Buy milk" in 1h`, tg[0].text)
	assert.Equal(t, 1, h.scheduler.Count())
}

func TestTelegramReminderUsageErrors(t *testing.T) {
	h := newHarness(t, Config{EscalationDelay: time.Minute})

	h.router.HandleTelegram(context.Background(), TelegramMessage{ChatID: "42", Text: "/reminder"})
	h.router.HandleTelegram(context.Background(), TelegramMessage{ChatID: "42", Text: "/reminder 5x feed cat"})

	tg := h.telegram.messages()
	require.Len(t, tg, 2)
	assert.Contains(t, tg[0].text, "Use: /reminder <time> <note>")
	assert.Equal(t, "Invalid time format! Use Xm, Xh, or Xd.", tg[1].text)
	assert.Equal(t, 0, h.scheduler.Count())
}

func TestTelegramAlarmCommand(t *testing.T) {
	h := newHarness(t, Config{EscalationDelay: time.Minute})

	h.router.HandleTelegram(context.Background(), TelegramMessage{ChatID: "42", Text: "/alarm 10m Wake up!"})

	tg := h.telegram.messages()
	require.Len(t, tg, 1)
	assert.Equal(t, `Alarm set: "Wake up!" in 10m`, tg[0].text)
	assert.Equal(t, 1, h.scheduler.Count())
}

func TestTelegramChatArmsEscalation(t *testing.T) {
	h := newHarness(t, Config{EscalationDelay: 30 * time.Millisecond})

	h.router.HandleTelegram(context.Background(), TelegramMessage{
		ChatID: "42",
		Text:   "Can we meet tomorrow?",
	})

	// The composed system prompt carries the scripted meeting instruction.
	reqs := h.completer.requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Messages[0].Content, "Cool, when and where should we meet?")

	tg := h.telegram.messages()
	require.Len(t, tg, 1)
	assert.Equal(t, "generated reply", tg[0].text)

	// Exactly one escalation nudge after the configured delay.
	require.Eventually(t, func() bool {
		return len(h.telegram.messages()) == 2
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	tg = h.telegram.messages()
	require.Len(t, tg, 2)
	assert.Equal(t, notify.EscalationNudge, tg[1].text)
	assert.Equal(t, "42", tg[1].recipient)
}

func TestConversationWindowBoundsRequest(t *testing.T) {
	h := newHarness(t, Config{EscalationDelay: time.Hour})

	for i := 0; i < 8; i++ {
		h.router.HandleTelegram(context.Background(), TelegramMessage{
			ChatID: "42",
			Text:   "message " + strings.Repeat("x", i+1),
		})
	}

	reqs := h.completer.requests()
	require.Len(t, reqs, 8)
	last := reqs[len(reqs)-1]
	// system + at most 9 prior + the new user turn.
	assert.LessOrEqual(t, len(last.Messages), 11)
	assert.Equal(t, openai.ChatMessageRoleSystem, last.Messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, last.Messages[len(last.Messages)-1].Role)
}
