// Package whatsapp adapts whatsmeow to the relay's message boundary: QR
// pairing with a persistent session, inbound text events and outbound sends.
package whatsapp

import (
	"context"
	"fmt"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	waE2E "go.mau.fi/whatsmeow/proto/waE2E"

	_ "github.com/mattn/go-sqlite3" // SQLite driver for the session store.
)

// Message is an inbound WhatsApp text event.
type Message struct {
	Sender   string
	Text     string
	FromSelf bool
}

// Handler receives every inbound text message.
type Handler func(ctx context.Context, msg Message)

type Config struct {
	// SessionPath is the SQLite file holding the pairing session.
	SessionPath string
}

type Channel struct {
	cfg    Config
	client *whatsmeow.Client
	handle Handler
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Channel {
	return &Channel{
		cfg:    cfg,
		logger: logger,
	}
}

// Connect opens the session store and establishes the WhatsApp Web
// connection. Without an existing session the QR code is logged for scanning
// and pairing completes in the background.
func (c *Channel) Connect(ctx context.Context, handle Handler) error {
	c.handle = handle

	container, err := sqlstore.New(ctx, "sqlite3",
		fmt.Sprintf("file:%s?_foreign_keys=1", c.cfg.SessionPath), waLog.Noop)
	if err != nil {
		return fmt.Errorf("creating session store: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return fmt.Errorf("getting device: %w", err)
	}

	c.client = whatsmeow.NewClient(device, waLog.Noop)
	c.client.AddEventHandler(c.handleEvent)
	c.client.EnableAutoReconnect = true

	if c.client.Store.ID == nil {
		qrChan, err := c.client.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("getting QR channel: %w", err)
		}
		if err := c.client.Connect(); err != nil {
			return fmt.Errorf("connecting for QR: %w", err)
		}

		go func() {
			for evt := range qrChan {
				switch evt.Event {
				case "code":
					c.logger.Info("WhatsApp QR ready—scan it!", zap.String("code", evt.Code))
				case "success":
					c.logger.Info("WhatsApp paired")
				default:
					c.logger.Warn("WhatsApp QR login event", zap.String("event", evt.Event))
				}
			}
		}()
		return nil
	}

	if err := c.client.Connect(); err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	return nil
}

// Send delivers a text message to the given JID.
func (c *Channel) Send(recipient, text string) error {
	jid, err := types.ParseJID(recipient)
	if err != nil {
		return fmt.Errorf("invalid JID %q: %w", recipient, err)
	}

	_, err = c.client.SendMessage(context.Background(), jid, &waE2E.Message{
		Conversation: proto.String(text),
	})
	if err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}

// Disconnect closes the WhatsApp connection.
func (c *Channel) Disconnect() {
	if c.client != nil {
		c.client.Disconnect()
	}
}

func (c *Channel) handleEvent(rawEvt interface{}) {
	switch evt := rawEvt.(type) {
	case *events.Message:
		text := extractText(evt.Message)
		if text == "" {
			return
		}
		msg := Message{
			Sender:   evt.Info.Sender.ToNonAD().String(),
			Text:     text,
			FromSelf: evt.Info.IsFromMe,
		}
		go c.handle(context.Background(), msg)

	case *events.Connected:
		c.logger.Info("WhatsApp client ready")

	case *events.Disconnected:
		c.logger.Warn("WhatsApp disconnected")

	case *events.LoggedOut:
		c.logger.Error("WhatsApp logged out, new QR pairing required")
	}
}

func extractText(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}
	if msg.Conversation != nil {
		return msg.GetConversation()
	}
	if msg.ExtendedTextMessage != nil {
		return msg.GetExtendedTextMessage().GetText()
	}
	return ""
}
