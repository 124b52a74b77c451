package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/dmwangi/relaybot/internal/briefing"
	"github.com/dmwangi/relaybot/internal/channel/telegram"
	"github.com/dmwangi/relaybot/internal/channel/whatsapp"
	"github.com/dmwangi/relaybot/internal/conversation"
	"github.com/dmwangi/relaybot/internal/gateway"
	"github.com/dmwangi/relaybot/internal/health"
	"github.com/dmwangi/relaybot/internal/news"
	"github.com/dmwangi/relaybot/internal/notify"
	"github.com/dmwangi/relaybot/internal/router"
	"github.com/dmwangi/relaybot/pkg/config"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration (.env file is optional)
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Transports
	tg, err := telegram.New(cfg.Telegram.Token, logger)
	if err != nil {
		logger.Fatal("Failed to create telegram channel", zap.Error(err))
	}

	wa := whatsapp.New(whatsapp.Config{SessionPath: cfg.WhatsApp.SessionPath}, logger)

	// Core components
	store := conversation.NewStore(conversation.DefaultMaxTurns)

	gw := gateway.New(
		gateway.NewOpenRouterClient(cfg.OpenRouter.APIKey, cfg.OpenRouter.BaseURL),
		gateway.Config{
			Model:              cfg.OpenRouter.Model,
			MaxTokens:          cfg.OpenRouter.MaxTokens,
			Temperature:        cfg.OpenRouter.Temperature,
			SummaryTemperature: cfg.OpenRouter.SummaryTemperature,
		},
		logger,
	)

	scheduler := notify.NewScheduler(tg, cfg.Telegram.AdminChatID, logger)
	escalator := notify.NewEscalator(tg, logger)

	newsClient := news.NewClient(news.Config{
		APIKey:   cfg.News.APIKey,
		Country:  cfg.News.Country,
		Language: cfg.News.Language,
		Category: cfg.News.Category,
	})

	pipeline := briefing.New(newsClient, gw, wa, briefing.Config{
		Recipient: cfg.News.Recipient,
		StartHour: cfg.News.StartHour,
		EndHour:   cfg.News.EndHour,
	}, logger)

	rt := router.New(store, gw, pipeline, scheduler, escalator, wa, tg, router.Config{
		AllowedNumbers:  cfg.WhatsApp.AllowedNumbers,
		AdminChatID:     cfg.Telegram.AdminChatID,
		EscalationDelay: cfg.Escalation.Delay,
	}, logger)

	// Recurring jobs: reminder sweep every minute, news briefing hourly
	clock := cron.New()
	if _, err := clock.AddFunc("* * * * *", func() {
		scheduler.Sweep(time.Now())
	}); err != nil {
		logger.Fatal("Failed to schedule reminder sweep", zap.Error(err))
	}
	if cfg.News.Recipient != "" {
		if _, err := clock.AddFunc("5 * * * *", func() {
			pipeline.Run(ctx, time.Now())
		}); err != nil {
			logger.Fatal("Failed to schedule news briefing", zap.Error(err))
		}
	}
	clock.Start()

	// Health endpoint
	healthSrv := health.New(cfg.Server.Port, store.Size, scheduler.Count, logger)
	go func() {
		if err := healthSrv.Start(); err != nil {
			logger.Error("Health server error", zap.Error(err))
		}
	}()

	// Start transports
	if err := wa.Connect(ctx, func(ctx context.Context, msg whatsapp.Message) {
		rt.HandleWhatsApp(ctx, router.WhatsAppMessage{
			Sender:   msg.Sender,
			Text:     msg.Text,
			FromSelf: msg.FromSelf,
		})
	}); err != nil {
		logger.Fatal("Failed to connect WhatsApp", zap.Error(err))
	}

	go tg.Start(ctx, func(ctx context.Context, chatID, text string) {
		rt.HandleTelegram(ctx, router.TelegramMessage{ChatID: chatID, Text: text})
	})

	logger.Info("Relay bot running", zap.Int("port", cfg.Server.Port))

	<-ctx.Done()
	logger.Info("Shutting down")

	clock.Stop()
	escalator.Stop()
	tg.Stop()
	wa.Disconnect()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Health server shutdown error", zap.Error(err))
	}
}
