// Package briefing runs the recurring news digest: fetch headlines, summarize
// them through the completion gateway and deliver the composed message.
package briefing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dmwangi/relaybot/internal/notify"
)

// maxHeadlines caps how many fetched titles make it into a digest.
const maxHeadlines = 5

const (
	NoNewsMessage   = "⚠️ No fresh news available right now."
	DegradedMessage = "⚠️ Something went wrong while trying to send today's news."
)

// Outcome reports what a pipeline run did.
type Outcome string

const (
	OutcomeSkipped   Outcome = "skipped"
	OutcomeNoNews    Outcome = "no_news"
	OutcomeDelivered Outcome = "delivered"
	OutcomeDegraded  Outcome = "degraded"
)

// Fetcher resolves headline titles in source order.
type Fetcher interface {
	TopHeadlines(ctx context.Context) ([]string, error)
}

// Summarizer condenses headlines into bullet points, degrading to a fixed
// placeholder on failure.
type Summarizer interface {
	Summarize(ctx context.Context, headlines []string) string
}

type Config struct {
	Recipient string
	StartHour int
	EndHour   int
}

type Pipeline struct {
	fetcher    Fetcher
	summarizer Summarizer
	sender     notify.Sender
	cfg        Config
	logger     *zap.Logger
}

func New(fetcher Fetcher, summarizer Summarizer, sender notify.Sender, cfg Config, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		fetcher:    fetcher,
		summarizer: summarizer,
		sender:     sender,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run executes one digest cycle for the configured recipient. Triggered
// hourly by the cron clock.
func (p *Pipeline) Run(ctx context.Context, now time.Time) Outcome {
	return p.RunTo(ctx, now, p.sender, p.cfg.Recipient)
}

// RunTo executes one digest cycle for an arbitrary recipient, used by the
// /news command to deliver into the requesting chat. Outside the active-hours
// window [StartHour, EndHour) it short-circuits without fetching. Fetch
// failures degrade to a fixed delivery instead of failing the caller.
func (p *Pipeline) RunTo(ctx context.Context, now time.Time, sender notify.Sender, recipient string) Outcome {
	hour := now.Hour()
	if hour < p.cfg.StartHour || hour >= p.cfg.EndHour {
		p.logger.Info("Outside active hours, skipping briefing", zap.Int("hour", hour))
		return OutcomeSkipped
	}

	headlines, err := p.fetcher.TopHeadlines(ctx)
	if err != nil {
		p.logger.Error("Failed to fetch headlines", zap.Error(err))
		p.send(sender, recipient, DegradedMessage)
		return OutcomeDegraded
	}

	if len(headlines) > maxHeadlines {
		headlines = headlines[:maxHeadlines]
	}
	if len(headlines) == 0 {
		p.logger.Info("No headlines resolved")
		p.send(sender, recipient, NoNewsMessage)
		return OutcomeNoNews
	}

	summary := p.summarizer.Summarize(ctx, headlines)

	var sb strings.Builder
	fmt.Fprintf(&sb, "🗞️ Top News – %s\n\n", now.Format("3:04:05 PM"))
	for i, h := range headlines {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, h)
	}
	sb.WriteString("\n🧠 Summary:\n")
	sb.WriteString(summary)

	p.send(sender, recipient, sb.String())
	p.logger.Info("Briefing delivered",
		zap.String("recipient", recipient),
		zap.Int("headlines", len(headlines)))
	return OutcomeDelivered
}

func (p *Pipeline) send(sender notify.Sender, recipient, text string) {
	if err := sender.Send(recipient, text); err != nil {
		p.logger.Error("Failed to deliver briefing",
			zap.Error(err),
			zap.String("recipient", recipient))
	}
}
