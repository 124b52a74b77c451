// Package gateway turns conversation state into completion requests against
// an OpenAI-compatible endpoint. Every upstream failure is absorbed and
// converted into a fixed, valid reply; callers never see an error.
package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/dmwangi/relaybot/internal/models"
)

// Fallback texts delivered when the completion service fails or returns an
// unusable body.
const (
	FallbackReply   = "AI's taking a nap—try again soon!"
	EmptyReply      = "Thinking... try again!"
	FallbackSummary = "AI summary unavailable."
)

const meetingScript = ` For meeting requests, respond with: "Cool, when and where should we meet? I'll notify OP-88 once you confirm!"`

// Completer is the slice of the openai client the gateway needs. The real
// *openai.Client satisfies it.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Config struct {
	Model              string
	MaxTokens          int
	Temperature        float64
	SummaryTemperature float64
}

type Gateway struct {
	client Completer
	cfg    Config
	logger *zap.Logger
}

func New(client Completer, cfg Config, logger *zap.Logger) *Gateway {
	return &Gateway{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// NewOpenRouterClient builds an openai client pointed at an
// OpenAI-compatible base URL such as OpenRouter's.
func NewOpenRouterClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return openai.NewClientWithConfig(cfg)
}

// SystemPrompt builds the system instruction for a chat reply. When the user
// message mentions a meeting the scripted meeting response is appended, so a
// single completion call covers both paths.
func (g *Gateway) SystemPrompt(platform, userMsg string) string {
	prompt := fmt.Sprintf(`You are a smart assistant on %s. Reply concisely and cleverly. If the message mentions a meeting (e.g., "we need to meet"), ask for time/location and promise to notify OP-88.`, platform)
	if strings.Contains(strings.ToLower(userMsg), "meet") {
		prompt += meetingScript
	}
	return prompt
}

// Complete sends one system turn, the windowed prior turns and the new user
// turn, and returns the generated reply. Transport errors, timeouts and
// malformed bodies all degrade to a fixed reply instead of propagating.
func (g *Gateway) Complete(ctx context.Context, systemPrompt string, prior []models.Turn, userMsg string) string {
	messages := make([]openai.ChatCompletionMessage, 0, len(prior)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, turn := range prior {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userMsg,
	})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		Messages:    messages,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: float32(g.cfg.Temperature),
	})
	if err != nil {
		g.logger.Error("Completion request failed", zap.Error(err))
		return FallbackReply
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		g.logger.Warn("Completion returned no content")
		return EmptyReply
	}
	return resp.Choices[0].Message.Content
}

// Summarize asks the completion service to condense headlines into short
// bullet points. Same absorb-and-degrade policy as Complete.
func (g *Gateway) Summarize(ctx context.Context, headlines []string) string {
	var sb strings.Builder
	sb.WriteString("Summarize the following news headlines into clear, short bullet points:\n\n")
	for i, h := range headlines {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, h)
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: sb.String()},
		},
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: float32(g.cfg.SummaryTemperature),
	})
	if err != nil {
		g.logger.Error("Summarization request failed", zap.Error(err))
		return FallbackSummary
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		g.logger.Warn("Summarization returned no content")
		return FallbackSummary
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}
