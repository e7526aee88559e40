package ai

import (
	"Relay/core"
	"Relay/lib/sl"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	answerMarker     = "پاسخ:"
	unprocessedReply = "🤖 پاسخ دریافت شد اما پردازش نشد."
)

// Chat asks a remote text-generation endpoint and falls back to Canned on any failure.
type Chat struct {
	conf   core.Chat
	log    *slog.Logger
	client *openai.Client
}

func NewChat(conf core.Chat, log *slog.Logger) *Chat {
	clientConfig := openai.DefaultConfig(conf.APIKey)
	if conf.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(conf.BaseURL, "/")
	}
	clientConfig.HTTPClient = &http.Client{Timeout: conf.Timeout}

	return &Chat{
		conf:   conf,
		log:    log.With(sl.Module("chat")),
		client: openai.NewClientWithConfig(clientConfig),
	}
}

func (c *Chat) Invoke(ctx context.Context, prompt string) Result {
	ctx, cancel := context.WithTimeout(ctx, c.conf.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.conf.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("پرسش: %s\n%s", prompt, answerMarker),
			},
		},
		Temperature: c.conf.Temperature,
		MaxTokens:   c.conf.MaxTokens,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		c.log.Warn("chat completion failed, using canned reply", sl.Err(err))
		return fallbackResult(Canned(prompt), err)
	}

	c.log.With(
		slog.String("model", resp.Model),
		slog.Int("choices", len(resp.Choices)),
	).Debug("chat completion")

	if len(resp.Choices) == 0 {
		return textResult(unprocessedReply)
	}
	return textResult(extractAnswer(resp.Choices[0].Message.Content))
}

// the endpoint may echo the prompt; keep what follows the last answer marker
func extractAnswer(generated string) string {
	if i := strings.LastIndex(generated, answerMarker); i >= 0 {
		return strings.TrimSpace(generated[i+len(answerMarker):])
	}
	return generated
}
