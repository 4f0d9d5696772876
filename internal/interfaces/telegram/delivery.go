package telegram

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/newsbot/cryptonews/internal/domain/service"
)

// Delivery implements TelegramDelivery (C7): chunked, ordered, retried
// report delivery to a single chat.
type Delivery struct {
	bot       *tgbotapi.BotAPI
	parseMode string
	timeout   time.Duration
	logger    *zap.Logger
}

var _ service.TelegramDelivery = (*Delivery)(nil)

// NewDelivery constructs a Delivery. parseMode is stored but not used:
// report bodies are converted to Telegram HTML first and every message is
// sent with the HTML parse mode, so rendering never depends on Telegram's
// stricter Markdown escaping.
func NewDelivery(bot *tgbotapi.BotAPI, parseMode string, logger *zap.Logger) *Delivery {
	return &Delivery{bot: bot, parseMode: parseMode, timeout: 20 * time.Second, logger: logger.With(zap.String("component", "telegram_delivery"))}
}

const maxDeliveryAttempts = 3

// Deliver splits report into chunks honoring TelegramMessageLimit, then
// sends them in order. If a chunk fails after retries, subsequent chunks
// are not attempted, and PartialDelivery reflects whether any chunk made
// it through.
func (d *Delivery) Deliver(ctx context.Context, report string, chatID int64) (service.DeliveryOutcome, error) {
	html := MarkdownToTelegramHTML(report)
	chunks := ChunkMarkdown(html)
	outcome := service.DeliveryOutcome{ChunksTotal: len(chunks)}

	for _, chunk := range chunks {
		if ctx.Err() != nil {
			outcome.PartialDelivery = outcome.ChunksSent > 0
			return outcome, ctx.Err()
		}

		if err := d.sendWithRetry(ctx, chatID, chunk); err != nil {
			outcome.PartialDelivery = outcome.ChunksSent > 0
			return outcome, fmt.Errorf("deliver chunk %d/%d: %w", outcome.ChunksSent+1, outcome.ChunksTotal, err)
		}
		outcome.ChunksSent++
	}

	return outcome, nil
}

func (d *Delivery) sendWithRetry(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"

	var lastErr error
	for attempt := 0; attempt < maxDeliveryAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			jitter := time.Duration(rand.Int63n(int64(backoff)/2 + 1))
			select {
			case <-time.After(backoff + jitter):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		_, err := d.bot.Request(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		d.logger.Warn("telegram send attempt failed", zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return fmt.Errorf("exhausted %d attempts: %w", maxDeliveryAttempts, lastErr)
}
