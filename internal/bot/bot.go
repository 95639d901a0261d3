// Package bot runs the staff Telegram command bot: booking lookups, status
// changes, cash confirmations and reports from a chat.
package bot

import (
	"context"
	"os"
	"time"

	"guesthouse/internal/config"
	"guesthouse/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TelegramAPI is the part of the Bot API the command loop needs.
type TelegramAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type botAPI struct {
	*tgbotapi.BotAPI
}

func (a botAPI) GetSelf() tgbotapi.User {
	return a.Self
}

// FromBotAPI adapts a logged-in *tgbotapi.BotAPI to TelegramAPI.
func FromBotAPI(api *tgbotapi.BotAPI) TelegramAPI {
	return botAPI{BotAPI: api}
}

type Bookings interface {
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	SetStatus(ctx context.Context, bookingID, status string) (*models.Booking, error)
	PurgeStalePending(ctx context.Context) (int64, error)
}

type Payments interface {
	PaymentsForBooking(ctx context.Context, bookingID string) ([]*models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, paymentID, status string) (*models.Payment, error)
}

// Reports runs a named report.
type Reports func(ctx context.Context, name string) (interface{}, error)

type RateLimiter interface {
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type Bot struct {
	tg       TelegramAPI
	config   config.TelegramConfig
	managers map[int64]bool
	bookings Bookings
	payments Payments
	reports  Reports
	limiter  RateLimiter
	metrics  *Metrics
	logger   *zerolog.Logger
}

func NewBot(
	tg TelegramAPI,
	cfg config.TelegramConfig,
	bookings Bookings,
	payments Payments,
	reports Reports,
	limiter RateLimiter,
	metrics *Metrics,
	logger *zerolog.Logger,
) *Bot {
	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}

	managers := make(map[int64]bool, len(cfg.ManagerIDs))
	for _, id := range cfg.ManagerIDs {
		managers[id] = true
	}

	return &Bot{
		tg:       tg,
		config:   cfg,
		managers: managers,
		bookings: bookings,
		payments: payments,
		reports:  reports,
		limiter:  limiter,
		metrics:  metrics,
		logger:   logger,
	}
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tg.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tg.GetSelf().UserName).Msg("Authorized on account")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}

// Stop stops receiving Telegram updates (best-effort).
func (b *Bot) Stop() {
	if b == nil || b.tg == nil {
		return
	}
	b.tg.StopReceivingUpdates()
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	defer func() {
		if b.metrics != nil {
			b.metrics.UpdateProcessingTime.Observe(time.Since(start).Seconds())
		}
	}()

	updateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	requestID := uuid.New().String()
	l := b.logger.With().Str("request_id", requestID).Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(update, func() {
		msg := update.Message
		if msg == nil || msg.From == nil || !msg.IsCommand() {
			return
		}
		userID := msg.From.ID

		if !b.allow(updateCtx, userID) {
			l.Warn().Int64("user_id", userID).Msg("Rate limit exceeded")
			b.sendMessage(msg.Chat.ID, "⚠️ Too many commands. Please wait a moment.")
			return
		}

		if !b.isManager(userID) {
			l.Warn().Int64("user_id", userID).Str("command", msg.Command()).Msg("command from non-manager")
			b.sendMessage(msg.Chat.ID, "⛔ This bot is for guest-house staff only.")
			return
		}

		b.handleCommand(updateCtx, msg)
	})
}

func (b *Bot) isManager(userID int64) bool {
	return b.managers[userID]
}

func (b *Bot) allow(ctx context.Context, userID int64) bool {
	if b.limiter == nil || b.config.RateLimitMessages <= 0 {
		return true
	}
	allowed, err := b.limiter.CheckRateLimit(ctx, userID, b.config.RateLimitMessages, b.config.RateLimitWindow)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Rate limit check failed")
		return true
	}
	return allowed
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}
