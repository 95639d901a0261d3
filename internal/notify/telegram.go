// Package notify tells guest-house staff about new bookings and payments.
package notify

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"guesthouse/internal/domain"
	"guesthouse/internal/events"
	"guesthouse/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const parseModeHTML = "HTML"

// TelegramNotifier forwards booking and payment events to staff chats.
type TelegramNotifier struct {
	bot     domain.TelegramSender
	chatIDs []int64
	logger  *zerolog.Logger
}

// NewBotAPI logs the bot in.
func NewBotAPI(token string, debug bool) (*tgbotapi.BotAPI, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	botAPI.Debug = debug
	return botAPI, nil
}

func NewTelegramNotifier(bot domain.TelegramSender, chatIDs []int64, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatIDs: chatIDs, logger: logger}
}

// Attach subscribes the notifier to the events staff care about.
func (n *TelegramNotifier) Attach(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingCreated, n.Handle)
	bus.Subscribe(events.EventBookingStatusChanged, n.Handle)
	bus.Subscribe(events.EventPaymentRecorded, n.Handle)
	bus.Subscribe(events.EventPaymentStatusChanged, n.Handle)
}

// Handle formats the event and sends it to every staff chat. Delivery errors
// are logged per chat; the first one is returned.
func (n *TelegramNotifier) Handle(event *events.Event) error {
	text, err := Format(event)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}

	var firstErr error
	for _, chatID := range n.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = parseModeHTML
		if _, err := n.bot.Send(msg); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Str("event_type", event.Type).Msg("telegram send failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Format renders an event as an HTML Telegram message. Unknown events yield "".
func Format(event *events.Event) (string, error) {
	switch event.Type {
	case events.EventBookingCreated, events.EventBookingStatusChanged:
		var p events.BookingEventPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return "", fmt.Errorf("decode %s: %w", event.Type, err)
		}
		return formatBooking(event.Type, p), nil
	case events.EventPaymentRecorded, events.EventPaymentStatusChanged:
		var p events.PaymentEventPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return "", fmt.Errorf("decode %s: %w", event.Type, err)
		}
		return formatPayment(event.Type, p), nil
	}
	return "", nil
}

func formatBooking(eventType string, p events.BookingEventPayload) string {
	var b strings.Builder
	if eventType == events.EventBookingCreated {
		b.WriteString("🛏 <b>New booking request</b>\n\n")
	} else {
		fmt.Fprintf(&b, "🔄 <b>Booking %s → %s</b>\n\n", esc(p.PreviousStatus), esc(p.Status))
	}

	room := p.RoomName
	if room == "" {
		room = "room " + p.RoomID
	}
	fmt.Fprintf(&b, "Guest: %s\n", esc(p.GuestName))
	fmt.Fprintf(&b, "Phone: %s\n", esc(p.GuestPhone))
	fmt.Fprintf(&b, "Email: %s\n", esc(p.GuestEmail))
	fmt.Fprintf(&b, "Room: %s\n", esc(room))
	fmt.Fprintf(&b, "Stay: %s → %s (%d guests)\n",
		p.CheckIn.Format(models.DateLayout), p.CheckOut.Format(models.DateLayout), p.Guests)
	fmt.Fprintf(&b, "Total: KSh %d, deposit KSh %d\n", p.TotalAmount, p.DepositAmount)
	fmt.Fprintf(&b, "Payment: %s\n", esc(p.PaymentStatus))
	fmt.Fprintf(&b, "\n<code>%s</code>", esc(p.BookingID))
	return b.String()
}

func formatPayment(eventType string, p events.PaymentEventPayload) string {
	var b strings.Builder
	if eventType == events.EventPaymentRecorded {
		b.WriteString("💰 <b>Payment recorded</b>\n\n")
	} else {
		b.WriteString("💳 <b>Payment updated</b>\n\n")
	}

	fmt.Fprintf(&b, "Amount: KSh %d (%s)\n", p.Amount, esc(p.PaymentType))
	fmt.Fprintf(&b, "Method: %s\n", esc(p.PaymentMethod))
	if p.Reference != "" {
		fmt.Fprintf(&b, "Reference: %s\n", esc(p.Reference))
	}
	fmt.Fprintf(&b, "Status: %s\n", esc(p.Status))
	if p.PaymentStatus != "" {
		fmt.Fprintf(&b, "Booking: %s\n", esc(p.PaymentStatus))
	}
	fmt.Fprintf(&b, "\n<code>%s</code>", esc(p.BookingID))
	return b.String()
}

func esc(s string) string {
	return html.EscapeString(s)
}
