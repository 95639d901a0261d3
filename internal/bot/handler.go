package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"guesthouse/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const (
	listLimit   = 10
	reportLimit = 3500
)

const helpText = `<b>Guest house staff bot</b>

/bookings [status] - latest bookings
/booking &lt;id&gt; - booking details and payments
/confirm &lt;id&gt; - confirm a booking
/cancel &lt;id&gt; - cancel a booking
/complete &lt;id&gt; - mark a stay completed
/paid &lt;payment_id&gt; - confirm a cash payment
/report &lt;name&gt; - run a report
/purge - delete stale pending bookings`

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	command := msg.Command()
	args := strings.Fields(msg.CommandArguments())
	chatID := msg.Chat.ID

	var (
		reply string
		err   error
	)
	switch command {
	case "start", "help":
		reply = helpText
	case "bookings":
		reply, err = b.listBookings(ctx, args)
	case "booking":
		reply, err = b.showBooking(ctx, args)
	case "confirm":
		reply, err = b.setStatus(ctx, args, models.StatusConfirmed)
	case "cancel":
		reply, err = b.setStatus(ctx, args, models.StatusCancelled)
	case "complete":
		reply, err = b.setStatus(ctx, args, models.StatusCompleted)
	case "paid":
		reply, err = b.confirmPayment(ctx, args)
	case "report":
		reply, err = b.runReport(ctx, args)
	case "purge":
		reply, err = b.purge(ctx)
	default:
		reply = "Unknown command. Send /help for the list."
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
		zerolog.Ctx(ctx).Error().Err(err).Str("command", command).Msg("command failed")
		reply = b.getErrorMessage(err)
	}
	if b.metrics != nil {
		b.metrics.CommandsProcessed.WithLabelValues(command, outcome).Inc()
	}

	b.sendMessage(chatID, reply)
}

func (b *Bot) listBookings(ctx context.Context, args []string) (string, error) {
	filter := models.BookingFilter{Limit: listLimit}
	if len(args) > 0 {
		if !models.IsBookingStatus(args[0]) {
			return "Status must be one of pending, confirmed, cancelled, completed.", nil
		}
		filter.Statuses = []string{args[0]}
	}

	bookings, err := b.bookings.ListBookings(ctx, filter)
	if err != nil {
		return "", err
	}
	if len(bookings) == 0 {
		return "No bookings found.", nil
	}

	var sb strings.Builder
	sb.WriteString("<b>Bookings</b>\n")
	for _, bk := range bookings {
		fmt.Fprintf(&sb, "\n%s %s, %s → %s, %s\n<code>%s</code>\n",
			statusIcon(bk.Status),
			esc(bk.GuestName),
			bk.CheckIn.Format(models.DateLayout),
			bk.CheckOut.Format(models.DateLayout),
			esc(roomLabel(bk)),
			esc(bk.ID),
		)
	}
	return sb.String(), nil
}

func (b *Bot) showBooking(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "Usage: /booking &lt;id&gt;", nil
	}

	bk, err := b.bookings.GetBooking(ctx, args[0])
	if err != nil {
		return "", err
	}
	if bk == nil {
		return "Booking not found.", nil
	}

	payments, err := b.payments.PaymentsForBooking(ctx, bk.ID)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s <b>%s</b>\n\n", statusIcon(bk.Status), esc(bk.GuestName))
	fmt.Fprintf(&sb, "Phone: %s\nEmail: %s\n", esc(bk.GuestPhone), esc(bk.GuestEmail))
	fmt.Fprintf(&sb, "Room: %s\n", esc(roomLabel(bk)))
	fmt.Fprintf(&sb, "Stay: %s → %s (%d guests)\n",
		bk.CheckIn.Format(models.DateLayout), bk.CheckOut.Format(models.DateLayout), bk.Guests)
	fmt.Fprintf(&sb, "Status: %s\n", esc(bk.Status))
	fmt.Fprintf(&sb, "Total: KSh %d, deposit KSh %d, balance KSh %d\n",
		bk.TotalAmount, bk.DepositAmount, bk.BalanceAmount)
	fmt.Fprintf(&sb, "Payment: %s\n", esc(bk.PaymentStatus))
	if bk.SpecialRequests != "" {
		fmt.Fprintf(&sb, "Requests: %s\n", esc(bk.SpecialRequests))
	}

	if len(payments) > 0 {
		sb.WriteString("\n<b>Payments</b>\n")
		for _, p := range payments {
			fmt.Fprintf(&sb, "KSh %d %s via %s, %s\n<code>%s</code>\n",
				p.Amount, esc(p.PaymentType), esc(p.PaymentMethod), esc(p.Status), esc(p.ID))
		}
	}
	return sb.String(), nil
}

func (b *Bot) setStatus(ctx context.Context, args []string, status string) (string, error) {
	if len(args) != 1 {
		return "Usage: /" + commandFor(status) + " &lt;id&gt;", nil
	}

	bk, err := b.bookings.SetStatus(ctx, args[0], status)
	if err != nil {
		return "", err
	}
	if bk == nil {
		return "Booking not found.", nil
	}
	return fmt.Sprintf("%s Booking of %s is now <b>%s</b>.", statusIcon(bk.Status), esc(bk.GuestName), esc(bk.Status)), nil
}

func (b *Bot) confirmPayment(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "Usage: /paid &lt;payment_id&gt;", nil
	}

	p, err := b.payments.UpdatePaymentStatus(ctx, args[0], models.PaymentCompleted)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "Payment not found.", nil
	}
	return fmt.Sprintf("💰 Payment of KSh %d confirmed.", p.Amount), nil
}

func (b *Bot) runReport(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "Usage: /report &lt;name&gt;", nil
	}
	if b.reports == nil {
		return "Reports are not available.", nil
	}

	data, err := b.reports(ctx, args[0])
	if err != nil {
		return "", err
	}
	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	text := string(body)
	if len(text) > reportLimit {
		text = text[:reportLimit] + "\n…"
	}
	return fmt.Sprintf("<b>%s</b>\n<pre>%s</pre>", esc(args[0]), esc(text)), nil
}

func (b *Bot) purge(ctx context.Context) (string, error) {
	n, err := b.bookings.PurgeStalePending(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("🧹 Purged %d stale pending bookings.", n), nil
}

func statusIcon(status string) string {
	switch status {
	case models.StatusConfirmed:
		return "✅"
	case models.StatusCancelled:
		return "❌"
	case models.StatusCompleted:
		return "🏁"
	default:
		return "⏳"
	}
}

func commandFor(status string) string {
	switch status {
	case models.StatusConfirmed:
		return "confirm"
	case models.StatusCancelled:
		return "cancel"
	default:
		return "complete"
	}
}

func roomLabel(bk *models.Booking) string {
	if bk.RoomName != "" {
		return bk.RoomName
	}
	return "room " + bk.RoomID
}

func esc(s string) string {
	return html.EscapeString(s)
}
