package service

import (
	"context"
	"fmt"
	"time"

	"guesthouse/internal/domain"
	"guesthouse/internal/events"
	"guesthouse/internal/metrics"
	"guesthouse/internal/models"

	"github.com/rs/zerolog"
)

type PaymentService struct {
	store        domain.LedgerStore
	eventBus     domain.EventPublisher
	sheetsWorker domain.SyncWorker
	now          func() time.Time
	logger       *zerolog.Logger
}

func NewPaymentService(
	store domain.LedgerStore, eventBus domain.EventPublisher, sheetsWorker domain.SyncWorker, logger *zerolog.Logger,
) *PaymentService {
	return &PaymentService{
		store:        store,
		eventBus:     eventBus,
		sheetsWorker: sheetsWorker,
		now:          time.Now,
		logger:       logger,
	}
}

// RecordPayment stores a payment and reconciles its booking. Cash is only
// pending until staff confirm it; every other method counts as settled.
// An unknown booking yields (nil, nil).
func (s *PaymentService) RecordPayment(ctx context.Context, req models.PaymentRequest) (*models.Payment, error) {
	if err := ValidatePaymentRequest(req); err != nil {
		return nil, err
	}

	booking, err := s.store.FindBooking(ctx, req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return nil, nil
	}

	payment := &models.Payment{
		BookingID:        req.BookingID,
		Amount:           req.Amount,
		PaymentType:      req.PaymentType,
		PaymentMethod:    req.PaymentMethod,
		PaymentReference: req.PaymentReference,
		Status:           models.PaymentCompleted,
	}
	if req.PaymentMethod == models.PaymentMethodCash {
		payment.Status = models.PaymentPending
	} else {
		paidAt := s.now().UTC()
		payment.PaidAt = &paidAt
	}

	id, err := s.store.InsertPayment(ctx, payment)
	if err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	payment.ID = id

	metrics.IncPaymentRecorded(payment.PaymentMethod, payment.Status)
	s.logger.Info().
		Str("payment_id", id).
		Str("booking_id", payment.BookingID).
		Int64("amount", payment.Amount).
		Str("method", payment.PaymentMethod).
		Str("status", payment.Status).
		Msg("payment recorded")

	// The payment row is already stored, so it is returned alongside the error.
	reconciled, err := s.Reconcile(ctx, payment.BookingID)
	if err != nil {
		s.logger.Error().Err(err).Str("booking_id", payment.BookingID).Msg("reconcile after payment failed")
		return payment, fmt.Errorf("reconcile booking: %w", err)
	}
	s.publishEvent(events.EventPaymentRecorded, payment, reconciled)

	return payment, nil
}

// UpdatePaymentStatus overwrites a payment status, stamping paid_at when it
// becomes completed, and reconciles the booking. An unknown payment yields (nil, nil).
func (s *PaymentService) UpdatePaymentStatus(ctx context.Context, paymentID, status string) (*models.Payment, error) {
	if !models.IsPaymentStatus(status) {
		v := domain.NewValidationError()
		v.Add("status", "must be one of pending, completed, failed, refunded")
		return nil, v
	}

	patch := models.PaymentPatch{Status: &status}
	if status == models.PaymentCompleted {
		paidAt := s.now().UTC()
		patch.PaidAt = &paidAt
	}

	payment, err := s.store.UpdatePayment(ctx, paymentID, patch)
	if err != nil {
		return nil, fmt.Errorf("update payment status: %w", err)
	}
	if payment == nil {
		return nil, nil
	}

	reconciled, err := s.Reconcile(ctx, payment.BookingID)
	if err != nil {
		s.logger.Error().Err(err).Str("booking_id", payment.BookingID).Msg("reconcile after status change failed")
		return payment, fmt.Errorf("reconcile booking: %w", err)
	}
	s.publishEvent(events.EventPaymentStatusChanged, payment, reconciled)

	return payment, nil
}

// Reconcile recomputes the booking payment status from its completed payments.
// The result depends only on the payment set, so repeated calls agree.
func (s *PaymentService) Reconcile(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.store.FindBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return nil, nil
	}

	payments, err := s.store.FindPaymentsByBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("find payments: %w", err)
	}

	paid := CompletedTotal(payments)
	status := DerivePaymentStatus(paid, booking.TotalAmount, booking.DepositAmount)
	depositPaid := status != models.PaymentStatusPendingDeposit

	if status == booking.PaymentStatus && depositPaid == booking.DepositPaid {
		return booking, nil
	}

	updated, err := s.store.UpdateBooking(ctx, bookingID, models.BookingPatch{
		PaymentStatus: &status,
		DepositPaid:   &depositPaid,
	})
	if err != nil {
		return nil, fmt.Errorf("update booking payment status: %w", err)
	}
	if updated == nil {
		return nil, nil
	}

	s.logger.Info().
		Str("booking_id", bookingID).
		Int64("paid", paid).
		Str("payment_status", status).
		Msg("booking reconciled")

	if s.eventBus != nil {
		if err := s.eventBus.PublishJSON(events.EventBookingReconciled, events.NewBookingPayload(updated)); err != nil {
			s.logger.Error().Err(err).Str("event_type", events.EventBookingReconciled).Msg("publish event error")
		}
	}
	if s.sheetsWorker != nil {
		if err := s.sheetsWorker.EnqueueTask(ctx, models.SyncTaskUpsert, updated); err != nil {
			s.logger.Error().Err(err).Str("booking_id", bookingID).Msg("sheets enqueue error")
		}
	}

	return updated, nil
}

func (s *PaymentService) PaymentsForBooking(ctx context.Context, bookingID string) ([]*models.Payment, error) {
	return s.store.FindPaymentsByBooking(ctx, bookingID)
}

func (s *PaymentService) ListPayments(ctx context.Context) ([]*models.Payment, error) {
	return s.store.ListPayments(ctx)
}

func (s *PaymentService) publishEvent(eventType string, payment *models.Payment, booking *models.Booking) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, events.NewPaymentPayload(payment, booking)); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("payment_id", payment.ID).Msg("publish event error")
	}
}

// CompletedTotal sums the completed payments.
func CompletedTotal(payments []*models.Payment) int64 {
	var sum int64
	for _, p := range payments {
		if p.Status == models.PaymentCompleted {
			sum += p.Amount
		}
	}
	return sum
}

// DerivePaymentStatus maps the paid sum onto the booking payment status.
func DerivePaymentStatus(paid, total, deposit int64) string {
	switch {
	case paid >= total:
		return models.PaymentStatusFullyPaid
	case paid >= deposit:
		return models.PaymentStatusDepositPaid
	default:
		return models.PaymentStatusPendingDeposit
	}
}
