package report

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"guesthouse/internal/domain"
	"guesthouse/internal/models"
)

// Report names served by the admin API and the maintenance tool.
const (
	RevenueTotal    = "revenue"
	RevenueByMethod = "revenue-by-method"
	RoomStats       = "rooms"
	MonthlyTrends   = "monthly"
	PaymentSummary  = "payment-status"
	Conflicts       = "conflicts"
	WithoutPayments = "unpaid"
)

var ErrUnknownReport = errors.New("unknown report")

// Source is everything the exporter reads.
type Source interface {
	domain.ReportStore
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error)
	ListPayments(ctx context.Context) ([]*models.Payment, error)
}

type queryFunc func(ctx context.Context, store domain.ReportStore) (interface{}, error)

var queries = map[string]queryFunc{
	RevenueTotal: func(ctx context.Context, s domain.ReportStore) (interface{}, error) {
		return s.RevenueTotal(ctx)
	},
	RevenueByMethod: func(ctx context.Context, s domain.ReportStore) (interface{}, error) {
		return s.RevenueByMethod(ctx)
	},
	RoomStats: func(ctx context.Context, s domain.ReportStore) (interface{}, error) {
		return s.BookingStatsByRoom(ctx)
	},
	MonthlyTrends: func(ctx context.Context, s domain.ReportStore) (interface{}, error) {
		return s.MonthlyTrends(ctx)
	},
	PaymentSummary: func(ctx context.Context, s domain.ReportStore) (interface{}, error) {
		return s.PaymentStatusSummary(ctx)
	},
	Conflicts: func(ctx context.Context, s domain.ReportStore) (interface{}, error) {
		return s.BookingConflicts(ctx)
	},
	WithoutPayments: func(ctx context.Context, s domain.ReportStore) (interface{}, error) {
		return s.BookingsWithoutPayments(ctx)
	},
}

// Names lists the known reports in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(queries))
	for name := range queries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the named report. ErrUnknownReport is returned for any other name.
func Run(ctx context.Context, store domain.ReportStore, name string) (interface{}, error) {
	q, ok := queries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReport, name)
	}
	result, err := q(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", name, err)
	}
	return result, nil
}
