package service

import (
	"errors"
	"testing"

	"guesthouse/internal/domain"
	"guesthouse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBookingRequest(t *testing.T) {
	today := fixedNow()

	tests := []struct {
		name   string
		mutate func(r *models.BookingRequest)
		field  string
	}{
		{"Valid", func(r *models.BookingRequest) {}, ""},
		{"MissingRoom", func(r *models.BookingRequest) { r.RoomID = "" }, "room_id"},
		{"MissingName", func(r *models.BookingRequest) { r.GuestName = "  " }, "guest_name"},
		{"MissingEmail", func(r *models.BookingRequest) { r.GuestEmail = "" }, "guest_email"},
		{"BadEmail", func(r *models.BookingRequest) { r.GuestEmail = "kamau@example" }, "guest_email"},
		{"BadPhone", func(r *models.BookingRequest) { r.GuestPhone = "call me" }, "guest_phone"},
		{"PastCheckIn", func(r *models.BookingRequest) { r.CheckIn = day(t, "2025-05-31") }, "check_in_date"},
		{"CheckOutNotAfterCheckIn", func(r *models.BookingRequest) { r.CheckOut = r.CheckIn }, "check_out_date"},
		{"NoGuests", func(r *models.BookingRequest) { r.Guests = 0 }, "guests"},
		{"TooManyGuests", func(r *models.BookingRequest) { r.Guests = 7 }, "guests"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest(t, "1", "2025-06-10", "2025-06-12")
			tt.mutate(&req)

			err := ValidateBookingRequest(req, today, false)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation))

			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestValidateBookingRequest_SameDayAndPastAllowed(t *testing.T) {
	req := validRequest(t, "1", "2025-06-01", "2025-06-02")
	assert.NoError(t, ValidateBookingRequest(req, fixedNow(), false))

	req = validRequest(t, "1", "2025-05-01", "2025-05-02")
	assert.NoError(t, ValidateBookingRequest(req, fixedNow(), true))
}

func TestValidatePaymentRequest(t *testing.T) {
	ok := models.PaymentRequest{BookingID: "b", Amount: 100, PaymentType: models.PaymentTypeDeposit, PaymentMethod: models.PaymentMethodMpesa}
	assert.NoError(t, ValidatePaymentRequest(ok))

	bad := models.PaymentRequest{Amount: -5, PaymentType: "tip", PaymentMethod: "card"}
	err := ValidatePaymentRequest(bad)
	require.Error(t, err)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 4)
}
