package service

import (
	"regexp"
	"strings"
	"time"

	"guesthouse/internal/domain"
	"guesthouse/internal/models"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[+]?[\d\s\-()]+$`)
)

// ValidateBookingRequest checks the guest form. today is the current calendar
// date; allowPast disables the check-in-in-the-past rule.
func ValidateBookingRequest(req models.BookingRequest, today time.Time, allowPast bool) error {
	v := domain.NewValidationError()

	if strings.TrimSpace(req.RoomID) == "" {
		v.Add("room_id", "room is required")
	}
	if strings.TrimSpace(req.GuestName) == "" {
		v.Add("guest_name", "name is required")
	}

	email := strings.TrimSpace(req.GuestEmail)
	switch {
	case email == "":
		v.Add("guest_email", "email is required")
	case !emailPattern.MatchString(email):
		v.Add("guest_email", "invalid email address")
	}

	phone := strings.TrimSpace(req.GuestPhone)
	switch {
	case phone == "":
		v.Add("guest_phone", "phone is required")
	case !phonePattern.MatchString(phone):
		v.Add("guest_phone", "invalid phone number")
	}

	if req.CheckIn.IsZero() {
		v.Add("check_in_date", "check-in date is required")
	}
	if req.CheckOut.IsZero() {
		v.Add("check_out_date", "check-out date is required")
	}
	if !req.CheckIn.IsZero() && !req.CheckOut.IsZero() {
		in := models.NormalizeDate(req.CheckIn)
		out := models.NormalizeDate(req.CheckOut)
		if !allowPast && in.Before(models.NormalizeDate(today)) {
			v.Add("check_in_date", "check-in date cannot be in the past")
		}
		if !out.After(in) {
			v.Add("check_out_date", "check-out date must be after check-in date")
		}
	}

	if req.Guests < 1 {
		v.Add("guests", "at least one guest is required")
	} else if req.Guests > models.MaxGuests {
		v.Add("guests", "maximum 6 guests allowed")
	}

	return v.OrNil()
}

// ValidatePaymentRequest checks a payment submission.
func ValidatePaymentRequest(req models.PaymentRequest) error {
	v := domain.NewValidationError()

	if strings.TrimSpace(req.BookingID) == "" {
		v.Add("booking_id", "booking is required")
	}
	if req.Amount <= 0 {
		v.Add("amount", "amount must be positive")
	}
	if !models.IsPaymentType(req.PaymentType) {
		v.Add("payment_type", "must be one of deposit, balance, full")
	}
	if !models.IsPaymentMethod(req.PaymentMethod) {
		v.Add("payment_method", "must be one of mpesa, cash, cheque, bank_transfer")
	}

	return v.OrNil()
}

// ValidateRoom checks a catalog entry before it is written.
func ValidateRoom(room models.Room) error {
	v := domain.NewValidationError()

	if strings.TrimSpace(room.ID) == "" {
		v.Add("id", "room id is required")
	}
	if strings.TrimSpace(room.Name) == "" {
		v.Add("name", "name is required")
	}
	if room.Capacity <= 0 {
		v.Add("capacity", "capacity must be positive")
	}
	if room.BedOnly < 0 || room.BB < 0 || room.HalfBoard < 0 || room.FullBoard < 0 {
		v.Add("rates", "rates must not be negative")
	}
	if room.FullBoard <= 0 {
		v.Add("full_board", "full-board rate is required")
	}

	return v.OrNil()
}
