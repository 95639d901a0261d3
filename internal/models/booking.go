package models

import "time"

type Booking struct {
	ID              string    `json:"id"`
	RoomID          string    `json:"room_id"`
	RoomName        string    `json:"room_name,omitempty"`
	GuestName       string    `json:"guest_name"`
	GuestEmail      string    `json:"guest_email"`
	GuestPhone      string    `json:"guest_phone"`
	CheckIn         time.Time `json:"check_in_date"`
	CheckOut        time.Time `json:"check_out_date"`
	Guests          int       `json:"guests"`
	SpecialRequests string    `json:"special_requests,omitempty"`
	Status          string    `json:"status"` // pending, confirmed, cancelled, completed
	TotalAmount     int64     `json:"total_amount"`
	DepositAmount   int64     `json:"deposit_amount"`
	BalanceAmount   int64     `json:"balance_amount"`
	DepositPaid     bool      `json:"deposit_paid"`
	PaymentStatus   string    `json:"payment_status"` // pending_deposit, deposit_paid, fully_paid
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Holds reports whether the booking occupies its room for availability purposes.
func (b *Booking) Holds() bool {
	return IsHoldingStatus(b.Status)
}

// BookingRequest is the guest submission that creates a booking.
type BookingRequest struct {
	RoomID          string    `json:"room_id"`
	GuestName       string    `json:"guest_name"`
	GuestEmail      string    `json:"guest_email"`
	GuestPhone      string    `json:"guest_phone"`
	CheckIn         time.Time `json:"check_in_date"`
	CheckOut        time.Time `json:"check_out_date"`
	Guests          int       `json:"guests"`
	SpecialRequests string    `json:"special_requests,omitempty"`
}

// BookingPatch lists the fields a store may overwrite on an existing booking.
// Nil fields are left untouched.
type BookingPatch struct {
	Status        *string
	PaymentStatus *string
	DepositPaid   *bool
}

// Apply copies the non-nil fields of the patch onto b.
func (p BookingPatch) Apply(b *Booking) {
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.PaymentStatus != nil {
		b.PaymentStatus = *p.PaymentStatus
	}
	if p.DepositPaid != nil {
		b.DepositPaid = *p.DepositPaid
	}
}

// BookingFilter narrows ListBookings. Zero values mean "no constraint";
// From/To bound the check-in date inclusively.
type BookingFilter struct {
	RoomID   string
	Statuses []string
	From     time.Time
	To       time.Time
	Limit    int
}
