package models

import "time"

type Payment struct {
	ID               string     `json:"id"`
	BookingID        string     `json:"booking_id"`
	Amount           int64      `json:"amount"`
	PaymentType      string     `json:"payment_type"`   // deposit, balance, full
	PaymentMethod    string     `json:"payment_method"` // mpesa, cash, cheque, bank_transfer
	PaymentReference string     `json:"payment_reference,omitempty"`
	Status           string     `json:"status"` // pending, completed, failed, refunded
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// PaymentRequest is what a guest (or staff member) submits to record a payment.
type PaymentRequest struct {
	BookingID        string `json:"booking_id"`
	Amount           int64  `json:"amount"`
	PaymentType      string `json:"payment_type"`
	PaymentMethod    string `json:"payment_method"`
	PaymentReference string `json:"payment_reference,omitempty"`
}

// PaymentPatch lists the fields a store may overwrite on an existing payment.
type PaymentPatch struct {
	Status *string
	PaidAt *time.Time
}

func (p PaymentPatch) Apply(pm *Payment) {
	if p.Status != nil {
		pm.Status = *p.Status
	}
	if p.PaidAt != nil {
		t := *p.PaidAt
		pm.PaidAt = &t
	}
}
