package models

import "time"

type RevenueTotal struct {
	Total    int64 `json:"total"`
	Payments int64 `json:"payments"`
}

type MethodRevenue struct {
	Method string `json:"payment_method"`
	Total  int64  `json:"total"`
}

type RoomBookingStats struct {
	RoomID        string `json:"room_id"`
	RoomName      string `json:"room_name"`
	TotalBookings int64  `json:"total_bookings"`
	TotalRevenue  int64  `json:"total_revenue"`
}

type MonthlyTrend struct {
	Year     int   `json:"year"`
	Month    int   `json:"month"`
	Bookings int64 `json:"bookings"`
	Revenue  int64 `json:"revenue"`
}

type PaymentStatusSummary struct {
	PaymentStatus string `json:"payment_status"`
	Count         int64  `json:"count"`
	TotalAmount   int64  `json:"total_amount"`
}

// BookingConflict groups holding bookings of one room that share identical dates.
type BookingConflict struct {
	RoomID     string    `json:"room_id"`
	CheckIn    time.Time `json:"check_in_date"`
	CheckOut   time.Time `json:"check_out_date"`
	Count      int64     `json:"count"`
	BookingIDs []string  `json:"booking_ids"`
}

type UnpaidBooking struct {
	ID          string    `json:"id"`
	GuestName   string    `json:"guest_name"`
	GuestEmail  string    `json:"guest_email"`
	TotalAmount int64     `json:"total_amount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
