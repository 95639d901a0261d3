package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

const (
	PaymentStatusPendingDeposit = "pending_deposit"
	PaymentStatusDepositPaid    = "deposit_paid"
	PaymentStatusFullyPaid      = "fully_paid"
)

const (
	PaymentTypeDeposit = "deposit"
	PaymentTypeBalance = "balance"
	PaymentTypeFull    = "full"
)

const (
	PaymentMethodMpesa        = "mpesa"
	PaymentMethodCash         = "cash"
	PaymentMethodCheque       = "cheque"
	PaymentMethodBankTransfer = "bank_transfer"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

const (
	// DateLayout is the storage and wire format of stay dates.
	DateLayout = "2006-01-02"

	// MaxGuests is the largest party the booking form accepts.
	MaxGuests = 6

	// DefaultNightlyRate substitutes the rate of a room missing from the catalog.
	DefaultNightlyRate = 3500

	// DepositStep is the currency unit the deposit is rounded up to.
	DepositStep = 50

	// StalePendingHours is the age after which a pending booking may be purged.
	StalePendingHours = 24

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 128

	// RoomsCacheTTL время жизни кэша каталога номеров в Redis (секунды)
	RoomsCacheTTL = 10 * 60

	// SheetsCacheTTL время жизни кэша строк Google Sheets
	SheetsCacheTTL = 60 * 60 // 1 час в секундах
)

// HoldingStatuses are the booking statuses that block a room.
var HoldingStatuses = []string{StatusPending, StatusConfirmed}

func IsHoldingStatus(status string) bool {
	return status == StatusPending || status == StatusConfirmed
}

func IsBookingStatus(status string) bool {
	switch status {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

func IsPaymentStatus(status string) bool {
	switch status {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

func IsPaymentType(t string) bool {
	switch t {
	case PaymentTypeDeposit, PaymentTypeBalance, PaymentTypeFull:
		return true
	}
	return false
}

func IsPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodMpesa, PaymentMethodCash, PaymentMethodCheque, PaymentMethodBankTransfer:
		return true
	}
	return false
}
