package models

// Quote is the price breakdown of a stay.
type Quote struct {
	RoomID        string `json:"room_id"`
	FareClass     string `json:"fare_class"`
	Nights        int64  `json:"nights"`
	NightlyRate   int64  `json:"nightly_rate"`
	TotalAmount   int64  `json:"total_amount"`
	DepositAmount int64  `json:"deposit_amount"`
	BalanceAmount int64  `json:"balance_amount"`
}
