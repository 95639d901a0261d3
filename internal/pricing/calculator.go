package pricing

import (
	"time"

	"guesthouse/internal/models"
)

const day = 24 * time.Hour

// Nights returns the number of nights between the normalized dates, rounding a
// partial day up. Non-positive ranges yield 0.
func Nights(checkIn, checkOut time.Time) int64 {
	d := models.NormalizeDate(checkOut).Sub(models.NormalizeDate(checkIn))
	if d <= 0 {
		return 0
	}
	n := int64(d / day)
	if d%day != 0 {
		n++
	}
	return n
}

func Total(nights, nightlyRate int64) int64 {
	return nights * nightlyRate
}

// Deposit is half the total rounded up to the next multiple of models.DepositStep:
// ceil(total*0.5/50)*50 without floating point.
func Deposit(total int64) int64 {
	if total <= 0 {
		return 0
	}
	const twice = 2 * models.DepositStep
	return (total + twice - 1) / twice * models.DepositStep
}

func Balance(total, deposit int64) int64 {
	return total - deposit
}

// Quote prices a stay at nightlyRate.
func Quote(nightlyRate int64, checkIn, checkOut time.Time) models.Quote {
	nights := Nights(checkIn, checkOut)
	total := Total(nights, nightlyRate)
	deposit := Deposit(total)
	return models.Quote{
		Nights:        nights,
		NightlyRate:   nightlyRate,
		TotalAmount:   total,
		DepositAmount: deposit,
		BalanceAmount: Balance(total, deposit),
	}
}
