package pricing

import (
	"testing"
	"time"

	"guesthouse/internal/models"

	"github.com/stretchr/testify/assert"
)

func ceilHalf(total int64) int64 {
	return (total + 1) / 2
}

func TestDepositProperties(t *testing.T) {
	for total := int64(0); total <= 20000; total++ {
		deposit := Deposit(total)
		half := ceilHalf(total)

		if deposit%models.DepositStep != 0 {
			t.Fatalf("deposit(%d)=%d is not a multiple of %d", total, deposit, models.DepositStep)
		}
		if deposit < half {
			t.Fatalf("deposit(%d)=%d is below half %d", total, deposit, half)
		}
		if deposit >= half+models.DepositStep {
			t.Fatalf("deposit(%d)=%d overshoots half %d by a full step", total, deposit, half)
		}
		if deposit+Balance(total, deposit) != total {
			t.Fatalf("deposit+balance != total for %d", total)
		}
	}
}

func TestDepositExamples(t *testing.T) {
	tests := []struct {
		total    int64
		expected int64
	}{
		{0, 0},
		{1, 50},
		{100, 50},
		{101, 100},
		{3500, 1750},
		{4300, 2150},
		{4301, 2200},
		{6300, 3150},
		{10500, 5250},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Deposit(tt.total), "total=%d", tt.total)
	}
}

func TestNights(t *testing.T) {
	in := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, int64(0), Nights(in, in))
	assert.Equal(t, int64(0), Nights(in, in.AddDate(0, 0, -1)))

	prev := int64(0)
	for days := 1; days <= 60; days++ {
		n := Nights(in, in.AddDate(0, 0, days))
		assert.Equal(t, prev+1, n)
		prev = n
	}

	// time of day does not create extra nights
	lateIn := time.Date(2025, 6, 10, 22, 0, 0, 0, time.UTC)
	earlyOut := time.Date(2025, 6, 12, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, int64(2), Nights(lateIn, earlyOut))
}

func TestQuote(t *testing.T) {
	in := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	q := Quote(4300, in, in.AddDate(0, 0, 3))

	assert.Equal(t, int64(3), q.Nights)
	assert.Equal(t, int64(12900), q.TotalAmount)
	assert.Equal(t, int64(6450), q.DepositAmount)
	assert.Equal(t, int64(6450), q.BalanceAmount)
}

func TestTable(t *testing.T) {
	table := NewTable(models.FallbackRooms(), 0)

	assert.Equal(t, int64(1000), table.Rate("1", BedOnly))
	assert.Equal(t, int64(1500), table.Rate("2", BB))
	assert.Equal(t, int64(4300), table.Rate("3", HalfBoard))
	assert.Equal(t, int64(6300), table.Rate("3", FullBoard))
	assert.Equal(t, int64(4300), table.Rate("2", "unknown"))

	t.Run("UnknownRoomUsesDefault", func(t *testing.T) {
		assert.False(t, table.Has("42"))
		assert.Equal(t, int64(models.DefaultNightlyRate), table.Rate("42", FullBoard))
		assert.Equal(t, int64(models.DefaultNightlyRate), table.Rate("42", BedOnly))
	})

	t.Run("CustomDefault", func(t *testing.T) {
		custom := NewTable(nil, 5000)
		assert.Equal(t, int64(5000), custom.Rate("1", FullBoard))
		assert.Equal(t, int64(5000), custom.DefaultRate())
	})
}

func TestNormalizeFareClass(t *testing.T) {
	assert.Equal(t, BedOnly, NormalizeFareClass(" Bed-Only "))
	assert.Equal(t, BB, NormalizeFareClass("b&b"))
	assert.Equal(t, HalfBoard, NormalizeFareClass("half_board"))
	assert.Equal(t, FullBoard, NormalizeFareClass(""))
	assert.Equal(t, FullBoard, NormalizeFareClass("all_inclusive"))
}
