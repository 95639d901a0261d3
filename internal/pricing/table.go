// Package pricing holds the nightly rate table and the stay arithmetic.
// All amounts are whole currency units (KSh).
package pricing

import (
	"strings"

	"guesthouse/internal/models"
)

const (
	BedOnly   = "bed_only"
	BB        = "bb"
	HalfBoard = "half_board"
	FullBoard = "full_board"
)

// FareClasses lists the pricing tiers from cheapest to most inclusive.
var FareClasses = []string{BedOnly, BB, HalfBoard, FullBoard}

// Rates are the nightly prices of one room.
type Rates struct {
	BedOnly   int64 `json:"bed_only"`
	BB        int64 `json:"bb"`
	HalfBoard int64 `json:"half_board"`
	FullBoard int64 `json:"full_board"`
}

// For returns the rate of a fare class; unknown classes price as full board.
func (r Rates) For(fareClass string) int64 {
	switch NormalizeFareClass(fareClass) {
	case BedOnly:
		return r.BedOnly
	case BB:
		return r.BB
	case HalfBoard:
		return r.HalfBoard
	default:
		return r.FullBoard
	}
}

func RatesOf(room *models.Room) Rates {
	return Rates{
		BedOnly:   room.BedOnly,
		BB:        room.BB,
		HalfBoard: room.HalfBoard,
		FullBoard: room.FullBoard,
	}
}

// NormalizeFareClass maps user input onto a known class, defaulting to full board.
func NormalizeFareClass(fareClass string) string {
	switch strings.ToLower(strings.TrimSpace(fareClass)) {
	case BedOnly, "bed-only", "bedonly":
		return BedOnly
	case BB, "b&b", "bed_and_breakfast":
		return BB
	case HalfBoard, "half-board", "halfboard":
		return HalfBoard
	default:
		return FullBoard
	}
}

// Table is a static room id -> rates lookup.
type Table struct {
	rates       map[string]Rates
	defaultRate int64
}

// NewTable builds a table from the catalog. defaultRate <= 0 selects
// models.DefaultNightlyRate.
func NewTable(rooms []*models.Room, defaultRate int64) *Table {
	if defaultRate <= 0 {
		defaultRate = models.DefaultNightlyRate
	}
	t := &Table{rates: make(map[string]Rates, len(rooms)), defaultRate: defaultRate}
	for _, room := range rooms {
		if room == nil {
			continue
		}
		t.rates[room.ID] = RatesOf(room)
	}
	return t
}

// Rate returns the nightly rate of roomID in fareClass. A room missing from the
// table is charged the default rate whatever the class.
func (t *Table) Rate(roomID, fareClass string) int64 {
	rates, ok := t.rates[roomID]
	if !ok {
		return t.defaultRate
	}
	return rates.For(fareClass)
}

// Has reports whether roomID is priced by the table.
func (t *Table) Has(roomID string) bool {
	_, ok := t.rates[roomID]
	return ok
}

func (t *Table) DefaultRate() int64 {
	return t.defaultRate
}
