package timerecord

import (
	"time"

	"github.com/shopspring/decimal"
)

// HoursBetween returns the worked hours for a closed record, rounded to two
// decimals half-up so 7.125h reports as 7.13.
func HoursBetween(checkIn, checkOut time.Time) float64 {
	seconds := decimal.NewFromFloat(checkOut.Sub(checkIn).Seconds())
	hours, _ := seconds.Div(decimal.NewFromInt(3600)).Round(2).Float64()
	return hours
}

// RoundHours normalizes an aggregate hour figure to the same two-decimal
// precision used for individual records.
func RoundHours(hours float64) float64 {
	rounded, _ := decimal.NewFromFloat(hours).Round(2).Float64()
	return rounded
}

// Overlaps reports whether an existing record's interval collides with the
// [from, to) window. An open record has no upper bound yet, so it collides
// with any window starting after its check-in.
func Overlaps(existingIn time.Time, existingOut *time.Time, from, to time.Time) bool {
	if existingOut == nil {
		return existingIn.Before(to)
	}
	return existingIn.Before(to) && existingOut.After(from)
}

// OverlapsProposal extends Overlaps to proposals without a check-out. An
// open proposal collides with anything not finished strictly before it,
// including any still-open record.
func OverlapsProposal(existingIn time.Time, existingOut *time.Time, from time.Time, to *time.Time) bool {
	if to == nil {
		return existingOut == nil || existingOut.After(from)
	}
	return Overlaps(existingIn, existingOut, from, *to)
}
