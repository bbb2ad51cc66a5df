// Package format renders amounts, dates and durations the way the French
// back office displays them.
package format

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Missing is shown in place of absent values.
const Missing = "-"

var printer = message.NewPrinter(language.French)

var monthNames = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

var weekdayNames = [...]string{"dim.", "lun.", "mar.", "mer.", "jeu.", "ven.", "sam."}

// Currency formats an amount in euros with French grouping, e.g. "1 234,50 €".
func Currency(amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	return printer.Sprint(number.Decimal(f, number.MinFractionDigits(2), number.MaxFractionDigits(2))) + " €"
}

// CurrencyPtr is Currency for optional amounts.
func CurrencyPtr(amount *decimal.Decimal) string {
	if amount == nil {
		return Missing
	}
	return Currency(*amount)
}

// Hours formats a decimal hour count with French decimals, e.g. "7,5 h".
func Hours(hours decimal.Decimal) string {
	f, _ := hours.Round(2).Float64()
	return printer.Sprint(number.Decimal(f, number.MaxFractionDigits(2))) + " h"
}

// Percentage mirrors the back office, which prints the raw value followed by %.
func Percentage(value int) string {
	return fmt.Sprintf("%d%%", value)
}

// Date renders the long French form, e.g. "1 mars 2024".
func Date(t time.Time) string {
	if t.IsZero() {
		return Missing
	}
	return fmt.Sprintf("%d %s %d", t.Day(), monthNames[t.Month()-1], t.Year())
}

// DateShort renders DD/MM/YYYY.
func DateShort(t time.Time) string {
	if t.IsZero() {
		return Missing
	}
	return t.Format("02/01/2006")
}

// DayHeader renders a grid column header, e.g. "lun. 04/03".
func DayHeader(t time.Time) string {
	return weekdayNames[t.Weekday()] + " " + t.Format("02/01")
}

// MonthTitle renders "mars 2024".
func MonthTitle(t time.Time) string {
	return monthNames[t.Month()-1] + " " + fmt.Sprint(t.Year())
}

// Time keeps the HH:MM prefix of a server time such as "08:00:00".
func Time(s string) string {
	if s == "" {
		return Missing
	}
	if len(s) > 5 {
		return s[:5]
	}
	return s
}

// ParseClock parses HH:MM (seconds are ignored) into minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", Time(s))
	if err != nil {
		return 0, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// CalculateHours returns the duration between two clock times. An end
// before the start wraps to the next day.
func CalculateHours(start, end string) (decimal.Decimal, error) {
	s, err := ParseClock(start)
	if err != nil {
		return decimal.Zero, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return decimal.Zero, err
	}
	if e < s {
		e += 24 * 60
	}
	return decimal.NewFromInt(int64(e - s)).Div(decimal.NewFromInt(60)), nil
}

// WeekBounds returns Monday and Sunday of t's week.
func WeekBounds(t time.Time) (time.Time, time.Time) {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, -offset)
	return monday, monday.AddDate(0, 0, 6)
}

// MonthBounds returns the first and last day of t's month.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return first, first.AddDate(0, 1, -1)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^(\+33|0)[1-9](\d{2}){4}$`)
)

func ValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// ValidPhone accepts French numbers, spaces ignored.
func ValidPhone(s string) bool {
	return phoneRe.MatchString(strings.Join(strings.Fields(s), ""))
}

// Truncate shortens s to max runes with an ellipsis.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}
