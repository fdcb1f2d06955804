package service

import (
	"errors"
	"sort"
	"time"

	"github.com/iliyamo/winery-visit-booking/internal/model"
)

// The functions in this file are pure: they work on an already loaded
// slot set and never touch the store.

// SlotsForDate returns the slots on date sorted by time, then language.
func SlotsForDate(slots []model.Slot, date string) []model.Slot {
	out := make([]model.Slot, 0, 4)
	for _, s := range slots {
		if s.Date == date {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].Language < out[j].Language
	})
	return out
}

// HasAvailability reports whether at least one slot exists on date.  Seat
// counts are ignored so a sold-out day still shows as bookable and the
// visitor sees the sold-out tour instead of an empty day.
func HasAvailability(slots []model.Slot, date string) bool {
	for _, s := range slots {
		if s.Date == date {
			return true
		}
	}
	return false
}

// CalendarDay is one cell of the month grid.  Padding cells precede the
// first of the month so that weeks start on Sunday; they carry no date.
type CalendarDay struct {
	Date       string `json:"date,omitempty"`
	Day        int    `json:"day,omitempty"`
	Padding    bool   `json:"padding,omitempty"`
	Past       bool   `json:"past,omitempty"`
	Available  bool   `json:"available"`
	Selectable bool   `json:"selectable"`
}

// CalendarMonth is the grid for one month.
type CalendarMonth struct {
	Year  int           `json:"year"`
	Month int           `json:"month"`
	Days  []CalendarDay `json:"days"`
}

// BuildCalendarMonth lays out month (any day inside it) for the slot set.
// A day is available when it has at least one slot and is not before
// today; only available days are selectable.
func BuildCalendarMonth(slots []model.Slot, month time.Time, today string) CalendarMonth {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	withSlots := make(map[string]bool, len(slots))
	for _, s := range slots {
		withSlots[s.Date] = true
	}

	cal := CalendarMonth{Year: first.Year(), Month: int(first.Month())}
	for i := 0; i < int(first.Weekday()); i++ {
		cal.Days = append(cal.Days, CalendarDay{Padding: true})
	}
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		date := model.FormatDate(d)
		past := date < today
		avail := withSlots[date] && !past
		cal.Days = append(cal.Days, CalendarDay{
			Date:       date,
			Day:        d.Day(),
			Past:       past,
			Available:  avail,
			Selectable: avail,
		})
	}
	return cal
}

// ErrSlotNotOnDate is returned by Selection.SelectSlot for a slot that
// belongs to another day than the selected one.
var ErrSlotNotOnDate = errors.New("slot is not on the selected date")

// Selection is the visitor's current choice in the booking flow.
type Selection struct {
	Date string
	Slot *model.Slot
}

// SelectDate picks a day and clears any slot chosen on another day.
func (s Selection) SelectDate(date string) Selection {
	return Selection{Date: date}
}

// SelectSlot picks a slot on the selected day.
func (s Selection) SelectSlot(slot model.Slot) (Selection, error) {
	if s.Date == "" || slot.Date != s.Date {
		return s, ErrSlotNotOnDate
	}
	s.Slot = &slot
	return s, nil
}

// Ready reports whether a bookable slot is chosen.  A sold-out slot can be
// selected for display but not booked.
func (s Selection) Ready() bool {
	return s.Slot != nil && s.Slot.AvailableSeats > 0
}
