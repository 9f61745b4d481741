package pickup

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrBadClock    = errors.New("clock value must be HH:MM")
	ErrUnknownSlot = errors.New("pickup slot is not currently offered")
)

const (
	slotStep       = 10 * time.Minute
	preOpenLead    = 15 * time.Minute
	rightNowPrefix = "Right Now"
	labelFormat    = "15:04"
)

// Clock is a time of day independent of any date.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM" into a Clock.
func ParseClock(s string) (Clock, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return Clock{}, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return Clock{}, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return Clock{}, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	return Clock{Hour: hour, Minute: minute}, nil
}

// ClockFromMinutes converts minutes after midnight, the storage form of a
// stall's closing time, into a Clock.
func ClockFromMinutes(m int) Clock {
	return Clock{Hour: m / 60, Minute: m % 60}
}

// On pins the clock to the given day, in that day's location.
func (c Clock) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

// Slot is one selectable pickup option.
type Slot struct {
	Label string
	At    time.Time
}

// Planner computes the pickup options a buyer may choose. It is pure: the
// same now, lead time, and closing time always yield the same sequence. All
// callers anchor now to the single deployment time zone.
type Planner struct {
	Opening        Clock
	DefaultClosing Clock
}

// Slots returns the ordered pickup options for a stall.
//
// Before opening, the earliest pickup is opening plus fifteen minutes and no
// "Right Now" option exists. After opening, the earliest pickup is now plus
// the stall's lead time, and a labeled "Right Now" option is offered as long
// as that pickup still lands before closing. Scheduled slots start at the
// earliest pickup rounded up to the next multiple of ten minutes (an exact
// multiple still advances to the following slot) and repeat every ten
// minutes strictly before closing. An empty result means the stall can take
// no more orders today.
func (p Planner) Slots(now time.Time, leadMinutes int, closing *Clock) []Slot {
	opening := p.Opening.On(now)

	var earliest time.Time
	if now.Before(opening) {
		earliest = opening.Add(preOpenLead)
	} else {
		earliest = now.Add(time.Duration(leadMinutes) * time.Minute)
	}

	closingClock := p.DefaultClosing
	if closing != nil {
		closingClock = *closing
	}
	closesAt := closingClock.On(now)

	var slots []Slot
	if !now.Before(opening) && earliest.Before(closesAt) {
		label := fmt.Sprintf("%s (pick-up at %s)", rightNowPrefix, earliest.Format(labelFormat))
		slots = append(slots, Slot{Label: label, At: earliest})
	}

	next10 := (earliest.Minute()/10 + 1) * 10
	if next10 == 60 {
		earliest = earliest.Add(time.Hour)
		next10 = 0
	}
	cursor := time.Date(earliest.Year(), earliest.Month(), earliest.Day(),
		earliest.Hour(), next10, 0, 0, earliest.Location())

	for cursor.Before(closesAt) {
		slots = append(slots, Slot{Label: cursor.Format(labelFormat), At: cursor})
		cursor = cursor.Add(slotStep)
	}

	return slots
}

// Resolve maps a submitted slot label back to a concrete pickup timestamp.
// The label must be one the planner currently offers; stale labels from an
// old page are rejected rather than trusted.
func (p Planner) Resolve(label string, now time.Time, leadMinutes int, closing *Clock) (time.Time, error) {
	for _, slot := range p.Slots(now, leadMinutes, closing) {
		if slot.Label == label {
			if strings.HasPrefix(label, rightNowPrefix) {
				return now.Add(time.Duration(leadMinutes) * time.Minute), nil
			}
			return slot.At, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownSlot, label)
}
