// Package schedule holds the venue's calendar rules: the two fixed party
// slots, free-form intervals within a day and the overlap test used by
// every availability check.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Slot names accepted in the horario field.
const (
	SlotMorning   = "manana"
	SlotAfternoon = "tarde"
)

// DefaultDuration is applied when a booking gives a start time only.
const DefaultDuration = 3 * time.Hour

// DateLayout is the wire format of fecha_reserva.
const DateLayout = "2006-01-02"

var (
	ErrInvalidDate  = errors.New("fecha inválida, se espera YYYY-MM-DD")
	ErrInvalidTime  = errors.New("hora inválida, se espera HH:MM")
	ErrInvalidSlot  = errors.New("horario inválido, se espera manana o tarde")
	ErrInvalidRange = errors.New("hora_fin debe ser posterior a hora_inicio")
	ErrMissingTime  = errors.New("se requiere horario u hora_inicio")
)

// Interval is a half-open range [Start, End) in minutes since midnight.
type Interval struct {
	Start int
	End   int
}

var slotRanges = map[string]Interval{
	SlotMorning:   {Start: 11 * 60, End: 15 * 60},
	SlotAfternoon: {Start: 17 * 60, End: 21 * 60},
}

// Slots lists the slot names in calendar order.
func Slots() []string { return []string{SlotMorning, SlotAfternoon} }

// SlotRange returns the fixed interval of a named slot.
func SlotRange(slot string) (Interval, error) {
	iv, ok := slotRanges[NormalizeSlot(slot)]
	if !ok {
		return Interval{}, ErrInvalidSlot
	}
	return iv, nil
}

// NormalizeSlot folds the accepted spellings of a slot name.
func NormalizeSlot(slot string) string {
	s := strings.ToLower(strings.TrimSpace(slot))
	switch s {
	case "mañana", "manana", "morning", "am":
		return SlotMorning
	case "tarde", "afternoon", "pm":
		return SlotAfternoon
	}
	return s
}

// SlotFor returns the slot that fully contains iv, or "" for free intervals.
func SlotFor(iv Interval) string {
	for _, name := range Slots() {
		r := slotRanges[name]
		if iv.Start >= r.Start && iv.End <= r.End {
			return name
		}
	}
	return ""
}

// Overlaps reports whether two intervals share at least one minute.
// Touching intervals (one ends when the other starts) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

// ParseDate validates a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// ParseClock converts HH:MM or HH:MM:SS into minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, ErrInvalidTime
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, ErrInvalidTime
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, ErrInvalidTime
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// DefaultEnd returns start plus DefaultDuration, capped at midnight.
func DefaultEnd(start string) (string, error) {
	m, err := ParseClock(start)
	if err != nil {
		return "", err
	}
	end := m + int(DefaultDuration/time.Minute)
	if end > 24*60-1 {
		end = 24*60 - 1
	}
	return FormatClock(end), nil
}

// Window is a resolved booking time: the interval plus the slot it falls in.
type Window struct {
	Interval
	Horario    string
	HoraInicio string
	HoraFin    string
}

// Resolve turns the horario/hora_inicio/hora_fin triple of a request into a
// Window.  Explicit hours win over the slot name; a missing end defaults to
// start plus DefaultDuration; a slot name alone maps to its fixed range.
func Resolve(horario, inicio, fin string) (Window, error) {
	inicio = strings.TrimSpace(inicio)
	fin = strings.TrimSpace(fin)

	if inicio == "" {
		if strings.TrimSpace(horario) == "" {
			return Window{}, ErrMissingTime
		}
		iv, err := SlotRange(horario)
		if err != nil {
			return Window{}, err
		}
		return Window{
			Interval:   iv,
			Horario:    NormalizeSlot(horario),
			HoraInicio: FormatClock(iv.Start),
			HoraFin:    FormatClock(iv.End),
		}, nil
	}

	start, err := ParseClock(inicio)
	if err != nil {
		return Window{}, err
	}
	if fin == "" {
		if fin, err = DefaultEnd(inicio); err != nil {
			return Window{}, err
		}
	}
	end, err := ParseClock(fin)
	if err != nil {
		return Window{}, err
	}
	if end <= start {
		return Window{}, ErrInvalidRange
	}
	iv := Interval{Start: start, End: end}
	slot := SlotFor(iv)
	if h := NormalizeSlot(horario); h != "" {
		if _, ok := slotRanges[h]; !ok {
			return Window{}, ErrInvalidSlot
		}
		slot = h
	}
	return Window{
		Interval:   iv,
		Horario:    slot,
		HoraInicio: FormatClock(start),
		HoraFin:    FormatClock(end),
	}, nil
}
