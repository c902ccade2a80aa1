// Package timeparse converts free-text event and lecture times into minute
// intervals.
package timeparse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/arnavshah/od-resolver-go/pkg/models"
)

// MinutesPerDay bounds every parsed time
const MinutesPerDay = 24 * 60

var (
	clock24    = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	clock12    = regexp.MustCompile(`(?i)^(\d{1,2})(?:[:.](\d{2}))?\s*([ap])\.?\s*m\.?$`)
	meridiem   = regexp.MustCompile(`(?i)[ap]\.?\s*m\.?$`)
	slotSep    = regexp.MustCompile(`[_,|]`)
	rangeSep   = regexp.MustCompile(`(?i)\s*(?:–|—|-|\bto\b)\s*`)
	lectureRgx = regexp.MustCompile(`(?i)^(?:(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\s+)?` +
		`(\d{1,2}:\d{2}(?:\s*[ap]m)?)\s*[-–—]\s*(\d{1,2}:\d{2}(?:\s*[ap]m)?)$`)
)

// ParseTimeToMinutes parses "HH:MM" (24-hour) or "H:MM AM|PM" into minutes
// since midnight. ok is false when the token is not a valid time.
func ParseTimeToMinutes(token string) (minutes int, ok bool) {
	token = strings.TrimSpace(token)

	if m := clock24.FindStringSubmatch(token); m != nil {
		h, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		if h > 23 || mm > 59 {
			return 0, false
		}
		return h*60 + mm, true
	}

	if m := clock12.FindStringSubmatch(token); m != nil {
		h, _ := strconv.Atoi(m[1])
		mm := 0
		if m[2] != "" {
			mm, _ = strconv.Atoi(m[2])
		}
		if h < 1 || h > 12 || mm > 59 {
			return 0, false
		}
		pm := strings.EqualFold(m[3], "p")
		switch {
		case h == 12 && !pm:
			h = 0
		case h != 12 && pm:
			h += 12
		}
		return h*60 + mm, true
	}

	return 0, false
}

// ParseEventTimeSlots splits an event time such as "09:15-10:10_14:15-15:10"
// into slots. Ranges that do not parse are skipped.
func ParseEventTimeSlots(raw string) []models.TimeSlot {
	var slots []models.TimeSlot
	for _, expr := range slotSep.Split(raw, -1) {
		expr = strings.TrimSpace(expr)
		if expr == "" {
			continue
		}
		if slot, ok := ParseRange(expr); ok {
			slots = append(slots, slot)
		}
	}
	return slots
}

// ParseRange parses a single "start-end" expression. A start without AM/PM
// borrows the end's marker when that keeps the range ordered, so
// "2:00 - 4:00 PM" is read as the afternoon.
func ParseRange(expr string) (models.TimeSlot, bool) {
	parts := rangeSep.Split(strings.TrimSpace(expr), -1)
	if len(parts) != 2 {
		return models.TimeSlot{}, false
	}
	startTok, endTok := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])

	end, ok := ParseTimeToMinutes(endTok)
	if !ok {
		return models.TimeSlot{}, false
	}

	if !meridiem.MatchString(startTok) {
		if marker := meridiem.FindString(endTok); marker != "" {
			if start, ok := ParseTimeToMinutes(startTok + " " + marker); ok && start < end {
				return models.TimeSlot{Start: start, End: end}, true
			}
		}
	}

	start, ok := ParseTimeToMinutes(startTok)
	if !ok || start >= end {
		return models.TimeSlot{}, false
	}
	return models.TimeSlot{Start: start, End: end}, true
}

// LectureTime is a parsed schedule entry time. Day is empty when the time
// string carried no weekday prefix.
type LectureTime struct {
	Day   string
	Start int
	End   int
}

// Slot returns the lecture interval as a TimeSlot
func (l LectureTime) Slot() models.TimeSlot {
	return models.TimeSlot{Start: l.Start, End: l.End}
}

// ParseLectureTime parses a timetable time such as "Monday 9:00-10:00" or
// "14:00–15:00".
func ParseLectureTime(raw string) (LectureTime, bool) {
	m := lectureRgx.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return LectureTime{}, false
	}
	slot, ok := ParseRange(m[2] + "-" + m[3])
	if !ok {
		return LectureTime{}, false
	}
	return LectureTime{Day: m[1], Start: slot.Start, End: slot.End}, true
}

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// CanonicalDay returns the capitalised weekday name for day, matched
// case-insensitively, and false when day is not a weekday.
func CanonicalDay(day string) (string, bool) {
	day = strings.TrimSpace(day)
	for _, w := range weekdays {
		if strings.EqualFold(w, day) {
			return w, true
		}
	}
	return day, false
}

// FormatMinutes renders minutes since midnight as "HH:MM"
func FormatMinutes(m int) string {
	return pad(m/60) + ":" + pad(m%60)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
