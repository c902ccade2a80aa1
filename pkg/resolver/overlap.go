package resolver

import (
	"strings"

	"github.com/arnavshah/od-resolver-go/pkg/models"
	"github.com/arnavshah/od-resolver-go/pkg/normalize"
	"github.com/arnavshah/od-resolver-go/pkg/timeparse"
)

// Overlap checks if two half-open minute ranges overlap. Ranges that only
// touch do not.
func Overlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// HasOverlap reports whether entry falls on eventDay and overlaps any of
// the event slots. Entries whose time cannot be parsed never overlap.
func HasOverlap(entry models.ScheduleEntry, slots []models.TimeSlot, eventDay string) bool {
	slot, _, ok := lectureSlot(entry, eventDay)
	return ok && firstOverlap(slot, slots) >= 0
}

// lectureSlot returns the interval of entry when it is held on eventDay.
// parsed is false when the entry's time does not parse.
func lectureSlot(entry models.ScheduleEntry, eventDay string) (slot models.TimeSlot, parsed, ok bool) {
	lt, parsed := timeparse.ParseLectureTime(entry.Time)
	if !parsed {
		return models.TimeSlot{}, false, false
	}
	if !onDay(entry.Day, eventDay) || !onDay(lt.Day, eventDay) {
		return models.TimeSlot{}, true, false
	}
	return lt.Slot(), true, true
}

// firstOverlap returns the index of the first slot that overlaps iv, or -1
func firstOverlap(iv models.TimeSlot, slots []models.TimeSlot) int {
	for i, s := range slots {
		if Overlap(iv.Start, iv.End, s.Start, s.End) {
			return i
		}
	}
	return -1
}

// AllowsLab checks the lab-group partition. Courses always pass. A lab
// passes when the student's group matches it, or when the student has no
// group at all.
func AllowsLab(entry models.ScheduleEntry, st models.Student) bool {
	if entry.Group == "" {
		return true
	}
	group := normalize.Group(st.Group)
	if group == "" {
		return true
	}
	return strings.EqualFold(normalize.Group(entry.Group), group)
}

// onDay is true when day is unset or names eventDay. Nothing is on a day
// that is not a weekday name.
func onDay(day, eventDay string) bool {
	want, ok := timeparse.CanonicalDay(eventDay)
	if !ok {
		return false
	}
	day = strings.TrimSpace(day)
	if day == "" {
		return true
	}
	if got, ok := timeparse.CanonicalDay(day); ok {
		return got == want
	}
	return strings.EqualFold(day, want)
}
