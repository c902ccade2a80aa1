package resolver

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/arnavshah/od-resolver-go/pkg/models"
	"github.com/arnavshah/od-resolver-go/pkg/normalize"
	"github.com/arnavshah/od-resolver-go/pkg/timeparse"
	"github.com/arnavshah/od-resolver-go/pkg/timetable"
	"github.com/google/uuid"
)

// Options tunes the roll-up diagnostics of a run
type Options struct {
	// ZeroConflictRatio is the share of conflict-free students at which the
	// run is flagged as a likely systemic mismatch (wrong day, wrong time).
	ZeroConflictRatio float64
	// ZeroConflictMinStudents is the roster size below which the ratio
	// check is skipped.
	ZeroConflictMinStudents int
}

// DefaultOptions are used by ComputeMissedLectures
var DefaultOptions = Options{ZeroConflictRatio: 0.8, ZeroConflictMinStudents: 5}

// Result is the outcome of one resolution run
type Result struct {
	RunID              string                             `json:"run_id"`
	EventDay           string                             `json:"event_day"`
	Slots              []models.TimeSlot                  `json:"slots"`
	Students           []models.StudentWithMissedLectures `json:"students"`
	TotalStudents      int                                `json:"total_students"`
	TotalMissed        int                                `json:"total_missed_lectures"`
	StudentsWithMissed int                                `json:"students_with_missed_lectures"`
	Warnings           []models.Warning                   `json:"warnings"`
}

// Resolver matches a roster against a timetable. Each Compute starts a new
// run with empty diagnostics; the timetable it reads is shared and never
// modified. A Resolver is not safe for concurrent use.
type Resolver struct {
	Timetable timetable.Timetable
	Options   Options
	Warnings  []models.Warning

	badTimes map[string]bool
}

// NewResolver creates a resolver for one run
func NewResolver(tt timetable.Timetable, opts Options) *Resolver {
	return &Resolver{
		Timetable: tt,
		Options:   opts,
		badTimes:  make(map[string]bool),
	}
}

// ComputeMissedLectures resolves every student against tt with DefaultOptions
func ComputeMissedLectures(students []models.Student, eventTime, eventDay string, tt timetable.Timetable) Result {
	return NewResolver(tt, DefaultOptions).Compute(students, eventTime, eventDay)
}

// Compute parses the event time once and attaches the missed lectures to
// every student. Students that cannot be resolved get an empty list and a
// warning; the run itself never fails.
func (r *Resolver) Compute(students []models.Student, eventTime, eventDay string) Result {
	r.Warnings = nil
	r.badTimes = make(map[string]bool)

	res := Result{
		RunID:         uuid.NewString(),
		EventDay:      strings.TrimSpace(eventDay),
		TotalStudents: len(students),
		Students:      make([]models.StudentWithMissedLectures, 0, len(students)),
	}

	if day, ok := timeparse.CanonicalDay(eventDay); ok {
		res.EventDay = day
	} else {
		r.warn(models.WarnUnknownDay, "", fmt.Sprintf("event day %q is not a weekday name; no lectures can match", eventDay))
	}

	res.Slots = timeparse.ParseEventTimeSlots(eventTime)
	if len(res.Slots) == 0 {
		r.warn(models.WarnBadEventTime, "", fmt.Sprintf("event time %q contains no parseable time range", eventTime))
	}

	noGroup := 0
	for _, st := range students {
		st = normalize.Student(st)
		out := models.StudentWithMissedLectures{Student: st, MissedLectures: []models.MissedLecture{}}

		if section := r.resolveSection(st); section != nil {
			out.MissedLectures = r.MissedLectures(st, section, res.Slots, res.EventDay)
			if st.Group == "" && len(section.Labs) > 0 {
				noGroup++
			}
		}

		res.TotalMissed += len(out.MissedLectures)
		if len(out.MissedLectures) > 0 {
			res.StudentsWithMissed++
		}
		res.Students = append(res.Students, out)
	}

	if noGroup > 0 {
		r.warn(models.WarnNoLabGroup, "", fmt.Sprintf("%d student(s) have no lab group; every overlapping lab was attributed to them", noGroup))
	}
	r.checkZeroConflicts(res)

	res.Warnings = append([]models.Warning{}, r.Warnings...)
	return res
}

func (r *Resolver) resolveSection(st models.Student) *models.Section {
	if r.Timetable == nil {
		r.warn(models.WarnUnresolvedProgram, st.Name, "no timetable loaded")
		return nil
	}

	l, err := r.Timetable.Lookup(st.NormalizedProgram, st.Semester, st.Section)
	switch {
	case errors.Is(err, timetable.ErrProgramNotFound):
		r.warn(models.WarnUnresolvedProgram, st.Name, fmt.Sprintf("program %q (%q) has no timetable", st.NormalizedProgram, st.OriginalData.Program))
		return nil
	case err != nil:
		r.warn(models.WarnUnresolvedSection, st.Name, err.Error())
		return nil
	}

	if l.Match == timetable.MatchFuzzy {
		r.warn(models.WarnFuzzyProgram, st.Name, fmt.Sprintf("program %q matched timetable key %q by edit distance", st.NormalizedProgram, l.ProgramKey))
	}
	return l.Section
}

// MissedLectures returns the ordered union over all event slots of the
// courses and labs in section that the student misses. An entry that
// overlaps several slots is listed once, under the first slot it overlaps.
func (r *Resolver) MissedLectures(st models.Student, section *models.Section, slots []models.TimeSlot, eventDay string) []models.MissedLecture {
	type candidate struct {
		entry models.ScheduleEntry
		slot  int
	}
	var candidates []candidate
	add := func(e models.ScheduleEntry) {
		iv, ok := r.entryInterval(e, eventDay, st.Name)
		if !ok {
			return
		}
		if i := firstOverlap(iv, slots); i >= 0 {
			candidates = append(candidates, candidate{e, i})
		}
	}
	for _, c := range section.Courses {
		add(c)
	}
	for _, lab := range section.Labs {
		if AllowsLab(lab, st) {
			add(lab)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].slot < candidates[j].slot })
	missed := make([]models.MissedLecture, 0, len(candidates))
	for _, c := range candidates {
		missed = append(missed, toMissed(c.entry))
	}
	return missed
}

// entryInterval returns the interval of entry when it falls on eventDay and
// its time parses.
func (r *Resolver) entryInterval(entry models.ScheduleEntry, eventDay, student string) (models.TimeSlot, bool) {
	slot, parsed, ok := lectureSlot(entry, eventDay)
	if !parsed {
		if r.badTimes == nil {
			r.badTimes = make(map[string]bool)
		}
		key := entry.SubjectCode + "|" + entry.Time
		if !r.badTimes[key] {
			r.badTimes[key] = true
			r.warn(models.WarnBadLectureTime, student, fmt.Sprintf("cannot parse time %q of %s", entry.Time, entry.SubjectCode))
		}
	}
	return slot, ok
}

func (r *Resolver) checkZeroConflicts(res Result) {
	if res.TotalStudents == 0 || res.TotalStudents < r.Options.ZeroConflictMinStudents || r.Options.ZeroConflictRatio <= 0 {
		return
	}
	zero := res.TotalStudents - res.StudentsWithMissed
	if float64(zero)/float64(res.TotalStudents) >= r.Options.ZeroConflictRatio {
		r.warn(models.WarnZeroConflicts, "", fmt.Sprintf("%d of %d students miss no lectures; check the event day and time", zero, res.TotalStudents))
	}
}

func (r *Resolver) warn(code, student, msg string) {
	r.Warnings = append(r.Warnings, models.Warning{Code: code, Student: student, Message: msg})
}

func toMissed(e models.ScheduleEntry) models.MissedLecture {
	return models.MissedLecture{
		SubjectCode: e.SubjectCode,
		SubjectName: e.SubjectName,
		Faculty:     e.Faculty,
		FacultyCode: e.FacultyCode,
		Time:        e.Time,
		Day:         e.Day,
		Group:       e.Group,
	}
}
