package resolver

import (
	"testing"

	"github.com/arnavshah/od-resolver-go/pkg/models"
	"github.com/arnavshah/od-resolver-go/pkg/timetable"
)

func course(code, day, tm string) models.ScheduleEntry {
	return models.ScheduleEntry{SubjectCode: code, SubjectName: code + " name", Faculty: "Dr. X", FacultyCode: "DX", Day: day, Time: tm}
}

func lab(code, day, tm, group string) models.ScheduleEntry {
	e := course(code, day, tm)
	e.Group = group
	return e
}

func nestedTimetable(sec *models.Section) timetable.Timetable {
	return timetable.Nested{
		"B.Tech CSE": {"5": {"Section A": sec}},
	}
}

func student(name, group string) models.Student {
	return models.Student{Name: name, Program: "btech cse", Section: "a", Semester: "5th", Group: group}
}

func TestOverlapBoundaries(t *testing.T) {
	if Overlap(0, 60, 60, 120) {
		t.Errorf("Expected touching ranges not to overlap")
	}
	if !Overlap(0, 61, 60, 120) {
		t.Errorf("Expected [0,61) and [60,120) to overlap")
	}
	pairs := [][4]int{{0, 60, 60, 120}, {0, 61, 60, 120}, {10, 20, 0, 100}, {0, 5, 6, 9}}
	for _, p := range pairs {
		if Overlap(p[0], p[1], p[2], p[3]) != Overlap(p[2], p[3], p[0], p[1]) {
			t.Errorf("Expected Overlap to be symmetric for %v", p)
		}
	}
}

func TestHasOverlap(t *testing.T) {
	slots := []models.TimeSlot{{Start: 555, End: 610}}

	if !HasOverlap(course("C1", "Monday", "9:00-10:00"), slots, "monday") {
		t.Errorf("Expected 9:00-10:00 to overlap 09:15-10:10 on Monday")
	}
	if HasOverlap(course("C2", "Monday", "10:10-11:00"), slots, "Monday") {
		t.Errorf("Expected 10:10-11:00 not to overlap a slot ending at 10:10")
	}
	if HasOverlap(course("C3", "Tuesday", "9:00-10:00"), slots, "Monday") {
		t.Errorf("Expected a Tuesday course not to overlap a Monday event")
	}
	if HasOverlap(course("C4", "", "Tuesday 9:00-10:00"), slots, "Monday") {
		t.Errorf("Expected the day prefix in the time to gate the overlap")
	}
	if HasOverlap(course("C5", "Monday", "sometime"), slots, "Monday") {
		t.Errorf("Expected unparseable time not to overlap")
	}
	if HasOverlap(course("C6", "", "9:00-10:00"), slots, "Funday") {
		t.Errorf("Expected no overlap on a non-weekday")
	}
}

func TestAllowsLab(t *testing.T) {
	l := lab("L1", "Monday", "9:00-11:00", "Group 1")
	if AllowsLab(l, student("a", "2")) {
		t.Errorf("Expected group 2 student to be excluded from a Group 1 lab")
	}
	if !AllowsLab(l, student("b", "1")) {
		t.Errorf("Expected group 1 student to be allowed")
	}
	if !AllowsLab(l, student("c", "")) {
		t.Errorf("Expected student without group to be allowed")
	}
}

func TestComputeSingleSlot(t *testing.T) {
	tt := nestedTimetable(&models.Section{
		Courses: []models.ScheduleEntry{
			course("CS501", "Monday", "9:00-10:00"),
			course("CS502", "Monday", "10:10-11:00"),
		},
	})

	res := ComputeMissedLectures([]models.Student{student("Asha", "")}, "09:15-10:10", "Monday", tt)
	if res.TotalStudents != 1 || res.TotalMissed != 1 {
		t.Fatalf("Expected 1 student with 1 missed lecture, got %d/%d", res.TotalStudents, res.TotalMissed)
	}
	got := res.Students[0].MissedLectures
	if got[0].SubjectCode != "CS501" {
		t.Errorf("Expected CS501 to be missed, got %s", got[0].SubjectCode)
	}
	if res.RunID == "" {
		t.Errorf("Expected a run id")
	}
	if res.Students[0].OriginalData.Program != "btech cse" || res.Students[0].NormalizedProgram != "B.Tech CSE" {
		t.Errorf("Expected raw and normalized program to be kept, got %+v", res.Students[0].Student)
	}
}

func TestComputeTouchingBoundaryOnly(t *testing.T) {
	tt := nestedTimetable(&models.Section{
		Courses: []models.ScheduleEntry{course("CS502", "Monday", "10:10-11:00")},
	})
	res := ComputeMissedLectures([]models.Student{student("Asha", "")}, "09:15-10:10", "Monday", tt)
	if res.TotalMissed != 0 {
		t.Errorf("Expected no missed lectures, got %d", res.TotalMissed)
	}
}

func TestComputeMultiSlot(t *testing.T) {
	tt := nestedTimetable(&models.Section{
		Courses: []models.ScheduleEntry{
			course("PM", "Monday", "14:00-15:00"),
			course("AM", "Monday", "9:00-10:00"),
		},
	})
	res := ComputeMissedLectures([]models.Student{student("Asha", "")}, "09:15-10:10_14:15-15:10", "Monday", tt)
	got := res.Students[0].MissedLectures
	if len(got) != 2 {
		t.Fatalf("Expected 2 missed lectures, got %d", len(got))
	}
	if got[0].SubjectCode != "AM" || got[1].SubjectCode != "PM" {
		t.Errorf("Expected lectures ordered by event slot, got %s, %s", got[0].SubjectCode, got[1].SubjectCode)
	}
}

func TestComputeEntryOverlappingTwoSlotsListedOnce(t *testing.T) {
	tt := nestedTimetable(&models.Section{
		Courses: []models.ScheduleEntry{course("LONG", "Monday", "9:00-12:00")},
	})
	res := ComputeMissedLectures([]models.Student{student("Asha", "")}, "09:00-10:00, 11:00-12:00", "Monday", tt)
	if res.TotalMissed != 1 {
		t.Errorf("Expected the long lecture once, got %d", res.TotalMissed)
	}
}

func TestComputeLabGroups(t *testing.T) {
	tt := nestedTimetable(&models.Section{
		Labs: []models.ScheduleEntry{lab("LAB1", "Monday", "9:00-11:00", "Group 1")},
	})
	students := []models.Student{student("Two", "2"), student("One", "1"), student("None", "")}
	res := ComputeMissedLectures(students, "09:15-10:10", "Monday", tt)

	want := map[string]int{"Two": 0, "One": 1, "None": 1}
	for _, s := range res.Students {
		if len(s.MissedLectures) != want[s.Name] {
			t.Errorf("Expected %s to miss %d labs, got %d", s.Name, want[s.Name], len(s.MissedLectures))
		}
	}
	if !hasWarning(res, models.WarnNoLabGroup) {
		t.Errorf("Expected a warning about students without a lab group")
	}
}

func TestComputeUnresolvedStudentsDoNotFailBatch(t *testing.T) {
	tt := nestedTimetable(&models.Section{
		Courses: []models.ScheduleEntry{course("CS501", "Monday", "9:00-10:00")},
	})
	students := []models.Student{
		student("Found", ""),
		{Name: "Mech", Program: "Mechanical", Section: "A", Semester: "5"},
		{Name: "WrongSec", Program: "CSE", Section: "Z", Semester: "5"},
		{Name: "WrongSem", Program: "CSE", Section: "A", Semester: "7"},
	}
	res := ComputeMissedLectures(students, "09:15-10:10", "Monday", tt)

	if len(res.Students) != 4 {
		t.Fatalf("Expected 4 records, got %d", len(res.Students))
	}
	empty := 0
	for _, s := range res.Students {
		if s.MissedLectures == nil {
			t.Errorf("Expected an empty list, not nil, for %s", s.Name)
		}
		if len(s.MissedLectures) == 0 {
			empty++
		}
	}
	if empty != 3 {
		t.Errorf("Expected 3 students without missed lectures, got %d", empty)
	}
	if !hasWarning(res, models.WarnUnresolvedProgram) || !hasWarning(res, models.WarnUnresolvedSection) {
		t.Errorf("Expected unresolved program and section warnings, got %+v", res.Warnings)
	}
}

func TestComputeEventDiagnostics(t *testing.T) {
	tt := nestedTimetable(&models.Section{
		Courses: []models.ScheduleEntry{course("CS501", "Monday", "9:00-10:00"), course("BAD", "Monday", "morning")},
	})
	students := make([]models.Student, 6)
	for i := range students {
		students[i] = student("s", "")
	}

	res := ComputeMissedLectures(students, "09:15-10:10", "Moonday", tt)
	if res.TotalMissed != 0 {
		t.Errorf("Expected no matches on an unknown day, got %d", res.TotalMissed)
	}
	for _, code := range []string{models.WarnUnknownDay, models.WarnZeroConflicts, models.WarnBadLectureTime} {
		if !hasWarning(res, code) {
			t.Errorf("Expected warning %s, got %+v", code, res.Warnings)
		}
	}
	bad := 0
	for _, w := range res.Warnings {
		if w.Code == models.WarnBadLectureTime {
			bad++
		}
	}
	if bad != 1 {
		t.Errorf("Expected the bad lecture time reported once, got %d", bad)
	}

	res = ComputeMissedLectures(students[:1], "all day", "Monday", tt)
	if !hasWarning(res, models.WarnBadEventTime) {
		t.Errorf("Expected unparseable event time warning")
	}
}

func TestComputeFuzzyProgramWarning(t *testing.T) {
	tt, err := timetable.Parse([]byte(`{"Programs": {"Informaton Technology": {"Section A": {"courses": [
		{"subjectCode": "IT1", "day": "Monday", "time": "9:00-10:00"}]}}}}`))
	if err != nil {
		t.Fatal(err)
	}
	st := models.Student{Name: "Ravi", Program: "information technology", Section: "A", Semester: "5"}
	res := ComputeMissedLectures([]models.Student{st}, "9:30-9:45", "Monday", tt)
	if res.TotalMissed != 1 {
		t.Errorf("Expected 1 missed lecture, got %d", res.TotalMissed)
	}
	if !hasWarning(res, models.WarnFuzzyProgram) {
		t.Errorf("Expected fuzzy program warning, got %+v", res.Warnings)
	}
}

func hasWarning(res Result, code string) bool {
	for _, w := range res.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

func TestComputeStartsEachRunWithoutPreviousWarnings(t *testing.T) {
	tt := nestedTimetable(&models.Section{
		Courses: []models.ScheduleEntry{course("CS501", "Monday", "9:00-10:00"), course("BAD", "Monday", "morning")},
	})
	r := NewResolver(tt, DefaultOptions)

	first := r.Compute([]models.Student{student("Asha", "")}, "all day", "Moonday")
	if len(first.Warnings) == 0 {
		t.Fatalf("Expected warnings for a bad day and time")
	}

	second := r.Compute([]models.Student{student("Asha", "")}, "09:15-10:10", "Monday")
	if hasWarning(second, models.WarnUnknownDay) || hasWarning(second, models.WarnBadEventTime) {
		t.Errorf("Expected no warnings carried over from the previous run, got %+v", second.Warnings)
	}
	bad := 0
	for _, w := range second.Warnings {
		if w.Code == models.WarnBadLectureTime {
			bad++
		}
	}
	if bad != 1 {
		t.Errorf("Expected the bad lecture time reported again in the new run, got %d", bad)
	}
	if second.TotalMissed != 1 {
		t.Errorf("Expected 1 missed lecture, got %d", second.TotalMissed)
	}
}

func TestHasOverlapAgreesWithMissedLectures(t *testing.T) {
	section := &models.Section{
		Courses: []models.ScheduleEntry{
			course("ON", "Monday", "9:00-10:00"),
			course("TOUCH", "Monday", "10:10-11:00"),
			course("OTHERDAY", "Tuesday", "9:00-10:00"),
			course("PREFIXED", "", "Monday 14:00-15:00"),
			course("BAD", "Monday", "noon"),
		},
	}
	slots := []models.TimeSlot{{Start: 555, End: 610}, {Start: 855, End: 910}}
	r := NewResolver(nil, DefaultOptions)
	missed := r.MissedLectures(student("Asha", ""), section, slots, "Monday")

	got := map[string]bool{}
	for _, ml := range missed {
		got[ml.SubjectCode] = true
	}
	for _, e := range section.Courses {
		if HasOverlap(e, slots, "Monday") != got[e.SubjectCode] {
			t.Errorf("Expected HasOverlap and MissedLectures to agree on %s", e.SubjectCode)
		}
	}
	if len(missed) != 2 || missed[0].SubjectCode != "ON" || missed[1].SubjectCode != "PREFIXED" {
		t.Errorf("Expected ON then PREFIXED, got %+v", missed)
	}
}
