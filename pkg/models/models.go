package models

// Student is one participant row from an uploaded roster
type Student struct {
	Name              string       `json:"name" binding:"required"`
	Program           string       `json:"program"`
	Section           string       `json:"section"`
	Semester          string       `json:"semester"`
	Group             string       `json:"group,omitempty"`
	NormalizedProgram string       `json:"normalized_program,omitempty"`
	OriginalData      OriginalData `json:"original_data"`
}

// OriginalData keeps the roster values as they were typed, for display in reports
type OriginalData struct {
	Program  string `json:"program"`
	Section  string `json:"section"`
	Semester string `json:"semester"`
	Group    string `json:"group,omitempty"`
}

// EventMetadata describes the event the students attended
type EventMetadata struct {
	EventName   string `json:"event_name"`
	Coordinator string `json:"coordinator"`
	EventDate   string `json:"event_date"`
	Day         string `json:"day" binding:"required"`
	EventVenue  string `json:"event_venue"`
	EventTime   string `json:"event_time" binding:"required"`
}

// TimeSlot is a half-open interval in minutes since midnight
type TimeSlot struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ScheduleEntry is a single course or lab meeting in a section's timetable.
// Only labs carry a Group.
type ScheduleEntry struct {
	SubjectCode string `json:"subjectCode"`
	SubjectName string `json:"subjectName"`
	Faculty     string `json:"faculty"`
	FacultyCode string `json:"facultyCode"`
	Day         string `json:"day"`
	Time        string `json:"time"`
	Group       string `json:"group,omitempty"`
}

// Section is the timetable of one cohort
type Section struct {
	Courses []ScheduleEntry `json:"courses"`
	Labs    []ScheduleEntry `json:"labs"`
}

// MissedLecture is a schedule entry that overlaps the event for a given student
type MissedLecture struct {
	SubjectCode string `json:"subject_code"`
	SubjectName string `json:"subject_name"`
	Faculty     string `json:"faculty"`
	FacultyCode string `json:"faculty_code"`
	Time        string `json:"time"`
	Day         string `json:"day"`
	Group       string `json:"group,omitempty"`
}

// StudentWithMissedLectures is the terminal output entity of a resolution run
type StudentWithMissedLectures struct {
	Student
	MissedLectures []MissedLecture `json:"missed_lectures"`
}

// Warning is a non-fatal diagnostic produced while resolving a run
type Warning struct {
	Code    string `json:"code"`
	Student string `json:"student,omitempty"`
	Message string `json:"message"`
}

// Warning codes
const (
	WarnUnresolvedProgram = "unresolved_program"
	WarnUnresolvedSection = "unresolved_section"
	WarnFuzzyProgram      = "fuzzy_program_match"
	WarnBadLectureTime    = "unparseable_lecture_time"
	WarnBadEventTime      = "unparseable_event_time"
	WarnUnknownDay        = "unknown_event_day"
	WarnNoLabGroup        = "no_lab_group"
	WarnZeroConflicts     = "high_zero_conflict_ratio"
)

// ResolveInput is the JSON body accepted by the resolve endpoint
type ResolveInput struct {
	Event     EventMetadata `json:"event"`
	Students  []Student     `json:"students" binding:"required,dive"`
	Recipient string        `json:"recipient"`
}
