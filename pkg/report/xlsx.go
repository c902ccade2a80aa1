package report

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/arnavshah/od-resolver-go/pkg/models"
	"github.com/arnavshah/od-resolver-go/pkg/resolver"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the generated workbook
const (
	SheetEvent  = "Event Details"
	SheetMissed = "Missed Lectures"
)

// XLSXContentType is the media type of the generated workbook
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var missedHeader = []string{
	"Name", "Program", "Section", "Semester", "Group",
	"Subject Code", "Subject Name", "Faculty", "Faculty Code", "Day", "Time",
}

// BuildWorkbook writes the event sheet and the missed-lecture sheet. Students
// without missed lectures get a single row with the lecture columns blank.
func BuildWorkbook(event models.EventMetadata, res resolver.Result) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetEvent); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(SheetMissed); err != nil {
		f.Close()
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := writeEventSheet(f, bold, event, res); err != nil {
		f.Close()
		return nil, fmt.Errorf("write %s: %w", SheetEvent, err)
	}
	if err := writeMissedSheet(f, bold, res); err != nil {
		f.Close()
		return nil, fmt.Errorf("write %s: %w", SheetMissed, err)
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeEventSheet(f *excelize.File, bold int, event models.EventMetadata, res resolver.Result) error {
	rows := [][]interface{}{
		{"Event Name", event.EventName},
		{"Coordinator", event.Coordinator},
		{"Date", event.EventDate},
		{"Day", event.Day},
		{"Venue", event.EventVenue},
		{"Time", event.EventTime},
		{},
		{"Total Students", res.TotalStudents},
		{"Students With Missed Lectures", res.StudentsWithMissed},
		{"Total Missed Lectures", res.TotalMissed},
		{"Run ID", res.RunID},
	}
	if len(res.Warnings) > 0 {
		rows = append(rows, []interface{}{}, []interface{}{"Warnings"})
		for _, w := range res.Warnings {
			msg := w.Message
			if w.Student != "" {
				msg = w.Student + ": " + msg
			}
			rows = append(rows, []interface{}{w.Code, msg})
		}
	}

	for i, row := range rows {
		if err := setRow(f, SheetEvent, i+1, row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SheetEvent, "A1", "A"+strconv.Itoa(len(rows)), bold); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetEvent, "A", "A", 30); err != nil {
		return err
	}
	return f.SetColWidth(SheetEvent, "B", "B", 50)
}

func writeMissedSheet(f *excelize.File, bold int, res resolver.Result) error {
	header := make([]interface{}, len(missedHeader))
	for i, h := range missedHeader {
		header[i] = h
	}
	if err := setRow(f, SheetMissed, 1, header); err != nil {
		return err
	}
	last, _ := excelize.ColumnNumberToName(len(missedHeader))
	if err := f.SetCellStyle(SheetMissed, "A1", last+"1", bold); err != nil {
		return err
	}

	row := 2
	for _, st := range res.Students {
		base := studentCells(st.Student)
		if len(st.MissedLectures) == 0 {
			if err := setRow(f, SheetMissed, row, base); err != nil {
				return err
			}
			row++
			continue
		}
		for _, ml := range st.MissedLectures {
			cells := append(append([]interface{}{}, base...),
				ml.SubjectCode, ml.SubjectName, ml.Faculty, ml.FacultyCode, ml.Day, ml.Time)
			if err := setRow(f, SheetMissed, row, cells); err != nil {
				return err
			}
			row++
		}
	}
	if err := f.SetColWidth(SheetMissed, "A", "B", 24); err != nil {
		return err
	}
	return f.SetColWidth(SheetMissed, "C", last, 16)
}

// studentCells shows the roster values as typed, falling back to the
// normalized ones.
func studentCells(st models.Student) []interface{} {
	return []interface{}{
		st.Name,
		firstNonEmpty(st.OriginalData.Program, st.NormalizedProgram),
		firstNonEmpty(st.OriginalData.Section, st.Section),
		firstNonEmpty(st.OriginalData.Semester, st.Semester),
		firstNonEmpty(st.OriginalData.Group, st.Group),
	}
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Filename returns the download name for an event's workbook
func Filename(event models.EventMetadata) string {
	name := strings.Trim(unsafeFilename.ReplaceAllString(event.EventName, "_"), "_")
	if name == "" {
		name = "event"
	}
	return "OD_Report_" + name + ".xlsx"
}
