package sheet

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/arnavshah/od-resolver-go/pkg/fuzzy"
	"github.com/arnavshah/od-resolver-go/pkg/models"
	"github.com/arnavshah/od-resolver-go/pkg/normalize"
)

const (
	// headerScanRows is how far down the sheet the header row is searched for
	headerScanRows = 30
	// minHeaderColumns is the number of recognized columns a header needs
	minHeaderColumns = 3
	// blankRowsEndData is the number of consecutive blank rows that end the
	// student table
	blankRowsEndData = 3
	// labelThreshold is the similarity a metadata label needs when no
	// variant is contained in it
	labelThreshold = 0.85
)

var ErrTooFewRows = errors.New("spreadsheet needs a header row and at least one student row")

// Column names
const (
	ColName     = "name"
	ColProgram  = "program"
	ColSection  = "section"
	ColSemester = "semester"
	ColGroup    = "group"
)

// RequiredColumns must all be present in the header row
var RequiredColumns = []string{ColName, ColProgram, ColSection, ColSemester}

// columnVariants maps each column to its header spellings. "batch" is not a
// group spelling: rosters use it for the admission year ("2022-26").
var columnVariants = map[string][]string{
	ColName:     {"name", "student name", "name of student", "full name", "student"},
	ColProgram:  {"program", "programme", "course", "branch", "department", "dept", "degree"},
	ColSection:  {"section", "sec", "class section", "div", "division"},
	ColSemester: {"semester", "sem", "term"},
	ColGroup:    {"group", "lab group", "grp"},
}

// fuzzyColumnOrder is the order in which unclaimed columns are matched
// fuzzily. Name goes last since its variants are the most generic.
var fuzzyColumnOrder = []string{ColProgram, ColSection, ColSemester, ColGroup, ColName}

// HeaderError reports a header row that lacks required columns
type HeaderError struct {
	Detected []string `json:"detected"`
	Expected []string `json:"expected"`
	Missing  []string `json:"missing"`
}

func (e *HeaderError) Error() string {
	detected := "none"
	if len(e.Detected) > 0 {
		detected = strings.Join(e.Detected, ", ")
	}
	return fmt.Sprintf("missing required columns: %s (detected headers: %s)", strings.Join(e.Missing, ", "), detected)
}

// Upload is a parsed roster
type Upload struct {
	Event    models.EventMetadata `json:"event"`
	Students []models.Student     `json:"students"`
	// HeaderRow is the 1-based sheet row of the column headers
	HeaderRow int `json:"header_row"`
	// Columns maps each recognized column to the header text it came from
	Columns     map[string]string `json:"columns"`
	SkippedRows int               `json:"skipped_rows"`
}

// Parse finds the header row, reads the metadata above it and the students
// below it. Students come back normalized with their raw values kept in
// OriginalData.
func Parse(rows [][]string) (*Upload, error) {
	if countNonBlank(rows) < 2 {
		return nil, ErrTooFewRows
	}

	headerIdx, cols, err := findHeader(rows)
	if err != nil {
		return nil, err
	}

	up := &Upload{
		Event:     parseMetadata(rows[:headerIdx]),
		HeaderRow: headerIdx + 1,
		Columns:   make(map[string]string, len(cols)),
		Students:  []models.Student{},
	}
	for field, idx := range cols {
		up.Columns[field] = strings.TrimSpace(rows[headerIdx][idx])
	}

	blanks := 0
	for _, row := range rows[headerIdx+1:] {
		if isBlank(row) {
			blanks++
			if blanks >= blankRowsEndData {
				break
			}
			continue
		}
		blanks = 0

		st := models.Student{
			Name:     cell(row, cols, ColName),
			Program:  cell(row, cols, ColProgram),
			Section:  cell(row, cols, ColSection),
			Semester: cell(row, cols, ColSemester),
			Group:    cell(row, cols, ColGroup),
		}
		if st.Name == "" {
			up.SkippedRows++
			continue
		}
		up.Students = append(up.Students, normalize.Student(st))
	}

	if len(up.Students) == 0 {
		return nil, ErrTooFewRows
	}
	return up, nil
}

// findHeader returns the index of the first row within headerScanRows that
// carries at least minHeaderColumns recognized columns. A header missing a
// required column is an error.
func findHeader(rows [][]string) (int, map[string]int, error) {
	bestIdx, bestCount := -1, 0
	limit := min(len(rows), headerScanRows)

	for i := 0; i < limit; i++ {
		cols := matchColumns(rows[i])
		if len(cols) >= minHeaderColumns {
			if missing := missingColumns(cols); len(missing) > 0 {
				return 0, nil, &HeaderError{Detected: nonBlank(rows[i]), Expected: RequiredColumns, Missing: missing}
			}
			return i, cols, nil
		}
		if len(cols) > bestCount {
			bestIdx, bestCount = i, len(cols)
		}
	}

	herr := &HeaderError{Expected: RequiredColumns, Missing: RequiredColumns}
	if bestIdx >= 0 {
		herr.Detected = nonBlank(rows[bestIdx])
		herr.Missing = missingColumns(matchColumns(rows[bestIdx]))
	}
	return 0, nil, herr
}

// matchColumns maps column names to cell indexes. Exact variant matches are
// claimed first, then remaining cells are matched fuzzily.
func matchColumns(row []string) map[string]int {
	cols := make(map[string]int)
	claimed := make(map[int]bool)

	for i, raw := range row {
		label := cleanLabel(raw)
		if label == "" {
			continue
		}
		for field, variants := range columnVariants {
			if _, ok := cols[field]; ok {
				continue
			}
			if contains(variants, label) {
				cols[field] = i
				claimed[i] = true
				break
			}
		}
	}

	for _, field := range fuzzyColumnOrder {
		if _, ok := cols[field]; ok {
			continue
		}
		for i, raw := range row {
			if claimed[i] {
				continue
			}
			if matchesAny(cleanLabel(raw), columnVariants[field]) {
				cols[field] = i
				claimed[i] = true
				break
			}
		}
	}
	return cols
}

func matchesAny(label string, variants []string) bool {
	if label == "" {
		return false
	}
	for _, v := range variants {
		if fuzzy.Match(label, v, fuzzy.DefaultThreshold) {
			return true
		}
	}
	return false
}

func missingColumns(cols map[string]int) []string {
	var missing []string
	for _, field := range RequiredColumns {
		if _, ok := cols[field]; !ok {
			missing = append(missing, field)
		}
	}
	return missing
}

var labelSeparators = regexp.MustCompile(`[\-_/]+`)

// cleanLabel lowercases a header or metadata label and treats separators
// as spaces, so "Date/Day" keeps both words.
func cleanLabel(s string) string {
	return fuzzy.Clean(labelSeparators.ReplaceAllString(s, " "))
}

func cell(row []string, cols map[string]int, field string) string {
	idx, ok := cols[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func nonBlank(row []string) []string {
	out := []string{}
	for _, c := range row {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func countNonBlank(rows [][]string) int {
	n := 0
	for _, row := range rows {
		if !isBlank(row) {
			n++
		}
	}
	return n
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
