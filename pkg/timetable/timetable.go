// Package timetable loads the section timetables and resolves a student's
// program/semester/section to one of them.
//
// Two document shapes are supported. The nested shape is keyed
// program -> semester -> section and is looked up directly. The programs
// shape wraps its programs in a top-level "Programs" object, tolerates
// naming variance in the program key and may or may not carry a semester
// level per program.
package timetable

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/arnavshah/od-resolver-go/pkg/models"
	"github.com/arnavshah/od-resolver-go/pkg/normalize"
)

//go:embed data/timetable.json
var defaultTimetable []byte

var (
	ErrProgramNotFound  = errors.New("program not found in timetable")
	ErrSemesterNotFound = errors.New("semester not found in timetable")
	ErrSectionNotFound  = errors.New("section not found in timetable")
	ErrEmptyTimetable   = errors.New("timetable document is empty")
)

// Shape tags the document layout a Timetable was loaded from
type Shape string

const (
	ShapeNested   Shape = "nested"
	ShapePrograms Shape = "programs"
)

// MatchKind records how the program key was found
type MatchKind int

const (
	MatchExact MatchKind = iota
	MatchVariant
	MatchFuzzy
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchVariant:
		return "variant"
	case MatchFuzzy:
		return "fuzzy"
	}
	return "unknown"
}

// Lookup is a resolved section together with the keys that led to it
type Lookup struct {
	Section    *models.Section
	ProgramKey string
	SectionKey string
	Match      MatchKind
}

// Timetable is read-only reference data shared by every student of a run.
// The interface is closed: only Nested and Programs implement it.
type Timetable interface {
	Shape() Shape
	// Lookup returns ErrProgramNotFound, ErrSemesterNotFound or
	// ErrSectionNotFound when a level cannot be resolved.
	Lookup(program, semester, section string) (Lookup, error)
	sealed()
}

// Nested is the program -> semester -> section document shape
type Nested map[string]map[string]map[string]*models.Section

func (Nested) Shape() Shape { return ShapeNested }
func (Nested) sealed()      {}

// Lookup walks the three levels with direct key lookups. The normalizer
// produces the canonical keys, so no fuzzy matching happens here.
func (n Nested) Lookup(program, semester, section string) (Lookup, error) {
	semesters, ok := n[program]
	if !ok {
		return Lookup{}, fmt.Errorf("%w: %q", ErrProgramNotFound, program)
	}
	sections, ok := semesters[semester]
	if !ok {
		return Lookup{}, fmt.Errorf("%w: %q semester %q", ErrSemesterNotFound, program, semester)
	}
	sec, ok := sections[section]
	if !ok || sec == nil {
		return Lookup{}, fmt.Errorf("%w: %q semester %q %q", ErrSectionNotFound, program, semester, section)
	}
	return Lookup{Section: sec, ProgramKey: program, SectionKey: section, Match: MatchExact}, nil
}

// ProgramEntry holds one program of the programs shape. Exactly one of
// Sections and Semesters is populated.
type ProgramEntry struct {
	Sections  map[string]*models.Section
	Semesters map[string]map[string]*models.Section
}

// Programs is the {"Programs": {...}} document shape
type Programs struct {
	entries map[string]ProgramEntry
	keys    []string
}

func (*Programs) Shape() Shape { return ShapePrograms }
func (*Programs) sealed()      {}

// Keys returns the program keys in sorted order
func (p *Programs) Keys() []string {
	return append([]string(nil), p.keys...)
}

// Lookup resolves the program key with FindProgramKey, then the semester (if
// the program has that level) and finally the section.
func (p *Programs) Lookup(program, semester, section string) (Lookup, error) {
	key, kind, ok := p.FindProgramKey(program)
	if !ok {
		return Lookup{}, fmt.Errorf("%w: %q", ErrProgramNotFound, program)
	}
	entry := p.entries[key]

	sections := entry.Sections
	if entry.Semesters != nil {
		sections, ok = entry.Semesters[semester]
		if !ok {
			return Lookup{}, fmt.Errorf("%w: %q semester %q", ErrSemesterNotFound, key, semester)
		}
	}

	secKey, sec, ok := findSection(sections, section)
	if !ok {
		return Lookup{}, fmt.Errorf("%w: %q %q", ErrSectionNotFound, key, section)
	}
	return Lookup{Section: sec, ProgramKey: key, SectionKey: secKey, Match: kind}, nil
}

func findSection(sections map[string]*models.Section, section string) (string, *models.Section, bool) {
	if sec, ok := sections[section]; ok && sec != nil {
		return section, sec, true
	}
	want := normalize.Section(section)
	if want == "" {
		return "", nil, false
	}
	keys := make([]string, 0, len(sections))
	for k := range sections {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if sections[k] == nil {
			continue
		}
		if strings.EqualFold(k, section) || normalize.Section(k) == want {
			return k, sections[k], true
		}
	}
	return "", nil, false
}

// Parse decodes a timetable document and detects its shape
func Parse(data []byte) (Timetable, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("decode timetable: %w", err)
	}
	if len(top) == 0 {
		return nil, ErrEmptyTimetable
	}

	for k, raw := range top {
		if strings.EqualFold(k, "programs") {
			p, err := parsePrograms(raw)
			if err != nil {
				return nil, err
			}
			return p, nil
		}
	}

	var nested Nested
	if err := json.Unmarshal(data, &nested); err != nil {
		return nil, fmt.Errorf("decode nested timetable: %w", err)
	}
	return nested, nil
}

func parsePrograms(raw json.RawMessage) (*Programs, error) {
	var programs map[string]map[string]json.RawMessage
	if err := json.Unmarshal(raw, &programs); err != nil {
		return nil, fmt.Errorf("decode programs timetable: %w", err)
	}

	p := &Programs{entries: make(map[string]ProgramEntry, len(programs))}
	for name, children := range programs {
		var entry ProgramEntry
		for childKey, childRaw := range children {
			if isSection(childRaw) {
				var sec models.Section
				if err := json.Unmarshal(childRaw, &sec); err != nil {
					return nil, fmt.Errorf("decode section %q of %q: %w", childKey, name, err)
				}
				if entry.Sections == nil {
					entry.Sections = make(map[string]*models.Section)
				}
				entry.Sections[childKey] = &sec
				continue
			}

			var sections map[string]*models.Section
			if err := json.Unmarshal(childRaw, &sections); err != nil {
				return nil, fmt.Errorf("decode semester %q of %q: %w", childKey, name, err)
			}
			if entry.Semesters == nil {
				entry.Semesters = make(map[string]map[string]*models.Section)
			}
			entry.Semesters[childKey] = sections
		}
		if entry.Sections != nil && entry.Semesters != nil {
			return nil, fmt.Errorf("program %q mixes sections and semesters", name)
		}
		p.entries[name] = entry
		p.keys = append(p.keys, name)
	}
	sort.Strings(p.keys)
	return p, nil
}

// isSection reports whether a JSON object looks like a section, i.e. has a
// "courses" or "labs" member.
func isSection(raw json.RawMessage) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	_, courses := probe["courses"]
	_, labs := probe["labs"]
	return courses || labs
}

// Load reads the timetable at path, or the embedded sample when path is empty
func Load(path string) (Timetable, error) {
	if path == "" {
		return Parse(defaultTimetable)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read timetable: %w", err)
	}
	return Parse(data)
}
