// Package normalize turns the human-entered roster fields into the canonical
// keys used by the timetable.
package normalize

import (
	"regexp"
	"sort"
	"strings"

	"github.com/arnavshah/od-resolver-go/pkg/fuzzy"
	"github.com/arnavshah/od-resolver-go/pkg/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// programAliases lists, per canonical timetable label, the spellings seen in
// rosters, compared in their programKey form. More specific programs come
// first: "btech cse ai ml" contains a CSE spelling but is AIML.
var programAliases = []struct {
	canonical string
	variants  []string
}{
	{"B.Tech CSE (AI&ML)", []string{
		"btech cse aiml", "btech cse ai ml", "cse aiml", "cse ai ml",
		"aiml", "ai ml", "ai and ml", "computer science aiml",
		"artificial intelligence and machine learning",
	}},
	{"B.Tech CSE", []string{
		"btech cse", "cse", "computer science", "computer science engineering",
		"computer science and engineering", "btech computer science",
	}},
	{"B.Tech IT", []string{
		"btech it", "it", "information technology",
	}},
	{"B.Tech ECE", []string{
		"btech ece", "ece", "electronics and communication",
		"electronics and communication engineering",
	}},
	{"BCA", []string{"bca", "bachelor of computer applications"}},
	{"MCA", []string{"mca", "master of computer applications"}},
}

// aliasKeys holds the programKey form of each alias's variants, longest
// first, in programAliases order.
var aliasKeys = func() [][]string {
	out := make([][]string, len(programAliases))
	for i, alias := range programAliases {
		keys := make([]string, 0, len(alias.variants))
		for _, v := range alias.variants {
			keys = append(keys, programKey(v))
		}
		sort.Slice(keys, func(a, b int) bool { return len(keys[a]) > len(keys[b]) })
		out[i] = keys
	}
	return out
}()

// programKey is the comparison form of a program name: separators become
// spaces, other punctuation is dropped and "b tech" is joined, so
// "B.Tech CSE (AI & ML)" and "btech cse ai ml" share a key.
func programKey(raw string) string {
	key := fuzzy.Clean(separators.ReplaceAllString(raw, " "))
	key = strings.TrimSpace(strings.ReplaceAll(" "+key+" ", " b tech ", " btech "))
	return key
}

// maxSectionName is the longest section name left after a "SEC" or
// "SECTION" prefix; longer remainders mean the prefix was part of a word.
const maxSectionName = 2

// minReverseContainment is the shortest raw value allowed to match a variant
// that contains it.
const minReverseContainment = 3

var (
	separators  = regexp.MustCompile(`[\s\-_/]+`)
	digits      = regexp.MustCompile(`\d+`)
	sectionJunk = regexp.MustCompile(`[\s\-_.:]+`)
)

// Program returns the canonical label for a raw program name. Unknown
// programs come back title-cased.
func Program(raw string) string {
	key := programKey(raw)
	if key == "" {
		return ""
	}
	for i, keys := range aliasKeys {
		for _, k := range keys {
			if k == key {
				return programAliases[i].canonical
			}
		}
	}

	padded := " " + key + " "
	for i, keys := range aliasKeys {
		for _, k := range keys {
			if strings.Contains(padded, " "+k+" ") {
				return programAliases[i].canonical
			}
		}
	}

	if len(key) >= minReverseContainment {
		if canonical, ok := containingProgram(padded); ok {
			return canonical
		}
	}
	// Casers keep state, so one is built per call.
	return cases.Title(language.English).String(strings.TrimSpace(raw))
}

// containingProgram resolves a fragment such as "information" to the single
// program whose spellings contain it. ok is false when none or several do.
func containingProgram(padded string) (canonical string, ok bool) {
	for i, keys := range aliasKeys {
		for _, k := range keys {
			if !strings.Contains(" "+k+" ", padded) {
				continue
			}
			if canonical != "" && canonical != programAliases[i].canonical {
				return "", false
			}
			canonical = programAliases[i].canonical
		}
	}
	return canonical, canonical != ""
}

// Section returns "Section X" for inputs such as "a", "SEC A" or "section-a"
func Section(raw string) string {
	s := sectionJunk.ReplaceAllString(strings.ToUpper(strings.TrimSpace(raw)), "")
	if s == "" {
		return ""
	}
	for _, label := range []string{"SECTION", "SEC"} {
		if s == label {
			return ""
		}
		if rest := strings.TrimPrefix(s, label); rest != s && len(rest) <= maxSectionName {
			s = rest
			break
		}
	}
	return "Section " + s
}

var romanSemesters = map[string]string{
	"I": "1", "II": "2", "III": "3", "IV": "4", "V": "5", "VI": "6",
	"VII": "7", "VIII": "8", "IX": "9", "X": "10", "XI": "11", "XII": "12",
}

// Semester extracts the semester number, e.g. "5th Sem" -> "5".
// Roman numerals are converted; anything else is returned trimmed.
func Semester(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if d := digits.FindString(trimmed); d != "" {
		if n := strings.TrimLeft(d, "0"); n != "" {
			return n
		}
		return "0"
	}
	for _, field := range strings.Fields(strings.ToUpper(trimmed)) {
		if n, ok := romanSemesters[strings.Trim(field, ".")]; ok {
			return n
		}
	}
	return trimmed
}

// Group returns the canonical lab group label ("Group 2") or "" when the
// roster carries no group.
func Group(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if d := digits.FindString(trimmed); d != "" {
		return "Group " + d
	}
	upper := strings.ToUpper(sectionJunk.ReplaceAllString(trimmed, ""))
	upper = strings.TrimPrefix(upper, "GROUP")
	if len(upper) > 1 && upper[0] == 'G' {
		upper = upper[1:]
	}
	if upper == "" {
		return ""
	}
	return "Group " + upper
}

// Student fills the canonical fields of a student from its raw values and
// records those raw values in OriginalData. A student that already carries a
// NormalizedProgram is returned unchanged.
func Student(st models.Student) models.Student {
	if st.NormalizedProgram != "" {
		return st
	}
	if st.OriginalData == (models.OriginalData{}) {
		st.OriginalData = models.OriginalData{
			Program:  st.Program,
			Section:  st.Section,
			Semester: st.Semester,
			Group:    st.Group,
		}
	}
	st.Name = strings.TrimSpace(st.Name)
	st.NormalizedProgram = Program(st.Program)
	st.Section = Section(st.Section)
	st.Semester = Semester(st.Semester)
	st.Group = Group(st.Group)
	return st
}
