package sheet

import (
	"strings"

	"github.com/arnavshah/od-resolver-go/pkg/fuzzy"
	"github.com/arnavshah/od-resolver-go/pkg/models"
)

// metaField is a metadata label as it may appear in column A
type metaField int

const (
	metaEventName metaField = iota
	metaCoordinator
	metaFacultyIncharge
	metaDate
	metaDay
	metaVenue
	metaPlace
	metaTime
)

// metaVariants is ordered: on equal scores the earlier field wins, so venue
// beats place on a "Venue/Place" label.
var metaVariants = []struct {
	field    metaField
	variants []string
}{
	{metaEventName, []string{"event name", "name of event", "name of the event", "event title", "title of event", "event"}},
	{metaCoordinator, []string{"coordinator", "event coordinator", "faculty coordinator", "coordinator name"}},
	{metaFacultyIncharge, []string{"faculty incharge", "faculty in charge", "incharge", "in charge"}},
	{metaDate, []string{"date", "event date", "date of event"}},
	{metaDay, []string{"day", "event day", "day of event"}},
	{metaVenue, []string{"venue", "event venue"}},
	{metaPlace, []string{"place", "location"}},
	{metaTime, []string{"time", "event time", "timing", "timings", "time slot", "time slots"}},
}

// metadata holds the raw label values before the aliases are collapsed
type metadata map[metaField]string

// parseMetadata reads label/value pairs from the rows above the header. The
// value is the first non-blank cell after the label, or the text after a
// colon when the label cell carries both.
func parseMetadata(rows [][]string) models.EventMetadata {
	found := metadata{}
	for _, row := range rows {
		label, value := labelValue(row)
		if label == "" || value == "" {
			continue
		}
		field, ok := scoreLabel(label)
		if !ok {
			continue
		}
		if _, seen := found[field]; !seen {
			found[field] = value
		}
	}
	return found.event()
}

// event collapses the legacy aliases: the specific field wins over the alias
func (m metadata) event() models.EventMetadata {
	return models.EventMetadata{
		EventName:   m[metaEventName],
		Coordinator: firstNonEmpty(m[metaCoordinator], m[metaFacultyIncharge]),
		EventDate:   m[metaDate],
		Day:         m[metaDay],
		EventVenue:  firstNonEmpty(m[metaVenue], m[metaPlace]),
		EventTime:   m[metaTime],
	}
}

func labelValue(row []string) (string, string) {
	cells := nonBlank(row)
	if len(cells) == 0 {
		return "", ""
	}
	if len(cells) > 1 {
		return strings.TrimSuffix(cells[0], ":"), cells[1]
	}
	if k, v, ok := strings.Cut(cells[0], ":"); ok {
		return strings.TrimSpace(k), strings.TrimSpace(v)
	}
	return cells[0], ""
}

// scoreLabel picks the field whose variant best explains label. A variant
// contained in the label on word boundaries scores by its length, so
// "event date" beats "event" and "date of event" resolves to the date.
// Labels with no contained variant fall back to edit distance.
func scoreLabel(raw string) (metaField, bool) {
	label := cleanLabel(raw)
	if label == "" {
		return 0, false
	}

	best, bestScore := metaField(0), 0
	for _, mv := range metaVariants {
		for _, v := range mv.variants {
			if v == label {
				return mv.field, true
			}
			if strings.Contains(" "+label+" ", " "+v+" ") && len(v) > bestScore {
				best, bestScore = mv.field, len(v)
			}
		}
	}
	if bestScore > 0 {
		return best, true
	}

	bestSim := 0.0
	for _, mv := range metaVariants {
		for _, v := range mv.variants {
			if s := fuzzy.Similarity(label, v); s >= labelThreshold && s > bestSim {
				best, bestSim = mv.field, s
			}
		}
	}
	return best, bestSim > 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
