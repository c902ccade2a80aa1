// Package report formats a resolution run for faculty: a plain-text email
// with compose links and a two-sheet workbook.
package report

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/arnavshah/od-resolver-go/pkg/models"
	"github.com/arnavshah/od-resolver-go/pkg/resolver"
)

// DefaultBodyLimit is the longest body placed in a compose link. Web
// composers drop or refuse longer bodies.
const DefaultBodyLimit = 2000

const truncationNote = "[... list truncated, see the attached report for all students]"

// EmailOptions configures ComposeEmail
type EmailOptions struct {
	Recipient string
	// BodyLimit caps the body carried by the links; <= 0 uses DefaultBodyLimit
	BodyLimit int
}

// Email is a composed notification. Body is always complete; LinkBody is
// what the mailto and Gmail links carry.
type Email struct {
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	LinkBody  string `json:"link_body"`
	Truncated bool   `json:"truncated"`
	MailtoURL string `json:"mailto_url"`
	GmailURL  string `json:"gmail_url"`
}

// ComposeEmail builds the faculty email for one run. Only students with at
// least one missed lecture are listed.
func ComposeEmail(event models.EventMetadata, res resolver.Result, opts EmailOptions) Email {
	limit := opts.BodyLimit
	if limit <= 0 {
		limit = DefaultBodyLimit
	}

	e := Email{
		To:      strings.TrimSpace(opts.Recipient),
		Subject: Subject(event),
		Body:    Body(event, res),
	}
	e.LinkBody, e.Truncated = truncateLines(e.Body, limit)
	e.MailtoURL = mailtoURL(e.To, e.Subject, e.LinkBody)
	e.GmailURL = gmailURL(e.To, e.Subject, e.LinkBody)
	return e
}

// Subject returns the email subject line
func Subject(event models.EventMetadata) string {
	subject := "OD Request"
	if name := strings.TrimSpace(event.EventName); name != "" {
		subject += ": " + name
	}
	when := strings.TrimSpace(event.EventDate)
	if day := strings.TrimSpace(event.Day); day != "" {
		if when != "" {
			when += " (" + day + ")"
		} else {
			when = day
		}
	}
	if when != "" {
		subject += " on " + when
	}
	return subject
}

// Body returns the full plain-text email body
func Body(event models.EventMetadata, res resolver.Result) string {
	var b strings.Builder

	b.WriteString("Dear Faculty,\n\n")
	fmt.Fprintf(&b, "The students listed below attended %s and were unable to attend the lectures mentioned against their names. Kindly grant them on-duty (OD) attendance.\n\n", eventPhrase(event))

	writeField(&b, "Event", event.EventName)
	writeField(&b, "Coordinator", event.Coordinator)
	writeField(&b, "Date", event.EventDate)
	writeField(&b, "Day", event.Day)
	writeField(&b, "Time", event.EventTime)
	writeField(&b, "Venue", event.EventVenue)
	b.WriteString("\n")

	n := 0
	for _, st := range res.Students {
		if len(st.MissedLectures) == 0 {
			continue
		}
		n++
		fmt.Fprintf(&b, "%d. %s (%s)\n", n, st.Name, cohort(st.Student))
		for _, ml := range st.MissedLectures {
			fmt.Fprintf(&b, "   - %s\n", lectureLine(ml))
		}
	}
	if n == 0 {
		b.WriteString("No student misses a scheduled lecture during the event.\n")
	}

	fmt.Fprintf(&b, "\nTotal students: %d\nStudents with missed lectures: %d\nTotal missed lectures: %d\n",
		res.TotalStudents, res.StudentsWithMissed, res.TotalMissed)

	b.WriteString("\nRegards,\n")
	if c := strings.TrimSpace(event.Coordinator); c != "" {
		b.WriteString(c + "\n")
	} else {
		b.WriteString("Event Coordinator\n")
	}
	return b.String()
}

func eventPhrase(event models.EventMetadata) string {
	if name := strings.TrimSpace(event.EventName); name != "" {
		return fmt.Sprintf("%q", name)
	}
	return "the event"
}

func writeField(b *strings.Builder, label, value string) {
	if value = strings.TrimSpace(value); value != "" {
		fmt.Fprintf(b, "%s: %s\n", label, value)
	}
}

// cohort renders the student's program, section and semester as typed
func cohort(st models.Student) string {
	parts := []string{}
	for _, v := range []string{
		firstNonEmpty(st.OriginalData.Program, st.NormalizedProgram),
		firstNonEmpty(st.OriginalData.Section, st.Section),
	} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	if sem := firstNonEmpty(st.OriginalData.Semester, st.Semester); sem != "" {
		parts = append(parts, "Sem "+sem)
	}
	if g := firstNonEmpty(st.OriginalData.Group, st.Group); g != "" {
		parts = append(parts, "Group "+strings.TrimPrefix(g, "Group "))
	}
	return strings.Join(parts, ", ")
}

func lectureLine(ml models.MissedLecture) string {
	line := ml.SubjectCode
	if ml.SubjectName != "" {
		line += " " + ml.SubjectName
	}
	if ml.Time != "" {
		line += ", " + ml.Time
	}
	if ml.Faculty != "" {
		line += ", " + ml.Faculty
	}
	return line
}

// truncateLines cuts body at the last line break that keeps it, plus the
// truncation note, within limit characters.
func truncateLines(body string, limit int) (string, bool) {
	if utf8.RuneCountInString(body) <= limit {
		return body, false
	}
	budget := limit - utf8.RuneCountInString(truncationNote) - 1
	if budget <= 0 {
		return "", true
	}

	runes := []rune(body)[:budget]
	cut := strings.LastIndex(string(runes), "\n")
	kept := string(runes)
	if cut >= 0 {
		kept = kept[:cut+1]
	} else {
		kept += "\n"
	}
	return kept + truncationNote, true
}

// encodeComponent percent-encodes s for a mailto header value. Spaces become
// %20 since mail clients show a literal "+".
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func mailtoURL(to, subject, body string) string {
	return "mailto:" + encodeComponent(to) + "?subject=" + encodeComponent(subject) + "&body=" + encodeComponent(body)
}

func gmailURL(to, subject, body string) string {
	q := url.Values{}
	q.Set("view", "cm")
	q.Set("fs", "1")
	q.Set("to", to)
	q.Set("su", subject)
	q.Set("body", body)
	return "https://mail.google.com/mail/?" + q.Encode()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
