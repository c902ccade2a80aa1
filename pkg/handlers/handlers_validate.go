package handlers

import (
	"fmt"
	"net/http"

	"github.com/arnavshah/od-resolver-go/pkg/sheet"
	"github.com/arnavshah/od-resolver-go/pkg/timeparse"
	"github.com/gin-gonic/gin"
)

// ValidateUpload checks an uploaded roster without resolving it
func (h *Handler) ValidateUpload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"valid": false, "error": "file is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"valid": false, "error": "Failed to open uploaded file"})
		return
	}
	defer f.Close()

	rows, err := sheet.ReadUpload(fh.Filename, f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"valid": false, "error": err.Error()})
		return
	}

	up, err := sheet.Parse(rows)
	if err != nil {
		body := parseErrorBody(err)
		body["valid"] = false
		c.JSON(http.StatusOK, body)
		return
	}

	issues := []string{}
	if up.Event.Day == "" {
		issues = append(issues, "Event day is missing")
	} else if _, ok := timeparse.CanonicalDay(up.Event.Day); !ok {
		issues = append(issues, fmt.Sprintf("Event day %q is not a weekday name", up.Event.Day))
	}
	if up.Event.EventTime == "" {
		issues = append(issues, "Event time is missing")
	} else if len(timeparse.ParseEventTimeSlots(up.Event.EventTime)) == 0 {
		issues = append(issues, fmt.Sprintf("Event time %q contains no parseable time range", up.Event.EventTime))
	}

	incomplete := 0
	for _, st := range up.Students {
		if st.OriginalData.Program == "" || st.OriginalData.Section == "" || st.OriginalData.Semester == "" {
			incomplete++
		}
	}
	if incomplete > 0 {
		issues = append(issues, fmt.Sprintf("%d student(s) are missing a program, section or semester", incomplete))
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":  len(issues) == 0,
		"issues": issues,
		"event":  up.Event,
		"stats": gin.H{
			"header_row":    up.HeaderRow,
			"columns":       up.Columns,
			"student_count": len(up.Students),
			"skipped_rows":  up.SkippedRows,
		},
	})
}
