package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/arnavshah/od-resolver-go/pkg/metrics"
	"github.com/arnavshah/od-resolver-go/pkg/models"
	"github.com/arnavshah/od-resolver-go/pkg/report"
	"github.com/gin-gonic/gin"
)

// Report resolves a roster and returns the two-sheet workbook as a download.
// It accepts the same multipart upload or JSON body as Resolve.
func (h *Handler) Report(c *gin.Context) {
	var event models.EventMetadata
	var students []models.Student

	if strings.HasPrefix(c.ContentType(), "application/json") {
		var input models.ResolveInput
		if err := c.ShouldBindJSON(&input); err != nil {
			metrics.ObserveFailure(metrics.OutcomeBadRequest)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		event, students = input.Event, input.Students
	} else {
		up, ok := h.parseUpload(c)
		if !ok {
			return
		}
		event, students = up.Event, up.Students
	}

	res, ok := h.compute(c, event, students)
	if !ok {
		return
	}

	f, err := report.BuildWorkbook(event, res)
	if err != nil {
		log.Printf("build workbook for run %s: %v", res.RunID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not build report"})
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		log.Printf("write workbook for run %s: %v", res.RunID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not write report"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(event)))
	c.Header("X-Run-ID", res.RunID)
	c.Data(http.StatusOK, report.XLSXContentType, buf.Bytes())
}
