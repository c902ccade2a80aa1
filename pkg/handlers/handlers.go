package handlers

import (
	"embed"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/arnavshah/od-resolver-go/internal/config"
	"github.com/arnavshah/od-resolver-go/pkg/database"
	"github.com/arnavshah/od-resolver-go/pkg/metrics"
	"github.com/arnavshah/od-resolver-go/pkg/models"
	"github.com/arnavshah/od-resolver-go/pkg/report"
	"github.com/arnavshah/od-resolver-go/pkg/resolver"
	"github.com/arnavshah/od-resolver-go/pkg/sheet"
	"github.com/arnavshah/od-resolver-go/pkg/timetable"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

//go:embed static/*
var staticEmbed embed.FS

// Handler contains dependencies for the route handlers. A nil DB disables
// the usage ledger.
type Handler struct {
	DB        *gorm.DB
	Timetable timetable.Timetable
	Config    config.App
}

// ResolveResponse is returned by the resolve endpoints
type ResolveResponse struct {
	Event models.EventMetadata `json:"event"`
	resolver.Result
	Email       report.Email `json:"email"`
	SkippedRows int          `json:"skipped_rows"`
}

// Routes registers every endpoint on r
func (h *Handler) Routes(r gin.IRouter) {
	r.StaticFS("/static", h.GetStaticFS())
	r.GET("/", h.Index)
	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/resolve", h.Resolve)
		api.POST("/resolve/json", h.ResolveJSON)
		api.POST("/report", h.Report)
		api.POST("/validate", h.ValidateUpload)
		api.GET("/usage", h.GetUsage)
	}
}

// Resolve handles a roster upload and returns the missed lectures of every
// student together with the composed email
func (h *Handler) Resolve(c *gin.Context) {
	if strings.HasPrefix(c.ContentType(), "application/json") {
		h.ResolveJSON(c)
		return
	}
	up, ok := h.parseUpload(c)
	if !ok {
		return
	}
	h.respond(c, up.Event, up.Students, c.PostForm("recipient"), up.SkippedRows)
}

// ResolveJSON handles an already parsed roster sent as JSON
func (h *Handler) ResolveJSON(c *gin.Context) {
	var input models.ResolveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		metrics.ObserveFailure(metrics.OutcomeBadRequest)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c, input.Event, input.Students, input.Recipient, 0)
}

func (h *Handler) respond(c *gin.Context, event models.EventMetadata, students []models.Student, recipient string, skipped int) {
	res, ok := h.compute(c, event, students)
	if !ok {
		return
	}
	email := report.ComposeEmail(event, res, report.EmailOptions{
		Recipient: firstNonEmpty(recipient, h.Config.RecipientEmail),
		BodyLimit: h.Config.MailBodyLimit,
	})
	c.JSON(http.StatusOK, ResolveResponse{Event: event, Result: res, Email: email, SkippedRows: skipped})
}

// compute runs the resolver and records the run
func (h *Handler) compute(c *gin.Context, event models.EventMetadata, students []models.Student) (resolver.Result, bool) {
	if h.Timetable == nil {
		metrics.ObserveFailure(metrics.OutcomeFailed)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Timetable not loaded"})
		return resolver.Result{}, false
	}

	start := time.Now()
	r := resolver.NewResolver(h.Timetable, resolver.Options{
		ZeroConflictRatio:       h.Config.ZeroConflictRatio,
		ZeroConflictMinStudents: h.Config.ZeroConflictMinStudents,
	})
	res := r.Compute(students, event.EventTime, event.Day)
	metrics.ObserveRun(res, time.Since(start))
	h.RecordUsage(res)
	return res, true
}

// parseUpload reads the multipart "file" field into an Upload. The optional
// "day" and "event_time" form fields override the sheet's metadata.
func (h *Handler) parseUpload(c *gin.Context) (*sheet.Upload, bool) {
	if limit := h.Config.MaxUploadBytes(); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		metrics.ObserveFailure(metrics.OutcomeBadRequest)
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return nil, false
	}
	f, err := fh.Open()
	if err != nil {
		log.Printf("open upload %q: %v", fh.Filename, err)
		metrics.ObserveFailure(metrics.OutcomeFailed)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open uploaded file"})
		return nil, false
	}
	defer f.Close()

	rows, err := sheet.ReadUpload(fh.Filename, f)
	if err != nil {
		metrics.ObserveFailure(metrics.OutcomeParseError)
		status := http.StatusBadRequest
		if errors.Is(err, sheet.ErrUnsupportedFormat) {
			status = http.StatusUnsupportedMediaType
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return nil, false
	}

	up, err := sheet.Parse(rows)
	if err != nil {
		metrics.ObserveFailure(metrics.OutcomeParseError)
		c.JSON(http.StatusBadRequest, parseErrorBody(err))
		return nil, false
	}

	if v := strings.TrimSpace(c.PostForm("day")); v != "" {
		up.Event.Day = v
	}
	if v := strings.TrimSpace(c.PostForm("event_time")); v != "" {
		up.Event.EventTime = v
	}
	return up, true
}

// parseErrorBody surfaces header problems with the detected and expected
// column lists
func parseErrorBody(err error) gin.H {
	var herr *sheet.HeaderError
	if errors.As(err, &herr) {
		return gin.H{
			"error":    herr.Error(),
			"detected": herr.Detected,
			"expected": herr.Expected,
			"missing":  herr.Missing,
		}
	}
	return gin.H{"error": err.Error()}
}

// RecordUsage adds a finished run to the usage ledger
func (h *Handler) RecordUsage(res resolver.Result) {
	if h.DB == nil {
		return
	}
	if err := database.RecordUsage(h.DB, time.Now(), res.TotalStudents, res.TotalMissed, len(res.Warnings)); err != nil {
		log.Printf("record usage for run %s: %v", res.RunID, err)
	}
}

// Healthz reports whether the timetable and the usage ledger are available
func (h *Handler) Healthz(c *gin.Context) {
	status := http.StatusOK
	shape := ""
	if h.Timetable == nil {
		status = http.StatusServiceUnavailable
	} else {
		shape = string(h.Timetable.Shape())
	}
	c.JSON(status, gin.H{"status": http.StatusText(status), "timetable": shape, "db": h.DB != nil})
}

// Index serves the upload page from embedded files
func (h *Handler) Index(c *gin.Context) {
	data, err := staticEmbed.ReadFile("static/index.html")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "static/index.html not found in embedded FS"})
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", data)
}

// GetStaticFS returns the embedded filesystem for static assets
func (h *Handler) GetStaticFS() http.FileSystem {
	sub, err := fs.Sub(staticEmbed, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
