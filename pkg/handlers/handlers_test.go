package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/arnavshah/od-resolver-go/internal/config"
	"github.com/arnavshah/od-resolver-go/pkg/database"
	"github.com/arnavshah/od-resolver-go/pkg/models"
	"github.com/arnavshah/od-resolver-go/pkg/report"
	"github.com/arnavshah/od-resolver-go/pkg/timetable"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const rosterCSV = `Event Name,Hackathon
Coordinator,Dr. Rao
Day,Monday
Event Time,09:15-10:10
Name,Program,Section,Semester,Group
Asha,btech cse,a,5,1
Ravi,B.Tech CSE,A,5th,2
Meera,Mechanical,A,5,
`

func newTestRouter(t *testing.T, h *Handler) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if h.Timetable == nil {
		tt, err := timetable.Load("")
		if err != nil {
			t.Fatalf("load embedded timetable: %v", err)
		}
		h.Timetable = tt
	}
	r := gin.New()
	h.Routes(r)
	return r
}

func uploadRequest(t *testing.T, path, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte(content))
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestResolveUpload(t *testing.T) {
	r := newTestRouter(t, &Handler{Config: config.App{RecipientEmail: "hod@college.edu", MailBodyLimit: 2000}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/resolve", "roster.csv", rosterCSV, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp ResolveResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TotalStudents != 3 || resp.TotalMissed != 2 || resp.StudentsWithMissed != 2 {
		t.Errorf("Expected 3 students and 2 missed lectures, got %d/%d/%d", resp.TotalStudents, resp.TotalMissed, resp.StudentsWithMissed)
	}
	if len(resp.Students) != 3 || len(resp.Students[2].MissedLectures) != 0 {
		t.Errorf("Expected unresolved student to be kept with no lectures, got %+v", resp.Students)
	}
	if resp.Students[0].MissedLectures[0].SubjectCode != "CS501" {
		t.Errorf("Expected CS501, got %+v", resp.Students[0].MissedLectures)
	}
	if resp.Event.EventName != "Hackathon" || resp.Email.To != "hod@college.edu" {
		t.Errorf("Expected event and default recipient, got %+v / %q", resp.Event, resp.Email.To)
	}
	if !strings.HasPrefix(resp.Email.GmailURL, "https://mail.google.com/mail/?") {
		t.Errorf("Unexpected Gmail link %q", resp.Email.GmailURL)
	}

	found := false
	for _, warn := range resp.Warnings {
		if warn.Code == models.WarnUnresolvedProgram && warn.Student == "Meera" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected unresolved program warning for Meera, got %+v", resp.Warnings)
	}
}

func TestResolveUploadOverrides(t *testing.T) {
	r := newTestRouter(t, &Handler{})

	w := httptest.NewRecorder()
	fields := map[string]string{"day": "Tuesday", "recipient": "dean@college.edu"}
	r.ServeHTTP(w, uploadRequest(t, "/api/resolve", "roster.csv", rosterCSV, fields))

	var resp ResolveResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.EventDay != "Tuesday" || len(resp.Students) != 3 {
		t.Fatalf("Expected the day override to move the event to Tuesday, got %q", resp.EventDay)
	}
	if ml := resp.Students[0].MissedLectures; len(ml) != 1 || ml[0].SubjectCode != "CS504" {
		t.Errorf("Expected the Tuesday lecture CS504 to be missed, got %+v", ml)
	}
	if resp.Email.To != "dean@college.edu" {
		t.Errorf("Expected recipient from the form, got %q", resp.Email.To)
	}
}

func TestResolveUploadErrors(t *testing.T) {
	r := newTestRouter(t, &Handler{})

	cases := []struct {
		name     string
		filename string
		content  string
		status   int
	}{
		{"missing file", "", "", http.StatusBadRequest},
		{"unsupported", "roster.txt", rosterCSV, http.StatusUnsupportedMediaType},
		{"missing column", "roster.csv", "Name,Program,Section\nAsha,CSE,A\n", http.StatusBadRequest},
		{"too few rows", "roster.csv", "Name,Program,Section,Semester\n", http.StatusBadRequest},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, uploadRequest(t, "/api/resolve", tc.filename, tc.content, nil))
		if w.Code != tc.status {
			t.Errorf("%s: expected %d, got %d: %s", tc.name, tc.status, w.Code, w.Body.String())
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/resolve", "roster.csv", "Name,Program,Section\nAsha,CSE,A\n", nil))
	var body map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["expected"] == nil || body["detected"] == nil {
		t.Errorf("Expected detected and expected headers in the error, got %v", body)
	}
}

func TestResolveJSON(t *testing.T) {
	r := newTestRouter(t, &Handler{})

	input := models.ResolveInput{
		Event: models.EventMetadata{EventName: "Seminar", Day: "monday", EventTime: "2:00 - 3:30 PM"},
		Students: []models.Student{
			{Name: "Asha", Program: "CSE", Section: "A", Semester: "5"},
			{Name: "Ira", Program: "IT", Section: "A", Semester: "5"},
		},
	}
	data, _ := json.Marshal(input)
	req := httptest.NewRequest(http.MethodPost, "/api/resolve/json", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp ResolveResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.TotalMissed != 2 {
		t.Errorf("Expected CS503 and IT502 to be missed, got %d", resp.TotalMissed)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/resolve", strings.NewReader(`{"event": {"day": "Monday"}, "students": []}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing event time, got %d", w.Code)
	}
}

func TestReport(t *testing.T) {
	r := newTestRouter(t, &Handler{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/report", "roster.csv", rosterCSV, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != report.XLSXContentType {
		t.Errorf("Expected xlsx content type, got %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "OD_Report_Hackathon.xlsx") {
		t.Errorf("Unexpected Content-Disposition %q", cd)
	}

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(report.SheetMissed)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Errorf("Expected header plus 3 student rows, got %d", len(rows))
	}
}

func TestValidateUpload(t *testing.T) {
	r := newTestRouter(t, &Handler{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/validate", "roster.csv", rosterCSV, nil))
	var body map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &body)
	if w.Code != http.StatusOK || body["valid"] != true {
		t.Errorf("Expected valid roster, got %d %v", w.Code, body)
	}

	noDay := strings.Replace(rosterCSV, "Day,Monday\n", "", 1)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/validate", "roster.csv", noDay, nil))
	body = nil
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["valid"] != false {
		t.Errorf("Expected roster without a day to be invalid, got %v", body)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/validate", "roster.csv", "Name,Email\nAsha,a@x.in\n", nil))
	body = nil
	json.Unmarshal(w.Body.Bytes(), &body)
	if w.Code != http.StatusOK || body["valid"] != false || body["missing"] == nil {
		t.Errorf("Expected header diagnostics, got %d %v", w.Code, body)
	}
}

func TestUsage(t *testing.T) {
	r := newTestRouter(t, &Handler{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/usage", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 without a ledger, got %d", w.Code)
	}

	db, err := database.InitDB("", "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	r = newTestRouter(t, &Handler{DB: db})
	r.ServeHTTP(httptest.NewRecorder(), uploadRequest(t, "/api/resolve", "roster.csv", rosterCSV, nil))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/usage", nil))
	var body struct {
		Usage  []database.DailyUsage `json:"usage_history"`
		Totals database.Totals       `json:"totals"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode usage: %v", err)
	}
	if len(body.Usage) != 1 || body.Totals.Requests != 1 || body.Totals.Students != 3 || body.Totals.Missed != 2 {
		t.Errorf("Expected one recorded run, got %+v", body)
	}
}

func TestHealthzAndIndex(t *testing.T) {
	r := newTestRouter(t, &Handler{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"timetable":"programs"`) {
		t.Errorf("Unexpected healthz response %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Errorf("Expected upload page, got %d %q", w.Code, w.Header().Get("Content-Type"))
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "od_students_processed_total") {
		t.Errorf("Expected metrics exposition, got %d", w.Code)
	}
}

func TestNoTimetable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	(&Handler{}).Routes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/resolve", "roster.csv", rosterCSV, nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 without a timetable, got %d", w.Code)
	}
}
