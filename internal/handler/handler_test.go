package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/qr-attendance-api/internal/dto"
	"github.com/noah-isme/qr-attendance-api/internal/middleware"
	"github.com/noah-isme/qr-attendance-api/internal/models"
	"github.com/noah-isme/qr-attendance-api/internal/service"
	appErrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
)

type authServiceMock struct {
	registerResp *dto.RegisterResponse
	loginResp    *dto.LoginResponse
	err          error
	lastRegister dto.RegisterRequest
}

func (m *authServiceMock) Register(ctx context.Context, req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	m.lastRegister = req
	return m.registerResp, m.err
}

func (m *authServiceMock) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	return m.loginResp, m.err
}

type sessionServiceMock struct {
	createResp *dto.CreateSessionResponse
	listResp   *dto.SessionListResponse
	png        []byte
	err        error
	lastQuery  dto.SessionQuery
	lastSize   int
}

func (m *sessionServiceMock) CreateSession(ctx context.Context, req dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	return m.createResp, m.err
}

func (m *sessionServiceMock) ListSessions(ctx context.Context, query dto.SessionQuery) (*dto.SessionListResponse, error) {
	m.lastQuery = query
	return m.listResp, m.err
}

func (m *sessionServiceMock) RenderQR(ctx context.Context, token string, size int) ([]byte, error) {
	m.lastSize = size
	return m.png, m.err
}

type attendanceServiceMock struct {
	markResp   *dto.MarkAttendanceResponse
	updateResp *dto.MessageResponse
	deleteResp *dto.DeleteStudentResponse
	err        error
}

func (m *attendanceServiceMock) MarkAttendance(ctx context.Context, req dto.MarkAttendanceRequest) (*dto.MarkAttendanceResponse, error) {
	return m.markResp, m.err
}

func (m *attendanceServiceMock) UpdateAttendance(ctx context.Context, req dto.UpdateAttendanceRequest) (*dto.MessageResponse, error) {
	return m.updateResp, m.err
}

func (m *attendanceServiceMock) DeleteStudent(ctx context.Context, req dto.DeleteStudentRequest) (*dto.DeleteStudentResponse, error) {
	return m.deleteResp, m.err
}

type statsServiceMock struct {
	studentResp *dto.StudentStatsResponse
	rosterResp  *dto.RosterResponse
	hit         bool
	err         error
	lastQuery   dto.RosterQuery
}

func (m *statsServiceMock) StudentStats(ctx context.Context, studentID string) (*dto.StudentStatsResponse, bool, error) {
	return m.studentResp, m.hit, m.err
}

func (m *statsServiceMock) ClassRoster(ctx context.Context, query dto.RosterQuery) (*dto.RosterResponse, bool, error) {
	m.lastQuery = query
	return m.rosterResp, m.hit, m.err
}

type reportServiceMock struct {
	createResp  *dto.ReportJobResponse
	statusResp  *dto.ReportStatusResponse
	download    *service.ReportDownload
	err         error
	downloadErr error
}

func (m *reportServiceMock) CreateJob(ctx context.Context, req dto.ReportRequest) (*dto.ReportJobResponse, error) {
	return m.createResp, m.err
}

func (m *reportServiceMock) GetStatus(ctx context.Context, id string) (*dto.ReportStatusResponse, error) {
	return m.statusResp, m.err
}

func (m *reportServiceMock) ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error) {
	return m.download, m.downloadErr
}

type pingerStub struct {
	err error
}

func (p pingerStub) PingContext(ctx context.Context) error { return p.err }

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestAuthHandlerRegister(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &authServiceMock{registerResp: &dto.RegisterResponse{UserID: "u1", Role: "student", Message: "User asha registered successfully."}}
	h := NewAuthHandler(svc)

	c, w := newGinContext(http.MethodPost, "/register", []byte(`{"username":"asha","password":"p","role":"student","rollno":"R1"}`))
	h.Register(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "R1", *svc.lastRegister.RollNo)
	env := decodeEnvelope(t, w)
	assert.Contains(t, string(env.Data), `"user_id":"u1"`)
}

func TestAuthHandlerLoginErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &authServiceMock{err: appErrors.Clone(appErrors.ErrInvalidCredentials, "Invalid username or password.")}
	h := NewAuthHandler(svc)

	c, w := newGinContext(http.MethodPost, "/login", []byte(`{"username":"asha","password":"bad"}`))
	h.Login(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)
	assert.Equal(t, "Invalid username or password.", env.Error.Message)

	c, w = newGinContext(http.MethodPost, "/login", []byte(`{not json`))
	h.Login(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandlerQR(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &sessionServiceMock{png: []byte("\x89PNG fake")}
	h := NewSessionHandler(svc)

	c, w := newGinContext(http.MethodGet, "/admin/sessions/AB12CD34/qr?size=512", nil)
	c.Params = gin.Params{{Key: "token", Value: "AB12CD34"}}
	h.SessionQR(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, 512, svc.lastSize)

	c, w = newGinContext(http.MethodGet, "/admin/sessions/AB12CD34/qr?size=big", nil)
	h.SessionQR(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.err = appErrors.Clone(appErrors.ErrNotFound, "Invalid or expired QR code/session.")
	c, w = newGinContext(http.MethodGet, "/admin/sessions/NOPE/qr", nil)
	h.SessionQR(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttendanceHandlerRosterBindsQueryAndBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &statsServiceMock{rosterResp: &dto.RosterResponse{Records: []models.AttendanceRecord{}, Stats: []dto.RosterStat{}}, hit: true}
	h := NewAttendanceHandler(&attendanceServiceMock{}, svc)

	r := gin.New()
	r.Use(middleware.WithResponseMeta())
	r.GET("/admin/attendance", h.Roster)
	r.POST("/admin/attendance", h.Roster)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/attendance?class_id=CS-A&date=2024-03-05", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.RosterQuery{ClassID: "CS-A", Date: "2024-03-05"}, svc.lastQuery)
	env := decodeEnvelope(t, w)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Contains(t, string(env.Data), `"current_qr_token":null`)

	req := httptest.NewRequest(http.MethodPost, "/admin/attendance", bytes.NewBufferString(`{"class_id":"CS-B"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CS-B", svc.lastQuery.ClassID)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/attendance", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.RosterQuery{}, svc.lastQuery)
}

func TestAttendanceHandlerMarkAndStats(t *testing.T) {
	gin.SetMode(gin.TestMode)
	att := &attendanceServiceMock{markResp: &dto.MarkAttendanceResponse{Status: models.AttendanceStatusPresent, Message: "Attendance marked for CS101: Data Structures."}}
	stats := &statsServiceMock{studentResp: &dto.StudentStatsResponse{StudentID: "s1", AttendanceStats: models.Compute(2, 3), TotalClasses: 3}}
	h := NewAttendanceHandler(att, stats)

	c, w := newGinContext(http.MethodPost, "/student/mark_attendance", []byte(`{"student_id":"s1","qr_token":"ab12cd34"}`))
	h.MarkAttendance(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"Present"`)

	c, w = newGinContext(http.MethodGet, "/student/stats/s1", nil)
	c.Params = gin.Params{{Key: "student_id", Value: "s1"}}
	h.StudentStats(c)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Contains(t, string(env.Data), `"total_classes":3`)
	assert.Contains(t, string(env.Data), `"percentage":66.7`)

	att.err = appErrors.Clone(appErrors.ErrNotFound, "Invalid or expired QR code/session.")
	c, w = newGinContext(http.MethodPost, "/student/mark_attendance", []byte(`{"student_id":"s1","qr_token":"nope"}`))
	h.MarkAttendance(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttendanceHandlerInternalErrorsAreGeneric(t *testing.T) {
	gin.SetMode(gin.TestMode)
	att := &attendanceServiceMock{err: appErrors.Internal(errors.New("pq: deadlock detected"), "Internal error updating attendance.")}
	h := NewAttendanceHandler(att, &statsServiceMock{})

	c, w := newGinContext(http.MethodPost, "/admin/update_attendance", []byte(`{"record_id":"r1","status":"Absent"}`))
	h.UpdateAttendance(c)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "deadlock")
	assert.Len(t, c.Errors, 1)
}

func TestReportHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	file, err := os.CreateTemp(t.TempDir(), "report*.csv")
	require.NoError(t, err)
	_, _ = file.WriteString("Roll No,Name\n")
	_, _ = file.Seek(0, 0)

	svc := &reportServiceMock{download: &service.ReportDownload{
		File: file, Filename: "attendance.csv", Format: models.ReportFormatCSV, ExpiresAt: time.Now().Add(time.Hour),
	}}
	h := NewReportHandler(svc)

	c, w := newGinContext(http.MethodGet, "/reports/download/token", nil)
	c.Params = gin.Params{{Key: "token", Value: "token"}}
	h.DownloadReport(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attendance.csv")
	assert.Equal(t, "Roll No,Name\n", w.Body.String())

	svc.downloadErr = appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	c, w = newGinContext(http.MethodGet, "/reports/download/bad", nil)
	h.DownloadReport(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReportHandlerGenerate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &reportServiceMock{createResp: &dto.ReportJobResponse{ID: "job-1", Status: models.ReportStatusQueued}}
	h := NewReportHandler(svc)

	c, w := newGinContext(http.MethodPost, "/admin/reports", []byte(`{"format":"csv","class_id":"CS-A"}`))
	h.GenerateReport(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"QUEUED"`)
}

func TestHealthHandlerReady(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, w := newGinContext(http.MethodGet, "/ready", nil)
	NewHealthHandler(pingerStub{}, nil).Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newGinContext(http.MethodGet, "/ready", nil)
	NewHealthHandler(pingerStub{err: errors.New("connection refused")}, nil).Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	c, w = newGinContext(http.MethodGet, "/metrics", nil)
	NewHealthHandler(nil, nil).Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRegisterMountsRoutesUnderPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Register(r, "/api", Handlers{
		Auth:       NewAuthHandler(&authServiceMock{}),
		Sessions:   NewSessionHandler(&sessionServiceMock{}),
		Attendance: NewAttendanceHandler(&attendanceServiceMock{}, &statsServiceMock{}),
		Health:     NewHealthHandler(pingerStub{}, service.NewMetricsService()),
	})

	routes := map[string]bool{}
	for _, route := range r.Routes() {
		routes[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"POST /api/register",
		"POST /api/login",
		"POST /api/admin/create_session",
		"GET /api/admin/sessions/:token/qr",
		"GET /api/admin/attendance",
		"POST /api/admin/attendance",
		"POST /api/admin/update_attendance",
		"POST /api/admin/delete_student",
		"POST /api/student/mark_attendance",
		"GET /api/student/stats/:student_id",
		"GET /api/ready",
	} {
		assert.True(t, routes[want], "missing route %s", want)
	}
	assert.False(t, routes["POST /api/admin/reports"])

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionHandlerCreateAndList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	token := "AB12CD34"
	svc := &sessionServiceMock{
		createResp: &dto.CreateSessionResponse{QRToken: token, ClassName: "Data Structures", ClassCode: "CS101", Message: "Session for Data Structures created."},
		listResp:   &dto.SessionListResponse{Sessions: []models.Session{{Token: token, ClassName: "Data Structures", ClassCode: "CS101"}}, CurrentQRToken: &token},
	}
	h := NewSessionHandler(svc)

	c, w := newGinContext(http.MethodPost, "/admin/create_session", []byte(`{"class_name":"Data Structures","class_code":"CS101"}`))
	h.CreateSession(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), `"qr_token":"AB12CD34"`)

	c, w = newGinContext(http.MethodPost, "/admin/create_session", []byte(`[`))
	h.CreateSession(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing class name or code.", decodeEnvelope(t, w).Error.Message)

	c, w = newGinContext(http.MethodGet, "/admin/sessions?class_id=CS-A&date=2024-03-05", nil)
	h.ListSessions(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.SessionQuery{ClassID: "CS-A", Date: "2024-03-05"}, svc.lastQuery)
	assert.Contains(t, w.Body.String(), `"current_qr_token":"AB12CD34"`)
}

func TestAttendanceHandlerRosterRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &statsServiceMock{}
	h := NewAttendanceHandler(&attendanceServiceMock{}, svc)

	c, w := newGinContext(http.MethodPost, "/admin/attendance", []byte(`{"class_id":`))
	h.Roster(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Equal(t, msgInvalidRosterFilter, env.Error.Message)
	assert.Equal(t, dto.RosterQuery{}, svc.lastQuery)
}
