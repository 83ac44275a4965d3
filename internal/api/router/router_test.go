package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/jobboard/internal/account"
	"github.com/cuongbtq/jobboard/internal/api/dto"
	"github.com/cuongbtq/jobboard/internal/api/handler"
	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/events"
	"github.com/cuongbtq/jobboard/internal/session"
	"github.com/cuongbtq/jobboard/internal/store/memory"
	"github.com/cuongbtq/jobboard/internal/workflow"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func (p *recordingPublisher) last() events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

type testServer struct {
	router    *gin.Engine
	mem       *memory.Store
	publisher *recordingPublisher
	sessions  *session.Issuer
}

func newTestServer(t *testing.T, opts ...memory.Option) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := memory.New(opts...)
	stores := mem.Stores()
	sessions, err := session.NewIssuer("router-test-secret", "jobboard", time.Hour)
	require.NoError(t, err)

	publisher := &recordingPublisher{}
	r := SetupRouter(&handler.Dependencies{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		ServiceName: "jobboard-api",
		Engine:      workflow.NewEngine(stores),
		Accounts:    account.NewService(stores.Users),
		Sessions:    sessions,
		Publisher:   publisher,
		Ping:        stores.Ping,
	})
	return &testServer{router: r, mem: mem, publisher: publisher, sessions: sessions}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *testServer) register(t *testing.T, username, role string) dto.UserDTO {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/register", "", dto.RegisterRequest{
		Username:    username,
		Email:       username + "@board.test",
		Password:    "secret1",
		Role:        role,
		CompanyName: "Company of " + username,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.UserDTO](t, w)
}

func (s *testServer) login(t *testing.T, username string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Username: username, Password: "secret1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[dto.LoginResponse](t, w)
	assert.Equal(t, "Bearer", resp.TokenType)
	return resp.Token
}

func jobRequest(title string) dto.JobRequest {
	return dto.JobRequest{
		Title:       title,
		Description: "Build and run services",
		Location:    "Da Nang",
		JobType:     "full_time",
		Deadline:    "2026-12-31",
	}
}

func assertError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	assert.Equal(t, code, decode[dto.ErrorResponse](t, w).Code)
}

func TestApplicationLifecycle(t *testing.T) {
	s := newTestServer(t)

	company := s.register(t, "acme", "company")
	alice := s.register(t, "alice", "student")
	s.register(t, "bao", "student")

	companyToken := s.login(t, "acme")
	aliceToken := s.login(t, "alice")
	baoToken := s.login(t, "bao")

	// Posting requires a company
	assertError(t, s.do(t, http.MethodPost, "/api/v1/jobs", "", jobRequest("Go engineer")), http.StatusUnauthorized, domain.CodeUnauthenticated)
	assertError(t, s.do(t, http.MethodPost, "/api/v1/jobs", aliceToken, jobRequest("Go engineer")), http.StatusForbidden, domain.CodeForbidden)

	w := s.do(t, http.MethodPost, "/api/v1/jobs", companyToken, jobRequest("Go engineer"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	job := decode[dto.JobDTO](t, w)
	assert.Equal(t, company.UserID, job.CompanyID)
	assert.True(t, job.Active)
	assert.Equal(t, "2026-12-31", job.Deadline)

	applyPath := fmt.Sprintf("/api/v1/jobs/%d/applications", job.JobID)
	w = s.do(t, http.MethodPost, applyPath, aliceToken, dto.SubmitApplicationRequest{ResumePath: "/cv/alice.pdf"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	app := decode[dto.ApplicationDTO](t, w)
	assert.Equal(t, alice.UserID, app.StudentID)
	assert.Equal(t, string(domain.StatusPending), app.Status)
	assert.Contains(t, app.NextStatuses, string(domain.StatusInterview))

	assertError(t, s.do(t, http.MethodPost, applyPath, aliceToken, dto.SubmitApplicationRequest{ResumePath: "/cv/alice.pdf"}),
		http.StatusConflict, domain.CodeDuplicateApplication)

	w = s.do(t, http.MethodGet, applyPath+"/exists", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[dto.HasAppliedResponse](t, w).Applied)

	w = s.do(t, http.MethodGet, applyPath+"/exists", baoToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, decode[dto.HasAppliedResponse](t, w).Applied)

	// Only the owning company moves the status
	statusPath := fmt.Sprintf("/api/v1/applications/%d/status", app.ApplicationID)
	assertError(t, s.do(t, http.MethodPatch, statusPath, aliceToken, dto.UpdateStatusRequest{Status: "ACCEPTED"}),
		http.StatusForbidden, domain.CodeForbidden)

	w = s.do(t, http.MethodPatch, statusPath, companyToken, dto.UpdateStatusRequest{Status: "interview"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	moved := decode[dto.ApplicationDTO](t, w)
	assert.Equal(t, string(domain.StatusInterview), moved.Status)
	assert.NotEmpty(t, moved.ReviewedAt)

	changed := s.publisher.last()
	assert.Equal(t, events.TypeApplicationStatusChanged, changed.Type)
	assert.Equal(t, domain.StatusPending, changed.FromStatus)
	assert.Equal(t, domain.StatusInterview, changed.ToStatus)

	assertError(t, s.do(t, http.MethodPatch, statusPath, companyToken, dto.UpdateStatusRequest{Status: "PENDING"}),
		http.StatusUnprocessableEntity, domain.CodeInvalidTransition)

	// Applications are visible to their student and the company, not other students
	appPath := fmt.Sprintf("/api/v1/applications/%d", app.ApplicationID)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, appPath, aliceToken, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, appPath, companyToken, nil).Code)
	assertError(t, s.do(t, http.MethodGet, appPath, baoToken, nil), http.StatusForbidden, domain.CodeForbidden)

	w = s.do(t, http.MethodGet, applyPath, companyToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode[dto.ListApplicationsResponse](t, w).Applications, 1)

	studentPath := fmt.Sprintf("/api/v1/students/%d/applications", alice.UserID)
	assertError(t, s.do(t, http.MethodGet, studentPath, baoToken, nil), http.StatusForbidden, domain.CodeForbidden)
	w = s.do(t, http.MethodGet, studentPath, aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode[dto.ListApplicationsResponse](t, w).Applications, 1)

	// A deactivated job takes no more applications
	deactivatePath := fmt.Sprintf("/api/v1/jobs/%d/deactivate", job.JobID)
	w = s.do(t, http.MethodPost, deactivatePath, companyToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, decode[dto.JobDTO](t, w).Active)

	w = s.do(t, http.MethodPost, deactivatePath, companyToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assertError(t, s.do(t, http.MethodPost, applyPath, baoToken, dto.SubmitApplicationRequest{ResumePath: "/cv/bao.pdf"}),
		http.StatusConflict, domain.CodeInactiveJob)

	assert.Equal(t, []events.Type{
		events.TypeJobPosted,
		events.TypeApplicationSubmitted,
		events.TypeApplicationStatusChanged,
		events.TypeJobDeactivated,
	}, s.publisher.types())
}

func TestRegisterAndProfile(t *testing.T) {
	s := newTestServer(t)

	assertError(t, s.do(t, http.MethodPost, "/api/v1/auth/register", "", dto.RegisterRequest{
		Username: "mallory", Email: "mallory@board.test", Password: "secret1", Role: "admin",
	}), http.StatusForbidden, domain.CodeForbidden)

	w := s.do(t, http.MethodPost, "/api/v1/auth/register", "", dto.RegisterRequest{
		Username: "short", Email: "short@board.test", Password: "123", Role: "student",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	errResp := decode[dto.ErrorResponse](t, w)
	assert.Equal(t, domain.CodeInvalidInput, errResp.Code)
	assert.Equal(t, "password", errResp.Field)

	s.register(t, "alice", "student")
	w = s.do(t, http.MethodPost, "/api/v1/auth/register", "", dto.RegisterRequest{
		Username: "alice", Email: "other@board.test", Password: "secret1", Role: "student",
	})
	assertError(t, w, http.StatusConflict, domain.CodeAlreadyExists)

	assertError(t, s.do(t, http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Username: "alice", Password: "wrong-password"}),
		http.StatusUnauthorized, domain.CodeUnauthenticated)
	assertError(t, s.do(t, http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Username: "nobody", Password: "secret1"}),
		http.StatusUnauthorized, domain.CodeUnauthenticated)

	token := s.login(t, "alice")

	w = s.do(t, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[dto.UserDTO](t, w)
	assert.Equal(t, "alice", me.Username)
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(t, http.MethodPut, "/api/v1/me", token, dto.UpdateProfileRequest{
		Email: "alice@uni.test", FirstName: "Alice", Password: "newsecret",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "alice@uni.test", decode[dto.UserDTO](t, w).Email)

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Username: "alice", Password: "newsecret"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminRegistersAdmin(t *testing.T) {
	s := newTestServer(t)
	root := &domain.User{Username: "root", Email: "root@board.test", Role: domain.RoleAdmin}
	require.NoError(t, s.mem.Users().Create(context.Background(), root))

	token, _, err := s.sessions.Issue(domain.ActorFor(root))
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, "/api/v1/auth/register", token, dto.RegisterRequest{
		Username: "ops", Email: "ops@board.test", Password: "secret1", Role: "ADMIN",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, string(domain.RoleAdmin), decode[dto.UserDTO](t, w).Role)
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing", header: ""},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "empty token", header: "Bearer "},
		{name: "garbage token", header: "Bearer not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)
			assertError(t, w, http.StatusUnauthorized, domain.CodeUnauthenticated)
			assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
		})
	}

	// Optional routes still reject a token that does not verify
	assertError(t, s.do(t, http.MethodPost, "/api/v1/auth/register", "forged", dto.RegisterRequest{
		Username: "eve", Email: "eve@board.test", Password: "secret1", Role: "student",
	}), http.StatusUnauthorized, domain.CodeUnauthenticated)
}

func TestSearchJobsPagination(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	tick := 0
	s := newTestServer(t, memory.WithClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}))

	s.register(t, "acme", "company")
	token := s.login(t, "acme")

	var ids []int64
	for i := 0; i < 5; i++ {
		w := s.do(t, http.MethodPost, "/api/v1/jobs", token, jobRequest(fmt.Sprintf("Job %d", i)))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		ids = append(ids, decode[dto.JobDTO](t, w).JobID)
	}
	w := s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/jobs/%d/deactivate", ids[4]), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var seen []int64
	cursor := ""
	for page := 0; page < 5; page++ {
		path := "/api/v1/jobs?page_size=2"
		if cursor != "" {
			path += "&cursor=" + cursor
		}
		w := s.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decode[dto.ListJobsResponse](t, w)
		for _, j := range resp.Jobs {
			seen = append(seen, j.JobID)
		}
		if resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}
	assert.Equal(t, []int64{ids[3], ids[2], ids[1], ids[0]}, seen)

	w = s.do(t, http.MethodGet, "/api/v1/jobs?active_only=false&page_size=50", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[dto.ListJobsResponse](t, w).Jobs, 5)

	assertError(t, s.do(t, http.MethodGet, "/api/v1/jobs?cursor=not-base64!!", "", nil), http.StatusBadRequest, domain.CodeInvalidInput)
	assertError(t, s.do(t, http.MethodGet, "/api/v1/jobs?job_type=GIG", "", nil), http.StatusBadRequest, domain.CodeInvalidInput)
}

func TestJobEndpoints(t *testing.T) {
	s := newTestServer(t)
	acme := s.register(t, "acme", "company")
	s.register(t, "globex", "company")
	acmeToken := s.login(t, "acme")
	globexToken := s.login(t, "globex")

	w := s.do(t, http.MethodPost, "/api/v1/jobs", acmeToken, jobRequest("Platform engineer"))
	require.Equal(t, http.StatusCreated, w.Code)
	job := decode[dto.JobDTO](t, w)
	jobPath := fmt.Sprintf("/api/v1/jobs/%d", job.JobID)

	bad := jobRequest("Platform engineer")
	bad.Deadline = "31/12/2026"
	w = s.do(t, http.MethodPost, "/api/v1/jobs", acmeToken, bad)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "deadline", decode[dto.ErrorResponse](t, w).Field)

	update := jobRequest("Senior platform engineer")
	assertError(t, s.do(t, http.MethodPut, jobPath, globexToken, update), http.StatusForbidden, domain.CodeForbidden)

	w = s.do(t, http.MethodPut, jobPath, acmeToken, update)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Senior platform engineer", decode[dto.JobDTO](t, w).Title)

	w = s.do(t, http.MethodGet, jobPath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Senior platform engineer", decode[dto.JobDTO](t, w).Title)

	assertError(t, s.do(t, http.MethodGet, "/api/v1/jobs/999", "", nil), http.StatusNotFound, domain.CodeNotFound)
	assertError(t, s.do(t, http.MethodGet, "/api/v1/jobs/abc", "", nil), http.StatusBadRequest, domain.CodeInvalidInput)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/companies/%d/jobs", acme.UserID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[dto.ListJobsResponse](t, w).Jobs, 1)
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	s := newTestServer(t)
	s.publisher.err = errors.New("broker down")

	s.register(t, "acme", "company")
	token := s.login(t, "acme")

	w := s.do(t, http.MethodPost, "/api/v1/jobs", token, jobRequest("Go engineer"))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []events.Type{events.TypeJobPosted}, s.publisher.types())
}

func TestHealthAndRequestID(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	assert.Contains(t, w.Body.String(), "healthy")

	w = s.do(t, http.MethodGet, "/health", "", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/jobs", nil)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
