package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campusbridge/taxforms-backend/internal/requestdata"
	"github.com/campusbridge/taxforms-backend/internal/services"
	"github.com/campusbridge/taxforms-backend/internal/types"
)

type stubDownloadService struct {
	result *services.DownloadResult
	err    error
	gotID  uuid.UUID
	gotReq services.DownloadRequest
}

func (s *stubDownloadService) AuthorizeAndFetch(ctx context.Context, user *types.User, formID uuid.UUID, req services.DownloadRequest) (*services.DownloadResult, error) {
	s.gotID = formID
	s.gotReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubDownloadService) ListStudentForms(ctx context.Context, studentID uuid.UUID) ([]*types.Form1098T, error) {
	return []*types.Form1098T{{ID: uuid.New(), StudentID: studentID, TaxYear: 2024, IsPublished: true}}, nil
}

type stubConsentService struct {
	status services.ConsentStatus
}

func (s *stubConsentService) Status(ctx context.Context, studentID uuid.UUID) (services.ConsentStatus, error) {
	return s.status, nil
}

func (s *stubConsentService) Grant(ctx context.Context, studentID uuid.UUID) (services.ConsentStatus, error) {
	s.status.Consented = true
	return s.status, nil
}

func (s *stubConsentService) Revoke(ctx context.Context, studentID uuid.UUID) error {
	return nil
}

// injectUser stands in for the auth middleware.
func injectUser(user *types.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := &requestdata.RequestData{
			User:      user,
			IPAddress: "203.0.113.9",
			UserAgent: "test-agent/1.0",
		}
		if user != nil {
			rd.UserID = user.ID
		}
		c.Request = c.Request.WithContext(requestdata.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}
}

func formsRouter(user *types.User, download services.DownloadService, consent services.ConsentService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	fh := NewFormsHandler(download, consent)
	g := r.Group("/api", injectUser(user))
	g.GET("/forms", fh.List)
	g.GET("/forms/:id/download", fh.Download)
	g.GET("/consent", fh.ConsentStatus)
	g.POST("/consent", fh.GrantConsent)
	return r
}

func studentUser() *types.User {
	sid := uuid.New()
	return &types.User{ID: uuid.New(), Role: types.RoleStudent, StudentID: &sid}
}

func TestDownloadHandlerStreamsPDF(t *testing.T) {
	download := &stubDownloadService{result: &services.DownloadResult{
		PDF:      []byte("%PDF-1.7 body"),
		Filename: "1098-T_2024_Jane_Doe.pdf",
	}}
	r := formsRouter(studentUser(), download, &stubConsentService{})

	formID := uuid.New()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/forms/"+formID.String()+"/download", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("content type: %q", got)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="1098-T_2024_Jane_Doe.pdf"` {
		t.Fatalf("content disposition: %q", got)
	}
	if got := w.Header().Get("Content-Length"); got != "13" {
		t.Fatalf("content length: %q", got)
	}
	if w.Body.String() != "%PDF-1.7 body" {
		t.Fatalf("body: %q", w.Body.String())
	}
	if download.gotID != formID {
		t.Fatalf("form id passed through: want=%s got=%s", formID, download.gotID)
	}
	if download.gotReq.IPAddress != "203.0.113.9" || download.gotReq.UserAgent != "test-agent/1.0" {
		t.Fatalf("request metadata: %+v", download.gotReq)
	}
}

func TestDownloadHandlerHiddenFormIs404(t *testing.T) {
	download := &stubDownloadService{err: services.ErrFormNotFound}
	r := formsRouter(studentUser(), download, &stubConsentService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/forms/"+uuid.New().String()+"/download", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status: want=404 got=%d", w.Code)
	}
	var envelope ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Error.Code != "not_found" {
		t.Fatalf("error code: %q", envelope.Error.Code)
	}
}

func TestDownloadHandlerBadUUIDIs404(t *testing.T) {
	download := &stubDownloadService{}
	r := formsRouter(studentUser(), download, &stubConsentService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/forms/not-a-uuid/download", nil)
	r.ServeHTTP(w, req)

	// A malformed id reads the same as an unknown form.
	if w.Code != http.StatusNotFound {
		t.Fatalf("status: want=404 got=%d", w.Code)
	}
	if download.gotID != uuid.Nil {
		t.Fatalf("service must not be called for a malformed id")
	}
}

func TestDownloadHandlerMissingArtifactIs500(t *testing.T) {
	download := &stubDownloadService{err: services.ErrFileNotFound}
	r := formsRouter(studentUser(), download, &stubConsentService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/forms/"+uuid.New().String()+"/download", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status: want=500 got=%d", w.Code)
	}
	var envelope ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Error.Code != "file_missing" {
		t.Fatalf("error code: %q", envelope.Error.Code)
	}
}

func TestDownloadHandlerNeedsConsentIs303(t *testing.T) {
	download := &stubDownloadService{result: &services.DownloadResult{NeedsConsent: true}}
	r := formsRouter(studentUser(), download, &stubConsentService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/forms/"+uuid.New().String()+"/download", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status: want=303 got=%d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["needs_consent"] != true {
		t.Fatalf("needs_consent flag: %v", body)
	}
	if body["consent_url"] != "/api/consent" {
		t.Fatalf("consent_url: %v", body["consent_url"])
	}
}

func TestListHandlerWithoutStudentRecordIsEmpty(t *testing.T) {
	staff := &types.User{ID: uuid.New(), Role: types.RoleStaff}
	r := formsRouter(staff, &stubDownloadService{}, &stubConsentService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/forms", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", w.Code)
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if string(body["forms"]) != "[]" {
		t.Fatalf("forms: %s", body["forms"])
	}
}

func TestGrantConsentHandler(t *testing.T) {
	r := formsRouter(studentUser(), &stubDownloadService{}, &stubConsentService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/consent", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", w.Code)
	}
	var status services.ConsentStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !status.Consented {
		t.Fatalf("grant response: %+v", status)
	}
}
