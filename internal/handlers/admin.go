package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campusbridge/taxforms-backend/internal/repos"
	"github.com/campusbridge/taxforms-backend/internal/requestdata"
	"github.com/campusbridge/taxforms-backend/internal/services"
)

type AdminHandler struct {
	publisherFactory services.PublisherFactory
	exportService    services.ExportService
	summaryProvider  services.SummaryProvider
	settingsService  services.SettingsService
	consentService   services.ConsentService
	formRepo         repos.Form1098TRepo
	studentRepo      repos.StudentRepo
	txRepo           repos.StudentTransactionRepo
	downloadRepo     repos.Form1098TDownloadRepo
}

func NewAdminHandler(
	publisherFactory services.PublisherFactory,
	exportService services.ExportService,
	summaryProvider services.SummaryProvider,
	settingsService services.SettingsService,
	consentService services.ConsentService,
	formRepo repos.Form1098TRepo,
	studentRepo repos.StudentRepo,
	txRepo repos.StudentTransactionRepo,
	downloadRepo repos.Form1098TDownloadRepo,
) *AdminHandler {
	return &AdminHandler{
		publisherFactory: publisherFactory,
		exportService:    exportService,
		summaryProvider:  summaryProvider,
		settingsService:  settingsService,
		consentService:   consentService,
		formRepo:         formRepo,
		studentRepo:      studentRepo,
		txRepo:           txRepo,
		downloadRepo:     downloadRepo,
	}
}

func (ah *AdminHandler) Publish(c *gin.Context) {
	var req struct {
		TaxYear    int        `json:"tax_year"`
		StudentID  *uuid.UUID `json:"student_id,omitempty"`
		Regenerate bool       `json:"regenerate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", errors.New("invalid request body"))
		return
	}

	var publishedBy *uuid.UUID
	if rd := requestdata.GetRequestData(c.Request.Context()); rd != nil {
		id := rd.UserID
		publishedBy = &id
	}

	publisher, err := ah.publisherFactory.ForYear(c.Request.Context(), req.TaxYear, publishedBy)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "publish_setup_failed", err)
		return
	}

	if req.StudentID != nil {
		student, err := ah.studentRepo.GetByID(c.Request.Context(), nil, *req.StudentID)
		if err != nil {
			RespondError(c, http.StatusInternalServerError, "publish_failed", err)
			return
		}
		if student == nil {
			RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("student %s not found", *req.StudentID))
			return
		}
		outcome, err := publisher.PublishStudent(c.Request.Context(), student, req.Regenerate)
		if err != nil {
			RespondError(c, http.StatusInternalServerError, "publish_failed", err)
			return
		}
		RespondOK(c, gin.H{"outcome": outcome})
		return
	}

	result, err := publisher.PublishAll(c.Request.Context(), nil, req.Regenerate)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "publish_failed", err)
		return
	}
	RespondOK(c, result)
}

// Forms lists published forms for a tax year with per-form download counts.
func (ah *AdminHandler) Forms(c *gin.Context) {
	year, err := yearParam(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	forms, err := ah.formRepo.ListPublishedByYear(c.Request.Context(), nil, year)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	formIDs := make([]uuid.UUID, len(forms))
	for i, f := range forms {
		formIDs[i] = f.ID
	}
	counts, err := ah.downloadRepo.CountByFormIDs(c.Request.Context(), nil, formIDs)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}

	type formWithStats struct {
		Form          any   `json:"form"`
		DownloadCount int64 `json:"download_count"`
	}
	out := make([]formWithStats, len(forms))
	for i, f := range forms {
		out[i] = formWithStats{Form: f, DownloadCount: counts[f.ID]}
	}
	RespondOK(c, gin.H{"tax_year": year, "forms": out})
}

func (ah *AdminHandler) Stats(c *gin.Context) {
	year, err := yearParam(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	ctx := c.Request.Context()

	publishedCount, err := ah.formRepo.CountPublishedByYear(ctx, nil, year)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "stats_failed", err)
		return
	}

	publishedIDs, err := ah.formRepo.PublishedStudentIDsByYear(ctx, nil, year)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "stats_failed", err)
		return
	}
	publishedSet := make(map[uuid.UUID]struct{}, len(publishedIDs))
	for _, id := range publishedIDs {
		publishedSet[id] = struct{}{}
	}

	start, end := services.YearRange(year)
	candidates, err := ah.txRepo.DistinctStudentIDsInRange(ctx, nil, start, end)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "stats_failed", err)
		return
	}
	summaries, err := ah.summaryProvider.BulkSummary(ctx, candidates, start, end)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "stats_failed", err)
		return
	}
	var unpublished int
	for _, id := range candidates {
		if _, done := publishedSet[id]; done {
			continue
		}
		if summaries[id].Qualifies() {
			unpublished++
		}
	}

	forms, err := ah.formRepo.ListPublishedByYear(ctx, nil, year)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "stats_failed", err)
		return
	}
	formIDs := make([]uuid.UUID, len(forms))
	for i, f := range forms {
		formIDs[i] = f.ID
	}
	counts, err := ah.downloadRepo.CountByFormIDs(ctx, nil, formIDs)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "stats_failed", err)
		return
	}
	var downloadCount int64
	for _, n := range counts {
		downloadCount += n
	}

	RespondOK(c, gin.H{
		"tax_year":          year,
		"published_count":   publishedCount,
		"download_count":    downloadCount,
		"unpublished_count": unpublished,
	})
}

func (ah *AdminHandler) ExportCSV(c *gin.Context) {
	start, end, err := rangeParams(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	data, err := ah.exportService.DataCSV(c.Request.Context(), start, end)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "export_failed", err)
		return
	}
	filename := fmt.Sprintf("1098t_data_%s_%s.csv", start.Format("20060102"), end.Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

func (ah *AdminHandler) ExportZip(c *gin.Context) {
	start, end, err := rangeParams(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	generator, err := ah.publisherFactory.GeneratorForYear(c.Request.Context(), start.Year())
	if err != nil {
		RespondError(c, http.StatusBadRequest, "export_setup_failed", err)
		return
	}
	data, err := ah.exportService.FilledFormsZip(c.Request.Context(), generator, start, end)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "export_failed", err)
		return
	}
	filename := fmt.Sprintf("1098t_forms_%s_%s.zip", start.Format("20060102"), end.Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/zip", data)
}

// RevokeConsent withdraws a student's electronic-delivery consent. Students
// cannot revoke through the API themselves; the original paper process runs
// through staff.
func (ah *AdminHandler) RevokeConsent(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("student_id"))
	if err != nil {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("student not found"))
		return
	}
	student, err := ah.studentRepo.GetByID(c.Request.Context(), nil, studentID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "consent_revoke_failed", err)
		return
	}
	if student == nil {
		RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("student %s not found", studentID))
		return
	}
	if err := ah.consentService.Revoke(c.Request.Context(), studentID); err != nil {
		RespondError(c, http.StatusInternalServerError, "consent_revoke_failed", err)
		return
	}
	RespondOK(c, gin.H{"success": "true"})
}

func (ah *AdminHandler) Settings(c *gin.Context) {
	ctx := c.Request.Context()
	summaryCfg, err := ah.settingsService.SummaryConfig(ctx)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "settings_failed", err)
		return
	}
	out := gin.H{"summary": summaryCfg}
	filer, err := ah.settingsService.FilerInfo(ctx)
	if err == nil {
		out["filer"] = filer
	}
	RespondOK(c, out)
}

func (ah *AdminHandler) SaveFilerInfo(c *gin.Context) {
	var info services.FilerInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", errors.New("invalid request body"))
		return
	}
	if info.Name == "" || info.EIN == "" {
		RespondError(c, http.StatusBadRequest, "bad_request", errors.New("filer name and EIN are required"))
		return
	}
	if err := ah.settingsService.SaveFilerInfo(c.Request.Context(), info); err != nil {
		RespondError(c, http.StatusInternalServerError, "settings_failed", err)
		return
	}
	RespondOK(c, gin.H{"success": "true"})
}

func (ah *AdminHandler) SaveSummaryConfig(c *gin.Context) {
	var cfg services.SummaryConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", errors.New("invalid request body"))
		return
	}
	if err := ah.settingsService.SaveSummaryConfig(c.Request.Context(), cfg); err != nil {
		RespondError(c, http.StatusInternalServerError, "settings_failed", err)
		return
	}
	RespondOK(c, gin.H{"success": "true"})
}

func yearParam(c *gin.Context) (int, error) {
	raw := c.Query("year")
	if raw == "" {
		return 0, errors.New("year query parameter is required")
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid year %q", raw)
	}
	return year, nil
}

// rangeParams parses from/until dates; until is exclusive. When both are
// absent the range falls back to the prior calendar year.
func rangeParams(c *gin.Context) (time.Time, time.Time, error) {
	const layout = "2006-01-02"
	fromRaw, untilRaw := c.Query("from"), c.Query("until")
	if fromRaw == "" && untilRaw == "" {
		start, end := services.YearRange(time.Now().Year() - 1)
		return start, end, nil
	}
	if fromRaw == "" || untilRaw == "" {
		return time.Time{}, time.Time{}, errors.New("from and until must both be provided")
	}
	start, err := time.Parse(layout, fromRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid from date %q", fromRaw)
	}
	end, err := time.Parse(layout, untilRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid until date %q", untilRaw)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, errors.New("until must be after from")
	}
	return start, end, nil
}
