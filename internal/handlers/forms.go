package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campusbridge/taxforms-backend/internal/requestdata"
	"github.com/campusbridge/taxforms-backend/internal/services"
)

type FormsHandler struct {
	downloadService services.DownloadService
	consentService  services.ConsentService
}

func NewFormsHandler(downloadService services.DownloadService, consentService services.ConsentService) *FormsHandler {
	return &FormsHandler{downloadService: downloadService, consentService: consentService}
}

// List returns the caller's published forms, newest tax year first.
func (fh *FormsHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.User == nil || rd.User.StudentID == nil {
		RespondOK(c, gin.H{"forms": []any{}})
		return
	}
	forms, err := fh.downloadService.ListStudentForms(c.Request.Context(), *rd.User.StudentID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"forms": forms})
}

// Download streams the filled PDF through the authorization gate. A form the
// caller may not see answers 404, same as one that does not exist.
func (fh *FormsHandler) Download(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.User == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	formID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("form not found"))
		return
	}

	result, err := fh.downloadService.AuthorizeAndFetch(c.Request.Context(), rd.User, formID, services.DownloadRequest{
		IPAddress: rd.IPAddress,
		UserAgent: rd.UserAgent,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFormNotFound):
			RespondError(c, http.StatusNotFound, "not_found", err)
		case errors.Is(err, services.ErrFileNotFound):
			RespondError(c, http.StatusInternalServerError, "file_missing", err)
		default:
			RespondError(c, http.StatusInternalServerError, "download_failed", err)
		}
		return
	}
	if result.NeedsConsent {
		c.JSON(http.StatusSeeOther, gin.H{"needs_consent": true, "consent_url": "/api/consent"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("Content-Length", strconv.Itoa(len(result.PDF)))
	c.Data(http.StatusOK, "application/pdf", result.PDF)
}

func (fh *FormsHandler) ConsentStatus(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.User == nil || rd.User.StudentID == nil {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("no student record"))
		return
	}
	status, err := fh.consentService.Status(c.Request.Context(), *rd.User.StudentID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "consent_status_failed", err)
		return
	}
	RespondOK(c, status)
}

func (fh *FormsHandler) GrantConsent(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.User == nil || rd.User.StudentID == nil {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("no student record"))
		return
	}
	status, err := fh.consentService.Grant(c.Request.Context(), *rd.User.StudentID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "consent_grant_failed", err)
		return
	}
	RespondOK(c, status)
}
