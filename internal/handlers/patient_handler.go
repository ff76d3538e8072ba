package handlers

import (
	"io"
	"net/http"

	"github.com/curalink/curalink-api/internal/models"
	"github.com/curalink/curalink-api/internal/services"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

type MedicalHistoryRequest struct {
	Date        string        `json:"date" binding:"required"`
	Description string        `json:"description" binding:"required"`
	Drugs       []models.Drug `json:"drugs"`
}

func (h *Handler) GetPatientProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	profile, err := h.svc.Patients.Profile(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) UpdatePatientProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.PatientUpdate
	if !bindJSON(c, &req) {
		return
	}
	patient, err := h.svc.Patients.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, patient)
}

func (h *Handler) GetMedicalHistory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	history, err := h.svc.Patients.History(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *Handler) AddMedicalHistory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req MedicalHistoryRequest
	if !bindJSON(c, &req) {
		return
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	history, err := h.svc.Patients.AddHistory(c.Request.Context(), userID, models.MedicalHistoryEntry{
		Date:        date,
		Description: req.Description,
		Drugs:       req.Drugs,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, history)
}

func (h *Handler) DeleteMedicalHistory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	entryID, ok := objectIDParam(c, "entryId")
	if !ok {
		return
	}
	if err := h.svc.Patients.DeleteHistory(c.Request.Context(), userID, entryID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Medical history entry deleted"})
}

func (h *Handler) GetMedicalReports(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	reports, err := h.svc.Patients.Reports(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

// UploadMedicalReport accepts a multipart "file" plus an optional "reportName".
func (h *Handler) UploadMedicalReport(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxReportSize+1<<20)

	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "A report file is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		badRequest(c, "Could not read the uploaded file")
		return
	}
	defer file.Close()

	// type comes from the content, not the part header
	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		badRequest(c, "Could not read the uploaded file")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		badRequest(c, "Could not read the uploaded file")
		return
	}

	report, err := h.svc.Patients.UploadReport(c.Request.Context(), userID, services.ReportUpload{
		ReportName:  c.PostForm("reportName"),
		FileName:    header.Filename,
		ContentType: mtype.String(),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}
