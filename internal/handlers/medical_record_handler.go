package handlers

import (
	"fmt"
	"net/http"

	"github.com/curalink/curalink-api/internal/models"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type labResultRequest struct {
	TestName    string   `json:"testName"`
	Result      string   `json:"result"`
	Date        string   `json:"date"`
	Attachments []string `json:"attachments"`
}

func toLabResults(in []labResultRequest) ([]models.LabResult, error) {
	if in == nil {
		return nil, nil
	}
	results := make([]models.LabResult, 0, len(in))
	for i, r := range in {
		result := models.LabResult{TestName: r.TestName, Result: r.Result, Attachments: r.Attachments}
		if r.Date != "" {
			date, err := models.ParseDate(r.Date)
			if err != nil {
				return nil, fmt.Errorf("labResults[%d]: %w", i, err)
			}
			result.Date = date
		}
		results = append(results, result)
	}
	return results, nil
}

type MedicalRecordRequest struct {
	PatientID    string                `json:"patientId" binding:"required"`
	Diagnosis    string                `json:"diagnosis"`
	Prescription []models.Prescription `json:"prescription"`
	Notes        string                `json:"notes"`
	LabResults   []labResultRequest    `json:"labResults"`
	Attachments  []string              `json:"attachments"`
}

type MedicalRecordUpdateRequest struct {
	Diagnosis    *string               `json:"diagnosis"`
	Prescription []models.Prescription `json:"prescription"`
	Notes        *string               `json:"notes"`
	LabResults   []labResultRequest    `json:"labResults"`
	Attachments  []string              `json:"attachments"`
}

func (h *Handler) CreateMedicalRecord(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req MedicalRecordRequest
	if !bindJSON(c, &req) {
		return
	}
	patientID, err := primitive.ObjectIDFromHex(req.PatientID)
	if err != nil {
		badRequest(c, "Invalid patientId")
		return
	}
	labs, err := toLabResults(req.LabResults)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	record, err := h.svc.MedicalRecords.Create(c.Request.Context(), userID, models.MedicalRecord{
		PatientID:    patientID,
		Diagnosis:    req.Diagnosis,
		Prescription: req.Prescription,
		Notes:        req.Notes,
		LabResults:   labs,
		Attachments:  req.Attachments,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *Handler) GetPatientMedicalRecords(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	patientID, ok := objectIDParam(c, "patientId")
	if !ok {
		return
	}
	records, err := h.svc.MedicalRecords.ListForPatient(c.Request.Context(), userID, currentRole(c), patientID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) GetMedicalRecord(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	record, err := h.svc.MedicalRecords.Get(c.Request.Context(), userID, currentRole(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// UpdateMedicalRecord ignores any patient or author in the body.
func (h *Handler) UpdateMedicalRecord(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req MedicalRecordUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	labs, err := toLabResults(req.LabResults)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	record, err := h.svc.MedicalRecords.Update(c.Request.Context(), userID, id, models.MedicalRecordUpdate{
		Diagnosis:    req.Diagnosis,
		Prescription: req.Prescription,
		Notes:        req.Notes,
		LabResults:   labs,
		Attachments:  req.Attachments,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}
