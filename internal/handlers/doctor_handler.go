package handlers

import (
	"net/http"

	"github.com/curalink/curalink-api/internal/models"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthTokenHeader carries a refreshed token after the caller's role changed.
const AuthTokenHeader = "X-Auth-Token"

type timeSlotRequest struct {
	Day         models.Weekday `json:"day"`
	StartTime   string         `json:"startTime"`
	EndTime     string         `json:"endTime"`
	IsAvailable *bool          `json:"isAvailable"`
}

func toTimeSlots(in []timeSlotRequest) []models.TimeSlot {
	slots := make([]models.TimeSlot, 0, len(in))
	for _, r := range in {
		available := true
		if r.IsAvailable != nil {
			available = *r.IsAvailable
		}
		slots = append(slots, models.TimeSlot{Day: r.Day, StartTime: r.StartTime, EndTime: r.EndTime, IsAvailable: available})
	}
	return slots
}

type RegisterDoctorRequest struct {
	Specialization string               `json:"specialization" binding:"required"`
	License        string               `json:"license" binding:"required"`
	Experience     *int                 `json:"experience" binding:"required"`
	Fees           float64              `json:"fees"`
	About          string               `json:"about"`
	Languages      []string             `json:"languages"`
	Address        models.Address       `json:"address"`
	Education      []models.Education   `json:"education"`
	Certificates   []models.Certificate `json:"certificates"`
	TimeSlots      []timeSlotRequest    `json:"timeSlots"`
}

type TimeSlotsRequest struct {
	TimeSlots []timeSlotRequest `json:"timeSlots" binding:"required"`
}

type AvailabilityRequest struct {
	IsAvailable *bool `json:"isAvailable" binding:"required"`
}

type AddPatientRequest struct {
	PatientID string `json:"patientId" binding:"required"`
}

func (h *Handler) RegisterDoctor(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req RegisterDoctorRequest
	if !bindJSON(c, &req) {
		return
	}

	doctor, err := h.svc.Doctors.Register(c.Request.Context(), userID, models.Doctor{
		Specialization: req.Specialization,
		License:        req.License,
		Experience:     *req.Experience,
		Fees:           req.Fees,
		About:          req.About,
		Languages:      req.Languages,
		Address:        req.Address,
		Education:      req.Education,
		Certificates:   req.Certificates,
		TimeSlots:      toTimeSlots(req.TimeSlots),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	if token, err := h.svc.Auth.Reissue(userID, models.RoleDoctor); err == nil {
		c.Header(AuthTokenHeader, token)
	}
	c.JSON(http.StatusCreated, doctor)
}

func (h *Handler) GetDoctorProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	profile, err := h.svc.Doctors.Profile(c.Request.Context(), userID, currentRole(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) UpdateDoctorProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.DoctorUpdate
	if !bindJSON(c, &req) {
		return
	}
	doctor, err := h.svc.Doctors.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doctor)
}

func (h *Handler) GetTimeSlots(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	slots, err := h.svc.Doctors.TimeSlots(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timeSlots": slots})
}

func (h *Handler) UpdateTimeSlots(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req TimeSlotsRequest
	if !bindJSON(c, &req) {
		return
	}
	slots, err := h.svc.Doctors.SetTimeSlots(c.Request.Context(), userID, toTimeSlots(req.TimeSlots))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timeSlots": slots})
}

func (h *Handler) ToggleAvailability(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req AvailabilityRequest
	if !bindJSON(c, &req) {
		return
	}
	flag, err := h.svc.Doctors.SetAvailability(c.Request.Context(), userID, *req.IsAvailable)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isAvailable": flag})
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.svc.Doctors.ListAvailable(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doctors)
}

func (h *Handler) SearchPatients(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	patients, err := h.svc.Doctors.SearchPatients(c.Request.Context(), userID, c.Query("search"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, patients)
}

func (h *Handler) AddPatient(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req AddPatientRequest
	if !bindJSON(c, &req) {
		return
	}
	patientID, err := primitive.ObjectIDFromHex(req.PatientID)
	if err != nil {
		badRequest(c, "Invalid patientId")
		return
	}

	patient, err := h.svc.Doctors.AddPatient(c.Request.Context(), userID, patientID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Patient added successfully", "patient": patient})
}

func (h *Handler) RemovePatient(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	patientID, ok := objectIDParam(c, "patientId")
	if !ok {
		return
	}
	if err := h.svc.Doctors.RemovePatient(c.Request.Context(), userID, patientID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Patient removed successfully", "patientId": patientID})
}

func (h *Handler) GetPatientMedicalReports(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	patientID, ok := objectIDParam(c, "patientId")
	if !ok {
		return
	}
	reports, err := h.svc.Doctors.PatientMedicalReports(c.Request.Context(), userID, patientID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (h *Handler) GetPatientMedicalHistory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	patientID, ok := objectIDParam(c, "patientId")
	if !ok {
		return
	}
	history, err := h.svc.Doctors.PatientMedicalHistory(c.Request.Context(), userID, patientID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}
