package handlers

import (
	"net/http"

	"github.com/curalink/curalink-api/internal/models"
	"github.com/curalink/curalink-api/internal/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookAppointmentRequest struct {
	DoctorID  string `json:"doctorId" binding:"required"`
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"startTime" binding:"required"`
	EndTime   string `json:"endTime" binding:"required"`
}

// BookAppointment books for the calling patient.
func (h *Handler) BookAppointment(c *gin.Context) {
	patientID, ok := currentUser(c)
	if !ok {
		return
	}
	var req BookAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	doctorID, err := primitive.ObjectIDFromHex(req.DoctorID)
	if err != nil {
		badRequest(c, "Invalid doctorId")
		return
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	apt, err := h.svc.Appointments.Book(c.Request.Context(), patientID, services.BookInput{
		DoctorID:  doctorID,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, apt)
}

// GetDoctorAppointments lists the calling doctor's upcoming appointments.
// An optional doctorId query must name the caller's own profile.
func (h *Handler) GetDoctorAppointments(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var requested *primitive.ObjectID
	if raw := c.Query("doctorId"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			badRequest(c, "Invalid doctorId")
			return
		}
		requested = &id
	}

	list, err := h.svc.Appointments.ListForDoctor(c.Request.Context(), userID, requested)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": list})
}

func (h *Handler) GetPatientAppointments(c *gin.Context) {
	patientID, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.svc.Appointments.ListForPatient(c.Request.Context(), patientID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": list})
}

// DeleteAppointment hard-deletes one of the calling doctor's appointments.
func (h *Handler) DeleteAppointment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	appointmentID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Appointments.Cancel(c.Request.Context(), userID, appointmentID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment deleted successfully"})
}
