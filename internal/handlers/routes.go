package handlers

import (
	"github.com/curalink/curalink-api/internal/middleware"
	"github.com/curalink/curalink-api/internal/models"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the API under /api. auth guards every route except
// registration and login.
func (h *Handler) RegisterRoutes(r gin.IRouter, auth gin.HandlerFunc) {
	api := r.Group("/api")

	users := api.Group("/users")
	{
		users.POST("/register", h.RegisterUser)
		users.POST("/login", h.Login)
		users.GET("/me", auth, h.GetCurrentUser)
		users.PUT("/me", auth, h.UpdateCurrentUser)
		users.POST("/logout", auth, h.Logout)
	}

	asDoctor := middleware.RequireRole(models.RoleDoctor)
	asPatient := middleware.RequireRole(models.RolePatient)
	asPharmacist := middleware.RequireRole(models.RolePharmacist)

	doctors := api.Group("/doctors", auth)
	{
		doctors.POST("/register", h.RegisterDoctor)
		doctors.GET("/profile", h.GetDoctorProfile)
		doctors.GET("/all-doctors", h.ListDoctors)

		doctors.PATCH("/profile", asDoctor, h.UpdateDoctorProfile)
		doctors.GET("/time-slots", asDoctor, h.GetTimeSlots)
		doctors.PUT("/time-slots", asDoctor, h.UpdateTimeSlots)
		doctors.PATCH("/availability", asDoctor, h.ToggleAvailability)
		doctors.GET("/search-patients", asDoctor, h.SearchPatients)
		doctors.POST("/patients", asDoctor, h.AddPatient)
		doctors.DELETE("/patients/:patientId", asDoctor, h.RemovePatient)
		doctors.GET("/patients/:patientId/medical-reports", asDoctor, h.GetPatientMedicalReports)
		doctors.GET("/patients/:patientId/medical-history", asDoctor, h.GetPatientMedicalHistory)
		doctors.GET("/appointments", asDoctor, h.GetDoctorAppointments)
		doctors.DELETE("/appointments/:id", asDoctor, h.DeleteAppointment)
	}

	appointments := api.Group("/appointments", auth)
	{
		appointments.POST("/book", asPatient, h.BookAppointment)
		appointments.GET("", asDoctor, h.GetDoctorAppointments)
		appointments.GET("/patient", asPatient, h.GetPatientAppointments)
	}

	patients := api.Group("/patients", auth, asPatient)
	{
		patients.GET("/profile", h.GetPatientProfile)
		patients.PUT("/profile", h.UpdatePatientProfile)
		patients.GET("/medical-history", h.GetMedicalHistory)
		patients.POST("/medical-history", h.AddMedicalHistory)
		patients.DELETE("/medical-history/:entryId", h.DeleteMedicalHistory)
		patients.GET("/medical-reports", h.GetMedicalReports)
		patients.POST("/medical-reports", h.UploadMedicalReport)
	}

	pharmacists := api.Group("/pharmacists", auth)
	{
		pharmacists.POST("/register", h.RegisterPharmacist)

		pharmacists.GET("/profile", asPharmacist, h.GetPharmacistProfile)
		pharmacists.PATCH("/profile", asPharmacist, h.UpdatePharmacistProfile)
		pharmacists.GET("/inventory", asPharmacist, h.GetInventory)
		pharmacists.PUT("/inventory", asPharmacist, h.UpdateInventory)
		pharmacists.POST("/inventory/add", asPharmacist, h.AddDrug)
		pharmacists.DELETE("/inventory/remove/:drugId", asPharmacist, h.RemoveDrug)
		pharmacists.POST("/notifications", asPharmacist, h.UpdateNotifications)
		pharmacists.GET("/inventory/export", asPharmacist, h.ExportInventory)
	}

	students := api.Group("/students", auth, middleware.RequireRole(models.RolePatient, models.RoleStudent))
	{
		students.GET("/profile", h.GetStudentProfile)
		students.GET("/case-studies/:caseId", h.AccessCaseStudy)
		students.POST("/quiz-scores", h.TrackQuizScore)
	}

	records := api.Group("/medical-records", auth)
	{
		records.POST("", asDoctor, h.CreateMedicalRecord)
		records.GET("/patient/:patientId", h.GetPatientMedicalRecords)
		records.GET("/:id", h.GetMedicalRecord)
		records.PATCH("/:id", asDoctor, h.UpdateMedicalRecord)
	}
}
