package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/services"
	"github.com/pulsex/care-service/internal/utils"
)

const healthCheckTimeout = 3 * time.Second

type HandlerManager struct {
	serviceManager       services.ServiceManager
	authHandler          *AuthHandler
	adminHandler         *AdminHandler
	doctorHandler        *DoctorHandler
	appointmentHandler   *AppointmentHandler
	medicalRecordHandler *MedicalRecordHandler
	healthDataHandler    *HealthDataHandler
	userHandler          *UserHandler
	authenticator        Authenticator
}

func NewHandlerManager(serviceManager services.ServiceManager, authenticator Authenticator, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		serviceManager:       serviceManager,
		authHandler:          NewAuthHandler(serviceManager.Auth(), logger),
		adminHandler:         NewAdminHandler(serviceManager.Admin(), serviceManager.Auth(), logger),
		doctorHandler:        NewDoctorHandler(serviceManager.Doctor(), logger),
		appointmentHandler:   NewAppointmentHandler(serviceManager.Appointment(), logger),
		medicalRecordHandler: NewMedicalRecordHandler(serviceManager.MedicalRecord(), serviceManager.Access(), logger),
		healthDataHandler:    NewHealthDataHandler(serviceManager.HealthData(), logger),
		userHandler:          NewUserHandler(serviceManager.User(), logger),
		authenticator:        authenticator,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.health)

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	{
		auth.POST("/register", hm.authHandler.RegisterPatient)
		auth.POST("/login", hm.authHandler.Login)
	}

	api := v1.Group("")
	api.Use(hm.authenticator.AuthMiddleware())

	patientOnly := RequireRoleMiddleware(models.RolePatient)
	doctorOrAdmin := RequireRoleMiddleware(models.RoleDoctor, models.RoleAdmin)
	adminOnly := RequireRoleMiddleware(models.RoleAdmin)

	// Admin routes
	admin := api.Group("/admin")
	admin.Use(adminOnly)
	{
		admin.GET("/users", hm.adminHandler.ListUsers)
		admin.PUT("/users/:id/status", hm.adminHandler.UpdateUserStatus)
		admin.POST("/doctors", hm.adminHandler.CreateDoctor)
		admin.POST("/admins", hm.adminHandler.CreateAdmin)
		admin.GET("/doctors/pending", hm.adminHandler.ListPendingDoctors)
		admin.PUT("/doctors/:id/approval", hm.adminHandler.ApproveDoctor)
		admin.GET("/activity", hm.adminHandler.ListActivity)
		admin.GET("/activity/recent", hm.adminHandler.RecentActivity)
		admin.GET("/activity/export", hm.adminHandler.ExportActivity)
	}

	// Doctor directory - all authenticated users, visibility depends on role
	doctors := api.Group("/doctors")
	{
		doctors.GET("", hm.doctorHandler.ListDoctors)
		doctors.GET("/:id", hm.doctorHandler.GetDoctor)
		doctors.GET("/:id/ratings", hm.doctorHandler.ListDoctorRatings)
	}

	api.POST("/ratings", patientOnly, hm.doctorHandler.SubmitRating)

	appointments := api.Group("/appointments")
	{
		appointments.POST("", patientOnly, hm.appointmentHandler.BookAppointment)
		appointments.GET("/me", hm.appointmentHandler.ListMyAppointments)
		appointments.PUT("/:id/status", doctorOrAdmin, hm.appointmentHandler.UpdateAppointmentStatus)
		appointments.PUT("/:id/payment", adminOnly, hm.appointmentHandler.UpdatePaymentStatus)
	}

	records := api.Group("/medical-records")
	{
		records.POST("", patientOnly, hm.medicalRecordHandler.UploadMedicalRecord)
		records.GET("/me", patientOnly, hm.medicalRecordHandler.ListMyMedicalRecords)
		records.GET("/:id/download", hm.medicalRecordHandler.DownloadMedicalRecord)
	}

	healthData := api.Group("/health-data")
	{
		healthData.POST("", patientOnly, hm.healthDataHandler.AddHealthData)
		healthData.GET("/me", patientOnly, hm.healthDataHandler.ListMyHealthData)
	}

	// Cross-patient reads are decided by the care-relationship check
	patients := api.Group("/patients/:id")
	{
		patients.GET("/access", hm.medicalRecordHandler.CheckRecordAccess)
		patients.GET("/medical-records", hm.medicalRecordHandler.ListPatientMedicalRecords)
		patients.GET("/health-data", hm.healthDataHandler.ListPatientHealthData)
	}

	users := api.Group("/users/me")
	{
		users.GET("", hm.userHandler.GetMe)
		users.PUT("", hm.userHandler.UpdateMe)
		users.PUT("/password", hm.userHandler.ChangePassword)
	}
}

func (hm *HandlerManager) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	if err := hm.serviceManager.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "care-service",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "care-service",
	})
}
