package routes

import (
	"certtrack/backend/config"
	"certtrack/backend/controllers"
	"certtrack/backend/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware(db, cfg)

	// User routes
	userController := controllers.NewUserController(db, cfg)
	app.Get("/api/user/profile", authMiddleware, userController.GetProfile)
	app.Put("/api/user/profile", authMiddleware, userController.UpdateProfile)

	// Courses routes
	coursesController := controllers.NewCoursesController(db, cfg)
	courses := app.Group("/api/courses", authMiddleware)
	courses.Get("/", coursesController.GetCatalog)
	courses.Get("/:id", coursesController.GetCourseDetails)

	// Progress routes
	progressController := controllers.NewProgressController(db, cfg)
	courses.Get("/:id/progress", progressController.GetCourseProgress)
	app.Get("/api/subsections/:id", authMiddleware, coursesController.GetSubsection)
	app.Post("/api/subsections/:id/complete", authMiddleware, progressController.CompleteSubsection)

	// Certification routes
	certificationController := controllers.NewCertificationController(db, cfg)
	certification := app.Group("/api/certification", authMiddleware)
	certification.Get("/", certificationController.GetDashboard)
	certification.Get("/exam", certificationController.GetExam)
	certification.Post("/exam", certificationController.SubmitExam)
	certification.Post("/contract", certificationController.SignContract)
	certification.Post("/subscription", certificationController.ActivateSubscription)
	certification.Get("/certificate", certificationController.GetCertificate)

	// Admin routes
	adminController := controllers.NewAdminController(db, cfg)
	admin := app.Group("/api/admin", authMiddleware, adminMiddleware)
	admin.Post("/courses", adminController.CreateCourse)
	admin.Put("/courses/:id", adminController.UpdateCourse)
	admin.Delete("/courses/:id", adminController.DeleteCourse)
	admin.Post("/courses/:id/sections", adminController.AddSection)
	admin.Put("/sections/:id", adminController.UpdateSection)
	admin.Delete("/sections/:id", adminController.DeleteSection)
	admin.Post("/sections/:id/subsections", adminController.AddSubsection)
	admin.Put("/subsections/:id", adminController.UpdateSubsection)
	admin.Delete("/subsections/:id", adminController.DeleteSubsection)
	admin.Get("/users", adminController.GetUsers)
	admin.Get("/certifications", adminController.GetCertifications)
	admin.Post("/certifications/:id/decision", adminController.DecideCertification)
	admin.Post("/exam-questions", adminController.AddExamQuestion)
	admin.Delete("/exam-questions/:id", adminController.DeleteExamQuestion)

	// Admin analytics
	analyticsController := controllers.NewAnalyticsController(db, cfg)
	admin.Get("/courses/:id/analytics", analyticsController.GetCourseAnalytics)
	admin.Get("/analytics", analyticsController.GetPlatformAnalytics)
}
