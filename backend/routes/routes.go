package routes

import (
	"codestreak/backend/challenge"
	"codestreak/backend/config"
	"codestreak/backend/controllers"
	"codestreak/backend/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, service *challenge.Service) {
	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware(db, cfg)

	// Public challenge routes. Registered before the auth group because the
	// group's middleware applies to everything under the prefix.
	challengeController := controllers.NewChallengeController(db, cfg, service)
	app.Get("/api/challenge", challengeController.GetOverview)

	leaderboardController := controllers.NewLeaderboardController(db, cfg, service)
	app.Get("/api/challenge/leaderboard", leaderboardController.GetLeaderboard)

	// Challenge routes
	ch := app.Group("/api/challenge", authMiddleware)
	ch.Post("/enroll", challengeController.Enroll)
	ch.Get("/day/:day", challengeController.GetDay)
	ch.Get("/calendar", challengeController.GetCalendar)
	ch.Post("/complete-problem", challengeController.CompleteProblem)
	ch.Get("/progress", challengeController.GetProgress)
	ch.Post("/submit-skool", challengeController.SubmitSkool)
	ch.Post("/bonus-problem", challengeController.SubmitBonusProblem)
	ch.Post("/tracker", challengeController.UpdateTracker)
	ch.Get("/heatmap", challengeController.GetHeatmap)

	// Admin routes
	adminController := controllers.NewAdminController(db, cfg, service)
	admin := app.Group("/api/challenge/admin", authMiddleware, adminMiddleware)
	admin.Get("/participants", adminController.GetParticipants)
	admin.Post("/approve-submission", adminController.ReviewSubmission)
}
