package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ghassane04/EcoLabel-MS/database"
	"github.com/ghassane04/EcoLabel-MS/middleware"
	"github.com/ghassane04/EcoLabel-MS/routes"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Info("pas de .env trouvé")
	}
	if os.Getenv("JWT_SECRET") == "" {
		logger.Warn("JWT_SECRET vide : les routes /auth et /admin refuseront les jetons")
	}

	database.ConnectDB(os.Getenv("DATABASE_URL"), logger)

	app := fiber.New()
	app.Use(middleware.RequestLogger(logger))

	// CORS : le widget est intégré sur des sites tiers
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy", "service": "widget-api"})
	})
	routes.SetupWidgetRoutes(app)
	routes.SetupAuthRoutes(app)
	routes.SetupFactorRoutes(app)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3030"
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("arrêt du widget")
		_ = app.Shutdown()
	}()

	logger.Info("Widget API démarrée", zap.String("addr", "http://localhost:"+port))
	if err := app.Listen(":" + port); err != nil {
		logger.Fatal("serveur", zap.Error(err))
	}
}
