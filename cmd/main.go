package main

import (
	"fmt"
	"os"
	"time"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/clients/gcp"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/clients/redis"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/db"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/handlers"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/logger"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/middleware"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/repos"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/server"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/services"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	rateLimit := utils.GetEnvAsInt("RATE_LIMIT_PER_MINUTE", 30, log)
	port := utils.GetEnv("PORT", "8080", log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	entityRepo := repos.NewEntityRepo(thePG, log)
	recordRepo := repos.NewCanonicalRecordRepo(thePG, log)
	templateRepo := repos.NewTemplateRepo(thePG, log)

	// External collaborators
	log.Info("Setting up external clients from main...")
	visionClient, err := gcp.NewVision(log)
	if err != nil {
		log.Warn("Could not init Vision client, image OCR disabled", "error", err)
	}
	documentClient, err := gcp.NewDocument(log)
	if err != nil {
		log.Warn("Could not init Document AI client, scanned-pdf OCR disabled", "error", err)
	}
	llmClient, err := services.NewLLMClient(log)
	if err != nil {
		log.Error("Could not init LLM client", "error", err)
		os.Exit(1)
	}
	rateLimiter, err := redis.NewRateLimiter(log, rateLimit, time.Minute)
	if err != nil {
		log.Warn("Could not init Redis rate limiter, throttling disabled", "error", err)
		rateLimiter = nil
	}

	// Services
	log.Info("Setting up Services from main...")
	storageService, err := services.NewStorageService(log)
	if err != nil {
		log.Error("Could not init StorageService", "error", err)
		os.Exit(1)
	}
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(log, userRepo)
	entityService := services.NewEntityService(thePG, log, entityRepo, recordRepo)
	ocrService := services.NewOCRService(log, visionClient, documentClient)
	extractionService := services.NewExtractionService(log, ocrService, llmClient)
	recordService := services.NewRecordService(log, thePG, recordRepo)
	documentService := services.NewDocumentService(log, entityService, extractionService, recordService, storageService)
	templateService := services.NewTemplateService(log, templateRepo, storageService)
	mapperService := services.NewMapperService(log, llmClient)
	fillService := services.NewFillService(log, templateService, entityService, recordService, mapperService, storageService)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	entityHandler := handlers.NewEntityHandler(entityService)
	entityDataHandler := handlers.NewEntityDataHandler(log, documentService, recordService, entityService)
	templateHandler := handlers.NewTemplateHandler(templateService)
	fillHandler := handlers.NewFillHandler(fillService)
	healthcheckHandler := handlers.NewHealthcheckHandler()

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(log, rateLimiter)

	// Router
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:         authHandler,
		UserHandler:         userHandler,
		EntityHandler:       entityHandler,
		EntityDataHandler:   entityDataHandler,
		TemplateHandler:     templateHandler,
		FillHandler:         fillHandler,
		HealthcheckHandler:  healthcheckHandler,
		AuthMiddleware:      authMiddleware,
		RateLimitMiddleware: rateLimitMiddleware,
	})

	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
