package main

import (
  "context"
  "fmt"
  "os"
  "time"
  "github.com/bhavya-jpg/proofora-backend/internal/logger"
  "github.com/bhavya-jpg/proofora-backend/internal/utils"
  "github.com/bhavya-jpg/proofora-backend/internal/db"
  "github.com/bhavya-jpg/proofora-backend/internal/repos"
  "github.com/bhavya-jpg/proofora-backend/internal/services"
  "github.com/bhavya-jpg/proofora-backend/internal/handlers"
  "github.com/bhavya-jpg/proofora-backend/internal/middleware"
  "github.com/bhavya-jpg/proofora-backend/internal/server"
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
  if os.Getenv("JWT_SECRET") == "" {
    log.Warn("JWT_SECRET not set")
  }
  mlAPIURL := utils.GetEnv("ML_API_URL", "http://localhost:8000", log)
  mlAPITimeout := utils.GetEnvAsInt("ML_API_TIMEOUT_SECONDS", 60, log)
  uploadDir := utils.GetEnv("UPLOAD_DIR", "./uploads", log)
  redisAddr := utils.GetEnv("REDIS_ADDR", "", log)

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
  designRepo := repos.NewDesignRepo(thePG, log)

  // Services
  log.Info("Setting up Services from main...")
  scanClient := services.NewScanClient(log, mlAPIURL, time.Duration(mlAPITimeout)*time.Second)
  probeCtx, probeCancel := context.WithTimeout(context.Background(), 5*time.Second)
  if err := scanClient.Health(probeCtx); err != nil {
    log.Warn("Scan service not reachable at startup", "ml_api_url", mlAPIURL, "error", err)
  }
  probeCancel()

  ledgerService, err := services.NewLedgerService(log, services.LedgerConfig{
    PrivateKey:    os.Getenv("APTOS_PRIVATE_KEY"),
    ModuleAddress: utils.GetEnv("APTOS_MODULE_ADDRESS", "", log),
    Network:       utils.GetEnv("APTOS_NETWORK", "devnet", log),
  })
  if err != nil {
    log.Error("Could not init LedgerService", "error", err)
    os.Exit(1)
  }
  initCtx, initCancel := context.WithTimeout(context.Background(), 60*time.Second)
  if err := ledgerService.InitializeRegistry(initCtx); err != nil {
    log.Warn("Registry initialization failed", "error", err)
  }
  initCancel()

  verifyCache, err := services.NewVerifyCache(log, redisAddr)
  if err != nil {
    log.Warn("Could not init VerifyCache, continuing without cache", "error", err)
    verifyCache = nil
  }

  designService := services.NewDesignService(thePG, log, designRepo, scanClient)

  // Middleware
  log.Info("Setting up middleware from main...")
  uploadMiddleware, err := middleware.NewUploadMiddleware(log, uploadDir)
  if err != nil {
    log.Error("Could not init UploadMiddleware", "error", err)
    os.Exit(1)
  }

  // Handlers
  log.Info("Setting up handlers from main...")
  designHandler := handlers.NewDesignHandler(log, designService)
  blockchainHandler := handlers.NewBlockchainHandler(log, ledgerService, verifyCache)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    DesignHandler:     designHandler,
    BlockchainHandler: blockchainHandler,
    Upload:            uploadMiddleware,
  })

  port := utils.GetEnv("PORT", "5001", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server failed", "error", err)
  }
}
