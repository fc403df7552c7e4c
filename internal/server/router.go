package server

import (
  "github.com/gin-gonic/gin"
  "github.com/gin-contrib/cors"
  "github.com/bhavya-jpg/proofora-backend/internal/handlers"
  "github.com/bhavya-jpg/proofora-backend/internal/middleware"
)

type RouterConfig struct {
  DesignHandler     *handlers.DesignHandler
  BlockchainHandler *handlers.BlockchainHandler
  Upload            *middleware.UploadMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  // Cors
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:8081",
      "http://localhost:5173",
      "http://localhost:3000",
    },
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

  router.GET("/health", handlers.HealthCheck)
  router.Static("/uploads", cfg.Upload.Dir())

  api := router.Group("/api")

  designs := api.Group("/designs")
  {
    designs.POST("/save", cfg.Upload.Single("design", middleware.ScanMaxBytes), cfg.DesignHandler.SaveDesign)
    designs.GET("", cfg.DesignHandler.ListDesigns)
    designs.GET("/all", cfg.DesignHandler.ListDesigns)
    designs.GET("/:id", cfg.DesignHandler.GetDesign)
  }

  blockchain := api.Group("/blockchain")
  {
    blockchain.POST("/upload", cfg.Upload.Single("design", middleware.LedgerMaxBytes), cfg.BlockchainHandler.Upload)
    blockchain.POST("/compare", cfg.Upload.Single("design", middleware.LedgerMaxBytes), cfg.BlockchainHandler.Compare)
    blockchain.GET("/stats", cfg.BlockchainHandler.Stats)
  }

  return router
}
