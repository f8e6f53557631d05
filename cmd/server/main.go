package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/mindpause/internal/config"
	"github.com/mindpause/internal/db"
	"github.com/mindpause/internal/handler"
	"github.com/mindpause/internal/router"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	if err := db.EnsureAdmin(cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("failed to ensure admin account: %v", err)
	}

	api := handler.NewAPI(db.DB, cfg.UploadDir, cfg.UploadURLPath)
	if err := api.Seed(); err != nil {
		log.Fatalf("failed to seed default data: %v", err)
	}

	r := router.SetupRouter(api, cfg.SessionSecret, cfg.UploadDir, cfg.UploadURLPath)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
