package main

import (
	"time"

	"github.com/Monark-Arkmon/FitCheck/config"
	"github.com/Monark-Arkmon/FitCheck/models"
	"github.com/Monark-Arkmon/FitCheck/routes"
	"github.com/Monark-Arkmon/FitCheck/services"
	"github.com/Monark-Arkmon/FitCheck/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.CheckIn{},
		&models.Comment{},
		&models.Like{},
		&models.FeedItem{},
		&models.Notification{},
		&models.PageView{},
	)

	r := routes.SetupRouter(db)

	// Background sweep that warns users whose streak dies at midnight UTC
	services.StartStreakReminder(db, services.NewDBNotifier(db), time.Hour)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
