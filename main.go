package main

import (
	"log"

	"github.com/rahulhiremath15/serva-mvp/config"
	"github.com/rahulhiremath15/serva-mvp/models"
	"github.com/rahulhiremath15/serva-mvp/routes"
	"github.com/rahulhiremath15/serva-mvp/services"
)

func main() {
	log.Println("Starting Serva API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db := config.GetDB()
	if err := db.AutoMigrate(&models.User{}, &models.Booking{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Photo storage is optional in development; booking creation rejects
	// photo uploads until a bucket is configured.
	if cfg.AWSS3Bucket != "" {
		s3Service, err := services.InitS3Service()
		if err != nil {
			log.Fatalf("Failed to initialize S3 service: %v", err)
		}
		services.InitPhotoService(s3Service)
	} else {
		log.Println("AWS_S3_BUCKET not set, photo uploads disabled")
	}

	services.InitDiagnosisService(cfg)
	notifier := services.InitNotifier(cfg)

	reminders := services.NewReminderService(db, notifier)
	if err := reminders.StartScheduler(); err != nil {
		log.Fatalf("Failed to start reminder scheduler: %v", err)
	}
	defer reminders.Stop()

	router := routes.SetupRouter()

	addr := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
