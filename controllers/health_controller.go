package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rahulhiremath15/serva-mvp/config"
	"github.com/rahulhiremath15/serva-mvp/utils"
)

// HealthCheck handles the health check endpoint
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Serva API is running",
	})
}

// DatabaseStatus checks database connectivity
func DatabaseStatus(c *gin.Context) {
	db := config.GetDB()

	sqlDB, err := db.DB()
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get database instance")
		return
	}

	if err := sqlDB.Ping(); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database connection failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
	})
}
