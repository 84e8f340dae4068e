package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rahulhiremath15/serva-mvp/config"
	"github.com/rahulhiremath15/serva-mvp/middleware"
	"github.com/rahulhiremath15/serva-mvp/models"
	"github.com/rahulhiremath15/serva-mvp/utils"
)

// AvailableJobs handles GET /api/v1/technician/available-jobs: every pending,
// unclaimed booking, oldest first so long-waiting customers get picked up first.
func AvailableJobs(c *gin.Context) {
	db := config.GetDB()
	var bookings []models.Booking
	if err := db.Preload("Customer").
		Where("status = ? AND technician_id IS NULL", models.StatusPending).
		Order("created_at ASC").
		Find(&bookings).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch available jobs")
		return
	}

	for i := range bookings {
		attachPhotoURL(&bookings[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    bookings,
	})
}

// MyJobs handles GET /api/v1/technician/my-jobs: bookings claimed by the caller
func MyJobs(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	db := config.GetDB()
	var bookings []models.Booking
	if err := db.Preload("Customer").
		Where("technician_id = ?", userID).
		Order("created_at DESC").
		Find(&bookings).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch jobs")
		return
	}

	for i := range bookings {
		attachPhotoURL(&bookings[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    bookings,
	})
}
