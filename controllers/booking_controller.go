package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rahulhiremath15/serva-mvp/config"
	"github.com/rahulhiremath15/serva-mvp/middleware"
	"github.com/rahulhiremath15/serva-mvp/models"
	"github.com/rahulhiremath15/serva-mvp/services"
	"github.com/rahulhiremath15/serva-mvp/utils"
	"gorm.io/gorm"
)

// isAllDigits reports whether s is a plausible numeric storage identifier
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// findBooking resolves a booking by its human-readable code first, falling
// back to the numeric storage identifier only when the input looks like one.
func findBooking(db *gorm.DB, ref string) (*models.Booking, error) {
	var booking models.Booking

	err := db.Preload("Customer").Preload("Technician").
		Where("booking_id = ?", ref).First(&booking).Error
	if err == nil {
		return &booking, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if !isAllDigits(ref) {
		return nil, gorm.ErrRecordNotFound
	}

	id, convErr := strconv.ParseUint(ref, 10, 64)
	if convErr != nil {
		return nil, gorm.ErrRecordNotFound
	}

	err = db.Preload("Customer").Preload("Technician").First(&booking, uint(id)).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// bookingCreateAttempts bounds identifier regeneration on duplicate codes
const bookingCreateAttempts = 3

// insertBooking creates a booking row, regenerating the booking code and
// warranty token when the insert trips a uniqueness constraint. The generated
// identifiers carry a timestamp component, so a retry draws from a fresh space.
func insertBooking(db *gorm.DB, booking *models.Booking) error {
	var err error
	for attempt := 0; attempt < bookingCreateAttempts; attempt++ {
		err = db.Create(booking).Error
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		booking.ID = 0
		booking.BookingID = ""
		booking.WarrantyToken = ""
	}
	return err
}

// attachPhotoURL fills the computed PhotoURL field from the image service
func attachPhotoURL(booking *models.Booking) {
	if booking.PhotoKey == nil || *booking.PhotoKey == "" {
		return
	}
	svc := services.GetPhotoService()
	if svc == nil {
		return
	}
	url, err := svc.PhotoURL(*booking.PhotoKey)
	if err != nil {
		// Presign failure degrades to a record without a photo link
		log.Printf("Booking %s: failed to generate photo URL: %v", booking.BookingID, err)
		return
	}
	booking.PhotoURL = &url
}

// CreateBooking handles POST /api/v1/bookings (customers only, multipart form).
// Owner, status, technician, booking code and warranty are server-authoritative;
// client-supplied values for them are never read.
func CreateBooking(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	deviceType := strings.TrimSpace(c.PostForm("device_type"))
	issue := strings.TrimSpace(c.PostForm("issue"))
	customDescription := strings.TrimSpace(c.PostForm("custom_issue_description"))
	preferredTime := strings.TrimSpace(c.PostForm("preferred_time"))
	address := strings.TrimSpace(c.PostForm("address"))
	deviceModel := strings.TrimSpace(c.PostForm("device_model"))

	if deviceType == "" || issue == "" || preferredTime == "" || address == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "Missing required fields")
		return
	}
	if issue == "other" && customDescription == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "Custom issue description is required")
		return
	}

	var photoKey *string
	if fileHeader, err := c.FormFile("photo"); err == nil {
		photoService := services.GetPhotoService()
		if photoService == nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Photo storage is not available")
			return
		}
		key, err := photoService.StorePhoto(fileHeader)
		if err != nil {
			var uploadErr *utils.FileUploadError
			if errors.As(err, &uploadErr) {
				utils.RespondWithError(c, http.StatusBadRequest, uploadErr.Message)
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Failed to store photo")
			}
			return
		}
		photoKey = &key
	}

	booking := models.Booking{
		CustomerID:             userID,
		DeviceType:             deviceType,
		Issue:                  issue,
		CustomIssueDescription: customDescription,
		PreferredTime:          preferredTime,
		Address:                address,
		DeviceModel:            deviceModel,
		PhotoKey:               photoKey,
		Status:                 models.StatusPending,
		TechnicianID:           nil,
	}

	db := config.GetDB()
	if err := insertBooking(db, &booking); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create booking")
		return
	}

	if err := db.Preload("Customer").First(&booking, booking.ID).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load booking details")
		return
	}
	attachPhotoURL(&booking)

	if notifier := services.GetNotifier(); notifier != nil {
		if err := notifier.BookingCreated(&booking, &booking.Customer); err != nil {
			log.Printf("Booking %s: confirmation notification failed: %v", booking.BookingID, err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Booking created successfully",
		"data":    booking,
	})
}

// ListMyBookings handles GET /api/v1/bookings. The owning-customer filter is
// applied in the query itself; no other customer's booking can appear.
func ListMyBookings(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	db := config.GetDB()
	var bookings []models.Booking
	if err := db.Preload("Technician").
		Where("customer_id = ?", userID).
		Order("created_at DESC").
		Find(&bookings).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch bookings")
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

// GetBooking handles GET /api/v1/bookings/:id. Visible to the owning customer,
// the assigned technician and admins; everyone else gets a 404 so existence is
// not leaked. Anonymous tracking lives at /track/:bookingId instead.
func GetBooking(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	role, _ := middleware.GetUserRole(c)

	db := config.GetDB()
	booking, err := findBooking(db, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Booking not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch booking")
		}
		return
	}

	isOwner := booking.CustomerID == userID
	isAssignedTechnician := booking.TechnicianID != nil && *booking.TechnicianID == userID
	if !isOwner && !isAssignedTechnician && role != models.RoleAdmin {
		utils.RespondWithError(c, http.StatusNotFound, "Booking not found")
		return
	}

	attachPhotoURL(booking)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    booking,
	})
}

// trackingStep is one entry of the status-derived tracking timeline
type trackingStep struct {
	Step      int    `json:"step"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// buildTimeline derives the customer-facing progress steps from the booking
// state. Progress follows status, not wall-clock time.
func buildTimeline(booking *models.Booking) []trackingStep {
	claimed := booking.TechnicianID != nil
	inProgress := booking.Status == models.StatusInProgress || booking.Status == models.StatusCompleted
	completed := booking.Status == models.StatusCompleted

	return []trackingStep{
		{Step: 1, Title: "Booking Confirmed", Completed: true},
		{Step: 2, Title: "Technician Assigned", Completed: claimed},
		{Step: 3, Title: "Repair in Progress", Completed: inProgress},
		{Step: 4, Title: "Repair Completed", Completed: completed},
	}
}

// TrackBooking handles GET /api/v1/track/:bookingId. Public by design: the
// tracking page must work before login, keyed only by the booking code.
func TrackBooking(c *gin.Context) {
	code := c.Param("bookingId")

	db := config.GetDB()
	var booking models.Booking
	err := db.Preload("Technician").Where("booking_id = ?", code).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Booking not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch booking")
		}
		return
	}

	technicianName := ""
	if booking.Technician != nil {
		technicianName = booking.Technician.FullName()
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"booking_id":     booking.BookingID,
			"device_type":    booking.DeviceType,
			"issue":          booking.Issue,
			"status":         booking.Status,
			"preferred_time": booking.PreferredTime,
			"technician":     technicianName,
			"created_at":     booking.CreatedAt,
			"timeline":       buildTimeline(&booking),
		},
	})
}

// DeleteBooking handles DELETE /api/v1/bookings/:id. Owner only; a non-owner
// gets the same 404 as a missing booking. The delete is permanent.
func DeleteBooking(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	db := config.GetDB()
	booking, err := findBooking(db, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Booking not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch booking")
		}
		return
	}
	if booking.CustomerID != userID {
		utils.RespondWithError(c, http.StatusNotFound, "Booking not found")
		return
	}

	if err := db.Delete(&models.Booking{}, booking.ID).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete booking")
		return
	}

	if booking.PhotoKey != nil {
		if svc := services.GetPhotoService(); svc != nil {
			if err := svc.RemovePhoto(*booking.PhotoKey); err != nil {
				log.Printf("Booking %s: failed to delete photo: %v", booking.BookingID, err)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Booking deleted successfully",
	})
}

// AcceptBooking handles POST /api/v1/bookings/:id/accept (technicians only).
// The transition is a conditional update keyed on status = pending, so two
// concurrent claims cannot both win; the loser observes a conflict.
func AcceptBooking(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	db := config.GetDB()
	booking, err := findBooking(db, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Booking not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch booking")
		}
		return
	}

	result := db.Model(&models.Booking{}).
		Where("id = ? AND status = ?", booking.ID, models.StatusPending).
		Updates(map[string]interface{}{
			"status":        models.StatusInProgress,
			"technician_id": userID,
		})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to accept booking")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusConflict, "Booking already taken")
		return
	}

	if err := db.Preload("Customer").Preload("Technician").First(booking, booking.ID).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load booking details")
		return
	}
	attachPhotoURL(booking)

	if notifier := services.GetNotifier(); notifier != nil && booking.Technician != nil {
		if err := notifier.BookingAccepted(booking, &booking.Customer, booking.Technician); err != nil {
			log.Printf("Booking %s: acceptance notification failed: %v", booking.BookingID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Booking accepted",
		"data":    booking,
	})
}

// CompleteBooking handles POST /api/v1/bookings/:id/complete. Only the
// assigned technician may finish a job, and only from in-progress.
func CompleteBooking(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	db := config.GetDB()
	booking, err := findBooking(db, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Booking not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch booking")
		}
		return
	}

	if booking.TechnicianID == nil || *booking.TechnicianID != userID {
		utils.RespondWithError(c, http.StatusForbidden, "Only the assigned technician can complete this booking")
		return
	}

	result := db.Model(&models.Booking{}).
		Where("id = ? AND status = ? AND technician_id = ?", booking.ID, models.StatusInProgress, userID).
		Update("status", models.StatusCompleted)
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to complete booking")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusConflict, "Booking is not in progress")
		return
	}

	if err := db.Preload("Customer").Preload("Technician").First(booking, booking.ID).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load booking details")
		return
	}
	attachPhotoURL(booking)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Booking completed",
		"data":    booking,
	})
}

// CleanupData handles POST /api/v1/admin/cleanup-data (admins only): removes
// bookings whose owning customer no longer exists.
func CleanupData(c *gin.Context) {
	db := config.GetDB()

	var orphaned []models.Booking
	if err := db.Where("customer_id NOT IN (?)",
		db.Model(&models.User{}).Select("id")).Find(&orphaned).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to cleanup data")
		return
	}

	if len(orphaned) > 0 {
		ids := make([]uint, 0, len(orphaned))
		for _, b := range orphaned {
			ids = append(ids, b.ID)
		}
		if err := db.Delete(&models.Booking{}, ids).Error; err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to cleanup data")
			return
		}
	}

	var remaining int64
	if err := db.Model(&models.Booking{}).Count(&remaining).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to cleanup data")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Data cleanup completed",
		"data": gin.H{
			"removed_bookings":   len(orphaned),
			"remaining_bookings": remaining,
		},
	})
}
