package controllers

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rahulhiremath15/serva-mvp/config"
	"github.com/rahulhiremath15/serva-mvp/middleware"
	"github.com/rahulhiremath15/serva-mvp/models"
	"github.com/rahulhiremath15/serva-mvp/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupControllerTest gives each test a fresh in-memory database and resets
// the global service instances.
func setupControllerTest(t *testing.T) *gorm.DB {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Booking{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	// A second pool connection would see its own empty :memory: database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	config.SetDB(db)
	config.SetConfig(&config.Config{JWTSecret: "test-secret", GoEnv: "test"})

	services.NewMockPhotoService().SetAsMockForTesting()
	services.SetNotifier(nil)
	services.SetDiagnosisService(nil)

	return db
}

var testUserSeq int

// createTestUser inserts an active user. The stored password is not a real
// hash; tests that exercise login use createTestUserWithPassword instead.
func createTestUser(t *testing.T, db *gorm.DB, role string) *models.User {
	t.Helper()
	testUserSeq++
	user := models.User{
		Email:     fmt.Sprintf("%s%d@example.com", role, testUserSeq),
		Password:  "not-a-real-hash",
		FirstName: "Test",
		LastName:  fmt.Sprintf("%s%d", role, testUserSeq),
		Phone:     "+14155550100",
		Role:      role,
		IsActive:  true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return &user
}

func tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := services.IssueToken(user)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return "Bearer " + token
}

// createTestBooking inserts a booking owned by customer with sensible defaults
func createTestBooking(t *testing.T, db *gorm.DB, customer *models.User) *models.Booking {
	t.Helper()
	booking := models.Booking{
		CustomerID:    customer.ID,
		DeviceType:    "smartphone",
		Issue:         "screen",
		PreferredTime: "tomorrow morning",
		Address:       "42 Test Lane",
		DeviceModel:   "Pixel 8",
		Status:        models.StatusPending,
	}
	if err := db.Create(&booking).Error; err != nil {
		t.Fatalf("Failed to create test booking: %v", err)
	}
	return &booking
}

// bookingRouter wires the booking and technician routes the way the real
// router does, minus the global middleware that tests do not exercise.
func bookingRouter() *gin.Engine {
	r := gin.New()
	v1 := r.Group("/api/v1")

	bookings := v1.Group("/bookings")
	bookings.POST("", middleware.RequireAuth(), middleware.RequireRole(models.RoleCustomer), CreateBooking)
	bookings.GET("", middleware.RequireAuth(), ListMyBookings)
	bookings.GET("/:id", middleware.RequireAuth(), GetBooking)
	bookings.DELETE("/:id", middleware.RequireAuth(), DeleteBooking)
	bookings.POST("/:id/accept", middleware.RequireAuth(), middleware.RequireRole(models.RoleTechnician), AcceptBooking)
	bookings.POST("/:id/complete", middleware.RequireAuth(), middleware.RequireRole(models.RoleTechnician), CompleteBooking)
	bookings.GET("/:id/certificate", GetCertificate)

	v1.GET("/track/:bookingId", TrackBooking)
	v1.GET("/warranty/:token", GetCertificateByToken)

	technician := v1.Group("/technician")
	technician.Use(middleware.RequireAuth(), middleware.RequireRole(models.RoleTechnician))
	technician.GET("/available-jobs", AvailableJobs)
	technician.GET("/my-jobs", MyJobs)

	admin := v1.Group("/admin")
	admin.Use(middleware.RequireAuth(), middleware.RequireRole(models.RoleAdmin))
	admin.POST("/cleanup-data", CleanupData)

	return r
}

func authRouter() *gin.Engine {
	r := gin.New()
	auth := r.Group("/api/v1/auth")
	auth.POST("/register", Register)
	auth.POST("/login", Login)
	auth.POST("/logout", Logout)
	auth.GET("/me", middleware.RequireAuth(), Me)
	auth.PUT("/profile", middleware.RequireAuth(), UpdateProfile)
	auth.POST("/change-password", middleware.RequireAuth(), ChangePassword)
	return r
}

// performRequest runs a request through router and returns the recorder
func performRequest(router *gin.Engine, method, path, authHeader string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req, _ = http.NewRequest(method, path, body)
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// bookingForm builds a multipart body from fields, optionally attaching a
// photo part under the given filename.
func bookingForm(t *testing.T, fields map[string]string, photoFilename string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("Failed to write form field: %v", err)
		}
	}
	if photoFilename != "" {
		part, err := writer.CreateFormFile("photo", photoFilename)
		if err != nil {
			t.Fatalf("Failed to create photo part: %v", err)
		}
		part.Write([]byte("fake-image-bytes"))
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close form writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func validBookingFields() map[string]string {
	return map[string]string{
		"device_type":    "smartphone",
		"issue":          "screen",
		"preferred_time": "tomorrow morning",
		"address":        "42 Test Lane",
		"device_model":   "Pixel 8",
	}
}

// recordingNotifier captures notification calls for assertions
type recordingNotifier struct {
	created  []string
	accepted []string
	reminded []string
	fail     bool
}

func (n *recordingNotifier) BookingCreated(booking *models.Booking, customer *models.User) error {
	n.created = append(n.created, booking.BookingID)
	if n.fail {
		return fmt.Errorf("delivery failed")
	}
	return nil
}

func (n *recordingNotifier) BookingAccepted(booking *models.Booking, customer *models.User, technician *models.User) error {
	n.accepted = append(n.accepted, booking.BookingID)
	if n.fail {
		return fmt.Errorf("delivery failed")
	}
	return nil
}

func (n *recordingNotifier) PendingReminder(booking *models.Booking, customer *models.User) error {
	n.reminded = append(n.reminded, booking.BookingID)
	if n.fail {
		return fmt.Errorf("delivery failed")
	}
	return nil
}
