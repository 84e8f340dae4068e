package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rahulhiremath15/serva-mvp/config"
	"github.com/rahulhiremath15/serva-mvp/middleware"
	"github.com/rahulhiremath15/serva-mvp/models"
	"github.com/rahulhiremath15/serva-mvp/services"
	"github.com/rahulhiremath15/serva-mvp/utils"
	"gorm.io/gorm"
)

// RegisterRequest represents the request body for user registration
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// validateRegistration applies the registration input rules and collects
// every violation rather than stopping at the first.
func validateRegistration(req *RegisterRequest) []string {
	var errs []string

	if !utils.ValidateEmail(req.Email) {
		errs = append(errs, "Valid email is required")
	}
	if !utils.ValidatePasswordStrength(req.Password) {
		errs = append(errs, "Password must be at least 6 characters long and contain an uppercase letter, a lowercase letter, and a number")
	}
	if len(strings.TrimSpace(req.FirstName)) < 2 {
		errs = append(errs, "First name must be at least 2 characters long")
	}
	if len(strings.TrimSpace(req.LastName)) < 2 {
		errs = append(errs, "Last name must be at least 2 characters long")
	}
	if req.Phone != "" && !utils.ValidatePhone(req.Phone) {
		errs = append(errs, "Phone number is invalid")
	}
	if req.Role != "" && req.Role != models.RoleCustomer && req.Role != models.RoleTechnician {
		// Admin accounts are provisioned out of band, never self-assigned
		errs = append(errs, "Role must be customer or technician")
	}

	return errs
}

// userResponse is the account shape returned by auth endpoints
func userResponse(u *models.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"email":      u.Email,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"phone":      u.Phone,
		"role":       u.Role,
		"created_at": u.CreatedAt,
	}
}

// Register handles POST /api/v1/auth/register
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := validateRegistration(&req); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Validation failed",
			"errors":  errs,
		})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	db := config.GetDB()
	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		utils.RespondWithError(c, http.StatusConflict, "User already exists with this email")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Internal server error during registration")
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Internal server error during registration")
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleCustomer
	}

	user := models.User{
		Email:     email,
		Password:  hashed,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     strings.TrimSpace(req.Phone),
		Role:      role,
		IsActive:  true,
	}

	if err := db.Create(&user).Error; err != nil {
		// The existence pre-check races with concurrent registrations; the
		// unique index on email is the authoritative arbiter.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.RespondWithError(c, http.StatusConflict, "User already exists with this email")
			return
		}
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	token, err := services.IssueToken(&user)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
		"data": gin.H{
			"user":  userResponse(&user),
			"token": token,
		},
	})
}

// Login handles POST /api/v1/auth/login
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	var errs []string
	if !utils.ValidateEmail(req.Email) {
		errs = append(errs, "Valid email is required")
	}
	if strings.TrimSpace(req.Password) == "" {
		errs = append(errs, "Password is required")
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Validation failed",
			"errors":  errs,
		})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	db := config.GetDB()
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusUnauthorized, "Invalid email or password")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Internal server error during login")
		}
		return
	}

	if !user.IsActive {
		utils.RespondWithError(c, http.StatusUnauthorized, "Account is deactivated. Please contact support.")
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := services.IssueToken(&user)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"data": gin.H{
			"user":  userResponse(&user),
			"token": token,
		},
	})
}

// Logout handles POST /api/v1/auth/logout. Tokens are stateless; the client
// discards its copy.
func Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logout successful",
	})
}

// Me handles GET /api/v1/auth/me
func Me(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	db := config.GetDB()
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusForbidden, "User account not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"user": userResponse(&user),
		},
	})
}

// UpdateProfileRequest represents the request body for profile updates
type UpdateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// UpdateProfile handles PUT /api/v1/auth/profile
func UpdateProfile(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	var errs []string
	if req.FirstName != "" && len(strings.TrimSpace(req.FirstName)) < 2 {
		errs = append(errs, "First name must be at least 2 characters long")
	}
	if req.LastName != "" && len(strings.TrimSpace(req.LastName)) < 2 {
		errs = append(errs, "Last name must be at least 2 characters long")
	}
	if req.Phone != "" && !utils.ValidatePhone(req.Phone) {
		errs = append(errs, "Phone number is invalid")
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Validation failed",
			"errors":  errs,
		})
		return
	}

	updates := map[string]interface{}{}
	if req.FirstName != "" {
		updates["first_name"] = strings.TrimSpace(req.FirstName)
	}
	if req.LastName != "" {
		updates["last_name"] = strings.TrimSpace(req.LastName)
	}
	if req.Phone != "" {
		updates["phone"] = strings.TrimSpace(req.Phone)
	}

	db := config.GetDB()
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusForbidden, "User account not found")
		return
	}

	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update profile")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Profile updated successfully",
		"data": gin.H{
			"user": userResponse(&user),
		},
	})
}

// ChangePasswordRequest represents the request body for password changes
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword handles POST /api/v1/auth/change-password
func ChangePassword(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	var errs []string
	if req.CurrentPassword == "" {
		errs = append(errs, "Current password is required")
	}
	if !utils.ValidatePasswordStrength(req.NewPassword) {
		errs = append(errs, "New password must be at least 6 characters long and contain an uppercase letter, a lowercase letter, and a number")
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Validation failed",
			"errors":  errs,
		})
		return
	}

	db := config.GetDB()
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "User not found")
		return
	}

	if !utils.CheckPasswordHash(req.CurrentPassword, user.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Current password is incorrect")
		return
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update password")
		return
	}

	if err := db.Model(&user).Update("password", hashed).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update password")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Password changed successfully",
	})
}
