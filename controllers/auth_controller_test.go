package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/rahulhiremath15/serva-mvp/models"
	"github.com/rahulhiremath15/serva-mvp/utils"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func jsonBody(t *testing.T, payload interface{}) *bytes.Buffer {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}
	return bytes.NewBuffer(raw)
}

func parseResponse(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	return response
}

// createTestUserWithPassword stores a real bcrypt hash so login can verify it
func createTestUserWithPassword(t *testing.T, db *gorm.DB, email, password, role string) *models.User {
	t.Helper()
	hashed, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := models.User{
		Email:     email,
		Password:  hashed,
		FirstName: "Test",
		LastName:  "User",
		Role:      role,
		IsActive:  true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return &user
}

func TestRegisterSuccess(t *testing.T) {
	db := setupControllerTest(t)
	router := authRouter()

	body := jsonBody(t, map[string]string{
		"email":      "New.Customer@Example.COM",
		"password":   "Secret1",
		"first_name": "New",
		"last_name":  "Customer",
		"phone":      "+14155550123",
	})
	w := performRequest(router, "POST", "/api/v1/auth/register", "", body, "application/json")

	assert.Equal(t, http.StatusCreated, w.Code)
	response := parseResponse(t, w.Body.Bytes())
	assert.Equal(t, true, response["success"])

	data := response["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])

	user := data["user"].(map[string]interface{})
	assert.Equal(t, "new.customer@example.com", user["email"])
	assert.Equal(t, models.RoleCustomer, user["role"])
	assert.NotContains(t, user, "password")

	// Stored password must be a hash, never the plaintext
	var stored models.User
	assert.NoError(t, db.Where("email = ?", "new.customer@example.com").First(&stored).Error)
	assert.NotEqual(t, "Secret1", stored.Password)
	assert.True(t, utils.CheckPasswordHash("Secret1", stored.Password))
}

func TestRegisterAsTechnician(t *testing.T) {
	setupControllerTest(t)
	router := authRouter()

	body := jsonBody(t, map[string]string{
		"email":      "tech@example.com",
		"password":   "Secret1",
		"first_name": "Tech",
		"last_name":  "Nician",
		"role":       models.RoleTechnician,
	})
	w := performRequest(router, "POST", "/api/v1/auth/register", "", body, "application/json")

	assert.Equal(t, http.StatusCreated, w.Code)
	response := parseResponse(t, w.Body.Bytes())
	user := response["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, models.RoleTechnician, user["role"])
}

func TestRegisterValidation(t *testing.T) {
	setupControllerTest(t)
	router := authRouter()

	tests := []struct {
		name    string
		payload map[string]string
	}{
		{
			name: "invalid email",
			payload: map[string]string{
				"email": "not-an-email", "password": "Secret1",
				"first_name": "Test", "last_name": "User",
			},
		},
		{
			name: "weak password",
			payload: map[string]string{
				"email": "a@example.com", "password": "weak",
				"first_name": "Test", "last_name": "User",
			},
		},
		{
			name: "short first name",
			payload: map[string]string{
				"email": "a@example.com", "password": "Secret1",
				"first_name": "A", "last_name": "User",
			},
		},
		{
			name: "admin role rejected",
			payload: map[string]string{
				"email": "a@example.com", "password": "Secret1",
				"first_name": "Test", "last_name": "User", "role": models.RoleAdmin,
			},
		},
		{
			name: "invalid phone",
			payload: map[string]string{
				"email": "a@example.com", "password": "Secret1",
				"first_name": "Test", "last_name": "User", "phone": "123",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, "POST", "/api/v1/auth/register", "", jsonBody(t, tt.payload), "application/json")
			assert.Equal(t, http.StatusBadRequest, w.Code)

			response := parseResponse(t, w.Body.Bytes())
			assert.Equal(t, false, response["success"])
			assert.Equal(t, "Validation failed", response["message"])
			assert.NotEmpty(t, response["errors"])
		})
	}
}

func TestRegisterCollectsAllValidationErrors(t *testing.T) {
	setupControllerTest(t)
	router := authRouter()

	body := jsonBody(t, map[string]string{
		"email":    "bad",
		"password": "bad",
	})
	w := performRequest(router, "POST", "/api/v1/auth/register", "", body, "application/json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := parseResponse(t, w.Body.Bytes())
	errs := response["errors"].([]interface{})
	assert.GreaterOrEqual(t, len(errs), 4)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := setupControllerTest(t)
	createTestUserWithPassword(t, db, "taken@example.com", "Secret1", models.RoleCustomer)
	router := authRouter()

	body := jsonBody(t, map[string]string{
		"email": "TAKEN@example.com", "password": "Secret1",
		"first_name": "Dup", "last_name": "User",
	})
	w := performRequest(router, "POST", "/api/v1/auth/register", "", body, "application/json")

	assert.Equal(t, http.StatusConflict, w.Code)
	response := parseResponse(t, w.Body.Bytes())
	assert.Equal(t, "User already exists with this email", response["message"])
}

func TestRegisterDuplicateEmailBypassingPrecheck(t *testing.T) {
	db := setupControllerTest(t)
	existing := createTestUserWithPassword(t, db, "taken@example.com", "Secret1", models.RoleCustomer)

	// A soft-deleted account is invisible to the existence pre-check but still
	// holds the unique index, the same way a concurrent registration would
	// between the check and the insert.
	assert.NoError(t, db.Delete(existing).Error)

	router := authRouter()
	body := jsonBody(t, map[string]string{
		"email": "taken@example.com", "password": "Secret1",
		"first_name": "Race", "last_name": "Loser",
	})
	w := performRequest(router, "POST", "/api/v1/auth/register", "", body, "application/json")

	assert.Equal(t, http.StatusConflict, w.Code)
	response := parseResponse(t, w.Body.Bytes())
	assert.Equal(t, "User already exists with this email", response["message"])
}

func TestLoginSuccess(t *testing.T) {
	db := setupControllerTest(t)
	createTestUserWithPassword(t, db, "login@example.com", "Secret1", models.RoleCustomer)
	router := authRouter()

	body := jsonBody(t, map[string]string{"email": "Login@Example.com", "password": "Secret1"})
	w := performRequest(router, "POST", "/api/v1/auth/login", "", body, "application/json")

	assert.Equal(t, http.StatusOK, w.Code)
	response := parseResponse(t, w.Body.Bytes())
	data := response["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])
	assert.Equal(t, "login@example.com", data["user"].(map[string]interface{})["email"])
}

func TestLoginFailures(t *testing.T) {
	db := setupControllerTest(t)
	createTestUserWithPassword(t, db, "login@example.com", "Secret1", models.RoleCustomer)

	inactive := createTestUserWithPassword(t, db, "inactive@example.com", "Secret1", models.RoleCustomer)
	assert.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	router := authRouter()

	tests := []struct {
		name            string
		email           string
		password        string
		expectedStatus  int
		expectedMessage string
	}{
		{
			name:  "unknown email",
			email: "nobody@example.com", password: "Secret1",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Invalid email or password",
		},
		{
			name:  "wrong password",
			email: "login@example.com", password: "Wrong1password",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Invalid email or password",
		},
		{
			name:  "deactivated account",
			email: "inactive@example.com", password: "Secret1",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Account is deactivated. Please contact support.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := jsonBody(t, map[string]string{"email": tt.email, "password": tt.password})
			w := performRequest(router, "POST", "/api/v1/auth/login", "", body, "application/json")

			assert.Equal(t, tt.expectedStatus, w.Code)
			response := parseResponse(t, w.Body.Bytes())
			assert.Equal(t, false, response["success"])
			assert.Equal(t, tt.expectedMessage, response["message"])
		})
	}
}

func TestLoginValidation(t *testing.T) {
	setupControllerTest(t)
	router := authRouter()

	body := jsonBody(t, map[string]string{"email": "bad", "password": ""})
	w := performRequest(router, "POST", "/api/v1/auth/login", "", body, "application/json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := parseResponse(t, w.Body.Bytes())
	assert.Equal(t, "Validation failed", response["message"])
	assert.Len(t, response["errors"], 2)
}

func TestMe(t *testing.T) {
	db := setupControllerTest(t)
	user := createTestUser(t, db, models.RoleCustomer)
	router := authRouter()

	w := performRequest(router, "GET", "/api/v1/auth/me", tokenFor(t, user), nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	response := parseResponse(t, w.Body.Bytes())
	me := response["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, user.Email, me["email"])
	assert.Equal(t, float64(user.ID), me["id"])
}

func TestMeRequiresAuth(t *testing.T) {
	setupControllerTest(t)
	router := authRouter()

	w := performRequest(router, "GET", "/api/v1/auth/me", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	db := setupControllerTest(t)
	user := createTestUser(t, db, models.RoleCustomer)
	router := authRouter()

	body := jsonBody(t, map[string]string{"first_name": "Updated", "phone": "+14155550199"})
	w := performRequest(router, "PUT", "/api/v1/auth/profile", tokenFor(t, user), body, "application/json")

	assert.Equal(t, http.StatusOK, w.Code)

	var stored models.User
	assert.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, "Updated", stored.FirstName)
	assert.Equal(t, "+14155550199", stored.Phone)
	assert.Equal(t, user.LastName, stored.LastName)
}

func TestUpdateProfileValidation(t *testing.T) {
	db := setupControllerTest(t)
	user := createTestUser(t, db, models.RoleCustomer)
	router := authRouter()

	body := jsonBody(t, map[string]string{"first_name": "X", "phone": "nope"})
	w := performRequest(router, "PUT", "/api/v1/auth/profile", tokenFor(t, user), body, "application/json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := parseResponse(t, w.Body.Bytes())
	assert.Len(t, response["errors"], 2)
}

func TestChangePassword(t *testing.T) {
	db := setupControllerTest(t)
	user := createTestUserWithPassword(t, db, "pw@example.com", "OldSecret1", models.RoleCustomer)
	router := authRouter()

	body := jsonBody(t, map[string]string{
		"current_password": "OldSecret1",
		"new_password":     "NewSecret1",
	})
	w := performRequest(router, "POST", "/api/v1/auth/change-password", tokenFor(t, user), body, "application/json")

	assert.Equal(t, http.StatusOK, w.Code)

	var stored models.User
	assert.NoError(t, db.First(&stored, user.ID).Error)
	assert.True(t, utils.CheckPasswordHash("NewSecret1", stored.Password))
	assert.False(t, utils.CheckPasswordHash("OldSecret1", stored.Password))
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	db := setupControllerTest(t)
	user := createTestUserWithPassword(t, db, "pw@example.com", "OldSecret1", models.RoleCustomer)
	router := authRouter()

	body := jsonBody(t, map[string]string{
		"current_password": "NotTheOne1",
		"new_password":     "NewSecret1",
	})
	w := performRequest(router, "POST", "/api/v1/auth/change-password", tokenFor(t, user), body, "application/json")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	response := parseResponse(t, w.Body.Bytes())
	assert.Equal(t, "Current password is incorrect", response["message"])
}

func TestLogout(t *testing.T) {
	setupControllerTest(t)
	router := authRouter()

	w := performRequest(router, "POST", "/api/v1/auth/logout", "", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	response := parseResponse(t, w.Body.Bytes())
	assert.Equal(t, true, response["success"])
}
