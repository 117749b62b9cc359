package handlers

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/radsonline/marketplace-golang/internal/auth"
	"github.com/radsonline/marketplace-golang/internal/models"
)

// --- User Registration ---

// RegisterInput defines the expected JSON data for registration.
// ADMIN is deliberately absent from the role whitelist; admin accounts
// are created by the seed, never through the API.
type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role" binding:"omitempty,oneof=SELLER CUSTOMER"`
}

// Register is the handler for POST /api/auth/register.
func (h *Handlers) Register(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Check for Existing Email ---
	var existingID int64
	err := h.DB.QueryRow("SELECT id FROM users WHERE email = ?", input.Email).Scan(&existingID)
	if err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
		return
	}
	if err != sql.ErrNoRows {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	// 3. --- Create User Model ---
	user := &models.User{
		Email:     input.Email,
		Name:      input.Name,
		Role:      input.Role,
		CreatedAt: time.Now(),
	}
	if user.Role == "" {
		user.Role = models.RoleCustomer
	}

	// 4. --- Hash the Password ---
	var password models.Password
	if err := password.Set(input.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	user.PasswordHash = password.Hash

	// 5. --- Save to Database ---
	query := `
		INSERT INTO users (email, password_hash, name, role, created_at)
		VALUES (?, ?, ?, ?, ?)`

	result, err := h.DB.Exec(query, user.Email, user.PasswordHash, user.Name, user.Role, user.CreatedAt)
	if err != nil {
		log.Printf("ERROR: failed to insert user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating user"})
		return
	}
	id, err := result.LastInsertId()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get new user ID"})
		return
	}
	user.ID = id

	// 6. --- Generate JWT ---
	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	// 7. --- Send Success Response ---
	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"token":   token,
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
	})
}

// --- User Login ---

// LoginInput defines the JSON data expected for a login.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /api/auth/login.
// Unknown email and wrong password both answer with the same 401 so the
// endpoint cannot be used to enumerate accounts.
func (h *Handlers) Login(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Find User By Email ---
	var user models.User
	query := "SELECT id, email, password_hash, name, role FROM users WHERE email = ?"
	err := h.DB.QueryRow(query, input.Email).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Role,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	// 3. --- Check Password ---
	var password models.Password
	password.Hash = user.PasswordHash

	match, err := password.Matches(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check password"})
		return
	}
	if !match {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// 4. --- Generate JWT ---
	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	// 5. --- Send Success Response ---
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
	})
}

// --- Password Reset (OTP flow) ---

// forgotPasswordMessage is returned whether or not the email exists, so the
// endpoint discloses nothing (login and forgot-password share one policy).
const forgotPasswordMessage = "If that email is registered, a reset code has been sent"

// ForgotPasswordInput defines the JSON data for requesting a reset code.
type ForgotPasswordInput struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword is the handler for POST /api/auth/forgot-password.
func (h *Handlers) ForgotPassword(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input ForgotPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Find User By Email ---
	var userID int64
	err := h.DB.QueryRow("SELECT id FROM users WHERE email = ?", input.Email).Scan(&userID)
	if err != nil {
		if err == sql.ErrNoRows {
			// Same body as the success path; nothing stored, nothing sent.
			c.JSON(http.StatusOK, gin.H{"message": forgotPasswordMessage})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	// 3. --- Generate & Store OTP ---
	code, err := generateOTPCode()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate reset code"})
		return
	}
	h.OTP.Put(input.Email, code)

	// 4. --- Dispatch OTP Email ---
	if err := h.Email.SendOTP(input.Email, code); err != nil {
		log.Printf("ERROR: failed to send OTP email to %s: %v", input.Email, err)
		h.OTP.Delete(input.Email)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error sending OTP"})
		return
	}

	// 5. --- Send Success Response ---
	c.JSON(http.StatusOK, gin.H{"message": forgotPasswordMessage})
}

// VerifyOTPInput defines the JSON data for verifying a reset code.
type VerifyOTPInput struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required"`
}

// VerifyOTP is the handler for POST /api/auth/verify-otp. A successful
// verification consumes the code: a second attempt with the same code fails.
func (h *Handlers) VerifyOTP(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input VerifyOTPInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Check Stored Code ---
	code, ok := h.OTP.Get(input.Email)
	if !ok || code != input.OTP {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired OTP"})
		return
	}
	h.OTP.Delete(input.Email)

	// 3. --- Issue Reset Token ---
	resetToken, err := auth.GenerateResetToken(input.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate reset token"})
		return
	}

	// 4. --- Send Success Response ---
	c.JSON(http.StatusOK, gin.H{
		"message":    "OTP verified successfully",
		"resetToken": resetToken,
	})
}

// ResetPasswordInput defines the JSON data for completing a reset.
type ResetPasswordInput struct {
	ResetToken  string `json:"resetToken" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// ResetPassword is the handler for POST /api/auth/reset-password.
func (h *Handlers) ResetPassword(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input ResetPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Validate Reset Token ---
	email, err := auth.ValidateResetToken(input.ResetToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired reset token"})
		return
	}

	// 3. --- Hash the New Password ---
	var password models.Password
	if err := password.Set(input.NewPassword); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	// 4. --- Rewrite the Stored Hash ---
	result, err := h.DB.Exec("UPDATE users SET password_hash = ? WHERE email = ?", password.Hash, email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error resetting password"})
		return
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check affected rows"})
		return
	}
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	// 5. --- Clear Any Remaining OTP Entry ---
	h.OTP.Delete(email)

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

// generateOTPCode creates a 6-digit numeric code (100000-999999).
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", 100000+n.Int64()), nil
}
