package handlers

import (
	"database/sql"

	"github.com/radsonline/marketplace-golang/internal/email"
	"github.com/radsonline/marketplace-golang/internal/otp"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	DB    *sql.DB      // MySQL connection pool
	OTP   otp.Store    // Password-reset codes (put-with-expiry/get/delete)
	Email email.Sender // OTP dispatch collaborator
}
