package auth

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// secretKey resolves the signing secret on every use, so a JWT_SECRET set
// after startup (godotenv loads the .env file from main) is still honored.
// The fallback keeps local development working without a .env file; never
// deploy with it.
func secretKey() []byte {
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("A_VERY_SECURE_SECRET_KEY_REPLACE_LATER")
}

// Session tokens last 24 hours; reset tokens are short-lived and scoped to
// a single email via the "purpose" claim.
const (
	sessionTokenTTL = 24 * time.Hour
	resetTokenTTL   = 15 * time.Minute

	resetPurpose = "password_reset"
)

// GenerateToken creates a session JWT carrying the user ID and role.
func GenerateToken(userID int64, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(sessionTokenTTL).Unix(),
		"iat":  time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// ValidateToken parses a session token and returns the user ID and role.
func ValidateToken(tokenString string) (int64, string, error) {
	claims, err := parseClaims(tokenString)
	if err != nil {
		return 0, "", err
	}

	// A reset token must never pass as a session token.
	if purpose, _ := claims["purpose"].(string); purpose != "" {
		return 0, "", errors.New("not a session token")
	}

	userIDFloat, ok := claims["sub"].(float64)
	if !ok {
		return 0, "", errors.New("invalid subject claim")
	}
	role, ok := claims["role"].(string)
	if !ok {
		return 0, "", errors.New("invalid role claim")
	}
	return int64(userIDFloat), role, nil
}

// GenerateResetToken creates a short-lived token that only authorizes a
// password reset for the given email.
func GenerateResetToken(email string) (string, error) {
	claims := jwt.MapClaims{
		"sub":     email,
		"purpose": resetPurpose,
		"jti":     uuid.NewString(),
		"exp":     time.Now().Add(resetTokenTTL).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// ValidateResetToken parses a reset token and returns the email it is
// scoped to.
func ValidateResetToken(tokenString string) (string, error) {
	claims, err := parseClaims(tokenString)
	if err != nil {
		return "", err
	}

	if purpose, _ := claims["purpose"].(string); purpose != resetPurpose {
		return "", errors.New("not a password reset token")
	}

	email, ok := claims["sub"].(string)
	if !ok || email == "" {
		return "", errors.New("invalid subject claim")
	}
	return email, nil
}

// parseClaims validates the signature and expiry and returns the claims.
func parseClaims(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey(), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
