package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/radsonline/marketplace-golang/internal/database"
	"github.com/radsonline/marketplace-golang/internal/email"
	"github.com/radsonline/marketplace-golang/internal/handlers"
	"github.com/radsonline/marketplace-golang/internal/otp"
	"github.com/radsonline/marketplace-golang/internal/routes"
)

func main() {
	// --- Load Environment Variables (.env) ---
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	// --- Database Connection ---
	db, err := database.OpenDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// --- Application Setup ---
	// All dependencies are injected into the Handlers struct: the DB pool,
	// the OTP store, and the email collaborator for reset codes.
	app := &handlers.Handlers{
		DB:    db,
		OTP:   otp.NewMemoryStore(),
		Email: email.NewSenderFromEnv(),
	}

	// --- Router Setup ---
	router := routes.SetupRouter(app)

	// --- Start Server ---
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	log.Printf("Starting marketplace API server on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
