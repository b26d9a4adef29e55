package main

import (
	"log"
	"os"

	"gridtalk/internal/db"
	"gridtalk/internal/middleware"
	"gridtalk/internal/router"
	"gridtalk/internal/services"
	"gridtalk/internal/store"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	// Initialize Database
	db.Init()

	st := store.New(db.DB)

	// 启动过期分区清理服务
	services.GetRetentionService().Start()

	// Initialize Gin
	r := gin.Default()

	// Setup Sessions
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		secret = "secret_key_change_me"
	}
	sessionStore := cookie.NewStore([]byte(secret))
	r.Use(sessions.Sessions("gridtalk_session", sessionStore))

	// Middleware
	r.Use(middleware.LoadUser())

	// Routes
	router.RegisterRoutes(r, st)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("gridtalk server starting on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
