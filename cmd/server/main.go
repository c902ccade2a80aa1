package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arnavshah/od-resolver-go/internal/config"
	"github.com/arnavshah/od-resolver-go/pkg/database"
	"github.com/arnavshah/od-resolver-go/pkg/handlers"
	"github.com/arnavshah/od-resolver-go/pkg/timetable"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env if it exists
	// Try root and parent directories for flexibility
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}

	cfg := config.Load()
	if cfg.IsProduction() || os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	tt, err := timetable.Load(cfg.TimetablePath)
	if err != nil {
		log.Fatalf("could not load timetable: %v", err)
	}
	log.Printf("Loaded %s timetable from %s", tt.Shape(), timetableSource(cfg.TimetablePath))

	db := database.MustInitDB(cfg.DatabaseURL, cfg.DataPath)
	h := &handlers.Handler{DB: db, Timetable: tt, Config: cfg}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Disposition", "X-Run-ID"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}))
	r.MaxMultipartMemory = cfg.MaxUploadBytes()
	h.Routes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("could not run server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}
	log.Println("Server exited")
}

func timetableSource(path string) string {
	if path == "" {
		return "embedded sample"
	}
	return path
}
