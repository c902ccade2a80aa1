package handler

import (
	"log"
	"net/http"

	"github.com/arnavshah/od-resolver-go/internal/config"
	"github.com/arnavshah/od-resolver-go/pkg/database"
	"github.com/arnavshah/od-resolver-go/pkg/handlers"
	"github.com/arnavshah/od-resolver-go/pkg/timetable"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var r *gin.Engine

func init() {
	// Load .env if it exists (for local testing with vercel dev)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := config.Load()

	tt, err := timetable.Load(cfg.TimetablePath)
	if err != nil {
		log.Printf("timetable not loaded: %v", err)
		tt = nil
	}

	// The ledger is optional on serverless deployments
	db, err := database.InitDB(cfg.DatabaseURL, cfg.DataPath)
	if err != nil {
		log.Printf("usage ledger disabled: %v", err)
		db = nil
	}
	h := &handlers.Handler{DB: db, Timetable: tt, Config: cfg}

	// Initialize Gin
	gin.SetMode(gin.ReleaseMode)
	r = gin.New()
	r.Use(gin.Logger(), gin.Recovery(), cors.Default())
	r.MaxMultipartMemory = cfg.MaxUploadBytes()
	h.Routes(r)
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
