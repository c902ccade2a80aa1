package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
)

// App holds the runtime configuration loaded from environment variables.
// RecipientEmail is the default To address of composed emails. The
// ZeroConflict pair drives the roll-up warning for rosters where almost
// nobody misses a lecture.
type App struct {
	Env                     string
	Port                    string
	TimetablePath           string
	RecipientEmail          string
	MailBodyLimit           int
	DatabaseURL             string
	DataPath                string
	ZeroConflictRatio       float64
	ZeroConflictMinStudents int
	MaxUploadMB             int
}

// Load returns application config populated from environment variables with sensible defaults.
func Load() App {
	return App{
		Env:                     getEnv("APP_ENV", "dev"),
		Port:                    getEnv("PORT", "8000"),
		TimetablePath:           getEnv("TIMETABLE_PATH", ""),
		RecipientEmail:          getEnv("RECIPIENT_EMAIL", ""),
		MailBodyLimit:           intEnv("MAIL_BODY_LIMIT", 2000),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		DataPath:                getEnv("DATA_PATH", ""),
		ZeroConflictRatio:       floatEnv("ZERO_CONFLICT_WARN_RATIO", 0.8),
		ZeroConflictMinStudents: intEnv("ZERO_CONFLICT_MIN_STUDENTS", 5),
		MaxUploadMB:             intEnv("MAX_UPLOAD_MB", 10),
	}
}

// IsProduction reports whether APP_ENV names a production deployment
func (a App) IsProduction() bool {
	return a.Env == "production" || a.Env == "prod"
}

// MaxUploadBytes is the multipart memory limit derived from MaxUploadMB
func (a App) MaxUploadBytes() int64 {
	return int64(a.MaxUploadMB) << 20
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}

func floatEnv(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Printf("invalid float for %s: %v, using fallback %v", key, err, fallback)
			return fallback
		}
		return parsed
	}
	return fallback
}
