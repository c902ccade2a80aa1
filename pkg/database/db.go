package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// MemoryDSN keeps the ledger in process memory
const MemoryDSN = "file::memory:?cache=shared"

// DailyUsage represents the daily_usages table. Only aggregate counters are
// stored; rosters never reach the database.
type DailyUsage struct {
	ID            uint   `gorm:"primaryKey" json:"-"`
	Date          string `gorm:"uniqueIndex;not null" json:"date"`
	RequestCount  int    `gorm:"default:0" json:"request_count"`
	TotalStudents int    `gorm:"default:0" json:"total_students"`
	TotalMissed   int    `gorm:"default:0" json:"total_missed_lectures"`
	TotalWarnings int    `gorm:"default:0" json:"total_warnings"`
}

// Totals sums a usage history
type Totals struct {
	Requests int64 `json:"requests"`
	Students int64 `json:"students"`
	Missed   int64 `json:"missed_lectures"`
	Warnings int64 `json:"warnings"`
}

// InitDB opens the usage ledger and migrates the schema. Postgres is used
// when databaseURL is set, sqlite at dataPath otherwise, and an in-memory
// sqlite database when both are empty.
func InitDB(databaseURL, dataPath string) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	if databaseURL != "" {
		cfg.PrepareStmt = false
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  databaseURL,
			PreferSimpleProtocol: true,
		}), cfg)
	} else {
		if dataPath == "" {
			dataPath = MemoryDSN
		}
		db, err = gorm.Open(sqlite.Open(dataPath), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("connect usage ledger: %w", err)
	}

	if err := db.AutoMigrate(&DailyUsage{}); err != nil {
		return nil, fmt.Errorf("migrate usage ledger: %w", err)
	}
	return db, nil
}

// RecordUsage adds one resolution run to today's row using a single-query
// upsert (supported by both Postgres and SQLite).
func RecordUsage(db *gorm.DB, day time.Time, students, missed, warnings int) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count":  gorm.Expr("request_count + ?", 1),
			"total_students": gorm.Expr("total_students + ?", students),
			"total_missed":   gorm.Expr("total_missed + ?", missed),
			"total_warnings": gorm.Expr("total_warnings + ?", warnings),
		}),
	}).Create(&DailyUsage{
		Date:          day.Format("2006-01-02"),
		RequestCount:  1,
		TotalStudents: students,
		TotalMissed:   missed,
		TotalWarnings: warnings,
	}).Error
}

// RecentUsage returns up to limit days of usage, newest first, with totals
func RecentUsage(db *gorm.DB, limit int) ([]DailyUsage, Totals, error) {
	var usage []DailyUsage
	if err := db.Order("date desc").Limit(limit).Find(&usage).Error; err != nil {
		return nil, Totals{}, err
	}

	var t Totals
	for _, u := range usage {
		t.Requests += int64(u.RequestCount)
		t.Students += int64(u.TotalStudents)
		t.Missed += int64(u.TotalMissed)
		t.Warnings += int64(u.TotalWarnings)
	}
	return usage, t, nil
}

// MustInitDB is InitDB for process startup
func MustInitDB(databaseURL, dataPath string) *gorm.DB {
	db, err := InitDB(databaseURL, dataPath)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	return db
}
