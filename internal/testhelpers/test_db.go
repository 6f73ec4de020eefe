package testhelpers

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"peerprep/interview/internal/repositories/postgres"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// SetupTestDB creates an isolated in-memory SQLite database with the interview schema.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// concurrent readers share one connection; avoids SQLITE_LOCKED on the shared cache
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := postgres.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// SetupStores returns SQL-backed interview and feedback stores over a fresh test database.
func SetupStores(t *testing.T) (*postgres.InterviewRepo, *postgres.FeedbackRepo) {
	t.Helper()
	db := SetupTestDB(t)
	return postgres.NewInterviewRepo(db), postgres.NewFeedbackRepo(db)
}
