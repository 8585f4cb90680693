package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yasboss/storefront-backend/pkg/db/models"
	"github.com/yasboss/storefront-backend/pkg/logger"
)

func setupAuditTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	ddl := `
CREATE TABLE IF NOT EXISTS audit_logs (
  id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  message TEXT NOT NULL,
  actor_id TEXT NOT NULL,
  actor_role TEXT NOT NULL,
  level TEXT NOT NULL DEFAULT 'info',
  created_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func TestRecordPersistsEntry(t *testing.T) {
	db := setupAuditTestDB(t)
	rec, err := NewRecorder(db, logger.New(logger.Options{ServiceName: "audit-test"}))
	require.NoError(t, err)

	rec.Record(context.Background(), Entry{
		Kind:      KindOrderTransition,
		Message:   "order YB-1A2B3C4D moved PENDING -> PAID",
		ActorID:   "admin@yasboss.in",
		ActorRole: "ADMIN",
	})

	var rows []models.AuditLog
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, KindOrderTransition, rows[0].Kind)
	require.Equal(t, "info", rows[0].Level)
	require.Equal(t, "ADMIN", rows[0].ActorRole)
}

func TestRecordSwallowsWriteFailure(t *testing.T) {
	db := setupAuditTestDB(t)
	require.NoError(t, db.Exec("DROP TABLE audit_logs").Error)

	rec, err := NewRecorder(db, logger.New(logger.Options{ServiceName: "audit-test"}))
	require.NoError(t, err)

	// must not panic or surface the error
	rec.Record(context.Background(), Entry{Kind: KindOrderPlaced, Message: "x", ActorID: "a", ActorRole: "CUSTOMER"})
}
