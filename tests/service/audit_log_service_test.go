package service_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/medisupply/devis-api/internal/domain"
	"github.com/medisupply/devis-api/internal/repository"
	"github.com/medisupply/devis-api/internal/service"
	"github.com/medisupply/devis-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupAuditLogService(t *testing.T) (*service.AuditLogService, *gorm.DB) {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() {
		testutil.CleanupTestData(t, db)
	})
	return service.NewAuditLogService(repository.NewAuditLogRepository(db), zap.NewNop()), db
}

func TestAuditLogService_Log(t *testing.T) {
	svc, db := setupAuditLogService(t)
	ctx := authedContext("user-42", "Jean Dupont")

	entityID := uuid.New()
	req := httptest.NewRequest("POST", "/api/v1/quotes", nil)
	req.Header.Set("X-Request-ID", "req-123")

	err := svc.Log(ctx, req, service.LogEntry{
		Action:     domain.AuditActionCreate,
		EntityType: "quote",
		EntityID:   &entityID,
		EntityName: "DEV-202608-0001",
		Metadata:   map[string]interface{}{"lineCount": 3},
	})
	require.NoError(t, err)

	var logs []domain.AuditLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "user-42", logs[0].UserID)
	assert.Equal(t, "Jean Dupont", logs[0].UserName)
	assert.Equal(t, domain.AuditActionCreate, logs[0].Action)
	assert.Equal(t, "quote", logs[0].EntityType)
	assert.Equal(t, entityID, *logs[0].EntityID)
	assert.Equal(t, "req-123", logs[0].RequestID)
	assert.JSONEq(t, `{"lineCount":3}`, logs[0].Metadata)
}

func TestAuditLogService_Log_NoUserNoRequest(t *testing.T) {
	svc, db := setupAuditLogService(t)

	err := svc.Log(context.Background(), nil, service.LogEntry{
		Action:     domain.AuditActionDelete,
		EntityType: "client",
	})
	require.NoError(t, err)

	var logs []domain.AuditLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Empty(t, logs[0].UserID)
	assert.Empty(t, logs[0].RequestID)
	assert.Equal(t, "null", logs[0].Metadata)
}

func TestAuditLogService_ListByEntity(t *testing.T) {
	svc, _ := setupAuditLogService(t)
	ctx := authedContext("user-42", "Jean Dupont")

	entityID := uuid.New()
	otherID := uuid.New()
	for _, action := range []domain.AuditAction{domain.AuditActionCreate, domain.AuditActionUpdate} {
		require.NoError(t, svc.Log(ctx, nil, service.LogEntry{
			Action:     action,
			EntityType: "quote",
			EntityID:   &entityID,
		}))
	}
	require.NoError(t, svc.Log(ctx, nil, service.LogEntry{
		Action:     domain.AuditActionCreate,
		EntityType: "quote",
		EntityID:   &otherID,
	}))

	logs, err := svc.ListByEntity(ctx, "quote", entityID, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestAuditLogService_List_FilterByAction(t *testing.T) {
	svc, _ := setupAuditLogService(t)
	ctx := authedContext("user-42", "Jean Dupont")

	require.NoError(t, svc.Log(ctx, nil, service.LogEntry{Action: domain.AuditActionCreate, EntityType: "quote"}))
	require.NoError(t, svc.Log(ctx, nil, service.LogEntry{Action: domain.AuditActionExport, EntityType: "quote"}))

	action := domain.AuditActionExport
	logs, total, err := svc.List(ctx, &repository.AuditLogFilter{Action: &action}, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.AuditActionExport, logs[0].Action)
}

func TestAuditLogService_PurgeOlderThan(t *testing.T) {
	svc, db := setupAuditLogService(t)
	ctx := authedContext("user-42", "Jean Dupont")

	require.NoError(t, svc.Log(ctx, nil, service.LogEntry{Action: domain.AuditActionCreate, EntityType: "quote"}))
	require.NoError(t, svc.Log(ctx, nil, service.LogEntry{Action: domain.AuditActionUpdate, EntityType: "quote"}))

	// Age one entry past the retention window.
	var logs []domain.AuditLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 2)
	old := time.Now().Add(-100 * 24 * time.Hour)
	require.NoError(t, db.Model(&logs[0]).Update("performed_at", old).Error)

	deleted, err := svc.PurgeOlderThan(ctx, 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining int64
	require.NoError(t, db.Model(&domain.AuditLog{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)
}

func TestAuditLogService_Stats(t *testing.T) {
	svc, _ := setupAuditLogService(t)
	ctx := authedContext("user-42", "Jean Dupont")

	require.NoError(t, svc.Log(ctx, nil, service.LogEntry{Action: domain.AuditActionCreate, EntityType: "quote"}))
	require.NoError(t, svc.Log(ctx, nil, service.LogEntry{Action: domain.AuditActionCreate, EntityType: "client"}))
	require.NoError(t, svc.Log(ctx, nil, service.LogEntry{Action: domain.AuditActionExport, EntityType: "quote"}))

	stats, err := svc.Stats(ctx, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats[domain.AuditActionCreate])
	assert.Equal(t, int64(1), stats[domain.AuditActionExport])
}
