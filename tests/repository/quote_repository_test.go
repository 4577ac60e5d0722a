package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/medisupply/devis-api/internal/domain"
	"github.com/medisupply/devis-api/internal/repository"
	"github.com/medisupply/devis-api/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupQuoteRepo(t *testing.T) (*repository.QuoteRepository, *gorm.DB) {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() {
		testutil.CleanupTestData(t, db)
	})
	return repository.NewQuoteRepository(db), db
}

// createTestQuote inserts a quote with one line directly, bypassing the
// service layer.
func createTestQuote(t *testing.T, db *gorm.DB, client *domain.Client) *domain.Quote {
	t.Helper()
	quote := &domain.Quote{
		Number:       fmt.Sprintf("DEV-TEST-%d", time.Now().UnixNano()),
		ClientID:     client.ID,
		ClientName:   client.Name,
		Status:       domain.QuoteStatusDraft,
		ValidityDate: time.Now().AddDate(0, 0, 30),
		Version:      1,
		Lines: []domain.QuoteLine{
			{
				ProductCode:     "TST-001",
				Designation:     "Gants nitrile",
				Quantity:        10,
				UnitSalePrice:   decimal.RequireFromString("5.00"),
				DiscountPercent: decimal.Zero,
				TaxRatePercent:  decimal.RequireFromString("20"),
				Position:        0,
			},
		},
	}
	require.NoError(t, db.Create(quote).Error)
	return quote
}

func TestQuoteRepository_UpdateWithVersion(t *testing.T) {
	repo, db := setupQuoteRepo(t)
	ctx := context.Background()
	client := testutil.CreateTestClient(t, db, "Pharmacie du Port")
	quote := createTestQuote(t, db, client)

	quote.Notes = "conditions revues"
	newLines := []domain.QuoteLine{
		{
			ProductCode:     "TST-002",
			Designation:     "Compresses",
			Quantity:        20,
			UnitSalePrice:   decimal.RequireFromString("2.50"),
			DiscountPercent: decimal.Zero,
			TaxRatePercent:  decimal.RequireFromString("5.5"),
		},
	}
	require.NoError(t, repo.UpdateWithVersion(ctx, quote, 1, newLines))
	assert.Equal(t, 2, quote.Version)

	reloaded, err := repo.GetByID(ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, "conditions revues", reloaded.Notes)
	assert.Equal(t, 2, reloaded.Version)
	require.Len(t, reloaded.Lines, 1)
	assert.Equal(t, "TST-002", reloaded.Lines[0].ProductCode)
}

func TestQuoteRepository_UpdateWithVersion_Stale(t *testing.T) {
	repo, db := setupQuoteRepo(t)
	ctx := context.Background()
	client := testutil.CreateTestClient(t, db, "Pharmacie du Port")
	quote := createTestQuote(t, db, client)

	err := repo.UpdateWithVersion(ctx, quote, 7, nil)
	assert.ErrorIs(t, err, repository.ErrStaleVersion)

	// A rejected save must leave the row untouched.
	reloaded, err := repo.GetByID(ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Version)
	assert.Len(t, reloaded.Lines, 1)
}

func TestQuoteRepository_UpdateWithVersion_Deleted(t *testing.T) {
	repo, db := setupQuoteRepo(t)
	ctx := context.Background()
	client := testutil.CreateTestClient(t, db, "Pharmacie du Port")
	quote := createTestQuote(t, db, client)

	require.NoError(t, repo.Delete(ctx, quote.ID))

	err := repo.UpdateWithVersion(ctx, quote, 1, nil)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestQuoteRepository_TransitionStatusWithValidity(t *testing.T) {
	repo, db := setupQuoteRepo(t)
	ctx := context.Background()
	client := testutil.CreateTestClient(t, db, "Pharmacie du Port")
	quote := createTestQuote(t, db, client)

	newValidity := time.Now().AddDate(0, 0, 30)
	err := repo.TransitionStatusWithValidity(ctx, quote.ID, domain.QuoteStatusSent, newValidity, &domain.QuoteStatusHistory{
		QuoteID:        quote.ID,
		PreviousStatus: domain.QuoteStatusDraft,
		NewStatus:      domain.QuoteStatusSent,
		ChangedByID:    "user-42",
		ChangedByName:  "Jean Dupont",
		ChangedAt:      time.Now(),
	})
	require.NoError(t, err)

	reloaded, err := repo.GetByID(ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusSent, reloaded.Status)

	var history []domain.QuoteStatusHistory
	require.NoError(t, db.Where("quote_id = ?", quote.ID).Find(&history).Error)
	require.Len(t, history, 1)
	assert.Equal(t, domain.QuoteStatusDraft, history[0].PreviousStatus)
	assert.Equal(t, domain.QuoteStatusSent, history[0].NewStatus)
}

func TestQuoteRepository_TransitionStatusWithValidity_NotFound(t *testing.T) {
	repo, db := setupQuoteRepo(t)
	ctx := context.Background()

	missing := uuid.New()
	err := repo.TransitionStatusWithValidity(ctx, missing, domain.QuoteStatusSent, time.Now(), &domain.QuoteStatusHistory{
		QuoteID:        missing,
		PreviousStatus: domain.QuoteStatusDraft,
		NewStatus:      domain.QuoteStatusSent,
		ChangedByID:    "user-42",
		ChangedAt:      time.Now(),
	})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// The transaction rolled back: no orphan history row.
	var count int64
	require.NoError(t, db.Model(&domain.QuoteStatusHistory{}).Where("quote_id = ?", missing).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestQuoteRepository_Delete_CascadesLinesAndHistory(t *testing.T) {
	repo, db := setupQuoteRepo(t)
	ctx := context.Background()
	client := testutil.CreateTestClient(t, db, "Pharmacie du Port")
	quote := createTestQuote(t, db, client)

	require.NoError(t, db.Create(&domain.QuoteStatusHistory{
		QuoteID:        quote.ID,
		PreviousStatus: domain.QuoteStatusDraft,
		NewStatus:      domain.QuoteStatusSent,
		ChangedByID:    "user-42",
		ChangedAt:      time.Now(),
	}).Error)

	require.NoError(t, repo.Delete(ctx, quote.ID))

	var lines, history int64
	require.NoError(t, db.Model(&domain.QuoteLine{}).Where("quote_id = ?", quote.ID).Count(&lines).Error)
	require.NoError(t, db.Model(&domain.QuoteStatusHistory{}).Where("quote_id = ?", quote.ID).Count(&history).Error)
	assert.Equal(t, int64(0), lines)
	assert.Equal(t, int64(0), history)
}

func TestQuoteRepository_GetByID_OrdersLinesByPosition(t *testing.T) {
	repo, db := setupQuoteRepo(t)
	ctx := context.Background()
	client := testutil.CreateTestClient(t, db, "Pharmacie du Port")
	quote := createTestQuote(t, db, client)

	// Insert a second line ahead of the first by position.
	require.NoError(t, db.Create(&domain.QuoteLine{
		QuoteID:        quote.ID,
		ProductCode:    "TST-000",
		Designation:    "Premier",
		Quantity:       1,
		UnitSalePrice:  decimal.RequireFromString("1.00"),
		TaxRatePercent: decimal.RequireFromString("20"),
		Position:       -1,
	}).Error)

	reloaded, err := repo.GetByID(ctx, quote.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Lines, 2)
	assert.Equal(t, "TST-000", reloaded.Lines[0].ProductCode)
	assert.Equal(t, "TST-001", reloaded.Lines[1].ProductCode)
}

func TestQuoteRepository_ListExpiringBefore(t *testing.T) {
	repo, db := setupQuoteRepo(t)
	ctx := context.Background()
	client := testutil.CreateTestClient(t, db, "Pharmacie du Port")

	expired := createTestQuote(t, db, client)
	require.NoError(t, db.Model(expired).Updates(map[string]interface{}{
		"status":        domain.QuoteStatusSent,
		"validity_date": time.Now().AddDate(0, 0, -5),
	}).Error)

	// Still within validity: must not show up.
	current := createTestQuote(t, db, client)
	require.NoError(t, db.Model(current).Update("status", domain.QuoteStatusSent).Error)

	// Past validity but still a draft: drafts never expire.
	draft := createTestQuote(t, db, client)
	require.NoError(t, db.Model(draft).Update("validity_date", time.Now().AddDate(0, 0, -5)).Error)

	quotes, err := repo.ListExpiringBefore(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, expired.ID, quotes[0].ID)
}

func TestQuoteRepository_CountByStatus(t *testing.T) {
	repo, db := setupQuoteRepo(t)
	ctx := context.Background()
	client := testutil.CreateTestClient(t, db, "Pharmacie du Port")

	createTestQuote(t, db, client)
	createTestQuote(t, db, client)
	sent := createTestQuote(t, db, client)
	require.NoError(t, db.Model(sent).Update("status", domain.QuoteStatusSent).Error)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[domain.QuoteStatusDraft])
	assert.Equal(t, int64(1), counts[domain.QuoteStatusSent])
}
