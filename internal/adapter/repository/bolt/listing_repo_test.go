package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtm-trainworks/listing-engine/internal/listing/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "listings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCRUDRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	listing := &domain.Listing{
		ID:        "l1",
		SKU:       "MTM-000001",
		Status:    domain.StatusApproved,
		Brand:     "Kato",
		Images:    []domain.ListingImage{{ID: "i1", URL: "https://img/1.jpg"}},
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.Create(ctx, listing))

	got, err := store.FindByID(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "Kato", got.Brand)
	assert.Len(t, got.Images, 1)

	bySku, err := store.FindBySKU(ctx, "MTM-000001")
	require.NoError(t, err)
	assert.Equal(t, "l1", bySku.ID)

	require.NoError(t, store.Delete(ctx, "l1"))
	_, err = store.FindByID(ctx, "l1")
	assert.ErrorIs(t, err, domain.ErrListingNotFound)

	err = store.Delete(ctx, "l1")
	assert.ErrorIs(t, err, domain.ErrListingNotFound)
}

func TestSKUCounterSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "listings.db")
	ctx := context.Background()

	store, err := Open(path)
	require.NoError(t, err)
	n1, err := store.NextSKUNumber(ctx)
	require.NoError(t, err)
	n2, err := store.NextSKUNumber(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	n3, err := reopened.NextSKUNumber(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), n1)
	assert.Equal(t, int64(2), n2)
	assert.Equal(t, int64(3), n3, "counter is seeded from storage, never reset")
}

func TestMarkExportedSharesOneTimestamp(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		require.NoError(t, store.Create(ctx, &domain.Listing{ID: id, Status: domain.StatusApproved}))
	}

	stamp := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.MarkExported(ctx, []string{"a", "b"}, stamp))

	for _, id := range []string{"a", "b"} {
		got, err := store.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusExported, got.Status)
		require.NotNil(t, got.ExportedAt)
		assert.True(t, got.ExportedAt.Equal(stamp))
	}
}

func TestSessionPersistence(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	images := []domain.ListingImage{
		{ID: "i1", Name: "front.jpg", MIMEType: "image/jpeg"},
		{ID: "i2", Name: "box.png", MIMEType: "image/png"},
	}
	require.NoError(t, store.SaveImages(ctx, images))

	brand := "Atlas"
	require.NoError(t, store.SaveAnalysis(ctx, &domain.AIAnalysis{Brand: &brand}))

	loaded, err := store.LoadImages(ctx)
	require.NoError(t, err)
	assert.Equal(t, images, loaded)

	analysis, err := store.LoadAnalysis(ctx)
	require.NoError(t, err)
	require.NotNil(t, analysis)
	assert.Equal(t, "Atlas", *analysis.Brand)

	require.NoError(t, store.ClearSession(ctx))
	loaded, err = store.LoadImages(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
	analysis, err = store.LoadAnalysis(ctx)
	require.NoError(t, err)
	assert.Nil(t, analysis)
}
