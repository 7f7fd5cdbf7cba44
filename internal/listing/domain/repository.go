package domain

import (
	"context"
	"time"
)

// ListingRepository is the persistence contract for the record store. Every
// mutating call must fully persist before returning; there is no window where
// in-memory and durable state diverge from the caller's perspective.
type ListingRepository interface {
	Create(ctx context.Context, listing *Listing) error
	Update(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Listing, error)
	FindBySKU(ctx context.Context, sku string) (*Listing, error)
	FindAll(ctx context.Context) ([]*Listing, error)

	// MarkExported stamps the given listings exported with a single shared
	// timestamp, atomically where the backend allows it.
	MarkExported(ctx context.Context, ids []string, exportedAt time.Time) error

	// NextSKUNumber increments and returns the persisted monotonic counter.
	// Issued numbers are never reused, even after a listing is deleted.
	NextSKUNumber(ctx context.Context) (int64, error)

	// Reset discards all listings and reseeds the SKU counter to 1.
	Reset(ctx context.Context) error
}

// SessionRepository persists the in-progress upload batch so an interrupted
// session resumes where it left off: the staged images (ordered, append-only)
// and the last extraction snapshot.
type SessionRepository interface {
	SaveImages(ctx context.Context, images []ListingImage) error
	LoadImages(ctx context.Context) ([]ListingImage, error)
	SaveAnalysis(ctx context.Context, analysis *AIAnalysis) error
	LoadAnalysis(ctx context.Context) (*AIAnalysis, error)
	ClearSession(ctx context.Context) error
}
