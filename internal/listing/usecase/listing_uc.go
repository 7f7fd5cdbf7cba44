// Package usecase holds the application services: the record store facade,
// the image ingest service, and the workflow that drives a batch of photos
// from upload through review to export.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mtm-trainworks/listing-engine/internal/listing/domain"
	"github.com/mtm-trainworks/listing-engine/internal/platform/logger"
)

// skuFormat issues numbers with a fixed prefix and zero padding, e.g.
// MTM-000042. The counter behind it is persisted and never reused.
const skuFormat = "MTM-%06d"

// ListingUsecase is the facade over the record store. Every mutation is
// persisted before the call returns.
type ListingUsecase struct {
	repo   domain.ListingRepository
	logger *logger.Logger
	now    func() time.Time
}

func NewListingUsecase(repo domain.ListingRepository, log *logger.Logger) *ListingUsecase {
	return &ListingUsecase{
		repo:   repo,
		logger: log,
		now:    time.Now,
	}
}

// CreateListing stores a new record. A missing ID gets a fresh uuid; the
// status defaults to approved, matching the admin path.
func (uc *ListingUsecase) CreateListing(ctx context.Context, listing *domain.Listing) (*domain.Listing, error) {
	if listing == nil {
		return nil, domain.ErrInvalidListingData
	}
	if listing.ID == "" {
		listing.ID = uuid.New().String()
	}
	if listing.Status == "" {
		listing.Status = domain.StatusApproved
	}
	now := uc.now()
	listing.CreatedAt = now
	listing.UpdatedAt = now

	if err := uc.repo.Create(ctx, listing); err != nil {
		uc.logger.Error("ListingUsecase.CreateListing: failed to create listing", "listing_id", listing.ID, "error", err.Error())
		return nil, err
	}
	uc.logger.Info("ListingUsecase.CreateListing: listing created", "listing_id", listing.ID, "sku", listing.SKU)
	return listing, nil
}

// UpdateListing loads a record, applies the caller's mutation and persists
// the result. An exported listing never leaves the exported status.
func (uc *ListingUsecase) UpdateListing(ctx context.Context, id string, mutate func(*domain.Listing)) (*domain.Listing, error) {
	listing, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		uc.logger.Error("ListingUsecase.UpdateListing: failed to find listing", "listing_id", id, "error", err.Error())
		return nil, err
	}

	previousStatus := listing.Status
	mutate(listing)
	if previousStatus == domain.StatusExported && listing.Status != domain.StatusExported {
		return nil, fmt.Errorf("%w: exported listing %s cannot revert to %s",
			domain.ErrInvalidStatusChange, id, listing.Status)
	}
	listing.UpdatedAt = uc.now()

	if err := uc.repo.Update(ctx, listing); err != nil {
		uc.logger.Error("ListingUsecase.UpdateListing: failed to update listing", "listing_id", id, "error", err.Error())
		return nil, err
	}
	return listing, nil
}

func (uc *ListingUsecase) DeleteListing(ctx context.Context, id string) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		uc.logger.Error("ListingUsecase.DeleteListing: failed to delete listing", "listing_id", id, "error", err.Error())
		return err
	}
	uc.logger.Info("ListingUsecase.DeleteListing: listing deleted", "listing_id", id)
	return nil
}

func (uc *ListingUsecase) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	return uc.repo.FindByID(ctx, id)
}

func (uc *ListingUsecase) GetListingBySKU(ctx context.Context, sku string) (*domain.Listing, error) {
	return uc.repo.FindBySKU(ctx, sku)
}

func (uc *ListingUsecase) ListListings(ctx context.Context) ([]*domain.Listing, error) {
	return uc.repo.FindAll(ctx)
}

// MarkExported stamps the given listings exported with the one shared
// timestamp that also names the export file.
func (uc *ListingUsecase) MarkExported(ctx context.Context, ids []string, exportedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	if err := uc.repo.MarkExported(ctx, ids, exportedAt); err != nil {
		uc.logger.Error("ListingUsecase.MarkExported: failed to mark listings exported", "count", len(ids), "error", err.Error())
		return err
	}
	uc.logger.Info("ListingUsecase.MarkExported: listings marked exported", "count", len(ids))
	return nil
}

// IssueSKU draws the next number from the persisted counter. Numbers are
// issued exactly once; deleting a listing does not return its SKU to the pool.
func (uc *ListingUsecase) IssueSKU(ctx context.Context) (string, error) {
	n, err := uc.repo.NextSKUNumber(ctx)
	if err != nil {
		uc.logger.Error("ListingUsecase.IssueSKU: failed to advance sku counter", "error", err.Error())
		return "", err
	}
	return fmt.Sprintf(skuFormat, n), nil
}

// Stats aggregates the record store. "Today" is calendar-day equality with
// the local date, not a rolling 24 hour window.
func (uc *ListingUsecase) Stats(ctx context.Context) (*domain.Stats, error) {
	listings, err := uc.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	stats := &domain.Stats{Total: len(listings)}
	for _, l := range listings {
		switch l.Status {
		case domain.StatusPending:
			stats.Pending++
		case domain.StatusApproved:
			stats.Approved++
		case domain.StatusExported:
			stats.Exported++
		}
		if sameLocalDay(l.CreatedAt, now) {
			stats.TodayProcessed++
		}
		if l.ApprovedAt != nil && sameLocalDay(*l.ApprovedAt, now) {
			stats.TodayApproved++
		}
	}
	return stats, nil
}

func sameLocalDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}

// ClearAll wipes every listing and reseeds the SKU counter. The confirmed
// flag is the destructive-action precondition; without it nothing is touched.
func (uc *ListingUsecase) ClearAll(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return domain.ErrNotConfirmed
	}
	if err := uc.repo.Reset(ctx); err != nil {
		uc.logger.Error("ListingUsecase.ClearAll: failed to reset record store", "error", err.Error())
		return err
	}
	uc.logger.Warn("ListingUsecase.ClearAll: record store wiped")
	return nil
}

// IsNotFound reports whether err is the record store's miss sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrListingNotFound)
}
