// Package mongodb is the server-backed record store variant for deployments
// that outgrow the single-file local store. It implements the same
// repository contract; callers never know which backend they run on.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mtm-trainworks/listing-engine/internal/listing/domain"
)

type ListingRepository struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{
		collection: db.Collection("listings"),
		counters:   db.Collection("counters"),
	}
}

func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	_, err := r.collection.InsertOne(ctx, listing)
	if err != nil {
		return fmt.Errorf("failed to insert listing %s: %w", listing.ID, err)
	}
	return nil
}

func (r *ListingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": listing.ID}, listing)
	if err != nil {
		return fmt.Errorf("failed to update listing %s: %w", listing.ID, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	var listing domain.Listing
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&listing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *ListingRepository) FindBySKU(ctx context.Context, sku string) (*domain.Listing, error) {
	var listing domain.Listing
	err := r.collection.FindOne(ctx, bson.M{"sku": sku}).Decode(&listing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *ListingRepository) FindAll(ctx context.Context) ([]*domain.Listing, error) {
	cursor, err := r.collection.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var listings []*domain.Listing
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *ListingRepository) MarkExported(ctx context.Context, ids []string, exportedAt time.Time) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{
			"status":      domain.StatusExported,
			"exported_at": exportedAt,
			"updated_at":  exportedAt,
		}})
	return err
}

// NextSKUNumber uses an atomic findAndModify increment so concurrent issuers
// on a shared database can never observe the same number.
func (r *ListingRepository) NextSKUNumber(ctx context.Context) (int64, error) {
	var doc struct {
		Value int64 `bson:"value"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": "sku"},
		bson.M{"$inc": bson.M{"value": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("failed to advance sku counter: %w", err)
	}
	return doc.Value, nil
}

func (r *ListingRepository) Reset(ctx context.Context) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return err
	}
	_, err := r.counters.DeleteMany(ctx, bson.M{"_id": "sku"})
	return err
}
