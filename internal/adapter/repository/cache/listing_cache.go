// Package cache decorates a listing repository with a Redis read-through
// cache on the FindByID path. It is only worthwhile in front of the
// server-backed store; the local bolt store reads from page cache anyway.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mtm-trainworks/listing-engine/internal/listing/domain"
)

const listingTTL = 1 * time.Hour

type CachedRepository struct {
	domain.ListingRepository
	client *redis.Client
}

func NewCachedRepository(repo domain.ListingRepository, addr string) (*CachedRepository, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return &CachedRepository{ListingRepository: repo, client: client}, nil
}

func (c *CachedRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	data, err := c.client.Get(ctx, "listing:"+id).Bytes()
	if err == nil {
		var listing domain.Listing
		if err := json.Unmarshal(data, &listing); err == nil {
			return &listing, nil
		}
		// Corrupt entry: fall through to the backing store.
	} else if !errors.Is(err, redis.Nil) {
		// Redis being down never fails a read; the backing store answers.
		return c.ListingRepository.FindByID(ctx, id)
	}

	listing, err := c.ListingRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(listing); err == nil {
		c.client.Set(ctx, "listing:"+id, encoded, listingTTL)
	}
	return listing, nil
}

func (c *CachedRepository) Update(ctx context.Context, listing *domain.Listing) error {
	if err := c.ListingRepository.Update(ctx, listing); err != nil {
		return err
	}
	c.client.Del(ctx, "listing:"+listing.ID)
	return nil
}

func (c *CachedRepository) Delete(ctx context.Context, id string) error {
	if err := c.ListingRepository.Delete(ctx, id); err != nil {
		return err
	}
	c.client.Del(ctx, "listing:"+id)
	return nil
}

func (c *CachedRepository) MarkExported(ctx context.Context, ids []string, exportedAt time.Time) error {
	if err := c.ListingRepository.MarkExported(ctx, ids, exportedAt); err != nil {
		return err
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, "listing:"+id)
	}
	c.client.Del(ctx, keys...)
	return nil
}
