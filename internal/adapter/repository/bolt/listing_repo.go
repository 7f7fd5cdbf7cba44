// Package bolt persists the record store in a single local bbolt file, the
// durable client-local storage backing the whole tool. Every mutation commits
// its transaction before returning.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/mtm-trainworks/listing-engine/internal/listing/domain"
)

var (
	bucketListings = []byte("listings")
	bucketMeta     = []byte("meta")
	bucketSession  = []byte("session")

	keySKUCounter = []byte("sku_counter")
	keyImages     = []byte("images")
	keyAnalysis   = []byte("analysis")
)

type Store struct {
	db *bbolt.DB
}

// Open opens (creating if needed) the store file and ensures all buckets
// exist before the store is considered ready.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketListings, bucketMeta, bucketSession} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize store buckets: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Create(_ context.Context, listing *domain.Listing) error {
	return s.put(listing)
}

func (s *Store) Update(_ context.Context, listing *domain.Listing) error {
	return s.put(listing)
}

func (s *Store) put(listing *domain.Listing) error {
	data, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("failed to encode listing %s: %w", listing.ID, err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketListings).Put([]byte(listing.ID), data)
	})
}

func (s *Store) Delete(_ context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketListings)
		if b.Get([]byte(id)) == nil {
			return domain.ErrListingNotFound
		}
		return b.Delete([]byte(id))
	})
}

func (s *Store) FindByID(_ context.Context, id string) (*domain.Listing, error) {
	var listing *domain.Listing
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketListings).Get([]byte(id))
		if data == nil {
			return domain.ErrListingNotFound
		}
		listing = &domain.Listing{}
		return json.Unmarshal(data, listing)
	})
	if err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *Store) FindBySKU(ctx context.Context, sku string) (*domain.Listing, error) {
	all, err := s.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range all {
		if l.SKU == sku {
			return l, nil
		}
	}
	return nil, domain.ErrListingNotFound
}

// FindAll returns listings ordered by creation time so callers see the same
// stable order the original append-only collection had.
func (s *Store) FindAll(_ context.Context) ([]*domain.Listing, error) {
	var listings []*domain.Listing
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketListings).ForEach(func(_, v []byte) error {
			l := &domain.Listing{}
			if err := json.Unmarshal(v, l); err != nil {
				return err
			}
			listings = append(listings, l)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(listings, func(i, j int) bool {
		if listings[i].CreatedAt.Equal(listings[j].CreatedAt) {
			return listings[i].SKU < listings[j].SKU
		}
		return listings[i].CreatedAt.Before(listings[j].CreatedAt)
	})
	return listings, nil
}

// MarkExported stamps all given listings in one transaction so the batch
// shares a single exportedAt and either fully persists or not at all.
func (s *Store) MarkExported(_ context.Context, ids []string, exportedAt time.Time) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketListings)
		for _, id := range ids {
			data := b.Get([]byte(id))
			if data == nil {
				return domain.ErrListingNotFound
			}
			l := &domain.Listing{}
			if err := json.Unmarshal(data, l); err != nil {
				return err
			}
			stamp := exportedAt
			l.Status = domain.StatusExported
			l.ExportedAt = &stamp
			l.UpdatedAt = exportedAt
			updated, err := json.Marshal(l)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(id), updated); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) NextSKUNumber(_ context.Context) (int64, error) {
	var next int64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		current := int64(0)
		if data := b.Get(keySKUCounter); data != nil {
			parsed, err := strconv.ParseInt(string(data), 10, 64)
			if err != nil {
				return fmt.Errorf("corrupt sku counter %q: %w", data, err)
			}
			current = parsed
		}
		next = current + 1
		return b.Put(keySKUCounter, []byte(strconv.FormatInt(next, 10)))
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (s *Store) Reset(_ context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketListings, bucketMeta, bucketSession} {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveImages persists the staged upload batch.
func (s *Store) SaveImages(_ context.Context, images []domain.ListingImage) error {
	data, err := json.Marshal(images)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSession).Put(keyImages, data)
	})
}

func (s *Store) LoadImages(_ context.Context) ([]domain.ListingImage, error) {
	images := []domain.ListingImage{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSession).Get(keyImages)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &images)
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}

func (s *Store) SaveAnalysis(_ context.Context, analysis *domain.AIAnalysis) error {
	if analysis == nil {
		return s.db.Update(func(tx *bbolt.Tx) error {
			return tx.Bucket(bucketSession).Delete(keyAnalysis)
		})
	}
	data, err := json.Marshal(analysis)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSession).Put(keyAnalysis, data)
	})
}

func (s *Store) LoadAnalysis(_ context.Context) (*domain.AIAnalysis, error) {
	var analysis *domain.AIAnalysis
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSession).Get(keyAnalysis)
		if data == nil {
			return nil
		}
		analysis = &domain.AIAnalysis{}
		return json.Unmarshal(data, analysis)
	})
	if err != nil {
		return nil, err
	}
	return analysis, nil
}

func (s *Store) ClearSession(_ context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSession)
		if err := b.Delete(keyImages); err != nil {
			return err
		}
		return b.Delete(keyAnalysis)
	})
}
