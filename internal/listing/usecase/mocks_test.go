package usecase

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/mtm-trainworks/listing-engine/internal/listing/domain"
	"github.com/mtm-trainworks/listing-engine/internal/platform/logger"
)

func testLogger() *logger.Logger {
	return logger.NewTestLogger(io.Discard)
}

// memRepo is an in-memory domain.ListingRepository for tests.
type memRepo struct {
	mu         sync.Mutex
	listings   map[string]*domain.Listing
	counter    int64
	failCreate error
	failUpdate error
}

func newMemRepo() *memRepo {
	return &memRepo{listings: make(map[string]*domain.Listing)}
}

func (r *memRepo) Create(ctx context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	r.listings[l.ID] = l.Clone()
	return nil
}

func (r *memRepo) Update(ctx context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate != nil {
		return r.failUpdate
	}
	if _, ok := r.listings[l.ID]; !ok {
		return domain.ErrListingNotFound
	}
	r.listings[l.ID] = l.Clone()
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[id]; !ok {
		return domain.ErrListingNotFound
	}
	delete(r.listings, id)
	return nil
}

func (r *memRepo) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	return l.Clone(), nil
}

func (r *memRepo) FindBySKU(ctx context.Context, sku string) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.listings {
		if l.SKU == sku {
			return l.Clone(), nil
		}
	}
	return nil, domain.ErrListingNotFound
}

func (r *memRepo) FindAll(ctx context.Context) ([]*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Listing, 0, len(r.listings))
	for _, l := range r.listings {
		out = append(out, l.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memRepo) MarkExported(ctx context.Context, ids []string, exportedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		l, ok := r.listings[id]
		if !ok {
			return domain.ErrListingNotFound
		}
		l.Status = domain.StatusExported
		stamp := exportedAt
		l.ExportedAt = &stamp
	}
	return nil
}

func (r *memRepo) NextSKUNumber(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counter++
	return r.counter, nil
}

func (r *memRepo) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listings = make(map[string]*domain.Listing)
	r.counter = 0
	return nil
}

// memSession is an in-memory domain.SessionRepository.
type memSession struct {
	mu       sync.Mutex
	images   []domain.ListingImage
	analysis *domain.AIAnalysis
}

func (s *memSession) SaveImages(ctx context.Context, images []domain.ListingImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = append([]domain.ListingImage(nil), images...)
	return nil
}

func (s *memSession) LoadImages(ctx context.Context) ([]domain.ListingImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ListingImage(nil), s.images...), nil
}

func (s *memSession) SaveAnalysis(ctx context.Context, analysis *domain.AIAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analysis = analysis.Clone()
	return nil
}

func (s *memSession) LoadAnalysis(ctx context.Context) (*domain.AIAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analysis.Clone(), nil
}

func (s *memSession) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = nil
	s.analysis = nil
	return nil
}

// fakeStorage records uploads; failWith switches every Store into an error.
type fakeStorage struct {
	mu       sync.Mutex
	failWith error
	stored   int
	deleted  []string
}

func (f *fakeStorage) Store(ctx context.Context, data []byte, mimeType, folder string) (*domain.StoredBlob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.stored++
	key := fmt.Sprintf("%s/blob-%d", folder, f.stored)
	return &domain.StoredBlob{
		URL:         "https://blobs.test/" + key,
		ExternalRef: key,
		ByteSize:    int64(len(data)),
	}, nil
}

func (f *fakeStorage) Delete(ctx context.Context, externalRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, externalRef)
	return nil
}

// fakeAnalyzer returns queued results in order and records the URLs of each
// call. An optional gate blocks the call until released, for concurrency
// tests.
type fakeAnalyzer struct {
	mu      sync.Mutex
	results []*domain.ExtractionResult
	errs    []error
	calls   [][]string
	gate    chan struct{}
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, imageURLs []string) (*domain.ExtractionResult, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string(nil), imageURLs...))

	var res *domain.ExtractionResult
	if len(f.results) > 0 {
		res = f.results[0]
		f.results = f.results[1:]
	}
	var err error
	if len(f.errs) > 0 {
		err = f.errs[0]
		f.errs = f.errs[1:]
	}
	return res, err
}

// fakePublisher records events.
type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (f *fakePublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, subject)
	return nil
}

func (f *fakePublisher) subjects() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

// fakeMailer records export summaries.
type fakeMailer struct {
	filename string
	count    int
	calls    int
}

func (f *fakeMailer) SendExportSummary(filename string, itemCount int) error {
	f.filename = filename
	f.count = itemCount
	f.calls++
	return nil
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

func jpegFile(name string) IncomingFile {
	return IncomingFile{Name: name, MIMEType: "image/jpeg", Data: []byte("jpeg-bytes-" + name)}
}
