package usecase

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mtm-trainworks/listing-engine/internal/listing/domain"
	"github.com/mtm-trainworks/listing-engine/internal/platform/logger"
)

// maxUploadBytes caps a single photo at 50 MB.
const maxUploadBytes = 50 << 20

// uploadFolder prefixes every blob-store object key.
const uploadFolder = "listings"

// allowedMIMETypes is the ingest allow-list. Anything else is rejected
// per-file, never by failing the whole batch.
var allowedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/heic": true,
	"image/webp": true,
}

// Storage is the blob-store collaborator. The s3 adapter implements it; a
// nil Storage means every upload takes the inline fallback.
type Storage interface {
	Store(ctx context.Context, data []byte, mimeType, folder string) (*domain.StoredBlob, error)
	Delete(ctx context.Context, externalRef string) error
}

// IncomingFile is one photo as handed to ingest, before validation.
type IncomingFile struct {
	Name     string
	MIMEType string
	Data     []byte
}

// IngestResult pairs each batch input with its outcome. Err is a
// *domain.ValidationError for rejected files.
type IngestResult struct {
	Image *domain.ListingImage
	Err   error
}

// IngestUsecase validates and stages uploaded photos. The staged batch is
// ordered, append-only, and persisted through the session repository so a
// restart resumes where the upload left off.
type IngestUsecase struct {
	storage Storage
	session domain.SessionRepository
	logger  *logger.Logger
	now     func() time.Time

	mu     sync.Mutex
	staged []domain.ListingImage
}

func NewIngestUsecase(storage Storage, session domain.SessionRepository, log *logger.Logger) *IngestUsecase {
	return &IngestUsecase{
		storage: storage,
		session: session,
		logger:  log,
		now:     time.Now,
	}
}

// Restore reloads the staged batch persisted by a previous run.
func (uc *IngestUsecase) Restore(ctx context.Context) error {
	images, err := uc.session.LoadImages(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore staged images: %w", err)
	}
	uc.mu.Lock()
	uc.staged = images
	uc.mu.Unlock()
	if len(images) > 0 {
		uc.logger.Info("IngestUsecase.Restore: resumed staged batch", "count", len(images))
	}
	return nil
}

// Ingest validates one file, uploads it and appends it to the staged batch.
// A blob-store failure degrades to an inline data URI instead of erroring:
// the image is then self-contained and ExternalRef stays empty.
func (uc *IngestUsecase) Ingest(ctx context.Context, file IncomingFile) (*domain.ListingImage, error) {
	if err := validateFile(file); err != nil {
		uc.logger.Warn("IngestUsecase.Ingest: rejected file", "name", file.Name, "error", err.Error())
		return nil, err
	}

	img := domain.ListingImage{
		ID:         uuid.New().String(),
		Name:       file.Name,
		MIMEType:   file.MIMEType,
		ByteSize:   int64(len(file.Data)),
		UploadedAt: uc.now(),
	}

	blob := uc.store(ctx, file)
	if blob != nil {
		img.URL = blob.URL
		img.ExternalRef = blob.ExternalRef
	} else {
		img.URL = dataURI(file.MIMEType, file.Data)
	}

	uc.mu.Lock()
	uc.staged = append(uc.staged, img)
	snapshot := append([]domain.ListingImage(nil), uc.staged...)
	uc.mu.Unlock()

	if err := uc.session.SaveImages(ctx, snapshot); err != nil {
		uc.logger.Warn("IngestUsecase.Ingest: failed to persist staged batch", "error", err.Error())
	}
	return &img, nil
}

// IngestAll stages a batch with partial-success semantics: one result per
// input, in order, and a rejected file never blocks its neighbours.
func (uc *IngestUsecase) IngestAll(ctx context.Context, files []IncomingFile) []IngestResult {
	results := make([]IngestResult, 0, len(files))
	for _, file := range files {
		img, err := uc.Ingest(ctx, file)
		results = append(results, IngestResult{Image: img, Err: err})
	}
	return results
}

// RemoveImage drops a staged image. When the image lives in the blob store
// the remote object is deleted first; a remote failure is logged and does not
// block the local removal.
func (uc *IngestUsecase) RemoveImage(ctx context.Context, id string) error {
	uc.mu.Lock()
	idx := -1
	for i, img := range uc.staged {
		if img.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		uc.mu.Unlock()
		return domain.ErrImageNotFound
	}
	img := uc.staged[idx]
	uc.staged = append(uc.staged[:idx], uc.staged[idx+1:]...)
	snapshot := append([]domain.ListingImage(nil), uc.staged...)
	uc.mu.Unlock()

	if !img.Inline() && uc.storage != nil {
		if err := uc.storage.Delete(ctx, img.ExternalRef); err != nil {
			uc.logger.Warn("IngestUsecase.RemoveImage: remote delete failed", "external_ref", img.ExternalRef, "error", err.Error())
		}
	}

	if err := uc.session.SaveImages(ctx, snapshot); err != nil {
		uc.logger.Warn("IngestUsecase.RemoveImage: failed to persist staged batch", "error", err.Error())
	}
	return nil
}

// StagedImages returns a copy of the current batch in upload order.
func (uc *IngestUsecase) StagedImages() []domain.ListingImage {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return append([]domain.ListingImage(nil), uc.staged...)
}

// ClearStaged drops the batch locally and in the session store. Remote blobs
// are kept; they belong to the approved listing or get orphan-cleaned later.
func (uc *IngestUsecase) ClearStaged(ctx context.Context) error {
	uc.mu.Lock()
	uc.staged = nil
	uc.mu.Unlock()
	return uc.session.SaveImages(ctx, []domain.ListingImage{})
}

func (uc *IngestUsecase) store(ctx context.Context, file IncomingFile) *domain.StoredBlob {
	if uc.storage == nil {
		return nil
	}
	blob, err := uc.storage.Store(ctx, file.Data, file.MIMEType, uploadFolder)
	if err != nil {
		uc.logger.Warn("IngestUsecase.store: blob store unavailable, keeping image inline", "name", file.Name, "error", err.Error())
		return nil
	}
	return blob
}

func validateFile(file IncomingFile) error {
	if !allowedMIMETypes[file.MIMEType] {
		return domain.NewValidationError(fmt.Sprintf("%s: unsupported file type %q", file.Name, file.MIMEType))
	}
	if len(file.Data) > maxUploadBytes {
		return domain.NewValidationError(fmt.Sprintf("%s: file exceeds the 50 MB limit", file.Name))
	}
	if len(file.Data) == 0 {
		return domain.NewValidationError(fmt.Sprintf("%s: file is empty", file.Name))
	}
	return nil
}

func dataURI(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}
