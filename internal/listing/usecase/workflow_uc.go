package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mtm-trainworks/listing-engine/internal/export/sixbit"
	"github.com/mtm-trainworks/listing-engine/internal/listing/domain"
	"github.com/mtm-trainworks/listing-engine/internal/listing/reconcile"
	"github.com/mtm-trainworks/listing-engine/internal/platform/logger"
)

// Step is the workflow position. Transitions only move through the
// lifecycle operations below, never by direct assignment from callers.
type Step string

const (
	StepUpload Step = "upload"
	StepReview Step = "review"
	StepExport Step = "export"
)

// Role gates the finalize path: admins approve directly, vendors submit
// drafts that land as pending.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleVendor Role = "vendor"
)

// Lifecycle event subjects, passed through the publisher as-is.
const (
	EventListingApproved = "listing.approved"
	EventListingExported = "listing.exported"
)

// Analyzer is the extraction collaborator; the gemini adapter implements it.
type Analyzer interface {
	Analyze(ctx context.Context, imageURLs []string) (*domain.ExtractionResult, error)
}

// EventPublisher emits lifecycle events. Publishing is best-effort: a
// delivery failure is logged and never fails the operation that caused it.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

// NoopPublisher is the default when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, interface{}) error { return nil }

// ExportMailer sends the post-export summary. Optional, like the publisher.
type ExportMailer interface {
	SendExportSummary(filename string, itemCount int) error
}

// requiredFields maps the fields Approve insists on to their form labels.
// Order matters: missing labels are reported in this order.
var requiredFields = []struct {
	label string
	value func(*domain.Listing) string
}{
	{"Brand", func(l *domain.Listing) string { return l.Brand }},
	{"Scale", func(l *domain.Listing) string { return l.Scale }},
	{"Gauge", func(l *domain.Listing) string { return l.Gauge }},
	{"Road Name", func(l *domain.Listing) string { return l.RoadName }},
	{"Locomotive Type", func(l *domain.Listing) string { return l.LocomotiveType }},
	{"DCC", func(l *domain.Listing) string { return l.DCC }},
	{"Packaging", func(l *domain.Listing) string { return l.Packaging }},
}

// WorkflowUsecase drives one batch of photos from upload through review to
// export. It owns the ephemeral Review draft: the draft is a detached listing
// with an empty ID and only becomes a stored record on Approve or Submit.
// The workflow is a single-writer service; methods serialize on one mutex.
type WorkflowUsecase struct {
	listings *ListingUsecase
	ingest   *IngestUsecase
	session  domain.SessionRepository
	analyzer Analyzer
	events   EventPublisher
	mailer   ExportMailer
	logger   *logger.Logger

	role   Role
	vendor string
	now    func() time.Time

	mu        sync.Mutex
	step      Step
	draft     *domain.Listing
	tracker   *reconcile.Tracker
	analysis  *domain.AIAnalysis
	analyzing bool
}

type WorkflowOption func(*WorkflowUsecase)

// WithPublisher attaches a lifecycle event publisher.
func WithPublisher(p EventPublisher) WorkflowOption {
	return func(w *WorkflowUsecase) { w.events = p }
}

// WithMailer attaches the export summary mailer.
func WithMailer(m ExportMailer) WorkflowOption {
	return func(w *WorkflowUsecase) { w.mailer = m }
}

// WithRole selects the finalize path; admin is the default.
func WithRole(r Role) WorkflowOption {
	return func(w *WorkflowUsecase) { w.role = r }
}

// WithVendor sets the vendor name stamped onto finalized listings.
func WithVendor(name string) WorkflowOption {
	return func(w *WorkflowUsecase) { w.vendor = name }
}

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) WorkflowOption {
	return func(w *WorkflowUsecase) { w.now = now }
}

func NewWorkflowUsecase(listings *ListingUsecase, ingest *IngestUsecase, session domain.SessionRepository, analyzer Analyzer, log *logger.Logger, opts ...WorkflowOption) *WorkflowUsecase {
	w := &WorkflowUsecase{
		listings: listings,
		ingest:   ingest,
		session:  session,
		analyzer: analyzer,
		events:   NoopPublisher{},
		logger:   log,
		role:     RoleAdmin,
		now:      time.Now,
		step:     StepUpload,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *WorkflowUsecase) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Restore reloads the staged batch and the last extraction snapshot from a
// previous run.
func (w *WorkflowUsecase) Restore(ctx context.Context) error {
	if err := w.ingest.Restore(ctx); err != nil {
		return err
	}
	analysis, err := w.session.LoadAnalysis(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore analysis snapshot: %w", err)
	}
	w.mu.Lock()
	w.analysis = analysis
	w.mu.Unlock()
	return nil
}

// Analyze runs extraction over the staged batch. At most one call is in
// flight; a second concurrent call fails fast with ErrAnalysisInFlight
// instead of queueing. A successful result replaces the previous snapshot
// wholesale and is persisted to the session store.
func (w *WorkflowUsecase) Analyze(ctx context.Context) (*domain.ExtractionResult, error) {
	urls, release, err := w.beginAnalysis(w.ingest.StagedImages())
	if err != nil {
		return nil, err
	}
	defer release()

	result, err := w.analyzer.Analyze(ctx, urls)
	if err != nil {
		w.logger.Error("WorkflowUsecase.Analyze: extraction failed", "error", err.Error())
		return nil, err
	}
	w.adoptAnalysis(ctx, result)
	return result, nil
}

// BeginReview builds the Review draft: staged images plus the extraction
// snapshot overlaid through reconciliation. ProcessedAt marks the first time
// this batch was populated from an analysis.
func (w *WorkflowUsecase) BeginReview(ctx context.Context) (*domain.Listing, error) {
	images := w.ingest.StagedImages()
	if len(images) == 0 {
		return nil, domain.ErrNoImages
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	draft := &domain.Listing{
		Images: images,
		Vendor: w.vendor,
	}
	if w.analysis != nil {
		reconcile.Overlay(draft, w.analysis)
		draft.AIAnalysis = w.analysis.Clone()
		processedAt := w.now()
		draft.ProcessedAt = &processedAt
	}

	w.draft = draft
	w.tracker = reconcile.NewTracker(draft)
	w.step = StepReview
	w.logger.Info("WorkflowUsecase.BeginReview: draft populated", "images", len(images), "has_analysis", w.analysis != nil)
	return draft, nil
}

// Reanalyze refreshes the extraction snapshot while staying in Review. The
// overlay is null-preserving, so fields the user already edited survive
// wherever the new snapshot is uncertain; a nil or unparseable result leaves
// the draft untouched.
func (w *WorkflowUsecase) Reanalyze(ctx context.Context) (*domain.ExtractionResult, error) {
	w.mu.Lock()
	if w.step != StepReview || w.draft == nil {
		w.mu.Unlock()
		return nil, domain.ErrInvalidStatusChange
	}
	images := append([]domain.ListingImage(nil), w.draft.Images...)
	w.mu.Unlock()

	urls, release, err := w.beginAnalysis(images)
	if err != nil {
		return nil, err
	}
	defer release()

	result, err := w.analyzer.Analyze(ctx, urls)
	if err != nil {
		w.logger.Error("WorkflowUsecase.Reanalyze: extraction failed", "error", err.Error())
		return nil, err
	}

	// The batch may have been rejected while the call was in flight. A stale
	// result is discarded wholesale: not overlaid, not persisted.
	w.mu.Lock()
	if w.step != StepReview || w.draft == nil {
		w.mu.Unlock()
		w.logger.Warn("WorkflowUsecase.Reanalyze: batch discarded mid-flight, dropping result")
		return result, nil
	}
	if result != nil && result.Analysis != nil {
		w.analysis = result.Analysis.Clone()
		reconcile.Overlay(w.draft, result.Analysis)
		w.draft.AIAnalysis = result.Analysis.Clone()
	}
	w.mu.Unlock()

	if result != nil && result.Analysis != nil {
		if err := w.session.SaveAnalysis(ctx, result.Analysis); err != nil {
			w.logger.Warn("WorkflowUsecase.Reanalyze: failed to persist snapshot", "error", err.Error())
		}
	}
	return result, nil
}

// Draft returns the live Review draft. The caller edits it in place and the
// workflow keeps ownership; SaveDraft acknowledges the edits.
func (w *WorkflowUsecase) Draft() *domain.Listing {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// Dirty reports whether the draft has unsaved edits.
func (w *WorkflowUsecase) Dirty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.tracker == nil {
		return false
	}
	return w.tracker.Dirty(w.draft)
}

// SaveDraft resets the dirty baseline to the current draft state.
func (w *WorkflowUsecase) SaveDraft() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.tracker != nil && w.draft != nil {
		w.tracker.Reset(w.draft)
	}
}

// Approve finalizes the draft as an approved listing: validates the required
// fields, derives the running condition, issues a SKU and stores the record.
// On a store failure the draft survives untouched so nothing is lost.
// Admin only.
func (w *WorkflowUsecase) Approve(ctx context.Context) (*domain.Listing, error) {
	if w.role != RoleAdmin {
		return nil, fmt.Errorf("%w: role %s cannot approve", domain.ErrInvalidStatusChange, w.role)
	}
	return w.finalize(ctx, domain.StatusApproved)
}

// Submit is the vendor path: the same finalization, but the listing lands as
// pending and waits for an admin.
func (w *WorkflowUsecase) Submit(ctx context.Context) (*domain.Listing, error) {
	if w.role != RoleVendor {
		return nil, fmt.Errorf("%w: role %s cannot submit", domain.ErrInvalidStatusChange, w.role)
	}
	return w.finalize(ctx, domain.StatusPending)
}

func (w *WorkflowUsecase) finalize(ctx context.Context, status domain.ListingStatus) (*domain.Listing, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepReview || w.draft == nil {
		return nil, domain.ErrInvalidStatusChange
	}
	if len(w.draft.Images) == 0 {
		return nil, domain.ErrNoImages
	}
	if missing := missingRequiredFields(w.draft); len(missing) > 0 {
		return nil, domain.NewValidationError(missing...)
	}

	reconcile.DeriveRunningCondition(w.draft)

	if w.draft.SKU == "" {
		sku, err := w.listings.IssueSKU(ctx)
		if err != nil {
			return nil, err
		}
		w.draft.SKU = sku
	}

	w.draft.Status = status
	if status == domain.StatusApproved {
		approvedAt := w.now()
		w.draft.ApprovedAt = &approvedAt
	}

	created, err := w.listings.CreateListing(ctx, w.draft)
	if err != nil {
		// Keep the draft so the user can retry; only the stamps are rolled back.
		w.draft.Status = ""
		w.draft.ApprovedAt = nil
		return nil, err
	}

	if err := w.ingest.ClearStaged(ctx); err != nil {
		w.logger.Warn("WorkflowUsecase.finalize: failed to clear staged batch", "error", err.Error())
	}
	if err := w.session.SaveAnalysis(ctx, nil); err != nil {
		w.logger.Warn("WorkflowUsecase.finalize: failed to clear analysis snapshot", "error", err.Error())
	}
	w.analysis = nil
	w.draft = nil
	w.tracker = nil
	w.step = StepExport

	if status == domain.StatusApproved {
		w.publish(ctx, EventListingApproved, map[string]string{"id": created.ID, "sku": created.SKU})
	}
	w.logger.Info("WorkflowUsecase.finalize: listing finalized", "listing_id", created.ID, "sku", created.SKU, "status", string(created.Status))
	return created, nil
}

// Reject discards the draft, the staged batch and the analysis snapshot,
// returning to the Upload step. Requires confirmation.
func (w *WorkflowUsecase) Reject(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return domain.ErrNotConfirmed
	}

	w.mu.Lock()
	w.draft = nil
	w.tracker = nil
	w.analysis = nil
	w.step = StepUpload
	w.mu.Unlock()

	if err := w.ingest.ClearStaged(ctx); err != nil {
		return err
	}
	if err := w.session.SaveAnalysis(ctx, nil); err != nil {
		return err
	}
	w.logger.Info("WorkflowUsecase.Reject: batch discarded")
	return nil
}

// ClearAll wipes the record store, the session and the in-memory workflow
// state. Requires confirmation; the SKU counter reseeds to 1.
func (w *WorkflowUsecase) ClearAll(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return domain.ErrNotConfirmed
	}
	if err := w.listings.ClearAll(ctx, true); err != nil {
		return err
	}
	return w.Reject(ctx, true)
}

// Export serializes the selected listings (all approved listings when ids is
// empty) into the requested format, marks them exported with the shared
// timestamp and returns the dated filename plus the file bytes.
func (w *WorkflowUsecase) Export(ctx context.Context, ids []string, format string) (string, []byte, error) {
	selected, err := w.selectForExport(ctx, ids)
	if err != nil {
		return "", nil, err
	}
	if len(selected) == 0 {
		return "", nil, fmt.Errorf("nothing to export: %w", domain.ErrListingNotFound)
	}

	exportedAt := w.now()
	var filename, payload string
	switch strings.ToLower(format) {
	case "csv":
		filename = sixbit.CSVFilename(exportedAt)
		payload = sixbit.GenerateCSV(selected)
	case "xml":
		filename = sixbit.XMLFilename(exportedAt)
		payload = sixbit.GenerateXML(selected, exportedAt)
	default:
		return "", nil, fmt.Errorf("unsupported export format %q", format)
	}

	exportedIDs := make([]string, 0, len(selected))
	for _, l := range selected {
		exportedIDs = append(exportedIDs, l.ID)
	}
	if err := w.listings.MarkExported(ctx, exportedIDs, exportedAt); err != nil {
		return "", nil, err
	}

	w.publish(ctx, EventListingExported, map[string]interface{}{
		"ids":      exportedIDs,
		"filename": filename,
	})
	if w.mailer != nil {
		if err := w.mailer.SendExportSummary(filename, len(selected)); err != nil {
			w.logger.Warn("WorkflowUsecase.Export: summary email failed", "error", err.Error())
		}
	}
	w.logger.Info("WorkflowUsecase.Export: export generated", "filename", filename, "count", len(selected))
	return filename, []byte(payload), nil
}

func (w *WorkflowUsecase) selectForExport(ctx context.Context, ids []string) ([]*domain.Listing, error) {
	if len(ids) == 0 {
		all, err := w.listings.ListListings(ctx)
		if err != nil {
			return nil, err
		}
		approved := make([]*domain.Listing, 0, len(all))
		for _, l := range all {
			if l.Status == domain.StatusApproved {
				approved = append(approved, l)
			}
		}
		return approved, nil
	}

	selected := make([]*domain.Listing, 0, len(ids))
	for _, id := range ids {
		l, err := w.listings.GetListing(ctx, id)
		if err != nil {
			return nil, err
		}
		// Pending listings never export; they must pass review first.
		// Already-exported listings may be re-exported.
		if l.Status != domain.StatusApproved && l.Status != domain.StatusExported {
			return nil, fmt.Errorf("%w: listing %s is %s, only approved listings export",
				domain.ErrInvalidStatusChange, id, l.Status)
		}
		selected = append(selected, l)
	}
	return selected, nil
}

// beginAnalysis claims the single in-flight extraction slot and resolves the
// image URLs to send. The returned release func must be deferred.
func (w *WorkflowUsecase) beginAnalysis(images []domain.ListingImage) ([]string, func(), error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.analyzing {
		return nil, nil, domain.ErrAnalysisInFlight
	}
	if len(images) == 0 {
		return nil, nil, domain.ErrNoImages
	}
	w.analyzing = true
	urls := make([]string, 0, len(images))
	for _, img := range images {
		urls = append(urls, img.URL)
	}
	release := func() {
		w.mu.Lock()
		w.analyzing = false
		w.mu.Unlock()
	}
	return urls, release, nil
}

// adoptAnalysis replaces the snapshot when the result carries one. Degraded
// results (nil, or ParseFailed with raw text only) leave the previous
// snapshot in place.
func (w *WorkflowUsecase) adoptAnalysis(ctx context.Context, result *domain.ExtractionResult) {
	if result == nil || result.Analysis == nil {
		return
	}
	w.mu.Lock()
	w.analysis = result.Analysis.Clone()
	w.mu.Unlock()
	if err := w.session.SaveAnalysis(ctx, result.Analysis); err != nil {
		w.logger.Warn("WorkflowUsecase.adoptAnalysis: failed to persist snapshot", "error", err.Error())
	}
}

func (w *WorkflowUsecase) publish(ctx context.Context, subject string, data interface{}) {
	if err := w.events.Publish(ctx, subject, data); err != nil {
		w.logger.Warn("WorkflowUsecase.publish: event delivery failed", "subject", subject, "error", err.Error())
	}
}

func missingRequiredFields(l *domain.Listing) []string {
	var missing []string
	for _, f := range requiredFields {
		if strings.TrimSpace(f.value(l)) == "" {
			missing = append(missing, f.label)
		}
	}
	return missing
}
