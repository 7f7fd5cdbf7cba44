// Command lister wires the listing engine and exposes the non-interactive
// operations: inspecting the record store and generating SixBit export files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mtm-trainworks/listing-engine/internal/adapter/extractor/gemini"
	"github.com/mtm-trainworks/listing-engine/internal/adapter/messaging/nats"
	"github.com/mtm-trainworks/listing-engine/internal/adapter/repository/bolt"
	"github.com/mtm-trainworks/listing-engine/internal/adapter/repository/cache"
	"github.com/mtm-trainworks/listing-engine/internal/adapter/repository/mongodb"
	"github.com/mtm-trainworks/listing-engine/internal/adapter/storage/s3"
	"github.com/mtm-trainworks/listing-engine/internal/config"
	"github.com/mtm-trainworks/listing-engine/internal/listing/domain"
	"github.com/mtm-trainworks/listing-engine/internal/listing/usecase"
	"github.com/mtm-trainworks/listing-engine/internal/mailer"
	"github.com/mtm-trainworks/listing-engine/internal/platform/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.NewLogger()
	ctx := context.Background()

	// The session store is always the local bolt file: staged uploads belong
	// to this machine even when listings live in mongo.
	store, err := bolt.Open(cfg.BoltPath)
	if err != nil {
		return fmt.Errorf("failed to open local store %s: %w", cfg.BoltPath, err)
	}
	defer store.Close()

	repo, cleanup, err := buildListingRepo(ctx, cfg, store, log)
	if err != nil {
		return err
	}
	defer cleanup()

	wf, listings := buildWorkflow(cfg, repo, store, log)
	if err := wf.Restore(ctx); err != nil {
		log.Warn("failed to restore previous session", "error", err.Error())
	}

	if len(args) == 0 {
		usage()
		return nil
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "stats":
		return runStats(ctx, listings)
	case "list":
		return runList(ctx, listings)
	case "export":
		return runExport(ctx, wf, rest)
	case "clear":
		return runClear(ctx, wf, rest)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func buildListingRepo(ctx context.Context, cfg *config.Config, store *bolt.Store, log *logger.Logger) (domain.ListingRepository, func(), error) {
	cleanup := func() {}
	if cfg.StoreBackend != config.BackendMongo {
		return store, cleanup, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	cleanup = func() {
		_ = client.Disconnect(context.Background())
	}

	var repo domain.ListingRepository = mongodb.NewListingRepository(client.Database(cfg.MongoDB))
	if cfg.RedisAddress != "" {
		cached, err := cache.NewCachedRepository(repo, cfg.RedisAddress)
		if err != nil {
			log.Warn("redis cache unavailable, using the backing store directly", "error", err.Error())
		} else {
			repo = cached
		}
	}
	return repo, cleanup, nil
}

func buildWorkflow(cfg *config.Config, repo domain.ListingRepository, store *bolt.Store, log *logger.Logger) (*usecase.WorkflowUsecase, *usecase.ListingUsecase) {
	var storage usecase.Storage
	if cfg.MinIOEnabled {
		s3Storage, err := s3.NewS3Storage(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL, log)
		if err != nil {
			log.Warn("blob store unavailable, images will be kept inline", "error", err.Error())
		} else {
			storage = s3Storage
		}
	}

	var geminiOpts []gemini.Option
	if cfg.GeminiModel != "" {
		geminiOpts = append(geminiOpts, gemini.WithModel(cfg.GeminiModel))
	}
	analyzer := gemini.NewClient(cfg.GeminiAPIKey, log, geminiOpts...)

	listings := usecase.NewListingUsecase(repo, log)
	ingest := usecase.NewIngestUsecase(storage, store, log)

	opts := []usecase.WorkflowOption{
		usecase.WithRole(usecase.Role(cfg.Role)),
		usecase.WithVendor(cfg.VendorName),
	}
	if cfg.NATSURL != "" {
		pub, err := nats.NewPublisher(cfg.NATSURL)
		if err != nil {
			log.Warn("event broker unavailable, lifecycle events disabled", "error", err.Error())
		} else {
			opts = append(opts, usecase.WithPublisher(pub))
		}
	}
	if cfg.SMTPEmail != "" && cfg.ExportEmailTo != "" {
		opts = append(opts, usecase.WithMailer(
			mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPEmail, cfg.SMTPPassword, cfg.ExportEmailTo)))
	}

	wf := usecase.NewWorkflowUsecase(listings, ingest, store, analyzer, log, opts...)
	return wf, listings
}

func runStats(ctx context.Context, listings *usecase.ListingUsecase) error {
	stats, err := listings.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("total:           %d\n", stats.Total)
	fmt.Printf("pending:         %d\n", stats.Pending)
	fmt.Printf("approved:        %d\n", stats.Approved)
	fmt.Printf("exported:        %d\n", stats.Exported)
	fmt.Printf("today processed: %d\n", stats.TodayProcessed)
	fmt.Printf("today approved:  %d\n", stats.TodayApproved)
	return nil
}

func runList(ctx context.Context, listings *usecase.ListingUsecase) error {
	all, err := listings.ListListings(ctx)
	if err != nil {
		return err
	}
	for _, l := range all {
		fmt.Printf("%-12s %-10s %s\n", l.SKU, l.Status, l.Title)
	}
	return nil
}

func runExport(ctx context.Context, wf *usecase.WorkflowUsecase, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	format := fs.String("format", "csv", "export format: csv or xml")
	idsFlag := fs.String("ids", "", "comma-separated listing ids; empty exports all approved listings")
	outDir := fs.String("out", ".", "directory to write the export file to")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var ids []string
	if *idsFlag != "" {
		ids = strings.Split(*idsFlag, ",")
	}

	filename, data, err := wf.Export(ctx, ids, *format)
	if err != nil {
		return err
	}
	path := filepath.Join(*outDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	fmt.Println("wrote", path)
	return nil
}

func runClear(ctx context.Context, wf *usecase.WorkflowUsecase, args []string) error {
	fs := flag.NewFlagSet("clear", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "confirm wiping every listing and the SKU counter")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := wf.ClearAll(ctx, *yes); err != nil {
		if errors.Is(err, domain.ErrNotConfirmed) {
			return fmt.Errorf("refusing to wipe data without --yes")
		}
		return err
	}
	fmt.Println("all listings and session data cleared")
	return nil
}

func usage() {
	fmt.Println(`usage: lister <command> [flags]

commands:
  stats    show record store counts
  list     list stored listings
  export   generate a SixBit export file (-format csv|xml, -ids, -out)
  clear    wipe all data (--yes required)`)
}
