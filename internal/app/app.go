// Package app wires configuration, storage, snapshots and logging into the
// operations the CLI and the API server run.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"channels-go/internal/api"
	"channels-go/internal/cache"
	"channels-go/internal/catalog"
	"channels-go/internal/config"
	"channels-go/internal/database"
	"channels-go/internal/database/sqlc"
	"channels-go/internal/encryption"
	"channels-go/internal/importer"
	"channels-go/internal/vault"

	"github.com/google/uuid"
)

// snapshotName is the vault entry holding the database snapshot.
const snapshotName = "db"

// Options tune how the app is built. The zero value is what the CLI uses.
type Options struct {
	Console  io.Writer // log mirror; os.Stderr when nil
	LogLevel slog.Leveler
	Clock    catalog.Clock
	IDs      catalog.IDGenerator
}

func (o *Options) console() io.Writer {
	if o == nil || o.Console == nil {
		return os.Stderr
	}
	return o.Console
}

// ChannelsApp is the application layer between the CLI and CatalogService.
// It constructs all dependencies from config, records mutating commands in
// the operation log and snapshots the database to the vault on Close.
type ChannelsApp struct {
	cfg       *config.Config
	db        *database.SQLiteDatabase
	vault     catalog.Vault     // nil when no vault is configured
	encryptor catalog.Encryptor // nil when snapshots are stored in plain
	cache     cache.Cache
	service   *catalog.CatalogService
	importer  *importer.Importer
	logger    *slog.Logger
	op        *Operation
	logFile   *os.File
}

// NewChannelsApp creates a fully wired ChannelsApp from the given config.
// operation names the CLI command being run (e.g. "CreateChannel", "Import").
// The caller must call Close when done.
func NewChannelsApp(ctx context.Context, cfg *config.Config, operation string, opts *Options) (*ChannelsApp, error) {
	if opts == nil {
		opts = &Options{}
	}

	runID := uuid.NewString()[:8]
	logger, logFile, err := newLogger(cfg.LogDir, runID, opts.console(), opts.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	a := &ChannelsApp{
		cfg:     cfg,
		logger:  logger,
		logFile: logFile,
		op:      NewOperation(operation),
	}
	if err := a.open(ctx, opts); err != nil {
		a.release()
		return nil, err
	}
	return a, nil
}

func (a *ChannelsApp) open(ctx context.Context, opts *Options) error {
	cfg := a.cfg

	if len(cfg.Vaults) > 0 {
		v, err := vault.NewVaultFromConfig(ctx, cfg.Vaults[0])
		if err != nil {
			return fmt.Errorf("creating vault: %w", err)
		}
		a.vault = v
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.InstanceID, opts.Clock, opts.IDs)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	a.db = db

	if err := db.CheckMigrations(); err != nil {
		return fmt.Errorf("database schema out of date (run `channels db migrate`): %w", err)
	}

	if err := a.checkSnapshotVersion(ctx); err != nil {
		return err
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	a.encryptor = enc

	c, err := cache.NewCacheFromConfig(ctx, cfg.Cache, a.Logger())
	if err != nil {
		return fmt.Errorf("creating cache: %w", err)
	}
	a.cache = c

	a.service = catalog.NewCatalogService(db, a.Logger())
	a.importer = importer.New(a.service, a.Logger())
	return nil
}

// checkSnapshotVersion refuses to run on a database older than the vault's snapshot.
func (a *ChannelsApp) checkSnapshotVersion(ctx context.Context) error {
	if a.vault == nil {
		return nil
	}

	remote, err := a.vault.GetSnapshotVersion(a.cfg.InstanceID, snapshotName)
	if err != nil {
		return fmt.Errorf("checking remote snapshot version: %w", err)
	}
	local, err := a.db.MaxOperationID(ctx)
	if err != nil {
		return fmt.Errorf("checking local operation log: %w", err)
	}

	if remote > local {
		return fmt.Errorf("local database is behind the vault (local=%d, remote=%d): run `channels db restore`", local, remote)
	}
	return nil
}

// Logger returns the app logger as a catalog.Logger.
func (a *ChannelsApp) Logger() catalog.Logger {
	return &slogAdapter{l: a.logger}
}

// persistOperation saves the operation to the database, giving it an id.
// Only mutating commands call it.
func (a *ChannelsApp) persistOperation(ctx context.Context, args ...string) error {
	if a.op.Persisted() {
		return nil
	}
	a.op.Parameters = strings.Join(args, " ")

	dbOp, err := a.db.CreateOperation(ctx, a.op.Operation, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.ID = dbOp.ID
	return nil
}

// invalidate drops the cached document of a channel after it changed.
func (a *ChannelsApp) invalidate(ctx context.Context, channel string) {
	a.cache.Delete(ctx, cache.ChannelKey(channel))
}

// CreateChannel creates an empty channel.
func (a *ChannelsApp) CreateChannel(ctx context.Context, name string) (*catalog.Channel, error) {
	if err := a.persistOperation(ctx, name); err != nil {
		return nil, err
	}
	ch, err := a.service.CreateChannel(ctx, name)
	if err != nil {
		return nil, a.op.Fail(err)
	}
	a.invalidate(ctx, ch.Name())
	return ch, nil
}

// ResetChannel removes every category of a channel, creating it if needed.
func (a *ChannelsApp) ResetChannel(ctx context.Context, name string) (*catalog.Channel, error) {
	if err := a.persistOperation(ctx, name); err != nil {
		return nil, err
	}
	ch, err := a.service.ResetChannel(ctx, name)
	if err != nil {
		return nil, a.op.Fail(err)
	}
	a.invalidate(ctx, ch.Name())
	return ch, nil
}

// AddCategory adds the path of segments to an existing channel and returns the deepest category.
func (a *ChannelsApp) AddCategory(ctx context.Context, channel string, segments []string) (*catalog.Category, error) {
	if err := a.persistOperation(ctx, append([]string{channel}, segments...)...); err != nil {
		return nil, err
	}
	ch, err := a.service.FindChannel(ctx, channel)
	if err != nil {
		return nil, a.op.Fail(err)
	}
	category, err := a.service.AddCategoryPath(ctx, ch, segments)
	if err != nil {
		return nil, a.op.Fail(err)
	}
	a.invalidate(ctx, ch.Name())
	return category, nil
}

// Import replaces the categories of a channel with the paths listed in file.
// An empty sep uses the configured separator.
func (a *ChannelsApp) Import(ctx context.Context, channel, file, sep string) (*importer.Result, error) {
	if sep == "" {
		sep = a.cfg.Import.Separator
	}
	if err := a.persistOperation(ctx, channel, file); err != nil {
		return nil, err
	}
	result, err := a.importer.Import(ctx, channel, file, sep)
	if err != nil {
		return nil, a.op.Fail(err)
	}
	a.invalidate(ctx, result.Channel.Name())
	return result, nil
}

// FindChannel looks a channel up by name, ignoring case.
func (a *ChannelsApp) FindChannel(ctx context.Context, name string) (*catalog.Channel, error) {
	return a.service.FindChannel(ctx, name)
}

// ListChannels returns every channel ordered by name.
func (a *ChannelsApp) ListChannels(ctx context.Context) ([]*catalog.Channel, error) {
	return a.service.ListChannels(ctx)
}

// ListCategoryPaths returns the category paths of a channel in document order.
func (a *ChannelsApp) ListCategoryPaths(ctx context.Context, channel *catalog.Channel) ([]string, error) {
	return a.service.ListCategoryPaths(ctx, channel)
}

// GetCategoryDetail loads a category by id.
func (a *ChannelsApp) GetCategoryDetail(ctx context.Context, id int64) (*catalog.CategoryDetail, error) {
	return a.service.GetCategoryDetail(ctx, id)
}

// FindCategoryDetail loads the first category named name inside channel.
func (a *ChannelsApp) FindCategoryDetail(ctx context.Context, channel, name string) (*catalog.CategoryDetail, error) {
	ch, err := a.service.FindChannel(ctx, channel)
	if err != nil {
		return nil, err
	}
	return a.service.FindCategoryDetail(ctx, ch, name)
}

// SearchChannels returns channels whose name contains keyword.
func (a *ChannelsApp) SearchChannels(ctx context.Context, keyword string) ([]*catalog.Channel, error) {
	return a.service.SearchChannels(ctx, keyword)
}

// SearchCategories returns categories whose name contains keyword.
func (a *ChannelsApp) SearchCategories(ctx context.Context, keyword string) ([]*catalog.Category, error) {
	return a.service.SearchCategories(ctx, keyword)
}

// ChannelOf returns the channel owning category.
func (a *ChannelsApp) ChannelOf(ctx context.Context, category *catalog.Category) (*catalog.Channel, error) {
	return a.service.ChannelOf(ctx, category)
}

// GetHistory returns the most recent operations.
func (a *ChannelsApp) GetHistory(ctx context.Context, limit int) ([]*sqlc.Operation, error) {
	return a.service.GetHistory(ctx, limit)
}

// Handler returns the read API.
func (a *ChannelsApp) Handler() http.Handler {
	return api.NewRouter(api.NewHandler(a.service, a.cache, a.Logger()))
}

// Serve runs the read API on addr until ctx is cancelled. An empty addr
// uses the configured one.
func (a *ChannelsApp) Serve(ctx context.Context, addr string) error {
	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	a.logger.Info("serving api", "addr", addr)
	if err := api.Serve(ctx, api.NewServer(addr, a.Handler())); err != nil {
		return fmt.Errorf("serving api: %w", err)
	}
	return nil
}

// Close finalizes the operation and closes all resources.
// For persisted operations it finishes the operation record and uploads a
// database snapshot versioned by the operation id. Read-only operations
// just close the database.
func (a *ChannelsApp) Close() error {
	var errs []error

	if a.op.Persisted() {
		ctx := context.Background()
		if err := a.db.FinishOperation(ctx, a.op.ID, a.op.Status); err != nil {
			errs = append(errs, fmt.Errorf("finishing operation: %w", err))
		}
		if a.vault != nil {
			if err := a.snapshot(a.op.ID); err != nil {
				errs = append(errs, err)
			}
		}
	}

	errs = append(errs, a.release())
	return errors.Join(errs...)
}

// release closes whatever open managed to create.
func (a *ChannelsApp) release() error {
	var errs []error
	if closer, ok := a.cache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing cache: %w", err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing database: %w", err))
		}
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return errors.Join(errs...)
}
