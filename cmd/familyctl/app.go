package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"familyplanner/internal/archive"
	"familyplanner/internal/config"
	"familyplanner/internal/database"
	"familyplanner/internal/identity"
	"familyplanner/internal/metrics"
	"familyplanner/internal/models"
	"familyplanner/internal/permissions"
	"familyplanner/internal/repository"
	"familyplanner/internal/schedule"
	"familyplanner/internal/service"
	"familyplanner/internal/session"
	"familyplanner/internal/store"
)

// app is one signed-in session: a loaded store, its resolver, and the
// coordinator that mutates it
type app struct {
	cfg         *config.Config
	loc         *time.Location
	now         func() time.Time
	db          *database.DB
	session     session.Provider
	account     *session.Account
	registry    *prometheus.Registry
	store       *store.Store
	resolver    *identity.Resolver
	coordinator *service.Coordinator
}

func openApp(ctx context.Context, cfg *config.Config, now func() time.Time) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	provider := session.NewTokenProvider(cfg.SessionSecret, cfg.SessionToken)
	account, err := provider.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.RunMigrations(ctx, cfg.MigrationsPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	registry := prometheus.NewRegistry()
	recorder, err := metrics.NewRecorder(registry)
	if err != nil {
		db.Close()
		return nil, err
	}

	st := store.New(repository.NewFamilyRepository(db, account.ID), recorder)
	resolver := identity.NewResolver(repository.NewSettingsRepository(db, account.ID))
	resolver.Watch(ctx, st)
	if err := st.LoadAll(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load family: %w", err)
	}

	return &app{
		cfg:         cfg,
		loc:         loc,
		now:         now,
		db:          db,
		session:     provider,
		account:     account,
		registry:    registry,
		store:       st,
		resolver:    resolver,
		coordinator: service.NewCoordinator(st, resolver),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// today returns the current instant in the configured location
func (a *app) today() time.Time {
	return a.now().In(a.loc)
}

// identity returns the acting member and its capabilities
func (a *app) identity() (*models.Member, permissions.Set) {
	return a.resolver.Active(), a.resolver.Permissions()
}

// visible returns the activities the acting member may see
func (a *app) visible() []models.Activity {
	active, perms := a.identity()
	return schedule.VisibleTo(active, perms, a.store.Activities())
}

// openArchive opens the S3 bucket configured for backups
func (a *app) openArchive(ctx context.Context) (*archive.Store, error) {
	if a.cfg.BackupBucket == "" {
		return nil, fmt.Errorf("BACKUP_S3_BUCKET is not set")
	}
	return archive.New(ctx, archive.Config{
		Bucket:    a.cfg.BackupBucket,
		Region:    a.cfg.BackupRegion,
		Endpoint:  a.cfg.BackupEndpoint,
		PathStyle: a.cfg.BackupPathStyle,
	})
}
