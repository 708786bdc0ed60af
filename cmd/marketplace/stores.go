package main

import (
	"context"
	"fmt"
	"time"

	"github.com/devcodesfr/gameforgestudio-sub001/internal/config"
	"github.com/devcodesfr/gameforgestudio-sub001/internal/domain"
	"github.com/devcodesfr/gameforgestudio-sub001/internal/repository"
	"github.com/rs/zerolog"
)

type stores struct {
	carts   repository.CartStore
	catalog repository.CatalogStore
	ledger  repository.PurchaseLedger
	closers []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	if cfg.StorageBackend == config.BackendMemory {
		mem := repository.NewMemoryStore()
		seedMemoryCatalog(mem)
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		return &stores{carts: mem, catalog: mem, ledger: mem}, nil
	}

	st := &stores{}

	// Cart store
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	st.closers = append(st.closers, func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoDB.Client().Disconnect(disconnectCtx)
	})
	cartStore := repository.NewMongoCartStore(mongoDB)
	if err := cartStore.CreateIndexes(ctx); err != nil {
		st.close()
		return nil, fmt.Errorf("create cart indexes: %w", err)
	}
	st.carts = cartStore
	log.Info().Str("uri", cfg.MongoURI).Msg("connected to mongodb")

	// Catalog
	catalog, err := repository.NewSQLiteCatalogStore(cfg.CatalogDBPath)
	if err != nil {
		st.close()
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	st.closers = append(st.closers, func() { _ = catalog.Close() })
	if err := catalog.RunMigrations(cfg.CatalogMigrationsPath); err != nil {
		st.close()
		return nil, fmt.Errorf("migrate catalog: %w", err)
	}
	st.catalog = catalog
	log.Info().Str("path", cfg.CatalogDBPath).Msg("catalog ready")

	// Purchase ledger
	creds := &repository.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.LedgerMigrationsPath,
	}
	ledger, err := repository.NewPostgresLedger(creds)
	if err != nil {
		st.close()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	st.closers = append(st.closers, func() { _ = ledger.Close() })
	if err := ledger.RunMigrations(creds); err != nil {
		st.close()
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}
	st.ledger = ledger
	log.Info().Str("host", cfg.DBHost).Str("db", cfg.DBName).Msg("connected to postgres")

	return st, nil
}

// seedMemoryCatalog mirrors the rows seeded by the catalog migrations.
func seedMemoryCatalog(mem *repository.MemoryStore) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	for i, a := range []domain.CatalogAsset{
		{ID: "a1", Name: "Low-poly Forest Pack", Description: "Trees, rocks and foliage for stylised scenes", Price: 500, Thumbnail: "/thumbs/forest.png"},
		{ID: "a2", Name: "Sci-fi UI Kit", Description: "HUD frames, buttons and icons", Price: 1200, Thumbnail: "/thumbs/scifi-ui.png"},
		{ID: "a3", Name: "Footstep SFX", Description: "Forty footstep sounds on eight surfaces", Price: 299, Thumbnail: "/thumbs/footsteps.png"},
		{ID: "a4", Name: "Pixel Hero Sprites", Description: "Animated 32x32 character sheets", Price: 899, Thumbnail: "/thumbs/pixel-hero.png"},
	} {
		a.CreatedAt = base.Add(time.Duration(i) * day)
		mem.SetAsset(a)
	}

	for i, b := range []domain.CatalogBundle{
		{ID: "b1", Name: "Indie Starter Bundle", Description: "Forest pack, UI kit and footsteps", Price: 1599, Thumbnail: "/thumbs/starter.png"},
		{ID: "b2", Name: "Retro Bundle", Description: "Pixel sprites and chiptune loops", Price: 1299, Thumbnail: "/thumbs/retro.png"},
	} {
		b.CreatedAt = base.Add(time.Duration(4+i) * day)
		mem.SetBundle(b)
	}
}
