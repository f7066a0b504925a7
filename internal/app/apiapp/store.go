package apiapp

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/neopath7/pethoria-matchpage-server/internal/config"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/model"
	memrepo "github.com/neopath7/pethoria-matchpage-server/internal/repo/memory"
	mongorepo "github.com/neopath7/pethoria-matchpage-server/internal/repo/mongo"
	pgrepo "github.com/neopath7/pethoria-matchpage-server/internal/repo/postgres"
	discoverysvc "github.com/neopath7/pethoria-matchpage-server/internal/services/discovery"
	geosvc "github.com/neopath7/pethoria-matchpage-server/internal/services/geo"
	matchessvc "github.com/neopath7/pethoria-matchpage-server/internal/services/matches"
	searchsvc "github.com/neopath7/pethoria-matchpage-server/internal/services/search"
	swipesvc "github.com/neopath7/pethoria-matchpage-server/internal/services/swipes"
	"github.com/neopath7/pethoria-matchpage-server/migrations"
)

// Store is the profile store every service runs against.
type Store interface {
	discoverysvc.ProfileStore
	searchsvc.ProfileStore
	matchessvc.ProfileStore
	swipesvc.ProfileStore
	geosvc.ProfileLocationSaver
	UpsertProfile(ctx context.Context, profile model.Profile) error
	Ping(ctx context.Context) error
}

// OpenStore connects the configured driver. The returned closer releases the
// underlying connection.
func OpenStore(ctx context.Context, cfg config.Config, log *zap.Logger) (Store, func(), error) {
	if log == nil {
		log = zap.NewNop()
	}

	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		log.Warn("using in-memory profile store, data is not persisted")
		return memrepo.NewStore(), func() {}, nil

	case config.StoreDriverPostgres:
		if cfg.Postgres.AutoMigrate {
			if err := migrations.Run(cfg.Postgres.DSN, log); err != nil {
				return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
			}
		}
		pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		return pgrepo.NewProfileStore(pool, cfg.Store.Timeout), pool.Close, nil

	case config.StoreDriverMongo:
		client, err := mongorepo.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, nil, err
		}
		coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
		if err := mongorepo.EnsureIndexes(ctx, coll); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		closer := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Warn("mongo disconnect failed", zap.Error(err))
			}
		}
		return mongorepo.NewProfileStore(coll, cfg.Store.Timeout), closer, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
