package factory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/psimmons86/playdates-server/internal/auth"
	"github.com/psimmons86/playdates-server/internal/config"
	"github.com/psimmons86/playdates-server/internal/notifier"
	"github.com/psimmons86/playdates-server/internal/store"
	mongostore "github.com/psimmons86/playdates-server/internal/store/mongo"
	pgstore "github.com/psimmons86/playdates-server/internal/store/postgres"
	sqlitestore "github.com/psimmons86/playdates-server/internal/store/sqlite"
)

// NewStore builds the store for the configured driver.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case "sqlite":
		log.Info().Str("path", cfg.SQLitePath).Msg("using sqlite store")
		return sqlitestore.New(cfg.SQLitePath)
	case "postgres":
		log.Info().Msg("using postgres store")
		db, err := pgstore.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := pgstore.EnsureSchema(db); err != nil {
			return nil, err
		}
		return pgstore.NewWithDB(db), nil
	case "mongo":
		log.Info().Str("database", cfg.MongoDatabase).Msg("using mongo store")
		return mongostore.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.StoreDriver)
	}
}

// NewAuthorizer selects JWT auth when a secret is configured and falls back
// to the dev authorizer otherwise. Config rejects the fallback in production.
func NewAuthorizer(cfg *config.Config, log zerolog.Logger) auth.Authorizer {
	if cfg.JWTSecret != "" {
		return auth.NewJWTAuthorizer(cfg.JWTSecret, "playdates")
	}
	log.Warn().Msg("no JWT secret configured; using dev authorizer")
	return auth.NewDevAuthorizer()
}

// NewNotifier builds the push notifier, or a noop when no gateway is set.
func NewNotifier(cfg *config.Config, log zerolog.Logger) notifier.Notifier {
	if cfg.PushGatewayURL == "" {
		return notifier.NoopNotifier{}
	}
	return notifier.NewGateway(cfg.PushGatewayURL, cfg.PushGatewayKey, log)
}
