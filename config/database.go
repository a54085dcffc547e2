package config

import (
	"context"
	"fmt"

	"schikko/store"
	"schikko/store/mongostore"
	"schikko/store/sqlstore"
)

// OpenStore connects the backend selected by DBDriver.
func OpenStore(ctx context.Context, cfg *Config) (store.Store, error) {
	switch cfg.DBDriver {
	case DriverMongo:
		s, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		return s, nil
	case DriverSQLite:
		s, err := sqlstore.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.DBDriver)
	}
}
