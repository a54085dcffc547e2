// Package sqlstore implements store.Store on gorm with the pure-Go SQLite
// driver. It is used for single-node deployments and in tests.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"schikko/models"
	"schikko/store"
)

var migrateModels = []any{
	&models.Person{},
	&models.StripeEvent{},
	&models.SchikkoTerm{},
	&models.Session{},
	&models.ThrottleAttempt{},
	&models.DrinkRequest{},
	&models.Rule{},
	&models.ActivityLog{},
	&models.Setting{},
}

type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// New opens (and creates if needed) the SQLite database at path.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if _, err := os.Stat(dir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
	}
	// WAL journal mode, wait for locks instead of failing with SQLITE_BUSY
	return open(fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path))
}

// NewMemory returns a store backed by a private in-memory database.
func NewMemory() (*Store, error) {
	return open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
}

func open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// One connection serializes writers and keeps in-memory databases alive.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	for _, m := range migrateModels {
		if err := db.AutoMigrate(m); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("migrate %T: %w", m, err)
		}
	}
	return &Store{db: db}, nil
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &Store{db: tx})
	})
}

func (s *Store) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) q(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// all matches every row; gorm refuses unconditioned deletes.
const all = "1 = 1"
