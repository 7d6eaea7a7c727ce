package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/mbeoliero/kit/log"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mbeoliero/parley/internal/config"
	"github.com/mbeoliero/parley/internal/entity"
	"github.com/mbeoliero/parley/internal/repository/zapadapter"
)

// Repositories holds all repositories
type Repositories struct {
	DB           *gorm.DB
	Redis        *redis.Client
	User         *UserRepo
	Conversation *ConversationRepo
	Message      *MessageRepo
	Reaction     *ReactionRepo
	Presence     *PresenceRepo
	Typing       *TypingRepo
	Receipt      *ReceiptRepo
}

// NewRepositories opens the configured database and, when enabled, Redis.
// SQL statements are logged through zl.
func NewRepositories(cfg *config.Config, zl *zap.Logger) (*Repositories, error) {
	db, err := openDB(cfg, zl)
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = initRedis(cfg)
	}

	repos := NewRepositoriesWithDB(db, rdb)

	if cfg.Database.AutoMigrate {
		if err := repos.Migrate(context.Background()); err != nil {
			return nil, err
		}
	}

	return repos, nil
}

// NewRepositoriesWithDB wires repositories over already opened handles.
// rdb may be nil.
func NewRepositoriesWithDB(db *gorm.DB, rdb *redis.Client) *Repositories {
	return &Repositories{
		DB:           db,
		Redis:        rdb,
		User:         NewUserRepo(db),
		Conversation: NewConversationRepo(db),
		Message:      NewMessageRepo(db),
		Reaction:     NewReactionRepo(db),
		Presence:     NewPresenceRepo(db),
		Typing:       NewTypingRepo(db),
		Receipt:      NewReceiptRepo(db),
	}
}

func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		return mysql.Open(cfg.DSN()), nil
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN()), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// openDB initializes the gorm connection
func openDB(cfg *config.Config, zl *zap.Logger) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	} else {
		logLevel = logger.Warn
	}

	d, err := dialector(&cfg.Database)
	if err != nil {
		return nil, err
	}

	gormLogger := logger.Default.LogMode(logLevel)
	if zl != nil {
		gormLogger = zapadapter.NewLogger(zl, logLevel)
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// SQLite allows a single writer. One pooled connection turns concurrent
	// writers into a queue instead of SQLITE_BUSY errors.
	if cfg.Database.Driver == config.DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// initRedis initializes Redis connection
func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// Migrate creates or updates every table
func (r *Repositories) Migrate(ctx context.Context) error {
	return r.DB.WithContext(ctx).AutoMigrate(
		&entity.User{},
		&entity.Conversation{},
		&entity.ConversationParticipant{},
		&entity.Message{},
		&entity.Reaction{},
		&entity.Presence{},
		&entity.TypingIndicator{},
		&entity.ReadReceipt{},
	)
}

// Close closes all connections
func (r *Repositories) Close() error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return err
	}
	if r.Redis == nil {
		return nil
	}
	return r.Redis.Close()
}

// Transaction executes fn in a transaction. Inside fn every query must go
// through tx.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.DB.WithContext(ctx).Transaction(fn)
}

// CheckConnection checks if database and redis connections are alive
func (r *Repositories) CheckConnection(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		log.CtxError(ctx, "database ping failed: %v", err)
		return err
	}

	if r.Redis == nil {
		return nil
	}
	if err := r.Redis.Ping(ctx).Err(); err != nil {
		log.CtxError(ctx, "redis ping failed: %v", err)
		return err
	}

	return nil
}

// conn returns tx when the caller runs inside a transaction, otherwise db
func conn(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
