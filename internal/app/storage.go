package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/ctf-scoreboard/internal/config"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/access"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/attempt"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/hint"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/team"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/timer"
	"github.com/riskibarqy/ctf-scoreboard/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/ctf-scoreboard/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/ctf-scoreboard/internal/platform/logging"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

// repositories is the storage backend selected by STORAGE_DRIVER.
type repositories struct {
	teams    team.Repository
	attempts attempt.Repository
	hints    hint.Repository
	access   access.Repository
	timers   timer.Repository
	close    func() error
}

func openRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		logger.Warn("using in-memory storage, data is lost on restart")
		return memoryRepositories(memory.NewDatabase()), nil
	case config.StorageJSONFile:
		persister, err := memory.NewJSONFilePersister(cfg.DataDir)
		if err != nil {
			return repositories{}, fmt.Errorf("create json file persister: %w", err)
		}
		db, err := memory.Open(ctx, persister)
		if err != nil {
			return repositories{}, fmt.Errorf("open json file storage: %w", err)
		}
		logger.Info("json file storage ready", "data_dir", cfg.DataDir)
		return memoryRepositories(db), nil
	case config.StoragePostgres:
		db, err := openPostgres(ctx, cfg)
		if err != nil {
			return repositories{}, err
		}
		logger.Info("postgres storage ready", "db_name", postgresDBName(cfg.DBURL))
		return repositories{
			teams:    postgres.NewTeamRepository(db),
			attempts: postgres.NewAttemptRepository(db),
			hints:    postgres.NewHintRepository(db),
			access:   postgres.NewAccessRepository(db),
			timers:   postgres.NewTimerRepository(db),
			close:    db.Close,
		}, nil
	default:
		return repositories{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

func memoryRepositories(db *memory.Database) repositories {
	return repositories{
		teams:    memory.NewTeamRepository(db),
		attempts: memory.NewAttemptRepository(db),
		hints:    memory.NewHintRepository(db),
		access:   memory.NewAccessRepository(db),
		timers:   memory.NewTimerRepository(db),
		close:    func() error { return nil },
	}
}

func openPostgres(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	dsn, err := postgresDSN(cfg.DBURL, cfg.ServiceName, cfg.DBDisablePreparedBinary)
	if err != nil {
		return nil, err
	}

	opts := []otelsql.Option{
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	}
	if name := postgresDBName(dsn); name != "" {
		opts = append(opts, otelsql.WithDBName(name))
	}

	db, err := otelsqlx.Open("postgres", dsn, opts...)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}
