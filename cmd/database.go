package cmd

import (
	"fmt"
	"log/slog"

	"github.com/frahmantamala/recognition-portal/internal"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// sqlxDriverName maps the configured driver to the database/sql driver gorm
// registers underneath, which sqlx uses to pick its bind variables.
var sqlxDriverName = map[string]string{
	internal.DatabaseDriverPostgres: "pgx",
	internal.DatabaseDriverSQLite:   "sqlite3",
}

type database struct {
	Gorm *gorm.DB
	SQLX *sqlx.DB
}

func (d *database) Close() error {
	return d.SQLX.Close()
}

// openDatabase opens one pool and exposes it through both gorm and sqlx.
func openDatabase(cfg internal.DatabaseConfig, lg *slog.Logger) (*database, error) {
	var dialector gorm.Dialector
	switch cfg.DriverName() {
	case internal.DatabaseDriverSQLite:
		dialector = sqlite.Open(cfg.GetDSN())
	default:
		dialector = postgres.Open(cfg.GetDSN())
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.DriverName(), err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.DriverName() == internal.DatabaseDriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	lg.Info("database connected", "driver", cfg.DriverName())

	return &database{
		Gorm: gdb,
		SQLX: sqlx.NewDb(sqlDB, sqlxDriverName[cfg.DriverName()]),
	}, nil
}
