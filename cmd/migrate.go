package cmd

import (
	"context"
	"log"

	"github.com/frahmantamala/recognition-portal/db/migrations"
	"github.com/frahmantamala/recognition-portal/internal"
	"github.com/frahmantamala/recognition-portal/internal/core/datamodel"
	"github.com/frahmantamala/recognition-portal/pkg/logger"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run the embedded db migrations (sqlite databases are auto-migrated from the models)",
	}
	migrateRollback bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
}

func runMigration(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	lg := logger.LoggerWrapper()

	db, err := openDatabase(cfg.Database, lg)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if cfg.Database.DriverName() == internal.DatabaseDriverSQLite {
		if err := datamodel.AutoMigrate(db.Gorm); err != nil {
			log.Fatalf("auto migrate: %v", err)
		}
		lg.Info("sqlite schema migrated")
		return nil
	}

	goose.SetBaseFS(migrations.FS)
	goose.SetTableName("schema_migrations")
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("goose: %v", err)
	}

	if migrateRollback {
		if err := goose.DownContext(ctx, db.SQLX.DB, "."); err != nil {
			log.Fatalf("goose down: %v", err)
		}
		return nil
	}

	if err := goose.UpContext(ctx, db.SQLX.DB, "."); err != nil {
		log.Fatalf("goose up: %v", err)
	}

	return nil
}
