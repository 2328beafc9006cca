package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/frahmantamala/recognition-portal/internal/auth"
	"github.com/frahmantamala/recognition-portal/internal/core/clock"
	"github.com/frahmantamala/recognition-portal/internal/core/events"
	"github.com/frahmantamala/recognition-portal/internal/hierarchy"
	hierarchyPostgres "github.com/frahmantamala/recognition-portal/internal/hierarchy/postgres"
	"github.com/frahmantamala/recognition-portal/internal/user"
	userPostgres "github.com/frahmantamala/recognition-portal/internal/user/postgres"
	"github.com/frahmantamala/recognition-portal/pkg/logger"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "User administration commands",
}

var importUsersCmd = &cobra.Command{
	Use:   "import [file.csv]",
	Short: "Bulk import users from a CSV file",
	Long:  `Import users from a CSV with a header of username,email,name and optional title,department,manager_id,role columns. Rows that fail validation or collide with existing users are skipped and reported.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runImport(args[0])
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	Long:  `Administrators cannot be created through the API; this command is the only way to bootstrap one.`,
	Run: func(cmd *cobra.Command, args []string) {
		runCreateAdmin()
	},
}

var (
	importPassword string
	adminUsername  string
	adminEmail     string
	adminName      string
	adminPassword  string
)

func runImport(path string) {
	ctx := context.Background()
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	lg := logger.LoggerWrapper()

	password := importPassword
	if password == "" {
		password = cfg.Import.DefaultPassword
	}

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()

	rows, err := hierarchy.ParseCSV(f)
	if err != nil {
		log.Fatalf("failed to parse %s: %v", path, err)
	}

	db, err := openDatabase(cfg.Database, lg)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}
	defer db.Close()

	bus := events.NewEventBus(lg)
	bus.SubscribeAll(events.AuditHandler(lg))
	svc := hierarchy.NewService(
		hierarchyPostgres.NewStore(db.Gorm),
		cfg.Import.EffectiveBatchSize(),
		cfg.Security.BCryptCost,
		clock.System(),
		bus,
		lg,
	)

	summary, err := svc.BulkImport(ctx, rows, password)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}
	bus.Wait()

	fmt.Printf("Imported %d users, skipped %d\n", summary.InsertedCount, len(summary.Skipped))
	for _, s := range summary.Skipped {
		fmt.Printf("  row %d (%s): %s\n", s.Row, s.Username, s.Reason)
	}
}

func runCreateAdmin() {
	ctx := context.Background()
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	lg := logger.LoggerWrapper()

	if len(adminPassword) < 8 {
		log.Fatal("--password must be at least 8 characters")
	}

	db, err := openDatabase(cfg.Database, lg)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}
	defer db.Close()

	repo := userPostgres.NewUserRepository(db.Gorm)
	usernameTaken, emailTaken, err := repo.Taken(ctx, adminUsername, user.NormalizeEmail(adminEmail), 0)
	if err != nil {
		log.Fatalf("failed to check identity: %v", err)
	}
	if usernameTaken || emailTaken {
		log.Fatalf("username or email already in use")
	}

	hash, err := auth.HashPassword(adminPassword, cfg.Security.BCryptCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	u := &user.User{
		Username:     adminUsername,
		Email:        user.NormalizeEmail(adminEmail),
		Name:         adminName,
		Role:         user.RoleAdmin,
		PasswordHash: hash,
	}
	if err := repo.Create(ctx, u); err != nil {
		log.Fatalf("failed to create admin: %v", err)
	}

	lg.Info("admin created", "user_id", u.ID, "username", u.Username)
}

func init() {
	importUsersCmd.Flags().StringVar(&importPassword, "default-password", "", "initial password for imported users (defaults to import.default_password)")

	createAdminCmd.Flags().StringVar(&adminUsername, "username", "admin", "admin username")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email")
	createAdminCmd.Flags().StringVar(&adminName, "name", "Administrator", "admin display name")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")

	usersCmd.AddCommand(importUsersCmd)
	usersCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(usersCmd)
}
