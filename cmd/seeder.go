package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	apperrors "github.com/frahmantamala/recognition-portal/internal"
	"github.com/frahmantamala/recognition-portal/internal/auth"
	"github.com/frahmantamala/recognition-portal/internal/core/clock"
	"github.com/frahmantamala/recognition-portal/internal/core/events"
	"github.com/frahmantamala/recognition-portal/internal/thanks"
	thanksPostgres "github.com/frahmantamala/recognition-portal/internal/thanks/postgres"
	"github.com/frahmantamala/recognition-portal/internal/user"
	userPostgres "github.com/frahmantamala/recognition-portal/internal/user/postgres"
	"github.com/frahmantamala/recognition-portal/pkg/logger"
	"github.com/spf13/cobra"
)

var seedPassword string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with a sample org chart",
	Long:  `Seed an admin, two managers, a handful of employees and some thanks for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		lg := logger.LoggerWrapper()

		db, err := openDatabase(cfg.Database, lg)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		hash, err := auth.HashPassword(seedPassword, cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}

		repo := userPostgres.NewUserRepository(db.Gorm)
		ensure := func(username, name string, role user.Role, managerID *int64) *user.User {
			existing, err := repo.GetByUsername(ctx, username)
			if err == nil {
				fmt.Println("user already exists:", username)
				return existing
			}
			if !errors.Is(err, apperrors.ErrUserNotFound) {
				log.Fatalf("failed to look up %s: %v", username, err)
			}
			u := &user.User{
				Username:     username,
				Email:        username + "@example.com",
				Name:         name,
				Role:         role,
				ManagerID:    managerID,
				PasswordHash: hash,
			}
			if err := repo.Create(ctx, u); err != nil {
				log.Fatalf("failed to insert %s: %v", username, err)
			}
			fmt.Println("Seeded user:", username)
			return u
		}

		ensure("admin", "Portal Admin", user.RoleAdmin, nil)
		director := ensure("dana", "Dana Director", user.RoleManager, nil)
		lead := ensure("lee", "Lee Lead", user.RoleManager, &director.ID)
		alex := ensure("alex", "Alex Engineer", user.RoleEmployee, &lead.ID)
		sam := ensure("sam", "Sam Engineer", user.RoleEmployee, &lead.ID)
		ensure("pat", "Pat Analyst", user.RoleEmployee, &director.ID)

		clk := clock.System()
		users := user.NewService(repo, cfg.Security.BCryptCost, clk, lg)
		bus := events.NewEventBus(lg)
		ledger := thanks.NewService(thanksPostgres.NewThanksRepository(db.Gorm), users, clk, bus, lg)

		samples := []struct {
			from, to *user.User
			message  string
		}{
			{alex, sam, "Thanks for pairing on the flaky test"},
			{sam, alex, "Great incident write-up"},
			{lead, alex, "Shipped the migration without downtime"},
		}
		for _, s := range samples {
			if _, err := ledger.Create(ctx, s.from.ID, thanks.CreateThanksDTO{ToID: s.to.ID, Message: s.message}); err != nil {
				log.Fatalf("failed to seed thanks: %v", err)
			}
		}
		bus.Wait()

		fmt.Println("Seeded sample thanks; approve them as", lead.Username)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedPassword, "password", "password123", "password for every seeded user")
}
