// Command promote changes a user's role. There is no HTTP route for this, so
// the first administrator is created here.
//
//	promote -email alice@example.com
//	promote -email alice@example.com -role user
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"solarsmart/api/internal/config"
	"solarsmart/api/internal/database"
	"solarsmart/api/internal/log"
	"solarsmart/api/internal/models"
	"solarsmart/api/internal/repository"
	"solarsmart/api/internal/service"
)

func main() {
	email := flag.String("email", "", "email of the user to update")
	role := flag.String("role", string(models.UserRoleAdmin), "role to assign (admin or user)")
	flag.Parse()

	if *email == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := log.Component(log.New(cfg.Environment), "promote")

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer pool.Close()

	if err := database.Migrate(pool, logger); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply migrations")
	}

	users := service.NewUserService(repository.NewUserRepository(pool), repository.NewLoginRepository(pool))
	if err := users.SetRole(ctx, *email, models.UserRole(*role)); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			logger.Error().Str("email", *email).Msg("no user with that email")
		case errors.Is(err, service.ErrValidation):
			logger.Error().Str("role", *role).Msg("role must be admin or user")
		default:
			logger.Error().Err(err).Msg("update role failed")
		}
		pool.Close()
		os.Exit(1)
	}

	logger.Info().Str("email", *email).Str("role", *role).Msg("role updated")
}
