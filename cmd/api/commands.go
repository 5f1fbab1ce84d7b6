package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"github.com/yigit/knowledgemap/internal/bootstrap"
	"github.com/yigit/knowledgemap/internal/config"
	"github.com/yigit/knowledgemap/internal/db"
	"github.com/yigit/knowledgemap/internal/pkg/helpers"
	"github.com/yigit/knowledgemap/internal/seed"
	"github.com/yigit/knowledgemap/internal/server"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
	if err != nil {
		return err
	}

	srv, err := server.NewServer(cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize server")
		return err
	}

	if err := srv.Run(); err != nil {
		lgr.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		return err
	}

	lgr.Info().Msg("Application finished gracefully.")
	return nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
			if err != nil {
				return err
			}
			if cfg.Database.Driver != config.DriverPostgres {
				return errors.New("migrate requires the postgres driver")
			}

			database, err := db.NewPostgresDB(cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			return bootstrap.RunMigrations(cmd.Context(), database, lgr)
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default course catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
			if err != nil {
				return err
			}
			cfg.Database.Seed = false

			ctx := cmd.Context()
			deps, err := bootstrap.BuildDependencies(ctx, cfg, lgr)
			if err != nil {
				return err
			}
			defer deps.Storage.Close()

			ctx, cancel := context.WithTimeout(ctx, helpers.ParseDuration(cfg.Database.QueryTimeout, 30*time.Second))
			defer cancel()

			created, err := seed.CreateDefaultData(ctx, deps.CourseService, lgr)
			lgr.Info().Int("created", created).Msg("Seeding finished")
			return err
		},
	}
}
