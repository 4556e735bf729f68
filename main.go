package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lintang-b-s/bike-route-planner/pkg/config"
	"github.com/lintang-b-s/bike-route-planner/pkg/logger"
	"github.com/lintang-b-s/bike-route-planner/pkg/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	envFile    string

	cfg *config.Config
	log *zap.Logger

	rootCmd = &cobra.Command{
		Use:           "bikeroute",
		Short:         "Fast and safe bicycle routes over a municipal street network",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}

			var err error
			log, err = logger.New()
			if err != nil {
				return err
			}
			cfg, err = config.Load(configPath)
			return err
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	rootCmd.AddCommand(buildCmd, routeCmd, infoCmd)
}

// openStore returns the configured graph store and a function releasing it.
func openStore(ctx context.Context) (storage.Store, func(), error) {
	switch cfg.Storage.Kind {
	case config.STORAGE_POSTGRES:
		pool, err := storage.Connect(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewPostgresStore(pool, log), pool.Close, nil
	default:
		return storage.NewFileStore(cfg.Storage.GraphPath), func() {}, nil
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if log != nil {
			log.Sync()
		}
		stop()
		os.Exit(1)
	}
	if log != nil {
		log.Sync()
	}
}
