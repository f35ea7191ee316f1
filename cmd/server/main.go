package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/go-marketplace/internal/config"
	"github.com/diewo77/go-marketplace/internal/db"
	"github.com/diewo77/go-marketplace/internal/payments"
	"github.com/diewo77/go-marketplace/internal/policy"
	"github.com/diewo77/go-marketplace/internal/services"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// Load environment variables from .env file
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "marketplace",
		Short:        "Multi-tenant marketplace API",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), seedCmd(), createSuperuserCmd())
	return root
}

// env is what every subcommand needs: configuration, a logger and a database.
type env struct {
	cfg  *config.Config
	log  *zap.Logger
	conn *gorm.DB
}

func bootstrap() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg.App.Dev)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	conn, err := db.Open(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, conn: conn}, nil
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = e.log.Sync() }()

			if err := e.cfg.ValidateServe(); err != nil {
				return err
			}
			if err := db.Migrate(e.conn, e.cfg, e.log); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			if e.cfg.App.SeedFile != "" {
				if err := seedFrom(e, e.cfg.App.SeedFile); err != nil {
					return err
				}
			}
			if e.cfg.Payments.SecretKey == "" {
				e.log.Warn("STRIPE_SECRET_KEY is empty; checkout requests will fail")
			}

			provider := payments.NewStripe(e.cfg.Payments.SecretKey, e.cfg.Payments.WebhookSecret)
			srv := &http.Server{
				Addr:         ":" + e.cfg.Server.Port,
				Handler:      NewApp(e.conn, e.cfg, provider, e.log),
				ReadTimeout:  time.Duration(e.cfg.Server.ReadTimeout) * time.Second,
				WriteTimeout: time.Duration(e.cfg.Server.WriteTimeout) * time.Second,
				IdleTimeout:  time.Duration(e.cfg.Server.IdleTimeout) * time.Second,
			}
			return run(srv, time.Duration(e.cfg.Server.ShutdownTimeout)*time.Second, e.log)
		},
	}
}

// run serves until SIGINT or SIGTERM, then shuts down gracefully.
func run(srv *http.Server, grace time.Duration, log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped gracefully")
	return nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = e.log.Sync() }()
			if err := db.Migrate(e.conn, e.cfg, e.log); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			e.log.Info("migrations completed")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load users, stores and products from a YAML fixture file",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = e.log.Sync() }()
			if file == "" {
				file = e.cfg.App.SeedFile
			}
			if file == "" {
				return errors.New("no fixture file: pass --file or set SEED_FILE")
			}
			return seedFrom(e, file)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "fixture file (defaults to SEED_FILE)")
	return cmd
}

func seedFrom(e *env, file string) error {
	fixtures, err := db.LoadFixtures(file)
	if err != nil {
		return err
	}
	if err := db.Seed(e.conn, fixtures); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	e.log.Info("seed completed", zap.String("file", file))
	return nil
}

func createSuperuserCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create a staff superuser account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("SUPERUSER_PASSWORD")
			}
			if email == "" || password == "" {
				return errors.New("--email and --password (or SUPERUSER_PASSWORD) are required")
			}
			e, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = e.log.Sync() }()

			ids := policy.NewIdentityResolver(e.conn, e.cfg.Cache.IdentityTTL)
			users := services.NewUserService(e.conn, policy.NewEngine(e.log), ids)
			u, err := users.CreateSuperuser(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			e.log.Info("superuser created", zap.Uint("id", u.ID), zap.String("email", u.Email))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "superuser e-mail")
	cmd.Flags().StringVar(&password, "password", "", "superuser password")
	return cmd
}
