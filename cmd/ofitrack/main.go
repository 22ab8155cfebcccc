// Command ofitrack runs the office-memo tracking API and its maintenance
// tasks.
//
//	@title						Ofitrack API
//	@version					1.0
//	@description				Office memo tracking: memos, forums, messages, notifications and documents.
//	@BasePath					/api
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
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

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/ofitrack/ofitrack-backend/internal/config"
	httpapi "github.com/ofitrack/ofitrack-backend/internal/http"
	"github.com/ofitrack/ofitrack-backend/internal/observability"
	"github.com/ofitrack/ofitrack-backend/internal/repo"
	"github.com/ofitrack/ofitrack-backend/internal/services"
	"github.com/ofitrack/ofitrack-backend/internal/storage"
	"github.com/ofitrack/ofitrack-backend/internal/sysutil"
)

var version = "dev"

var envFiles []string

var rootCmd = &cobra.Command{
	Use:               "ofitrack",
	Short:             "Office memo tracking backend",
	SilenceUsage:      true,
	PersistentPreRunE: loadEnv,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Migrate the schema and load the office catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		setupLogging(cfg)
		db, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeDB(db)
		log.Info().Str("driver", cfg.DB.Driver).Msg("schema migrated, offices seeded")
		return nil
	},
}

var newUser struct {
	ci, username, password string
	firstName, lastName    string
	office, role           string
}

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create an account, including ADMINs, without going through the API",
	RunE:  runCreateUser,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load before reading the environment (default .env when present)")

	f := createUserCmd.Flags()
	f.StringVar(&newUser.ci, "ci", "", "national id")
	f.StringVar(&newUser.username, "username", "", "login name")
	f.StringVar(&newUser.password, "password", "", "password, at least 8 characters")
	f.StringVar(&newUser.firstName, "first-name", "", "first name")
	f.StringVar(&newUser.lastName, "last-name", "", "last name")
	f.StringVar(&newUser.office, "office", "", "office id, e.g. 110")
	f.StringVar(&newUser.role, "role", "USER", "USER or ADMIN")
	for _, name := range []string{"ci", "username", "password", "office"} {
		_ = createUserCmd.MarkFlagRequired(name)
	}

	rootCmd.AddCommand(serveCmd, seedCmd, createUserCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// loadEnv applies dotenv files without overriding variables already set.
func loadEnv(cmd *cobra.Command, args []string) error {
	if len(envFiles) > 0 {
		return godotenv.Load(envFiles...)
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func setupLogging(cfg config.Config) {
	sysutil.SetLogLevel(cfg.LogLevel)
	log.Logger = sysutil.NewLogger(os.Stderr, cfg.LogPretty,
		sysutil.FirstNonEmpty(cfg.OTEL.ServiceName, observability.DefaultServiceName))
	zerolog.DefaultContextLogger = &log.Logger
}

func openDB(ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	dsn := cfg.DB.Path
	if cfg.DB.Driver == "postgres" {
		dsn = cfg.DB.URL
	}
	db, err := repo.Open(cfg.DB.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DB.Driver, err)
	}
	if cfg.DB.Trace {
		if err := repo.Instrument(db); err != nil {
			closeDB(db)
			return nil, fmt.Errorf("instrument db: %w", err)
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := repo.SeedOffices(ctx, db); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("seed offices: %w", err)
	}
	return db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	if cfg.Auth.JWTSecret == "" {
		// Tokens stop verifying after a restart.
		cfg.Auth.JWTSecret = uuid.NewString() + uuid.NewString()
		log.Warn().Msg("JWT_SECRET not set, using an ephemeral signing key")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)

	store, err := storage.NewLocalStore(cfg.Uploads.Dir)
	if err != nil {
		return fmt.Errorf("upload dir: %w", err)
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, store, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("base_path", cfg.APIBasePath).Str("version", version).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.WriteTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

func runCreateUser(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	db, err := openDB(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)

	accounts := httpapi.NewAccountService(db, cfg)
	u, err := accounts.Register(cmd.Context(), nil, services.RegisterInput{
		CI:        newUser.ci,
		Username:  newUser.username,
		Password:  newUser.password,
		FirstName: newUser.firstName,
		LastName:  newUser.lastName,
		Role:      newUser.role,
		OfficeID:  newUser.office,
	}, true)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) in office %s, role %s\n", u.Username, u.ID, u.OfficeID, u.Role)
	return nil
}
