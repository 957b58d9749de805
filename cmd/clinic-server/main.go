package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinisalud/api/internal/config"
	"github.com/clinisalud/api/internal/domain/blog"
	"github.com/clinisalud/api/internal/domain/catalog"
	"github.com/clinisalud/api/internal/domain/contact"
	"github.com/clinisalud/api/internal/domain/insurance"
	"github.com/clinisalud/api/internal/domain/scheduling"
	"github.com/clinisalud/api/internal/domain/settings"
	"github.com/clinisalud/api/internal/domain/staff"
	"github.com/clinisalud/api/internal/domain/testimonial"
	"github.com/clinisalud/api/internal/platform/auth"
	"github.com/clinisalud/api/internal/platform/blobstore"
	"github.com/clinisalud/api/internal/platform/cache"
	"github.com/clinisalud/api/internal/platform/db"
	"github.com/clinisalud/api/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Medical center API server",
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	var migrationsDir string
	cmd.PersistentFlags().StringVar(&migrationsDir, "dir", "migrations", "migrations directory")

	newMigrator := func() (*db.Migrator, error) {
		_ = godotenv.Load()
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		pool, err := db.NewPool(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		return db.NewMigrator(pool, migrationsDir), nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newMigrator()
			if err != nil {
				return err
			}
			n, err := m.Up(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("applied %d migration(s)\n", n)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newMigrator()
			if err != nil {
				return err
			}
			statuses, err := m.Status(context.Background())
			if err != nil {
				return err
			}
			for _, s := range statuses {
				state := "pending"
				if s.Applied {
					state = "applied"
				}
				fmt.Printf("%03d  %-40s %s\n", s.Version, s.Name, state)
			}
			return nil
		},
	})

	return cmd
}

func runServer() error {
	_ = godotenv.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Cache backend: Redis when configured, otherwise in-process memory.
	var store cache.Store
	if cfg.RedisURL != "" {
		redisStore, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisStore.Close()
		store = redisStore
		logger.Info().Msg("connected to redis")
	} else {
		mem := cache.NewMemory()
		mem.StartCleanup(ctx, time.Minute)
		store = mem
		logger.Info().Msg("using in-memory cache")
	}

	// Blob storage: MinIO when configured, otherwise in-process memory.
	var blobs blobstore.BlobStore
	if cfg.MinioEndpoint != "" {
		minioStore, err := blobstore.NewMinioStore(ctx, blobstore.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to object storage")
		}
		blobs = minioStore
		logger.Info().Str("bucket", cfg.MinioBucket).Msg("connected to object storage")
	} else {
		blobs = blobstore.NewMemory()
		logger.Info().Msg("using in-memory blob store")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	jwtCfg := auth.JWTConfig{Secret: []byte(cfg.JWTSecret), Issuer: "clinisalud"}

	public := e.Group("/api/v1")
	public.Use(middleware.RateLimit(rateLimitCfg))

	admin := e.Group("/api/v1/admin")
	admin.Use(middleware.RateLimit(rateLimitCfg))
	if cfg.IsDev() {
		admin.Use(auth.DevAuthMiddleware())
	} else {
		admin.Use(auth.JWTMiddleware(jwtCfg))
	}
	admin.Use(auth.RequireRole("admin"))

	auth.NewTokenHandler(jwtCfg, cfg.AdminUser, cfg.AdminPassHash).RegisterRoutes(public)

	// Repositories and services.
	staffSvc := staff.NewService(staff.NewDoctorRepoPG(pool), staff.NewSpecialtyRepoPG(pool))
	schedulingSvc := scheduling.NewService(
		pool,
		scheduling.NewScheduleRepoPG(pool),
		scheduling.NewExceptionRepoPG(pool),
		scheduling.NewDurationRepoPG(pool),
		scheduling.NewAppointmentRepoPG(pool),
		staffSvc,
		store,
		cfg.DefaultVisitMin,
		time.Duration(cfg.CacheTTLSeconds)*time.Second,
	)
	blogSvc := blog.NewService(blog.NewRepoPG(pool), store)
	catalogSvc := catalog.NewService(catalog.NewRepoPG(pool), store)
	testimonialSvc := testimonial.NewService(testimonial.NewRepoPG(pool), store)
	insuranceSvc := insurance.NewService(insurance.NewRepoPG(pool), store)
	contactSvc := contact.NewService(contact.NewRepoPG(pool))
	settingsSvc := settings.NewService(settings.NewRepoPG(pool))

	// Handlers.
	staff.NewHandler(staffSvc).RegisterRoutes(public, admin)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(public, admin)
	blog.NewHandler(blogSvc).RegisterRoutes(public, admin)
	catalog.NewHandler(catalogSvc).RegisterRoutes(public, admin)
	testimonial.NewHandler(testimonialSvc).RegisterRoutes(public, admin)
	insurance.NewHandler(insuranceSvc).RegisterRoutes(public, admin)
	contact.NewHandler(contactSvc).RegisterRoutes(public, admin)
	settings.NewHandler(settingsSvc).RegisterRoutes(public, admin)
	blobstore.NewHandler(blobs).RegisterRoutes(public, admin)

	e.GET("/health", db.HealthHandler(pool))

	// Start server with graceful shutdown.
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}
	logger.Info().Msg("server stopped cleanly")
	return nil
}
