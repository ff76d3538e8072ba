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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/curalink/curalink-api/internal/config"
	"github.com/curalink/curalink-api/internal/handlers"
	"github.com/curalink/curalink-api/internal/logger"
	"github.com/curalink/curalink-api/internal/middleware"
	"github.com/curalink/curalink-api/internal/services"
	"github.com/curalink/curalink-api/internal/session"
	"github.com/curalink/curalink-api/internal/storage"
	"github.com/curalink/curalink-api/internal/store"
	"github.com/curalink/curalink-api/internal/utils"
)

const serviceName = "curalink-api"

func main() {
	rootCmd := &cobra.Command{
		Use:   "curalink",
		Short: "CuraLink healthcare portal API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
		SilenceUsage: true,
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
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the MongoDB indexes and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			client, db, err := connectMongo(ctx, cfg)
			if err != nil {
				return err
			}
			defer client.Disconnect(context.Background())

			if err := store.EnsureIndexes(ctx, db); err != nil {
				return err
			}
			log.Info("indexes created", zap.String("database", cfg.MongoDatabase))
			return nil
		},
	}
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, serviceName)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	if !cfg.DotEnvLoaded {
		log.Info("no .env file found, relying on environment variables")
	}
	return cfg, log, nil
}

func connectMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	return client, client.Database(cfg.MongoDatabase), nil
}

func newRevoker(ctx context.Context, cfg *config.Config, log *zap.Logger) (session.Revoker, func(), error) {
	if cfg.RedisURL == "" {
		log.Info("token revocation kept in memory")
		return session.NewMemoryRevoker(), func() {}, nil
	}
	r, err := session.NewRedisRevoker(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	log.Info("token revocation backed by redis")
	return r, func() { r.Close() }, nil
}

func newReportStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.ReportStore, error) {
	reports, err := storage.NewS3ReportStore(ctx, storage.S3Config{
		Bucket:        cfg.S3Bucket,
		Region:        cfg.AWSRegion,
		Endpoint:      cfg.S3Endpoint,
		PublicBaseURL: cfg.S3PublicBaseURL,
	})
	if errors.Is(err, storage.ErrNotConfigured) {
		log.Warn("S3_BUCKET not set, medical report uploads are disabled")
		return storage.Disabled{}, nil
	}
	if err != nil {
		return nil, err
	}
	return reports, nil
}

func runServer() error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// --- Infrastructure ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, db, err := connectMongo(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())
	log.Info("connected to MongoDB", zap.String("database", cfg.MongoDatabase))

	if err := store.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	revoker, closeRevoker, err := newRevoker(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeRevoker()

	reports, err := newReportStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	tokens, err := utils.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL())
	if err != nil {
		return err
	}

	// --- Services ---
	stores := store.New(db)
	notifier := services.NewNotificationService(cfg.TextbeltAPIKey, log)
	appointments := services.NewAppointmentService(stores.Appointments, stores.Doctors, stores.Users,
		stores.Patients, notifier, cfg.StrictBooking, log)

	doctors := services.NewDoctorService(stores.Doctors, stores.Users, stores.Patients, cfg.SearchLimit, log)
	h := handlers.NewHandler(handlers.Services{
		Auth:         services.NewAuthService(stores.Users, stores.Pharmacists, tokens, revoker, log),
		Doctors:      doctors,
		Appointments: appointments,
		Patients:     services.NewPatientService(stores.Patients, stores.Users, appointments, reports, log),
		Pharmacists:  services.NewPharmacistService(stores.Pharmacists, stores.Users, log),
		Students:     services.NewStudentService(stores.Students, stores.Users, log),

		MedicalRecords: services.NewMedicalRecordService(stores.MedicalRecords, doctors, log),
	}, log)

	// --- Router ---
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogger(log), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{handlers.AuthTokenHeader, middleware.RequestIDHeader},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	h.RegisterRoutes(r, middleware.AuthMiddleware(tokens, revoker))

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
