package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/lop-gin/janus/internal"
	"github.com/lop-gin/janus/internal/activity"
	activityPostgres "github.com/lop-gin/janus/internal/activity/postgres"
	"github.com/lop-gin/janus/internal/auth"
	authPostgres "github.com/lop-gin/janus/internal/auth/postgres"
	"github.com/lop-gin/janus/internal/authstore"
	"github.com/lop-gin/janus/internal/invitation"
	invitationPostgres "github.com/lop-gin/janus/internal/invitation/postgres"
	"github.com/lop-gin/janus/internal/permission"
	permissionPostgres "github.com/lop-gin/janus/internal/permission/postgres"
	"github.com/lop-gin/janus/internal/role"
	rolePostgres "github.com/lop-gin/janus/internal/role/postgres"
	"github.com/lop-gin/janus/internal/transport/rest"
	"github.com/lop-gin/janus/internal/user"
	userPostgres "github.com/lop-gin/janus/internal/user/postgres"
	"github.com/lop-gin/janus/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	GormDB *gorm.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	log := deps.Logger

	storeClient := authstore.NewClient(authstore.Config{
		BaseURL:    deps.Config.AuthStore.BaseURL,
		ServiceKey: deps.Config.AuthStore.ServiceKey,
		AnonKey:    deps.Config.AuthStore.AnonKey,
		Timeout:    deps.Config.AuthStore.Timeout,
	}, log)

	activityRepo := activityPostgres.NewActivityRepository(deps.GormDB)
	activityService := activity.NewService(activityRepo, log)

	permissionRepo := permissionPostgres.NewPermissionRepository(deps.GormDB)
	permissionService := permission.NewService(permissionRepo, log)

	authRepo := authPostgres.NewAuthRepository(deps.GormDB)
	authService := auth.NewService(storeClient, authRepo, activityService, deps.Config.AuthStore.JWTSecret, log)
	authHandler := auth.NewHandler(authService)
	authz := auth.NewAuthorization(permissionService)

	userRepo := userPostgres.NewUserRepository(deps.GormDB)
	roleRepo := rolePostgres.NewRoleRepository(deps.GormDB)

	invitationRepo := invitationPostgres.NewInvitationRepository(deps.GormDB)
	invitationService := invitation.NewService(invitationRepo, userRepo, roleRepo, storeClient, activityService, log)
	invitationHandler := invitation.NewHandler(invitationService)

	roleService := role.NewService(roleRepo, activityService, log)
	roleHandler := role.NewHandler(roleService)

	userService := user.NewService(userRepo, activityService, log)
	userHandler := user.NewHandler(userService, invitationService)

	activityHandler := activity.NewHandler(activityService)

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB,
		authHandler, authz, invitationHandler, roleHandler, userHandler, activityHandler,
		deps.Config.Server.AllowedOrigins, log)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	return &Dependencies{
		Config: config,
		Logger: logger.L(),
		DB:     db,
		GormDB: gormDB,
		Router: chi.NewRouter(),
	}, nil
}

func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
