package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/emaximovel/agenda/internal/agenda"
	"github.com/emaximovel/agenda/internal/application"
	"github.com/emaximovel/agenda/internal/config"
	httptransport "github.com/emaximovel/agenda/internal/http"
	"github.com/emaximovel/agenda/internal/permission"
	"github.com/emaximovel/agenda/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to load .env file", "error", err)
	}

	app := &cli.App{
		Name:  "agenda",
		Usage: "API de agendamentos da imobiliária",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "inicia o servidor HTTP",
				Action: func(c *cli.Context) error {
					return runServe(c.Context, logger)
				},
			},
			{
				Name:  "migrate",
				Usage: "aplica o schema do banco de dados e encerra",
				Action: func(c *cli.Context) error {
					return runMigrate(c.Context, logger)
				},
			},
			{
				Name:  "seed-user",
				Usage: "cria uma conta de consultor ou administrador",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true, Usage: "e-mail da conta"},
					&cli.StringFlag{Name: "name", Required: true, Usage: "nome de exibição"},
					&cli.StringFlag{Name: "password", Required: true, Usage: "senha inicial"},
					&cli.StringFlag{Name: "role", Value: string(agenda.RoleConsultant), Usage: "admin, consultant ou broker"},
				},
				Action: func(c *cli.Context) error {
					return runSeedUser(c, logger)
				},
			},
		},
		DefaultCommand: "serve",
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func openStorage(ctx context.Context, logger *slog.Logger) (config.Config, *sqlite.Storage, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load configuration: %w", err)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("open storage: %w", err)
	}
	if err := storage.Migrate(ctx); err != nil {
		_ = storage.Close()
		return config.Config{}, nil, fmt.Errorf("apply migrations: %w", err)
	}

	logger.Info("storage ready", "dsn", cfg.SQLiteDSN)
	return cfg, storage, nil
}

func runMigrate(ctx context.Context, logger *slog.Logger) error {
	_, storage, err := openStorage(ctx, logger)
	if err != nil {
		return err
	}
	return storage.Close()
}

func runSeedUser(c *cli.Context, logger *slog.Logger) error {
	_, storage, err := openStorage(c.Context, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	role := agenda.Role(c.String("role"))
	switch role {
	case agenda.RoleAdmin, agenda.RoleConsultant, agenda.RoleBroker:
	default:
		return fmt.Errorf("papel inválido: %q", c.String("role"))
	}

	consultants := application.NewConsultantServiceWithLogger(storage, uuid.NewString, time.Now, logger)
	if err := consultants.CreateConsultant(c.Context, c.String("email"), c.String("name"), c.String("password"), role); err != nil {
		return err
	}
	logger.Info("account created", "email", c.String("email"), "role", string(role))
	return nil
}

func runServe(ctx context.Context, logger *slog.Logger) error {
	cfg, storage, err := openStorage(ctx, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	location, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	resolver := permission.Resolver{
		SuperAdminEmail: cfg.SuperAdminEmail,
		Location:        location,
	}
	now := time.Now

	consultantService := application.NewConsultantServiceWithLogger(storage, uuid.NewString, now, logger)
	appointmentService := application.NewAppointmentServiceWithLogger(storage, consultantService, resolver, uuid.NewString, now, logger)
	authService := application.NewAuthServiceWithLogger(storage, storage, nil, uuid.NewString, now, cfg.SessionTTL, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:         httptransport.NewAuthHandler(authService, logger),
		Appointments: httptransport.NewAppointmentHandler(appointmentService, logger),
		Consultants:  httptransport.NewConsultantHandler(consultantService, logger),
	})

	protected := httptransport.RequireSession(authService, logger)(router)
	handler := httptransport.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Session issuance stays open; everything else requires a token.
		if r.URL.Path == "/sessions" && r.Method == http.MethodPost {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("agenda API listening", "addr", server.Addr, "timezone", cfg.Timezone)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
