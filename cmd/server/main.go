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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"automation-console/backend/internal/api"
	"automation-console/backend/internal/auth"
	"automation-console/backend/internal/config"
	"automation-console/backend/internal/endpoints"
	"automation-console/backend/internal/logging"
	"automation-console/backend/internal/mcp"
	"automation-console/backend/internal/metrics"
	"automation-console/backend/internal/repository"
	"automation-console/backend/internal/services"
	"automation-console/backend/internal/telemetry"
	"automation-console/backend/internal/tls"
)

const serviceName = "automation-console"

func main() {
	var envFile string

	root := &cobra.Command{
		Use:           "server",
		Short:         "Automation console backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env", "", "Path to .env file")

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := load(envFile)
			if err != nil {
				return err
			}
			_, closeStore, err := repository.Open(cmd.Context(), "postgres", cfg.DSN(), true)
			if err != nil {
				return err
			}
			closeStore()
			logger.Info("Schema applied")
			return nil
		},
	})

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func load(envFile string) (*config.Config, *logging.Logger, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("configuration loading failed: %w", err)
	}
	return cfg, logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format), nil
}

func serve(ctx context.Context, envFile string) error {
	cfg, logger, err := load(envFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Configuration loaded",
		"environment", cfg.Environment,
		"db_driver", cfg.DB.Driver,
		"oidc_issuer", cfg.Auth.OktaDomain,
		"client_id", cfg.Auth.ClientID,
		"swagger_client_id", cfg.Auth.SwaggerClientID,
		"config_file", viper.ConfigFileUsed(),
	)
	if cfg.Auth.SwaggerClientID != "" && cfg.Auth.SwaggerClientID == cfg.Auth.ClientID {
		logger.Warn("Swagger client id matches the backend client id; PKCE login from the docs page will fail if the backend client requires a secret")
	}

	shutdownTracing, err := telemetry.Setup(serviceName, api.Version, cfg.Tracing.Stdout)
	if err != nil {
		return fmt.Errorf("tracing setup failed: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("tracer shutdown failed", "error", err)
		}
	}()

	store, closeStore, err := repository.Open(ctx, cfg.DB.Driver, cfg.DSN(), cfg.DB.Migrate)
	if err != nil {
		return fmt.Errorf("database initialization failed: %w", err)
	}
	defer closeStore()
	logger.Info("Store ready", "driver", cfg.DB.Driver)

	syncService := services.NewSyncService(store, services.NewHTTPWebhookClient(cfg.Webhook.Timeout), logger, cfg.Webhook.DatasetLimit)
	monitor := endpoints.NewMonitor(store.Endpoints, cfg.Endpoints.Timeout, logger)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.ErrorHandler(logger)
	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware(serviceName))
	e.Use(api.RequestMetrics())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	authz, err := auth.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("auth initialization failed: %w", err)
	}
	e.GET("/login", echo.WrapHandler(http.HandlerFunc(authz.LoginHandler)))
	e.GET("/auth/callback", echo.WrapHandler(http.HandlerFunc(authz.CallbackHandler)))
	e.GET("/logout", echo.WrapHandler(http.HandlerFunc(authz.LogoutHandler)))

	apiServer := api.NewServer(api.Deps{Store: store, Sync: syncService, Endpoints: monitor, Logger: logger})
	e.GET("/healthz", apiServer.HandleHealth)
	apiGroup := e.Group("/api/v1", echo.WrapMiddleware(authz.RequireAuth), api.RequireWriteScope())
	apiServer.Register(apiGroup)
	logger.Info("REST API handlers mounted")

	mcpServer := mcp.NewServer(store, monitor, api.Version, logger)
	mcpHandlers := http.NewServeMux()
	mcp.MountHTTPHandlers(mcpHandlers, mcpServer.GetMCPServer())
	mcpAuth := echo.WrapMiddleware(authz.RequireAuth)
	e.Any("/mcp", echo.WrapHandler(mcpHandlers), mcpAuth)
	e.Any("/mcp/*", echo.WrapHandler(mcpHandlers), mcpAuth)
	logger.Info("MCP protocol handlers mounted")

	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.GET("/openapi.yaml", echo.WrapHandler(api.SpecHandler(cfg.Auth.OktaDomain)))
	e.GET("/docs", echo.WrapHandler(api.SwaggerHandler(cfg.Auth.OktaDomain, cfg.Auth.SwaggerClientID)))
	e.GET("/docs/oauth2-redirect.html", echo.WrapHandler(http.HandlerFunc(api.OAuthRedirectHandler)))

	if cfg.TLS.Enable {
		if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
			return errors.New("TLS enabled but cert/key file not provided")
		}
		created, err := tls.EnsureCertificate(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.Hostnames)
		if err != nil {
			return fmt.Errorf("certificate setup failed: %w", err)
		}
		if created {
			logger.Warn("Generated a self-signed certificate", "cert", cfg.TLS.CertFile, "hosts", cfg.TLS.Hostnames)
		}
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "address", server.Addr, "tls", cfg.TLS.Enable)
		if cfg.TLS.Enable {
			serverErrors <- server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
			return
		}
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		logger.Info("Shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
			if err := server.Close(); err != nil {
				logger.Error("Server close error", "error", err)
			}
		}
		logger.Info("Server stopped gracefully")
	}
	return nil
}
