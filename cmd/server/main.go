package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/anomaly/labs-api/internal/broker"
	"github.com/anomaly/labs-api/internal/common"
	"github.com/anomaly/labs-api/internal/config"
	"github.com/anomaly/labs-api/internal/db"
	appmiddleware "github.com/anomaly/labs-api/internal/middleware"
	"github.com/anomaly/labs-api/internal/routes"
	"github.com/anomaly/labs-api/internal/ws"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

func main() {
	defer func() {
		if err := common.Sync(); err != nil {
			appmiddleware.LogError(context.Background(), "logger sync error", err)
		}
	}()
	if err := common.Err(); err != nil {
		appmiddleware.LogError(context.Background(), "logger init error", err)
	}

	cfg := config.Load()

	// Any assembly failure below is fatal: a mis-configured application
	// must not start.
	database, err := db.Open(cfg.Database)
	if err != nil {
		appmiddleware.LogFatal(context.Background(), "database open failed", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			appmiddleware.LogError(context.Background(), "database close error", err)
		}
	}()

	taskBroker := broker.New(cfg.Broker)

	router := chi.NewRouter()
	router.Use(
		appmiddleware.Vary(),
		appmiddleware.CORS(cfg.API.AllowedOrigins),
		appmiddleware.RequestID(),
		// RealIP extracts client IP from X-Real-IP or X-Forwarded-For headers.
		// Only safe behind a trusted reverse proxy.
		chimiddleware.RealIP,
		chimiddleware.RequestSize(1<<20), // 1 MB limit
		appmiddleware.RequestLogger(),
		appmiddleware.AccessLogger(),
		appmiddleware.Recoverer(),
	)

	api := humachi.New(router, apiConfig(cfg))
	routes.Register(api, routes.Deps{
		AppName:  cfg.App.Name,
		Sessions: database,
		Events:   common.NewEmitter(),
	})
	// Run only after all routes have been added.
	routes.NormalizeOperationIDs(api)

	// The websocket endpoint lives outside the OpenAPI document.
	router.Get("/ws", ws.EchoHandler())

	// Startup hook: the API process owns the broker lifecycle; worker
	// processes manage their own connection.
	if !taskBroker.IsWorkerProcess() {
		startupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := taskBroker.Startup(startupCtx); err != nil {
			cancel()
			appmiddleware.LogFatal(context.Background(), "broker startup failed", err)
		}
		cancel()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    64 << 10, // 64 KB
	}

	listenErr := make(chan error, 1)
	go func() {
		appmiddleware.LogInfo(context.Background(), "server listening",
			zap.String("addr", srv.Addr), zap.String("docs", cfg.API.DocsPath))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			listenErr <- err
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-listenErr:
		appmiddleware.LogError(context.Background(), "listen failed", err, zap.String("addr", srv.Addr))
		os.Exit(1)
	case <-stop:
		appmiddleware.LogInfo(context.Background(), "shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appmiddleware.LogError(ctx, "server shutdown error", err)
	}

	// Shutdown hook, symmetric with startup.
	if !taskBroker.IsWorkerProcess() {
		if err := taskBroker.Shutdown(ctx); err != nil {
			appmiddleware.LogError(ctx, "broker shutdown error", err)
		}
	}
	appmiddleware.LogInfo(context.Background(), "server exited")
}

// apiConfig maps the loaded configuration onto the framework's constructor
// options: document metadata, docs path, tags, and the mount prefix.
func apiConfig(cfg config.Config) huma.Config {
	version := cfg.App.Version
	if version == "" {
		version = Version
	}
	hc := huma.DefaultConfig(cfg.App.Title, version)
	hc.DocsPath = cfg.API.DocsPath
	hc.Info.Description = cfg.App.Description
	hc.Info.TermsOfService = cfg.API.TermsOfService
	hc.Info.Contact = &huma.Contact{
		Name:  cfg.API.Contact.Name,
		URL:   cfg.API.Contact.URL,
		Email: cfg.API.Contact.Email,
	}
	hc.Info.License = &huma.License{
		Name: cfg.API.License.Name,
		URL:  cfg.API.License.URL,
	}
	for _, tag := range cfg.API.Tags {
		hc.Tags = append(hc.Tags, &huma.Tag{Name: tag.Name, Description: tag.Description})
	}
	if cfg.API.RootPath != "" {
		hc.Servers = []*huma.Server{{URL: cfg.API.RootPath}}
	}
	return hc
}
