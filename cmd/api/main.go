package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/crypto/bcrypt"

	"busroot.app/docstore"
	"busroot.app/internal/app"
	"busroot.app/internal/appconf"
	"busroot.app/internal/auth"
	"busroot.app/internal/blobstore"
	"busroot.app/internal/fleet"
	"busroot.app/internal/logging"
	"busroot.app/internal/restapi"
	"busroot.app/internal/webui"
)

const sessionTTL = 12 * time.Hour

func main() {
	var (
		cfg          appconf.Config
		env          string
		configPath   string
		corsOrigins  string
		hashPassword bool
	)

	flag.IntVar(&cfg.Port, "port", 4000, "API server port")
	flag.StringVar(&env, "env", "development", "Environment (development|test|production)")
	flag.IntVar(&cfg.RateLimit, "rate-limit", 100, "Requests per second per client (-1 disables limiting)")
	flag.StringVar(&cfg.DBPath, "db", "busroot.db", "Path to the SQLite document store")
	flag.StringVar(&cfg.BlobDir, "blob-dir", "blobs", "Directory holding uploaded bus images")
	flag.StringVar(&cfg.BlobURL, "blob-url", "/blobs", "URL prefix under which uploaded images are served")
	flag.StringVar(&corsOrigins, "cors-origins", "", "Comma separated origins allowed to call the API (empty allows any)")
	flag.StringVar(&configPath, "config", "", "Optional YAML config file (admins, overrides)")
	flag.BoolVar(&hashPassword, "hash-password", false, "Read a password from stdin and print its bcrypt hash for the admins list")
	flag.Parse()

	if hashPassword {
		if err := printPasswordHash(os.Stdin, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cfg.Env = appconf.EnvFlagToEnvironment(env)
	if corsOrigins != "" {
		for _, origin := range strings.Split(corsOrigins, ",") {
			cfg.CORSOrigins = append(cfg.CORSOrigins, strings.TrimSpace(origin))
		}
	}

	logger := logging.NewLogger(os.Stdout, cfg.Env)
	slog.SetDefault(logger)

	if configPath != "" {
		loaded, err := appconf.LoadFile(configPath, cfg)
		if err != nil {
			logging.LogError(logger, "failed to load config", err, slog.String("path", configPath))
			os.Exit(1)
		}
		cfg = loaded
	}

	if err := run(cfg, logger); err != nil {
		logging.LogError(logger, "server stopped", err)
		os.Exit(1)
	}
}

// run wires the application together and serves until SIGINT or SIGTERM.
func run(cfg appconf.Config, logger *slog.Logger) error {
	if len(cfg.Admins) == 0 {
		logger.Warn("no admins configured; admin endpoints will reject every sign-in")
	}

	store, err := docstore.NewClient(docstore.NewConfig(cfg.DBPath, cfg.Env, cfg.Env == appconf.Development))
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}

	blobs, err := blobstore.NewFileStore(cfg.BlobDir, cfg.BlobURL)
	if err != nil {
		logging.SafeCloseWithLogging(store, logger, "close_document_store")
		return fmt.Errorf("open blob store: %w", err)
	}

	application := &app.Application{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Blobs:    blobs,
		Sessions: auth.NewSessions(sessionTTL, 10*time.Minute),
		Fleet:    fleet.NewManager(store, blobs, auth.NewProvider(store, bcrypt.DefaultCost), logger),
	}
	defer application.Shutdown()

	api := restapi.NewRestAPI(application)
	defer api.Close()

	router := httprouter.New()
	api.SetRoutes(router)
	if cfg.Env != appconf.Production {
		ui := &webui.WebUI{Application: application}
		ui.SetWebUIRoutes(router)
	}

	handler := restapi.CompressionMiddleware(router)
	handler = api.WithSecurityHeaders(handler)
	handler = restapi.NewCORSMiddleware(cfg.CORSOrigins)(handler)
	handler = restapi.NewRequestLoggingMiddleware(logger)(handler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Minute,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "env", cfg.Env.String())
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server shut down")
	return nil
}

func printPasswordHash(in io.Reader, out io.Writer) error {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	password := strings.TrimRight(line, "\r\n")
	if err := auth.ValidatePassword(password); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(hash))
	return err
}
