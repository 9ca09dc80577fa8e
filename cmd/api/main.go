// Package main is the entrypoint for the BoardMates API server.
// The server authenticates requests, enforces role policy and exposes
// the user and organization directories over HTTP. All persistence
// goes through PostgreSQL; startup fails if the database is
// unreachable or a migration cannot be applied.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/boardmates/boardmates/internal/auth"
	"github.com/boardmates/boardmates/internal/bootstrap"
	"github.com/boardmates/boardmates/internal/config"
	"github.com/boardmates/boardmates/internal/observability"
	"github.com/boardmates/boardmates/internal/server"
	"github.com/boardmates/boardmates/internal/storage"
	"github.com/boardmates/boardmates/internal/users"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "boardmates-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Parse command line flags
	var (
		configPath = flag.String("config", "", "Path to config file (default: ~/.boardmates/config.yaml)")
		addr       = flag.String("addr", "", "HTTP listen address (overrides config)")
		workspace  = flag.String("workspace", "", "Workspace seed file applied on startup (overrides config)")
		devMode    = flag.Bool("dev", false, "Development mode (in-memory store, not for production)")
		showVer    = flag.Bool("version", false, "Show version")
	)
	flag.Parse()

	if *showVer {
		fmt.Printf("boardmates-api %s (commit: %s, built: %s)\n", version, commit, date)
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	debug := cfg.Logging.Level == "debug"
	logger, err := observability.NewLogger(debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	// Sessions need a signing secret; service accounts need static
	// tokens. At least one of the two must be configured or nobody
	// could ever authenticate.
	if cfg.Auth.JWTSecret == "" && len(cfg.Auth.StaticTokens) == 0 {
		return fmt.Errorf("authentication required: set auth.jwtSecret (or BOARDMATES_AUTH_JWTSECRET) or configure auth.staticTokens")
	}

	// Create repositories
	var (
		userRepo storage.UserRepository
		orgRepo  storage.OrganizationRepository
		audit    observability.AuditLogger
	)
	if *devMode {
		logger.Warn("development mode: using in-memory store, data is not persisted")
		store := storage.NewMockStore()
		userRepo = store
		orgRepo = store.Organizations()
		audit = observability.NewJSONLogger(os.Stdout)
	} else {
		db, err := storage.Open(storage.PostgresConfig{
			ConnectionString: cfg.Database.DSN(),
			MaxOpenConns:     25,
			MaxIdleConns:     5,
			ConnMaxLifetime:  5 * time.Minute,
		})
		if err != nil {
			return err
		}
		defer db.Close()

		// Verify connectivity before serving anything.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("PostgreSQL connectivity check failed: %w", err)
		}

		logger.Info("running database migrations")
		if err := storage.NewMigrationRunner(db).Run(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("database migrations completed")

		userRepo = storage.NewPostgresUserRepository(db)
		orgRepo = storage.NewPostgresOrganizationRepository(db)

		if cfg.Audit.Persist {
			audit, err = observability.NewPersistentLogger(db)
			if err != nil {
				return fmt.Errorf("failed to create audit logger: %w", err)
			}
		} else {
			audit = observability.NewJSONLogger(os.Stdout)
		}
		logger.Info("connected to PostgreSQL",
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.Name))
	}

	// Create authenticators and the session issuer
	var (
		authenticators []auth.Authenticator
		issuer         *auth.TokenIssuer
	)
	if cfg.Auth.JWTSecret != "" {
		jwtAuth, err := auth.NewJWTAuthenticator(cfg.Auth.JWTSecret)
		if err != nil {
			return err
		}
		authenticators = append(authenticators, jwtAuth)

		var ttl time.Duration
		if cfg.Auth.SessionTTL != "" {
			ttl, err = time.ParseDuration(cfg.Auth.SessionTTL)
			if err != nil {
				return fmt.Errorf("invalid auth.sessionTTL: %w", err)
			}
		}
		issuer, err = auth.NewTokenIssuer(cfg.Auth.JWTSecret, ttl)
		if err != nil {
			return err
		}
	}
	if len(cfg.Auth.StaticTokens) > 0 {
		static := auth.NewStaticTokenAuthenticator()
		for _, t := range cfg.Auth.StaticTokens {
			role, err := users.ParseRole(t.Role)
			if err != nil {
				return fmt.Errorf("invalid static token role for %s: %w", t.Email, err)
			}
			static.RegisterToken(t.Token, &auth.Identity{
				UserID: "svc:" + t.Email,
				Email:  t.Email,
				Name:   t.Name,
				Role:   role,
			})
		}
		authenticators = append(authenticators, static)
		logger.Info("registered static service tokens", zap.Int("count", len(cfg.Auth.StaticTokens)))
	}
	var authn auth.Authenticator
	if len(authenticators) == 1 {
		authn = authenticators[0]
	} else {
		authn = auth.NewChainAuthenticator(authenticators...)
	}

	// Seed the directory from a workspace file when configured.
	seedPath := cfg.Bootstrap.Workspace
	if *workspace != "" {
		seedPath = *workspace
	}
	if seedPath != "" {
		ws, err := bootstrap.LoadWorkspace(seedPath)
		if err != nil {
			return fmt.Errorf("workspace seed failed: %w", err)
		}
		if err := ws.Validate(); err != nil {
			return fmt.Errorf("workspace seed failed: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		result, err := ws.Apply(ctx, userRepo, orgRepo)
		if err != nil {
			return fmt.Errorf("workspace seed failed: %w", err)
		}
		logger.Info("workspace seed applied",
			zap.String("path", seedPath),
			zap.Int("organizations_created", result.OrganizationsCreated),
			zap.Int("users_created", result.UsersCreated),
			zap.Int("memberships_created", result.MembershipsCreated),
			zap.Int("skipped", len(result.Skipped)))
	}

	srv, err := server.New(userRepo, orgRepo, authn, nil, issuer, audit, logger, server.Config{
		Version: version,
		Debug:   debug,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	listenAddr := *addr
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%d", cfg.Server.Port)
	}
	readTimeout, err := time.ParseDuration(cfg.Server.ReadTimeout)
	if err != nil {
		return fmt.Errorf("invalid server.readTimeout: %w", err)
	}
	writeTimeout, err := time.ParseDuration(cfg.Server.WriteTimeout)
	if err != nil {
		return fmt.Errorf("invalid server.writeTimeout: %w", err)
	}

	httpServer := &http.Server{
		Addr:         listenAddr,
		Handler:      srv,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Handle graceful shutdown
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
		close(done)
	}()

	logger.Info("boardmates api starting",
		zap.String("addr", listenAddr),
		zap.String("version", version),
		zap.String("commit", commit))

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("server stopped")
	return nil
}
