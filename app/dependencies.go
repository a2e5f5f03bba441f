package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/KunalBagaria/tokengate/auth"
	"github.com/KunalBagaria/tokengate/config"
	"github.com/KunalBagaria/tokengate/middleware"
	"github.com/KunalBagaria/tokengate/repositories"
	"github.com/KunalBagaria/tokengate/repositories/postgres"
	"github.com/KunalBagaria/tokengate/services/gate"
	"github.com/KunalBagaria/tokengate/services/identity"
	"github.com/KunalBagaria/tokengate/services/registry"
	"github.com/KunalBagaria/tokengate/session"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory; nil when no database is configured
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	CustomerAccounts repositories.CustomerAccountRepository

	// Gating
	Engine      *gate.Engine
	HeaderGate  *middleware.TokenGate
	SessionGate *middleware.TokenGate // nil unless sessions and the account store are configured

	// Sessions and auth
	Sessions       *session.CookieProvider
	authHandler    *auth.Handler
	AuthMiddleware *middleware.AuthMiddleware
}

// AuthHandler returns the auth handler for route wiring (implements handlers.AuthDeps)
func (d *Dependencies) AuthHandler() *auth.Handler {
	return d.authHandler
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := deps.initGate(cfg); err != nil {
		deps.closeDatabase()
		return nil, fmt.Errorf("failed to initialize token gate: %w", err)
	}

	if err := deps.initSessions(cfg); err != nil {
		deps.closeDatabase()
		return nil, fmt.Errorf("failed to initialize sessions: %w", err)
	}

	logger.Info("all dependencies initialized successfully",
		zap.String("target", deps.Engine.Target().String()),
		zap.Bool("session_gate", deps.SessionGate != nil))
	return deps, nil
}

// GateConfig converts the environment gate settings into an engine config
func GateConfig(cfg config.GateConfig) gate.Config {
	target := registry.CollectionID(cfg.CollectionID)
	if cfg.MintID != "" {
		target = registry.MintID(cfg.MintID)
	}
	return gate.Config{
		APIKey:      cfg.APIKey,
		ProjectID:   cfg.ProjectID,
		Target:      target,
		RegistryURL: cfg.RegistryURL,
		Timeout:     cfg.Timeout,
	}
}

// initDatabase connects the customer-account store when one is configured
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	if !cfg.Database.Enabled() {
		d.Logger.Warn("database not configured, customer-account store disabled")
		return nil
	}

	factory, err := postgres.NewRepositoryFactory(cfg.Database, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.DB()

	if err := d.DB.InitSchema(ctx); err != nil {
		_ = factory.Close()
		return err
	}

	repos := factory.NewRepositories()
	d.CustomerAccounts = repos.CustomerAccounts

	d.Logger.Info("repositories initialized")
	return nil
}

func (d *Dependencies) initGate(cfg *config.Config) error {
	engine, err := gate.NewRegistryEngine(GateConfig(cfg.Gate), d.Logger.Named("gate"))
	if err != nil {
		return err
	}
	d.Engine = engine
	d.HeaderGate = middleware.NewTokenGate(identity.NewHeaderResolver(cfg.Gate.CustomerIDHeader), engine, d.Logger)
	return nil
}

// initSessions wires the session cookie, login routes and the session gate.
// Each piece is skipped when its settings are missing.
func (d *Dependencies) initSessions(cfg *config.Config) error {
	if !cfg.Session.Enabled() {
		d.Logger.Warn("session secret not configured, login and session gating disabled")
		d.AuthMiddleware = middleware.NewAuthMiddleware(nil, d.Logger)
		return nil
	}

	codec, err := session.NewCodec(session.Config{
		Secret: cfg.Session.Secret,
		TTL:    cfg.Session.TTL,
	})
	if err != nil {
		return err
	}
	d.Sessions = session.NewCookieProvider(codec, cfg.Session.CookieSecure)
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Sessions, d.Logger)

	if d.CustomerAccounts != nil {
		resolver := identity.NewSessionResolver(d.Sessions, d.CustomerAccounts)
		d.SessionGate = middleware.NewTokenGate(resolver, d.Engine, d.Logger)
	} else {
		d.Logger.Warn("customer-account store not configured, session gating disabled")
	}

	if cfg.Session.GoogleClientID == "" || cfg.Session.GoogleClientSecret == "" {
		d.Logger.Warn("google oauth not configured, auth endpoints disabled")
		return nil
	}
	provider := auth.NewGoogleProvider(cfg.Session.GoogleClientID, cfg.Session.GoogleClientSecret, cfg.Session.RedirectURI)
	d.authHandler = auth.NewHandler(provider, d.Sessions, cfg.Session.FrontEndURL, cfg.Session.CookieSecure, d.Logger.Named("auth"))
	d.Logger.Info("auth handler initialized")
	return nil
}

func (d *Dependencies) closeDatabase() error {
	if d.RepoFactory == nil {
		return nil
	}
	err := d.RepoFactory.Close()
	d.RepoFactory, d.DB = nil, nil
	return err
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.closeDatabase(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	_ = d.Logger.Sync()

	return errors.Join(errs...)
}
