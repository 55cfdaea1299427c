// Package tripgo wires the travel recommendation agent together: the
// destination provider, the workflow engine, session management, and
// the A2A dispatch surface.
package tripgo

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tripgo-dev/tripgo/internal/observability"
	"github.com/tripgo-dev/tripgo/internal/workflow"
	"github.com/tripgo-dev/tripgo/pkg/a2a"
	"github.com/tripgo-dev/tripgo/pkg/config"
	pkgobs "github.com/tripgo-dev/tripgo/pkg/observability"
	"github.com/tripgo-dev/tripgo/pkg/provider"
	"github.com/tripgo-dev/tripgo/pkg/security"
	"github.com/tripgo-dev/tripgo/pkg/session"
)

// defaultSkillTimeout bounds a single skill invocation.
const defaultSkillTimeout = 30 * time.Second

// Agent is the assembled travel recommendation service.
type Agent struct {
	cfg        *config.Config
	dispatcher *a2a.Dispatcher
	sessions   *session.Manager
	provider   provider.Provider
}

// New builds an Agent from configuration.
func New(cfg *config.Config) (*Agent, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := initTracing(cfg); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	prov, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}

	backend, err := session.NewBackend(cfg.Session)
	if err != nil {
		return nil, fmt.Errorf("session backend: %w", err)
	}
	sessions := session.NewManager(backend,
		session.WithListener(pkgobs.NewSessionMetrics()),
	)

	engine := workflow.NewEngine(prov,
		workflow.WithObserver(pkgobs.NewWorkflowMetrics()),
	)

	opts := []a2a.DispatcherOption{
		a2a.WithSkillTimeouts(security.NewSkillTimeouts(defaultSkillTimeout)),
		a2a.WithAgentCard(a2a.NewAgentCard(
			fmt.Sprintf("http://%s:%d/", cfg.Server.Host, cfg.Server.Port),
			cfg.Auth.Enabled,
		)),
	}
	if cfg.Auth.Enabled {
		auth := security.NewStaticTokenAuthenticator()
		for token, name := range cfg.Auth.Tokens {
			auth.AddToken(token, &security.Principal{ID: name, Name: name})
		}
		opts = append(opts, a2a.WithAuthenticator(auth))
	} else {
		// Without auth the gated skills still need an authenticator or
		// they would reject every request.
		opts = append(opts, a2a.WithAuthenticator(security.AllowAllAuthenticator{}))
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		opts = append(opts, a2a.WithRateLimiter(
			security.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		))
	}

	return &Agent{
		cfg:        cfg,
		dispatcher: a2a.NewDispatcher(engine, sessions, opts...),
		sessions:   sessions,
		provider:   prov,
	}, nil
}

// initTracing sets up the trace exporter. A config that names no
// exporter defers to the standard OTEL_* environment variables.
func initTracing(cfg *config.Config) error {
	if cfg.Tracing.Exporter == "" || cfg.Tracing.Exporter == "none" {
		return observability.InitFromEnv()
	}
	return observability.Init(observability.Config{
		Enabled:      true,
		ExporterType: cfg.Tracing.Exporter,
		OTLPEndpoint: cfg.Tracing.Endpoint,
	})
}

// buildProvider assembles the destination provider, optionally wrapped
// in the Redis search cache.
func buildProvider(cfg *config.Config) (provider.Provider, error) {
	var prov provider.Provider = provider.NewStaticProvider(nil)

	if !cfg.Cache.Enabled {
		return prov, nil
	}

	var ttl time.Duration
	if cfg.Cache.TTL != "" {
		d, err := time.ParseDuration(cfg.Cache.TTL)
		if err != nil {
			return nil, fmt.Errorf("parse cache ttl: %w", err)
		}
		ttl = d
	}

	cached, err := provider.NewCachedProvider(prov, provider.CacheConfig{
		Addr:     cfg.Cache.Addr,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
		Prefix:   cfg.Cache.Prefix,
		TTL:      ttl,
	})
	if err != nil {
		return nil, fmt.Errorf("search cache: %w", err)
	}
	return cached, nil
}

// Execute serves one skill invocation synchronously.
func (a *Agent) Execute(ctx context.Context, req *a2a.ExecuteRequest) *a2a.ExecuteResponse {
	return a.dispatcher.Execute(ctx, req)
}

// ExecuteStream serves one skill invocation with progress streaming.
func (a *Agent) ExecuteStream(ctx context.Context, req *a2a.ExecuteRequest) <-chan a2a.StreamChunk {
	return a.dispatcher.ExecuteStream(ctx, req)
}

// Card returns the agent's discovery document.
func (a *Agent) Card() a2a.AgentCard {
	return a.dispatcher.Card()
}

// CheckProvider verifies the destination provider can serve searches.
// Health probes use this without opening a session.
func (a *Agent) CheckProvider(ctx context.Context) error {
	_, err := a.provider.Search(ctx, provider.GenericQuery)
	return err
}

// Sessions exposes the session manager for health and statistics.
func (a *Agent) Sessions() *session.Manager {
	return a.sessions
}

// Close releases the agent's resources: open sessions, storage
// backends, and the trace exporter.
func (a *Agent) Close(ctx context.Context) error {
	if err := a.sessions.Close(); err != nil {
		log.Printf("tripgo: closing sessions: %v", err)
	}
	return observability.Shutdown(ctx)
}
