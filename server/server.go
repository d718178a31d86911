// Package server exposes the agent over HTTP. Each session is an
// independent agent with its own conversation, addressed by a generated id.
package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/m4xw311/palaver/agent"
	"github.com/m4xw311/palaver/config"
	"github.com/m4xw311/palaver/errors"
	"github.com/m4xw311/palaver/memory"
	"github.com/m4xw311/palaver/tools"
)

// session serializes access to one agent. Agents have a single-owner
// contract, so every request against a session takes its lock.
type session struct {
	mu    sync.Mutex
	agent *agent.Agent
}

// Server holds the session table and the configuration used to build new
// agents. All sessions share one tool registry.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *tools.Registry
	store    memory.Store

	mu       sync.RWMutex
	sessions map[string]*session
}

// New creates a Server around cfg with the built-in tool roster.
func New(cfg *config.Config, logger *slog.Logger) *Server {
	registry := tools.NewRegistry()
	for _, t := range tools.Defaults() {
		if err := registry.Register(t); err != nil {
			logger.Warn("skipping tool", "error", err)
		}
	}
	return &Server{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		store:    memory.Store{Dir: cfg.ConversationDir},
		sessions: make(map[string]*session),
	}
}

// Routes builds the HTTP router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(CORS([]string{"*"}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/providers", s.handleProviders)
		r.Get("/tools", s.handleTools)
		r.Get("/conversations", s.handleConversations)
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteSession)
			r.Post("/chat", s.handleChat)
			r.Post("/clear", s.handleClear)
			r.Get("/info", s.handleInfo)
			r.Get("/stream", s.handleStream)
			r.Post("/save", s.handleSave)
			r.Post("/load", s.handleLoad)
		})
	})

	return r
}

// createSession builds an agent for the given provider/model and registers
// it under id. Empty provider and model fall back to the configured
// defaults.
func (s *Server) createSession(ctx context.Context, id, providerName, model, systemPrompt string) (*session, error) {
	if providerName == "" {
		providerName = s.cfg.DefaultProvider
	}
	if model == "" {
		model = s.cfg.DefaultModel
	}

	a, err := agent.New(ctx, agent.Options{
		Provider:     providerName,
		Model:        model,
		Tools:        s.registry.List(),
		SystemPrompt: systemPrompt,
		MaxHistory:   s.cfg.MaxHistory,
		Settings:     s.cfg.ProviderSettings(),
	})
	if err != nil {
		return nil, err
	}

	sess := &session{agent: a}
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	return sess, nil
}

func (s *Server) session(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.Tagf(errors.ErrNotFound, "session %s not found", id)
	}
	return sess, nil
}

func (s *Server) deleteSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}
