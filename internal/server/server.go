package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/claude/liftplan/internal/engine"
	"github.com/claude/liftplan/internal/intake"
	"github.com/claude/liftplan/internal/metrics"
	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Store is the data layer behind the HTTP API. *storage.DB satisfies it.
type Store interface {
	intake.Repository
	GetProgram(ctx context.Context, id uuid.UUID) (*models.ProgramRow, error)
	ListPrograms(ctx context.Context, client string, limit int) ([]models.ProgramSummary, error)
	QueryCalculationLogs(ctx context.Context, limit int) ([]models.CalculationLogRow, error)
	GetProgramStats(ctx context.Context) (*storage.ProgramStats, error)
	GetOrCreateCoach(ctx context.Context, login, displayName string) (int, error)
}

// Compile-time check: *storage.DB satisfies Store.
var _ Store = (*storage.DB)(nil)

// Options carries the optional parts of the server.
type Options struct {
	APIKey string
	// Metrics enables request instrumentation and GET /metrics.
	Metrics *metrics.Manager
	// Cache answers repeated calculations; nil disables it.
	Cache *CalcCache
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	db       Store
	calc     *engine.Calculator
	intake   *intake.Provider
	metrics  *metrics.Manager
	cache    *CalcCache
	log      *slog.Logger
	apiKey   string
	router   chi.Router
	identity func(http.Handler) http.Handler
}

// New creates a new Server with all routes configured. Requests are
// attributed to the local coach until SetTailscale is called.
func New(db Store, calc *engine.Calculator, opts Options, log *slog.Logger) *Server {
	s := &Server{
		db:       db,
		calc:     calc,
		intake:   intake.NewProvider(calc, db, log),
		metrics:  opts.Metrics,
		cache:    opts.Cache,
		log:      log,
		apiKey:   opts.APIKey,
		router:   chi.NewRouter(),
		identity: DevIdentity,
	}
	s.routes()
	return s
}

// SetTailscale attributes requests to the tailnet user making them.
func (s *Server) SetTailscale(lc WhoIser) {
	s.identity = TailscaleIdentity(lc, s.db, s.log)
}

// Mount attaches an extra handler, such as the MCP endpoint, under pattern.
// It shares the server's middleware stack.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Mount(pattern, h)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware)
	}
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.identity(next).ServeHTTP(w, r)
		})
	})

	s.router.Post("/api/v1/calculate", s.handleCalculate)

	s.router.Route("/api/v1/programs", func(r chi.Router) {
		r.Get("/", s.handleListPrograms)
		r.Get("/{id}", s.handleGetProgram)

		// Writes need the API key
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/", s.handleCreateProgram)
			r.Post("/import", s.handleImportProgram)
		})
	})

	s.router.Get("/api/v1/patterns", s.handlePatterns)
	s.router.Get("/api/v1/calculations/logs", s.handleCalculationLogs)
	s.router.Get("/api/v1/stats", s.handleStats)
	s.router.Get("/api/v1/me", s.handleMe)

	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
}
