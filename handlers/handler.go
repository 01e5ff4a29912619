package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"Reelrank/logger"
	"Reelrank/middleware"
	"Reelrank/models"
	"Reelrank/services"
	"Reelrank/templates"
)

// MovieStore is the persistence the routes need. *services.MovieStore
// implements it.
type MovieStore interface {
	ListAll(ctx context.Context) ([]models.Movie, error)
	Get(ctx context.Context, id int) (*models.Movie, error)
	Insert(ctx context.Context, nm models.NewMovie) (*models.Movie, error)
	UpdateRating(ctx context.Context, id int, rating float64, review *string) (*models.Movie, error)
	Delete(ctx context.Context, id int) error
	SaveRankings(ctx context.Context, movies []models.Movie) error
	Ping(ctx context.Context) error
}

// MetadataClient looks movies up upstream. *services.TMDBClient implements it.
type MetadataClient interface {
	Search(ctx context.Context, query string) ([]services.SearchResult, error)
	GetDetails(ctx context.Context, externalID int) (*services.MovieDetails, error)
}

type FlashStore interface {
	AddFlash(w http.ResponseWriter, r *http.Request, msg string) error
	Flashes(w http.ResponseWriter, r *http.Request) []string
}

type Deps struct {
	Store        MovieStore
	Metadata     MetadataClient
	Sessions     FlashStore
	ImageBaseURL string
	Logger       *slog.Logger
	// RateLimiter is optional; when set it guards every page route.
	RateLimiter *middleware.RateLimiter
	// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP.
	// Only enable it behind a proxy that overwrites those headers.
	TrustProxy bool
}

type Handler struct {
	store        MovieStore
	metadata     MetadataClient
	sessions     FlashStore
	views        *templates.Set
	imageBaseURL string
	limiter      *middleware.RateLimiter
	trustProxy   bool
	log          *slog.Logger
}

func New(deps Deps) (*Handler, error) {
	if deps.Store == nil || deps.Metadata == nil || deps.Sessions == nil {
		return nil, fmt.Errorf("handlers: store, metadata and sessions are required")
	}

	views, err := templates.Load()
	if err != nil {
		return nil, fmt.Errorf("handlers: %w", err)
	}

	log := deps.Logger
	if log == nil {
		log = logger.Default()
	}

	return &Handler{
		store:        deps.Store,
		metadata:     deps.Metadata,
		sessions:     deps.Sessions,
		views:        views,
		imageBaseURL: deps.ImageBaseURL,
		limiter:      deps.RateLimiter,
		trustProxy:   deps.TrustProxy,
		log:          log.With("component", "handlers"),
	}, nil
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	if h.trustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Chain(
		middleware.RequestID,
		middleware.Logging(h.log),
		middleware.Recovery(h.log),
	))

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)

	r.Group(func(r chi.Router) {
		if h.limiter != nil {
			r.Use(h.limiter.Limit)
		}

		r.Get("/", h.serve(h.home))
		r.Get("/add", h.serve(h.addForm))
		r.Post("/add", h.serve(h.addSearch))
		r.Get("/find", h.serve(h.find))
		r.Get("/edit", h.serve(h.editForm))
		r.Post("/edit", h.serve(h.editSave))
		r.Get("/delete", h.serve(h.delete))
		r.Post("/delete", h.serve(h.delete))
	})

	return r
}
