package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"semnotes/internal/auth"
	"semnotes/internal/handlers"
	"semnotes/internal/notes"
	"semnotes/internal/search"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	NotesService   *notes.Service
	SearchEngine   *search.Engine
	Verifier       auth.Verifier
	KVStore        handlers.Pinger
	Mirror         handlers.Pinger
	RequestTimeout time.Duration
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	// Add chi middleware
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	profilesHandler := handlers.NewProfilesHandler(deps.NotesService)
	notesHandler := handlers.NewNotesHandler(deps.NotesService)
	searchHandler := handlers.NewSearchHandler(deps.SearchEngine)
	healthHandler := handlers.NewHealthHandler(deps.KVStore, deps.Mirror)

	// Register API routes, all authenticated and deadline-bounded
	r.Route("/api", func(r chi.Router) {
		r.Use(Timeout(timeout))
		r.Use(Auth(deps.Verifier))

		r.Post("/profiles", profilesHandler.Create)
		r.Get("/profiles", profilesHandler.List)
		r.Delete("/profiles/{profileID}", profilesHandler.Delete)

		r.Get("/profiles/{profileID}/categories", notesHandler.ListCategories)
		r.Get("/profiles/{profileID}/notes", notesHandler.ListNotes)
		r.Post("/profiles/{profileID}/submit", notesHandler.Submit)
		r.Delete("/profiles/{profileID}/notes/{noteID}", notesHandler.DeleteNote)

		r.Post("/search", searchHandler.Search)
	})

	r.Method(http.MethodGet, "/healthz", healthHandler)

	return r
}
