package httpapi

import (
	"expvar"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/fairyhunter13/recipe-box-service/internal/csrf"
)

// NewRouter registers HTTP routes and returns the handler with middleware.
func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.Cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", csrf.Header, "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(WithSession)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
	})

	r.Get("/api/data", app.apiDataHandler)
	r.Get("/api/session", app.sessionHandler)

	r.Get("/recipes", app.listRecipesHandler)
	r.Get("/recipes/{id}", app.getRecipeHandler)
	r.Get("/recipes/{id}/scale", app.scaleHandler)
	r.Get("/recipes/{id}/nutrition", app.nutritionHandler)
	r.Get("/search", app.searchHandler)
	r.Get("/recipe/{id}", app.recipePageHandler)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(staticFS())))

	r.Group(func(r chi.Router) {
		r.Use(RequireCSRF(app.CSRF))
		r.Post("/like/{recipeId}", app.likeHandler)
		r.Post("/recipes", app.createRecipeHandler)
		r.Delete("/recipes/{id}", app.deleteRecipeHandler)
	})

	r.Get("/healthz", app.healthHandler)
	r.Get("/debug/metrics", app.metricsHandler)
	r.Handle("/debug/vars", expvar.Handler())
	r.Get("/openapi.yaml", app.openapiHandler)
	r.Get("/docs", app.docsHandler)
	return WithRequestID(WithLogging(r))
}
