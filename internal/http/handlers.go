package httpapi

import (
	"expvar"
	"html/template"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fairyhunter13/recipe-box-service/internal/config"
	"github.com/fairyhunter13/recipe-box-service/internal/csrf"
	httpopenapi "github.com/fairyhunter13/recipe-box-service/internal/http/openapi"
	"github.com/fairyhunter13/recipe-box-service/internal/model"
	"github.com/fairyhunter13/recipe-box-service/internal/obs"
	"github.com/fairyhunter13/recipe-box-service/internal/queue"
	"github.com/fairyhunter13/recipe-box-service/internal/store"
)

var (
	likesToggled   = expvar.NewInt("likes_toggled")
	recipesCreated = expvar.NewInt("recipes_created")
)

// App carries the dependencies shared by the handlers. Manager is nil when
// nutrition analysis is not configured.
type App struct {
	Cfg     config.Config
	Store   store.Store
	Manager *queue.Manager
	CSRF    *csrf.Guard

	page    *template.Template
	closing atomic.Bool
	started time.Time
}

func NewApp(cfg config.Config, st store.Store, m *queue.Manager, g *csrf.Guard) *App {
	return &App{
		Cfg:     cfg,
		Store:   st,
		Manager: m,
		CSRF:    g,
		page:    recipePage,
		started: time.Now(),
	}
}

// StartShutdown stops accepting new recipes and nutrition jobs.
func (a *App) StartShutdown() {
	a.closing.Store(true)
	if a.Manager != nil {
		a.Manager.CloseIntake()
	}
}

func (a *App) apiDataHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": a.Cfg.Greeting})
}

func (a *App) sessionHandler(w http.ResponseWriter, r *http.Request) {
	sid := VisitorFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"csrf_token": a.CSRF.Token(sid)})
}

func (a *App) likeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(w, r, "recipeId")
	if !ok {
		return
	}
	visitor := VisitorFromContext(r.Context())
	liked, count, err := a.Store.ToggleLike(r.Context(), visitor, id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	res := model.LikeResult{Status: model.StatusUnliked, LikesCount: count}
	if liked {
		res.Status = model.StatusLiked
	}
	likesToggled.Add(1)
	obs.Logger.Info("like_toggled",
		"request_id", RequestIDFromContext(r.Context()),
		"recipe_id", id,
		"status", res.Status,
		"likes_count", res.LikesCount,
	)
	writeJSON(w, http.StatusOK, res)
}

// recipeID parses a positive integer URL parameter, writing a 400 when it
// is not one.
func recipeID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		WriteJSONError(w, http.StatusBadRequest, "invalid_id", "recipe id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) metricsHandler(w http.ResponseWriter, r *http.Request) {
	m := map[string]any{
		"likes_toggled":   likesToggled.Value(),
		"recipes_created": recipesCreated.Value(),
		"uptime_sec":      time.Since(a.started).Seconds(),
	}
	if a.Manager != nil {
		s := a.Manager.QueueMetrics()
		m["jobs_enqueued"] = s.Enqueued
		m["jobs_processed"] = s.Processed
		m["jobs_failed"] = s.Failed
		m["backlog_size"] = s.Backlog
		m["queue_depth"] = s.Depth
		m["worker_count"] = a.Manager.WorkerCount()
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *App) openapiHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(httpopenapi.YAML)
}

func (a *App) docsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	html := `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Recipe Box API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui'
      });
    </script>
  </body>
</html>`
	_, _ = w.Write([]byte(html))
}
