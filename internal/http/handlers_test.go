package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fairyhunter13/recipe-box-service/internal/config"
	"github.com/fairyhunter13/recipe-box-service/internal/csrf"
	"github.com/fairyhunter13/recipe-box-service/internal/model"
	"github.com/fairyhunter13/recipe-box-service/internal/queue"
	"github.com/fairyhunter13/recipe-box-service/internal/store"
)

type testEnv struct {
	app       *App
	mgr       *queue.Manager
	st        store.Store
	h         http.Handler
	processed atomic.Int64
}

func setupApp(t *testing.T) *testEnv {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	st := store.NewMemory()
	env := &testEnv{st: st}
	proc := queue.ProcessorFunc(func(ctx context.Context, job model.NutritionJob) error {
		env.processed.Add(1)
		dv := 10
		return st.SaveNutrition(ctx, job.RecipeID, []model.NutritionFact{
			{Nutrient: "ENERC_KCAL", Label: "Energy", Amount: 120, Unit: "kcal", DailyValuePercent: &dv},
		})
	})
	env.mgr = queue.NewManager(cfg, queue.New(16), proc)
	env.mgr.Start(context.Background())
	t.Cleanup(env.mgr.Stop)
	g, err := csrf.New("test-secret")
	if err != nil {
		t.Fatalf("csrf: %v", err)
	}
	env.app = NewApp(cfg, st, env.mgr, g)
	env.h = NewRouter(env.app)
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.h.ServeHTTP(rr, req)
	return rr
}

// session opens a visitor session and returns its cookie and token.
func (e *testEnv) session(t *testing.T) (*http.Cookie, string) {
	t.Helper()
	rr := e.do(httptest.NewRequest(http.MethodGet, "/api/session", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("session: expected 200, got %d", rr.Code)
	}
	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == SessionCookie {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatalf("session cookie not set")
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if body["csrf_token"] == "" {
		t.Fatalf("empty csrf token")
	}
	return cookie, body["csrf_token"]
}

func (e *testEnv) createRecipe(t *testing.T, cookie *http.Cookie, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/recipes", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(csrf.Header, token)
	req.AddCookie(cookie)
	return e.do(req)
}

const pancakes = `{"title":"Pancakes","ingredients":[{"name":"flour","amount":2,"unit":"cups"},{"name":"milk","amount":1.5,"unit":"cups"}],"instructions":"Mix and fry.","servings":4,"cook_minutes":20,"diets":["vegetarian"]}`

func mustCreate(t *testing.T, e *testEnv) (model.Recipe, *http.Cookie, string) {
	t.Helper()
	cookie, token := e.session(t)
	rr := e.createRecipe(t, cookie, token, pancakes)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var r model.Recipe
	if err := json.Unmarshal(rr.Body.Bytes(), &r); err != nil {
		t.Fatalf("decode recipe: %v", err)
	}
	return r, cookie, token
}

func postLike(e *testEnv, path string, cookie *http.Cookie, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if token != "" {
		req.Header.Set(csrf.Header, token)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return e.do(req)
}

func TestOpenAPIServed(t *testing.T) {
	e := setupApp(t)
	rr := e.do(httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct == "" {
		t.Fatalf("expected content-type set")
	}
	if !bytes.Contains(rr.Body.Bytes(), []byte("openapi:")) {
		t.Fatalf("expected openapi content")
	}
}

func TestDocsServed(t *testing.T) {
	e := setupApp(t)
	rr := e.do(httptest.NewRequest(http.MethodGet, "/docs", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "swagger-ui") {
		t.Fatalf("expected swagger-ui in docs body")
	}
}

func TestHealthzOK(t *testing.T) {
	e := setupApp(t)
	rr := e.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestAPIData(t *testing.T) {
	t.Setenv("GREETING", "hi there")
	e := setupApp(t)
	rr := e.do(httptest.NewRequest(http.MethodGet, "/api/data", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["message"] != "hi there" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestSessionReusesCookie(t *testing.T) {
	e := setupApp(t)
	cookie, token := e.session(t)
	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(cookie)
	rr := e.do(req)
	if len(rr.Result().Cookies()) != 0 {
		t.Fatalf("expected no new cookie for an existing session")
	}
	var body map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	if body["csrf_token"] != token {
		t.Fatalf("token changed for the same session")
	}
}

func TestLikeToggle(t *testing.T) {
	e := setupApp(t)
	r, cookie, token := mustCreate(t, e)
	path := "/like/" + itoa(r.ID)

	var res model.LikeResult
	rr := postLike(e, path, cookie, token)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Status != model.StatusLiked || res.LikesCount != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if !strings.Contains(rr.Body.String(), `"likes_count":1`) {
		t.Fatalf("expected snake_case likes_count, got %s", rr.Body.String())
	}

	// a second visitor likes too
	c2, t2 := e.session(t)
	rr = postLike(e, path, c2, t2)
	_ = json.Unmarshal(rr.Body.Bytes(), &res)
	if res.Status != model.StatusLiked || res.LikesCount != 2 {
		t.Fatalf("unexpected result %+v", res)
	}

	rr = postLike(e, path, cookie, token)
	_ = json.Unmarshal(rr.Body.Bytes(), &res)
	if res.Status != model.StatusUnliked || res.LikesCount != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestLikeToggle_Errors(t *testing.T) {
	e := setupApp(t)
	r, cookie, token := mustCreate(t, e)
	path := "/like/" + itoa(r.ID)
	other, otherToken := e.session(t)

	cases := []struct {
		name   string
		path   string
		cookie *http.Cookie
		token  string
		want   int
	}{
		{"missing token", path, cookie, "", http.StatusForbidden},
		{"wrong token", path, cookie, "deadbeef", http.StatusForbidden},
		{"token of another session", path, other, token, http.StatusForbidden},
		{"no cookie", path, nil, otherToken, http.StatusForbidden},
		{"unknown recipe", "/like/9999", cookie, token, http.StatusNotFound},
		{"non-numeric id", "/like/abc", cookie, token, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := postLike(e, tc.path, tc.cookie, tc.token)
			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rr.Code, rr.Body.String())
			}
		})
	}

	// failed requests left the count alone
	n, err := e.st.LikeCount(context.Background(), r.ID)
	if err != nil || n != 0 {
		t.Fatalf("expected 0 likes, got %d (%v)", n, err)
	}
}

func TestCreateRecipe_EnqueuesNutrition(t *testing.T) {
	e := setupApp(t)
	r, _, _ := mustCreate(t, e)
	if r.ID == 0 || r.TimeToCook != "20 mins" {
		t.Fatalf("unexpected recipe %+v", r)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if ok := e.mgr.DrainUntil(ctx); !ok {
		t.Fatalf("drain timeout")
	}
	if e.processed.Load() != 1 {
		t.Fatalf("expected one nutrition job, got %d", e.processed.Load())
	}

	rr := e.do(httptest.NewRequest(http.MethodGet, "/recipes/"+itoa(r.ID)+"/nutrition?servings=3", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var nr nutritionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &nr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if nr.Status != "ready" || len(nr.Facts) != 1 || nr.Facts[0].Amount != 360 {
		t.Fatalf("unexpected nutrition %+v", nr)
	}
}

func TestNutrition_PendingAndErrors(t *testing.T) {
	e := setupApp(t)
	ctx := context.Background()
	r, err := e.st.CreateRecipe(ctx, model.Recipe{
		Title:        "Toast",
		Ingredients:  []model.Ingredient{{Name: "bread", Amount: 1, Unit: "slice"}},
		Instructions: "Toast it.",
		Servings:     1,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	rr := e.do(httptest.NewRequest(http.MethodGet, "/recipes/"+itoa(r.ID)+"/nutrition", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"status":"pending"`) {
		t.Fatalf("expected pending, got %d %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"facts":[]`) {
		t.Fatalf("expected empty facts array, got %s", rr.Body.String())
	}
	rr = e.do(httptest.NewRequest(http.MethodGet, "/recipes/"+itoa(r.ID)+"/nutrition?servings=11", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	rr = e.do(httptest.NewRequest(http.MethodGet, "/recipes/4242/nutrition", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestCreateRecipe_Rejects(t *testing.T) {
	e := setupApp(t)
	cookie, token := e.session(t)
	if rr := e.createRecipe(t, cookie, token, pancakes); rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	cases := []struct {
		name string
		body string
		want int
	}{
		{"duplicate title", pancakes, http.StatusConflict},
		{"unknown field", `{"title":"x","foo":1}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
		{"no ingredients", `{"title":"Empty","instructions":"x","servings":2}`, http.StatusBadRequest},
		{"too many servings", `{"title":"Feast","ingredients":[{"name":"rice","amount":1}],"instructions":"x","servings":11}`, http.StatusBadRequest},
		{"bad diet", `{"title":"Diet","ingredients":[{"name":"rice","amount":1}],"instructions":"x","servings":2,"diets":["paleo"]}`, http.StatusBadRequest},
		{"too long to cook", `{"title":"Slow","ingredients":[{"name":"rice","amount":1}],"instructions":"x","servings":2,"cook_hours":49}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := e.createRecipe(t, cookie, token, tc.body)
			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rr.Code, rr.Body.String())
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/recipes", bytes.NewBufferString(pancakes))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set(csrf.Header, token)
	req.AddCookie(cookie)
	if rr := e.do(req); rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rr.Code)
	}
}

func TestGetRecipe_LikeState(t *testing.T) {
	e := setupApp(t)
	r, cookie, token := mustCreate(t, e)
	postLike(e, "/like/"+itoa(r.ID), cookie, token)

	req := httptest.NewRequest(http.MethodGet, "/recipes/"+itoa(r.ID), nil)
	req.AddCookie(cookie)
	rr := e.do(req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var v struct {
		Title      string `json:"title"`
		LikesCount int    `json:"likes_count"`
		Liked      bool   `json:"liked"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Title != "Pancakes" || v.LikesCount != 1 || !v.Liked {
		t.Fatalf("unexpected view %+v", v)
	}

	// anonymous visitor sees the count but not a like
	rr = e.do(httptest.NewRequest(http.MethodGet, "/recipes/"+itoa(r.ID), nil))
	_ = json.Unmarshal(rr.Body.Bytes(), &v)
	if v.LikesCount != 1 || v.Liked {
		t.Fatalf("unexpected anonymous view %+v", v)
	}
}

func TestDeleteRecipe(t *testing.T) {
	e := setupApp(t)
	r, cookie, token := mustCreate(t, e)
	path := "/recipes/" + itoa(r.ID)

	req := httptest.NewRequest(http.MethodDelete, path, nil)
	req.AddCookie(cookie)
	if rr := e.do(req); rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without token, got %d", rr.Code)
	}
	req = httptest.NewRequest(http.MethodDelete, path, nil)
	req.AddCookie(cookie)
	req.Header.Set(csrf.Header, token)
	if rr := e.do(req); rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if rr := e.do(httptest.NewRequest(http.MethodGet, path, nil)); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rr.Code)
	}
}

func TestScaleRecipe(t *testing.T) {
	e := setupApp(t)
	r, _, _ := mustCreate(t, e)
	base := "/recipes/" + itoa(r.ID) + "/scale"

	rr := e.do(httptest.NewRequest(http.MethodGet, base+"?servings=8", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var sr scaleResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &sr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sr.BaseServings != 4 || sr.Servings != 8 || len(sr.Ingredients) != 2 {
		t.Fatalf("unexpected response %+v", sr)
	}
	if sr.Ingredients[0].Display != "4.00" || sr.Ingredients[0].Base != 2 {
		t.Fatalf("unexpected flour %+v", sr.Ingredients[0])
	}

	rr = e.do(httptest.NewRequest(http.MethodGet, base+"?servings=2", nil))
	_ = json.Unmarshal(rr.Body.Bytes(), &sr)
	if sr.Ingredients[1].Display != "0.75" {
		t.Fatalf("unexpected milk %+v", sr.Ingredients[1])
	}

	// no parameter means base servings
	rr = e.do(httptest.NewRequest(http.MethodGet, base, nil))
	_ = json.Unmarshal(rr.Body.Bytes(), &sr)
	if sr.Servings != 4 || sr.Ingredients[0].Display != "2.00" {
		t.Fatalf("unexpected identity scale %+v", sr)
	}

	for _, q := range []string{"?servings=0", "?servings=11", "?servings=abc"} {
		if rr := e.do(httptest.NewRequest(http.MethodGet, base+q, nil)); rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, rr.Code)
		}
	}
}

func TestSearch(t *testing.T) {
	e := setupApp(t)
	mustCreate(t, e)
	rr := e.do(httptest.NewRequest(http.MethodGet, "/search?query=MILK!!", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var rs []model.Recipe
	if err := json.Unmarshal(rr.Body.Bytes(), &rs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rs) != 1 || rs[0].Title != "Pancakes" {
		t.Fatalf("unexpected results %+v", rs)
	}
	rr = e.do(httptest.NewRequest(http.MethodGet, "/search?query=%24%25", nil))
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("expected empty list, got %s", rr.Body.String())
	}
}

func TestRecipePage(t *testing.T) {
	e := setupApp(t)
	r, cookie, token := mustCreate(t, e)
	postLike(e, "/like/"+itoa(r.ID), cookie, token)

	req := httptest.NewRequest(http.MethodGet, "/recipe/"+itoa(r.ID)+"?servings=8", nil)
	req.AddCookie(cookie)
	rr := e.do(req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{
		`<meta name="csrf-token" content="` + token + `"`,
		`data-recipe-id="` + itoa(r.ID) + `"`,
		"🧡",
		`id="likes-count-` + itoa(r.ID) + `">1<`,
		`data-base-servings="4"`,
		`value="8"`,
		`data-amount="1.5"`,
		`<span class="amount">4.00</span>`,
		"Vegetarian",
		"/static/recipe.js",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q", want)
		}
	}

	rr = e.do(httptest.NewRequest(http.MethodGet, "/recipe/"+itoa(r.ID), nil))
	if !strings.Contains(rr.Body.String(), "💛") {
		t.Fatalf("anonymous visitor should see the unliked glyph")
	}
}

func TestStaticScriptServed(t *testing.T) {
	e := setupApp(t)
	rr := e.do(httptest.NewRequest(http.MethodGet, "/static/recipe.js", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "X-CSRFToken") {
		t.Fatalf("expected like script")
	}
}

func TestCORSPreflight(t *testing.T) {
	e := setupApp(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/data", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rr := e.do(req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
}

func TestMetricsHandler(t *testing.T) {
	e := setupApp(t)
	mustCreate(t, e)
	rr := e.do(httptest.NewRequest(http.MethodGet, "/debug/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var m map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &m); err != nil {
		t.Fatalf("metrics json decode: %v", err)
	}
	for _, k := range []string{"worker_count", "queue_depth", "jobs_enqueued", "likes_toggled", "recipes_created"} {
		if _, ok := m[k]; !ok {
			t.Fatalf("missing %s", k)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if ok := e.mgr.DrainUntil(ctx); !ok {
		t.Fatalf("drain timeout")
	}
}

func TestShutdownBehavior(t *testing.T) {
	e := setupApp(t)
	cookie, token := e.session(t)
	e.app.StartShutdown()
	rr := e.createRecipe(t, cookie, token, pancakes)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	e := setupApp(t)
	rr := e.do(httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rr.Code != http.StatusNotFound || !strings.Contains(rr.Body.String(), "not_found") {
		t.Fatalf("expected JSON 404, got %d %s", rr.Code, rr.Body.String())
	}
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
