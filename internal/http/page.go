package httpapi

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/fairyhunter13/recipe-box-service/internal/like"
	"github.com/fairyhunter13/recipe-box-service/internal/model"
	"github.com/fairyhunter13/recipe-box-service/internal/serving"
)

//go:embed web/recipe.html web/static
var webFS embed.FS

var recipePage = template.Must(template.ParseFS(webFS, "web/recipe.html"))

func staticFS() http.FileSystem {
	sub, err := fs.Sub(webFS, "web/static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

type pageData struct {
	Recipe      model.Recipe
	DietNames   []string
	CSRFToken   string
	Like        like.State
	Glyph       string
	Base        int
	Servings    int
	Min, Max    int
	Ingredients []serving.Scaled
}

func (a *App) recipePageHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(w, r, "id")
	if !ok {
		return
	}
	view, err := a.recipeView(r, id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	st, err := a.servingState(r, view.Recipe)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	ls := like.State{RecipeID: id, Liked: view.Liked, Count: view.LikesCount}
	lo, hi := st.Bounds()
	data := pageData{
		Recipe:      view.Recipe,
		CSRFToken:   a.CSRF.Token(VisitorFromContext(r.Context())),
		Like:        ls,
		Glyph:       like.Glyph(ls),
		Base:        st.Base(),
		Servings:    st.Current(),
		Min:         lo,
		Max:         hi,
		Ingredients: serving.ScaleAll(view.Recipe.Ingredients, st),
	}
	for _, d := range view.Recipe.Diets {
		data.DietNames = append(data.DietNames, model.Diets[d])
	}
	var buf bytes.Buffer
	if err := a.page.Execute(&buf, data); err != nil {
		writeErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
