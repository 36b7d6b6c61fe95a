package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/cookbook/internal/recipeservice"
)

// NewRouter creates a chi router with all API routes mounted.
// Reads are public; writes, image uploads and sseHandler (if non-nil, at
// GET /events) go through the Bearer token middleware when authEnabled.
func NewRouter(svc *recipeservice.Service, authEnabled bool, token string, sseHandler http.Handler, images *ImageHandler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	// Catalog reads.
	r.Get("/recipes", h.ListRecipes)
	r.Get("/recipes/{slug}", h.GetRecipe)
	r.Get("/recipes/{slug}/meta", h.ShareMeta)
	r.Get("/stats", h.Stats)
	r.Get("/tags", h.Tags)
	r.Get("/categories", h.Categories)
	r.Get("/search", h.Search)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(authEnabled, token))

		r.Post("/recipes", h.CreateRecipe)
		r.Put("/recipes/{slug}", h.UpdateRecipe)
		r.Delete("/recipes/{slug}", h.DeleteRecipe)

		if images != nil {
			r.Post("/images", images.Upload)
		}
		if sseHandler != nil {
			r.Get("/events", sseHandler.ServeHTTP)
		}
	})

	return r
}
