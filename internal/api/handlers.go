package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/cookbook/internal/catalog"
	"github.com/starford/cookbook/internal/checksum"
	"github.com/starford/cookbook/internal/index"
	"github.com/starford/cookbook/internal/recipeservice"
)

const maxBodyBytes = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *recipeservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *recipeservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListRecipes handles GET /api/recipes.
//
//	@Summary		List recipes with optional filtering and pagination
//	@Tags			recipes
//	@Produce		json
//	@Param			q			query		string	false	"Case-insensitive title substring"
//	@Param			category	query		string	false	"Exact category, or All"
//	@Param			tag			query		string	false	"Tag, or All"
//	@Param			limit		query		int		false	"Page size"
//	@Param			offset		query		int		false	"Page offset"
//	@Success		200			{object}	RecipeListResponse
//	@Router			/recipes [get]
func (h *Handler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total := h.svc.List(r.Context(), recipeservice.ListParams{
		Filter: catalog.Filter{
			Query:    strings.TrimSpace(q.Get("q")),
			Category: q.Get("category"),
			Tag:      q.Get("tag"),
		},
		Limit:  limit,
		Offset: offset,
	})
	writeJSON(w, http.StatusOK, RecipeListResponse{Recipes: items, Total: total})
}

// GetRecipe handles GET /api/recipes/{slug}.
//
//	@Summary		Get a single recipe by slug
//	@Tags			recipes
//	@Produce		json
//	@Param			slug	path		string	true	"Recipe slug"
//	@Success		200		{object}	models.Recipe
//	@Failure		404		{object}	errResponse
//	@Router			/recipes/{slug} [get]
func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	recipe, err := h.svc.Get(r.Context(), slug)
	if err != nil {
		writeServiceError(w, "get recipe", err, slog.String("slug", slug))
		return
	}
	w.Header().Set("ETag", checksum.ETag(recipe.Checksum))
	writeJSON(w, http.StatusOK, recipe)
}

// ShareMeta handles GET /api/recipes/{slug}/meta.
//
//	@Summary		Link-preview metadata for a recipe
//	@Tags			recipes
//	@Produce		json
//	@Param			slug	path		string	true	"Recipe slug"
//	@Success		200		{object}	models.ShareMeta
//	@Failure		404		{object}	errResponse
//	@Router			/recipes/{slug}/meta [get]
func (h *Handler) ShareMeta(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	meta, err := h.svc.ShareMeta(r.Context(), slug)
	if err != nil {
		writeServiceError(w, "share meta", err, slog.String("slug", slug))
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// Stats handles GET /api/stats.
//
//	@Summary		Catalog statistics
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	models.Stats
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Stats(r.Context()))
}

// Tags handles GET /api/tags.
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TagsResponse{Tags: h.svc.Tags(r.Context())})
}

// Categories handles GET /api/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CategoriesResponse{Categories: h.svc.Categories(r.Context())})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across recipes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	false	"Search query; blank matches nothing"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusOK, SearchResponse{Results: []index.SearchResult{}})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeServiceError(w, "search", err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// CreateRecipe handles POST /api/recipes.
//
//	@Summary		Create a new recipe
//	@Tags			recipes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RecipeInput	true	"Recipe to create"
//	@Success		201		{object}	models.Recipe
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recipes [post]
func (h *Handler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var in RecipeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	recipe, err := h.svc.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, "create recipe", err, slog.String("title", in.Title))
		return
	}
	w.Header().Set("Location", "/api/recipes/"+recipe.Slug)
	writeJSON(w, http.StatusCreated, recipe)
}

// UpdateRecipe handles PUT /api/recipes/{slug}.
//
//	@Summary		Replace a recipe with optimistic concurrency
//	@Tags			recipes
//	@Accept			json
//	@Produce		json
//	@Param			slug		path		string		true	"Recipe slug"
//	@Param			If-Match	header		string		false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body		RecipeInput	true	"Replacement recipe"
//	@Success		200			{object}	models.Recipe
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recipes/{slug} [put]
func (h *Handler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	slug := chi.URLParam(r, "slug")

	var in RecipeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	recipe, err := h.svc.Update(r.Context(), slug, in, r.Header.Get("If-Match"))
	if err != nil {
		writeServiceError(w, "update recipe", err, slog.String("slug", slug))
		return
	}
	w.Header().Set("ETag", checksum.ETag(recipe.Checksum))
	writeJSON(w, http.StatusOK, recipe)
}

// DeleteRecipe handles DELETE /api/recipes/{slug}.
//
//	@Summary		Delete a recipe
//	@Tags			recipes
//	@Param			slug	path	string	true	"Recipe slug"
//	@Success		204		"Recipe deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recipes/{slug} [delete]
func (h *Handler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if err := h.svc.Delete(r.Context(), slug); err != nil {
		writeServiceError(w, "delete recipe", err, slog.String("slug", slug))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
