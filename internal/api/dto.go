package api

import (
	"github.com/starford/cookbook/internal/index"
	"github.com/starford/cookbook/internal/recipeservice"
)

// RecipeInput is the request body for creating or replacing a recipe
// (aliased from the domain layer).
type RecipeInput = recipeservice.RecipeInput

// RecipeListItem is a lightweight item in a list response (aliased from the domain layer).
type RecipeListItem = recipeservice.RecipeListItem

// RecipeListResponse wraps paginated recipe listings.
type RecipeListResponse struct {
	Recipes []RecipeListItem `json:"recipes" validate:"required"`
	Total   int              `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps full-text search hits.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// TagsResponse lists every tag in use.
type TagsResponse struct {
	Tags []string `json:"tags" validate:"required"`
}

// CategoriesResponse lists every category in use.
type CategoriesResponse struct {
	Categories []string `json:"categories" validate:"required"`
}

// ImageUploadResponse is returned after a successful image upload.
type ImageUploadResponse struct {
	Filename string `json:"filename" example:"pho.webp" validate:"required"`
	Size     int64  `json:"size" example:"12345" validate:"required"`
	URL      string `json:"url" example:"/images/pho.webp" validate:"required"`
}
