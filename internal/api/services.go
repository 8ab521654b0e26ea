package api

import (
	"github.com/recipeboxapp/recipebox-server/internal/service"
)

// Services groups the business services used by the API server.
type Services struct {
	Users       *service.UserService
	Tags        *service.AttributeService
	Ingredients *service.AttributeService
	Recipes     *service.RecipeService
}
