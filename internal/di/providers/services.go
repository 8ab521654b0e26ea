package providers

import (
	"github.com/samber/do/v2"

	"github.com/recipeboxapp/recipebox-server/internal/auth"
	"github.com/recipeboxapp/recipebox-server/internal/domain"
	"github.com/recipeboxapp/recipebox-server/internal/logger"
	"github.com/recipeboxapp/recipebox-server/internal/media"
	"github.com/recipeboxapp/recipebox-server/internal/service"
	"github.com/recipeboxapp/recipebox-server/internal/validation"
)

// AttributeServices holds the tag and ingredient services, which share a type.
type AttributeServices struct {
	Tags        *service.AttributeService
	Ingredients *service.AttributeService
}

// ProvideUserService provides the account and token service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	hasher := do.MustInvoke[*auth.PasswordHasher](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUserService(storeHandle.Store, tokens, hasher, v, log.Logger), nil
}

// ProvideAttributeServices provides one attribute service per kind.
func ProvideAttributeServices(i do.Injector) (*AttributeServices, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	tags, err := service.NewAttributeService(domain.KindTag, storeHandle.Store, v, log.Logger)
	if err != nil {
		return nil, err
	}
	ingredients, err := service.NewAttributeService(domain.KindIngredient, storeHandle.Store, v, log.Logger)
	if err != nil {
		return nil, err
	}
	return &AttributeServices{Tags: tags, Ingredients: ingredients}, nil
}

// ProvideRecipeService provides the recipe service.
func ProvideRecipeService(i do.Injector) (*service.RecipeService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	storage := do.MustInvoke[media.Storage](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRecipeService(storeHandle.Store, storage, v, log.Logger), nil
}
