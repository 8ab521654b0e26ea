// Package store defines the persistence interface for recipebox.
package store

import (
	"context"

	"github.com/recipeboxapp/recipebox-server/internal/domain"
)

// Store defines the persistence operations. Implementations never apply
// ownership rules themselves beyond what a filter asks for; callers go through
// Owned for that.
type Store interface {
	// Lifecycle
	Close() error
	Ping(ctx context.Context) error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, id int64) error

	// Tags and ingredients
	CreateAttribute(ctx context.Context, attr *domain.Attribute) error
	ListAttributes(ctx context.Context, filter AttributeFilter) ([]*domain.Attribute, error)
	GetAttributesByIDs(ctx context.Context, kind domain.AttributeKind, ids []int64) ([]*domain.Attribute, error)

	// Recipes
	CreateRecipe(ctx context.Context, recipe *domain.Recipe) error
	GetRecipe(ctx context.Context, id int64) (*domain.Recipe, error)
	ListRecipes(ctx context.Context, filter RecipeFilter) ([]*domain.Recipe, error)
	UpdateRecipe(ctx context.Context, recipe *domain.Recipe) error
	SetRecipeImage(ctx context.Context, recipeID, ownerID int64, image, blurHash string) error
	DeleteRecipe(ctx context.Context, recipeID, ownerID int64) error
}

// AttributeFilter selects tags or ingredients.
type AttributeFilter struct {
	Kind    domain.AttributeKind
	OwnerID int64 // required
	// AssignedOnly keeps attributes linked to at least one recipe of any owner.
	AssignedOnly bool
}

// RecipeFilter selects recipes. Each non-empty id set keeps recipes linked to
// any of its ids; the sets combine with AND.
type RecipeFilter struct {
	OwnerID       int64 // required
	TagIDs        []int64
	IngredientIDs []int64
}
