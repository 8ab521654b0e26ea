package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/recipeboxapp/recipebox-server/internal/domain"
)

// OwnedStore narrows every operation to one owner. Reads only see the owner's
// rows, writes stamp the owner, and rows belonging to anyone else behave as if
// they did not exist.
type OwnedStore struct {
	s     Store
	owner int64
}

// Owned returns a view of s scoped to p.
func Owned(s Store, p domain.Principal) (*OwnedStore, error) {
	if p.Anonymous() {
		return nil, fmt.Errorf("owned store: %w", ErrInvalidInput)
	}
	return &OwnedStore{s: s, owner: p.UserID}, nil
}

// OwnerID returns the id every operation is scoped to.
func (o *OwnedStore) OwnerID() int64 { return o.owner }

// ListAttributes lists the owner's attributes of kind.
func (o *OwnedStore) ListAttributes(ctx context.Context, kind domain.AttributeKind, assignedOnly bool) ([]*domain.Attribute, error) {
	return o.s.ListAttributes(ctx, AttributeFilter{Kind: kind, OwnerID: o.owner, AssignedOnly: assignedOnly})
}

// CreateAttribute persists attr as the owner's, whatever attr.UserID held.
func (o *OwnedStore) CreateAttribute(ctx context.Context, attr *domain.Attribute) error {
	attr.UserID = o.owner
	return o.s.CreateAttribute(ctx, attr)
}

// ResolveAttributes loads the owner's attributes with the given ids. Ids that
// are unknown or owned by someone else come back in missing.
func (o *OwnedStore) ResolveAttributes(ctx context.Context, kind domain.AttributeKind, ids []int64) (found []*domain.Attribute, missing []int64, err error) {
	ids = domain.IDSet(ids)
	if len(ids) == 0 {
		return []*domain.Attribute{}, nil, nil
	}

	attrs, err := o.s.GetAttributesByIDs(ctx, kind, ids)
	if err != nil {
		return nil, nil, err
	}

	byID := make(map[int64]*domain.Attribute, len(attrs))
	for _, a := range attrs {
		if a.UserID == o.owner {
			byID[a.ID] = a
		}
	}

	found = make([]*domain.Attribute, 0, len(byID))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			found = append(found, a)
		} else {
			missing = append(missing, id)
		}
	}
	return found, missing, nil
}

// ListRecipes lists the owner's recipes matching the link filters.
func (o *OwnedStore) ListRecipes(ctx context.Context, tagIDs, ingredientIDs []int64) ([]*domain.Recipe, error) {
	return o.s.ListRecipes(ctx, RecipeFilter{OwnerID: o.owner, TagIDs: tagIDs, IngredientIDs: ingredientIDs})
}

// GetRecipe returns the recipe when the owner holds it, ErrNotFound otherwise.
func (o *OwnedStore) GetRecipe(ctx context.Context, id int64) (*domain.Recipe, error) {
	r, err := o.s.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.UserID != o.owner {
		return nil, ErrNotFound
	}
	return r, nil
}

// CreateRecipe persists r as the owner's.
func (o *OwnedStore) CreateRecipe(ctx context.Context, r *domain.Recipe) error {
	r.UserID = o.owner
	return o.s.CreateRecipe(ctx, r)
}

// UpdateRecipe writes r, which must already belong to the owner.
func (o *OwnedStore) UpdateRecipe(ctx context.Context, r *domain.Recipe) error {
	if _, err := o.GetRecipe(ctx, r.ID); err != nil {
		return err
	}
	r.UserID = o.owner
	return o.s.UpdateRecipe(ctx, r)
}

// SetRecipeImage points the owner's recipe at a new blob.
func (o *OwnedStore) SetRecipeImage(ctx context.Context, recipeID int64, image, blurHash string) error {
	return o.s.SetRecipeImage(ctx, recipeID, o.owner, image, blurHash)
}

// DeleteRecipe removes the owner's recipe.
func (o *OwnedStore) DeleteRecipe(ctx context.Context, recipeID int64) error {
	return o.s.DeleteRecipe(ctx, recipeID, o.owner)
}

// IsNotFound reports whether err is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
