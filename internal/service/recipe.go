package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/recipeboxapp/recipebox-server/internal/domain"
	domainerrors "github.com/recipeboxapp/recipebox-server/internal/errors"
	"github.com/recipeboxapp/recipebox-server/internal/id"
	"github.com/recipeboxapp/recipebox-server/internal/media"
	"github.com/recipeboxapp/recipebox-server/internal/store"
	"github.com/recipeboxapp/recipebox-server/internal/validation"
)

// MaxImageBytes is the largest accepted recipe image upload.
const MaxImageBytes = 10 << 20

// Image upload messages.
const (
	msgNoFile       = "No file was submitted."
	msgInvalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	msgImageTooBig  = "Ensure this file is no larger than 10 MiB."
)

// RecipeService implements recipe CRUD, link-set filters, and image upload.
type RecipeService struct {
	store     store.Store
	media     media.Storage
	validator *validation.Validator
	logger    *slog.Logger
}

// NewRecipeService creates a new recipe service.
func NewRecipeService(store store.Store, storage media.Storage, validator *validation.Validator, logger *slog.Logger) *RecipeService {
	return &RecipeService{
		store:     store,
		media:     storage,
		validator: validator,
		logger:    logger,
	}
}

// RecipeRequest is a create or update payload. Nil fields were absent from the
// request; for Tags and Ingredients nil means "not supplied" and an empty
// slice means "no links".
type RecipeRequest struct {
	Title       *string
	TimeMinutes *int
	Price       *string
	Link        *string
	Tags        []int64
	Ingredients []int64
}

// recipeFields is the merged, validated column set of a recipe.
type recipeFields struct {
	Title       *string `json:"title" validate:"required,notblank,max=255"`
	TimeMinutes *int    `json:"time_minutes" validate:"required,gte=0"`
	Price       *string `json:"price" validate:"required,notblank"`
	Link        *string `json:"link" validate:"omitempty,max=255"`
}

// RecipeDetail is a recipe with its linked tags and ingredients loaded.
type RecipeDetail struct {
	*domain.Recipe
	Tags        []*domain.Attribute
	Ingredients []*domain.Attribute
}

// List returns the caller's recipes. A non-empty tagIDs keeps recipes linked
// to any of those tags; ingredientIDs likewise. Both filters must hold.
func (s *RecipeService) List(ctx context.Context, p domain.Principal, tagIDs, ingredientIDs []int64) ([]*domain.Recipe, error) {
	o, err := owned(s.store, p)
	if err != nil {
		return nil, err
	}

	recipes, err := o.ListRecipes(ctx, domain.IDSet(tagIDs), domain.IDSet(ingredientIDs))
	if err != nil {
		return nil, translate(err)
	}
	return recipes, nil
}

// Get returns one of the caller's recipes.
func (s *RecipeService) Get(ctx context.Context, p domain.Principal, recipeID int64) (*domain.Recipe, error) {
	o, err := owned(s.store, p)
	if err != nil {
		return nil, err
	}

	r, err := o.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, translate(err)
	}
	return r, nil
}

// GetDetail returns one of the caller's recipes with its tags and ingredients.
func (s *RecipeService) GetDetail(ctx context.Context, p domain.Principal, recipeID int64) (*RecipeDetail, error) {
	o, err := owned(s.store, p)
	if err != nil {
		return nil, err
	}

	r, err := o.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, translate(err)
	}
	return s.detail(ctx, o, r)
}

// detail loads both link sets through the owner's view, so a link row
// pointing at another user's attribute is never shown.
func (s *RecipeService) detail(ctx context.Context, o *store.OwnedStore, r *domain.Recipe) (*RecipeDetail, error) {
	d := &RecipeDetail{Recipe: r}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.Tags, _, err = o.ResolveAttributes(gctx, domain.KindTag, r.TagIDs)
		return err
	})
	g.Go(func() error {
		var err error
		d.Ingredients, _, err = o.ResolveAttributes(gctx, domain.KindIngredient, r.IngredientIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, translate(err)
	}
	return d, nil
}

// Create stores a new recipe owned by the caller, linked to the given tags
// and ingredients, which must also be the caller's.
func (s *RecipeService) Create(ctx context.Context, p domain.Principal, req RecipeRequest) (*domain.Recipe, error) {
	o, err := owned(s.store, p)
	if err != nil {
		return nil, err
	}

	r := &domain.Recipe{}
	if err := s.apply(ctx, o, r, recipeFields{
		Title:       req.Title,
		TimeMinutes: req.TimeMinutes,
		Price:       req.Price,
		Link:        req.Link,
	}, req.Tags, req.Ingredients); err != nil {
		return nil, err
	}

	if err := o.CreateRecipe(ctx, r); err != nil {
		return nil, translate(err)
	}

	s.logger.Info("recipe created",
		"recipe_id", r.ID,
		"user_id", p.UserID,
		"tags", len(r.TagIDs),
		"ingredients", len(r.IngredientIDs),
	)
	return r, nil
}

// Update replaces every field of the caller's recipe. Link sets missing from
// req become empty.
func (s *RecipeService) Update(ctx context.Context, p domain.Principal, recipeID int64, req RecipeRequest) (*domain.Recipe, error) {
	o, err := owned(s.store, p)
	if err != nil {
		return nil, err
	}

	r, err := o.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, translate(err)
	}

	link := req.Link
	if link == nil {
		link = new(string)
	}
	tags, ingredients := req.Tags, req.Ingredients
	if tags == nil {
		tags = []int64{}
	}
	if ingredients == nil {
		ingredients = []int64{}
	}

	if err := s.apply(ctx, o, r, recipeFields{
		Title:       req.Title,
		TimeMinutes: req.TimeMinutes,
		Price:       req.Price,
		Link:        link,
	}, tags, ingredients); err != nil {
		return nil, err
	}
	return s.save(ctx, o, p, r)
}

// Patch changes only the fields present in req. A supplied link set replaces
// the stored one entirely.
func (s *RecipeService) Patch(ctx context.Context, p domain.Principal, recipeID int64, req RecipeRequest) (*domain.Recipe, error) {
	o, err := owned(s.store, p)
	if err != nil {
		return nil, err
	}

	r, err := o.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, translate(err)
	}

	fields := recipeFields{
		Title:       &r.Title,
		TimeMinutes: &r.TimeMinutes,
		Price:       new(string),
		Link:        &r.Link,
	}
	*fields.Price = r.Price.String()
	if req.Title != nil {
		fields.Title = req.Title
	}
	if req.TimeMinutes != nil {
		fields.TimeMinutes = req.TimeMinutes
	}
	if req.Price != nil {
		fields.Price = req.Price
	}
	if req.Link != nil {
		fields.Link = req.Link
	}

	if err := s.apply(ctx, o, r, fields, req.Tags, req.Ingredients); err != nil {
		return nil, err
	}
	return s.save(ctx, o, p, r)
}

func (s *RecipeService) save(ctx context.Context, o *store.OwnedStore, p domain.Principal, r *domain.Recipe) (*domain.Recipe, error) {
	if err := o.UpdateRecipe(ctx, r); err != nil {
		return nil, translate(err)
	}

	s.logger.Info("recipe updated",
		"recipe_id", r.ID,
		"user_id", p.UserID,
	)
	return r, nil
}

// apply validates fields and the supplied link sets and writes them onto r.
// Nil link sets leave r's links untouched. All problems are reported together.
func (s *RecipeService) apply(ctx context.Context, o *store.OwnedStore, r *domain.Recipe, f recipeFields, tags, ingredients []int64) error {
	f.Title = trimmed(f.Title)

	var fields domainerrors.FieldErrors
	if err := s.validator.Validate(f); err != nil {
		var derr *domainerrors.Error
		if !errors.As(err, &derr) {
			return err
		}
		fields = derr.Fields
	}

	var price domain.Price
	if f.Price != nil && len(fields["price"]) == 0 {
		var err error
		if price, err = domain.ParsePrice(*f.Price); err != nil {
			fields.Add("price", err.Error())
		}
	}

	links := map[domain.AttributeKind][]int64{domain.KindTag: tags, domain.KindIngredient: ingredients}
	for _, kind := range []domain.AttributeKind{domain.KindTag, domain.KindIngredient} {
		ids := links[kind]
		if ids == nil {
			continue
		}
		_, missing, err := o.ResolveAttributes(ctx, kind, ids)
		if err != nil {
			return translate(err)
		}
		missingLinks(&fields, kind.Field(), missing)
	}

	if err := fields.Err(); err != nil {
		return err
	}

	r.Title = *f.Title
	r.TimeMinutes = *f.TimeMinutes
	r.Price = price
	if f.Link != nil {
		r.Link = *f.Link
	}
	for kind, ids := range links {
		if ids != nil {
			r.SetLinkIDs(kind, ids)
		}
	}
	return nil
}

// Delete removes one of the caller's recipes.
func (s *RecipeService) Delete(ctx context.Context, p domain.Principal, recipeID int64) error {
	o, err := owned(s.store, p)
	if err != nil {
		return err
	}

	if err := o.DeleteRecipe(ctx, recipeID); err != nil {
		return translate(err)
	}

	s.logger.Info("recipe deleted",
		"recipe_id", recipeID,
		"user_id", p.UserID,
	)
	return nil
}

// ImageUpload is one uploaded file. Data is nil when no file was sent.
type ImageUpload struct {
	Filename string
	Data     []byte
}

// UploadImage validates the upload as an image, stores it under a fresh name
// in uploads/recipe/, and points the caller's recipe at it. The previous blob
// is left in place.
func (s *RecipeService) UploadImage(ctx context.Context, p domain.Principal, recipeID int64, upload ImageUpload) (*domain.Recipe, error) {
	o, err := owned(s.store, p)
	if err != nil {
		return nil, err
	}

	r, err := o.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, translate(err)
	}

	switch {
	case upload.Data == nil:
		return nil, domainerrors.FieldError("image", msgNoFile)
	case len(upload.Data) > MaxImageBytes:
		return nil, domainerrors.FieldError("image", msgImageTooBig)
	}

	img, err := media.Inspect(upload.Data)
	if err != nil {
		if errors.Is(err, media.ErrNotImage) {
			return nil, domainerrors.FieldError("image", msgInvalidImage).WithCause(err)
		}
		return nil, translate(err)
	}

	name := domain.RecipeImagePath(id.Opaque(), upload.Filename, img.Extension())
	if err := s.media.Save(ctx, name, bytes.NewReader(upload.Data), int64(len(upload.Data)), img.ContentType()); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, msgInternalFailure)
	}

	if err := o.SetRecipeImage(ctx, r.ID, name, img.BlurHash); err != nil {
		return nil, translate(err)
	}
	r.Image = name
	r.ImageBlurHash = img.BlurHash

	s.logger.Info("recipe image uploaded",
		"recipe_id", r.ID,
		"user_id", p.UserID,
		"image", name,
		"format", img.Format,
		"size", len(upload.Data),
	)
	return r, nil
}

// ImageURL returns the public address of a stored recipe image, or "" when
// the recipe has none.
func (s *RecipeService) ImageURL(r *domain.Recipe) string {
	if r.Image == "" {
		return ""
	}
	return s.media.URL(r.Image)
}
