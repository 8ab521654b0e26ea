package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/recipeboxapp/recipebox-server/internal/domain"
	"github.com/recipeboxapp/recipebox-server/internal/service"
)

func (s *Server) registerRecipeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listRecipes",
		Method:      http.MethodGet,
		Path:        recipePrefix + "/recipes",
		Summary:     "List recipes",
		Description: "Returns the caller's recipes, optionally filtered by tag and ingredient ids",
		Tags:        []string{"Recipes"},
		Security:    bearer,
	}, s.handleListRecipes)

	huma.Register(s.api, huma.Operation{
		OperationID:      "createRecipe",
		Method:           http.MethodPost,
		Path:             recipePrefix + "/recipes",
		Summary:          "Create recipe",
		Description:      "Creates a recipe linked to the caller's tags and ingredients",
		Tags:             []string{"Recipes"},
		Security:         bearer,
		DefaultStatus:    http.StatusCreated,
		SkipValidateBody: true,
	}, s.handleCreateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecipe",
		Method:      http.MethodGet,
		Path:        recipePrefix + "/recipes/{id}",
		Summary:     "Get recipe",
		Description: "Returns a recipe with its tags and ingredients inline",
		Tags:        []string{"Recipes"},
		Security:    bearer,
	}, s.handleGetRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID:      "updateRecipe",
		Method:           http.MethodPut,
		Path:             recipePrefix + "/recipes/{id}",
		Summary:          "Replace recipe",
		Description:      "Replaces every field; omitted tags or ingredients become empty",
		Tags:             []string{"Recipes"},
		Security:         bearer,
		SkipValidateBody: true,
	}, s.handleUpdateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID:      "patchRecipe",
		Method:           http.MethodPatch,
		Path:             recipePrefix + "/recipes/{id}",
		Summary:          "Update recipe",
		Description:      "Updates supplied fields; supplied tags or ingredients replace the existing set",
		Tags:             []string{"Recipes"},
		Security:         bearer,
		SkipValidateBody: true,
	}, s.handlePatchRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteRecipe",
		Method:        http.MethodDelete,
		Path:          recipePrefix + "/recipes/{id}",
		Summary:       "Delete recipe",
		Description:   "Deletes a recipe and its links",
		Tags:          []string{"Recipes"},
		Security:      bearer,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteRecipe)
}

// === DTOs ===

// decimalField accepts a price as a JSON number or a JSON string and keeps
// its literal text, so 20.00 and "20.00" both arrive as "20.00".
type decimalField string

// UnmarshalJSON implements json.Unmarshaler. Values that are neither numbers
// nor strings are kept verbatim and rejected later by price validation.
func (d *decimalField) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = decimalField(s)
		return nil
	}
	*d = decimalField(data)
	return nil
}

// ListRecipesInput contains parameters for listing recipes.
type ListRecipesInput struct {
	Tags        string `query:"tags" doc:"Comma-separated tag ids; a recipe matches if it has any of them"`
	Ingredients string `query:"ingredients" doc:"Comma-separated ingredient ids; a recipe matches if it has any of them"`

	// Every occurrence of each parameter, so repeated ?tags=1&tags=2 works too.
	tagValues        []string
	ingredientValues []string
}

// Resolve captures repeated query values that huma folds into one.
func (in *ListRecipesInput) Resolve(ctx huma.Context) []error {
	u := ctx.URL()
	q := u.Query()
	in.tagValues = q["tags"]
	in.ingredientValues = q["ingredients"]
	return nil
}

// RecipeIDInput identifies one recipe.
type RecipeIDInput struct {
	ID string `path:"id" doc:"Recipe ID"`
}

// RecipeRequest is the request body for creating or updating a recipe.
type RecipeRequest struct {
	Title       *string       `json:"title,omitempty" maxLength:"255" doc:"Recipe title"`
	TimeMinutes *int          `json:"time_minutes,omitempty" minimum:"0" doc:"Preparation time in minutes"`
	Price       *decimalField `json:"price,omitempty" doc:"Price with at most two decimals, as a number or string"`
	Link        *string       `json:"link,omitempty" maxLength:"255" doc:"Source link"`
	Tags        []int64       `json:"tags,omitempty" doc:"Tag ids; replaces the current set when present"`
	Ingredients []int64       `json:"ingredients,omitempty" doc:"Ingredient ids; replaces the current set when present"`
}

func (r RecipeRequest) toService() service.RecipeRequest {
	req := service.RecipeRequest{
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Link:        r.Link,
		Tags:        r.Tags,
		Ingredients: r.Ingredients,
	}
	if r.Price != nil {
		price := string(*r.Price)
		req.Price = &price
	}
	return req
}

// WriteRecipeInput wraps a recipe body and its path id for Huma.
type WriteRecipeInput struct {
	ID   string        `path:"id" doc:"Recipe ID"`
	Body RecipeRequest `required:"false"`
}

// CreateRecipeInput wraps the create request for Huma.
type CreateRecipeInput struct {
	Body RecipeRequest `required:"false"`
}

// RecipeResponse is the summary form of a recipe: linked tags and
// ingredients appear as ids.
type RecipeResponse struct {
	ID            int64   `json:"id" doc:"Recipe ID"`
	Title         string  `json:"title" doc:"Recipe title"`
	TimeMinutes   int     `json:"time_minutes" doc:"Preparation time in minutes"`
	Price         string  `json:"price" doc:"Price as a decimal string with two fractional digits"`
	Link          string  `json:"link" doc:"Source link, may be empty"`
	Image         *string `json:"image" doc:"Public image URL, null when no image was uploaded"`
	ImageBlurHash string  `json:"image_blurhash,omitempty" doc:"BlurHash placeholder of the image"`
	Tags          []int64 `json:"tags" doc:"Linked tag ids"`
	Ingredients   []int64 `json:"ingredients" doc:"Linked ingredient ids"`
}

// RecipeDetailResponse is the detail form: linked tags and ingredients inline.
type RecipeDetailResponse struct {
	ID            int64               `json:"id" doc:"Recipe ID"`
	Title         string              `json:"title" doc:"Recipe title"`
	TimeMinutes   int                 `json:"time_minutes" doc:"Preparation time in minutes"`
	Price         string              `json:"price" doc:"Price as a decimal string with two fractional digits"`
	Link          string              `json:"link" doc:"Source link, may be empty"`
	Image         *string             `json:"image" doc:"Public image URL, null when no image was uploaded"`
	ImageBlurHash string              `json:"image_blurhash,omitempty" doc:"BlurHash placeholder of the image"`
	Tags          []AttributeResponse `json:"tags" doc:"Linked tags"`
	Ingredients   []AttributeResponse `json:"ingredients" doc:"Linked ingredients"`
}

// RecipeOutput wraps a recipe summary for Huma.
type RecipeOutput struct {
	Body RecipeResponse
}

// ListRecipesOutput wraps recipe summaries for Huma.
type ListRecipesOutput struct {
	Body []RecipeResponse
}

// RecipeDetailOutput wraps a recipe detail for Huma.
type RecipeDetailOutput struct {
	Body RecipeDetailResponse
}

// === Handlers ===

func (s *Server) handleListRecipes(ctx context.Context, input *ListRecipesInput) (*ListRecipesOutput, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	tagIDs, err := service.ParseIDList("tags", input.tagValues)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	ingredientIDs, err := service.ParseIDList("ingredients", input.ingredientValues)
	if err != nil {
		return nil, s.fail(ctx, err)
	}

	recipes, err := s.services.Recipes.List(ctx, p, tagIDs, ingredientIDs)
	if err != nil {
		return nil, s.fail(ctx, err)
	}

	resp := make([]RecipeResponse, len(recipes))
	for i, r := range recipes {
		resp[i] = s.recipeResponse(r)
	}
	return &ListRecipesOutput{Body: resp}, nil
}

func (s *Server) handleCreateRecipe(ctx context.Context, input *CreateRecipeInput) (*RecipeOutput, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	r, err := s.services.Recipes.Create(ctx, p, input.Body.toService())
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return &RecipeOutput{Body: s.recipeResponse(r)}, nil
}

func (s *Server) handleGetRecipe(ctx context.Context, input *RecipeIDInput) (*RecipeDetailOutput, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(input.ID)
	if err != nil {
		return nil, err
	}

	d, err := s.services.Recipes.GetDetail(ctx, p, id)
	if err != nil {
		return nil, s.fail(ctx, err)
	}

	sum := s.recipeResponse(d.Recipe)
	return &RecipeDetailOutput{Body: RecipeDetailResponse{
		ID:            sum.ID,
		Title:         sum.Title,
		TimeMinutes:   sum.TimeMinutes,
		Price:         sum.Price,
		Link:          sum.Link,
		Image:         sum.Image,
		ImageBlurHash: sum.ImageBlurHash,
		Tags:          attributeResponses(d.Tags),
		Ingredients:   attributeResponses(d.Ingredients),
	}}, nil
}

func (s *Server) handleUpdateRecipe(ctx context.Context, input *WriteRecipeInput) (*RecipeOutput, error) {
	return s.writeRecipe(ctx, input, s.services.Recipes.Update)
}

func (s *Server) handlePatchRecipe(ctx context.Context, input *WriteRecipeInput) (*RecipeOutput, error) {
	return s.writeRecipe(ctx, input, s.services.Recipes.Patch)
}

type recipeWriter func(context.Context, domain.Principal, int64, service.RecipeRequest) (*domain.Recipe, error)

func (s *Server) writeRecipe(ctx context.Context, input *WriteRecipeInput, write recipeWriter) (*RecipeOutput, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(input.ID)
	if err != nil {
		return nil, err
	}

	r, err := write(ctx, p, id, input.Body.toService())
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return &RecipeOutput{Body: s.recipeResponse(r)}, nil
}

func (s *Server) handleDeleteRecipe(ctx context.Context, input *RecipeIDInput) (*struct{}, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(input.ID)
	if err != nil {
		return nil, err
	}

	if err := s.services.Recipes.Delete(ctx, p, id); err != nil {
		return nil, s.fail(ctx, err)
	}
	return nil, nil
}

func (s *Server) recipeResponse(r *domain.Recipe) RecipeResponse {
	resp := RecipeResponse{
		ID:            r.ID,
		Title:         r.Title,
		TimeMinutes:   r.TimeMinutes,
		Price:         r.Price.String(),
		Link:          r.Link,
		ImageBlurHash: r.ImageBlurHash,
		Tags:          domain.IDSet(r.TagIDs),
		Ingredients:   domain.IDSet(r.IngredientIDs),
	}
	if url := s.services.Recipes.ImageURL(r); url != "" {
		resp.Image = &url
	}
	return resp
}
