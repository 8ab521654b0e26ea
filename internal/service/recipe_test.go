package service

import (
	"context"
	"path/filepath"
	"regexp"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipeboxapp/recipebox-server/internal/domain"
	domainerrors "github.com/recipeboxapp/recipebox-server/internal/errors"
)

var imagePathPattern = regexp.MustCompile(`^uploads/recipe/[^/]+\.[^./]+$`)

func titles(recipes []*domain.Recipe) []string {
	out := make([]string, len(recipes))
	for i, r := range recipes {
		out[i] = r.Title
	}
	sort.Strings(out)
	return out
}

func TestParseIDList(t *testing.T) {
	tests := []struct {
		name    string
		values  []string
		want    []int64
		wantErr bool
	}{
		{"nil", nil, nil, false},
		{"empty value", []string{""}, nil, false},
		{"comma list", []string{"1,2,3"}, []int64{1, 2, 3}, false},
		{"repeated", []string{"4", "5"}, []int64{4, 5}, false},
		{"mixed", []string{"1,2", "3"}, []int64{1, 2, 3}, false},
		{"spaces", []string{" 7 , 8"}, []int64{7, 8}, false},
		{"word", []string{"1,abc"}, nil, true},
		{"trailing comma", []string{"1,"}, nil, true},
		{"float", []string{"1.5"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIDList("tags", tt.values)
			if tt.wantErr {
				fields := fieldErrors(t, err)
				assert.Equal(t, []string{msgInvalidInteger}, fields["tags"])
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecipeService_CreateWithTags(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.principal(t, "alice@example.com")
	t1 := env.tag(t, alice, "Vegan")
	t2 := env.tag(t, alice, "Dessert")

	r, err := env.recipes.Create(ctx, alice, RecipeRequest{
		Title:       ptr("Avocado lime cheesecake"),
		TimeMinutes: ptr(30),
		Price:       ptr("20.00"),
		Tags:        []int64{t1.ID, t2.ID, t1.ID},
	})
	require.NoError(t, err)
	assert.NotZero(t, r.ID)
	assert.Equal(t, alice.UserID, r.UserID)
	assert.Equal(t, "20.00", r.Price.String())
	assert.Equal(t, "", r.Link)
	assert.ElementsMatch(t, []int64{t1.ID, t2.ID}, r.TagIDs)
	assert.Empty(t, r.IngredientIDs)

	d, err := env.recipes.GetDetail(ctx, alice, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Avocado lime cheesecake", d.Title)
	assert.ElementsMatch(t, []string{"Vegan", "Dessert"}, names(d.Tags))
	assert.Empty(t, d.Ingredients)
}

func TestRecipeService_GetDetailShowsOnlyOwnAttributes(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.principal(t, "alice@example.com")
	bob := env.principal(t, "bob@example.com")
	mine := env.tag(t, alice, "Mine")
	theirs := env.tag(t, bob, "Theirs")
	r := env.recipe(t, alice, "Soup", []int64{mine.ID}, nil)

	// A link row written straight to the store, past the service checks.
	r.SetLinkIDs(domain.KindTag, []int64{mine.ID, theirs.ID})
	require.NoError(t, env.store.UpdateRecipe(ctx, r))

	d, err := env.recipes.GetDetail(ctx, alice, r.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mine"}, names(d.Tags))
}

func TestRecipeService_CreateValidation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.principal(t, "alice@example.com")

	_, err := env.recipes.Create(ctx, alice, RecipeRequest{})
	fields := fieldErrors(t, err)
	assert.Equal(t, []string{"This field is required."}, fields["title"])
	assert.Equal(t, []string{"This field is required."}, fields["time_minutes"])
	assert.Equal(t, []string{"This field is required."}, fields["price"])

	_, err = env.recipes.Create(ctx, alice, RecipeRequest{Title: ptr(" "), TimeMinutes: ptr(-1), Price: ptr("1.234")})
	fields = fieldErrors(t, err)
	assert.Equal(t, []string{"This field may not be blank."}, fields["title"])
	assert.Equal(t, []string{"Ensure this value is greater than or equal to 0."}, fields["time_minutes"])
	assert.Equal(t, []string{domain.ErrPriceDecimals.Error()}, fields["price"])

	_, err = env.recipes.Create(ctx, alice, RecipeRequest{Title: ptr("x"), TimeMinutes: ptr(1), Price: ptr("1000")})
	fields = fieldErrors(t, err)
	assert.Equal(t, []string{domain.ErrPriceTooLarge.Error()}, fields["price"])

	list, err := env.recipes.List(ctx, alice, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, list, "failed creates must not persist anything")
}

func TestRecipeService_LinksMustBelongToCaller(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.principal(t, "alice@example.com")
	bob := env.principal(t, "bob@example.com")
	bobsTag := env.tag(t, bob, "Secret")

	_, err := env.recipes.Create(ctx, alice, RecipeRequest{
		Title:       ptr("Soup"),
		TimeMinutes: ptr(5),
		Price:       ptr("1"),
		Tags:        []int64{bobsTag.ID},
		Ingredients: []int64{9999},
	})
	fields := fieldErrors(t, err)
	assert.Equal(t, []string{`Invalid pk "` + itoa(bobsTag.ID) + `" - object does not exist.`}, fields["tags"])
	assert.Equal(t, []string{`Invalid pk "9999" - object does not exist.`}, fields["ingredients"])
}

func TestRecipeService_OwnerStamping(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.principal(t, "alice@example.com")
	bob := env.principal(t, "bob@example.com")

	r := env.recipe(t, alice, "Mine", nil, nil)
	assert.Equal(t, alice.UserID, r.UserID)

	_, err := env.recipes.Get(ctx, bob, r.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	bobs, err := env.recipes.List(ctx, bob, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, bobs)
}

func TestRecipeService_ListFilters(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.principal(t, "alice@example.com")
	t1 := env.tag(t, alice, "Vegan")
	t2 := env.tag(t, alice, "Vegetarian")
	i1 := env.ingredient(t, alice, "Feta")
	i2 := env.ingredient(t, alice, "Chicken")

	env.recipe(t, alice, "R1", []int64{t1.ID}, []int64{i1.ID})
	env.recipe(t, alice, "R2", []int64{t2.ID}, []int64{i2.ID})
	env.recipe(t, alice, "R3", nil, nil)

	got, err := env.recipes.List(ctx, alice, []int64{t1.ID, t2.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"R1", "R2"}, titles(got))

	got, err = env.recipes.List(ctx, alice, nil, []int64{i1.ID, i2.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"R1", "R2"}, titles(got))

	got, err = env.recipes.List(ctx, alice, []int64{t1.ID, t2.ID}, []int64{i2.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"R2"}, titles(got))

	got, err = env.recipes.List(ctx, alice, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"R1", "R2", "R3"}, titles(got))
}

func TestRecipeService_UpdateClearsMissingLinks(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.principal(t, "alice@example.com")
	tag := env.tag(t, alice, "Dinner")
	ing := env.ingredient(t, alice, "Pasta")
	r := env.recipe(t, alice, "Pasta", []int64{tag.ID}, []int64{ing.ID})

	updated, err := env.recipes.Update(ctx, alice, r.ID, RecipeRequest{
		Title:       ptr("Spaghetti carbonara"),
		TimeMinutes: ptr(25),
		Price:       ptr("5.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Spaghetti carbonara", updated.Title)

	got, err := env.recipes.Get(ctx, alice, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Spaghetti carbonara", got.Title)
	assert.Equal(t, 25, got.TimeMinutes)
	assert.Empty(t, got.TagIDs)
	assert.Empty(t, got.IngredientIDs)
}

func TestRecipeService_UpdateRequiresAllFields(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.principal(t, "alice@example.com")
	r := env.recipe(t, alice, "Soup", nil, nil)

	_, err := env.recipes.Update(context.Background(), alice, r.ID, RecipeRequest{Title: ptr("Only title")})
	fields := fieldErrors(t, err)
	assert.Contains(t, fields, "time_minutes")
	assert.Contains(t, fields, "price")
}

func TestRecipeService_PatchReplacesLinks(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.principal(t, "alice@example.com")
	old := env.tag(t, alice, "Old")
	fresh := env.tag(t, alice, "Fresh")
	ing := env.ingredient(t, alice, "Salt")
	r := env.recipe(t, alice, "Soup", []int64{old.ID}, []int64{ing.ID})

	patched, err := env.recipes.Patch(ctx, alice, r.ID, RecipeRequest{Tags: []int64{fresh.ID}})
	require.NoError(t, err)
	assert.Equal(t, []int64{fresh.ID}, patched.TagIDs)

	got, err := env.recipes.Get(ctx, alice, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Soup", got.Title, "unsupplied fields are kept")
	assert.Equal(t, "5.00", got.Price.String())
	assert.Equal(t, []int64{fresh.ID}, got.TagIDs)
	assert.Equal(t, []int64{ing.ID}, got.IngredientIDs, "unsupplied link sets are kept")

	patched, err = env.recipes.Patch(ctx, alice, r.ID, RecipeRequest{Title: ptr("New soup"), Price: ptr("7.5"), Ingredients: []int64{}})
	require.NoError(t, err)
	assert.Equal(t, "New soup", patched.Title)
	assert.Equal(t, "7.50", patched.Price.String())
	assert.Empty(t, patched.IngredientIDs)
}

func TestRecipeService_PatchValidation(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.principal(t, "alice@example.com")
	r := env.recipe(t, alice, "Soup", nil, nil)

	_, err := env.recipes.Patch(context.Background(), alice, r.ID, RecipeRequest{Title: ptr(""), Price: ptr("abc")})
	fields := fieldErrors(t, err)
	assert.Equal(t, []string{"This field may not be blank."}, fields["title"])
	assert.Equal(t, []string{domain.ErrPriceInvalid.Error()}, fields["price"])
}

func TestRecipeService_MutationsHideOtherOwners(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.principal(t, "alice@example.com")
	bob := env.principal(t, "bob@example.com")
	r := env.recipe(t, alice, "Soup", nil, nil)

	_, err := env.recipes.Patch(ctx, bob, r.ID, RecipeRequest{Title: ptr("Mine now")})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = env.recipes.Update(ctx, bob, r.ID, RecipeRequest{Title: ptr("x"), TimeMinutes: ptr(1), Price: ptr("1")})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	err = env.recipes.Delete(ctx, bob, r.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = env.recipes.UploadImage(ctx, bob, r.ID, ImageUpload{Filename: "a.jpg", Data: jpegBytes(t, 10, 10)})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	got, err := env.recipes.Get(ctx, alice, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Soup", got.Title)
}

func TestRecipeService_Delete(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.principal(t, "alice@example.com")
	r := env.recipe(t, alice, "Soup", nil, nil)

	require.NoError(t, env.recipes.Delete(ctx, alice, r.ID))

	_, err := env.recipes.Get(ctx, alice, r.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	assert.ErrorIs(t, env.recipes.Delete(ctx, alice, r.ID), domainerrors.ErrNotFound)
}

func TestRecipeService_UploadImage(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.principal(t, "alice@example.com")
	r := env.recipe(t, alice, "Soup", nil, nil)

	updated, err := env.recipes.UploadImage(ctx, alice, r.ID, ImageUpload{Filename: "photo.JPEG", Data: jpegBytes(t, 10, 10)})
	require.NoError(t, err)
	assert.Regexp(t, imagePathPattern, updated.Image)
	assert.Equal(t, ".JPEG", filepath.Ext(updated.Image), "extension is kept as uploaded")
	assert.NotEmpty(t, updated.ImageBlurHash)
	assert.Equal(t, "/media/"+updated.Image, env.recipes.ImageURL(updated))

	ok, err := env.media.Exists(ctx, updated.Image)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := env.recipes.Get(ctx, alice, r.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Image, got.Image)

	again, err := env.recipes.UploadImage(ctx, alice, r.ID, ImageUpload{Filename: "photo.jpg", Data: jpegBytes(t, 12, 12)})
	require.NoError(t, err)
	assert.NotEqual(t, updated.Image, again.Image, "each upload gets a fresh name")
}

func TestRecipeService_UploadImageFallbackExtension(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.principal(t, "alice@example.com")
	r := env.recipe(t, alice, "Soup", nil, nil)

	updated, err := env.recipes.UploadImage(context.Background(), alice, r.ID, ImageUpload{Filename: "noext", Data: jpegBytes(t, 10, 10)})
	require.NoError(t, err)
	assert.Regexp(t, imagePathPattern, updated.Image)
	assert.Equal(t, ".jpg", filepath.Ext(updated.Image))
}

func TestRecipeService_UploadImageRejects(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.principal(t, "alice@example.com")
	r := env.recipe(t, alice, "Soup", nil, nil)

	_, err := env.recipes.UploadImage(ctx, alice, r.ID, ImageUpload{})
	assert.Equal(t, []string{msgNoFile}, fieldErrors(t, err)["image"])

	_, err = env.recipes.UploadImage(ctx, alice, r.ID, ImageUpload{Filename: "notimage.txt", Data: []byte("notimage")})
	assert.Equal(t, []string{msgInvalidImage}, fieldErrors(t, err)["image"])

	_, err = env.recipes.UploadImage(ctx, alice, r.ID, ImageUpload{Filename: "big.jpg", Data: make([]byte, MaxImageBytes+1)})
	assert.Equal(t, []string{msgImageTooBig}, fieldErrors(t, err)["image"])

	got, err := env.recipes.Get(ctx, alice, r.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Image)
}
