package sqlstore

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/recipeboxapp/recipebox-server/internal/domain"
	"github.com/recipeboxapp/recipebox-server/internal/store"
)

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func recipeTitles(recipes []*domain.Recipe) []string {
	titles := make([]string, len(recipes))
	for i, r := range recipes {
		titles[i] = r.Title
	}
	sort.Strings(titles)
	return titles
}

func TestCreateAndGetRecipe(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := makeTestUser(t, s, "cook@example.com")
	tag := makeTestAttribute(t, s, domain.KindTag, u.ID, "Dinner")
	ing1 := makeTestAttribute(t, s, domain.KindIngredient, u.ID, "Salt")
	ing2 := makeTestAttribute(t, s, domain.KindIngredient, u.ID, "Pepper")

	r := &domain.Recipe{
		UserID:        u.ID,
		Title:         "Thai Curry",
		TimeMinutes:   30,
		Price:         2050,
		Link:          "https://example.com/curry",
		TagIDs:        []int64{tag.ID, tag.ID},
		IngredientIDs: []int64{ing2.ID, ing1.ID},
	}
	if err := s.CreateRecipe(ctx, r); err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}
	if r.ID == 0 {
		t.Fatal("CreateRecipe did not set ID")
	}
	if !equalIDs(r.TagIDs, []int64{tag.ID}) {
		t.Errorf("duplicate tag not collapsed: %v", r.TagIDs)
	}

	got, err := s.GetRecipe(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRecipe: %v", err)
	}
	if got.Title != "Thai Curry" || got.TimeMinutes != 30 || got.Link != "https://example.com/curry" || got.UserID != u.ID {
		t.Errorf("GetRecipe fields: %+v", got)
	}
	if got.Price != 2050 || got.Price.String() != "20.50" {
		t.Errorf("price: got %d (%s), want 2050", got.Price, got.Price)
	}
	if got.Image != "" || got.ImageBlurHash != "" {
		t.Errorf("new recipe should have no image: %+v", got)
	}
	if !equalIDs(got.TagIDs, []int64{tag.ID}) {
		t.Errorf("tags: got %v", got.TagIDs)
	}
	if !equalIDs(got.IngredientIDs, []int64{ing1.ID, ing2.ID}) {
		t.Errorf("ingredients: got %v, want %v", got.IngredientIDs, []int64{ing1.ID, ing2.ID})
	}
}

func TestCreateRecipe_WholePrice(t *testing.T) {
	s := newTestStore(t)
	u := makeTestUser(t, s, "cook@example.com")

	r := &domain.Recipe{UserID: u.ID, Title: "Toast", TimeMinutes: 2, Price: 500}
	if err := s.CreateRecipe(context.Background(), r); err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}

	got, err := s.GetRecipe(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("GetRecipe: %v", err)
	}
	if got.Price.String() != "5.00" {
		t.Errorf("price: got %s, want 5.00", got.Price)
	}
	if got.TagIDs == nil || got.IngredientIDs == nil {
		t.Error("link sets should be empty, not nil")
	}
}

func TestCreateRecipe_InvalidReference(t *testing.T) {
	s := newTestStore(t)
	u := makeTestUser(t, s, "cook@example.com")

	r := &domain.Recipe{UserID: u.ID, Title: "Ghost", TimeMinutes: 1, TagIDs: []int64{999}}
	err := s.CreateRecipe(context.Background(), r)
	if !errors.Is(err, store.ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}

	list, err := s.ListRecipes(context.Background(), store.RecipeFilter{OwnerID: u.ID})
	if err != nil {
		t.Fatalf("ListRecipes: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("failed create left %d recipes behind", len(list))
	}
}

func TestListRecipes_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := makeTestUser(t, s, "cook@example.com")
	other := makeTestUser(t, s, "other@example.com")

	vegan := makeTestAttribute(t, s, domain.KindTag, u.ID, "Vegan")
	quick := makeTestAttribute(t, s, domain.KindTag, u.ID, "Quick")
	tofu := makeTestAttribute(t, s, domain.KindIngredient, u.ID, "Tofu")
	rice := makeTestAttribute(t, s, domain.KindIngredient, u.ID, "Rice")

	makeTestRecipe(t, s, u.ID, "Both tags", []int64{vegan.ID, quick.ID}, []int64{tofu.ID})
	makeTestRecipe(t, s, u.ID, "Vegan rice", []int64{vegan.ID}, []int64{rice.ID})
	makeTestRecipe(t, s, u.ID, "Quick", []int64{quick.ID}, nil)
	makeTestRecipe(t, s, u.ID, "Plain", nil, nil)
	makeTestRecipe(t, s, other.ID, "Not mine", nil, nil)

	tests := []struct {
		name   string
		filter store.RecipeFilter
		want   []string
	}{
		{"no filter", store.RecipeFilter{OwnerID: u.ID}, []string{"Both tags", "Plain", "Quick", "Vegan rice"}},
		{"one tag", store.RecipeFilter{OwnerID: u.ID, TagIDs: []int64{vegan.ID}}, []string{"Both tags", "Vegan rice"}},
		{"tags are OR", store.RecipeFilter{OwnerID: u.ID, TagIDs: []int64{vegan.ID, quick.ID}}, []string{"Both tags", "Quick", "Vegan rice"}},
		{"ingredient", store.RecipeFilter{OwnerID: u.ID, IngredientIDs: []int64{rice.ID}}, []string{"Vegan rice"}},
		{"tag AND ingredient", store.RecipeFilter{OwnerID: u.ID, TagIDs: []int64{quick.ID}, IngredientIDs: []int64{tofu.ID, rice.ID}}, []string{"Both tags"}},
		{"unknown tag", store.RecipeFilter{OwnerID: u.ID, TagIDs: []int64{999}}, []string{}},
		{"other owner", store.RecipeFilter{OwnerID: other.ID}, []string{"Not mine"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListRecipes(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListRecipes: %v", err)
			}
			if titles := recipeTitles(got); !equalStrings(titles, tt.want) {
				t.Errorf("got %v, want %v", titles, tt.want)
			}
		})
	}
}

func TestListRecipes_LoadsLinks(t *testing.T) {
	s := newTestStore(t)
	u := makeTestUser(t, s, "cook@example.com")
	tag := makeTestAttribute(t, s, domain.KindTag, u.ID, "Dinner")
	ing := makeTestAttribute(t, s, domain.KindIngredient, u.ID, "Salt")
	r := makeTestRecipe(t, s, u.ID, "Soup", []int64{tag.ID}, []int64{ing.ID})

	got, err := s.ListRecipes(context.Background(), store.RecipeFilter{OwnerID: u.ID, TagIDs: []int64{tag.ID}})
	if err != nil {
		t.Fatalf("ListRecipes: %v", err)
	}
	if len(got) != 1 || got[0].ID != r.ID {
		t.Fatalf("expected recipe %d, got %+v", r.ID, got)
	}
	if !equalIDs(got[0].TagIDs, []int64{tag.ID}) || !equalIDs(got[0].IngredientIDs, []int64{ing.ID}) {
		t.Errorf("links: tags=%v ingredients=%v", got[0].TagIDs, got[0].IngredientIDs)
	}
}

func TestUpdateRecipe_ReplacesLinks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := makeTestUser(t, s, "cook@example.com")
	a := makeTestAttribute(t, s, domain.KindTag, u.ID, "A")
	b := makeTestAttribute(t, s, domain.KindTag, u.ID, "B")
	c := makeTestAttribute(t, s, domain.KindTag, u.ID, "C")
	salt := makeTestAttribute(t, s, domain.KindIngredient, u.ID, "Salt")

	r := makeTestRecipe(t, s, u.ID, "Soup", []int64{a.ID, b.ID}, []int64{salt.ID})
	if err := s.SetRecipeImage(ctx, r.ID, u.ID, "uploads/recipe/x.png", "LEHV6nWB2yk8"); err != nil {
		t.Fatalf("SetRecipeImage: %v", err)
	}

	r.Title = "Better soup"
	r.Price = 1299
	r.TagIDs = []int64{c.ID, b.ID}
	r.IngredientIDs = nil
	if err := s.UpdateRecipe(ctx, r); err != nil {
		t.Fatalf("UpdateRecipe: %v", err)
	}

	got, err := s.GetRecipe(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRecipe: %v", err)
	}
	if got.Title != "Better soup" || got.Price.String() != "12.99" {
		t.Errorf("fields not updated: %+v", got)
	}
	if !equalIDs(got.TagIDs, []int64{b.ID, c.ID}) {
		t.Errorf("tags: got %v, want %v", got.TagIDs, []int64{b.ID, c.ID})
	}
	if len(got.IngredientIDs) != 0 {
		t.Errorf("ingredients should be cleared, got %v", got.IngredientIDs)
	}
	if got.Image != "uploads/recipe/x.png" || got.ImageBlurHash != "LEHV6nWB2yk8" {
		t.Errorf("update must not touch the image: %+v", got)
	}
}

func TestUpdateRecipe_WrongOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := makeTestUser(t, s, "alice@example.com")
	bob := makeTestUser(t, s, "bob@example.com")
	r := makeTestRecipe(t, s, alice.ID, "Soup", nil, nil)

	err := s.UpdateRecipe(ctx, &domain.Recipe{ID: r.ID, UserID: bob.ID, Title: "Stolen", TimeMinutes: 1})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	got, err := s.GetRecipe(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRecipe: %v", err)
	}
	if got.Title != "Soup" {
		t.Errorf("recipe changed by non-owner: %q", got.Title)
	}
}

func TestSetRecipeImage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := makeTestUser(t, s, "alice@example.com")
	bob := makeTestUser(t, s, "bob@example.com")
	r := makeTestRecipe(t, s, alice.ID, "Soup", nil, nil)

	if err := s.SetRecipeImage(ctx, r.ID, bob.ID, "uploads/recipe/x.png", ""); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("non-owner: expected ErrNotFound, got %v", err)
	}

	if err := s.SetRecipeImage(ctx, r.ID, alice.ID, "uploads/recipe/first.jpg", "hash1"); err != nil {
		t.Fatalf("SetRecipeImage: %v", err)
	}
	if err := s.SetRecipeImage(ctx, r.ID, alice.ID, "uploads/recipe/second.jpg", "hash2"); err != nil {
		t.Fatalf("SetRecipeImage: %v", err)
	}

	got, err := s.GetRecipe(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRecipe: %v", err)
	}
	if got.Image != "uploads/recipe/second.jpg" || got.ImageBlurHash != "hash2" {
		t.Errorf("last write should win: %+v", got)
	}
}

func TestDeleteRecipe(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := makeTestUser(t, s, "alice@example.com")
	bob := makeTestUser(t, s, "bob@example.com")
	tag := makeTestAttribute(t, s, domain.KindTag, alice.ID, "Dinner")
	r := makeTestRecipe(t, s, alice.ID, "Soup", []int64{tag.ID}, nil)

	if err := s.DeleteRecipe(ctx, r.ID, bob.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("non-owner delete: expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteRecipe(ctx, r.ID, alice.ID); err != nil {
		t.Fatalf("DeleteRecipe: %v", err)
	}
	if _, err := s.GetRecipe(ctx, r.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetRecipe after delete: expected ErrNotFound, got %v", err)
	}

	// The tag outlives the recipe but is no longer assigned.
	assigned, err := s.ListAttributes(ctx, store.AttributeFilter{Kind: domain.KindTag, OwnerID: alice.ID, AssignedOnly: true})
	if err != nil {
		t.Fatalf("ListAttributes: %v", err)
	}
	if len(assigned) != 0 {
		t.Errorf("link rows survived delete: %+v", assigned)
	}
	all, err := s.ListAttributes(ctx, store.AttributeFilter{Kind: domain.KindTag, OwnerID: alice.ID})
	if err != nil {
		t.Fatalf("ListAttributes: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("tag should survive recipe delete, got %d", len(all))
	}
}
