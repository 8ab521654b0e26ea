package main

import (
	"context"
	"fmt"

	"github.com/recipeboxapp/recipebox-server/internal/domain"
	"github.com/recipeboxapp/recipebox-server/internal/service"
)

type sampleRecipe struct {
	title       string
	minutes     int
	price       string
	link        string
	tags        []string
	ingredients []string
}

var samples = []sampleRecipe{
	{
		title:       "Spaghetti carbonara",
		minutes:     25,
		price:       "6.50",
		tags:        []string{"Dinner", "Italian"},
		ingredients: []string{"Spaghetti", "Eggs", "Pecorino", "Guanciale"},
	},
	{
		title:       "Thai vegetable curry",
		minutes:     40,
		price:       "8.00",
		tags:        []string{"Dinner", "Vegan"},
		ingredients: []string{"Coconut milk", "Red curry paste", "Aubergine"},
	},
	{
		title:       "Avocado toast",
		minutes:     5,
		price:       "3.25",
		link:        "https://example.com/avocado-toast",
		tags:        []string{"Breakfast", "Vegan"},
		ingredients: []string{"Avocado", "Sourdough", "Lime"},
	},
}

// seedSamples creates the sample recipes for p, reusing attribute ids by name.
func seedSamples(ctx context.Context, a *app, p domain.Principal) (int, error) {
	tagIDs, err := ensureAttributes(ctx, a.attributes.Tags, p)
	if err != nil {
		return 0, err
	}
	ingredientIDs, err := ensureAttributes(ctx, a.attributes.Ingredients, p)
	if err != nil {
		return 0, err
	}

	for _, s := range samples {
		req := service.RecipeRequest{
			Title:       &s.title,
			TimeMinutes: &s.minutes,
			Price:       &s.price,
			Link:        &s.link,
			Tags:        pick(tagIDs, s.tags),
			Ingredients: pick(ingredientIDs, s.ingredients),
		}
		if _, err := a.recipes.Create(ctx, p, req); err != nil {
			return 0, fmt.Errorf("create recipe %q: %w", s.title, err)
		}
	}
	return len(samples), nil
}

// ensureAttributes creates every attribute of svc's kind the samples mention
// that p does not have yet, and returns all of p's ids by name.
func ensureAttributes(ctx context.Context, svc *service.AttributeService, p domain.Principal) (map[string]int64, error) {
	existing, err := svc.List(ctx, p, false)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]int64, len(existing))
	for _, attr := range existing {
		ids[attr.Name] = attr.ID
	}

	for _, s := range samples {
		names := s.tags
		if svc.Kind() == domain.KindIngredient {
			names = s.ingredients
		}
		for _, name := range names {
			if _, ok := ids[name]; ok {
				continue
			}
			attr, err := svc.Create(ctx, p, service.AttributeRequest{Name: &name})
			if err != nil {
				return nil, fmt.Errorf("create %s %q: %w", svc.Kind(), name, err)
			}
			ids[name] = attr.ID
		}
	}
	return ids, nil
}

func pick(ids map[string]int64, names []string) []int64 {
	out := make([]int64, 0, len(names))
	for _, name := range names {
		out = append(out, ids[name])
	}
	return out
}
