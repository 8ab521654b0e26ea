package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/recipeboxapp/recipebox-server/internal/domain"
	"github.com/recipeboxapp/recipebox-server/internal/store"
)

const recipeColumns = `r.id, r.user_id, r.title, r.time_minutes, r.price, r.link, r.image_path, r.image_blurhash`

var linkKinds = []domain.AttributeKind{domain.KindTag, domain.KindIngredient}

type recipeRow struct {
	ID            int64          `db:"id"`
	UserID        int64          `db:"user_id"`
	Title         string         `db:"title"`
	TimeMinutes   int            `db:"time_minutes"`
	Price         domain.Price   `db:"price"`
	Link          string         `db:"link"`
	ImagePath     sql.NullString `db:"image_path"`
	ImageBlurHash string         `db:"image_blurhash"`
}

func (r *recipeRow) toDomain() *domain.Recipe {
	return &domain.Recipe{
		ID:            r.ID,
		UserID:        r.UserID,
		Title:         r.Title,
		TimeMinutes:   r.TimeMinutes,
		Price:         r.Price,
		Link:          r.Link,
		Image:         r.ImagePath.String,
		ImageBlurHash: r.ImageBlurHash,
		TagIDs:        []int64{},
		IngredientIDs: []int64{},
	}
}

type linkRow struct {
	RecipeID int64 `db:"recipe_id"`
	AttrID   int64 `db:"attr_id"`
}

// CreateRecipe inserts the recipe and its link sets in one transaction.
func (s *Store) CreateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, s.q(`
			INSERT INTO recipes (user_id, title, time_minutes, price, link, image_path, image_blurhash)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			RETURNING id`),
			recipe.UserID, recipe.Title, recipe.TimeMinutes, recipe.Price, recipe.Link,
			nullString(recipe.Image), recipe.ImageBlurHash,
		).Scan(&recipe.ID)
		if err != nil {
			return fmt.Errorf("create recipe: %w", translate(err))
		}

		for _, kind := range linkKinds {
			ids := domain.IDSet(recipe.LinkIDs(kind))
			if err := s.insertLinks(ctx, tx, kind, recipe.ID, ids); err != nil {
				return err
			}
			recipe.SetLinkIDs(kind, ids)
		}
		return nil
	})
}

// GetRecipe retrieves a recipe with its link sets.
func (s *Store) GetRecipe(ctx context.Context, id int64) (*domain.Recipe, error) {
	var row recipeRow
	if err := s.db.GetContext(ctx, &row, s.q(`SELECT `+recipeColumns+` FROM recipes r WHERE r.id = ?`), id); err != nil {
		return nil, translate(err)
	}

	recipe := row.toDomain()
	if err := s.attachLinks(ctx, []*domain.Recipe{recipe}); err != nil {
		return nil, err
	}
	return recipe, nil
}

// ListRecipes returns the owner's recipes ordered by id. Each non-empty id
// set in filter keeps recipes linked to at least one of its ids.
func (s *Store) ListRecipes(ctx context.Context, filter store.RecipeFilter) ([]*domain.Recipe, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + recipeColumns + ` FROM recipes r WHERE r.user_id = ?`)
	args := []any{filter.OwnerID}

	for _, kind := range linkKinds {
		ids := filter.TagIDs
		if kind == domain.KindIngredient {
			ids = filter.IngredientIDs
		}
		if len(ids) == 0 {
			continue
		}
		t, err := tablesFor(kind)
		if err != nil {
			return nil, err
		}
		b.WriteString(` AND EXISTS (SELECT 1 FROM ` + t.link + ` l WHERE l.recipe_id = r.id AND l.` + t.column + ` IN (?))`)
		args = append(args, ids)
	}
	b.WriteString(` ORDER BY r.id`)

	query, args, err := s.in(b.String(), args...)
	if err != nil {
		return nil, err
	}

	var rows []recipeRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list recipes: %w", translate(err))
	}

	recipes := make([]*domain.Recipe, len(rows))
	for i := range rows {
		recipes[i] = rows[i].toDomain()
	}
	if err := s.attachLinks(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// UpdateRecipe rewrites the recipe columns and replaces both link sets. The
// image is left alone; see SetRecipeImage. Rows not owned by recipe.UserID are
// reported as store.ErrNotFound.
func (s *Store) UpdateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, s.q(`
			UPDATE recipes
			SET title = ?, time_minutes = ?, price = ?, link = ?
			WHERE id = ? AND user_id = ?`),
			recipe.Title, recipe.TimeMinutes, recipe.Price, recipe.Link, recipe.ID, recipe.UserID,
		)
		if err != nil {
			return fmt.Errorf("update recipe: %w", translate(err))
		}
		if err := expectRow(res); err != nil {
			return err
		}

		for _, kind := range linkKinds {
			ids := domain.IDSet(recipe.LinkIDs(kind))
			if err := s.replaceLinks(ctx, tx, kind, recipe.ID, ids); err != nil {
				return err
			}
			recipe.SetLinkIDs(kind, ids)
		}
		return nil
	})
}

// SetRecipeImage records a new image blob for the owner's recipe.
func (s *Store) SetRecipeImage(ctx context.Context, recipeID, ownerID int64, image, blurHash string) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE recipes SET image_path = ?, image_blurhash = ?
		WHERE id = ? AND user_id = ?`),
		nullString(image), blurHash, recipeID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("set recipe image: %w", translate(err))
	}
	return expectRow(res)
}

// DeleteRecipe removes the owner's recipe and its links.
func (s *Store) DeleteRecipe(ctx context.Context, recipeID, ownerID int64) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM recipes WHERE id = ? AND user_id = ?`), recipeID, ownerID)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", translate(err))
	}
	return expectRow(res)
}

// insertLinks adds membership rows, ignoring ones that already exist.
func (s *Store) insertLinks(ctx context.Context, tx *sqlx.Tx, kind domain.AttributeKind, recipeID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	t, err := tablesFor(kind)
	if err != nil {
		return err
	}

	stmt, err := tx.PreparexContext(ctx, s.q(
		`INSERT INTO `+t.link+` (recipe_id, `+t.column+`) VALUES (?, ?) ON CONFLICT DO NOTHING`))
	if err != nil {
		return fmt.Errorf("prepare %s insert: %w", t.link, err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, recipeID, id); err != nil {
			return fmt.Errorf("link %s %d: %w", kind, id, translate(err))
		}
	}
	return nil
}

// replaceLinks makes the recipe's link set for kind exactly ids.
func (s *Store) replaceLinks(ctx context.Context, tx *sqlx.Tx, kind domain.AttributeKind, recipeID int64, ids []int64) error {
	t, err := tablesFor(kind)
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM `+t.link+` WHERE recipe_id = ?`), recipeID); err != nil {
			return fmt.Errorf("clear %s: %w", t.link, translate(err))
		}
		return nil
	}

	query, args, err := s.in(`DELETE FROM `+t.link+` WHERE recipe_id = ? AND `+t.column+` NOT IN (?)`, recipeID, ids)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("prune %s: %w", t.link, translate(err))
	}
	return s.insertLinks(ctx, tx, kind, recipeID, ids)
}

// attachLinks fills TagIDs and IngredientIDs for recipes with one query per kind.
func (s *Store) attachLinks(ctx context.Context, recipes []*domain.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	byID := make(map[int64]*domain.Recipe, len(recipes))
	ids := make([]int64, len(recipes))
	for i, r := range recipes {
		byID[r.ID] = r
		ids[i] = r.ID
	}

	for _, kind := range linkKinds {
		t, err := tablesFor(kind)
		if err != nil {
			return err
		}

		query, args, err := s.in(`SELECT recipe_id, `+t.column+` AS attr_id FROM `+t.link+
			` WHERE recipe_id IN (?) ORDER BY recipe_id, `+t.column, ids)
		if err != nil {
			return err
		}

		var links []linkRow
		if err := s.db.SelectContext(ctx, &links, query, args...); err != nil {
			return fmt.Errorf("load %s: %w", t.link, translate(err))
		}

		for _, l := range links {
			r := byID[l.RecipeID]
			if kind == domain.KindTag {
				r.TagIDs = append(r.TagIDs, l.AttrID)
			} else {
				r.IngredientIDs = append(r.IngredientIDs, l.AttrID)
			}
		}
	}
	return nil
}
