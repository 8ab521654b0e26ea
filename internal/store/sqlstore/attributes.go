package sqlstore

import (
	"context"
	"fmt"

	"github.com/recipeboxapp/recipebox-server/internal/domain"
	"github.com/recipeboxapp/recipebox-server/internal/store"
)

// attrTables names the table, recipe link table, and link column for a kind.
type attrTables struct {
	table  string
	link   string
	column string
}

func tablesFor(kind domain.AttributeKind) (attrTables, error) {
	switch kind {
	case domain.KindTag:
		return attrTables{table: "tags", link: "recipe_tags", column: "tag_id"}, nil
	case domain.KindIngredient:
		return attrTables{table: "ingredients", link: "recipe_ingredients", column: "ingredient_id"}, nil
	}
	return attrTables{}, fmt.Errorf("unknown attribute kind %q", kind)
}

type attributeRow struct {
	ID     int64  `db:"id"`
	Name   string `db:"name"`
	UserID int64  `db:"user_id"`
}

func toAttributes(kind domain.AttributeKind, rows []attributeRow) []*domain.Attribute {
	out := make([]*domain.Attribute, len(rows))
	for i, r := range rows {
		out[i] = &domain.Attribute{ID: r.ID, Kind: kind, Name: r.Name, UserID: r.UserID}
	}
	return out
}

// CreateAttribute inserts a tag or ingredient and sets its ID.
func (s *Store) CreateAttribute(ctx context.Context, attr *domain.Attribute) error {
	t, err := tablesFor(attr.Kind)
	if err != nil {
		return err
	}

	err = s.db.QueryRowxContext(ctx,
		s.q(`INSERT INTO `+t.table+` (name, user_id) VALUES (?, ?) RETURNING id`),
		attr.Name, attr.UserID,
	).Scan(&attr.ID)
	if err != nil {
		return fmt.Errorf("create %s: %w", attr.Kind, translate(err))
	}
	return nil
}

// ListAttributes returns the owner's attributes ordered by name descending,
// comparing bytes so upper case sorts before lower case.
func (s *Store) ListAttributes(ctx context.Context, filter store.AttributeFilter) ([]*domain.Attribute, error) {
	t, err := tablesFor(filter.Kind)
	if err != nil {
		return nil, err
	}

	query := `SELECT a.id, a.name, a.user_id FROM ` + t.table + ` a WHERE a.user_id = ?`
	if filter.AssignedOnly {
		query += ` AND EXISTS (SELECT 1 FROM ` + t.link + ` l WHERE l.` + t.column + ` = a.id)`
	}
	query += ` ORDER BY a.name COLLATE ` + s.d.binary + ` DESC, a.id DESC`

	var rows []attributeRow
	if err := s.db.SelectContext(ctx, &rows, s.q(query), filter.OwnerID); err != nil {
		return nil, fmt.Errorf("list %s: %w", t.table, translate(err))
	}
	return toAttributes(filter.Kind, rows), nil
}

// GetAttributesByIDs loads the attributes of kind with the given ids, any owner.
// Unknown ids are skipped.
func (s *Store) GetAttributesByIDs(ctx context.Context, kind domain.AttributeKind, ids []int64) ([]*domain.Attribute, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*domain.Attribute{}, nil
	}

	query, args, err := s.in(`SELECT id, name, user_id FROM `+t.table+` WHERE id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}

	var rows []attributeRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("get %s: %w", t.table, translate(err))
	}
	return toAttributes(kind, rows), nil
}
