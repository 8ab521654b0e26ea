//go:build integration

package sqlstore

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/recipeboxapp/recipebox-server/internal/domain"
	"github.com/recipeboxapp/recipebox-server/internal/store"
)

type PostgresStoreSuite struct {
	suite.Suite
	ctx   context.Context
	pgc   *postgres.PostgresContainer
	store *Store
}

func TestPostgresStore(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()

	pgc, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("recipebox"),
		postgres.WithUsername("recipebox"),
		postgres.WithPassword("recipebox"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err, "start postgres container")
	s.pgc = pgc

	dsn, err := pgc.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.store, err = Open(s.ctx, dsn, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(err)
	s.Equal("postgres", s.store.Dialect())
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.store != nil {
		s.store.Close()
	}
	if s.pgc != nil {
		s.NoError(s.pgc.Terminate(s.ctx))
	}
}

func (s *PostgresStoreSuite) user(email string) *domain.User {
	u := &domain.User{Email: email, IsActive: true}
	s.Require().NoError(s.store.CreateUser(s.ctx, u))
	return u
}

func (s *PostgresStoreSuite) attr(kind domain.AttributeKind, owner int64, name string) *domain.Attribute {
	a := &domain.Attribute{Kind: kind, Name: name, UserID: owner}
	s.Require().NoError(s.store.CreateAttribute(s.ctx, a))
	return a
}

func (s *PostgresStoreSuite) TestUsers() {
	u := s.user("pg-user@example.com")

	got, err := s.store.GetUserByEmail(s.ctx, "pg-user@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, got.ID)
	s.WithinDuration(u.CreatedAt, got.CreatedAt, time.Second)

	err = s.store.CreateUser(s.ctx, &domain.User{Email: "pg-user@example.com"})
	s.ErrorIs(err, store.ErrAlreadyExists)
}

func (s *PostgresStoreSuite) TestAttributeOrdering() {
	u := s.user("pg-order@example.com")
	for _, name := range []string{"Vegan", "dessert", "Breakfast", "apple"} {
		s.attr(domain.KindTag, u.ID, name)
	}

	got, err := s.store.ListAttributes(s.ctx, store.AttributeFilter{Kind: domain.KindTag, OwnerID: u.ID})
	s.Require().NoError(err)
	s.Equal([]string{"dessert", "apple", "Vegan", "Breakfast"}, attributeNames(got))
}

func (s *PostgresStoreSuite) TestRecipeLifecycle() {
	u := s.user("pg-recipe@example.com")
	tag := s.attr(domain.KindTag, u.ID, "Dinner")
	other := s.attr(domain.KindTag, u.ID, "Lunch")
	salt := s.attr(domain.KindIngredient, u.ID, "Salt")

	r := &domain.Recipe{
		UserID:        u.ID,
		Title:         "Curry",
		TimeMinutes:   30,
		Price:         2050,
		TagIDs:        []int64{tag.ID},
		IngredientIDs: []int64{salt.ID},
	}
	s.Require().NoError(s.store.CreateRecipe(s.ctx, r))

	got, err := s.store.GetRecipe(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal("20.50", got.Price.String())
	s.Equal([]int64{tag.ID}, got.TagIDs)

	list, err := s.store.ListRecipes(s.ctx, store.RecipeFilter{OwnerID: u.ID, TagIDs: []int64{tag.ID, other.ID}, IngredientIDs: []int64{salt.ID}})
	s.Require().NoError(err)
	s.Len(list, 1)

	r.TagIDs = []int64{other.ID}
	r.IngredientIDs = nil
	s.Require().NoError(s.store.UpdateRecipe(s.ctx, r))

	got, err = s.store.GetRecipe(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal([]int64{other.ID}, got.TagIDs)
	s.Empty(got.IngredientIDs)

	s.Require().NoError(s.store.SetRecipeImage(s.ctx, r.ID, u.ID, "uploads/recipe/a.png", "hash"))
	s.ErrorIs(s.store.DeleteRecipe(s.ctx, r.ID, u.ID+1000), store.ErrNotFound)
	s.Require().NoError(s.store.DeleteRecipe(s.ctx, r.ID, u.ID))

	_, err = s.store.GetRecipe(s.ctx, r.ID)
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *PostgresStoreSuite) TestInvalidReference() {
	u := s.user("pg-ref@example.com")
	err := s.store.CreateRecipe(s.ctx, &domain.Recipe{UserID: u.ID, Title: "Ghost", TagIDs: []int64{987654}})
	s.ErrorIs(err, store.ErrInvalidReference)
}
