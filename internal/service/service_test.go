package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/recipeboxapp/recipebox-server/internal/auth"
	"github.com/recipeboxapp/recipebox-server/internal/domain"
	domainerrors "github.com/recipeboxapp/recipebox-server/internal/errors"
	"github.com/recipeboxapp/recipebox-server/internal/media"
	"github.com/recipeboxapp/recipebox-server/internal/store/sqlstore"
	"github.com/recipeboxapp/recipebox-server/internal/validation"
)

// testEnv wires every service against a temp-dir SQLite store and local media.
type testEnv struct {
	store       *sqlstore.Store
	media       *media.LocalStorage
	tokens      *auth.TokenService
	users       *UserService
	tags        *AttributeService
	ingredients *AttributeService
	recipes     *RecipeService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := sqlstore.Open(ctx, "sqlite://"+filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	storage, err := media.NewLocalStorage(filepath.Join(dir, "media"), "/media/")
	require.NoError(t, err)

	key := make([]byte, auth.KeySize)
	_, err = rand.Read(key)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	hasher := auth.NewPasswordHasher(auth.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	v := validation.New()

	tags, err := NewAttributeService(domain.KindTag, s, v, logger)
	require.NoError(t, err)
	ingredients, err := NewAttributeService(domain.KindIngredient, s, v, logger)
	require.NoError(t, err)

	return &testEnv{
		store:       s,
		media:       storage,
		tokens:      tokens,
		users:       NewUserService(s, tokens, hasher, v, logger),
		tags:        tags,
		ingredients: ingredients,
		recipes:     NewRecipeService(s, storage, v, logger),
	}
}

// principal registers a user and returns its principal.
func (e *testEnv) principal(t *testing.T, email string) domain.Principal {
	t.Helper()
	u, err := e.users.CreateUser(context.Background(), CreateUserRequest{Email: email, Password: "testpass123", Name: "Test"})
	require.NoError(t, err)
	return u.Principal()
}

func (e *testEnv) tag(t *testing.T, p domain.Principal, name string) *domain.Attribute {
	t.Helper()
	a, err := e.tags.Create(context.Background(), p, AttributeRequest{Name: &name})
	require.NoError(t, err)
	return a
}

func (e *testEnv) ingredient(t *testing.T, p domain.Principal, name string) *domain.Attribute {
	t.Helper()
	a, err := e.ingredients.Create(context.Background(), p, AttributeRequest{Name: &name})
	require.NoError(t, err)
	return a
}

func (e *testEnv) recipe(t *testing.T, p domain.Principal, title string, tags, ingredients []int64) *domain.Recipe {
	t.Helper()
	r, err := e.recipes.Create(context.Background(), p, RecipeRequest{
		Title:       &title,
		TimeMinutes: ptr(10),
		Price:       ptr("5.00"),
		Tags:        tags,
		Ingredients: ingredients,
	})
	require.NoError(t, err)
	return r
}

func ptr[T any](v T) *T { return &v }

// fieldErrors extracts per-field messages from a validation error.
func fieldErrors(t *testing.T, err error) domainerrors.FieldErrors {
	t.Helper()
	require.Error(t, err)
	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, domainerrors.CodeValidation, derr.Code, "error: %v", err)
	return derr.Fields
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x * 20), G: uint8(y * 20), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
