package sqlstore

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/recipeboxapp/recipebox-server/internal/domain"
)

// newTestStore opens a migrated SQLite store in a temp dir.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "test.db"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func makeTestUser(t *testing.T, s *Store, email string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Name: "Test", IsActive: true, PasswordVerifier: "x"}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return u
}

func makeTestAttribute(t *testing.T, s *Store, kind domain.AttributeKind, owner int64, name string) *domain.Attribute {
	t.Helper()
	a := &domain.Attribute{Kind: kind, Name: name, UserID: owner}
	if err := s.CreateAttribute(context.Background(), a); err != nil {
		t.Fatalf("CreateAttribute(%s): %v", name, err)
	}
	return a
}

func makeTestRecipe(t *testing.T, s *Store, owner int64, title string, tags, ingredients []int64) *domain.Recipe {
	t.Helper()
	r := &domain.Recipe{
		UserID:        owner,
		Title:         title,
		TimeMinutes:   10,
		Price:         500,
		TagIDs:        tags,
		IngredientIDs: ingredients,
	}
	if err := s.CreateRecipe(context.Background(), r); err != nil {
		t.Fatalf("CreateRecipe(%s): %v", title, err)
	}
	return r
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		url      string
		dialect  string
		dsnStart string
		wantErr  bool
	}{
		{"postgres://u:p@db:5432/app", "postgres", "postgres://u:p@db:5432/app", false},
		{"postgresql://db/app", "postgres", "postgresql://db/app", false},
		{"sqlite:///var/lib/recipebox.db", "sqlite", "file:/var/lib/recipebox.db?", false},
		{"/tmp/recipes.db", "sqlite", "file:/tmp/recipes.db?", false},
		{"mysql://db/app", "", "", true},
		{"sqlite://", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			d, dsn, err := parseURL(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseURL(%q): expected error", tt.url)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseURL(%q): %v", tt.url, err)
			}
			if d.name != tt.dialect {
				t.Errorf("dialect: got %q, want %q", d.name, tt.dialect)
			}
			if !strings.HasPrefix(dsn, tt.dsnStart) {
				t.Errorf("dsn: got %q, want prefix %q", dsn, tt.dsnStart)
			}
			if d.name == "sqlite" && !strings.Contains(dsn, "foreign_keys%281%29") {
				t.Errorf("dsn %q does not enable foreign keys", dsn)
			}
		})
	}
}

func TestOpen_MigratesTwice(t *testing.T) {
	path := "sqlite://" + filepath.Join(t.TempDir(), "twice.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for i := range 2 {
		s, err := Open(context.Background(), path, logger)
		if err != nil {
			t.Fatalf("Open #%d: %v", i+1, err)
		}
		if err := s.Ping(context.Background()); err != nil {
			t.Fatalf("Ping: %v", err)
		}
		if s.Dialect() != "sqlite" {
			t.Errorf("Dialect: got %q", s.Dialect())
		}
		s.Close()
	}
}
