package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipeboxapp/recipebox-server/internal/config"
)

func run(t *testing.T, dir string, args ...string) error {
	t.Helper()
	base := []string{"recipebox-seed", "--data-path", dir, "--env-file", filepath.Join(dir, "missing.env")}
	return rootCmd().Run(context.Background(), append(base, args...))
}

func TestSeed_UserLifecycle(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, run(t, dir, "createsuperuser", "--email", "admin@example.com", "--password", "secret123"))
	require.NoError(t, run(t, dir, "token", "--email", "admin@example.com"))
	require.NoError(t, run(t, dir, "sample", "--email", "admin@example.com"))
	// Attributes are reused by name on a second run.
	require.NoError(t, run(t, dir, "sample", "--email", "admin@example.com"))

	cfg, err := config.Load([]string{"-data-path", dir, "-env-file", filepath.Join(dir, "missing.env")})
	require.NoError(t, err)
	a, err := openConfig(cfg)
	require.NoError(t, err)
	u, err := a.users.GetByEmail(context.Background(), "admin@example.com")
	require.NoError(t, err)
	assert.True(t, u.IsStaff)
	recipes, err := a.recipes.List(context.Background(), u.Principal(), nil, nil)
	require.NoError(t, err)
	assert.Len(t, recipes, 2*len(samples))
	tags, err := a.attributes.Tags.List(context.Background(), u.Principal(), false)
	require.NoError(t, err)
	assert.Len(t, tags, 4)
	a.close()

	require.NoError(t, run(t, dir, "deleteuser", "--email", "admin@example.com"))
	assert.Error(t, run(t, dir, "token", "--email", "admin@example.com"))
}

func TestSeed_CreateUserValidation(t *testing.T) {
	dir := t.TempDir()

	assert.Error(t, run(t, dir, "createuser", "--email", "short@example.com", "--password", "pw"))
	assert.Error(t, run(t, dir, "createuser", "--password", "secret123"))
}
