// Package main is the recipebox operator CLI: account management, tokens,
// and sample data.
//
// Usage:
//
//	go run ./cmd/seed createuser --email cook@example.com --password secret
//	go run ./cmd/seed --database-url postgres://... createsuperuser --email admin@example.com --password secret
//	go run ./cmd/seed token --email cook@example.com
//	go run ./cmd/seed sample --email cook@example.com
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"
	"github.com/urfave/cli/v3"

	"github.com/recipeboxapp/recipebox-server/internal/config"
	"github.com/recipeboxapp/recipebox-server/internal/di"
	"github.com/recipeboxapp/recipebox-server/internal/di/providers"
	"github.com/recipeboxapp/recipebox-server/internal/service"
)

// app is the set of services a command runs against.
type app struct {
	injector   *do.RootScope
	users      *service.UserService
	recipes    *service.RecipeService
	attributes *providers.AttributeServices
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cli.Command {
	return &cli.Command{
		Name:  "recipebox-seed",
		Usage: "Manage recipebox accounts and sample data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "Path to .env file",
			},
			&cli.StringFlag{
				Name:  "database-url",
				Usage: "Database URL (sqlite://path or postgres://...); defaults to DATABASE_URL",
			},
			&cli.StringFlag{
				Name:  "data-path",
				Usage: "Base path for local data; defaults to DATA_PATH",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "warn",
				Usage: "Log level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			createUserCmd(false),
			createUserCmd(true),
			tokenCmd(),
			deleteUserCmd(),
			sampleCmd(),
		},
	}
}

func emailFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "email",
		Aliases:  []string{"e"},
		Required: true,
		Usage:    "Account email address",
	}
}

func createUserCmd(superuser bool) *cli.Command {
	name, usage := "createuser", "Create an active user"
	if superuser {
		name, usage = "createsuperuser", "Create an active staff user"
	}

	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: []cli.Flag{
			emailFlag(),
			&cli.StringFlag{
				Name:     "password",
				Aliases:  []string{"p"},
				Required: true,
				Usage:    "Account password (at least 5 characters)",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Display name",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			req := service.CreateUserRequest{
				Email:    cmd.String("email"),
				Password: cmd.String("password"),
				Name:     cmd.String("name"),
			}
			create := a.users.CreateUser
			if superuser {
				create = a.users.CreateSuperuser
			}
			u, err := create(ctx, req)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}

			fmt.Printf("Created user %s (id %d, staff %t)\n", u.Email, u.ID, u.IsStaff)
			return nil
		},
	}
}

func tokenCmd() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Print an access token for an existing user",
		Flags: []cli.Flag{emailFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			token, err := a.users.TokenFor(ctx, cmd.String("email"))
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			fmt.Println(token)
			return nil
		},
	}
}

func deleteUserCmd() *cli.Command {
	return &cli.Command{
		Name:  "deleteuser",
		Usage: "Delete a user and everything they own",
		Flags: []cli.Flag{emailFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.users.DeleteUser(ctx, cmd.String("email")); err != nil {
				return fmt.Errorf("delete user: %w", err)
			}
			fmt.Printf("Deleted user %s\n", cmd.String("email"))
			return nil
		},
	}
}

func sampleCmd() *cli.Command {
	return &cli.Command{
		Name:  "sample",
		Usage: "Create sample tags, ingredients, and recipes for a user",
		Flags: []cli.Flag{emailFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			u, err := a.users.GetByEmail(ctx, cmd.String("email"))
			if err != nil {
				return fmt.Errorf("find user: %w", err)
			}

			n, err := seedSamples(ctx, a, u.Principal())
			if err != nil {
				return err
			}
			fmt.Printf("Created %d sample recipes for %s\n", n, u.Email)
			return nil
		},
	}
}

// open loads configuration from the global flags and builds the services.
func open(cmd *cli.Command) (*app, error) {
	args := []string{"-env-file", cmd.String("env-file"), "-log-level", cmd.String("log-level")}
	if v := cmd.String("database-url"); v != "" {
		args = append(args, "-database-url", v)
	}
	if v := cmd.String("data-path"); v != "" {
		args = append(args, "-data-path", v)
	}

	cfg, err := config.Load(args)
	if err != nil {
		return nil, err
	}
	return openConfig(cfg)
}

func openConfig(cfg *config.Config) (*app, error) {
	injector := di.NewContainerWithConfig(cfg)
	users, recipes, attributes, err := di.Services(injector)
	if err != nil {
		_ = injector.Shutdown()
		return nil, err
	}
	return &app{injector: injector, users: users, recipes: recipes, attributes: attributes}, nil
}

func (a *app) close() {
	_ = a.injector.Shutdown()
}
